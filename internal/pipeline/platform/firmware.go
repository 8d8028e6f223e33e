package platform

import (
	"sort"
	"strings"

	"github.com/mrwong99/entroppy/internal/boundary"
	"github.com/mrwong99/entroppy/internal/pipeline/conflict"
	"github.com/mrwong99/entroppy/internal/trace"
)

// FirmwareInput bundles everything the firmware ranker needs beyond the
// triple set itself.
type FirmwareInput struct {
	Corrections    []boundary.Correction
	Patterns       PatternReplacements
	UserWords      map[string]struct{}
	Freq           FreqFunc
	MaxCorrections int
}

// FirmwareResult is stage 6's report-worthy breakdown for the firmware
// personality.
type FirmwareResult struct {
	Kept              []boundary.Correction
	CharsetDropped    []boundary.Correction
	BoundaryDeduped   []boundary.Correction
	SubstringConflict []boundary.Correction
	Truncated         []boundary.Correction
}

// Firmware implements the firmware personality end to end: charset
// filtering, least-restrictive-boundary dedup, stage-5 conflict removal
// (prefix detector for NONE/LEFT, suffix detector for RIGHT) followed by
// full-substring uniqueness, three-tier ranking, and the hard cap.
func Firmware(in FirmwareInput, tr *trace.Handle) FirmwareResult {
	var res FirmwareResult

	var charsetOK []boundary.Correction
	for _, c := range in.Corrections {
		if validFirmwareCharset(c.Typo) && validFirmwareCharset(c.Word) {
			charsetOK = append(charsetOK, c)
			continue
		}
		res.CharsetDropped = append(res.CharsetDropped, c)
		tr.Emit("platform", "charset_dropped", c, "contains a character outside [a-z']")
	}

	deduped, dupDropped := dedupeLeastRestrictive(charsetOK)
	res.BoundaryDeduped = dupDropped
	for _, c := range dupDropped {
		tr.Emit("platform", "boundary_deduped", c, "a less restrictive boundary already exists for this typo")
	}

	afterStage5 := conflict.Remove(deduped, tr)
	afterFirmware := conflict.FirmwareSubstringUniqueness(afterStage5.Kept, tr)
	res.SubstringConflict = append(append([]boundary.Correction(nil), afterStage5.Removed...), afterFirmware.Removed...)

	ranked := rankFirmware(afterFirmware.Kept, in.Patterns, in.UserWords, in.Freq)

	kept := ranked
	if in.MaxCorrections > 0 && len(ranked) > in.MaxCorrections {
		res.Truncated = append(res.Truncated, ranked[in.MaxCorrections:]...)
		kept = ranked[:in.MaxCorrections]
	}

	sortByWord(kept)
	res.Kept = kept
	return res
}

func validFirmwareCharset(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || r == '\'' {
			continue
		}
		return false
	}
	return true
}

// dedupeLeastRestrictive implements "same-typo, different-boundary: keep
// the least restrictive boundary only". Ties in strictness (LEFT vs RIGHT)
// are broken alphabetically by word for determinism.
func dedupeLeastRestrictive(cs []boundary.Correction) (kept, dropped []boundary.Correction) {
	byTypo := make(map[string][]boundary.Correction)
	var order []string
	for _, c := range cs {
		if _, ok := byTypo[c.Typo]; !ok {
			order = append(order, c.Typo)
		}
		byTypo[c.Typo] = append(byTypo[c.Typo], c)
	}
	sort.Strings(order)

	for _, typo := range order {
		group := byTypo[typo]
		sort.Slice(group, func(i, j int) bool {
			si, sj := strictness(group[i].Boundary), strictness(group[j].Boundary)
			if si != sj {
				return si < sj
			}
			return group[i].Word < group[j].Word
		})
		kept = append(kept, group[0])
		dropped = append(dropped, group[1:]...)
	}
	return kept, dropped
}

func strictness(b boundary.Boundary) int {
	switch b {
	case boundary.NONE:
		return 0
	case boundary.LEFT, boundary.RIGHT:
		return 1
	default: // BOTH
		return 2
	}
}

// rankFirmware implements the three-tier ranking: user include words
// first, then pattern corrections scored by the summed
// frequency of their replacements, then direct corrections scored by their
// own word's frequency.
func rankFirmware(cs []boundary.Correction, patterns PatternReplacements, userWords map[string]struct{}, freq FreqFunc) []boundary.Correction {
	var tier0, tier1, tier2 []boundary.Correction
	for _, c := range cs {
		switch {
		case inUserWords(c.Word, userWords):
			tier0 = append(tier0, c)
		case patterns != nil && patterns[c] != nil:
			tier1 = append(tier1, c)
		default:
			tier2 = append(tier2, c)
		}
	}

	sortByWord(tier0)

	sort.Slice(tier1, func(i, j int) bool {
		si := patternScore(tier1[i], patterns, freq)
		sj := patternScore(tier1[j], patterns, freq)
		if si != sj {
			return si > sj
		}
		return tier1[i].Word < tier1[j].Word
	})

	sort.Slice(tier2, func(i, j int) bool {
		fi, fj := freq(tier2[i].Word), freq(tier2[j].Word)
		if fi != fj {
			return fi > fj
		}
		return tier2[i].Word < tier2[j].Word
	})

	out := make([]boundary.Correction, 0, len(cs))
	out = append(out, tier0...)
	out = append(out, tier1...)
	out = append(out, tier2...)
	return out
}

func patternScore(c boundary.Correction, patterns PatternReplacements, freq FreqFunc) float64 {
	var sum float64
	for _, r := range patterns[c] {
		sum += freq(r.Word)
	}
	return sum
}

func inUserWords(word string, userWords map[string]struct{}) bool {
	_, ok := userWords[word]
	return ok
}

// EmitFirmware renders the flat `trigger -> correction` text format, one
// line per correction, with boundary marker syntax. The input is expected
// to already be sorted alphabetically by word.
func EmitFirmware(corrections []boundary.Correction) []byte {
	var b strings.Builder
	for i, c := range corrections {
		if i > 0 {
			b.WriteByte('\n')
		}
		prefix, suffix := boundaryMarkers(c.Boundary)
		b.WriteString(prefix)
		b.WriteString(c.Typo)
		b.WriteString(suffix)
		b.WriteString(" -> ")
		b.WriteString(c.Word)
	}
	return []byte(b.String())
}

func boundaryMarkers(b boundary.Boundary) (prefix, suffix string) {
	switch b {
	case boundary.LEFT:
		return ":", ""
	case boundary.RIGHT:
		return "", ":"
	case boundary.BOTH:
		return ":", ":"
	default:
		return "", ""
	}
}
