// Package pattern implements stage 4 of the solver pipeline: collapsing
// families of corrections that share an affix substitution into a single
// generalized rule.
package pattern

import (
	"sort"
	"strings"

	"github.com/mrwong99/entroppy/internal/boundary"
	"github.com/mrwong99/entroppy/internal/index"
	"github.com/mrwong99/entroppy/internal/pipeline/conflict"
	"github.com/mrwong99/entroppy/internal/trace"
)

// Direction selects which affix a platform's ranker generalizes: the
// left-to-right expander generalizes suffixes (from RIGHT corrections);
// the right-to-left firmware generalizes prefixes (from LEFT corrections).
type Direction int

const (
	Suffix Direction = iota
	Prefix
)

func (d Direction) boundary() boundary.Boundary {
	if d == Suffix {
		return boundary.RIGHT
	}
	return boundary.LEFT
}

// Pattern is a generalized correction whose Typo/Word are affix fragments,
// carrying the concrete corrections it subsumes.
type Pattern struct {
	Correction   boundary.Correction
	Replacements []boundary.Correction
}

// Rejection records a qualifying fragment bucket that failed validation,
// for reporting.
type Rejection struct {
	Correction boundary.Correction
	Reason     string
}

// Result is the outcome of one stage-4 run.
type Result struct {
	// Corrections is the new direct triple set: the input minus triples
	// replaced by a winning pattern, plus each winning pattern's own
	// correction.
	Corrections []boundary.Correction
	Patterns    []Pattern
	Rejected    []Rejection
}

type fragKey struct {
	typoFrag, wordFrag string
	boundary           boundary.Boundary
}

// Generalize runs stage 4 over corrections matching dir's target boundary.
func Generalize(corrections []boundary.Correction, dir Direction, validation, source *index.Index, minTypoLength int, tr *trace.Handle) Result {
	target := dir.boundary()
	buckets := make(map[fragKey][]boundary.Correction)
	var keys []fragKey

	for _, c := range corrections {
		if c.Boundary != target {
			continue
		}
		for _, frag := range extractFragments(c, dir) {
			key := fragKey{typoFrag: frag.typoFrag, wordFrag: frag.wordFrag, boundary: target}
			if _, ok := buckets[key]; !ok {
				keys = append(keys, key)
			}
			buckets[key] = append(buckets[key], c)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return lessFragKey(keys[i], keys[j]) })

	replaced := make(map[boundary.Correction]bool)
	var candidates []Pattern
	var rejected []Rejection

	for _, key := range keys {
		occurrences := buckets[key]
		if len(occurrences) < 2 || len(key.typoFrag) < minTypoLength {
			continue
		}

		patternCorrection := boundary.Correction{Typo: key.typoFrag, Word: key.wordFrag, Boundary: target}
		if reason, ok := rejectReason(patternCorrection, occurrences, dir, validation, source); !ok {
			rejected = append(rejected, Rejection{Correction: patternCorrection, Reason: reason})
			tr.Emit("pattern", "rejected", patternCorrection, reason)
			continue
		}

		candidates = append(candidates, Pattern{Correction: patternCorrection, Replacements: dedupeCorrections(occurrences)})
	}

	winners := resolvePatternCollisions(candidates)
	winners = conflictFilterPatterns(winners, tr)
	winners = rejectCrossBoundary(winners, corrections, &rejected, tr)

	for _, p := range winners {
		for _, r := range p.Replacements {
			replaced[r] = true
		}
	}

	var newDirect []boundary.Correction
	for _, c := range corrections {
		if !replaced[c] {
			newDirect = append(newDirect, c)
		}
	}

	sort.Slice(winners, func(i, j int) bool { return lessCorrection(winners[i].Correction, winners[j].Correction) })
	for _, p := range winners {
		newDirect = append(newDirect, p.Correction)
		tr.Emit("pattern", "accepted", p.Correction, "")
	}

	sort.Slice(newDirect, func(i, j int) bool { return lessCorrection(newDirect[i], newDirect[j]) })
	return Result{Corrections: newDirect, Patterns: winners, Rejected: rejected}
}

type fragment struct {
	typoFrag, wordFrag string
}

// extractFragments enumerates every qualifying affix fragment of c in the
// given direction: length l in [2, len(word)-2], requiring the
// non-fragment remainder to be identical between typo and word, and the
// fragment itself to actually differ.
func extractFragments(c boundary.Correction, dir Direction) []fragment {
	typoRunes := []rune(c.Typo)
	wordRunes := []rune(c.Word)
	wlen := len(wordRunes)

	var out []fragment
	for l := 2; l <= wlen-2; l++ {
		if l > len(typoRunes) {
			continue
		}
		var typoFrag, wordFrag, typoRest, wordRest string
		if dir == Suffix {
			typoFrag = string(typoRunes[len(typoRunes)-l:])
			wordFrag = string(wordRunes[wlen-l:])
			typoRest = string(typoRunes[:len(typoRunes)-l])
			wordRest = string(wordRunes[:wlen-l])
		} else {
			typoFrag = string(typoRunes[:l])
			wordFrag = string(wordRunes[:l])
			typoRest = string(typoRunes[l:])
			wordRest = string(wordRunes[l:])
		}
		if typoRest != wordRest {
			continue
		}
		if typoFrag == wordFrag {
			continue
		}
		out = append(out, fragment{typoFrag: typoFrag, wordFrag: wordFrag})
	}
	return out
}

// Apply applies a generalized pattern to a concrete typo, reproducing the
// word it would correct to, per the pattern's direction.
func Apply(p boundary.Correction, dir Direction, typo string) (string, bool) {
	if dir == Suffix {
		if !strings.HasSuffix(typo, p.Typo) {
			return "", false
		}
		return typo[:len(typo)-len(p.Typo)] + p.Word, true
	}
	if !strings.HasPrefix(typo, p.Typo) {
		return "", false
	}
	return p.Word + typo[len(p.Typo):], true
}

// rejectReason validates a candidate pattern against every occurrence it
// would need to subsume. ok is false when the pattern must be rejected,
// with reason explaining why.
func rejectReason(p boundary.Correction, occurrences []boundary.Correction, dir Direction, validation, source *index.Index) (reason string, ok bool) {
	for _, occ := range occurrences {
		got, matched := Apply(p, dir, occ.Typo)
		if !matched || got != occ.Word {
			return "pattern does not reproduce one of its occurrences' words", false
		}
	}

	if validation.HasExact(p.Typo) || validation.HasExact(p.Word) {
		return "collides with validation word", false
	}

	if dir == Suffix {
		if validation.IsSuffixOfAny(p.Typo) {
			return "anchors to the end of a validation-set word", false
		}
		if source.IsSuffixOfAny(p.Typo) {
			return "anchors to the end of a source word", false
		}
	} else {
		if validation.IsPrefixOfAny(p.Typo) {
			return "anchors to the start of a validation-set word", false
		}
		if source.IsPrefixOfAny(p.Typo) {
			return "anchors to the start of a source word", false
		}
	}

	return "", true
}

// resolvePatternCollisions resolves multiple candidate patterns that share
// the same typo fragment but disagree on the word fragment: the bucket
// with more subsumed occurrences wins; ties break on summed replacement
// frequency proxy (occurrence count again, since raw frequency is not
// available at this stage) and then alphabetically on the word fragment.
// Losing candidates' replacements remain in the direct set untouched.
func resolvePatternCollisions(candidates []Pattern) []Pattern {
	byTypo := make(map[string][]Pattern)
	var order []string
	for _, p := range candidates {
		if _, ok := byTypo[p.Correction.Typo]; !ok {
			order = append(order, p.Correction.Typo)
		}
		byTypo[p.Correction.Typo] = append(byTypo[p.Correction.Typo], p)
	}
	sort.Strings(order)

	var winners []Pattern
	for _, typo := range order {
		group := byTypo[typo]
		sort.Slice(group, func(i, j int) bool {
			if len(group[i].Replacements) != len(group[j].Replacements) {
				return len(group[i].Replacements) > len(group[j].Replacements)
			}
			return group[i].Correction.Word < group[j].Correction.Word
		})
		winners = append(winners, group[0])
	}
	return winners
}

// conflictFilterPatterns re-runs stage 5's substring-conflict removal over
// the candidate patterns themselves.
func conflictFilterPatterns(patterns []Pattern, tr *trace.Handle) []Pattern {
	byCorrection := make(map[boundary.Correction]Pattern, len(patterns))
	corrections := make([]boundary.Correction, 0, len(patterns))
	for _, p := range patterns {
		byCorrection[p.Correction] = p
		corrections = append(corrections, p.Correction)
	}

	res := conflict.Remove(corrections, tr)
	out := make([]Pattern, 0, len(res.Kept))
	for _, c := range res.Kept {
		out = append(out, byCorrection[c])
	}
	return out
}

// rejectCrossBoundary drops a pattern if the direct-correction set contains
// a triple with the pattern's exact (typo, word) but a different boundary:
// the direct correction takes precedence.
func rejectCrossBoundary(patterns []Pattern, direct []boundary.Correction, rejected *[]Rejection, tr *trace.Handle) []Pattern {
	directKeys := make(map[boundary.Key][]boundary.Boundary)
	for _, c := range direct {
		k := c.AsKey()
		directKeys[k] = append(directKeys[k], c.Boundary)
	}

	var out []Pattern
	for _, p := range patterns {
		conflicted := false
		for _, b := range directKeys[p.Correction.AsKey()] {
			if b != p.Correction.Boundary {
				conflicted = true
				break
			}
		}
		if conflicted {
			*rejected = append(*rejected, Rejection{Correction: p.Correction, Reason: "direct correction with a different boundary takes precedence"})
			tr.Emit("pattern", "rejected_cross_boundary", p.Correction, "direct correction takes precedence")
			continue
		}
		out = append(out, p)
	}
	return out
}

func dedupeCorrections(cs []boundary.Correction) []boundary.Correction {
	seen := make(map[boundary.Correction]bool, len(cs))
	out := make([]boundary.Correction, 0, len(cs))
	for _, c := range cs {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return lessCorrection(out[i], out[j]) })
	return out
}

func lessFragKey(a, b fragKey) bool {
	if a.typoFrag != b.typoFrag {
		return a.typoFrag < b.typoFrag
	}
	return a.wordFrag < b.wordFrag
}

func lessCorrection(a, b boundary.Correction) bool {
	if a.Typo != b.Typo {
		return a.Typo < b.Typo
	}
	if a.Word != b.Word {
		return a.Word < b.Word
	}
	return a.Boundary < b.Boundary
}
