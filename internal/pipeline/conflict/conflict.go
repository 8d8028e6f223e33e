// Package conflict implements stage 5 (substring-conflict removal) and the
// firmware-only full-substring-uniqueness extension applied in stage 6.
package conflict

import (
	"sort"
	"strings"

	"github.com/mrwong99/entroppy/internal/boundary"
	"github.com/mrwong99/entroppy/internal/trace"
)

// Result partitions one conflict-removal pass.
type Result struct {
	Kept    []boundary.Correction
	Removed []boundary.Correction
}

// Remove runs stage 5 over corrections: for each boundary group other than
// BOTH (which only matches standalone tokens and cannot be chained into),
// a shorter trigger that would produce a longer trigger's target as an
// exact prefix/suffix-completion blocks the longer one.
func Remove(corrections []boundary.Correction, tr *trace.Handle) Result {
	groups := make(map[boundary.Boundary][]boundary.Correction)
	for _, c := range corrections {
		groups[c.Boundary] = append(groups[c.Boundary], c)
	}

	var res Result
	boundaries := make([]boundary.Boundary, 0, len(groups))
	for b := range groups {
		boundaries = append(boundaries, b)
	}
	sort.Slice(boundaries, func(i, j int) bool { return boundaries[i] < boundaries[j] })

	for _, b := range boundaries {
		group := groups[b]
		if b == boundary.BOTH {
			res.Kept = append(res.Kept, group...)
			continue
		}
		kept, removed := removeGroup(group, b)
		res.Kept = append(res.Kept, kept...)
		res.Removed = append(res.Removed, removed...)
		for _, c := range removed {
			tr.Emit("conflict", "substring_conflict_removed", c, "shorter trigger already completes to this word")
		}
	}

	sort.Slice(res.Kept, func(i, j int) bool { return lessCorrection(res.Kept[i], res.Kept[j]) })
	sort.Slice(res.Removed, func(i, j int) bool { return lessCorrection(res.Removed[i], res.Removed[j]) })
	return res
}

// removeGroup applies an anchor-indexed conflict-removal algorithm to a
// single boundary group: sort ascending by typo length, index accepted
// typos by anchor character (first char for the prefix detector used by
// NONE/LEFT, last char for the suffix detector used by RIGHT), and block
// any new typo whose conflict predicate fires against an already-accepted
// shorter typo sharing its anchor.
func removeGroup(group []boundary.Correction, b boundary.Boundary) (kept, removed []boundary.Correction) {
	sorted := append([]boundary.Correction(nil), group...)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i].Typo) != len(sorted[j].Typo) {
			return len(sorted[i].Typo) < len(sorted[j].Typo)
		}
		return lessCorrection(sorted[i], sorted[j])
	})

	useSuffix := b == boundary.RIGHT
	index := make(map[byte][]boundary.Correction)

	for _, c := range sorted {
		anchor := anchorByte(c.Typo, useSuffix)
		blocked := false
		for _, s := range index[anchor] {
			if len(s.Typo) >= len(c.Typo) {
				continue
			}
			if useSuffix {
				if suffixConflict(c, s) {
					blocked = true
					break
				}
			} else if prefixConflict(c, s) {
				blocked = true
				break
			}
		}
		if blocked {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
		index[anchor] = append(index[anchor], c)
	}
	return kept, removed
}

func anchorByte(typo string, useSuffix bool) byte {
	if typo == "" {
		return 0
	}
	if useSuffix {
		return typo[len(typo)-1]
	}
	return typo[0]
}

// prefixConflict reports whether the short correction blocks the long one:
// long.Typo starts with short.Typo and short.Word, followed by the
// remainder of long.Typo, spells out long.Word exactly.
func prefixConflict(long, short boundary.Correction) bool {
	if !strings.HasPrefix(long.Typo, short.Typo) {
		return false
	}
	rest := long.Typo[len(short.Typo):]
	return short.Word+rest == long.Word
}

// suffixConflict is the symmetric predicate for RIGHT-boundary groups.
func suffixConflict(long, short boundary.Correction) bool {
	if !strings.HasSuffix(long.Typo, short.Typo) {
		return false
	}
	rest := long.Typo[:len(long.Typo)-len(short.Typo)]
	return rest+short.Word == long.Word
}

// FirmwareSubstringUniqueness applies the firmware personality's stricter,
// boundary-agnostic extension: no surviving typo may be a substring of any
// other surviving typo. It is applied in stage 6, after
// ordinary stage-5 removal, because it is a harder constraint than any
// matcher-specific conflict predicate.
func FirmwareSubstringUniqueness(corrections []boundary.Correction, tr *trace.Handle) Result {
	sorted := append([]boundary.Correction(nil), corrections...)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i].Typo) != len(sorted[j].Typo) {
			return len(sorted[i].Typo) < len(sorted[j].Typo)
		}
		return lessCorrection(sorted[i], sorted[j])
	})

	var res Result
	for _, c := range sorted {
		conflict := false
		for _, k := range res.Kept {
			if len(k.Typo) < len(c.Typo) && strings.Contains(c.Typo, k.Typo) {
				conflict = true
				break
			}
		}
		if conflict {
			res.Removed = append(res.Removed, c)
			tr.Emit("conflict", "firmware_substring_uniqueness_removed", c, "typo contains a shorter surviving typo")
			continue
		}
		res.Kept = append(res.Kept, c)
	}

	sort.Slice(res.Kept, func(i, j int) bool { return lessCorrection(res.Kept[i], res.Kept[j]) })
	sort.Slice(res.Removed, func(i, j int) bool { return lessCorrection(res.Removed[i], res.Removed[j]) })
	return res
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
