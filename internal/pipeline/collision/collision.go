// Package collision implements stage 3 of the solver pipeline: boundary
// selection and collision resolution over the candidate map produced by
// typo generation.
package collision

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mrwong99/entroppy/internal/boundary"
	"github.com/mrwong99/entroppy/internal/exclude"
	"github.com/mrwong99/entroppy/internal/index"
	"github.com/mrwong99/entroppy/internal/trace"
)

// FreqFunc looks up the unigram frequency of a word. It is supplied by the
// dictionary.Provider the pipeline was configured with.
type FreqFunc func(word string) float64

// Params holds the thresholds stage 3 is parameterized by.
type Params struct {
	FreqRatio     float64
	MinTypoLength int
	MinWordLength int
	UserWords     map[string]struct{}
}

// AmbiguousCollision records a boundary group dropped because no candidate
// word was decisively more frequent than its runner-up.
type AmbiguousCollision struct {
	Typo     string
	Boundary boundary.Boundary
	Words    []string
}

// Result partitions one stage-3 run's outcome.
type Result struct {
	Accepted       []boundary.Correction
	Ambiguous      []AmbiguousCollision
	DroppedShort   []boundary.Correction
	ExcludedByRule []boundary.Correction
}

// Resolve runs stage 3 over candidates (typo -> candidate words), producing
// the accepted triple set plus the three first-class reported outcomes.
func Resolve(
	candidates map[string][]string,
	validation, source *index.Index,
	freq FreqFunc,
	excl exclude.Rules,
	params Params,
	tr *trace.Handle,
) Result {
	var res Result

	typos := make([]string, 0, len(candidates))
	for t := range candidates {
		typos = append(typos, t)
	}
	sort.Strings(typos)

	for _, typo := range typos {
		groups := groupByBoundary(typo, candidates[typo], validation, source)

		boundaries := make([]boundary.Boundary, 0, len(groups))
		for b := range groups {
			boundaries = append(boundaries, b)
		}
		sort.Slice(boundaries, func(i, j int) bool { return boundaries[i] < boundaries[j] })

		for _, b := range boundaries {
			chosen, ok := resolveGroup(typo, b, groups[b], freq, params.FreqRatio, &res)
			if !ok {
				continue
			}

			if tooShort(typo, chosen, params) {
				c := boundary.Correction{Typo: typo, Word: chosen, Boundary: b}
				res.DroppedShort = append(res.DroppedShort, c)
				tr.Emit("collision", "dropped_short", c, "typo shorter than min_typo_length against a long word")
				continue
			}

			effBoundary := b
			if _, isUser := params.UserWords[chosen]; isUser && utf8.RuneCountInString(chosen) == 2 {
				effBoundary = boundary.BOTH
			}

			c := boundary.Correction{Typo: typo, Word: chosen, Boundary: effBoundary}
			if excl.MatchesCorrection(c) {
				res.ExcludedByRule = append(res.ExcludedByRule, c)
				tr.Emit("collision", "excluded", c, "matched exclusion rule")
				continue
			}

			res.Accepted = append(res.Accepted, c)
			tr.Emit("collision", "accepted", c, "")
		}
	}

	sort.Slice(res.Accepted, func(i, j int) bool { return lessCorrection(res.Accepted[i], res.Accepted[j]) })
	return res
}

// groupByBoundary assigns each candidate word the least-restrictive safe
// boundary and partitions the words accordingly.
func groupByBoundary(typo string, words []string, validation, source *index.Index) map[boundary.Boundary][]string {
	groups := make(map[boundary.Boundary][]string)
	for _, w := range words {
		b := chooseBoundary(typo, w, validation, source)
		groups[b] = append(groups[b], w)
	}
	return groups
}

// chooseBoundary tries NONE, LEFT, RIGHT, BOTH in order and returns the
// first that does not cause a false trigger, falling back to BOTH.
func chooseBoundary(typo, word string, validation, source *index.Index) boundary.Boundary {
	order := []boundary.Boundary{boundary.NONE, boundary.LEFT, boundary.RIGHT, boundary.BOTH}
	for _, b := range order {
		if !causesFalseTrigger(b, typo, word, validation, source) {
			return b
		}
	}
	return boundary.BOTH
}

// causesFalseTrigger is the per-boundary false-trigger predicate,
// additionally probing the target word itself so that
// predictive corrections (where typo is a prefix/suffix/substring of word)
// are rejected.
func causesFalseTrigger(b boundary.Boundary, typo, word string, validation, source *index.Index) bool {
	switch b {
	case boundary.NONE:
		return validation.IsSubstringOfAny(typo) || source.IsSubstringOfAny(typo) || strings.Contains(word, typo)
	case boundary.LEFT:
		return validation.IsPrefixOfAny(typo) || source.IsPrefixOfAny(typo) || strings.HasPrefix(word, typo)
	case boundary.RIGHT:
		return validation.IsSuffixOfAny(typo) || source.IsSuffixOfAny(typo) || strings.HasSuffix(word, typo)
	default: // BOTH
		return false
	}
}

// resolveGroup applies frequency resolution to one
// boundary group. A singleton group always wins outright. A group of two or
// more resolves by frequency ratio against the runner-up; ties or
// insufficiently decisive ratios are recorded as an ambiguous collision and
// the whole group is dropped.
func resolveGroup(typo string, b boundary.Boundary, words []string, freq FreqFunc, ratio float64, res *Result) (word string, ok bool) {
	if len(words) == 1 {
		return words[0], true
	}

	sorted := append([]string(nil), words...)
	sort.Slice(sorted, func(i, j int) bool {
		fi, fj := freq(sorted[i]), freq(sorted[j])
		if fi != fj {
			return fi > fj
		}
		return sorted[i] < sorted[j]
	})

	f0, f1 := freq(sorted[0]), freq(sorted[1])
	var decisive bool
	switch {
	case f1 == 0 && f0 > 0:
		decisive = true
	case f1 > 0:
		decisive = f0/f1 > ratio
	default:
		decisive = false
	}

	if !decisive {
		res.Ambiguous = append(res.Ambiguous, AmbiguousCollision{Typo: typo, Boundary: b, Words: sorted})
		return "", false
	}
	return sorted[0], true
}

// tooShort implements the short-typo rule: a typo
// shorter than the configured minimum is only useful against a word that
// is itself short; against a long word it is dropped as too weak a
// trigger.
func tooShort(typo, word string, params Params) bool {
	return utf8.RuneCountInString(typo) < params.MinTypoLength && utf8.RuneCountInString(word) > params.MinWordLength
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
