// Package platform implements stage 6 of the solver pipeline: the two
// platform personalities' filtering, ranking, and emission rules.
package platform

import (
	"sort"

	"github.com/mrwong99/entroppy/internal/boundary"
)

// PatternReplacements maps a pattern correction to the concrete corrections
// it subsumes, so the firmware ranker can score the pattern tier by the
// frequency of what it replaces.
type PatternReplacements map[boundary.Correction][]boundary.Correction

// FreqFunc looks up a word's unigram frequency for ranking purposes.
type FreqFunc func(word string) float64

func sortByWord(cs []boundary.Correction) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Word != cs[j].Word {
			return cs[i].Word < cs[j].Word
		}
		if cs[i].Typo != cs[j].Typo {
			return cs[i].Typo < cs[j].Typo
		}
		return cs[i].Boundary < cs[j].Boundary
	})
}

func isLetter(r rune) bool { return r >= 'a' && r <= 'z' }
