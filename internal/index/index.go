// Package index implements the Boundary Index: a pre-computed structure
// that answers prefix/suffix/substring membership queries against a fixed
// word set, with exact matches against the query excluded.
package index

// Index answers prefix, suffix, and substring membership queries against
// an immutable word set. Build once; read-only thereafter.
type Index struct {
	words     map[string]struct{}
	prefixes  map[string][]string
	suffixes  map[string][]string
	substring map[string]struct{}
}

// Build consumes an owned set of words and returns a ready-to-query Index.
// For each word of length L, all L prefixes and L suffixes are indexed;
// all O(L^2) substrings are recorded for exact substring membership, which
// is acceptable at the scale of this pipeline (words up to ~30 chars).
func Build(words []string) *Index {
	idx := &Index{
		words:     make(map[string]struct{}, len(words)),
		prefixes:  make(map[string][]string),
		suffixes:  make(map[string][]string),
		substring: make(map[string]struct{}),
	}

	for _, w := range words {
		if w == "" {
			continue
		}
		idx.words[w] = struct{}{}

		runes := []rune(w)
		n := len(runes)
		for i := 1; i <= n; i++ {
			idx.prefixes[string(runes[:i])] = append(idx.prefixes[string(runes[:i])], w)
		}
		for i := 0; i < n; i++ {
			idx.suffixes[string(runes[i:])] = append(idx.suffixes[string(runes[i:])], w)
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j <= n; j++ {
				idx.substring[string(runes[i:j])] = struct{}{}
			}
		}
	}

	return idx
}

// IsPrefixOfAny reports whether some indexed word w != t starts with t.
func (idx *Index) IsPrefixOfAny(t string) bool {
	for _, w := range idx.prefixes[t] {
		if w != t {
			return true
		}
	}
	return false
}

// IsSuffixOfAny reports whether some indexed word w != t ends with t.
func (idx *Index) IsSuffixOfAny(t string) bool {
	for _, w := range idx.suffixes[t] {
		if w != t {
			return true
		}
	}
	return false
}

// IsSubstringOfAny reports whether t occurs inside some indexed word
// w != t. A t absent from the pre-built substring set is answered false
// at once; a t present in it is confirmed by a linear scan over the
// indexed words for one that differs from t and contains it.
func (idx *Index) IsSubstringOfAny(t string) bool {
	if t == "" {
		return false
	}
	if _, ok := idx.substring[t]; !ok {
		// The pre-built set is an over-approximation-free index of true
		// substrings only: absence here means t is not a substring of any
		// indexed word, exact match or otherwise.
		return false
	}
	// t occurs in some word, but the set doesn't record whether the sole
	// occurrence is the exact word t itself; confirm against a word != t.
	for w := range idx.words {
		if w != t && containsRune(w, t) {
			return true
		}
	}
	return false
}

func containsRune(w, t string) bool {
	wr, tr := []rune(w), []rune(t)
	if len(tr) > len(wr) {
		return false
	}
	for i := 0; i+len(tr) <= len(wr); i++ {
		if string(wr[i:i+len(tr)]) == string(tr) {
			return true
		}
	}
	return false
}

// HasExact reports whether t is exactly present in the indexed word set.
func (idx *Index) HasExact(t string) bool {
	_, ok := idx.words[t]
	return ok
}
