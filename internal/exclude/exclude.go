// Package exclude implements the exclusion-rule grammar: word patterns
// that filter the validation/source sets, and typo->word rules (with
// optional wildcards and boundary markers) that filter final triples.
package exclude

import (
	"strings"

	"github.com/mrwong99/entroppy/internal/boundary"
)

// WordRule filters dictionary words out of the validation and source sets.
// Pattern may contain '*' wildcards.
type WordRule struct {
	Pattern string
}

// Match reports whether word matches the rule's pattern.
func (r WordRule) Match(word string) bool {
	return globMatch(r.Pattern, word)
}

// TypoRule filters final (typo, word, boundary) triples. Either side may
// contain '*' wildcards. Boundary is nil when the rule did not specify a
// boundary marker, meaning it matches a correction under any boundary.
type TypoRule struct {
	TypoPattern string
	WordPattern string
	Boundary    *boundary.Boundary
}

// Matches reports whether c is excluded by r.
func (r TypoRule) Matches(c boundary.Correction) bool {
	if r.Boundary != nil && *r.Boundary != c.Boundary {
		return false
	}
	return globMatch(r.TypoPattern, c.Typo) && globMatch(r.WordPattern, c.Word)
}

// Rules is a parsed exclusion file: word patterns plus typo->word rules.
type Rules struct {
	Words []WordRule
	Typos []TypoRule
}

// MatchesWord reports whether word is excluded by any word rule.
func (rs Rules) MatchesWord(word string) bool {
	for _, r := range rs.Words {
		if r.Match(word) {
			return true
		}
	}
	return false
}

// MatchesCorrection reports whether c is excluded by any typo rule.
func (rs Rules) MatchesCorrection(c boundary.Correction) bool {
	for _, r := range rs.Typos {
		if r.Matches(c) {
			return true
		}
	}
	return false
}

// Parse parses exclusion-rule lines. Blank lines and lines starting with
// '#' are ignored. A line containing "->" is a typo rule; any other
// non-blank line is a word pattern.
func Parse(lines []string) Rules {
	var rs Rules
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if lhs, rhs, ok := strings.Cut(trimmed, "->"); ok {
			rs.Typos = append(rs.Typos, parseTypoRule(strings.TrimSpace(lhs), strings.TrimSpace(rhs)))
		} else {
			rs.Words = append(rs.Words, WordRule{Pattern: trimmed})
		}
	}
	return rs
}

// parseTypoRule splits the typo side's boundary markers off of lhs:
//
//	:typo:  -> BOTH
//	:typo   -> LEFT
//	typo:   -> RIGHT
//	typo    -> no boundary restriction (matches any)
func parseTypoRule(lhs, rhs string) TypoRule {
	leftMark := strings.HasPrefix(lhs, ":")
	rightMark := strings.HasSuffix(lhs, ":")
	typo := lhs
	if leftMark {
		typo = strings.TrimPrefix(typo, ":")
	}
	if rightMark {
		typo = strings.TrimSuffix(typo, ":")
	}

	var b *boundary.Boundary
	switch {
	case leftMark && rightMark:
		v := boundary.BOTH
		b = &v
	case leftMark:
		v := boundary.LEFT
		b = &v
	case rightMark:
		v := boundary.RIGHT
		b = &v
	}

	return TypoRule{TypoPattern: typo, WordPattern: rhs, Boundary: b}
}

// globMatch implements '*'-wildcard matching (no other metacharacters).
func globMatch(pattern, s string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == s
	}

	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]

	if !strings.HasSuffix(s, parts[len(parts)-1]) {
		return false
	}
	if len(parts) > 1 {
		tail := parts[len(parts)-1]
		s = s[:len(s)-len(tail)]
	}

	for _, mid := range parts[1 : len(parts)-1] {
		if mid == "" {
			continue
		}
		i := strings.Index(s, mid)
		if i < 0 {
			return false
		}
		s = s[i+len(mid):]
	}
	return true
}
