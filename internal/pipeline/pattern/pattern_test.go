package pattern

import (
	"testing"

	"github.com/mrwong99/entroppy/internal/boundary"
	"github.com/mrwong99/entroppy/internal/index"
)

func findPattern(ps []Pattern, typo, word string) (Pattern, bool) {
	for _, p := range ps {
		if p.Correction.Typo == typo && p.Correction.Word == word {
			return p, true
		}
	}
	return Pattern{}, false
}

func hasCorrection(cs []boundary.Correction, typo, word string) bool {
	for _, c := range cs {
		if c.Typo == typo && c.Word == word {
			return true
		}
	}
	return false
}

// Several common English words end in "-oin" (coin, join, loin, groin),
// so the shorter "oin -> ion" fragment is rejected at validation time and
// only the longer "toin -> tion" fragment survives as a single pattern.
func TestPatternGeneralizationSuffix(t *testing.T) {
	validation := index.Build([]string{"coin", "join", "loin", "groin"})
	source := index.Build([]string{"action", "motion", "section"})
	input := []boundary.Correction{
		{Typo: "actoin", Word: "action", Boundary: boundary.RIGHT},
		{Typo: "motoin", Word: "motion", Boundary: boundary.RIGHT},
		{Typo: "sectoin", Word: "section", Boundary: boundary.RIGHT},
	}

	res := Generalize(input, Suffix, validation, source, 3, nil)

	p, ok := findPattern(res.Patterns, "toin", "tion")
	if !ok {
		t.Fatalf("expected pattern toin->tion, got %v", res.Patterns)
	}
	if len(p.Replacements) != 3 {
		t.Errorf("expected 3 replacements, got %d: %v", len(p.Replacements), p.Replacements)
	}
	if len(res.Patterns) != 1 {
		t.Errorf("expected exactly 1 surviving pattern, got %d: %v", len(res.Patterns), res.Patterns)
	}

	for _, orig := range input {
		if hasCorrection(res.Corrections, orig.Typo, orig.Word) {
			t.Errorf("expected %v to be removed from the direct set", orig)
		}
	}
	if !hasCorrection(res.Corrections, "toin", "tion") {
		t.Error("expected toin->tion in the new direct set")
	}
}

// Same input, but "tion" is itself a validation word, so even the
// surviving "toin -> tion" fragment above is rejected and the three originals are
// left untouched.
func TestPatternRejectedOnValidationClash(t *testing.T) {
	validation := index.Build([]string{"coin", "join", "loin", "groin", "tion"})
	source := index.Build([]string{"action", "motion", "section"})
	input := []boundary.Correction{
		{Typo: "actoin", Word: "action", Boundary: boundary.RIGHT},
		{Typo: "motoin", Word: "motion", Boundary: boundary.RIGHT},
		{Typo: "sectoin", Word: "section", Boundary: boundary.RIGHT},
	}

	res := Generalize(input, Suffix, validation, source, 3, nil)

	if len(res.Patterns) != 0 {
		t.Fatalf("expected no surviving patterns, got %v", res.Patterns)
	}
	for _, orig := range input {
		if !hasCorrection(res.Corrections, orig.Typo, orig.Word) {
			t.Errorf("expected %v to remain in the direct set", orig)
		}
	}

	found := false
	for _, r := range res.Rejected {
		if r.Correction.Typo == "toin" && r.Reason == "collides with validation word" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected toin pattern rejected with validation-collision reason, got %v", res.Rejected)
	}
}

func TestPatternRequiresAtLeastTwoOccurrences(t *testing.T) {
	validation := index.Build([]string{})
	source := index.Build([]string{})
	input := []boundary.Correction{
		{Typo: "actoin", Word: "action", Boundary: boundary.RIGHT},
	}
	res := Generalize(input, Suffix, validation, source, 3, nil)
	if len(res.Patterns) != 0 {
		t.Errorf("expected no patterns from a single occurrence, got %v", res.Patterns)
	}
	if !hasCorrection(res.Corrections, "actoin", "action") {
		t.Error("expected the lone original to remain in the direct set")
	}
}

func TestPatternPrefixDirection(t *testing.T) {
	validation := index.Build([]string{})
	source := index.Build([]string{"great", "groan", "grunt"})
	input := []boundary.Correction{
		{Typo: "graet", Word: "great", Boundary: boundary.LEFT},
		{Typo: "graon", Word: "groan", Boundary: boundary.LEFT},
	}
	res := Generalize(input, Prefix, validation, source, 2, nil)
	// The two typos share no consistent (fragment, remainder) split: their
	// word remainders differ at every candidate length, so no bucket
	// should form and no pattern should be fabricated across them.
	if len(res.Patterns) != 0 {
		t.Errorf("expected no shared pattern across unrelated words, got %v", res.Patterns)
	}
}

func TestApplyForwardComposition(t *testing.T) {
	p := boundary.Correction{Typo: "toin", Word: "tion", Boundary: boundary.RIGHT}
	got, ok := Apply(p, Suffix, "actoin")
	if !ok || got != "action" {
		t.Errorf("Apply(toin->tion, actoin) = %q, %v; want action, true", got, ok)
	}

	prefixP := boundary.Correction{Typo: "teh", Word: "the", Boundary: boundary.LEFT}
	got2, ok2 := Apply(prefixP, Prefix, "tehir")
	if !ok2 || got2 != "their" {
		t.Errorf("Apply(teh->the, tehir) = %q, %v; want their, true", got2, ok2)
	}
}
