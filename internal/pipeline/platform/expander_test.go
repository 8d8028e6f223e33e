package platform

import (
	"testing"

	"github.com/mrwong99/entroppy/internal/boundary"
)

func TestBuildExpanderBundlesBucketsByLetter(t *testing.T) {
	input := []boundary.Correction{
		{Typo: "teh", Word: "the", Boundary: boundary.LEFT},
		{Typo: "nad", Word: "and", Boundary: boundary.NONE},
		{Typo: "hte", Word: "he", Boundary: boundary.BOTH},
	}
	bundles := BuildExpanderBundles(input, 500)

	names := map[string]bool{}
	for _, b := range bundles {
		names[b.Name] = true
	}
	for _, want := range []string{"typos_t.yml", "typos_a.yml", "typos_h.yml"} {
		if !names[want] {
			t.Errorf("expected bundle %q, got %v", want, names)
		}
	}

	for _, b := range bundles {
		if b.Name == "typos_t.yml" {
			if len(b.File.Matches) != 1 || b.File.Matches[0].Trigger != "teh" {
				t.Errorf("unexpected typos_t.yml contents: %+v", b.File.Matches)
			}
			if !b.File.Matches[0].LeftWord {
				t.Error("expected left_word flag for LEFT boundary")
			}
		}
		if b.Name == "typos_h.yml" {
			if !b.File.Matches[0].Word {
				t.Error("expected word flag for BOTH boundary")
			}
		}
	}
}

func TestBuildExpanderBundlesSplitsOversizedBuckets(t *testing.T) {
	var input []boundary.Correction
	words := []string{"aardvark", "abacus", "abalone", "abandon"}
	for i, w := range words {
		input = append(input, boundary.Correction{Typo: "t" + w[1:] + string(rune('0'+i)), Word: w, Boundary: boundary.NONE})
	}

	bundles := BuildExpanderBundles(input, 2)
	if len(bundles) != 2 {
		t.Fatalf("expected 2 split files for 4 entries at max 2, got %d: %+v", len(bundles), bundles)
	}
	for _, b := range bundles {
		if len(b.File.Matches) > 2 {
			t.Errorf("bundle %q exceeds max entries: %d", b.Name, len(b.File.Matches))
		}
	}
}

func TestBuildExpanderBundlesSymbolsBucket(t *testing.T) {
	input := []boundary.Correction{
		{Typo: "1wo", Word: "2words", Boundary: boundary.NONE},
	}
	bundles := BuildExpanderBundles(input, 500)
	if len(bundles) != 1 || bundles[0].Name != "typos_symbols.yml" {
		t.Fatalf("expected typos_symbols.yml bundle, got %+v", bundles)
	}
}

func TestNonePropagatesNoBoundaryFlags(t *testing.T) {
	e := toEntry(boundary.Correction{Typo: "nad", Word: "and", Boundary: boundary.NONE})
	if e.Word || e.LeftWord || e.RightWord {
		t.Errorf("expected no boundary flags for NONE, got %+v", e)
	}
	if !e.PropagateCase {
		t.Error("expected propagate_case to always be true")
	}
}
