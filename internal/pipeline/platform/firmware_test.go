package platform

import (
	"strings"
	"testing"

	"github.com/mrwong99/entroppy/internal/boundary"
	"github.com/mrwong99/entroppy/internal/trace"
)

func TestFirmwareCharsetFilter(t *testing.T) {
	in := FirmwareInput{
		Corrections: []boundary.Correction{
			{Typo: "teh", Word: "the", Boundary: boundary.LEFT},
			{Typo: "te3h", Word: "the3", Boundary: boundary.LEFT},
		},
		Freq: func(string) float64 { return 1 },
	}
	res := Firmware(in, nil)
	if len(res.Kept) != 1 || res.Kept[0].Typo != "teh" {
		t.Fatalf("expected only teh->the to survive charset filter, got %+v", res.Kept)
	}
	if len(res.CharsetDropped) != 1 {
		t.Errorf("expected 1 charset-dropped entry, got %d", len(res.CharsetDropped))
	}
}

func TestFirmwareDedupKeepsLeastRestrictive(t *testing.T) {
	in := FirmwareInput{
		Corrections: []boundary.Correction{
			{Typo: "teh", Word: "the", Boundary: boundary.BOTH},
			{Typo: "teh", Word: "the", Boundary: boundary.LEFT},
		},
		Freq: func(string) float64 { return 1 },
	}
	res := Firmware(in, nil)
	if len(res.Kept) != 1 {
		t.Fatalf("expected exactly 1 surviving correction, got %+v", res.Kept)
	}
	if res.Kept[0].Boundary != boundary.LEFT {
		t.Errorf("expected LEFT (less restrictive) to survive, got %v", res.Kept[0].Boundary)
	}
	if len(res.BoundaryDeduped) != 1 {
		t.Errorf("expected 1 boundary-deduped entry, got %d", len(res.BoundaryDeduped))
	}
}

func TestFirmwareThreeTierRankingAndTruncation(t *testing.T) {
	pat := boundary.Correction{Typo: "toin", Word: "tion", Boundary: boundary.LEFT}
	patterns := PatternReplacements{
		pat: {
			{Typo: "actoin", Word: "action", Boundary: boundary.LEFT},
			{Typo: "motoin", Word: "motion", Boundary: boundary.LEFT},
		},
	}
	in := FirmwareInput{
		Corrections: []boundary.Correction{
			{Typo: "fo", Word: "of", Boundary: boundary.BOTH},    // tier 0 (user word)
			pat,                                                  // tier 1 (pattern)
			{Typo: "teh", Word: "the", Boundary: boundary.LEFT},   // tier 2 (direct, high freq)
			{Typo: "adn", Word: "and", Boundary: boundary.LEFT},   // tier 2 (direct, low freq)
		},
		Patterns:       patterns,
		UserWords:      map[string]struct{}{"of": {}},
		Freq:           func(w string) float64 { freqs := map[string]float64{"the": 0.9, "and": 0.1, "action": 0.5, "motion": 0.5}; return freqs[w] },
		MaxCorrections: 3,
	}
	res := Firmware(in, nil)

	if len(res.Kept) != 3 {
		t.Fatalf("expected truncation to 3 corrections, got %d: %+v", len(res.Kept), res.Kept)
	}
	if len(res.Truncated) != 1 || res.Truncated[0].Word != "and" {
		t.Errorf("expected the lowest-scoring tier-2 entry truncated, got %+v", res.Truncated)
	}

	// Emission order is alphabetical by word regardless of tier.
	words := make([]string, len(res.Kept))
	for i, c := range res.Kept {
		words[i] = c.Word
	}
	for i := 1; i < len(words); i++ {
		if words[i-1] > words[i] {
			t.Errorf("expected alphabetical emission order, got %v", words)
		}
	}
}

func TestEmitFirmwareBoundaryMarkers(t *testing.T) {
	out := string(EmitFirmware([]boundary.Correction{
		{Typo: "nad", Word: "and", Boundary: boundary.NONE},
		{Typo: "hte", Word: "he", Boundary: boundary.LEFT},
		{Typo: "ion", Word: "ing", Boundary: boundary.RIGHT},
		{Typo: "teh", Word: "the", Boundary: boundary.BOTH},
	}))
	lines := strings.Split(out, "\n")
	want := []string{"nad -> and", ":hte -> he", "ion: -> ing", ":teh: -> the"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestFirmwareNilTraceHandleSafe(t *testing.T) {
	var h *trace.Handle
	h.Emit("x", "y", boundary.Correction{Typo: "a", Word: "b"}, "")
}
