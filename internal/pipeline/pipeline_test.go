package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/mrwong99/entroppy/internal/config"
	"github.com/mrwong99/entroppy/internal/dictionary"
)

// testProvider serves a tiny fixed vocabulary so stage 1/2/3 have a
// deterministic, small word universe to reason about without depending on
// the large embedded table.
func testProvider(t *testing.T) dictionary.Provider {
	t.Helper()
	p, err := dictionary.NewFromReader(strings.NewReader(
		"the\t100\n" +
			"that\t80\n" +
			"that's\t5\n" +
			"cat\t20\n" +
			"hat\t19\n" +
			"bat\t2\n",
	))
	if err != nil {
		t.Fatalf("build test provider: %v", err)
	}
	return p
}

func baseConfig() config.Config {
	cfg := config.Default()
	cfg.TopN = 6
	cfg.Jobs = 2
	cfg.MinTypoLength = 1
	cfg.MinWordLength = 1
	cfg.FreqRatio = 2
	return cfg
}

func TestRunExpanderProducesAcceptedCorrections(t *testing.T) {
	cfg := baseConfig()
	cfg.Platform = config.PlatformExpander

	pl, err := New(cfg, WithDictionaryProvider(testProvider(t)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pl.Close()

	report, err := pl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.ExpanderBundles) == 0 {
		t.Fatalf("expected at least one expander bundle")
	}
	found := false
	for _, bundle := range report.ExpanderBundles {
		for _, e := range bundle.File.Matches {
			if e.Replace == "the" || e.Replace == "that" || e.Replace == "cat" || e.Replace == "hat" {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("expected a generated typo for a vocabulary word, got bundles %+v", report.ExpanderBundles)
	}
}

func TestRunFirmwareRespectsMaxCorrections(t *testing.T) {
	cfg := baseConfig()
	cfg.Platform = config.PlatformFirmware
	cfg.MaxCorrections = 1

	pl, err := New(cfg, WithDictionaryProvider(testProvider(t)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pl.Close()

	report, err := pl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.FirmwareResult == nil {
		t.Fatalf("expected a firmware result")
	}
	if len(report.FirmwareResult.Kept) > 1 {
		t.Errorf("expected at most 1 kept correction, got %d", len(report.FirmwareResult.Kept))
	}
}

func TestLoadWordSetsIncludesSourceInValidation(t *testing.T) {
	cfg := baseConfig()
	cfg.Include = ""

	pl, err := New(cfg, WithDictionaryProvider(testProvider(t)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pl.Close()

	source, validation := pl.loadWordSets()
	if len(source) == 0 {
		t.Fatalf("expected non-empty source set")
	}
	valSet := make(map[string]struct{}, len(validation))
	for _, w := range validation {
		valSet[w] = struct{}{}
	}
	for _, w := range source {
		if _, ok := valSet[w]; !ok {
			t.Errorf("source word %q missing from validation set", w)
		}
	}
}

func TestGenerateCandidatesIsDeterministicAcrossJobCounts(t *testing.T) {
	words := []string{"the", "that", "cat", "hat", "bat"}

	cfg1 := baseConfig()
	cfg1.Jobs = 1
	pl1, err := New(cfg1, WithDictionaryProvider(testProvider(t)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pl1.Close()

	cfg4 := baseConfig()
	cfg4.Jobs = 4
	pl4, err := New(cfg4, WithDictionaryProvider(testProvider(t)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pl4.Close()

	c1, err := pl1.generateCandidates(context.Background(), words)
	if err != nil {
		t.Fatalf("generateCandidates (jobs=1): %v", err)
	}
	c4, err := pl4.generateCandidates(context.Background(), words)
	if err != nil {
		t.Fatalf("generateCandidates (jobs=4): %v", err)
	}

	if len(c1) != len(c4) {
		t.Fatalf("candidate set size differs by job count: %d vs %d", len(c1), len(c4))
	}
	for typo, words1 := range c1 {
		words4, ok := c4[typo]
		if !ok {
			t.Fatalf("typo %q present with jobs=1 but missing with jobs=4", typo)
		}
		if strings.Join(words1, ",") != strings.Join(words4, ",") {
			t.Errorf("typo %q: word list differs by job count: %v vs %v", typo, words1, words4)
		}
	}
}
