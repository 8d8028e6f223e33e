package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Load reads the JSON configuration file at path, layers it over [Default],
// and returns a validated [Config]. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a JSON config from r over [Default] and validates
// the result. Useful in tests where configs are built from string literals.
// Unknown fields are rejected so a misspelled flag name in the config file
// fails fast instead of being silently ignored.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode json: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that cfg contains a coherent set of values, returning a
// joined error listing every validation failure found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Platform != "" && !cfg.Platform.IsValid() {
		errs = append(errs, fmt.Errorf("platform %q is invalid; valid values: expander, firmware", cfg.Platform))
	}

	if cfg.MinTypoLength < 1 {
		errs = append(errs, fmt.Errorf("min_typo_length must be >= 1, got %d", cfg.MinTypoLength))
	}
	if cfg.MinWordLength < 1 {
		errs = append(errs, fmt.Errorf("min_word_length must be >= 1, got %d", cfg.MinWordLength))
	}
	if cfg.MaxWordLength > 0 && cfg.MaxWordLength < cfg.MinWordLength {
		errs = append(errs, fmt.Errorf("max_word_length (%d) must be >= min_word_length (%d)", cfg.MaxWordLength, cfg.MinWordLength))
	}
	if cfg.FreqRatio <= 0 {
		errs = append(errs, fmt.Errorf("freq_ratio must be > 0, got %v", cfg.FreqRatio))
	}
	if cfg.TypoFreqThreshold < 0 {
		errs = append(errs, fmt.Errorf("typo_freq_threshold must be >= 0, got %v", cfg.TypoFreqThreshold))
	}
	if cfg.MaxCorrections < 0 {
		errs = append(errs, fmt.Errorf("max_corrections must be >= 0, got %d", cfg.MaxCorrections))
	}
	if cfg.MaxEntriesPerFile < 0 {
		errs = append(errs, fmt.Errorf("max_entries_per_file must be >= 0, got %d", cfg.MaxEntriesPerFile))
	}
	if cfg.Jobs < 0 {
		errs = append(errs, fmt.Errorf("jobs must be >= 0, got %d", cfg.Jobs))
	}
	if cfg.TopN < 0 {
		errs = append(errs, fmt.Errorf("top_n must be >= 0, got %d", cfg.TopN))
	}

	return errors.Join(errs...)
}
