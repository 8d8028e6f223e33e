// Package config provides the configuration schema, loader, and validation
// for the entroppy autocorrect-dictionary solver.
package config

// Platform selects which platform personality stage 6 targets.
type Platform string

const (
	PlatformExpander Platform = "expander"
	PlatformFirmware Platform = "firmware"
)

// IsValid reports whether p is one of the known platform personalities.
func (p Platform) IsValid() bool {
	return p == PlatformExpander || p == PlatformFirmware
}

// Config is the root configuration structure. Its JSON field names mirror
// the `--flag-name` CLI flags (hyphens replaced by underscores); a config
// file supplies defaults and CLI flags override whatever it sets.
type Config struct {
	Platform Platform `json:"platform"`

	TopN            int    `json:"top_n"`
	Include         string `json:"include"`
	Exclude         string `json:"exclude"`
	AdjacentLetters string `json:"adjacent_letters"`
	Output          string `json:"output"`

	MaxCorrections    int     `json:"max_corrections"`
	FreqRatio         float64 `json:"freq_ratio"`
	MaxWordLength     int     `json:"max_word_length"`
	MinWordLength     int     `json:"min_word_length"`
	MinTypoLength     int     `json:"min_typo_length"`
	MaxEntriesPerFile int     `json:"max_entries_per_file"`
	TypoFreqThreshold float64 `json:"typo_freq_threshold"`

	Jobs    int    `json:"jobs"`
	Reports string `json:"reports"`
	Verbose bool   `json:"verbose"`
	Debug   bool   `json:"debug"`

	// DebugSelectors restricts --debug tracing to the named word/typo
	// patterns; empty traces everything the --debug flag enables.
	DebugSelectors []string `json:"debug_selectors"`

	// Lang selects the dictionary language/locale passed to the
	// dictionary provider.
	Lang string `json:"lang"`

	// DictionaryProvider names the internal/dictionary.Registry entry
	// to construct. DictionaryOptions is passed through to its factory.
	DictionaryProvider string            `json:"dictionary_provider"`
	DictionaryOptions  map[string]string `json:"dictionary_options"`

	// CacheDir enables the on-disk frequency cache; empty keeps lookups
	// in-memory only.
	CacheDir string `json:"cache_dir"`

	// MetricsAddr, if set, serves Prometheus metrics for the run.
	MetricsAddr string `json:"metrics_addr"`

	// LogFile rotates logs through a file instead of stderr; empty means
	// stderr only.
	LogFile string `json:"log_file"`
}

// Default returns a Config populated with the solver's documented
// defaults. Jobs is left at its zero value deliberately: cmd/entroppy
// resolves an unset Jobs to the host's logical CPU count at startup, and a
// config file may still pin it to an explicit value such as 1.
func Default() Config {
	return Config{
		Platform:           PlatformExpander,
		FreqRatio:          10,
		MaxWordLength:      10,
		MinWordLength:      3,
		MinTypoLength:      3,
		MaxEntriesPerFile:  500,
		Lang:               "en",
		DictionaryProvider: "embedded",
	}
}
