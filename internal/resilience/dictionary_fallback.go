package resilience

import (
	"github.com/mrwong99/entroppy/internal/dictionary"
)

// DictionaryFallback wraps dictionary.Registry.Create with automatic
// failover across multiple configured provider names: a remote-backed
// provider (e.g. a network word-frequency service registered under its own
// name) as primary, falling back to a local one such as "embedded" when
// construction fails or the breaker for a backend is already open. This is
// the only place a [dictionary.Provider] genuinely returns an error in
// this pipeline — Contains/Frequency/TopN themselves are error-free, so
// failover belongs at construction time, not at call time.
type DictionaryFallback struct {
	group *FallbackGroup[string]
	reg   *dictionary.Registry
	opts  map[string]map[string]string
}

// NewDictionaryFallback creates a DictionaryFallback trying primaryName
// first against reg. Options for each provider name are looked up in opts
// (may be nil for providers that need none).
func NewDictionaryFallback(reg *dictionary.Registry, primaryName string, opts map[string]map[string]string, cfg FallbackConfig) *DictionaryFallback {
	return &DictionaryFallback{
		group: NewFallbackGroup(primaryName, primaryName, cfg),
		reg:   reg,
		opts:  opts,
	}
}

// AddFallback registers an additional provider name to try after the
// primary and any previously added fallbacks.
func (f *DictionaryFallback) AddFallback(name string) {
	f.group.AddFallback(name, name)
}

// Create tries each registered provider name in order, returning the first
// that constructs successfully.
func (f *DictionaryFallback) Create() (dictionary.Provider, error) {
	return ExecuteWithResult(f.group, func(name string) (dictionary.Provider, error) {
		return f.reg.Create(name, f.opts[name])
	})
}
