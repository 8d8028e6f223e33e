// Package dictionary defines the external word-list/frequency collaborator
// interface (Contains, Frequency, TopN) and a registry of provider
// implementations, so the solver never depends on a concrete backend.
package dictionary

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mrwong99/entroppy/pkg/cache"
)

// Provider is the external-collaborator contract: a pure membership test,
// a unigram-probability lookup, and a top-N frequency ranking, both scoped
// by language.
type Provider interface {
	// Contains reports whether w is a member of the general-English word
	// list.
	Contains(w string) bool

	// Frequency returns the unigram probability of w in lang.
	Frequency(w, lang string) float64

	// TopN returns the N most frequent words in lang, most frequent first.
	TopN(lang string, n int) []string
}

// ErrProviderNotRegistered is returned when no factory has been registered
// under the requested name.
var ErrProviderNotRegistered = errors.New("dictionary: provider not registered")

// Factory constructs a Provider from a provider-specific options map.
type Factory func(options map[string]string) (Provider, error)

// Registry maps provider names to factories. Safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	fns map[string]Factory
}

// NewRegistry returns a Registry pre-populated with the built-in
// "embedded" and "file" providers.
func NewRegistry() *Registry {
	r := &Registry{fns: make(map[string]Factory)}
	r.Register("embedded", func(map[string]string) (Provider, error) {
		return NewEmbedded(), nil
	})
	r.Register("file", func(opts map[string]string) (Provider, error) {
		path := opts["path"]
		if path == "" {
			return nil, errors.New("dictionary: file provider requires \"path\" option")
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return NewFromReader(f)
	})
	return r
}

// Register adds or overwrites the factory for name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns[name] = factory
}

// Create instantiates the provider registered under name.
func (r *Registry) Create(name string, options map[string]string) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.fns[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, name)
	}
	p, err := factory(options)
	if err != nil {
		return nil, fmt.Errorf("dictionary: create provider %q: %w", name, err)
	}
	return p, nil
}

// staticProvider serves a fixed word/frequency table, sorted once at
// construction time so TopN never needs to re-sort.
type staticProvider struct {
	freq   map[string]float64
	ranked []string // words sorted by frequency, descending
}

// NewFromReader builds a Provider from "word<TAB>frequency" lines.
func NewFromReader(r io.Reader) (Provider, error) {
	freq := make(map[string]float64)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word, freqStr, ok := strings.Cut(line, "\t")
		if !ok {
			word, freqStr, ok = strings.Cut(line, " ")
		}
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(freqStr), 64)
		if err != nil {
			return nil, fmt.Errorf("dictionary: parse frequency for %q: %w", word, err)
		}
		freq[strings.ToLower(strings.TrimSpace(word))] = f
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return newStatic(freq), nil
}

func newStatic(freq map[string]float64) *staticProvider {
	ranked := make([]string, 0, len(freq))
	for w := range freq {
		ranked = append(ranked, w)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if freq[ranked[i]] != freq[ranked[j]] {
			return freq[ranked[i]] > freq[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	return &staticProvider{freq: freq, ranked: ranked}
}

func (s *staticProvider) Contains(w string) bool {
	_, ok := s.freq[strings.ToLower(w)]
	return ok
}

func (s *staticProvider) Frequency(w, _ string) float64 {
	return s.freq[strings.ToLower(w)]
}

func (s *staticProvider) TopN(_ string, n int) []string {
	if n > len(s.ranked) {
		n = len(s.ranked)
	}
	out := make([]string, n)
	copy(out, s.ranked[:n])
	return out
}

// NewEmbedded returns a small bundled provider good enough for default runs
// and tests. A production deployment is expected to configure the "file"
// provider with a real frequency table; the real English word-list/
// frequency source is an external collaborator, out of scope for this
// repo.
func NewEmbedded() Provider {
	return newStatic(embeddedFrequencies)
}

// cachedProvider decorates another Provider with an in-memory LRU and an
// optional on-disk cache, so repeat Frequency/TopN lookups stay O(1).
type cachedProvider struct {
	inner Provider
	lru   *cache.FreqLRU
	disk  *cache.Disk
}

// NewCached wraps inner with an LRU of the given size and, if disk is
// non-nil, persists TopN/Frequency results across runs.
func NewCached(inner Provider, lruSize int, disk *cache.Disk) (Provider, error) {
	l, err := cache.NewFreqLRU(lruSize)
	if err != nil {
		return nil, err
	}
	return &cachedProvider{inner: inner, lru: l, disk: disk}, nil
}

func (c *cachedProvider) Contains(w string) bool {
	return c.inner.Contains(w)
}

func (c *cachedProvider) Frequency(w, lang string) float64 {
	if v, ok := c.lru.Get(w, lang); ok {
		return v
	}
	if c.disk != nil {
		if v, ok := c.disk.Frequency(w, lang); ok {
			c.lru.Put(w, lang, v)
			return v
		}
	}
	v := c.inner.Frequency(w, lang)
	c.lru.Put(w, lang, v)
	if c.disk != nil {
		c.disk.PutFrequency(w, lang, v)
	}
	return v
}

func (c *cachedProvider) TopN(lang string, n int) []string {
	if c.disk != nil {
		if words, ok := c.disk.TopN(cache.TopNKey{Lang: lang, N: n}); ok {
			return words
		}
	}
	words := c.inner.TopN(lang, n)
	if c.disk != nil {
		c.disk.PutTopN(cache.TopNKey{Lang: lang, N: n}, words)
	}
	return words
}
