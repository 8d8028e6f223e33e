// Package trace provides an explicit tracer handle for debugging why a
// correction was accepted or dropped: a structured record buffer threaded
// through the pipeline stages, in place of a module-level logger singleton.
package trace

import (
	"sync"

	"github.com/mrwong99/entroppy/internal/boundary"
	"github.com/mrwong99/entroppy/internal/exclude"
)

// Record is one structured debug-trace event emitted by a stage.
type Record struct {
	Stage    string
	Event    string
	Typo     string
	Word     string
	Boundary boundary.Boundary
	Reason   string
}

// Selector decides whether a (typo, word) pair should be traced. It reuses
// the exclusion-rule wildcard/boundary grammar so that debug selectors are
// ordinary configuration values, not a bespoke syntax.
type Selector struct {
	rules exclude.Rules
}

// NewSelector builds a Selector from raw selector lines using the same
// grammar as exclusion rules.
func NewSelector(lines []string) Selector {
	return Selector{rules: exclude.Parse(lines)}
}

// Matches reports whether c should be traced under this selector. An empty
// selector (no lines supplied) matches everything, so that enabling
// --debug without selectors traces the whole run.
func (s Selector) Matches(c boundary.Correction) bool {
	if len(s.rules.Words) == 0 && len(s.rules.Typos) == 0 {
		return true
	}
	if s.rules.MatchesWord(c.Word) || s.rules.MatchesWord(c.Typo) {
		return true
	}
	return s.rules.MatchesCorrection(c)
}

// Handle is the tracer handle threaded through pipeline stages. Each stage
// receives the same Handle and appends records to a buffer owned by the
// pipeline runner; no package-level singleton or thread-local state is
// used. Handle is safe for concurrent use so that stage 2's worker pool can
// share one handle.
type Handle struct {
	enabled  bool
	selector Selector

	mu      sync.Mutex
	records []Record
}

// New creates a Handle. When enabled is false, Emit is a no-op so that
// normal runs pay no tracing cost.
func New(enabled bool, selector Selector) *Handle {
	return &Handle{enabled: enabled, selector: selector}
}

// Emit appends a record if tracing is enabled and the correction matches
// the handle's selector.
func (h *Handle) Emit(stage, event string, c boundary.Correction, reason string) {
	if h == nil || !h.enabled {
		return
	}
	if !h.selector.Matches(c) {
		return
	}
	rec := Record{
		Stage:    stage,
		Event:    event,
		Typo:     c.Typo,
		Word:     c.Word,
		Boundary: c.Boundary,
		Reason:   reason,
	}
	h.mu.Lock()
	h.records = append(h.records, rec)
	h.mu.Unlock()
}

// Merge appends externally produced records (e.g. returned alongside a
// stage-2 worker's result) into the handle's buffer in the order given.
// The buffer's order is the order of the Merge calls; internal/pipeline
// merges stage-2 records per source word in sorted word order after all
// workers finish, so it does not depend on goroutine scheduling.
func (h *Handle) Merge(records []Record) {
	if h == nil || !h.enabled || len(records) == 0 {
		return
	}
	h.mu.Lock()
	h.records = append(h.records, records...)
	h.mu.Unlock()
}

// Records returns a copy of the accumulated records.
func (h *Handle) Records() []Record {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}
