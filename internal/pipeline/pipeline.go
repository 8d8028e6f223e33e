// Package pipeline wires the six solver stages together into one run:
// functional options for test doubles, numbered init steps, and a closer
// stack unwound in reverse order. A solver run is a one-shot batch job —
// Run executes to completion and returns a Report instead of blocking on
// context cancellation like a long-running server would.
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/brunoga/deep"
	"golang.org/x/sync/errgroup"

	"github.com/mrwong99/entroppy/internal/boundary"
	"github.com/mrwong99/entroppy/internal/config"
	"github.com/mrwong99/entroppy/internal/dictionary"
	"github.com/mrwong99/entroppy/internal/exclude"
	"github.com/mrwong99/entroppy/internal/index"
	"github.com/mrwong99/entroppy/internal/observe"
	"github.com/mrwong99/entroppy/internal/pipeline/collision"
	"github.com/mrwong99/entroppy/internal/pipeline/conflict"
	"github.com/mrwong99/entroppy/internal/pipeline/pattern"
	"github.com/mrwong99/entroppy/internal/pipeline/platform"
	"github.com/mrwong99/entroppy/internal/trace"
	"github.com/mrwong99/entroppy/internal/typogen"
	"github.com/mrwong99/entroppy/pkg/cache"
)

// validationMultiplier sets how much larger the validation set is than
// the source-word set, approximating "the general English word list"
// from the only primitive the provider exposes (TopN). Source words are
// always unioned in, so the source set is never mistakenly treated as
// out-of-vocabulary.
const validationMultiplier = 20

// minValidationSize is the floor applied to the validation set size
// regardless of top_n, so small runs (e.g. --top-n 50 in tests) still get
// a reasonably sized false-trigger check.
const minValidationSize = 2000

// Pipeline owns the dictionary provider, parsed auxiliary inputs, and the
// tracer handle for one solver run.
type Pipeline struct {
	cfg config.Config

	provider  dictionary.Provider
	exclusion exclude.Rules
	adjacency typogen.AdjacencyMap
	userWords map[string]struct{}
	tracer    *trace.Handle

	closers []func() error
	stopOne sync.Once
}

// Option configures a Pipeline at construction time via the standard
// functional-option pattern, mainly for injecting test doubles.
type Option func(*Pipeline)

// WithDictionaryProvider injects a provider instead of constructing one
// from cfg.DictionaryProvider/DictionaryOptions.
func WithDictionaryProvider(p dictionary.Provider) Option {
	return func(pl *Pipeline) { pl.provider = p }
}

// WithTracer injects a tracer handle instead of building one from
// cfg.Debug/cfg.DebugSelectors.
func WithTracer(tr *trace.Handle) Option {
	return func(pl *Pipeline) { pl.tracer = tr }
}

// New wires a Pipeline from cfg: the dictionary provider (with optional
// on-disk cache), the exclusion-rule file, the adjacency-key file, and the
// debug tracer.
func New(cfg config.Config, opts ...Option) (*Pipeline, error) {
	pl := &Pipeline{cfg: cfg}
	for _, o := range opts {
		o(pl)
	}

	// ── 1. Dictionary provider ───────────────────────────────────────────
	if pl.provider == nil {
		reg := dictionary.NewRegistry()
		name := cfg.DictionaryProvider
		if name == "" {
			name = "embedded"
		}
		p, err := reg.Create(name, cfg.DictionaryOptions)
		if err != nil {
			return nil, fmt.Errorf("pipeline: create dictionary provider: %w", err)
		}
		pl.provider = p
	}
	if cfg.CacheDir != "" {
		disk, err := cache.Open(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("pipeline: open frequency cache: %w", err)
		}
		cached, err := dictionary.NewCached(pl.provider, 4096, disk)
		if err != nil {
			return nil, fmt.Errorf("pipeline: wrap dictionary provider with cache: %w", err)
		}
		pl.provider = cached
		pl.closers = append(pl.closers, disk.Flush)
	}

	// ── 2. Exclusion rules ───────────────────────────────────────────────
	lines, err := readLines(cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read exclude file: %w", err)
	}
	pl.exclusion = exclude.Parse(lines)

	// ── 3. Adjacency map ─────────────────────────────────────────────────
	lines, err = readLines(cfg.AdjacentLetters)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read adjacent-letters file: %w", err)
	}
	pl.adjacency = typogen.ParseAdjacencyLines(lines)

	// ── 4. User include words ────────────────────────────────────────────
	lines, err = readLines(cfg.Include)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read include file: %w", err)
	}
	pl.userWords = make(map[string]struct{}, len(lines))
	for _, w := range lines {
		pl.userWords[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	delete(pl.userWords, "")

	// ── 5. Debug tracer ──────────────────────────────────────────────────
	if pl.tracer == nil {
		pl.tracer = trace.New(cfg.Debug, trace.NewSelector(cfg.DebugSelectors))
	}

	return pl, nil
}

// Tracer returns the debug-tracer handle built from cfg.Debug/
// cfg.DebugSelectors (or injected via [WithTracer]), so callers can render
// its accumulated records after Run completes.
func (pl *Pipeline) Tracer() *trace.Handle {
	return pl.tracer
}

// Close runs every registered closer in reverse order, stopping at the
// first error.
func (pl *Pipeline) Close() error {
	var closeErr error
	pl.stopOne.Do(func() {
		for i := len(pl.closers) - 1; i >= 0; i-- {
			if err := pl.closers[i](); err != nil {
				closeErr = err
				return
			}
		}
	})
	return closeErr
}

// Report is everything a run produced: the final corrections, the
// platform-specific emission artifacts, and the per-stage breakdowns
// needed for internal/reports.
type Report struct {
	Accepted          []boundary.Correction
	Ambiguous         []collision.AmbiguousCollision
	DroppedShort      []boundary.Correction
	ExcludedByRule    []boundary.Correction
	Patterns          []pattern.Pattern
	PatternRejections []pattern.Rejection
	ConflictRemoved   []boundary.Correction

	ExpanderBundles []platform.ExpanderBundle
	FirmwareResult  *platform.FirmwareResult
}

// Run executes all six stages against cfg and returns the combined
// report. It does not write output files; callers pass the report to
// internal/storage and internal/reports.
func (pl *Pipeline) Run(ctx context.Context) (*Report, error) {
	m := observe.DefaultMetrics()

	// ── Stage 1: dictionaries ────────────────────────────────────────────
	stageStart := time.Now()
	sourceWords, validationWords := pl.loadWordSets()
	sourceIdx := index.Build(sourceWords)
	validationIdx := index.Build(validationWords)
	m.RecordStageDuration(ctx, "dictionary", time.Since(stageStart).Seconds())

	// ── Stage 2: typo generation (parallel) ──────────────────────────────
	stageStart = time.Now()
	candidates, err := pl.generateCandidates(ctx, sourceWords)
	if err != nil {
		return nil, fmt.Errorf("pipeline: stage 2 typo generation: %w", err)
	}
	m.RecordStageDuration(ctx, "typogen", time.Since(stageStart).Seconds())
	var rawCandidates int64
	for _, words := range candidates {
		rawCandidates += int64(len(words))
	}
	m.CandidatesGenerated.Add(ctx, rawCandidates)

	// ── Stage 3: collision resolution + boundary selection ───────────────
	stageStart = time.Now()
	freq := func(w string) float64 { return pl.provider.Frequency(w, pl.lang()) }
	candidates = pl.filterFrequentTypos(candidates, freq)
	collisionRes := collision.Resolve(candidates, validationIdx, sourceIdx, freq, pl.exclusion, collision.Params{
		FreqRatio:     pl.cfg.FreqRatio,
		MinTypoLength: pl.cfg.MinTypoLength,
		MinWordLength: pl.cfg.MinWordLength,
		UserWords:     pl.userWords,
	}, pl.tracer)
	m.RecordStageDuration(ctx, "collision", time.Since(stageStart).Seconds())
	m.RecordAccepted(ctx, "collision", int64(len(collisionRes.Accepted)))
	m.RecordDropped(ctx, "collision", "ambiguous", int64(len(collisionRes.Ambiguous)))
	m.RecordDropped(ctx, "collision", "short", int64(len(collisionRes.DroppedShort)))
	m.RecordDropped(ctx, "collision", "excluded", int64(len(collisionRes.ExcludedByRule)))

	// ── Stage 4: pattern generalization ──────────────────────────────────
	stageStart = time.Now()
	dir := pattern.Suffix
	if pl.cfg.Platform == config.PlatformFirmware {
		dir = pattern.Prefix
	}
	patternRes := pattern.Generalize(collisionRes.Accepted, dir, validationIdx, sourceIdx, pl.cfg.MinTypoLength, pl.tracer)
	m.RecordStageDuration(ctx, "pattern", time.Since(stageStart).Seconds())
	m.RecordAccepted(ctx, "pattern", int64(len(patternRes.Patterns)))

	// ── Stage 5: substring-conflict removal ──────────────────────────────
	stageStart = time.Now()
	conflictRes := conflict.Remove(patternRes.Corrections, pl.tracer)
	m.RecordStageDuration(ctx, "conflict", time.Since(stageStart).Seconds())
	m.RecordDropped(ctx, "conflict", "conflict", int64(len(conflictRes.Removed)))

	report := &Report{
		Accepted:          conflictRes.Kept,
		Ambiguous:         collisionRes.Ambiguous,
		DroppedShort:      collisionRes.DroppedShort,
		ExcludedByRule:    collisionRes.ExcludedByRule,
		Patterns:          patternRes.Patterns,
		PatternRejections: patternRes.Rejected,
		ConflictRemoved:   conflictRes.Removed,
	}

	// ── Stage 6: platform filter + rank + emit ───────────────────────────
	stageStart = time.Now()
	switch pl.cfg.Platform {
	case config.PlatformFirmware:
		fw := platform.Firmware(platform.FirmwareInput{
			Corrections:    conflictRes.Kept,
			Patterns:       patternReplacements(patternRes.Patterns),
			UserWords:      pl.userWords,
			Freq:           freq,
			MaxCorrections: pl.cfg.MaxCorrections,
		}, pl.tracer)
		report.FirmwareResult = &fw
		m.RecordDropped(ctx, "platform", "charset", int64(len(fw.CharsetDropped)))
		m.RecordDropped(ctx, "platform", "boundary_dedup", int64(len(fw.BoundaryDeduped)))
		m.RecordDropped(ctx, "platform", "truncated", int64(len(fw.Truncated)))
		m.RecordAccepted(ctx, "platform", int64(len(fw.Kept)))
	default:
		report.ExpanderBundles = platform.BuildExpanderBundles(conflictRes.Kept, pl.cfg.MaxEntriesPerFile)
		m.RecordAccepted(ctx, "platform", int64(len(conflictRes.Kept)))
	}
	m.RecordStageDuration(ctx, "platform", time.Since(stageStart).Seconds())

	return report, nil
}

func patternReplacements(patterns []pattern.Pattern) platform.PatternReplacements {
	out := make(platform.PatternReplacements, len(patterns))
	for _, p := range patterns {
		out[p.Correction] = p.Replacements
	}
	return out
}

func (pl *Pipeline) lang() string {
	if pl.cfg.Lang == "" {
		return "en"
	}
	return pl.cfg.Lang
}

// loadWordSets builds the source-word list (top_n plus the include list,
// filtered by exclusion word rules and max_word_length) and the larger
// validation word list used for false-trigger checks. The validation set
// always contains every source word, so a rule never mistakes a word it
// was built to teach for an out-of-vocabulary typo.
func (pl *Pipeline) loadWordSets() (source, validation []string) {
	topN := pl.cfg.TopN
	if topN <= 0 {
		topN = 10000
	}
	lang := pl.lang()

	seenSource := make(map[string]struct{})
	addSource := func(w string) {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			return
		}
		if pl.cfg.MaxWordLength > 0 && len([]rune(w)) > pl.cfg.MaxWordLength {
			return
		}
		if pl.exclusion.MatchesWord(w) {
			return
		}
		if _, ok := seenSource[w]; ok {
			return
		}
		seenSource[w] = struct{}{}
		source = append(source, w)
	}

	for _, w := range pl.provider.TopN(lang, topN) {
		addSource(w)
	}
	for w := range pl.userWords {
		addSource(w)
	}
	sort.Strings(source)

	validationN := topN * validationMultiplier
	if validationN < minValidationSize {
		validationN = minValidationSize
	}

	seenValidation := make(map[string]struct{}, validationN+len(source))
	for _, w := range pl.provider.TopN(lang, validationN) {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || pl.exclusion.MatchesWord(w) {
			continue
		}
		if _, ok := seenValidation[w]; !ok {
			seenValidation[w] = struct{}{}
			validation = append(validation, w)
		}
	}
	for _, w := range source {
		if _, ok := seenValidation[w]; !ok {
			seenValidation[w] = struct{}{}
			validation = append(validation, w)
		}
	}
	sort.Strings(validation)

	return source, validation
}

// filterFrequentTypos drops a candidate typo entirely when its own
// word-frequency is above cfg.TypoFreqThreshold: a "typo" common enough to
// be a real word in its own right is more likely to cause false triggers
// than to be worth correcting (--typo-freq-threshold, default 0 disables).
func (pl *Pipeline) filterFrequentTypos(candidates map[string][]string, freq collision.FreqFunc) map[string][]string {
	if pl.cfg.TypoFreqThreshold <= 0 {
		return candidates
	}
	out := make(map[string][]string, len(candidates))
	for typo, words := range candidates {
		if freq(typo) > pl.cfg.TypoFreqThreshold {
			for _, w := range words {
				pl.tracer.Emit("collision", "typo_too_frequent", boundary.Correction{Typo: typo, Word: w, Boundary: boundary.NONE},
					"typo's own word frequency exceeds typo_freq_threshold")
			}
			continue
		}
		out[typo] = words
	}
	return out
}

// snapshot is the frozen, read-only input every stage-2 worker shares: the
// adjacency map. It is
// deep-copied once before dispatch via github.com/brunoga/deep so that no
// worker can observe a half-written value.
type snapshot struct {
	Adjacency typogen.AdjacencyMap
}

// generateCandidates runs stage 2: a bounded worker pool (size cfg.Jobs)
// fans the source-word list out across goroutines, each a pure function
// from word to (typo, word) pairs plus the trace records describing which
// edit operator produced each one. Workers share one frozen snapshot and
// write to a mutex-protected candidate map; the merge is commutative
// because candidate values are unordered sets of words. Each worker keeps
// its traces in a per-word slot; once every worker has finished they are
// merged into pl.tracer in source-word order, so the record order does not
// depend on which goroutine completes first.
func (pl *Pipeline) generateCandidates(ctx context.Context, words []string) (map[string][]string, error) {
	frozen, err := deep.Copy(&snapshot{Adjacency: pl.adjacency})
	if err != nil {
		return nil, fmt.Errorf("freeze stage-2 snapshot: %w", err)
	}

	jobs := pl.cfg.Jobs
	if jobs <= 0 {
		jobs = 1
	}

	m := observe.DefaultMetrics()
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, jobs)

	var mu sync.Mutex
	candidates := make(map[string]map[string]struct{})
	wordTraces := make([][]trace.Record, len(words))

	for i, w := range words {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			m.ActiveWorkers.Add(gctx, 1)
			defer func() {
				<-sem
				m.ActiveWorkers.Add(gctx, -1)
			}()

			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			typos, traces := typogen.Generate(w, frozen.Adjacency)
			wordTraces[i] = traces

			mu.Lock()
			for _, t := range typos {
				set, ok := candidates[t]
				if !ok {
					set = make(map[string]struct{})
					candidates[t] = set
				}
				set[w] = struct{}{}
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, traces := range wordTraces {
		pl.tracer.Merge(traces)
	}

	out := make(map[string][]string, len(candidates))
	for typo, words := range candidates {
		list := make([]string, 0, len(words))
		for w := range words {
			list = append(list, w)
		}
		sort.Strings(list)
		out[typo] = list
	}
	return out, nil
}

// readLines reads a newline-delimited text file, returning nil (not an
// error) when path is empty. Blank-line/comment filtering is left to the
// caller's own grammar (exclude.Parse, typogen.ParseAdjacencyLines).
func readLines(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
