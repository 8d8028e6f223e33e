// Command entroppy synthesizes an autocorrect dictionary for a target
// platform (an expander's YAML rule files, or a firmware's single flat rule
// file) from a top-N word list and a handful of deterministic typo-edit
// operators.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/cpu"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"github.com/mrwong99/entroppy/internal/config"
	"github.com/mrwong99/entroppy/internal/dictionary"
	"github.com/mrwong99/entroppy/internal/health"
	"github.com/mrwong99/entroppy/internal/observe"
	"github.com/mrwong99/entroppy/internal/pipeline"
	"github.com/mrwong99/entroppy/internal/pipeline/platform"
	"github.com/mrwong99/entroppy/internal/reports"
	"github.com/mrwong99/entroppy/internal/resilience"
	"github.com/mrwong99/entroppy/internal/storage"
	"github.com/mrwong99/entroppy/internal/trace"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// Exit codes: 0 success, 2 usage (bad flags/config), 1 any other failure.
const (
	exitOK       = 0
	exitUsage    = 2
	exitFailure  = 1
	usageProgram = "entroppy"
)

func run(args []string) int {
	fs := flag.NewFlagSet(usageProgram, flag.ContinueOnError)

	platformFlag := fs.String("platform", "", "expander|firmware")
	topN := fs.Int("top-n", 0, "request this many most-frequent words from the dictionary provider")
	include := fs.String("include", "", "path to a newline-delimited include-word file")
	exclude := fs.String("exclude", "", "path to an exclusion-rule file")
	adjacentLetters := fs.String("adjacent-letters", "", "path to a keyboard-adjacency file")
	output := fs.String("output", "", "output directory (expander) or file (firmware); local path, gs://, or s3://")
	maxCorrections := fs.Int("max-corrections", 0, "firmware only: hard cap on emitted corrections (0 disables)")
	freqRatio := fs.Float64("freq-ratio", 0, "minimum frequency ratio to resolve a collision (default 10)")
	maxWordLength := fs.Int("max-word-length", 0, "longest source word considered (default 10)")
	minWordLength := fs.Int("min-word-length", 0, "shortest source word considered (default 3)")
	minTypoLength := fs.Int("min-typo-length", 0, "shortest typo kept (default 3)")
	maxEntriesPerFile := fs.Int("max-entries-per-file", 0, "expander only: split files larger than this (default 500)")
	typoFreqThreshold := fs.Float64("typo-freq-threshold", -1, "drop typos whose own word frequency exceeds this (0 disables)")
	jobs := fs.Int("jobs", 0, "stage-2 worker pool size (default #cores)")
	reportsDir := fs.String("reports", "", "optional directory to write human- and machine-readable run reports to")
	verbose := fs.Bool("verbose", false, "log at info level instead of warn")
	debug := fs.Bool("debug", false, "enable debug-level logging and the correction-decision tracer")
	configPath := fs.String("config", "", "path to a JSON config file; CLI flags override whatever it sets")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "entroppy: %v\n", err)
		return exitUsage
	}
	applyFlagOverrides(cfg, fs, flagValues{
		platform: *platformFlag, topN: *topN, include: *include, exclude: *exclude,
		adjacentLetters: *adjacentLetters, output: *output, maxCorrections: *maxCorrections,
		freqRatio: *freqRatio, maxWordLength: *maxWordLength, minWordLength: *minWordLength,
		minTypoLength: *minTypoLength, maxEntriesPerFile: *maxEntriesPerFile,
		typoFreqThreshold: *typoFreqThreshold, jobs: *jobs, reportsDir: *reportsDir,
		verbose: *verbose, debug: *debug,
	})
	if cfg.Jobs <= 0 {
		cfg.Jobs = defaultJobs()
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "entroppy: invalid configuration: %v\n", err)
		return exitUsage
	}

	logger := newLogger(*cfg)
	slog.SetDefault(logger)
	printStartupSummary(*cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: usageProgram})
	if err != nil {
		slog.Error("failed to initialize telemetry providers", "err", err)
		return exitFailure
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("telemetry shutdown error", "err", err)
		}
	}()

	if cfg.MetricsAddr != "" {
		srv := newMetricsServer(cfg.MetricsAddr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "err", err)
			}
		}()
	}

	pl, err := pipeline.New(*cfg, dictionaryOptions(*cfg)...)
	if err != nil {
		slog.Error("failed to initialize pipeline", "err", err)
		return exitFailure
	}
	defer func() {
		if err := pl.Close(); err != nil {
			slog.Error("cleanup error", "err", err)
		}
	}()

	report, err := pl.Run(ctx)
	if err != nil {
		slog.Error("pipeline run failed", "err", err)
		return exitFailure
	}

	if emptyResult(*cfg, report) {
		slog.Warn("no corrections survived the pipeline; emitting empty output")
	}

	if err := emitOutput(ctx, *cfg, report); err != nil {
		slog.Error("failed to write output", "err", err)
		return exitFailure
	}

	if cfg.Reports != "" {
		if err := writeReports(ctx, *cfg, report, pl.Tracer()); err != nil {
			slog.Error("failed to write reports", "err", err)
			return exitFailure
		}
	}

	slog.Info("done",
		"accepted", len(report.Accepted),
		"patterns", len(report.Patterns),
	)
	return exitOK
}

func emptyResult(cfg config.Config, r *pipeline.Report) bool {
	if cfg.Platform == config.PlatformFirmware {
		return r.FirmwareResult == nil || len(r.FirmwareResult.Kept) == 0
	}
	return len(r.Accepted) == 0
}

// loadConfig reads --config if set, otherwise starts from config.Default().
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.Load(path)
}

// flagValues mirrors the CLI surface so applyFlagOverrides can tell, via
// fs.Visit, which flags the user actually set (as opposed to their zero
// defaults): only explicitly-set flags override the loaded JSON config.
type flagValues struct {
	platform                        string
	topN, maxCorrections             int
	include, exclude, adjacentLetters, output, reportsDir string
	freqRatio, typoFreqThreshold     float64
	maxWordLength, minWordLength     int
	minTypoLength, maxEntriesPerFile int
	jobs                             int
	verbose, debug                   bool
}

func applyFlagOverrides(cfg *config.Config, fs *flag.FlagSet, v flagValues) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "platform":
			cfg.Platform = config.Platform(v.platform)
		case "top-n":
			cfg.TopN = v.topN
		case "include":
			cfg.Include = v.include
		case "exclude":
			cfg.Exclude = v.exclude
		case "adjacent-letters":
			cfg.AdjacentLetters = v.adjacentLetters
		case "output":
			cfg.Output = v.output
		case "max-corrections":
			cfg.MaxCorrections = v.maxCorrections
		case "freq-ratio":
			cfg.FreqRatio = v.freqRatio
		case "max-word-length":
			cfg.MaxWordLength = v.maxWordLength
		case "min-word-length":
			cfg.MinWordLength = v.minWordLength
		case "min-typo-length":
			cfg.MinTypoLength = v.minTypoLength
		case "max-entries-per-file":
			cfg.MaxEntriesPerFile = v.maxEntriesPerFile
		case "typo-freq-threshold":
			cfg.TypoFreqThreshold = v.typoFreqThreshold
		case "jobs":
			cfg.Jobs = v.jobs
		case "reports":
			cfg.Reports = v.reportsDir
		case "verbose":
			cfg.Verbose = v.verbose
		case "debug":
			cfg.Debug = v.debug
		}
	})
}

// defaultJobs asks gopsutil for the logical CPU count, falling back to
// runtime.NumCPU() if the platform-specific counter is unavailable.
func defaultJobs() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// dictionaryOptions builds the pipeline.Option list for provider selection.
// When the configured provider isn't "embedded", it is wrapped in a
// DictionaryFallback that falls back to "embedded" if construction fails,
// since a local embedded table is always available as a last resort.
func dictionaryOptions(cfg config.Config) []pipeline.Option {
	name := cfg.DictionaryProvider
	if name == "" || name == "embedded" {
		return nil
	}
	reg := dictionary.NewRegistry()
	fb := resilience.NewDictionaryFallback(reg, name, map[string]map[string]string{name: cfg.DictionaryOptions}, resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{MaxFailures: 3, ResetTimeout: time.Minute},
	})
	fb.AddFallback("embedded")
	p, err := fb.Create()
	m := observe.DefaultMetrics()
	if err != nil {
		// Every registered name failed, including "embedded" (which never
		// should); pipeline.New then constructs cfg.DictionaryProvider
		// itself and returns that construction's error.
		m.RecordProviderError(context.Background(), "construct")
		slog.Warn("dictionary provider construction failed", "provider", name, "err", err)
		return nil
	}
	m.RecordProviderRequest(context.Background(), "construct", "ok")
	return []pipeline.Option{pipeline.WithDictionaryProvider(p)}
}

func emitOutput(ctx context.Context, cfg config.Config, report *pipeline.Report) error {
	sink, err := storage.New(ctx, cfg.Output)
	if err != nil {
		return fmt.Errorf("create output sink: %w", err)
	}
	defer sink.Close()

	switch cfg.Platform {
	case config.PlatformFirmware:
		data := platform.EmitFirmware(report.FirmwareResult.Kept)
		if _, err := sink.Store(ctx, "", strings.NewReader(string(data))); err != nil {
			return err
		}
	default:
		for _, bundle := range report.ExpanderBundles {
			data, err := yaml.Marshal(bundle.File)
			if err != nil {
				return fmt.Errorf("marshal %s: %w", bundle.Name, err)
			}
			if _, err := sink.Store(ctx, bundle.Name, strings.NewReader(string(data))); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeReports(ctx context.Context, cfg config.Config, report *pipeline.Report, tr *trace.Handle) error {
	stamp := time.Now().UTC().Format("20060102T150405Z")
	dir := filepath.Join(cfg.Reports, stamp)
	sink, err := storage.New(ctx, dir)
	if err != nil {
		return fmt.Errorf("create reports sink: %w", err)
	}
	defer sink.Close()
	return reports.Write(ctx, sink, string(cfg.Platform), report, tr)
}

// newLogger builds the run's structured logger: text to stderr, or JSON
// rotated through cfg.LogFile via lumberjack when set.
func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelInfo
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
	}
	return slog.New(slog.NewJSONHandler(rotator, opts))
}

// newMetricsServer builds the optional metrics_addr HTTP surface: a
// Prometheus scrape endpoint plus liveness/readiness probes, both wrapped
// in the request-logging/tracing middleware.
func newMetricsServer(addr string) *http.Server {
	m := observe.DefaultMetrics()
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	health.New().Register(mux)
	return &http.Server{Addr: addr, Handler: observe.Middleware(m)(mux)}
}

func printStartupSummary(cfg config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         entroppy — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	fmt.Printf("║  Platform        : %-19s ║\n", cfg.Platform)
	fmt.Printf("║  Top N           : %-19d ║\n", cfg.TopN)
	fmt.Printf("║  Jobs            : %-19d ║\n", cfg.Jobs)
	fmt.Printf("║  Dictionary      : %-19s ║\n", orDefault(cfg.DictionaryProvider, "embedded"))
	if cfg.Output != "" {
		fmt.Printf("║  Output          : %-19s ║\n", cfg.Output)
	}
	if cfg.Reports != "" {
		fmt.Printf("║  Reports         : %-19s ║\n", cfg.Reports)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
