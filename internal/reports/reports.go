// Package reports renders one solver run's outcome into human-readable and
// machine-readable report files: a plain summary, statistics in both CSV
// and JSON, and gzip-compressed per-stage detail files, all written
// through an internal/storage.Sink so the reports directory can live
// locally or in a bucket just like the --output artifacts.
package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/iancoleman/orderedmap"
	"github.com/klauspost/compress/gzip"

	"github.com/mrwong99/entroppy/internal/boundary"
	"github.com/mrwong99/entroppy/internal/pipeline"
	"github.com/mrwong99/entroppy/internal/pipeline/collision"
	"github.com/mrwong99/entroppy/internal/pipeline/platform"
	"github.com/mrwong99/entroppy/internal/storage"
	"github.com/mrwong99/entroppy/internal/trace"
)

// detailFiles are gzip-compressed before being stored: per-correction
// breakdowns that can run to tens of thousands of lines on a large run,
// unlike the fixed-size summary and statistics files.
var detailFiles = map[string]func(*pipeline.Report) []byte{
	"patterns.txt.gz":         patternsText,
	"collisions.txt.gz":       func(r *pipeline.Report) []byte { return collisionsText(r.Ambiguous) },
	"short_typos.txt.gz":      func(r *pipeline.Report) []byte { return correctionsText("typo\tword\tboundary", r.DroppedShort) },
	"exclusions.txt.gz":       func(r *pipeline.Report) []byte { return correctionsText("typo\tword\tboundary", r.ExcludedByRule) },
	"conflicts_stage5.txt.gz": func(r *pipeline.Report) []byte { return correctionsText("typo\tword\tboundary", r.ConflictRemoved) },
}

// Write renders report into sink as summary.txt, statistics.csv,
// statistics.json, and a gzip-compressed detail file per stage
// (patterns.txt.gz, collisions.txt.gz, short_typos.txt.gz,
// exclusions.txt.gz, conflicts_stage5.txt.gz, and conflicts_firmware.txt.gz
// when the run targeted firmware). platform is included in the summary
// header.
//
// tr is the run's debug-tracer handle. When it is nil or was built with
// --debug unset, [trace.Handle.Records] returns nothing and no trace file
// is written; otherwise a trace.txt.gz detail file is added, one row per
// accumulated [trace.Record], sorted for reproducible output regardless of
// which stage-2 worker happened to finish first.
func Write(ctx context.Context, sink storage.Sink, platform string, report *pipeline.Report, tr *trace.Handle) error {
	files := map[string][]byte{
		"summary.txt":     summaryText(platform, report),
		"statistics.csv":  statisticsCSV(report),
		"statistics.json": statisticsJSON(report),
	}
	for name, render := range detailFiles {
		gz, err := gzipBytes(render(report))
		if err != nil {
			return fmt.Errorf("reports: compress %s: %w", name, err)
		}
		files[name] = gz
	}
	if fw := report.FirmwareResult; fw != nil {
		gz, err := gzipBytes(firmwareConflictsText(fw))
		if err != nil {
			return fmt.Errorf("reports: compress conflicts_firmware.txt.gz: %w", err)
		}
		files["conflicts_firmware.txt.gz"] = gz
	}
	if records := tr.Records(); len(records) > 0 {
		gz, err := gzipBytes(traceText(records))
		if err != nil {
			return fmt.Errorf("reports: compress trace.txt.gz: %w", err)
		}
		files["trace.txt.gz"] = gz
	}

	for name, data := range files {
		if _, err := sink.Store(ctx, name, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("reports: write %s: %w", name, err)
		}
	}
	return nil
}

// traceText renders debug-trace records as a tab-separated table, sorted by
// stage/typo/word/event so the file is stable across goroutine scheduling.
func traceText(records []trace.Record) []byte {
	sorted := append([]trace.Record(nil), records...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Stage != b.Stage {
			return a.Stage < b.Stage
		}
		if a.Typo != b.Typo {
			return a.Typo < b.Typo
		}
		if a.Word != b.Word {
			return a.Word < b.Word
		}
		return a.Event < b.Event
	})

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 1, 1, ' ', 0)
	fmt.Fprintln(w, "stage\tevent\ttypo\tword\tboundary\treason")
	for _, r := range sorted {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Stage, r.Event, r.Typo, r.Word, r.Boundary, r.Reason)
	}
	w.Flush()
	return buf.Bytes()
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func summaryText(platformName string, r *pipeline.Report) []byte {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 1, 1, ' ', 0)
	fmt.Fprintf(w, "platform:\t%s\n", platformName)
	fmt.Fprintf(w, "accepted corrections:\t%d\n", len(r.Accepted))
	fmt.Fprintf(w, "ambiguous collisions dropped:\t%d\n", len(r.Ambiguous))
	fmt.Fprintf(w, "too-short typos dropped:\t%d\n", len(r.DroppedShort))
	fmt.Fprintf(w, "excluded by rule:\t%d\n", len(r.ExcludedByRule))
	fmt.Fprintf(w, "generalized patterns:\t%d\n", len(r.Patterns))
	fmt.Fprintf(w, "pattern candidates rejected:\t%d\n", len(r.PatternRejections))
	fmt.Fprintf(w, "substring conflicts removed:\t%d\n", len(r.ConflictRemoved))
	if fw := r.FirmwareResult; fw != nil {
		fmt.Fprintf(w, "firmware kept:\t%d\n", len(fw.Kept))
		fmt.Fprintf(w, "firmware charset-dropped:\t%d\n", len(fw.CharsetDropped))
		fmt.Fprintf(w, "firmware boundary-deduped:\t%d\n", len(fw.BoundaryDeduped))
		fmt.Fprintf(w, "firmware substring conflicts:\t%d\n", len(fw.SubstringConflict))
		fmt.Fprintf(w, "firmware truncated by max-corrections:\t%d\n", len(fw.Truncated))
	}
	if len(r.ExpanderBundles) > 0 {
		fmt.Fprintf(w, "expander output files:\t%d\n", len(r.ExpanderBundles))
	}
	w.Flush()
	return buf.Bytes()
}

func patternsText(r *pipeline.Report) []byte {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 1, 1, ' ', 0)
	fmt.Fprintln(w, "pattern typo\tpattern word\tboundary\treplaces")
	for _, p := range r.Patterns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d corrections\n", p.Correction.Typo, p.Correction.Word, p.Correction.Boundary, len(p.Replacements))
	}
	if len(r.PatternRejections) > 0 {
		fmt.Fprintln(w, "\nrejected pattern candidates:")
		fmt.Fprintln(w, "typo\tword\tboundary\treason")
		for _, rej := range r.PatternRejections {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rej.Correction.Typo, rej.Correction.Word, rej.Correction.Boundary, rej.Reason)
		}
	}
	w.Flush()
	return buf.Bytes()
}

func collisionsText(ambiguous []collision.AmbiguousCollision) []byte {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 1, 1, ' ', 0)
	fmt.Fprintln(w, "typo\tboundary\tcandidate words")
	for _, a := range ambiguous {
		fmt.Fprintf(w, "%s\t%s\t%v\n", a.Typo, a.Boundary, a.Words)
	}
	w.Flush()
	return buf.Bytes()
}

func correctionsText(header string, cs []boundary.Correction) []byte {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 1, 1, ' ', 0)
	fmt.Fprintln(w, header)
	for _, c := range cs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Typo, c.Word, c.Boundary)
	}
	w.Flush()
	return buf.Bytes()
}

func firmwareConflictsText(fw *platform.FirmwareResult) []byte {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 1, 1, ' ', 0)
	writeSection := func(title string, cs []boundary.Correction) {
		if len(cs) == 0 {
			return
		}
		fmt.Fprintf(w, "%s:\n", title)
		fmt.Fprintln(w, "typo\tword\tboundary")
		for _, c := range cs {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.Typo, c.Word, c.Boundary)
		}
		fmt.Fprintln(w)
	}
	writeSection("charset-dropped", fw.CharsetDropped)
	writeSection("boundary-deduped", fw.BoundaryDeduped)
	writeSection("substring-conflict", fw.SubstringConflict)
	writeSection("truncated (max-corrections)", fw.Truncated)
	w.Flush()
	return buf.Bytes()
}

// statisticsRows builds the metric/value pairs shared by statistics.csv and
// statistics.json, in a fixed, stage-ordered sequence.
func statisticsRows(r *pipeline.Report) [][2]string {
	rows := [][2]string{
		{"accepted", strconv.Itoa(len(r.Accepted))},
		{"ambiguous_dropped", strconv.Itoa(len(r.Ambiguous))},
		{"short_typos_dropped", strconv.Itoa(len(r.DroppedShort))},
		{"excluded_by_rule", strconv.Itoa(len(r.ExcludedByRule))},
		{"patterns_generated", strconv.Itoa(len(r.Patterns))},
		{"pattern_candidates_rejected", strconv.Itoa(len(r.PatternRejections))},
		{"substring_conflicts_removed", strconv.Itoa(len(r.ConflictRemoved))},
	}
	if fw := r.FirmwareResult; fw != nil {
		rows = append(rows,
			[2]string{"firmware_kept", strconv.Itoa(len(fw.Kept))},
			[2]string{"firmware_charset_dropped", strconv.Itoa(len(fw.CharsetDropped))},
			[2]string{"firmware_boundary_deduped", strconv.Itoa(len(fw.BoundaryDeduped))},
			[2]string{"firmware_substring_conflicts", strconv.Itoa(len(fw.SubstringConflict))},
			[2]string{"firmware_truncated", strconv.Itoa(len(fw.Truncated))},
		)
	}
	if len(r.ExpanderBundles) > 0 {
		rows = append(rows, [2]string{"expander_output_files", strconv.Itoa(len(r.ExpanderBundles))})
	}
	return rows
}

func statisticsCSV(r *pipeline.Report) []byte {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Write([]string{"metric", "value"})
	for _, row := range statisticsRows(r) {
		cw.Write(row[:])
	}
	cw.Flush()
	return buf.Bytes()
}

// statisticsJSON renders the same rows as statistics.csv through
// iancoleman/orderedmap, so machine consumers that prefer JSON still see
// the stage-ordered key sequence instead of Go's randomized map order.
func statisticsJSON(r *pipeline.Report) []byte {
	om := orderedmap.New()
	for _, row := range statisticsRows(r) {
		n, _ := strconv.Atoi(row[1])
		om.Set(row[0], n)
	}
	data, err := json.MarshalIndent(om, "", "  ")
	if err != nil {
		// statisticsRows only ever holds ints; MarshalIndent on an
		// orderedmap of ints cannot fail.
		panic(fmt.Sprintf("reports: marshal statistics.json: %v", err))
	}
	return data
}
