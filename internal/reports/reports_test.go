package reports

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/mrwong99/entroppy/internal/boundary"
	"github.com/mrwong99/entroppy/internal/pipeline"
	"github.com/mrwong99/entroppy/internal/pipeline/collision"
	"github.com/mrwong99/entroppy/internal/pipeline/pattern"
	"github.com/mrwong99/entroppy/internal/pipeline/platform"
	"github.com/mrwong99/entroppy/internal/trace"
)

// gunzip decompresses a gzip member written by the package under test.
func gunzip(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := gzip.NewReader(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("gzip read: %v", err)
	}
	return string(out)
}

// memSink records every Store call in memory, avoiding a real filesystem
// round trip in tests.
type memSink struct {
	files map[string][]byte
}

func newMemSink() *memSink { return &memSink{files: make(map[string][]byte)} }

func (m *memSink) Store(_ context.Context, name string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.files[name] = data
	return int64(len(data)), nil
}

func (m *memSink) Close() error { return nil }

func sampleReport() *pipeline.Report {
	return &pipeline.Report{
		Accepted: []boundary.Correction{
			{Typo: "teh", Word: "the", Boundary: boundary.BOTH},
		},
		Ambiguous: []collision.AmbiguousCollision{
			{Typo: "acn", Boundary: boundary.BOTH, Words: []string{"can", "cane"}},
		},
		DroppedShort: []boundary.Correction{
			{Typo: "hte", Word: "the", Boundary: boundary.BOTH},
		},
		ExcludedByRule: []boundary.Correction{
			{Typo: "ad", Word: "ad", Boundary: boundary.NONE},
		},
		Patterns: []pattern.Pattern{
			{Correction: boundary.Correction{Typo: "tion", Word: "tion", Boundary: boundary.RIGHT}},
		},
		ConflictRemoved: []boundary.Correction{
			{Typo: "th", Word: "the", Boundary: boundary.LEFT},
		},
	}
}

func TestWriteExpanderProducesExpectedFiles(t *testing.T) {
	sink := newMemSink()

	if err := Write(context.Background(), sink, "expander", sampleReport(), nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	for _, name := range []string{
		"summary.txt", "statistics.csv", "statistics.json",
		"patterns.txt.gz", "collisions.txt.gz", "short_typos.txt.gz",
		"exclusions.txt.gz", "conflicts_stage5.txt.gz",
	} {
		if _, ok := sink.files[name]; !ok {
			t.Errorf("expected report file %q to be written", name)
		}
	}
	if _, ok := sink.files["conflicts_firmware.txt.gz"]; ok {
		t.Error("did not expect conflicts_firmware.txt.gz without a firmware result")
	}
	if _, ok := sink.files["trace.txt.gz"]; ok {
		t.Error("did not expect trace.txt.gz without a tracer")
	}

	if !strings.Contains(string(sink.files["summary.txt"]), "expander") {
		t.Error("summary.txt should mention the platform name")
	}
	if !strings.Contains(gunzip(t, sink.files["collisions.txt.gz"]), "acn") {
		t.Error("collisions.txt.gz should list the ambiguous typo")
	}
	if !strings.Contains(string(sink.files["statistics.json"]), `"accepted"`) {
		t.Error("statistics.json should contain the accepted metric key")
	}
}

func TestWriteFirmwareIncludesConflictsFile(t *testing.T) {
	sink := newMemSink()
	report := sampleReport()
	report.FirmwareResult = &platform.FirmwareResult{
		Kept:           []boundary.Correction{{Typo: "teh", Word: "the", Boundary: boundary.BOTH}},
		CharsetDropped: []boundary.Correction{{Typo: "t3h", Word: "the", Boundary: boundary.BOTH}},
	}

	if err := Write(context.Background(), sink, "firmware", report, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, ok := sink.files["conflicts_firmware.txt.gz"]
	if !ok {
		t.Fatal("expected conflicts_firmware.txt.gz when a firmware result is present")
	}
	if !strings.Contains(gunzip(t, data), "t3h") {
		t.Error("conflicts_firmware.txt.gz should list the charset-dropped entry")
	}
	if !strings.Contains(string(sink.files["statistics.csv"]), "firmware_kept") {
		t.Error("statistics.csv should include firmware-specific rows")
	}
}

func TestWriteIncludesTraceFileWhenTracerHasRecords(t *testing.T) {
	sink := newMemSink()
	tr := trace.New(true, trace.NewSelector(nil))
	tr.Emit("collision", "accepted", boundary.Correction{Typo: "teh", Word: "the", Boundary: boundary.BOTH}, "frequency ratio satisfied")

	if err := Write(context.Background(), sink, "expander", sampleReport(), tr); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, ok := sink.files["trace.txt.gz"]
	if !ok {
		t.Fatal("expected trace.txt.gz when the tracer accumulated records")
	}
	if !strings.Contains(gunzip(t, data), "teh") {
		t.Error("trace.txt.gz should list the emitted record")
	}
}
