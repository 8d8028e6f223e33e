package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalSinkWritesNamedFileUnderRoot(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sink.Close()

	n, err := sink.Store(context.Background(), "typos_a.yml", strings.NewReader("matches: []\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != int64(len("matches: []\n")) {
		t.Errorf("expected %d bytes written, got %d", len("matches: []\n"), n)
	}

	data, err := os.ReadFile(filepath.Join(dir, "typos_a.yml"))
	if err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
	if string(data) != "matches: []\n" {
		t.Errorf("unexpected file contents: %q", data)
	}
}

func TestLocalSinkWritesSingleFileWhenNameEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "firmware.txt")
	sink, err := New(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sink.Close()

	if _, err := sink.Store(context.Background(), "", strings.NewReader("teh -> the\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
	if string(data) != "teh -> the\n" {
		t.Errorf("unexpected file contents: %q", data)
	}
}

func TestNewSelectsLocalSinkByDefault(t *testing.T) {
	sink, err := New(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sink.(*localSink); !ok {
		t.Errorf("expected *localSink, got %T", sink)
	}
}
