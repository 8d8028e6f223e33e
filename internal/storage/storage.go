// Package storage implements the output sinks stage 6 writes rule files
// to: a local directory/file, a GCS bucket (gs://), or an S3 bucket
// (s3://), selected by the --output prefix.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	fpath "path/filepath"
	"strings"
)

// Sink stores named outputs under a single root (a local directory, or a
// cloud bucket + key prefix). Each call to Store is a scoped acquisition
// of one destination object with guaranteed release on every exit path,
// so a failing write never leaves a partially-written object behind.
type Sink interface {
	// Store writes all of r to name under the sink's root, returning the
	// number of bytes written.
	Store(ctx context.Context, name string, r io.Reader) (int64, error)
	Close() error
}

// New selects a Sink implementation from output's prefix: "gs://" for
// GCS, "s3://" for S3, anything else for the local filesystem.
func New(ctx context.Context, output string) (Sink, error) {
	switch {
	case strings.HasPrefix(output, "gs://"):
		return newGCSSink(ctx, strings.TrimPrefix(output, "gs://"))
	case strings.HasPrefix(output, "s3://"):
		return newS3Sink(ctx, strings.TrimPrefix(output, "s3://"))
	default:
		return newLocalSink(output)
	}
}

// localSink writes to a directory on disk (expander) or, when name is
// empty on Store, directly to a single file path (firmware).
type localSink struct {
	root string
}

func newLocalSink(root string) (*localSink, error) {
	return &localSink{root: root}, nil
}

func (l *localSink) Store(_ context.Context, name string, r io.Reader) (int64, error) {
	path := l.root
	if name != "" {
		path = fpath.Join(l.root, name)
	}
	if dir := fpath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("storage: create directory %q: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("storage: create %q: %w", path, err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(path)
		return n, fmt.Errorf("storage: write %q: %w", path, err)
	}
	return n, nil
}

func (l *localSink) Close() error { return nil }
