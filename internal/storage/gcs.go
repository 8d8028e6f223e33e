package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/mrwong99/entroppy/internal/resilience"
)

// gcsSink writes objects to a GCS bucket, keyed by bucket/prefix derived
// from the gs:// URL passed to --output. Writes go through a circuit
// breaker: a run that emits many small files (one per expander bundle)
// should stop hammering a bucket the moment it starts rejecting requests,
// rather than retrying every object until the whole run times out.
type gcsSink struct {
	client  *storage.Client
	bucket  *storage.BucketHandle
	prefix  string
	breaker *resilience.CircuitBreaker
}

func newGCSSink(ctx context.Context, rest string) (*gcsSink, error) {
	bucketName, prefix, _ := strings.Cut(rest, "/")
	if bucketName == "" {
		return nil, fmt.Errorf("storage: gs:// URL is missing a bucket name")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: create GCS client: %w", err)
	}

	return &gcsSink{
		client: client,
		bucket: client.Bucket(bucketName),
		prefix: prefix,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name: "gcs-sink", MaxFailures: 5, ResetTimeout: 30 * time.Second,
		}),
	}, nil
}

func (g *gcsSink) Store(ctx context.Context, name string, r io.Reader) (int64, error) {
	key := joinKey(g.prefix, name)
	var n int64
	err := g.breaker.Execute(func() error {
		wctx, cancel := context.WithCancel(ctx)
		defer cancel()
		w := g.bucket.Object(key).NewWriter(wctx)
		written, copyErr := io.Copy(w, r)
		n = written
		if copyErr != nil {
			// Cancelling the writer's context aborts the upload, so Close
			// does not commit the partial object.
			cancel()
			w.Close()
			return fmt.Errorf("storage: write gcs object %q: %w", key, copyErr)
		}
		if closeErr := w.Close(); closeErr != nil {
			return fmt.Errorf("storage: close gcs object %q: %w", key, closeErr)
		}
		return nil
	})
	if err != nil {
		return n, err
	}
	return n, nil
}

func (g *gcsSink) Close() error {
	return g.client.Close()
}

func joinKey(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	default:
		return strings.TrimSuffix(prefix, "/") + "/" + name
	}
}
