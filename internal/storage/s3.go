package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mrwong99/entroppy/internal/resilience"
)

// s3Sink writes objects to an S3 bucket, keyed by bucket/prefix derived
// from the s3:// URL passed to --output. PutObject requires a seekable
// length up front, so Store buffers the (small, text-only) rule file in
// memory before uploading. PutObject calls are guarded by a circuit
// breaker so a run emitting hundreds of expander bundles fails fast once
// the bucket starts rejecting requests instead of retrying every object.
type s3Sink struct {
	client  *s3.Client
	bucket  string
	prefix  string
	breaker *resilience.CircuitBreaker
}

func newS3Sink(ctx context.Context, rest string) (*s3Sink, error) {
	bucketName, prefix, _ := strings.Cut(rest, "/")
	if bucketName == "" {
		return nil, fmt.Errorf("storage: s3:// URL is missing a bucket name")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: load AWS config: %w", err)
	}

	return &s3Sink{
		client: s3.NewFromConfig(cfg),
		bucket: bucketName,
		prefix: prefix,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name: "s3-sink", MaxFailures: 5, ResetTimeout: 30 * time.Second,
		}),
	}, nil
}

func (s *s3Sink) Store(ctx context.Context, name string, r io.Reader) (int64, error) {
	key := joinKey(s.prefix, name)

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("storage: buffer s3 object %q: %w", key, err)
	}

	err = s.breaker.Execute(func() error {
		_, putErr := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		if putErr != nil {
			return fmt.Errorf("storage: put s3 object %q: %w", key, putErr)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func (s *s3Sink) Close() error { return nil }
