package resilience

import (
	"testing"

	"github.com/mrwong99/entroppy/internal/dictionary"
)

func TestDictionaryFallback_PrimarySucceeds(t *testing.T) {
	reg := dictionary.NewRegistry()
	df := NewDictionaryFallback(reg, "embedded", nil, FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	df.AddFallback("file")

	p, err := df.Create()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected a non-nil provider")
	}
}

func TestDictionaryFallback_FallsBackWhenPrimaryMissingOption(t *testing.T) {
	reg := dictionary.NewRegistry()
	df := NewDictionaryFallback(reg, "file", nil, FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	df.AddFallback("embedded")

	p, err := df.Create()
	if err != nil {
		t.Fatalf("expected fallback to embedded to succeed, got: %v", err)
	}
	if !p.Contains("the") {
		t.Error("expected the embedded provider to recognize a common word")
	}
}

func TestDictionaryFallback_AllFail(t *testing.T) {
	reg := dictionary.NewRegistry()
	df := NewDictionaryFallback(reg, "file", nil, FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	df.AddFallback("does-not-exist")

	if _, err := df.Create(); err == nil {
		t.Fatal("expected an error when every provider name fails to construct")
	}
}
