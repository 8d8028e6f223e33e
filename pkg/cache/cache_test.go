package cache

import "testing"

func TestDiskTopNRoundTrip(t *testing.T) {
	d, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	key := TopNKey{Lang: "en", N: 1000}
	if _, ok := d.TopN(key); ok {
		t.Fatalf("expected no cached entry before PutTopN")
	}

	words := []string{"the", "of", "and"}
	d.PutTopN(key, words)

	got, ok := d.TopN(key)
	if !ok {
		t.Fatalf("expected cached entry after PutTopN")
	}
	if len(got) != len(words) {
		t.Fatalf("got %v, want %v", got, words)
	}
}

func TestDiskFrequencyRoundTrip(t *testing.T) {
	d, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	d.PutFrequency("the", "en", 0.05)
	if got, ok := d.Frequency("the", "en"); !ok || got != 0.05 {
		t.Fatalf("got (%v, %v), want (0.05, true)", got, ok)
	}
	if _, ok := d.Frequency("the", "de"); ok {
		t.Fatalf("expected no entry for a different lang")
	}
}

func TestDiskFlushAndReopenPersists(t *testing.T) {
	dir := t.TempDir()

	d, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	d.PutFrequency("nad", "en", 1e-3)
	d.PutTopN(TopNKey{Lang: "en", N: 10}, []string{"a", "b"})
	if err := d.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got, ok := reopened.Frequency("nad", "en"); !ok || got != 1e-3 {
		t.Fatalf("got (%v, %v), want (1e-3, true)", got, ok)
	}
	if got, ok := reopened.TopN(TopNKey{Lang: "en", N: 10}); !ok || len(got) != 2 {
		t.Fatalf("got (%v, %v), want len 2", got, ok)
	}
}

func TestOpenEmptyDirStartsBlank(t *testing.T) {
	d, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := d.Frequency("anything", "en"); ok {
		t.Fatalf("expected a fresh cache directory to start empty")
	}
}

func TestFreqLRU(t *testing.T) {
	lru, err := NewFreqLRU(2)
	if err != nil {
		t.Fatalf("NewFreqLRU: %v", err)
	}

	if _, ok := lru.Get("the", "en"); ok {
		t.Fatalf("expected no entry before Put")
	}

	lru.Put("the", "en", 0.05)
	if got, ok := lru.Get("the", "en"); !ok || got != 0.05 {
		t.Fatalf("got (%v, %v), want (0.05, true)", got, ok)
	}

	// Exceeding the configured size evicts the least recently used entry.
	lru.Put("of", "en", 0.03)
	lru.Put("and", "en", 0.02)
	if _, ok := lru.Get("the", "en"); ok {
		t.Fatalf("expected \"the\" to have been evicted")
	}
	if got, ok := lru.Get("and", "en"); !ok || got != 0.02 {
		t.Fatalf("got (%v, %v), want (0.02, true)", got, ok)
	}
}
