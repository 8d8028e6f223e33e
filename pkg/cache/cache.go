// Package cache provides an on-disk, msgpack-encoded cache for expensive
// external-provider lookups (word frequency, top-N word lists), plus a
// small in-memory LRU used to avoid repeated disk hits within a single
// run. It exists so repeated Frequency/TopN lookups across runs stay
// cheap; it has no bearing on solver correctness.
package cache

import (
	"os"
	"path/filepath"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// TopNKey identifies one cached top-N-word-list lookup.
type TopNKey struct {
	Lang string
	N    int
}

// file is the on-disk representation: top-N lists keyed by "lang/n" and
// frequencies keyed by "word/lang".
type file struct {
	TopN map[string][]string `msgpack:"top_n"`
	Freq map[string]float64  `msgpack:"freq"`
}

// Disk is a directory-backed cache for provider lookups.
type Disk struct {
	dir  string
	data file
}

// Open loads (or creates) a disk cache rooted at dir. dir is created if it
// does not exist.
func Open(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	d := &Disk{dir: dir, data: file{TopN: map[string][]string{}, Freq: map[string]float64{}}}

	b, err := os.ReadFile(d.path())
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return nil, err
	}
	if len(b) == 0 {
		return d, nil
	}
	if err := msgpack.Unmarshal(b, &d.data); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Disk) path() string {
	return filepath.Join(d.dir, "entroppy-cache.msgpack")
}

func topNCacheKey(k TopNKey) string {
	return k.Lang + "/" + strconv.Itoa(k.N)
}

// TopN returns a cached top-N word list, if present.
func (d *Disk) TopN(k TopNKey) ([]string, bool) {
	v, ok := d.data.TopN[topNCacheKey(k)]
	return v, ok
}

// PutTopN stores a top-N word list.
func (d *Disk) PutTopN(k TopNKey, words []string) {
	d.data.TopN[topNCacheKey(k)] = words
}

// Frequency returns a cached frequency for "word/lang", if present.
func (d *Disk) Frequency(word, lang string) (float64, bool) {
	v, ok := d.data.Freq[word+"/"+lang]
	return v, ok
}

// PutFrequency stores a frequency for "word/lang".
func (d *Disk) PutFrequency(word, lang string, freq float64) {
	d.data.Freq[word+"/"+lang] = freq
}

// Flush persists the cache to disk.
func (d *Disk) Flush() error {
	b, err := msgpack.Marshal(&d.data)
	if err != nil {
		return err
	}
	return os.WriteFile(d.path(), b, 0o644)
}

// FreqLRU is a bounded in-memory cache of frequency lookups, fronting
// whatever provider or disk cache backs it.
type FreqLRU struct {
	cache *lru.Cache[string, float64]
}

// NewFreqLRU creates an LRU cache holding up to size entries.
func NewFreqLRU(size int) (*FreqLRU, error) {
	c, err := lru.New[string, float64](size)
	if err != nil {
		return nil, err
	}
	return &FreqLRU{cache: c}, nil
}

// Get returns a cached frequency for "word/lang".
func (f *FreqLRU) Get(word, lang string) (float64, bool) {
	return f.cache.Get(word + "/" + lang)
}

// Put stores a frequency for "word/lang".
func (f *FreqLRU) Put(word, lang string, freq float64) {
	f.cache.Add(word+"/"+lang, freq)
}
