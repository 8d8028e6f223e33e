package platform

import (
	"fmt"
	"sort"

	"github.com/mrwong99/entroppy/internal/boundary"
)

// ExpanderEntry is one corrections-file entry in the left-to-right
// expander's YAML format.
type ExpanderEntry struct {
	Trigger       string `yaml:"trigger"`
	Replace       string `yaml:"replace"`
	PropagateCase bool   `yaml:"propagate_case"`
	Word          bool   `yaml:"word,omitempty"`
	LeftWord      bool   `yaml:"left_word,omitempty"`
	RightWord     bool   `yaml:"right_word,omitempty"`
}

// ExpanderFile is the top-level document written to one typos_*.yml file.
type ExpanderFile struct {
	Matches []ExpanderEntry `yaml:"matches"`
}

// ExpanderBundle is one named output file ready for a storage.Sink.
type ExpanderBundle struct {
	Name string
	File ExpanderFile
}

func toEntry(c boundary.Correction) ExpanderEntry {
	e := ExpanderEntry{Trigger: c.Typo, Replace: c.Word, PropagateCase: true}
	switch c.Boundary {
	case boundary.BOTH:
		e.Word = true
	case boundary.LEFT:
		e.LeftWord = true
	case boundary.RIGHT:
		e.RightWord = true
	}
	return e
}

// BuildExpanderBundles implements Personality A's emission rule: bucket
// corrections by the first letter of the correction word (alphabetic
// ranking, i.e. no scoring), split oversized buckets at maxEntriesPerFile.
func BuildExpanderBundles(corrections []boundary.Correction, maxEntriesPerFile int) []ExpanderBundle {
	sorted := append([]boundary.Correction(nil), corrections...)
	sortByWord(sorted)

	buckets := make(map[string][]boundary.Correction)
	var letters []string
	for _, c := range sorted {
		key := bucketKey(c.Word)
		if _, ok := buckets[key]; !ok {
			letters = append(letters, key)
		}
		buckets[key] = append(buckets[key], c)
	}
	sort.Strings(letters)

	var bundles []ExpanderBundle
	for _, letter := range letters {
		group := buckets[letter]
		if maxEntriesPerFile <= 0 || len(group) <= maxEntriesPerFile {
			bundles = append(bundles, ExpanderBundle{
				Name: fmt.Sprintf("typos_%s.yml", letter),
				File: ExpanderFile{Matches: toEntries(group)},
			})
			continue
		}
		for start := 0; start < len(group); start += maxEntriesPerFile {
			end := start + maxEntriesPerFile
			if end > len(group) {
				end = len(group)
			}
			chunk := group[start:end]
			name := fmt.Sprintf("typos_%s_to_%s.yml", chunk[0].Word, chunk[len(chunk)-1].Word)
			bundles = append(bundles, ExpanderBundle{Name: name, File: ExpanderFile{Matches: toEntries(chunk)}})
		}
	}
	return bundles
}

func toEntries(cs []boundary.Correction) []ExpanderEntry {
	out := make([]ExpanderEntry, len(cs))
	for i, c := range cs {
		out[i] = toEntry(c)
	}
	return out
}

func bucketKey(word string) string {
	if word == "" {
		return "symbols"
	}
	r := []rune(word)[0]
	if isLetter(r) {
		return string(r)
	}
	return "symbols"
}
