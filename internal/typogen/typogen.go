// Package typogen implements the five deterministic edit operators used to
// generate candidate typos from a source word. Generation is a pure
// function of the word and an optional keyboard-adjacency map.
package typogen

import (
	"strings"

	"github.com/mrwong99/entroppy/internal/boundary"
	"github.com/mrwong99/entroppy/internal/trace"
)

// AdjacencyMap maps a keyboard key to the string of keys adjacent to it.
type AdjacencyMap map[rune]string

// Generate returns every string reachable from w by exactly one of the five
// edit operators:
//
//   - adjacent-pair transposition (always)
//   - single-character omission (only if len(w) >= 4, rune-counted)
//   - single-character duplication (always)
//   - adjacent-key insertion (only if adj is non-empty)
//   - adjacent-key replacement (only if adj is non-empty)
//
// The result may contain duplicates; deduplication is the caller's
// responsibility. An empty w yields no output (and no traces).
//
// traces carries one [trace.Record] per generated typo, tagged with the
// operator that produced it, so a --debug run can explain why a given
// candidate exists before it ever reaches collision resolution. Boundary is
// always [boundary.NONE] at this stage — no boundary has been decided yet.
func Generate(w string, adj AdjacencyMap) (typos []string, traces []trace.Record) {
	runes := []rune(w)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	emit := func(event, typo string) {
		typos = append(typos, typo)
		traces = append(traces, trace.Record{
			Stage:    "typogen",
			Event:    event,
			Typo:     typo,
			Word:     w,
			Boundary: boundary.NONE,
			Reason:   event,
		})
	}

	// Adjacent-pair transposition.
	for i := 0; i+1 < n; i++ {
		swapped := append([]rune(nil), runes...)
		swapped[i], swapped[i+1] = swapped[i+1], swapped[i]
		emit("transposition", string(swapped))
	}

	// Single-character omission, only for words of 4+ runes.
	if n >= 4 {
		for i := 0; i < n; i++ {
			omitted := make([]rune, 0, n-1)
			omitted = append(omitted, runes[:i]...)
			omitted = append(omitted, runes[i+1:]...)
			emit("omission", string(omitted))
		}
	}

	// Single-character duplication.
	for i := 0; i < n; i++ {
		dup := make([]rune, 0, n+1)
		dup = append(dup, runes[:i+1]...)
		dup = append(dup, runes[i])
		dup = append(dup, runes[i+1:]...)
		emit("duplication", string(dup))
	}

	if len(adj) > 0 {
		// Adjacent-key insertion: insert an adjacent key next to each
		// position's key.
		for i := 0; i < n; i++ {
			for _, k := range adj[runes[i]] {
				ins := make([]rune, 0, n+1)
				ins = append(ins, runes[:i+1]...)
				ins = append(ins, k)
				ins = append(ins, runes[i+1:]...)
				emit("adjacent_insert", string(ins))
			}
		}

		// Adjacent-key replacement: substitute each character with an
		// adjacent key.
		for i := 0; i < n; i++ {
			for _, k := range adj[runes[i]] {
				rep := append([]rune(nil), runes...)
				rep[i] = k
				emit("adjacent_replace", string(rep))
			}
		}
	}

	return typos, traces
}

// ParseAdjacencyLines parses lines of the form "key -> string_of_adjacent_keys"
// into an AdjacencyMap. Blank lines and lines starting with '#' are ignored.
// This is a pure helper; reading the file itself is an external concern.
func ParseAdjacencyLines(lines []string) AdjacencyMap {
	adj := make(AdjacencyMap)
	for _, line := range lines {
		key, adjacent, ok := parseAdjacencyLine(line)
		if ok {
			adj[key] = adjacent
		}
	}
	return adj
}

func parseAdjacencyLine(line string) (key rune, adjacent string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed[0] == '#' {
		return 0, "", false
	}
	lhs, rhs, found := strings.Cut(trimmed, "->")
	if !found {
		return 0, "", false
	}
	lhs, rhs = strings.TrimSpace(lhs), strings.TrimSpace(rhs)
	lr := []rune(lhs)
	if len(lr) != 1 || rhs == "" {
		return 0, "", false
	}
	return lr[0], rhs, true
}
