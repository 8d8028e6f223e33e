// Package boundary defines the Boundary enumeration and the Correction
// triple that flows through every stage of the solver pipeline.
package boundary

import "fmt"

// Boundary describes where a typo may fire relative to word edges.
type Boundary int

const (
	// NONE matches anywhere in a word.
	NONE Boundary = iota
	// LEFT matches only when preceded by a non-letter (word start).
	LEFT
	// RIGHT matches only when followed by a non-letter (word end).
	RIGHT
	// BOTH matches only as a standalone token.
	BOTH
)

// String renders the boundary using its canonical name.
func (b Boundary) String() string {
	switch b {
	case NONE:
		return "NONE"
	case LEFT:
		return "LEFT"
	case RIGHT:
		return "RIGHT"
	case BOTH:
		return "BOTH"
	default:
		return fmt.Sprintf("Boundary(%d)", int(b))
	}
}

// strictness maps each boundary to its position in the merge order
// NONE < LEFT = RIGHT < BOTH.
func (b Boundary) strictness() int {
	switch b {
	case NONE:
		return 0
	case LEFT, RIGHT:
		return 1
	case BOTH:
		return 2
	default:
		return -1
	}
}

// Stricter reports whether b is strictly more restrictive than other under
// the merge order NONE < LEFT = RIGHT < BOTH. LEFT and RIGHT are
// incomparable (neither is stricter than the other); Stricter returns false
// for both directions between them.
func (b Boundary) Stricter(other Boundary) bool {
	return b.strictness() > other.strictness()
}

// Strictest returns the more restrictive of a and b, preferring a ties
// (equal strictness, e.g. LEFT vs RIGHT resolves to a).
func Strictest(a, b Boundary) Boundary {
	if b.Stricter(a) {
		return b
	}
	return a
}

// Correction is the atomic output of the pipeline: a typo, the word it
// corrects to, and the boundary under which the rule may fire. Both
// strings are expected to be lowercase and non-empty, and Typo must not
// equal Word.
type Correction struct {
	Typo     string
	Word     string
	Boundary Boundary
}

// Valid reports whether c satisfies the basic well-formedness invariant:
// both strings non-empty and Typo != Word.
func (c Correction) Valid() bool {
	return c.Typo != "" && c.Word != "" && c.Typo != c.Word
}

// Key identifies a Correction by its (typo, word) pair, ignoring boundary.
// Stage 4 uses it to find a direct correction with the same pair as a
// pattern but a different boundary; the direct correction is then kept and
// the pattern rejected.
type Key struct {
	Typo string
	Word string
}

// AsKey returns the (typo, word) key for c.
func (c Correction) AsKey() Key {
	return Key{Typo: c.Typo, Word: c.Word}
}
