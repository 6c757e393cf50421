package types

import (
	"time"
)

// Common system-wide constants
const (
	// MaxScore is assigned to every exact substring hit. Fuzzy scores from the
	// deletion index stay far below it for realistic names.
	MaxScore int64 = 100

	// ExactNameBonus is added by the deletion index when the lowercased query
	// is itself a variant key.
	ExactNameBonus int64 = 10

	DefaultMinGramLen      = 3
	DefaultMaxEditDistance = 2
	MaxEditDistanceLimit   = 3 // variant sets grow combinatorially past this

	DefaultMaxResults     = 50
	DefaultFuzzyThreshold = 2
	DefaultMaxDepth       = 10
)

// EntryID is the dense, zero-based identity of an entry within one index
// generation. Rebuilding re-assigns IDs.
type EntryID uint32

// FileRecord is one scanned file as handed over by the directory walker.
type FileRecord struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Size     uint64    `json:"size"`
	Modified time.Time `json:"modified"`
}

// ScoredEntry pairs an entry with the score a search strategy assigned it.
type ScoredEntry struct {
	ID    EntryID `json:"id"`
	Score int64   `json:"score"`
}

// FuzzyStrategy selects how the dispatcher serves fuzzy queries.
type FuzzyStrategy string

const (
	// FuzzyParallel scores every entry with the parallel scorer.
	FuzzyParallel FuzzyStrategy = "parallel"
	// FuzzySymSpell answers from the deletion index only.
	FuzzySymSpell FuzzyStrategy = "symspell"
	// FuzzyHybrid tries the deletion index first and falls back to the
	// parallel scorer when it is absent or finds nothing.
	FuzzyHybrid FuzzyStrategy = "hybrid"
)

// Valid reports whether s names a known strategy.
func (s FuzzyStrategy) Valid() bool {
	switch s {
	case FuzzyParallel, FuzzySymSpell, FuzzyHybrid:
		return true
	}
	return false
}

func (s FuzzyStrategy) String() string {
	return string(s)
}
