package core

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/lightspeed/internal/types"
)

// DeletionIndex is a SymSpell-style symmetric delete index: every string
// reachable from an entry's lowercased name by deleting up to K runes maps
// back to that entry. A query matches when its own deletion variants hit
// the same keys, which turns edit-distance search into hash lookups.
type DeletionIndex struct {
	maxEditDistance int
	variants        postingMap
}

// BuildDeletionIndex indexes the deletion variants of every entry name.
// maxEditDistance is clamped to [0, MaxEditDistanceLimit].
func BuildDeletionIndex(store *EntryStore, maxEditDistance int) *DeletionIndex {
	maxEditDistance = clampEditDistance(maxEditDistance)
	di := &DeletionIndex{
		maxEditDistance: maxEditDistance,
		variants:        make(postingMap),
	}

	entries := store.All()
	for i := range entries {
		for _, v := range GenerateDeletions(entries[i].NameLower, maxEditDistance) {
			di.variants.add(v, entries[i].ID)
		}
	}
	di.variants.optimize()
	return di
}

func clampEditDistance(k int) int {
	if k < 0 {
		return 0
	}
	if k > types.MaxEditDistanceLimit {
		return types.MaxEditDistanceLimit
	}
	return k
}

// GenerateDeletions returns word followed by every distinct string obtained
// by deleting 1..maxDistance runes from it. Generation is breadth-first over
// an explicit frontier with a seen set, so repeated letters do not multiply
// the work and long names do not recurse.
func GenerateDeletions(word string, maxDistance int) []string {
	out := []string{word}
	seen := map[string]struct{}{word: {}}
	frontier := []string{word}

	for depth := 0; depth < maxDistance && len(frontier) > 0; depth++ {
		var next []string
		for _, w := range frontier {
			runes := []rune(w)
			for i := range runes {
				variant := string(runes[:i]) + string(runes[i+1:])
				if _, dup := seen[variant]; dup {
					continue
				}
				seen[variant] = struct{}{}
				out = append(out, variant)
				next = append(next, variant)
			}
		}
		frontier = next
	}
	return out
}

// MaxEditDistance returns the K the index was built with.
func (di *DeletionIndex) MaxEditDistance() int {
	if di == nil {
		return 0
	}
	return di.maxEditDistance
}

// KeyCount returns the number of distinct variants.
func (di *DeletionIndex) KeyCount() int {
	if di == nil {
		return 0
	}
	return len(di.variants)
}

// PostingCount returns the number of (variant, entry) pairs.
func (di *DeletionIndex) PostingCount() uint64 {
	if di == nil {
		return 0
	}
	return di.variants.postingCount()
}

// SearchFuzzy scores entries by how many deletion variants they share with
// query. An entry that carries the lowercased query itself as a key gets
// ExactNameBonus on top. Results are sorted by score, highest first.
//
// The score approximates closeness; it is not an edit distance. Use
// SearchFuzzyVerified when the distance bound must hold.
func (di *DeletionIndex) SearchFuzzy(query string, maxEditDistance int) []types.ScoredEntry {
	q := strings.ToLower(query)
	if di == nil || q == "" || len(di.variants) == 0 {
		return nil
	}

	scores := make(map[types.EntryID]int64)
	for _, v := range GenerateDeletions(q, clampEditDistance(maxEditDistance)) {
		rb, ok := di.variants.lookup(v)
		if !ok {
			continue
		}
		it := rb.Iterator()
		for it.HasNext() {
			scores[types.EntryID(it.Next())]++
		}
	}

	if rb, ok := di.variants.lookup(q); ok {
		it := rb.Iterator()
		for it.HasNext() {
			scores[types.EntryID(it.Next())] += types.ExactNameBonus
		}
	}

	results := make([]types.ScoredEntry, 0, len(scores))
	for id, score := range scores {
		results = append(results, types.ScoredEntry{ID: id, Score: score})
	}
	sortScored(results)
	return results
}

// SearchFuzzyVerified runs SearchFuzzy and keeps only entries whose name is
// within maxEditDistance of query by true Levenshtein distance.
func (di *DeletionIndex) SearchFuzzyVerified(store *EntryStore, query string, maxEditDistance int) []types.ScoredEntry {
	q := strings.ToLower(query)
	candidates := di.SearchFuzzy(q, maxEditDistance)
	if len(candidates) == 0 {
		return nil
	}

	verified := candidates[:0]
	for _, c := range candidates {
		e, ok := store.Get(c.ID)
		if !ok {
			continue
		}
		if edlib.LevenshteinDistance(q, e.NameLower) <= maxEditDistance {
			verified = append(verified, c)
		}
	}
	return verified
}

// ExportVariants flattens the index for serialization.
func (di *DeletionIndex) ExportVariants() map[string][]uint32 {
	if di == nil {
		return nil
	}
	return di.variants.export()
}

// RestoreDeletionIndex rebuilds an index from exported variants.
func RestoreDeletionIndex(maxEditDistance int, variants map[string][]uint32, storeLen int) (*DeletionIndex, error) {
	pm, err := importPostings(variants, storeLen)
	if err != nil {
		return nil, err
	}
	return &DeletionIndex{maxEditDistance: clampEditDistance(maxEditDistance), variants: pm}, nil
}

// sortScored orders by score descending, then by ID so ties are stable
// across runs.
func sortScored(results []types.ScoredEntry) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
}
