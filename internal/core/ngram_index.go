package core

import (
	"strings"

	"github.com/standardbeagle/lightspeed/internal/types"
)

// NgramIndex maps every substring of up to MinGramLen+2 runes of each
// entry's lowercased name and path to the entries containing it.
//
// A query that is a key resolves to a candidate set; a query that is not a
// key is either longer than any indexed gram or absent from the corpus, and
// is answered by a linear scan. Either way there are no false negatives.
type NgramIndex struct {
	minGramLen int
	grams      postingMap
}

// BuildNgramIndex indexes every entry of store. Grams are cut on rune
// boundaries so multi-byte names are never split mid-character.
func BuildNgramIndex(store *EntryStore, minGramLen int) *NgramIndex {
	if minGramLen < 1 {
		minGramLen = 1
	}
	ni := &NgramIndex{
		minGramLen: minGramLen,
		grams:      make(postingMap),
	}

	entries := store.All()
	for i := range entries {
		e := &entries[i]
		ni.addGrams(e.ID, e.NameLower)
		ni.addGrams(e.ID, e.PathLower)
	}
	ni.grams.optimize()
	return ni
}

// addGrams records id under every substring [i,j) of text with
// j <= i+minGramLen+2.
func (ni *NgramIndex) addGrams(id types.EntryID, text string) {
	runes := []rune(text)
	bound := ni.maxGramLen()
	for i := range runes {
		end := min(len(runes), i+bound)
		for j := i + 1; j <= end; j++ {
			ni.grams.add(string(runes[i:j]), id)
		}
	}
}

// MinGramLen returns the configured gram size.
func (ni *NgramIndex) MinGramLen() int {
	if ni == nil {
		return 0
	}
	return ni.minGramLen
}

func (ni *NgramIndex) maxGramLen() int {
	return ni.minGramLen + 2
}

// KeyCount returns the number of distinct grams.
func (ni *NgramIndex) KeyCount() int {
	if ni == nil {
		return 0
	}
	return len(ni.grams)
}

// PostingCount returns the number of (gram, entry) pairs.
func (ni *NgramIndex) PostingCount() uint64 {
	if ni == nil {
		return 0
	}
	return ni.grams.postingCount()
}

// SearchSubstring returns the deduplicated IDs of entries whose lowercased
// name or path contains query, in ascending ID order. Every candidate from
// the index is re-checked against the store before it is returned.
func (ni *NgramIndex) SearchSubstring(store *EntryStore, query string) []types.EntryID {
	q := strings.ToLower(query)
	if q == "" || store.Len() == 0 {
		return nil
	}
	if ni == nil {
		return linearScan(store, q)
	}

	candidates, ok := ni.grams.lookup(q)
	if !ok {
		return linearScan(store, q)
	}

	results := make([]types.EntryID, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		e, found := store.Get(types.EntryID(it.Next()))
		if found && e.contains(q) {
			results = append(results, e.ID)
		}
	}
	return results
}

// ExportGrams flattens the index for serialization.
func (ni *NgramIndex) ExportGrams() map[string][]uint32 {
	if ni == nil {
		return nil
	}
	return ni.grams.export()
}

// RestoreNgramIndex rebuilds an index from exported grams. Every ID must
// fall inside a store of storeLen entries.
func RestoreNgramIndex(minGramLen int, grams map[string][]uint32, storeLen int) (*NgramIndex, error) {
	pm, err := importPostings(grams, storeLen)
	if err != nil {
		return nil, err
	}
	if minGramLen < 1 {
		minGramLen = 1
	}
	return &NgramIndex{minGramLen: minGramLen, grams: pm}, nil
}
