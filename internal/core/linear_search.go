package core

import (
	"strings"

	"github.com/standardbeagle/lightspeed/internal/types"
)

// LinearSearch tests every entry for containment of query in its name or
// path. It needs no index and never misses a match; the n-gram index falls
// back to it for queries it has no key for.
func LinearSearch(store *EntryStore, query string) []types.EntryID {
	q := strings.ToLower(query)
	if q == "" {
		return nil
	}
	return linearScan(store, q)
}

func linearScan(store *EntryStore, queryLower string) []types.EntryID {
	var results []types.EntryID
	entries := store.All()
	for i := range entries {
		if entries[i].contains(queryLower) {
			results = append(results, entries[i].ID)
		}
	}
	return results
}
