package core

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	lserrors "github.com/standardbeagle/lightspeed/internal/errors"
	"github.com/standardbeagle/lightspeed/internal/types"
)

// postingMap maps an index key to the set of entries carrying it.
// Bitmaps dedupe IDs on insert, so a name that yields the same gram twice
// still records its entry once.
type postingMap map[string]*roaring.Bitmap

func (pm postingMap) add(key string, id types.EntryID) {
	rb, ok := pm[key]
	if !ok {
		rb = roaring.New()
		pm[key] = rb
	}
	rb.Add(uint32(id))
}

func (pm postingMap) lookup(key string) (*roaring.Bitmap, bool) {
	rb, ok := pm[key]
	return rb, ok
}

// postingCount is the total number of (key, id) pairs.
func (pm postingMap) postingCount() uint64 {
	var total uint64
	for _, rb := range pm {
		total += rb.GetCardinality()
	}
	return total
}

func (pm postingMap) optimize() {
	for _, rb := range pm {
		rb.RunOptimize()
	}
}

// export flattens the map to sorted ID arrays for serialization.
func (pm postingMap) export() map[string][]uint32 {
	out := make(map[string][]uint32, len(pm))
	for key, rb := range pm {
		out[key] = rb.ToArray()
	}
	return out
}

// importPostings rebuilds a posting map and rejects IDs that do not exist
// in a store of storeLen entries.
func importPostings(in map[string][]uint32, storeLen int) (postingMap, error) {
	pm := make(postingMap, len(in))
	for key, ids := range in {
		rb := roaring.New()
		for _, id := range ids {
			if int(id) >= storeLen {
				return nil, fmt.Errorf("key %q references entry %d of %d: %w",
					key, id, storeLen, lserrors.ErrIndexMismatch)
			}
			rb.Add(id)
		}
		pm[key] = rb
	}
	pm.optimize()
	return pm, nil
}
