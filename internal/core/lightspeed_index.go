package core

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/lightspeed/internal/debug"
	lserrors "github.com/standardbeagle/lightspeed/internal/errors"
	"github.com/standardbeagle/lightspeed/internal/types"
)

// BuildOptions are the parameters that define an index generation. They are
// stored with the snapshot so a reloaded index answers queries the same way.
type BuildOptions struct {
	MinGramLen      int
	MaxEditDistance int
	DeletionIndex   bool
	IndexedPaths    []string
}

// DefaultBuildOptions returns the options used when nothing is configured.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		MinGramLen:      types.DefaultMinGramLen,
		MaxEditDistance: types.DefaultMaxEditDistance,
		DeletionIndex:   true,
	}
}

// Validate checks option ranges.
func (o BuildOptions) Validate() error {
	if o.MinGramLen < 1 {
		return fmt.Errorf("min gram length must be at least 1, got %d", o.MinGramLen)
	}
	if o.MaxEditDistance < 0 || o.MaxEditDistance > types.MaxEditDistanceLimit {
		return fmt.Errorf("max edit distance must be between 0 and %d, got %d",
			types.MaxEditDistanceLimit, o.MaxEditDistance)
	}
	return nil
}

// Index is one frozen generation: the entry store plus the indexes built
// over it. The indexes hold IDs into this store only, so the three are
// created, saved and loaded together and never refreshed independently.
// All methods are safe for concurrent use because nothing mutates after
// construction.
type Index struct {
	store       *EntryStore
	ngrams      *NgramIndex
	deletions   *DeletionIndex
	scorer      *FuzzyScorer
	options     BuildOptions
	fingerprint uint64
	lastUpdated time.Time
}

// Stats summarizes index size.
type Stats struct {
	Entries          int    `json:"entries"`
	NgramKeys        int    `json:"ngram_keys"`
	NgramPostings    uint64 `json:"ngram_postings"`
	DeletionKeys     int    `json:"deletion_keys"`
	DeletionPostings uint64 `json:"deletion_postings"`
	MinGramLen       int    `json:"min_gram_len"`
	MaxEditDistance  int    `json:"max_edit_distance"`
	DeletionIndex    bool   `json:"deletion_index"`
}

// Build creates a new generation from scanned records. The n-gram and
// deletion indexes only read the store, so they are built concurrently.
func Build(records []types.FileRecord, opts BuildOptions) (*Index, error) {
	if err := opts.Validate(); err != nil {
		return nil, lserrors.NewIndexingError("validate options", err)
	}

	start := time.Now()
	store := NewEntryStore(records)

	var (
		ngrams    *NgramIndex
		deletions *DeletionIndex
		g         errgroup.Group
	)
	g.Go(func() error {
		ngrams = BuildNgramIndex(store, opts.MinGramLen)
		return nil
	})
	if opts.DeletionIndex {
		g.Go(func() error {
			deletions = BuildDeletionIndex(store, opts.MaxEditDistance)
			return nil
		})
	}
	_ = g.Wait()

	idx := &Index{
		store:       store,
		ngrams:      ngrams,
		deletions:   deletions,
		scorer:      NewFuzzyScorer(0),
		options:     opts,
		fingerprint: store.Fingerprint(),
		lastUpdated: time.Now().UTC(),
	}

	debug.LogIndexing("built generation %016x: %d entries, %d grams, %d variants in %v\n",
		idx.fingerprint, store.Len(), ngrams.KeyCount(), deletions.KeyCount(), time.Since(start))
	return idx, nil
}

// Assemble binds previously built parts into an Index. fingerprint is the
// value recorded when the parts were saved; it must match the store, or the
// parts come from different generations.
func Assemble(store *EntryStore, ngrams *NgramIndex, deletions *DeletionIndex, opts BuildOptions, fingerprint uint64, lastUpdated time.Time) (*Index, error) {
	if store == nil {
		store = NewEntryStore(nil)
	}
	if got := store.Fingerprint(); got != fingerprint {
		return nil, fmt.Errorf("store fingerprint %016x, recorded %016x: %w",
			got, fingerprint, lserrors.ErrIndexMismatch)
	}
	return &Index{
		store:       store,
		ngrams:      ngrams,
		deletions:   deletions,
		scorer:      NewFuzzyScorer(0),
		options:     opts,
		fingerprint: fingerprint,
		lastUpdated: lastUpdated,
	}, nil
}

// Store returns the entry store of this generation.
func (idx *Index) Store() *EntryStore {
	if idx == nil {
		return nil
	}
	return idx.store
}

// Ngrams returns the n-gram index.
func (idx *Index) Ngrams() *NgramIndex {
	if idx == nil {
		return nil
	}
	return idx.ngrams
}

// Deletions returns the deletion index, or nil when it was not built.
func (idx *Index) Deletions() *DeletionIndex {
	if idx == nil {
		return nil
	}
	return idx.deletions
}

// Options returns the options the generation was built with.
func (idx *Index) Options() BuildOptions {
	if idx == nil {
		return BuildOptions{}
	}
	return idx.options
}

// Fingerprint identifies the generation.
func (idx *Index) Fingerprint() uint64 {
	if idx == nil {
		return 0
	}
	return idx.fingerprint
}

// LastUpdated is when the generation was built.
func (idx *Index) LastUpdated() time.Time {
	if idx == nil {
		return time.Time{}
	}
	return idx.lastUpdated
}

// IndexedPaths returns the scan roots recorded at build time.
func (idx *Index) IndexedPaths() []string {
	if idx == nil {
		return nil
	}
	return idx.options.IndexedPaths
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	return idx.Store().Len()
}

// Entry resolves id, returning ErrEntryNotFound for IDs outside the store.
func (idx *Index) Entry(id types.EntryID) (Entry, error) {
	e, ok := idx.Store().Get(id)
	if !ok {
		return Entry{}, fmt.Errorf("entry %d: %w", id, lserrors.ErrEntryNotFound)
	}
	return e, nil
}

// Stats reports index sizes.
func (idx *Index) Stats() Stats {
	return Stats{
		Entries:          idx.Len(),
		NgramKeys:        idx.Ngrams().KeyCount(),
		NgramPostings:    idx.Ngrams().PostingCount(),
		DeletionKeys:     idx.Deletions().KeyCount(),
		DeletionPostings: idx.Deletions().PostingCount(),
		MinGramLen:       idx.Options().MinGramLen,
		MaxEditDistance:  idx.Options().MaxEditDistance,
		DeletionIndex:    idx.Deletions() != nil,
	}
}
