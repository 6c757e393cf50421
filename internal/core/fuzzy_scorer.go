package core

import (
	"context"
	"runtime"
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/lightspeed/internal/types"
)

const (
	// minPartitionSize keeps tiny stores from paying goroutine overhead per
	// handful of entries.
	minPartitionSize = 512

	// Slab sizes match fzf's own defaults for its matcher goroutines.
	slab16Size = 100 * 1024
	slab32Size = 2048
)

var fzfSchemeOnce sync.Once

// FuzzyScorer scores every entry against a query with fzf's v2 algorithm
// (the same Smith-Waterman style scoring skim uses) and keeps the ones at
// or above a threshold. It needs no index.
type FuzzyScorer struct {
	workers int
}

// NewFuzzyScorer creates a scorer that fans out over at most workers
// goroutines. workers <= 0 means GOMAXPROCS.
func NewFuzzyScorer(workers int) *FuzzyScorer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	fzfSchemeOnce.Do(func() {
		// path scheme rewards matches right after a separator
		algo.Init("path")
	})
	return &FuzzyScorer{workers: workers}
}

// Workers returns the fan-out limit.
func (fs *FuzzyScorer) Workers() int {
	return fs.workers
}

// Score runs one fan-out over store. Each partition owns its slab and
// result slice; the only synchronization is the final join. ctx is checked
// between partitions and periodically inside them.
func (fs *FuzzyScorer) Score(ctx context.Context, store *EntryStore, query string, threshold int64) ([]types.ScoredEntry, error) {
	q := strings.ToLower(query)
	entries := store.All()
	if q == "" || len(entries) == 0 {
		return nil, nil
	}
	// text is folded to base letters inside FuzzyMatchV2, so the pattern
	// must be folded the same way or accented queries never match
	pattern := algo.NormalizeRunes([]rune(q))

	partitions := fs.partition(len(entries))
	partials := make([][]types.ScoredEntry, len(partitions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fs.workers)
	for p, bounds := range partitions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slab := util.MakeSlab(slab16Size, slab32Size)
			var local []types.ScoredEntry
			for i := bounds[0]; i < bounds[1]; i++ {
				if (i-bounds[0])&1023 == 1023 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				e := &entries[i]
				best, matched := bestScore(e, pattern, slab)
				if matched && best >= threshold {
					local = append(local, types.ScoredEntry{ID: e.ID, Score: best})
				}
			}
			partials[p] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, part := range partials {
		total += len(part)
	}
	results := make([]types.ScoredEntry, 0, total)
	for _, part := range partials {
		results = append(results, part...)
	}
	sortScored(results)
	return results, nil
}

// partition splits n entries into contiguous [start, end) ranges, a few per
// worker so uneven name lengths balance out.
func (fs *FuzzyScorer) partition(n int) [][2]int {
	count := fs.workers * 4
	size := (n + count - 1) / count
	if size < minPartitionSize {
		size = minPartitionSize
	}
	var parts [][2]int
	for start := 0; start < n; start += size {
		parts = append(parts, [2]int{start, min(n, start+size)})
	}
	return parts
}

// bestScore is the higher of the name and path scores.
func bestScore(e *Entry, pattern []rune, slab *util.Slab) (int64, bool) {
	nameScore, nameOK := fuzzyScore(e.NameLower, pattern, slab)
	pathScore, pathOK := fuzzyScore(e.PathLower, pattern, slab)
	switch {
	case nameOK && pathOK:
		return max(nameScore, pathScore), true
	case nameOK:
		return nameScore, true
	case pathOK:
		return pathScore, true
	}
	return 0, false
}

func fuzzyScore(text string, pattern []rune, slab *util.Slab) (int64, bool) {
	chars := util.ToChars([]byte(text))
	res, _ := algo.FuzzyMatchV2(false, true, true, &chars, pattern, false, slab)
	if res.Start < 0 {
		return 0, false
	}
	return int64(res.Score), true
}
