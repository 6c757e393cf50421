package core

import (
	"context"
	"time"

	"github.com/standardbeagle/lightspeed/internal/debug"
	lserrors "github.com/standardbeagle/lightspeed/internal/errors"
	"github.com/standardbeagle/lightspeed/internal/types"
)

// SearchRequest describes one query against a generation.
type SearchRequest struct {
	Query string
	// Fuzzy selects approximate matching; otherwise only substring hits
	// are returned.
	Fuzzy bool
	// Threshold is the minimum parallel-scorer score kept. It does not
	// apply to deletion-index scores, which count shared variants.
	Threshold int64
	// Strategy picks the fuzzy path. Empty means FuzzyParallel.
	Strategy types.FuzzyStrategy
	// MaxDistance bounds deletion-index lookups. 0 or anything above the
	// distance the index was built with means the built distance.
	MaxDistance int
	// Verify drops deletion-index candidates whose Levenshtein distance to
	// the query exceeds the bound.
	Verify bool
}

// Hit is a resolved search result.
type Hit struct {
	Entry Entry
	Score int64
}

// Search is the hybrid dispatcher with the default fuzzy strategy:
// substring search when useFuzzy is false, the parallel scorer otherwise.
func (idx *Index) Search(ctx context.Context, query string, useFuzzy bool, threshold int64) ([]types.ScoredEntry, error) {
	return idx.SearchWith(ctx, SearchRequest{
		Query:     query,
		Fuzzy:     useFuzzy,
		Threshold: threshold,
	})
}

// SearchWith dispatches req to one strategy and returns results sorted by
// score. Each call is independent; nothing is cached between calls.
func (idx *Index) SearchWith(ctx context.Context, req SearchRequest) ([]types.ScoredEntry, error) {
	if req.Query == "" || idx.Len() == 0 {
		return nil, nil
	}

	start := time.Now()
	strategy := "substring"
	var (
		results []types.ScoredEntry
		err     error
	)

	if !req.Fuzzy {
		ids := idx.ngrams.SearchSubstring(idx.store, req.Query)
		results = make([]types.ScoredEntry, len(ids))
		for i, id := range ids {
			results[i] = types.ScoredEntry{ID: id, Score: types.MaxScore}
		}
	} else {
		strategy, results, err = idx.searchFuzzy(ctx, req)
		if err != nil {
			return nil, lserrors.NewSearchError(req.Query, strategy, err)
		}
	}

	debug.LogSearch("%s query %q: %d results in %v\n", strategy, req.Query, len(results), time.Since(start))
	return results, nil
}

// searchFuzzy applies the fuzzy strategy and reports which path served the
// query. Without a deletion index every strategy ends at the parallel
// scorer.
func (idx *Index) searchFuzzy(ctx context.Context, req SearchRequest) (string, []types.ScoredEntry, error) {
	strategy := req.Strategy
	if strategy == "" {
		strategy = types.FuzzyParallel
	}

	if strategy != types.FuzzyParallel && idx.deletions != nil {
		k := idx.deletions.MaxEditDistance()
		if req.MaxDistance > 0 && req.MaxDistance < k {
			k = req.MaxDistance
		}
		var results []types.ScoredEntry
		if req.Verify {
			results = idx.deletions.SearchFuzzyVerified(idx.store, req.Query, k)
		} else {
			results = idx.deletions.SearchFuzzy(req.Query, k)
		}
		if strategy == types.FuzzySymSpell || len(results) > 0 {
			return string(types.FuzzySymSpell), results, nil
		}
	}

	results, err := idx.scorer.Score(ctx, idx.store, req.Query, req.Threshold)
	return string(types.FuzzyParallel), results, err
}

// Resolve maps scored IDs to entries of this generation. See
// EntryStore.Resolve.
func (idx *Index) Resolve(results []types.ScoredEntry, limit int) []Hit {
	return idx.Store().Resolve(results, limit)
}
