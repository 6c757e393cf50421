package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lightspeed/internal/types"
)

func TestFuzzyScorer_SubsequenceMatch(t *testing.T) {
	store := NewEntryStore(recordsFor("report.pdf", "image.png"))
	fs := NewFuzzyScorer(2)

	results, err := fs.Score(context.Background(), store, "rprt", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.EntryID(0), results[0].ID)
	assert.Greater(t, results[0].Score, int64(0))
}

func TestFuzzyScorer_ContiguousRanksHigher(t *testing.T) {
	store := NewEntryStore(recordsFor("r-e-p-o-r-t.txt", "report.txt"))
	fs := NewFuzzyScorer(2)

	results, err := fs.Score(context.Background(), store, "report", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, types.EntryID(1), results[0].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestFuzzyScorer_Threshold(t *testing.T) {
	store := NewEntryStore(recordsFor("report.pdf"))
	fs := NewFuzzyScorer(1)
	ctx := context.Background()

	all, err := fs.Score(ctx, store, "report", 0)
	require.NoError(t, err)
	require.Len(t, all, 1)

	atScore, err := fs.Score(ctx, store, "report", all[0].Score)
	require.NoError(t, err)
	assert.Len(t, atScore, 1, "threshold is inclusive")

	above, err := fs.Score(ctx, store, "report", all[0].Score+1)
	require.NoError(t, err)
	assert.Empty(t, above)
}

func TestFuzzyScorer_MatchesOnPath(t *testing.T) {
	store := NewEntryStore([]types.FileRecord{{Path: "/srv/invoices/2024.csv", Name: "2024.csv"}})
	fs := NewFuzzyScorer(1)

	results, err := fs.Score(context.Background(), store, "invc", 0)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestFuzzyScorer_ManyPartitions(t *testing.T) {
	names := make([]string, 5000)
	for i := range names {
		names[i] = fmt.Sprintf("file-%04d.log", i)
	}
	store := NewEntryStore(recordsFor(names...))
	fs := NewFuzzyScorer(4)

	results, err := fs.Score(context.Background(), store, "file-42", 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	seen := make(map[types.EntryID]bool, len(results))
	for i, r := range results {
		assert.False(t, seen[r.ID], "entry %d reported twice", r.ID)
		seen[r.ID] = true
		if i > 0 {
			prev := results[i-1]
			assert.True(t, prev.Score > r.Score || (prev.Score == r.Score && prev.ID < r.ID))
		}
	}
	assert.True(t, seen[42], "file-0042.log must match")
}

func TestFuzzyScorer_Partition(t *testing.T) {
	fs := NewFuzzyScorer(2)

	assert.Empty(t, fs.partition(0))
	assert.Equal(t, [][2]int{{0, 100}}, fs.partition(100))

	parts := fs.partition(5000)
	require.Len(t, parts, 8)
	next := 0
	for _, p := range parts {
		assert.Equal(t, next, p[0])
		next = p[1]
	}
	assert.Equal(t, 5000, next)
}

func TestFuzzyScorer_Cancelled(t *testing.T) {
	store := NewEntryStore(recordsFor("report.pdf", "notes.txt"))
	fs := NewFuzzyScorer(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fs.Score(ctx, store, "rep", 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFuzzyScorer_EmptyInputs(t *testing.T) {
	fs := NewFuzzyScorer(0)
	assert.Positive(t, fs.Workers())

	results, err := fs.Score(context.Background(), NewEntryStore(nil), "x", 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = fs.Score(context.Background(), NewEntryStore(recordsFor("a")), "", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFuzzyScorer_MultiByteQueries(t *testing.T) {
	store := NewEntryStore(recordsFor("geschäftsbrief 1.tmvx", "résumé.pdf", "notes.txt"))
	fs := NewFuzzyScorer(2)
	ctx := context.Background()

	tests := []struct {
		query string
		want  types.EntryID
	}{
		{"geschäft", 0},
		{"äft", 0},
		{"GESCHÄFT", 0},
		{"résumé", 1},
		{"resume", 1},
		{"rsm", 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := fs.Score(ctx, store, tt.query, 0)
			require.NoError(t, err)
			require.NotEmpty(t, results)
			assert.Equal(t, tt.want, results[0].ID)
		})
	}
}
