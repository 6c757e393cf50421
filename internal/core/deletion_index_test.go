package core

import (
	"math/rand"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lserrors "github.com/standardbeagle/lightspeed/internal/errors"
	"github.com/standardbeagle/lightspeed/internal/types"
)

func TestGenerateDeletions(t *testing.T) {
	tests := []struct {
		name     string
		word     string
		distance int
		want     []string
	}{
		{"distance zero", "test", 0, []string{"test"}},
		{"single deletes", "test", 1, []string{"test", "est", "tst", "tet", "tes"}},
		{"repeated letters collapse", "aaa", 2, []string{"aaa", "aa", "a"}},
		{"exhausts short word", "ab", 3, []string{"ab", "b", "a", ""}},
		{"multi-byte runes", "äb", 1, []string{"äb", "b", "ä"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateDeletions(tt.word, tt.distance)
			assert.Equal(t, tt.word, got[0], "word comes first")
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestGenerateDeletions_ValidUTF8(t *testing.T) {
	for _, v := range GenerateDeletions("geschäftsbrief", 2) {
		assert.True(t, utf8.ValidString(v), "variant %q", v)
	}
}

// Scenario: a one-letter typo against a single entry with K=1.
func TestDeletionIndex_TypoScenario(t *testing.T) {
	store := NewEntryStore(recordsFor("test.txt"))
	di := BuildDeletionIndex(store, 1)

	results := di.SearchFuzzy("tst.txt", 1)
	require.Len(t, results, 1)
	assert.Equal(t, types.EntryID(0), results[0].ID)
	assert.Greater(t, results[0].Score, int64(0))
}

// Querying with any variant of a name finds that name.
func TestDeletionIndex_VariantsResolveToEntry(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	store := NewEntryStore(randomCorpus(rng, 25, 7))
	di := BuildDeletionIndex(store, 2)

	for _, e := range store.All() {
		for _, q := range GenerateDeletions(e.NameLower, 2) {
			if q == "" {
				continue
			}
			assert.Contains(t, idsOf(di.SearchFuzzy(q, 2)), e.ID, "variant %q of %q", q, e.NameLower)
		}
	}
}

func TestDeletionIndex_ExactNameRanksFirst(t *testing.T) {
	store := NewEntryStore(recordsFor("report.pdf", "report.pd", "repor.pdf", "rport.pdf", "image.png"))
	di := BuildDeletionIndex(store, 2)

	results := di.SearchFuzzy("Report.PDF", 2)
	require.NotEmpty(t, results)
	assert.Equal(t, types.EntryID(0), results[0].ID)
	for _, r := range results[1:] {
		assert.Greater(t, results[0].Score, r.Score, "entry %d", r.ID)
	}
	assert.NotContains(t, idsOf(results), types.EntryID(4))
}

func TestDeletionIndex_SortedByScoreThenID(t *testing.T) {
	store := NewEntryStore(recordsFor("notes.md", "notes.md", "nodes.md"))
	di := BuildDeletionIndex(store, 1)

	results := di.SearchFuzzy("notes.md", 1)
	require.Len(t, results, 3)
	assert.Equal(t, []types.EntryID{0, 1, 2}, idsOf(results))
	assert.Equal(t, results[0].Score, results[1].Score)
}

func TestDeletionIndex_Verified(t *testing.T) {
	store := NewEntryStore(recordsFor("abcdef", "abxdef", "xbcdxf"))
	di := BuildDeletionIndex(store, 2)

	verified := di.SearchFuzzyVerified(store, "abcdef", 1)
	assert.ElementsMatch(t, []types.EntryID{0, 1}, idsOf(verified))
}

func TestDeletionIndex_EmptyInputs(t *testing.T) {
	empty := NewEntryStore(nil)
	di := BuildDeletionIndex(empty, 2)
	assert.Empty(t, di.SearchFuzzy("anything", 2))

	store := NewEntryStore(recordsFor("a.txt"))
	assert.Empty(t, BuildDeletionIndex(store, 2).SearchFuzzy("", 2))

	var nilIndex *DeletionIndex
	assert.Empty(t, nilIndex.SearchFuzzy("a.txt", 2))
	assert.Equal(t, 0, nilIndex.KeyCount())
}

func TestDeletionIndex_ClampsDistance(t *testing.T) {
	store := NewEntryStore(recordsFor("abc"))

	assert.Equal(t, types.MaxEditDistanceLimit, BuildDeletionIndex(store, 9).MaxEditDistance())
	assert.Equal(t, 0, BuildDeletionIndex(store, -1).MaxEditDistance())
}

func TestDeletionIndex_ExportRestore(t *testing.T) {
	store := NewEntryStore(recordsFor("test.txt", "best.txt"))
	di := BuildDeletionIndex(store, 1)

	restored, err := RestoreDeletionIndex(1, di.ExportVariants(), store.Len())
	require.NoError(t, err)
	assert.Equal(t, di.SearchFuzzy("tst.txt", 1), restored.SearchFuzzy("tst.txt", 1))

	_, err = RestoreDeletionIndex(1, di.ExportVariants(), 0)
	assert.ErrorIs(t, err, lserrors.ErrIndexMismatch)
}
