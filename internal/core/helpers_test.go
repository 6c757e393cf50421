package core

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lightspeed/internal/types"
)

var testModTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

// recordsFor builds one record per name under /data.
func recordsFor(names ...string) []types.FileRecord {
	records := make([]types.FileRecord, len(names))
	for i, name := range names {
		records[i] = types.FileRecord{
			Path:     "/data/" + name,
			Name:     name,
			Size:     uint64(100 * (i + 1)),
			Modified: testModTime,
		}
	}
	return records
}

func buildTestIndex(t *testing.T, opts BuildOptions, names ...string) *Index {
	t.Helper()
	idx, err := Build(recordsFor(names...), opts)
	require.NoError(t, err)
	return idx
}

// randomCorpus generates names over an alphabet that mixes ASCII with
// multi-byte letters, placed in a few directories.
func randomCorpus(rng *rand.Rand, n, maxLen int) []types.FileRecord {
	alphabet := []rune("abcdeäöüßé._- 1")
	dirs := []string{"/home/ana", "/srv/Ünïcode", "/tmp"}
	records := make([]types.FileRecord, n)
	for i := range records {
		length := 1 + rng.Intn(maxLen)
		var sb strings.Builder
		for j := 0; j < length; j++ {
			sb.WriteRune(alphabet[rng.Intn(len(alphabet))])
		}
		name := sb.String()
		records[i] = types.FileRecord{
			Path:     dirs[rng.Intn(len(dirs))] + "/" + name,
			Name:     name,
			Size:     uint64(rng.Intn(1 << 20)),
			Modified: testModTime,
		}
	}
	return records
}

// substringsUpTo returns every rune substring of s with length <= maxLen.
func substringsUpTo(s string, maxLen int) []string {
	runes := []rune(s)
	var out []string
	for i := range runes {
		for j := i + 1; j <= len(runes) && j-i <= maxLen; j++ {
			out = append(out, string(runes[i:j]))
		}
	}
	return out
}

func idsOf(results []types.ScoredEntry) []types.EntryID {
	ids := make([]types.EntryID, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}
