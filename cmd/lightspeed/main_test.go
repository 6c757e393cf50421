package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	dataDir  string
	config   string
	snapshot string
}

// setupTestProject creates a small tree and a config that scans it.
func setupTestProject(t *testing.T, extraSearch string) testEnv {
	t.Helper()
	root := t.TempDir()
	data := filepath.Join(root, "data")

	files := []string{
		"report.pdf",
		"notes.txt",
		"archive/report-2024.pdf",
		"archive/image.png",
		".hidden/report.txt",
		"node_modules/pkg/report.js",
	}
	for _, f := range files {
		p := filepath.Join(data, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("content of "+f), 0o644))
	}

	env := testEnv{
		dataDir:  data,
		config:   filepath.Join(root, "lightspeed.kdl"),
		snapshot: filepath.Join(root, "state", "index.lsi"),
	}
	cfg := fmt.Sprintf(`
scan {
    paths %q
}
search {
    %s
}
snapshot {
    path %q
    compression "lz4"
}
`, data, extraSearch, env.snapshot)
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0o644))
	return env
}

func run(t *testing.T, env testEnv, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"lightspeed", "--config", env.config}, args...))
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, env testEnv, args ...string) string {
	t.Helper()
	out, stderr, err := run(t, env, args...)
	require.NoError(t, err, "stderr: %s", stderr)
	return out
}

func TestIndexThenSearch(t *testing.T) {
	env := setupTestProject(t, "")

	out := mustRun(t, env, "index")
	assert.Contains(t, out, "Indexed 4 files")
	assert.Contains(t, out, env.snapshot)
	assert.FileExists(t, env.snapshot)

	out = mustRun(t, env, "search", "REPORT")
	assert.Contains(t, out, "2 results found")
	assert.Contains(t, out, filepath.Join(env.dataDir, "report.pdf"))
	assert.Contains(t, out, filepath.Join(env.dataDir, "archive", "report-2024.pdf"))
	assert.NotContains(t, out, ".hidden")
	assert.NotContains(t, out, "node_modules")
	assert.Contains(t, out, "Index last updated:")
}

func TestSearch_BareQueryDefaultsToSearch(t *testing.T) {
	env := setupTestProject(t, "")
	mustRun(t, env, "index")

	out := mustRun(t, env, "notes")
	assert.Contains(t, out, "1 results found")
	assert.Contains(t, out, "notes.txt")
}

func TestSearch_NoIndex(t *testing.T) {
	env := setupTestProject(t, "")

	out := mustRun(t, env, "search", "report")
	assert.Contains(t, out, "No index found")
}

func TestSearch_CorruptSnapshotIsTreatedAsMissing(t *testing.T) {
	env := setupTestProject(t, "")
	require.NoError(t, os.MkdirAll(filepath.Dir(env.snapshot), 0o755))
	require.NoError(t, os.WriteFile(env.snapshot, []byte("not a snapshot"), 0o644))

	out := mustRun(t, env, "search", "report")
	assert.Contains(t, out, "No index found")
}

func TestSearch_Fuzzy(t *testing.T) {
	env := setupTestProject(t, "")
	mustRun(t, env, "index")

	out := mustRun(t, env, "search", "-f", "imgpng")
	assert.Contains(t, out, filepath.Join(env.dataDir, "archive", "image.png"))

	out = mustRun(t, env, "search", "--symspell", "imge.png")
	assert.Contains(t, out, "1. "+filepath.Join(env.dataDir, "archive", "image.png"))
}

func TestSearch_LimitAndDetails(t *testing.T) {
	env := setupTestProject(t, "")
	mustRun(t, env, "index")

	out := mustRun(t, env, "search", "-n", "1", "--details", "report")
	assert.Contains(t, out, "1. ")
	assert.NotContains(t, out, "2. ")
	assert.Contains(t, out, "... and 1 more results")
	assert.Contains(t, out, "Size: ")
	assert.Contains(t, out, "Modified: ")
}

func TestSearch_JSON(t *testing.T) {
	env := setupTestProject(t, "")
	mustRun(t, env, "index")

	out := mustRun(t, env, "search", "--json", "report")
	var got searchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "report", got.Query)
	assert.Equal(t, 2, got.Total)
	require.Len(t, got.Results, 2)
	for _, r := range got.Results {
		assert.True(t, strings.HasPrefix(r.Name, "report"))
		assert.NotZero(t, r.Size)
	}
	assert.NotNil(t, got.LastUpdated)
}

func TestSearch_LiveScanWithoutIndex(t *testing.T) {
	env := setupTestProject(t, "use_index false")

	out := mustRun(t, env, "search", "report")
	assert.Contains(t, out, "2 results found")
	assert.NotContains(t, out, "Index last updated")
	assert.NoFileExists(t, env.snapshot)
}

func TestSearch_InvalidArguments(t *testing.T) {
	env := setupTestProject(t, "")
	mustRun(t, env, "index")

	_, _, err := run(t, env, "search", "--strategy", "bogus", "-f", "report")
	assert.Error(t, err)

	_, _, err = run(t, env, "search")
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	env := setupTestProject(t, "")

	out := mustRun(t, env, "info")
	assert.Contains(t, out, "No index found")

	mustRun(t, env, "index")
	out = mustRun(t, env, "info")
	assert.Contains(t, out, "Total files indexed: 4")
	assert.Contains(t, out, "Location: "+env.snapshot)
	assert.Contains(t, out, "  - "+env.dataDir)

	out = mustRun(t, env, "info", "--json")
	var report infoReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 4, report.Stats.Entries)
	assert.Equal(t, []string{env.dataDir}, report.IndexedPaths)
}

func TestIndex_ExplicitPathsOverrideConfig(t *testing.T) {
	env := setupTestProject(t, "")

	out := mustRun(t, env, "index", filepath.Join(env.dataDir, "archive"))
	assert.Contains(t, out, "Indexed 2 files")
}

func TestIndex_MissingPath(t *testing.T) {
	env := setupTestProject(t, "")

	_, _, err := run(t, env, "index", filepath.Join(env.dataDir, "does-not-exist"))
	assert.Error(t, err)
}

func TestSnapshotFlagOverridesConfig(t *testing.T) {
	env := setupTestProject(t, "")
	other := filepath.Join(t.TempDir(), "other.lsi")

	mustRun(t, env, "--snapshot", other, "index")
	assert.FileExists(t, other)
	assert.NoFileExists(t, env.snapshot)
}
