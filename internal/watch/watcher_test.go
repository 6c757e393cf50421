package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lightspeed/internal/core"
	"github.com/standardbeagle/lightspeed/internal/scan"
)

func scanBuild(t *testing.T, root string) BuildFunc {
	t.Helper()
	scanner, err := scan.New(scan.Options{ExcludeHidden: true})
	require.NoError(t, err)
	return func(ctx context.Context) (*core.Index, error) {
		res, err := scanner.Scan(ctx, []string{root})
		if err != nil {
			return nil, err
		}
		return core.Build(res.Records, core.DefaultBuildOptions())
	}
}

func newTestWatcher(t *testing.T, root string, onPublish func(*core.Index)) *Watcher {
	t.Helper()
	scanner, err := scan.New(scan.Options{ExcludeHidden: true})
	require.NoError(t, err)

	build := scanBuild(t, root)
	initial, err := build(context.Background())
	require.NoError(t, err)

	w, err := New(Options{
		Roots:     []string{root},
		Debounce:  20 * time.Millisecond,
		Scanner:   scanner,
		Build:     build,
		OnPublish: onPublish,
	}, initial)
	require.NoError(t, err)
	return w
}

func searchNames(t *testing.T, idx *core.Index, query string) []string {
	t.Helper()
	results, err := idx.Search(context.Background(), query, false, 0)
	require.NoError(t, err)
	var names []string
	for _, h := range idx.Resolve(results, 0) {
		names = append(names, h.Entry.Name)
	}
	return names
}

func TestWatcher_RebuildsOnNewFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "report.pdf"), nil, 0o644))

	w := newTestWatcher(t, root, nil)
	before := w.Current()
	require.Equal(t, 1, before.Len())

	require.NoError(t, w.Start(context.Background()))
	defer func() { assert.NoError(t, w.Stop()) }()

	require.NoError(t, os.WriteFile(filepath.Join(root, "reporter.txt"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		return w.Current().Len() == 2
	}, 5*time.Second, 10*time.Millisecond)

	assert.ElementsMatch(t, []string{"report.pdf", "reporter.txt"}, searchNames(t, w.Current(), "report"))
	assert.Equal(t, 1, before.Len(), "the previous generation is never mutated")
	assert.Equal(t, []string{"report.pdf"}, searchNames(t, before, "report"))
	assert.GreaterOrEqual(t, w.Stats().Rebuilds, int64(1))
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root, nil)
	require.NoError(t, w.Start(context.Background()))
	defer func() { assert.NoError(t, w.Stop()) }()

	sub := filepath.Join(root, "projects")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.Eventually(t, func() bool {
		return w.Stats().WatchedDirs == 2
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "budget.xlsx"), nil, 0o644))
	require.Eventually(t, func() bool {
		return len(searchNames(t, w.Current(), "budget")) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_RemovedFileDisappears(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "old.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	w := newTestWatcher(t, root, nil)
	require.NoError(t, w.Start(context.Background()))
	defer func() { assert.NoError(t, w.Stop()) }()

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		return w.Current().Len() == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_ManualRebuildPublishes(t *testing.T) {
	root := t.TempDir()
	var published atomic.Int32
	w := newTestWatcher(t, root, func(*core.Index) { published.Add(1) })
	defer func() { assert.NoError(t, w.Stop()) }()

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), nil, 0o644))
	require.NoError(t, w.Rebuild(context.Background()))

	assert.Equal(t, 1, w.Current().Len())
	assert.Equal(t, int32(1), published.Load())
	assert.False(t, w.Stats().LastRebuild.IsZero())
}

func TestWatcher_FailedRebuildKeepsGeneration(t *testing.T) {
	root := t.TempDir()
	initial, err := core.Build(nil, core.DefaultBuildOptions())
	require.NoError(t, err)

	w, err := New(Options{
		Roots: []string{root},
		Build: func(ctx context.Context) (*core.Index, error) {
			return nil, context.DeadlineExceeded
		},
	}, initial)
	require.NoError(t, err)
	defer func() { assert.NoError(t, w.Stop()) }()

	assert.ErrorIs(t, w.Rebuild(context.Background()), context.DeadlineExceeded)
	assert.Same(t, initial, w.Current())
	assert.Equal(t, int64(1), w.Stats().Failures)
}

func TestNew_RequiresBuild(t *testing.T) {
	_, err := New(Options{Roots: []string{t.TempDir()}}, nil)
	assert.Error(t, err)
}
