// Package watch keeps an index generation current: filesystem events under
// the indexed roots trigger a debounced full rebuild, and each new
// generation is published atomically. Readers holding the previous
// generation keep using it unchanged.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/lightspeed/internal/core"
	"github.com/standardbeagle/lightspeed/internal/debug"
	"github.com/standardbeagle/lightspeed/internal/scan"
)

// BuildFunc produces a fresh generation from scratch.
type BuildFunc func(ctx context.Context) (*core.Index, error)

// Options configure a Watcher.
type Options struct {
	Roots    []string
	Debounce time.Duration
	// Scanner decides which directories are watched and which events are
	// worth a rebuild. Nil watches everything.
	Scanner *scan.Scanner
	Build   BuildFunc
	// OnPublish is called with every generation after it becomes current.
	OnPublish func(*core.Index)
}

// Stats describes watcher activity.
type Stats struct {
	EventsProcessed int64
	Rebuilds        int64
	Failures        int64
	WatchedDirs     int
	LastRebuild     time.Time
}

// Watcher serves the current generation and replaces it on change.
type Watcher struct {
	opts      Options
	current   atomic.Pointer[core.Index]
	fsw       *fsnotify.Watcher
	rebuilder *DebouncedRebuilder

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	events      atomic.Int64
	rebuilds    atomic.Int64
	failures    atomic.Int64
	watched     atomic.Int64
	lastRebuild atomic.Int64
}

// New creates a Watcher serving initial. Nothing is watched until Start.
func New(opts Options, initial *core.Index) (*Watcher, error) {
	if opts.Build == nil {
		return nil, errors.New("watch: build function is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	roots := make([]string, 0, len(opts.Roots))
	for _, r := range opts.Roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
		roots = append(roots, abs)
	}
	opts.Roots = roots

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		opts:   opts,
		fsw:    fsw,
		ctx:    ctx,
		cancel: cancel,
	}
	w.rebuilder = NewDebouncedRebuilder(w.rebuild, opts.Debounce)
	if initial != nil {
		w.current.Store(initial)
	}
	return w, nil
}

// Current returns the generation to query. It never blocks.
func (w *Watcher) Current() *core.Index {
	return w.current.Load()
}

// Start adds watches for every root and begins processing events.
func (w *Watcher) Start(ctx context.Context) error {
	for _, root := range w.opts.Roots {
		if err := w.addWatches(ctx, root); err != nil {
			return fmt.Errorf("failed to add watches starting from %s: %w", root, err)
		}
	}

	w.wg.Add(1)
	go w.processEvents()

	debug.LogIndexing("watching %d directories under %d roots\n", w.watched.Load(), len(w.opts.Roots))
	return nil
}

// Stop ends event processing and waits for a running rebuild to finish.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.fsw.Close()
	w.wg.Wait()
	w.rebuilder.Shutdown()
	return err
}

// Rebuild runs a rebuild immediately, bypassing the debounce.
func (w *Watcher) Rebuild(ctx context.Context) error {
	return w.rebuild(ctx, nil)
}

// SetOnRebuildComplete registers a callback invoked after every debounced
// rebuild.
func (w *Watcher) SetOnRebuildComplete(callback func(error)) {
	w.rebuilder.SetOnRebuildComplete(callback)
}

// Stats returns activity counters.
func (w *Watcher) Stats() Stats {
	var last time.Time
	if ns := w.lastRebuild.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	return Stats{
		EventsProcessed: w.events.Load(),
		Rebuilds:        w.rebuilds.Load(),
		Failures:        w.failures.Load(),
		WatchedDirs:     int(w.watched.Load()),
		LastRebuild:     last,
	}
}

func (w *Watcher) rebuild(ctx context.Context, changed []string) error {
	idx, err := w.opts.Build(ctx)
	if err != nil {
		w.failures.Add(1)
		return err
	}
	w.current.Store(idx)
	w.rebuilds.Add(1)
	w.lastRebuild.Store(time.Now().UnixNano())
	debug.LogIndexing("published generation %016x (%d entries, %d changed paths)\n",
		idx.Fingerprint(), idx.Len(), len(changed))
	if w.opts.OnPublish != nil {
		w.opts.OnPublish(idx)
	}
	return nil
}

func (w *Watcher) addWatches(ctx context.Context, root string) error {
	var (
		dirs []string
		err  error
	)
	if w.opts.Scanner != nil {
		dirs, err = w.opts.Scanner.Dirs(ctx, root)
	} else {
		dirs, err = allDirs(root)
	}
	if err != nil {
		return err
	}

	for _, dir := range dirs {
		if err := w.fsw.Add(dir); err != nil {
			debug.Warnf("failed to add watch for %s: %v\n", dir, err)
			continue
		}
		w.watched.Add(1)
	}
	return nil
}

func allDirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			debug.Warnf("file watcher error: %v\n", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	path := event.Name
	root := w.rootOf(path)
	if root == "" {
		return
	}

	info, statErr := os.Stat(path)
	isDir := statErr == nil && info.IsDir()
	if w.opts.Scanner != nil && w.opts.Scanner.Excluded(root, path, isDir) {
		return
	}

	if isDir && event.Op&fsnotify.Create != 0 {
		if err := w.addWatches(w.ctx, path); err != nil {
			debug.Warnf("failed to watch new directory %s: %v\n", path, err)
		}
	}

	w.events.Add(1)
	debug.LogIndexing("watch event %v for %s\n", event.Op, path)
	w.rebuilder.ScheduleRebuild(path)
}

// rootOf returns the watched root containing path.
func (w *Watcher) rootOf(path string) string {
	for _, root := range w.opts.Roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return root
		}
	}
	return ""
}
