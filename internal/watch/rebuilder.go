package watch

import (
	"context"
	"sync"
	"time"

	"github.com/standardbeagle/lightspeed/internal/debug"
)

const defaultDebounce = 500 * time.Millisecond

// RebuildFunc performs one full rebuild. changed lists the paths whose
// events triggered it; a rebuild may ignore them and rescan everything.
type RebuildFunc func(ctx context.Context, changed []string) error

// DebouncedRebuilder coalesces bursts of change notifications into a
// single rebuild that runs once no new change has arrived for the debounce
// period. At most one rebuild runs at a time.
type DebouncedRebuilder struct {
	rebuild RebuildFunc

	debounceTime time.Duration
	timer        *time.Timer
	mu           sync.Mutex

	pending map[string]struct{}

	// rebuildMu serializes rebuilds and lets Shutdown wait for one in
	// flight.
	rebuildMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	onRebuildComplete func(error)
}

// NewDebouncedRebuilder creates a rebuilder. debounce <= 0 selects the
// default of 500ms.
func NewDebouncedRebuilder(rebuild RebuildFunc, debounce time.Duration) *DebouncedRebuilder {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &DebouncedRebuilder{
		rebuild:      rebuild,
		debounceTime: debounce,
		pending:      make(map[string]struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// ScheduleRebuild records path as changed and restarts the debounce timer.
func (dr *DebouncedRebuilder) ScheduleRebuild(path string) {
	dr.mu.Lock()
	defer dr.mu.Unlock()

	if dr.ctx.Err() != nil {
		return
	}
	dr.pending[path] = struct{}{}
	if dr.timer != nil {
		dr.timer.Stop()
	}
	dr.timer = time.AfterFunc(dr.debounceTime, dr.performRebuild)

	debug.LogIndexing("scheduled rebuild for %s (pending: %d paths)\n", path, len(dr.pending))
}

func (dr *DebouncedRebuilder) performRebuild() {
	dr.rebuildMu.Lock()
	defer dr.rebuildMu.Unlock()

	dr.mu.Lock()
	paths := make([]string, 0, len(dr.pending))
	for p := range dr.pending {
		paths = append(paths, p)
	}
	dr.pending = make(map[string]struct{})
	callback := dr.onRebuildComplete
	dr.mu.Unlock()

	if len(paths) == 0 || dr.ctx.Err() != nil {
		return
	}

	debug.LogIndexing("starting debounced rebuild for %d changed paths\n", len(paths))
	start := time.Now()
	err := dr.rebuild(dr.ctx, paths)
	if err != nil {
		debug.Warnf("rebuild failed: %v\n", err)
	} else {
		debug.LogIndexing("completed debounced rebuild in %v\n", time.Since(start))
	}

	if callback != nil {
		callback(err)
	}
}

// Shutdown stops pending timers, cancels a running rebuild and waits for
// it to return.
func (dr *DebouncedRebuilder) Shutdown() {
	dr.cancel()

	dr.mu.Lock()
	if dr.timer != nil {
		dr.timer.Stop()
	}
	dr.mu.Unlock()

	dr.rebuildMu.Lock()
	//nolint:staticcheck // empty critical section waits for an in-flight rebuild
	dr.rebuildMu.Unlock()
}

// PendingCount returns the number of changed paths awaiting a rebuild.
func (dr *DebouncedRebuilder) PendingCount() int {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	return len(dr.pending)
}

// ForceRebuild runs a rebuild for the pending paths now.
func (dr *DebouncedRebuilder) ForceRebuild() {
	dr.mu.Lock()
	if dr.timer != nil {
		dr.timer.Stop()
	}
	dr.mu.Unlock()

	dr.performRebuild()
}

// SetOnRebuildComplete registers a callback invoked after every rebuild
// with its result.
func (dr *DebouncedRebuilder) SetOnRebuildComplete(callback func(error)) {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	dr.onRebuildComplete = callback
}
