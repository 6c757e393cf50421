package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lightspeed/internal/config"
	"github.com/standardbeagle/lightspeed/internal/core"
	"github.com/standardbeagle/lightspeed/internal/debug"
	"github.com/standardbeagle/lightspeed/internal/scan"
	"github.com/standardbeagle/lightspeed/internal/watch"
)

func watchCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	out := c.App.Writer
	w, err := startWatcher(ctx, cfg, rootsFor(c, cfg), func(idx *core.Index) {
		fmt.Fprintf(out, "Reindexed %s files\n", humanize.Comma(int64(idx.Len())))
	})
	if err != nil {
		return err
	}
	defer w.Stop()

	initial := w.Current()
	fmt.Fprintf(out, "Indexed %s files, watching %d paths. Press Ctrl+C to stop.\n",
		humanize.Comma(int64(initial.Len())), len(initial.IndexedPaths()))

	<-ctx.Done()
	st := w.Stats()
	debug.LogIndexing("watch stopped: %d events, %d rebuilds, %d failures\n", st.EventsProcessed, st.Rebuilds, st.Failures)
	return nil
}

// startWatcher builds and saves an initial generation, then keeps it
// current. A rebuilt generation is written to the snapshot before it is
// published, so onPublish always sees a file that matches. A failed save is
// logged and the generation is published anyway; the file keeps the
// previous generation.
func startWatcher(ctx context.Context, cfg *config.Config, paths []string, onPublish func(*core.Index)) (*watch.Watcher, error) {
	sc, err := scan.New(scan.OptionsFromConfig(cfg.Scan))
	if err != nil {
		return nil, err
	}
	build := func(ctx context.Context) (*core.Index, error) {
		idx, _, err := buildIndex(ctx, sc, cfg, paths)
		return idx, err
	}

	initial, err := build(ctx)
	if err != nil {
		return nil, err
	}
	if err := saveIndex(cfg, initial); err != nil {
		return nil, err
	}

	w, err := watch.New(watch.Options{
		Roots:    initial.IndexedPaths(),
		Debounce: cfg.Watch.Debounce(),
		Scanner:  sc,
		Build: func(ctx context.Context) (*core.Index, error) {
			idx, err := build(ctx)
			if err != nil {
				return nil, err
			}
			if err := saveIndex(cfg, idx); err != nil {
				debug.Warnf("failed to save rebuilt index: %v\n", err)
			}
			return idx, nil
		},
		OnPublish: onPublish,
	}, initial)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return nil, err
	}
	return w, nil
}
