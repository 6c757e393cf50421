package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lightspeed/internal/config"
	"github.com/standardbeagle/lightspeed/internal/core"
	lserrors "github.com/standardbeagle/lightspeed/internal/errors"
	"github.com/standardbeagle/lightspeed/internal/scan"
	"github.com/standardbeagle/lightspeed/internal/snapshot"
)

func indexCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	paths := rootsFor(c, cfg)

	ctx, stop := signalContext()
	defer stop()

	sc, err := scan.New(scan.OptionsFromConfig(cfg.Scan))
	if err != nil {
		return err
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Building file index for %s...\n", strings.Join(paths, ", "))
	idx, res, err := buildIndex(ctx, sc, cfg, paths)
	if err != nil {
		return err
	}
	reportScanErrors(c, cfg, res)

	if err := saveIndex(cfg, idx); err != nil {
		return err
	}

	fmt.Fprintf(out, "Indexed %s files in %v\n", humanize.Comma(int64(idx.Len())), res.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "Index saved to: %s\n", cfg.Snapshot.Path)
	return nil
}

func rootsFor(c *cli.Context, cfg *config.Config) []string {
	if c.NArg() > 0 {
		return c.Args().Slice()
	}
	return cfg.Scan.Paths
}

func buildOptions(cfg *config.Config) core.BuildOptions {
	return core.BuildOptions{
		MinGramLen:      cfg.Index.MinGramLen,
		MaxEditDistance: cfg.Index.MaxEditDistance,
		DeletionIndex:   cfg.Index.DeletionIndex,
	}
}

// buildIndex scans paths and builds a generation over the records found.
// It fails only when no root could be walked at all.
func buildIndex(ctx context.Context, sc *scan.Scanner, cfg *config.Config, paths []string) (*core.Index, *scan.Result, error) {
	res, err := sc.Scan(ctx, paths)
	if err != nil {
		return nil, nil, err
	}
	if len(res.Roots) == 0 {
		if err := lserrors.NewMultiError(res.Errors); err != nil {
			return nil, res, fmt.Errorf("nothing to index: %w", err)
		}
		return nil, res, errors.New("nothing to index: no paths given")
	}

	opts := buildOptions(cfg)
	opts.IndexedPaths = res.Roots
	idx, err := core.Build(res.Records, opts)
	if err != nil {
		return nil, res, err
	}
	return idx, res, nil
}

func saveIndex(cfg *config.Config, idx *core.Index) error {
	compression, err := snapshot.ParseCompression(cfg.Snapshot.Compression)
	if err != nil {
		return lserrors.NewConfigError("snapshot.compression", cfg.Snapshot.Compression, err)
	}
	return snapshot.Save(cfg.Snapshot.Path, idx, snapshot.Options{Compression: compression})
}

func reportScanErrors(c *cli.Context, cfg *config.Config, res *scan.Result) {
	if len(res.Errors) == 0 {
		return
	}
	w := c.App.ErrWriter
	if !cfg.Search.Verbose {
		fmt.Fprintf(w, "Skipped %d unreadable paths (use --verbose to list them)\n", len(res.Errors))
		return
	}
	for _, err := range res.Errors {
		fmt.Fprintf(w, "Error accessing entry: %v\n", err)
	}
}
