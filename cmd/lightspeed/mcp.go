package main

import (
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lightspeed/internal/debug"
	lserrors "github.com/standardbeagle/lightspeed/internal/errors"
	"github.com/standardbeagle/lightspeed/internal/mcp"
	"github.com/standardbeagle/lightspeed/internal/snapshot"
)

// mcpCommand serves the saved index. With --watch, or when no usable
// snapshot exists, it builds from the configured paths and keeps the index
// current instead.
func mcpCommand(c *cli.Context) error {
	// stdout belongs to the protocol from here on
	debug.SetMCPMode(true)
	if p := c.String("log-file"); p != "" {
		if _, err := debug.OpenLogFile(p); err != nil {
			return err
		}
		defer debug.CloseLogFile()
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	var source mcp.Source
	if !c.Bool("watch") {
		idx, err := snapshot.Load(cfg.Snapshot.Path)
		switch {
		case err == nil:
			source = mcp.StaticSource{Index: idx}
		case lserrors.IsRecoverable(err):
			debug.LogMCP("no usable snapshot, building: %v\n", err)
		default:
			return err
		}
	}
	if source == nil {
		w, err := startWatcher(ctx, cfg, cfg.Scan.Paths, nil)
		if err != nil {
			return err
		}
		defer w.Stop()
		source = w
	}

	server, err := mcp.NewServer(source, cfg)
	if err != nil {
		return err
	}
	return server.Start(ctx)
}
