package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lightspeed/internal/config"
	"github.com/standardbeagle/lightspeed/internal/version"
)

func init() {
	// -v is taken by --verbose.
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "print the version"}
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, version.FullInfo())
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "lightspeed",
		Usage:                  "Instant file name search over an in-memory index",
		Version:                version.Info(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (default: ./" + config.ProjectConfigFile + ", then the user config directory)",
			},
			&cli.StringFlag{
				Name:    "snapshot",
				Usage:   "Index snapshot path (overrides config)",
				EnvVars: []string{"LIGHTSPEED_SNAPSHOT"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Show timing and scan errors",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "index",
				Aliases:   []string{"i"},
				Usage:     "Scan paths and build the index",
				ArgsUsage: "[paths...]",
				Action:    indexCommand,
			},
			{
				Name:      "search",
				Aliases:   []string{"s"},
				Usage:     "Search indexed file names and paths",
				ArgsUsage: "<query>",
				Flags:     searchFlags(),
				Action:    searchCommand,
			},
			{
				Name:   "info",
				Usage:  "Show index location, size and indexed paths",
				Flags:  []cli.Flag{jsonFlag()},
				Action: infoCommand,
			},
			{
				Name:      "watch",
				Aliases:   []string{"w"},
				Usage:     "Build the index and rebuild it whenever files change",
				ArgsUsage: "[paths...]",
				Action:    watchCommand,
			},
			{
				Name:  "mcp",
				Usage: "Serve the index to MCP clients over stdio",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Build from the configured paths and keep the index current",
					},
					&cli.StringFlag{
						Name:  "log-file",
						Usage: "Write debug logs and warnings to this file (stdio carries the protocol)",
					},
				},
				Action: mcpCommand,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return searchCommand(c)
			}
			return cli.ShowAppHelp(c)
		},
	}
}

// loadConfig loads the configured file and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if p := c.String("snapshot"); p != "" {
		cfg.Snapshot.Path = p
	}
	if c.Bool("verbose") {
		cfg.Search.Verbose = true
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
