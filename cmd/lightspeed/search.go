package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lightspeed/internal/config"
	"github.com/standardbeagle/lightspeed/internal/core"
	"github.com/standardbeagle/lightspeed/internal/debug"
	lserrors "github.com/standardbeagle/lightspeed/internal/errors"
	"github.com/standardbeagle/lightspeed/internal/scan"
	"github.com/standardbeagle/lightspeed/internal/snapshot"
	"github.com/standardbeagle/lightspeed/internal/types"
)

const timeLayout = "2006-01-02 15:04:05"

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "json",
		Aliases: []string{"j"},
		Usage:   "Output as JSON",
	}
}

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "fuzzy",
			Aliases: []string{"f"},
			Usage:   "Approximate matching (tolerates typos and skipped characters)",
		},
		&cli.Int64Flag{
			Name:    "threshold",
			Aliases: []string{"t"},
			Usage:   "Minimum fuzzy score (default from config)",
		},
		&cli.StringFlag{
			Name:  "strategy",
			Usage: "Fuzzy strategy: parallel, symspell or hybrid (default from config)",
		},
		&cli.BoolFlag{
			Name:  "symspell",
			Usage: "Fuzzy search using the deletion index only (implies --fuzzy)",
		},
		&cli.IntFlag{
			Name:  "max-distance",
			Usage: "Edit distance bound for deletion-index lookups (0 = as built)",
		},
		&cli.BoolFlag{
			Name:  "verify",
			Usage: "Drop deletion-index candidates beyond the edit distance bound",
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Maximum results shown (default from config)",
		},
		&cli.BoolFlag{
			Name:  "details",
			Usage: "Show size and modification time",
		},
		jsonFlag(),
	}
}

// searchOutput is the --json shape.
type searchOutput struct {
	Query       string       `json:"query"`
	Fuzzy       bool         `json:"fuzzy"`
	Total       int          `json:"total"`
	Results     []resultJSON `json:"results"`
	LastUpdated *time.Time   `json:"last_updated,omitempty"`
}

type resultJSON struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Size     uint64    `json:"size"`
	Modified time.Time `json:"modified"`
	Score    int64     `json:"score"`
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return errors.New("search requires a query")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	req, err := searchRequest(c, cfg, query)
	if err != nil {
		return err
	}
	limit := cfg.Search.MaxResults
	if c.IsSet("limit") {
		limit = c.Int("limit")
	}

	ctx, stop := signalContext()
	defer stop()

	start := time.Now()
	var (
		hits        []core.Hit
		total       int
		lastUpdated time.Time
	)
	if cfg.Search.UseIndex {
		idx, err := snapshot.Load(cfg.Snapshot.Path)
		if err != nil {
			if lserrors.IsRecoverable(err) {
				debug.LogSnapshot("%v\n", err)
				fmt.Fprintln(c.App.Writer, "No index found. Run `lightspeed index` first to build the index.")
				return nil
			}
			return err
		}
		results, err := idx.SearchWith(ctx, req)
		if err != nil {
			return err
		}
		total = len(results)
		hits = idx.Resolve(results, limit)
		lastUpdated = idx.LastUpdated()
	} else {
		hits, total, err = liveSearch(ctx, cfg, req, limit)
		if err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	if c.Bool("json") {
		return writeJSON(c.App.Writer, toSearchOutput(req, hits, total, lastUpdated))
	}

	details := cfg.Search.ShowDetails || c.Bool("details")
	printResults(c.App.Writer, query, hits, total, details, lastUpdated)
	if cfg.Search.Verbose {
		fmt.Fprintf(c.App.ErrWriter, "%s search took %v\n", describe(req), elapsed)
	}
	return nil
}

func searchRequest(c *cli.Context, cfg *config.Config, query string) (core.SearchRequest, error) {
	req := core.SearchRequest{
		Query:       query,
		Fuzzy:       c.Bool("fuzzy"),
		Threshold:   cfg.Search.FuzzyThreshold,
		Strategy:    cfg.Search.FuzzyStrategy,
		MaxDistance: c.Int("max-distance"),
		Verify:      c.Bool("verify"),
	}
	if c.IsSet("threshold") {
		req.Threshold = c.Int64("threshold")
	}
	if s := c.String("strategy"); s != "" {
		req.Strategy = types.FuzzyStrategy(s)
		if !req.Strategy.Valid() {
			return req, lserrors.NewConfigError("strategy", s, errors.New("expected parallel, symspell or hybrid"))
		}
	}
	if c.Bool("symspell") {
		req.Fuzzy = true
		req.Strategy = types.FuzzySymSpell
	}
	if req.MaxDistance < 0 {
		return req, lserrors.NewConfigError("max-distance", fmt.Sprint(req.MaxDistance), errors.New("must not be negative"))
	}
	return req, nil
}

// liveSearch walks the configured paths and matches without an index,
// substring matches through LinearSearch and fuzzy ones through the
// parallel scorer.
func liveSearch(ctx context.Context, cfg *config.Config, req core.SearchRequest, limit int) ([]core.Hit, int, error) {
	sc, err := scan.New(scan.OptionsFromConfig(cfg.Scan))
	if err != nil {
		return nil, 0, err
	}
	res, err := sc.Scan(ctx, cfg.Scan.Paths)
	if err != nil {
		return nil, 0, err
	}
	store := core.NewEntryStore(res.Records)

	var results []types.ScoredEntry
	if req.Fuzzy {
		results, err = core.NewFuzzyScorer(0).Score(ctx, store, req.Query, req.Threshold)
		if err != nil {
			return nil, 0, err
		}
	} else {
		for _, id := range core.LinearSearch(store, req.Query) {
			results = append(results, types.ScoredEntry{ID: id, Score: types.MaxScore})
		}
	}
	return store.Resolve(results, limit), len(results), nil
}

func describe(req core.SearchRequest) string {
	if !req.Fuzzy {
		return "substring"
	}
	if req.Strategy == "" {
		return types.FuzzyParallel.String()
	}
	return req.Strategy.String()
}

func printResults(w io.Writer, query string, hits []core.Hit, total int, details bool, lastUpdated time.Time) {
	fmt.Fprintf(w, "Searching for '%s'...\n", query)
	if total == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "\n%s results found:\n\n", humanize.Comma(int64(total)))
	for i, h := range hits {
		fmt.Fprintf(w, "%d. %s\n", i+1, h.Entry.Path)
		if details {
			fmt.Fprintf(w, "   Size: %s | Modified: %s\n",
				humanize.IBytes(h.Entry.Size), h.Entry.Modified.Local().Format(timeLayout))
		}
	}
	if total > len(hits) {
		fmt.Fprintf(w, "\n... and %s more results (use --limit or max_results to see more)\n",
			humanize.Comma(int64(total-len(hits))))
	}
	if !lastUpdated.IsZero() {
		fmt.Fprintf(w, "\nIndex last updated: %s (%s)\n",
			lastUpdated.Local().Format(timeLayout), humanize.Time(lastUpdated))
	}
}

func toSearchOutput(req core.SearchRequest, hits []core.Hit, total int, lastUpdated time.Time) searchOutput {
	out := searchOutput{
		Query:   req.Query,
		Fuzzy:   req.Fuzzy,
		Total:   total,
		Results: make([]resultJSON, len(hits)),
	}
	for i, h := range hits {
		out.Results[i] = resultJSON{
			Path:     h.Entry.Path,
			Name:     h.Entry.Name,
			Size:     h.Entry.Size,
			Modified: h.Entry.Modified,
			Score:    h.Score,
		}
	}
	if !lastUpdated.IsZero() {
		out.LastUpdated = &lastUpdated
	}
	return out
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
