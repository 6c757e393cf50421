package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lightspeed/internal/core"
	"github.com/standardbeagle/lightspeed/internal/debug"
	lserrors "github.com/standardbeagle/lightspeed/internal/errors"
	"github.com/standardbeagle/lightspeed/internal/snapshot"
)

// infoReport is the --json shape of info.
type infoReport struct {
	Location     string     `json:"location"`
	Fingerprint  string     `json:"fingerprint"`
	LastUpdated  time.Time  `json:"last_updated"`
	IndexedPaths []string   `json:"indexed_paths"`
	Stats        core.Stats `json:"stats"`
}

func infoCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	out := c.App.Writer
	idx, err := snapshot.Load(cfg.Snapshot.Path)
	if err != nil {
		if lserrors.IsRecoverable(err) {
			debug.LogSnapshot("%v\n", err)
			fmt.Fprintln(out, "No index found. Run `lightspeed index` to create one.")
			return nil
		}
		return err
	}

	report := infoReport{
		Location:     cfg.Snapshot.Path,
		Fingerprint:  strconv.FormatUint(idx.Fingerprint(), 16),
		LastUpdated:  idx.LastUpdated(),
		IndexedPaths: idx.IndexedPaths(),
		Stats:        idx.Stats(),
	}
	if c.Bool("json") {
		return writeJSON(out, report)
	}

	st := report.Stats
	fmt.Fprintln(out, "Index Information")
	fmt.Fprintf(out, "Location: %s\n", report.Location)
	fmt.Fprintf(out, "Total files indexed: %s\n", humanize.Comma(int64(st.Entries)))
	fmt.Fprintf(out, "Last updated: %s (%s)\n",
		report.LastUpdated.Local().Format(timeLayout), humanize.Time(report.LastUpdated))
	fmt.Fprintf(out, "N-gram keys: %s (min length %d, %s postings)\n",
		humanize.Comma(int64(st.NgramKeys)), st.MinGramLen, humanize.Comma(int64(st.NgramPostings)))
	if st.DeletionIndex {
		fmt.Fprintf(out, "Deletion variants: %s (max edit distance %d, %s postings)\n",
			humanize.Comma(int64(st.DeletionKeys)), st.MaxEditDistance, humanize.Comma(int64(st.DeletionPostings)))
	} else {
		fmt.Fprintln(out, "Deletion index: disabled")
	}
	fmt.Fprintln(out, "\nIndexed paths:")
	for _, p := range report.IndexedPaths {
		fmt.Fprintf(out, "  - %s\n", p)
	}
	return nil
}
