// Package scan walks directory trees and produces the file records an
// index is built from.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/lightspeed/internal/config"
	"github.com/standardbeagle/lightspeed/internal/debug"
	lserrors "github.com/standardbeagle/lightspeed/internal/errors"
	"github.com/standardbeagle/lightspeed/internal/types"
)

// Options control what a scan visits.
type Options struct {
	// MaxDepth limits how many directory levels below a root are entered.
	// 0 means unlimited.
	MaxDepth int
	// ExcludeHidden skips files and directories whose name starts with a dot.
	ExcludeHidden bool
	// FollowSymlinks indexes symlinks that resolve to regular files.
	// Symlinked directories are never entered.
	FollowSymlinks bool
	// RespectGitignore applies the .gitignore found at each root.
	RespectGitignore bool
	// Ignore patterns are matched against the path relative to its root.
	// Patterns with glob metacharacters use doublestar syntax; plain
	// patterns match as substrings.
	Ignore []string
}

// OptionsFromConfig maps the scan section of the config.
func OptionsFromConfig(c config.Scan) Options {
	return Options{
		MaxDepth:         c.MaxDepth,
		ExcludeHidden:    c.ExcludeHidden,
		FollowSymlinks:   c.FollowSymlinks,
		RespectGitignore: c.RespectGitignore,
		Ignore:           c.Ignore,
	}
}

// Result is the outcome of one scan.
type Result struct {
	Records []types.FileRecord
	// Roots are the absolute roots that existed and were walked.
	Roots []string
	// Errors collects paths that could not be read. They do not stop the
	// scan.
	Errors   []error
	Duration time.Duration
}

// Scanner walks roots according to its options. It holds no per-scan
// state and may be reused.
type Scanner struct {
	opts       Options
	globs      []string
	substrings []string
}

// New validates the ignore patterns and returns a Scanner.
func New(opts Options) (*Scanner, error) {
	s := &Scanner{opts: opts}
	for _, p := range opts.Ignore {
		if p == "" {
			continue
		}
		if !strings.ContainsAny(p, "*?[{") {
			s.substrings = append(s.substrings, p)
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, lserrors.NewConfigError("scan.ignore", p, doublestar.ErrBadPattern)
		}
		s.globs = append(s.globs, p)
	}
	return s, nil
}

// Scan walks every root in order. A root that does not exist is reported
// in Result.Errors and skipped. Only context cancellation aborts the scan.
func (s *Scanner) Scan(ctx context.Context, roots []string) (*Result, error) {
	start := time.Now()
	res := &Result{}

	debug.LogScan("scanning %v with %s\n", roots, s.opts)

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			res.Errors = append(res.Errors, lserrors.NewScanError(root, err))
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			debug.Warnf("path does not exist: %s\n", abs)
			res.Errors = append(res.Errors, lserrors.NewScanError(abs, err))
			continue
		}
		if !info.IsDir() {
			res.Roots = append(res.Roots, abs)
			if info.Mode().IsRegular() {
				res.Records = append(res.Records, recordFor(abs, info))
			}
			continue
		}

		res.Roots = append(res.Roots, abs)
		if err := s.walkRoot(ctx, abs, res); err != nil {
			return nil, err
		}
	}

	res.Duration = time.Since(start)
	debug.LogScan("scanned %d roots: %d files, %d errors in %v\n",
		len(res.Roots), len(res.Records), len(res.Errors), res.Duration)
	return res, nil
}

func (s *Scanner) walkRoot(ctx context.Context, root string, res *Result) error {
	var gi *gitignore
	if s.opts.RespectGitignore {
		var err error
		if gi, err = loadGitignore(root); err != nil {
			res.Errors = append(res.Errors, lserrors.NewScanError(filepath.Join(root, ".gitignore"), err))
		}
	}

	visited := 0
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		visited++
		if visited&255 == 0 {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
		}
		if err != nil {
			debug.LogScan("skipping %s: %v\n", path, err)
			res.Errors = append(res.Errors, lserrors.NewScanError(path, err))
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if s.excluded(d.Name(), rel, d.IsDir(), gi) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if s.opts.MaxDepth > 0 && strings.Count(rel, "/")+1 >= s.opts.MaxDepth {
				return fs.SkipDir
			}
			return nil
		}

		info, ok := s.fileInfo(path, d)
		if !ok {
			return nil
		}
		res.Records = append(res.Records, recordFor(path, info))
		return nil
	})
}

// excluded applies hidden, ignore and gitignore rules to one entry.
func (s *Scanner) excluded(name, rel string, isDir bool, gi *gitignore) bool {
	if s.opts.ExcludeHidden && strings.HasPrefix(name, ".") {
		return true
	}
	for _, sub := range s.substrings {
		if strings.Contains(rel, sub) {
			return true
		}
	}
	for _, g := range s.globs {
		if matched, _ := doublestar.Match(g, rel); matched {
			return true
		}
	}
	return gi.ignored(rel, isDir)
}

// fileInfo returns the info of a regular file, resolving symlinks when
// allowed. Anything else is skipped.
func (s *Scanner) fileInfo(path string, d fs.DirEntry) (fs.FileInfo, bool) {
	if d.Type()&fs.ModeSymlink != 0 {
		if !s.opts.FollowSymlinks {
			return nil, false
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return nil, false
		}
		return info, true
	}
	if !d.Type().IsRegular() {
		return nil, false
	}
	info, err := d.Info()
	if err != nil {
		return nil, false
	}
	return info, true
}

func recordFor(path string, info fs.FileInfo) types.FileRecord {
	return types.FileRecord{
		Path:     path,
		Name:     filepath.Base(path),
		Size:     uint64(max(info.Size(), 0)),
		Modified: info.ModTime().UTC(),
	}
}

// String describes the options for log output.
func (o Options) String() string {
	return fmt.Sprintf("depth=%d hidden=%v symlinks=%v gitignore=%v ignore=%d",
		o.MaxDepth, !o.ExcludeHidden, o.FollowSymlinks, o.RespectGitignore, len(o.Ignore))
}

// Excluded reports whether path, which lies under root, would be skipped
// by the hidden and ignore rules. .gitignore rules are not consulted.
func (s *Scanner) Excluded(root, path string, isDir bool) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	return s.excluded(filepath.Base(path), rel, isDir, nil)
}

// Dirs returns root and every directory below it that a scan would enter.
func (s *Scanner) Dirs(ctx context.Context, root string) ([]string, error) {
	var gi *gitignore
	if s.opts.RespectGitignore {
		gi, _ = loadGitignore(root)
	}

	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil || !d.IsDir() {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if path == root {
			dirs = append(dirs, path)
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return fs.SkipDir
		}
		rel = filepath.ToSlash(rel)
		if s.excluded(d.Name(), rel, true, gi) {
			return fs.SkipDir
		}
		if s.opts.MaxDepth > 0 && strings.Count(rel, "/")+1 >= s.opts.MaxDepth {
			return fs.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}
