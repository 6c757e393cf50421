package scan

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// gitignoreRule is one .gitignore line rewritten as a doublestar pattern
// relative to the scan root.
type gitignoreRule struct {
	glob    string
	negate  bool
	dirOnly bool
}

// gitignore holds the rules of a root's .gitignore. Later rules override
// earlier ones, so a negation re-includes what a previous line excluded.
type gitignore struct {
	rules []gitignoreRule
}

func loadGitignore(root string) (*gitignore, error) {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &gitignore{}, nil
		}
		return nil, err
	}
	defer f.Close()
	return parseGitignore(f)
}

func parseGitignore(r io.Reader) (*gitignore, error) {
	gi := &gitignore{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if rule, ok := parseGitignoreLine(sc.Text()); ok {
			gi.rules = append(gi.rules, rule)
		}
	}
	return gi, sc.Err()
}

func parseGitignoreLine(line string) (gitignoreRule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return gitignoreRule{}, false
	}

	var rule gitignoreRule
	if strings.HasPrefix(line, "!") {
		rule.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		rule.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}

	// A slash anywhere but the end anchors the pattern at the root.
	anchored := strings.Contains(line, "/")
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return gitignoreRule{}, false
	}
	if anchored {
		rule.glob = line
	} else {
		rule.glob = "**/" + line
	}
	if !doublestar.ValidatePattern(rule.glob) {
		return gitignoreRule{}, false
	}
	return rule, true
}

// ignored reports whether rel (slash separated, relative to the root)
// is excluded.
func (gi *gitignore) ignored(rel string, isDir bool) bool {
	if gi == nil {
		return false
	}
	ignored := false
	for _, rule := range gi.rules {
		if rule.dirOnly && !isDir {
			continue
		}
		if matched, _ := doublestar.Match(rule.glob, rel); matched {
			ignored = !rule.negate
		}
	}
	return ignored
}
