package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/lightspeed/internal/debug"
	"github.com/standardbeagle/lightspeed/internal/types"
)

// Load reads configuration from path. With an empty path it tries
// .lightspeed.kdl in the working directory, then the user config directory
// (config.kdl, then the legacy config.toml). No file at all yields defaults.
// The result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		cfg := Default()
		return cfg, Validate(cfg)
	}

	var (
		cfg *Config
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		cfg, err = LoadLegacyTOML(path)
	} else {
		cfg, err = LoadKDL(path)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	candidates := []string{ProjectConfigFile}
	if dir := UserConfigDir(); dir != "" {
		candidates = append(candidates,
			filepath.Join(dir, UserConfigFile),
			filepath.Join(dir, LegacyConfigFile))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// LoadKDL parses a KDL config file. Relative scan paths and the snapshot
// path are resolved against the file's directory.
func LoadKDL(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Source = path
	resolveRelative(cfg, filepath.Dir(path))
	return cfg, nil
}

func resolveRelative(cfg *Config, base string) {
	for i, p := range cfg.Scan.Paths {
		if !filepath.IsAbs(p) {
			cfg.Scan.Paths[i] = filepath.Clean(filepath.Join(base, p))
		}
	}
	if cfg.Snapshot.Path != "" && !filepath.IsAbs(cfg.Snapshot.Path) {
		cfg.Snapshot.Path = filepath.Clean(filepath.Join(base, cfg.Snapshot.Path))
	}
}

func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "index":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "min_gram_len":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.MinGramLen = v
					}
				case "max_edit_distance":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.MaxEditDistance = v
					}
				case "deletion_index":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Index.DeletionIndex = b
					}
				default:
					warnUnknown("index", cn)
				}
			}
		case "search":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_results":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.MaxResults = v
					}
				case "fuzzy_threshold":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.FuzzyThreshold = int64(v)
					}
				case "fuzzy_strategy":
					if s, ok := firstStringArg(cn); ok {
						cfg.Search.FuzzyStrategy = types.FuzzyStrategy(strings.ToLower(s))
					}
				case "show_details":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.ShowDetails = b
					}
				case "verbose":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.Verbose = b
					}
				case "use_index":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.UseIndex = b
					}
				default:
					warnUnknown("search", cn)
				}
			}
		case "scan":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "paths":
					cfg.Scan.Paths = collectStringArgs(cn)
				case "ignore":
					cfg.Scan.Ignore = collectStringArgs(cn)
				case "max_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Scan.MaxDepth = v
					}
				case "exclude_hidden":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Scan.ExcludeHidden = b
					}
				case "follow_symlinks":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Scan.FollowSymlinks = b
					}
				case "respect_gitignore":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Scan.RespectGitignore = b
					}
				default:
					warnUnknown("scan", cn)
				}
			}
		case "snapshot":
			for _, cn := range n.Children {
				assignSimpleString(cn, "path", func(v string) { cfg.Snapshot.Path = v })
				assignSimpleString(cn, "compression", func(v string) { cfg.Snapshot.Compression = strings.ToLower(v) })
			}
		case "watch":
			for _, cn := range n.Children {
				if nodeName(cn) == "debounce_ms" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		default:
			debug.Warnf("ignoring unknown config section %q\n", nodeName(n))
		}
	}

	return cfg, nil
}

func warnUnknown(section string, n *document.Node) {
	debug.Warnf("ignoring unknown setting %s.%s\n", section, nodeName(n))
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		debug.Warnf("invalid integer for %q in KDL config, got %T\n", nodeName(n), v)
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// collectStringArgs accepts both the inline form (ignore "a" "b") and the
// block form (ignore { "a"; "b" }).
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// IsNotExist reports whether err came from a missing config file.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
