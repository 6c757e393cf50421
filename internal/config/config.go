package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/standardbeagle/lightspeed/internal/types"
)

// File names looked up when no explicit config path is given.
const (
	ProjectConfigFile = ".lightspeed.kdl"
	UserConfigFile    = "config.kdl"
	LegacyConfigFile  = "config.toml"
	appDirName        = "lightspeed"
	snapshotFileName  = "index.lsi"
)

// Snapshot compression names accepted in configuration.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
)

type Config struct {
	Index    Index
	Search   Search
	Scan     Scan
	Snapshot Snapshot
	Watch    Watch

	// Source is the file the config was read from, empty for defaults.
	Source string
}

// Index holds the parameters that shape a built generation.
type Index struct {
	MinGramLen      int
	MaxEditDistance int
	DeletionIndex   bool
}

type Search struct {
	MaxResults     int
	FuzzyThreshold int64
	FuzzyStrategy  types.FuzzyStrategy
	ShowDetails    bool
	Verbose        bool
	// UseIndex answers queries from the snapshot. When false every search
	// walks the configured paths and matches names linearly.
	UseIndex bool
}

type Scan struct {
	Paths            []string
	Ignore           []string
	MaxDepth         int
	ExcludeHidden    bool
	FollowSymlinks   bool
	RespectGitignore bool
}

type Snapshot struct {
	Path        string
	Compression string
}

type Watch struct {
	DebounceMs int
}

// Debounce returns the watch debounce as a duration.
func (w Watch) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Index: Index{
			MinGramLen:      types.DefaultMinGramLen,
			MaxEditDistance: types.DefaultMaxEditDistance,
			DeletionIndex:   true,
		},
		Search: Search{
			MaxResults:     types.DefaultMaxResults,
			FuzzyThreshold: types.DefaultFuzzyThreshold,
			FuzzyStrategy:  types.FuzzyParallel,
			UseIndex:       true,
		},
		Scan: Scan{
			Paths:         defaultPaths(),
			Ignore:        DefaultIgnorePatterns(),
			MaxDepth:      types.DefaultMaxDepth,
			ExcludeHidden: true,
		},
		Snapshot: Snapshot{
			Path:        DefaultSnapshotPath(),
			Compression: CompressionZstd,
		},
		Watch: Watch{
			DebounceMs: 500,
		},
	}
}

// DefaultIgnorePatterns are directory names skipped by every scan unless
// the config replaces the list.
func DefaultIgnorePatterns() []string {
	return []string{
		"node_modules",
		".git",
		"target",
		".cache",
		"__pycache__",
		".npm",
		".cargo",
		"venv",
		".venv",
	}
}

func defaultPaths() []string {
	if wd, err := os.Getwd(); err == nil {
		return []string{wd}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return []string{home}
	}
	return []string{"."}
}

// DefaultSnapshotPath is $XDG_DATA_HOME/lightspeed/index.lsi, falling back
// to ~/.local/share when XDG_DATA_HOME is unset.
func DefaultSnapshotPath() string {
	return filepath.Join(dataDir(), appDirName, snapshotFileName)
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return os.TempDir()
}

// UserConfigDir is $XDG_CONFIG_HOME/lightspeed or its platform equivalent.
func UserConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDirName)
	}
	return ""
}
