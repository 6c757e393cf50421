package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// legacySearch mirrors the [search] table of the older config.toml layout.
// Other tables in that file belong to unrelated tools and are ignored.
type legacySearch struct {
	DefaultPaths   []string `toml:"default_paths"`
	IgnorePatterns []string `toml:"ignore_patterns"`
	MaxDepth       int      `toml:"max_depth"`
	MaxResults     int      `toml:"max_results"`
	ShowDetails    bool     `toml:"show_details"`
	Verbose        bool     `toml:"verbose"`
	ExcludeHidden  bool     `toml:"exclude_hidden"`
	LightspeedMode bool     `toml:"lightspeed_mode"`
	FuzzyThreshold int64    `toml:"fuzzy_threshold"`
}

type legacyFile struct {
	Search legacySearch `toml:"search"`
}

// LoadLegacyTOML imports the [search] table of a config.toml onto the
// defaults. Settings the old format has no key for keep their defaults.
func LoadLegacyTOML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg, err := parseLegacyTOML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

func parseLegacyTOML(data []byte) (*Config, error) {
	cfg := Default()

	// Prefill so absent keys keep their default values.
	file := legacyFile{Search: legacySearch{
		DefaultPaths:   cfg.Scan.Paths,
		IgnorePatterns: cfg.Scan.Ignore,
		MaxDepth:       cfg.Scan.MaxDepth,
		MaxResults:     cfg.Search.MaxResults,
		ShowDetails:    cfg.Search.ShowDetails,
		Verbose:        cfg.Search.Verbose,
		ExcludeHidden:  cfg.Scan.ExcludeHidden,
		LightspeedMode: cfg.Search.UseIndex,
		FuzzyThreshold: cfg.Search.FuzzyThreshold,
	}}
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	s := file.Search
	cfg.Scan.Paths = s.DefaultPaths
	cfg.Scan.Ignore = s.IgnorePatterns
	cfg.Scan.MaxDepth = s.MaxDepth
	cfg.Scan.ExcludeHidden = s.ExcludeHidden
	cfg.Search.MaxResults = s.MaxResults
	cfg.Search.ShowDetails = s.ShowDetails
	cfg.Search.Verbose = s.Verbose
	cfg.Search.UseIndex = s.LightspeedMode
	cfg.Search.FuzzyThreshold = s.FuzzyThreshold
	return cfg, nil
}
