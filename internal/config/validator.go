package config

import (
	"errors"
	"fmt"
	"strconv"

	lserrors "github.com/standardbeagle/lightspeed/internal/errors"
	"github.com/standardbeagle/lightspeed/internal/types"
)

// Validate checks every section and returns the first problem as a
// ConfigError naming the offending field.
func Validate(cfg *Config) error {
	if cfg == nil {
		return lserrors.NewConfigError("config", "", errors.New("config is nil"))
	}
	if err := validateIndex(&cfg.Index); err != nil {
		return err
	}
	if err := validateSearch(&cfg.Search); err != nil {
		return err
	}
	if err := validateScan(&cfg.Scan); err != nil {
		return err
	}
	if err := validateSnapshot(&cfg.Snapshot); err != nil {
		return err
	}
	if cfg.Watch.DebounceMs < 0 {
		return lserrors.NewConfigError("watch.debounce_ms", strconv.Itoa(cfg.Watch.DebounceMs),
			errors.New("cannot be negative"))
	}
	return nil
}

func validateIndex(index *Index) error {
	if index.MinGramLen < 1 {
		return lserrors.NewConfigError("index.min_gram_len", strconv.Itoa(index.MinGramLen),
			errors.New("must be at least 1"))
	}
	if index.MaxEditDistance < 0 || index.MaxEditDistance > types.MaxEditDistanceLimit {
		return lserrors.NewConfigError("index.max_edit_distance", strconv.Itoa(index.MaxEditDistance),
			fmt.Errorf("must be between 0 and %d", types.MaxEditDistanceLimit))
	}
	return nil
}

func validateSearch(search *Search) error {
	if search.MaxResults < 0 {
		return lserrors.NewConfigError("search.max_results", strconv.Itoa(search.MaxResults),
			errors.New("cannot be negative"))
	}
	if search.FuzzyThreshold < 0 {
		return lserrors.NewConfigError("search.fuzzy_threshold", strconv.FormatInt(search.FuzzyThreshold, 10),
			errors.New("cannot be negative"))
	}
	if !search.FuzzyStrategy.Valid() {
		return lserrors.NewConfigError("search.fuzzy_strategy", string(search.FuzzyStrategy),
			errors.New("must be one of parallel, symspell, hybrid"))
	}
	return nil
}

func validateScan(scan *Scan) error {
	if len(scan.Paths) == 0 {
		return lserrors.NewConfigError("scan.paths", "", errors.New("at least one path is required"))
	}
	if scan.MaxDepth < 0 {
		return lserrors.NewConfigError("scan.max_depth", strconv.Itoa(scan.MaxDepth),
			errors.New("cannot be negative"))
	}
	return nil
}

func validateSnapshot(snap *Snapshot) error {
	if snap.Path == "" {
		return lserrors.NewConfigError("snapshot.path", "", errors.New("cannot be empty"))
	}
	switch snap.Compression {
	case CompressionNone, CompressionZstd, CompressionLZ4:
		return nil
	default:
		return lserrors.NewConfigError("snapshot.compression", snap.Compression,
			errors.New("must be one of none, zstd, lz4"))
	}
}
