package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error types for the lightspeed index
type ErrorType string

const (
	ErrorTypeIndexing ErrorType = "indexing"
	ErrorTypeSearch   ErrorType = "search"
	ErrorTypeSnapshot ErrorType = "snapshot"
	ErrorTypeScan     ErrorType = "scan"
	ErrorTypeConfig   ErrorType = "config"
)

var (
	// ErrNoIndex means no snapshot exists yet; the caller should build one.
	ErrNoIndex = errors.New("no index found")
	// ErrEntryNotFound is returned when an ID does not resolve to an entry.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrIndexMismatch means the stored generation fingerprint does not match
	// the entry store it was saved with.
	ErrIndexMismatch = errors.New("index generation does not match entry store")
)

// IndexingError represents an error while building an index generation
type IndexingError struct {
	Type       ErrorType
	Operation  string
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewIndexingError creates a new indexing error with context
func NewIndexingError(op string, err error) *IndexingError {
	return &IndexingError{
		Type:       ErrorTypeIndexing,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithPath adds the offending path to the error
func (e *IndexingError) WithPath(path string) *IndexingError {
	e.Path = path
	return e
}

// Error implements the error interface
func (e *IndexingError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.Path, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *IndexingError) Unwrap() error {
	return e.Underlying
}

// SearchError represents a search operation error
type SearchError struct {
	Type       ErrorType
	Query      string
	Strategy   string
	Underlying error
	Timestamp  time.Time
}

// NewSearchError creates a new search error
func NewSearchError(query, strategy string, err error) *SearchError {
	return &SearchError{
		Type:       ErrorTypeSearch,
		Query:      query,
		Strategy:   strategy,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *SearchError) Error() string {
	return fmt.Sprintf("%s search failed for query %q: %v", e.Strategy, e.Query, e.Underlying)
}

// Unwrap returns the underlying error
func (e *SearchError) Unwrap() error {
	return e.Underlying
}

// SnapshotError represents a failure to read or write a persisted index.
// A recoverable snapshot error means "no usable index, please rebuild".
type SnapshotError struct {
	Type        ErrorType
	Path        string
	Operation   string
	Underlying  error
	Recoverable bool
	Timestamp   time.Time
}

// NewSnapshotError creates a new snapshot error. Load failures are
// recoverable by default.
func NewSnapshotError(op, path string, err error) *SnapshotError {
	return &SnapshotError{
		Type:        ErrorTypeSnapshot,
		Path:        path,
		Operation:   op,
		Underlying:  err,
		Recoverable: op == "load",
		Timestamp:   time.Now(),
	}
}

// WithRecoverable overrides the recoverable flag
func (e *SnapshotError) WithRecoverable(recoverable bool) *SnapshotError {
	e.Recoverable = recoverable
	return e
}

// Error implements the error interface
func (e *SnapshotError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("snapshot %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
	}
	return fmt.Sprintf("snapshot %s failed: %v", e.Operation, e.Underlying)
}

// Unwrap returns the underlying error
func (e *SnapshotError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable checks if the error can be handled by rebuilding
func (e *SnapshotError) IsRecoverable() bool {
	return e.Recoverable
}

// ScanError represents a file-walking error for a single path
type ScanError struct {
	Type       ErrorType
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewScanError creates a new scan error
func NewScanError(path string, err error) *ScanError {
	return &ScanError{
		Type:       ErrorTypeScan,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed for %s: %v", e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ScanError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error, or nil when every input is nil
func NewMultiError(errs []error) error {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// IsRecoverable reports whether err means the index is unusable but can be
// rebuilt from scratch.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoIndex) {
		return true
	}
	var snapErr *SnapshotError
	if errors.As(err, &snapErr) {
		return snapErr.Recoverable
	}
	return false
}
