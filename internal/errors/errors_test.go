package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIndexingError(t *testing.T) {
	underlying := errors.New("underlying error")
	err := NewIndexingError("build ngram", underlying).WithPath("/data/report.pdf")

	if err.Type != ErrorTypeIndexing {
		t.Errorf("Expected Type to be ErrorTypeIndexing, got %v", err.Type)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := "indexing build ngram failed for /data/report.pdf: underlying error"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestSearchError(t *testing.T) {
	underlying := errors.New("context canceled")
	err := NewSearchError("rprt", "parallel", underlying)

	if err.Type != ErrorTypeSearch {
		t.Errorf("Expected Type to be ErrorTypeSearch, got %v", err.Type)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := `parallel search failed for query "rprt": context canceled`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestSnapshotError(t *testing.T) {
	underlying := errors.New("bad magic")

	loadErr := NewSnapshotError("load", "/tmp/index.lsi", underlying)
	if !loadErr.IsRecoverable() {
		t.Errorf("Expected load errors to be recoverable")
	}

	saveErr := NewSnapshotError("save", "/tmp/index.lsi", underlying)
	if saveErr.IsRecoverable() {
		t.Errorf("Expected save errors to be fatal by default")
	}

	if !saveErr.WithRecoverable(true).IsRecoverable() {
		t.Errorf("Expected WithRecoverable to override the flag")
	}

	expectedMsg := "snapshot load failed for /tmp/index.lsi: bad magic"
	if loadErr.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, loadErr.Error())
	}
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"no index", ErrNoIndex, true},
		{"wrapped no index", fmt.Errorf("open: %w", ErrNoIndex), true},
		{"load snapshot", NewSnapshotError("load", "", ErrIndexMismatch), true},
		{"wrapped load snapshot", fmt.Errorf("cli: %w", NewSnapshotError("load", "", errors.New("eof"))), true},
		{"save snapshot", NewSnapshotError("save", "", errors.New("disk full")), false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecoverable(tt.err); got != tt.want {
				t.Errorf("IsRecoverable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	underlying := errors.New("must be between 0 and 3")
	err := NewConfigError("index.max_edit_distance", "7", underlying)

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := "config error for field index.max_edit_distance (value 7): must be between 0 and 3"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestMultiError(t *testing.T) {
	if err := NewMultiError([]error{nil, nil}); err != nil {
		t.Errorf("Expected nil for all-nil input, got %v", err)
	}

	first := errors.New("first")
	second := errors.New("second")
	err := NewMultiError([]error{first, nil, second})

	var multi *MultiError
	if !errors.As(err, &multi) {
		t.Fatalf("Expected *MultiError, got %T", err)
	}
	if len(multi.Errors) != 2 {
		t.Errorf("Expected 2 errors after filtering nil, got %d", len(multi.Errors))
	}
	if !errors.Is(err, second) {
		t.Errorf("Expected errors.Is to find wrapped error")
	}

	single := NewMultiError([]error{first})
	if single.Error() != "first" {
		t.Errorf("Expected single error message to pass through, got %q", single.Error())
	}
}

func TestScanError(t *testing.T) {
	underlying := errors.New("permission denied")
	err := NewScanError("/root/secret", underlying)

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}
	if err.Error() != "scan failed for /root/secret: permission denied" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}
