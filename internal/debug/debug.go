// Package debug is lightspeed's diagnostic log. Component logs are off
// unless LIGHTSPEED_DEBUG=1 or the EnableDebug build flag is set; warnings
// are always written. In MCP mode stdout and stderr belong to the protocol,
// so nothing is written unless a log file has been opened.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// EnableDebug turns component logs on at build time:
//
//	go build -ldflags "-X github.com/standardbeagle/lightspeed/internal/debug.EnableDebug=true"
var EnableDebug = "false"

const envDebug = "LIGHTSPEED_DEBUG"

// Component tags a log line with the part of the index that wrote it.
type Component string

const (
	Index    Component = "INDEX"
	Search   Component = "SEARCH"
	Snapshot Component = "SNAPSHOT"
	Scan     Component = "SCAN"
	MCP      Component = "MCP"
)

type sink struct {
	mu   sync.Mutex
	out  io.Writer
	file *os.File
}

var (
	std     = &sink{out: os.Stderr}
	mcpMode atomic.Bool
)

// SetMCPMode silences stdio output for the rest of the process.
func SetMCPMode(enabled bool) {
	mcpMode.Store(enabled)
}

// SetOutput redirects log output. nil drops everything.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.out = w
}

// OpenLogFile sends output to path, appending. An empty path picks a
// timestamped file under the temp directory. The chosen path is returned.
func OpenLogFile(path string) (string, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), "lightspeed-logs",
			"lightspeed-"+time.Now().Format("2006-01-02T150405")+".log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open log file: %w", err)
	}

	std.mu.Lock()
	defer std.mu.Unlock()
	if std.file != nil {
		_ = std.file.Close()
	}
	std.file = f
	std.out = f
	return path, nil
}

// CloseLogFile closes a file opened by OpenLogFile and returns output to
// stderr.
func CloseLogFile() error {
	std.mu.Lock()
	defer std.mu.Unlock()
	if std.file == nil {
		return nil
	}
	err := std.file.Close()
	std.file = nil
	std.out = os.Stderr
	return err
}

// writerLocked returns the current destination, or nil when output is
// dropped. s.mu must be held.
func (s *sink) writerLocked() io.Writer {
	if mcpMode.Load() && s.file == nil {
		return nil
	}
	return s.out
}

func (s *sink) writer() io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writerLocked()
}

func (s *sink) printf(prefix, format string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w := s.writerLocked(); w != nil {
		fmt.Fprintf(w, prefix+format, args...)
	}
}

// Enabled reports whether component logs are written.
func Enabled() bool {
	if std.writer() == nil {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv(envDebug)
	return v == "1" || v == "true"
}

// Logf writes a component log line when logging is enabled.
func Logf(c Component, format string, args ...any) {
	if !Enabled() {
		return
	}
	std.printf("[DEBUG:"+string(c)+"] ", format, args)
}

func LogIndexing(format string, args ...any) { Logf(Index, format, args...) }
func LogSearch(format string, args ...any)   { Logf(Search, format, args...) }
func LogSnapshot(format string, args ...any) { Logf(Snapshot, format, args...) }
func LogScan(format string, args ...any)     { Logf(Scan, format, args...) }
func LogMCP(format string, args ...any)      { Logf(MCP, format, args...) }

// Warnf is written whether or not debug logging is on.
func Warnf(format string, args ...any) {
	std.printf("[WARN] ", format, args)
}
