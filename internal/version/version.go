package version

import (
	"runtime/debug"
	"sync"
)

// Version is the current semantic version of lightspeed.
const Version = "0.1.0"

// Set at build time:
//
//	go build -ldflags "-X github.com/standardbeagle/lightspeed/internal/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	GitCommit = ""
	BuildDate = "development"
)

// Info returns the bare version.
func Info() string {
	return Version
}

// FullInfo returns the version with commit and build date.
func FullInfo() string {
	return "lightspeed " + Version + " (commit: " + Commit() + ", built: " + BuildDate + ")"
}

var (
	commit     string
	commitOnce sync.Once
)

// Commit returns GitCommit, falling back to the VCS revision recorded in
// the binary's build info.
func Commit() string {
	commitOnce.Do(func() {
		commit = resolveCommit()
	})
	return commit
}

func resolveCommit() string {
	if GitCommit != "" {
		return GitCommit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	var rev string
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return "unknown"
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}
