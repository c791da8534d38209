// Package version reports queuelaw build information.
package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

// Set at build time with
//
//	-ldflags "-X github.com/alexshd/queuelaw/internal/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version = "v0.4.0"
	Commit  = "unknown"
	BuiltAt = "unknown"
)

var fillOnce sync.Once

// fillFromBuildInfo takes the commit and time from the VCS stamp the go tool
// embeds when the ldflags were not given.
func fillFromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "unknown" && s.Value != "" {
				Commit = s.Value[:min(len(s.Value), 12)]
			}
		case "vcs.time":
			if BuiltAt == "unknown" && s.Value != "" {
				BuiltAt = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" && !strings.HasSuffix(Commit, "-dirty") && Commit != "unknown" {
				Commit += "-dirty"
			}
		}
	}
}

// Info returns the semantic version.
func Info() string {
	return Version
}

// FullInfo returns the version, commit, build time and Go toolchain as
// space-separated key=value pairs.
func FullInfo() string {
	fillOnce.Do(fillFromBuildInfo)
	return "version=" + Version +
		" commit=" + Commit +
		" built_at=" + BuiltAt +
		" go=" + runtime.Version()
}
