// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package version provides build-time version information.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Set at build time with -ldflags "-X github.com/dacolabs/usdl/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

var (
	once   sync.Once
	cached BuildInfo
)

// Get returns the build information. Values missing from ldflags are filled
// from the module build info, which "go install module@version" records.
func Get() BuildInfo {
	once.Do(func() {
		cached = resolve(Version, Commit, Date, debug.ReadBuildInfo)
	})
	return cached
}

func resolve(v, commit, date string, read func() (*debug.BuildInfo, bool)) BuildInfo {
	bi := BuildInfo{Version: v, Commit: commit, Date: date, GoVersion: runtime.Version()}
	info, ok := read()
	if !ok {
		return bi
	}
	if bi.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		bi.Version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if bi.Commit == "none" && len(setting.Value) >= 7 {
				bi.Commit = setting.Value[:7]
			}
		case "vcs.time":
			if bi.Date == "unknown" {
				bi.Date = setting.Value
			}
		}
	}
	return bi
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("usdl version %s (commit: %s, built: %s, go: %s)",
		b.Version, b.Commit, b.Date, b.GoVersion)
}

// Info returns formatted version information.
func Info() string {
	return Get().String()
}

// Short returns just the version string.
func Short() string {
	return Get().Version
}
