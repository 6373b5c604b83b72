// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// Stamp is the resolved build information.
type Stamp struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Dirty     bool   `json:"dirty"`
	BuildTime string `json:"build_time"`
}

// Current returns the build stamp. Values not injected through
// -ldflags fall back to the VCS settings the go command records in
// the binary (go install, go build inside a checkout).
func Current() Stamp {
	stamp := Stamp{
		Version:   Version,
		Commit:    GitCommit,
		Dirty:     GitDirty == "true",
		BuildTime: BuildTime,
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return stamp
	}
	return fillFromBuildInfo(stamp, info)
}

func fillFromBuildInfo(stamp Stamp, info *debug.BuildInfo) Stamp {
	if stamp.Version == "0.1.0-dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		stamp.Version = info.Main.Version
	}
	if stamp.Commit != "unknown" {
		return stamp
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			stamp.Commit = setting.Value
			if len(stamp.Commit) > 12 {
				stamp.Commit = stamp.Commit[:12]
			}
		case "vcs.modified":
			stamp.Dirty = setting.Value == "true"
		case "vcs.time":
			if stamp.BuildTime == "unknown" {
				stamp.BuildTime = setting.Value
			}
		}
	}
	return stamp
}

// String formats the stamp for --version output.
func (s Stamp) String() string {
	dirty := ""
	if s.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", s.Version, s.Commit, dirty, s.BuildTime)
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	return Current().String()
}

// Full returns Info plus the Go version and the host platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
