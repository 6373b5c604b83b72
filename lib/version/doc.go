// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the packed
// CLI.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- semantic version string (set manually for releases)
//
// For example:
//
//	go build -ldflags "-X github.com/bureau-foundation/packed/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/packed
//
// Anything not injected is filled from the module and VCS information
// the go command embeds ([Current]); a plain test binary reports
// "0.1.0-dev (unknown, unknown)".
package version
