// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package packer

import (
	"strings"

	"github.com/bureau-foundation/packed/lib/atomicfile"
	"github.com/bureau-foundation/packed/lib/packerr"
	"github.com/bureau-foundation/packed/lib/scan"
)

// writeDepfile writes a Make rule making the manifest depend on every
// packed asset, so Make and Ninja rerun the packer when an asset
// changes.
func writeDepfile(path, manifestPath string, files []scan.File) error {
	var builder strings.Builder
	builder.WriteString(escapeMake(manifestPath))
	builder.WriteString(":")
	for _, file := range files {
		builder.WriteString(" \\\n  ")
		builder.WriteString(escapeMake(file.Source))
	}
	builder.WriteString("\n")

	if err := atomicfile.Write(path, []byte(builder.String()), 0644); err != nil {
		return packerr.Wrap(packerr.KindManifestIO, path, err)
	}
	return nil
}

// escapeMake escapes the characters Make treats specially in a
// prerequisite list.
func escapeMake(path string) string {
	replacer := strings.NewReplacer(" ", `\ `, "#", `\#`, "$", "$$")
	return replacer.Replace(path)
}
