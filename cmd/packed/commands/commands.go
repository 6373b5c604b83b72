// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the packed CLI command tree.
package commands

import (
	"github.com/bureau-foundation/packed/cmd/packed/cli"
)

// Root builds and returns the complete packed CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "packed",
		Description: `packed: compressed assets linked into Go binaries.

The packer compresses an asset tree into one relocatable object per
asset (or inline blobs for targets that cannot link objects) plus a
manifest. The resolver reads the manifest and generates the lookup
function a package calls to decode an asset at run time.`,
		Subcommands: []*cli.Command{
			packCommand(),
			resolveCommand(),
			checkCommand(),
			manifestCommand(),
			linkArgsCommand(),
			verifyCommand(),
			versionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Pack an asset directory for the current GOOS/GOARCH",
				Command:     "packed pack --root assets",
			},
			{
				Description: "Pack from a config file with a forced target",
				Command:     "packed pack --config packed.yaml --target js/wasm",
			},
			{
				Description: "Generate the lookup file for the package in the current directory",
				Command:     "packed resolve --manifest ../.packed",
			},
			{
				Description: "List what was packed",
				Command:     "packed manifest",
			},
		},
	}
}
