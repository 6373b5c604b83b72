// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/packed/cmd/packed/cli"
	"github.com/bureau-foundation/packed/lib/manifest"
)

type linkArgsParams struct {
	Manifest string `flag:"manifest,m" desc:"packer output directory holding packed.manifest" default:".packed"`
	Prefix   string `flag:"prefix" desc:"text printed before each object path, e.g. -extldflags="`
}

func linkArgsCommand() *cli.Command {
	var params linkArgsParams
	return &cli.Command{
		Name:    "link-args",
		Summary: "Print the object files an external link step needs",
		Description: `Print the absolute path of every linked object in the manifest, one
per line, for build systems that drive the external linker directly
instead of through generated #cgo LDFLAGS lines. Inline assets have no
object and are skipped.`,
		Usage: "packed link-args [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("link-args", &params)
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			m, err := manifest.Read(params.Manifest)
			if err != nil {
				return err
			}
			directory, err := filepath.Abs(params.Manifest)
			if err != nil {
				return err
			}
			for _, record := range m.Records {
				if record.Storage != manifest.StorageLinked {
					continue
				}
				fmt.Printf("%s%s\n", params.Prefix, filepath.Join(directory, record.File))
			}
			return nil
		},
	}
}
