// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/packed/cmd/packed/cli"
	"github.com/bureau-foundation/packed/lib/resolve"
)

// lookupParams are shared by resolve and check.
type lookupParams struct {
	Manifest string `flag:"manifest,m" desc:"packer output directory holding packed.manifest" default:".packed"`
	Func     string `flag:"func" desc:"name of the lookup function the package calls" default:"includePacked"`
	Verbose  bool   `flag:"verbose,v" desc:"verbose logging"`
}

type resolveParams struct {
	lookupParams
	Clean bool `flag:"clean" desc:"remove generated files for other targets first"`
}

func (p *lookupParams) options(args []string, logger *slog.Logger) (resolve.Options, error) {
	dir := "."
	switch len(args) {
	case 0:
	case 1:
		dir = args[0]
	default:
		return resolve.Options{}, fmt.Errorf("expected at most one package directory, got %d", len(args))
	}
	return resolve.Options{Dir: dir, ManifestDir: p.Manifest, Func: p.Func, Logger: logger}, nil
}

func resolveCommand() *cli.Command {
	var params resolveParams
	return &cli.Command{
		Name:    "resolve",
		Summary: "Generate the asset lookup function for a package",
		Description: `Find every call of the lookup function (includePacked by default) in the
package directory, look each string literal up in the manifest, and
write zz_packed_<goos>_<goarch>.go defining the function.

A literal that is not in the manifest fails with its path and call
position, and nothing is written. Typically run from go:generate:

  //go:generate packed resolve --manifest ../.packed`,
		Usage: "packed resolve [flags] [dir]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("resolve", &params)
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			options, err := params.options(args, logger)
			if err != nil {
				return err
			}
			if params.Clean {
				removed, err := resolve.RemoveGenerated(options.Dir)
				if err != nil {
					return fmt.Errorf("removing generated files: %w", err)
				}
				for _, path := range removed {
					logger.Debug("removed generated file", "file", path)
				}
			}
			result, err := resolve.Resolve(options)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d assets)\n", result.File, len(result.Assets))
			return nil
		},
	}
}

func checkCommand() *cli.Command {
	var params lookupParams
	return &cli.Command{
		Name:    "check",
		Summary: "Verify a package's asset references without generating code",
		Description: `Run the resolver's lookup step without writing anything: every
reference must be a string literal naming an asset in the manifest.
Missing assets are all reported together. Useful as a CI guard.`,
		Usage: "packed check [flags] [dir]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("check", &params)
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			options, err := params.options(args, logger)
			if err != nil {
				return err
			}
			result, err := resolve.Check(options)
			if err != nil {
				return err
			}
			fmt.Printf("%d assets resolved for %s\n", len(result.Assets), result.Manifest.Target)
			return nil
		},
	}
}
