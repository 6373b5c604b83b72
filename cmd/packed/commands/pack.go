// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/packed/cmd/packed/cli"
	"github.com/bureau-foundation/packed/lib/config"
	"github.com/bureau-foundation/packed/lib/packer"
)

type packParams struct {
	Config  string   `flag:"config,c" desc:"packer config file (.yaml, .yml, .json, .jsonc)"`
	Root    string   `flag:"root" desc:"asset directory or single file"`
	Level   int      `flag:"level" desc:"compression level, 1 through 21 (default 6)"`
	Codec   string   `flag:"codec" desc:"frame codec: zstd or lz4 (default zstd)"`
	Include []string `flag:"include" desc:"only pack paths matching this glob (repeatable)"`
	Exclude []string `flag:"exclude" desc:"skip paths matching this glob (repeatable)"`
	Output  string   `flag:"output,o" desc:"output directory for the manifest and artifacts (default .packed)"`
	Target  string   `flag:"target" desc:"goos/goarch to emit objects for (default $GOOS/$GOARCH)"`
	Inline  bool     `flag:"inline" desc:"write inline blobs even when the target can link objects"`
	Workers int      `flag:"workers" desc:"parallel compression workers (default GOMAXPROCS)"`
	Depfile string   `flag:"depfile" desc:"write a Make dependency file listing every packed asset"`
	Verbose bool     `flag:"verbose,v" desc:"log every asset"`
}

func packCommand() *cli.Command {
	var params packParams
	return &cli.Command{
		Name:    "pack",
		Summary: "Compress an asset tree into objects and a manifest",
		Description: `Scan an asset root, compress every file, and write one artifact per
asset plus packed.manifest into the output directory.

Flags override the matching config file fields. Unchanged assets are
reused from the previous build by content fingerprint, and artifacts
the new manifest no longer references are removed. A failed run
leaves the previous manifest and its artifacts untouched.`,
		Usage: "packed pack [flags]",
		Examples: []cli.Example{
			{
				Description: "Pack with maximum compression",
				Command:     "packed pack --root assets --level 21",
			},
			{
				Description: "Pack only images, for a wasm build",
				Command:     "packed pack --root assets --include '*.png' --target js/wasm",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("pack", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			cfg, err := params.config()
			if err != nil {
				return err
			}
			result, err := packer.Pack(ctx, cfg, packer.Options{Logger: logger})
			if err != nil {
				return err
			}
			original, compressed := result.Manifest.TotalSizes()
			fmt.Printf("packed %d assets for %s: %s -> %s (%d compressed, %d reused, %d pruned)\n",
				len(result.Manifest.Records), result.Manifest.Target,
				humanize.IBytes(uint64(original)), humanize.IBytes(uint64(compressed)),
				result.Compressed, result.Reused, result.Pruned)
			return nil
		},
	}
}

// config loads the config file when one is given and applies every
// flag that was set on top of it.
func (p *packParams) config() (*config.Config, error) {
	cfg := config.Default()
	if p.Config != "" {
		loaded, err := config.LoadFile(p.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if p.Root != "" {
		cfg.Root = p.Root
	}
	if p.Level != 0 {
		cfg.Level = p.Level
	}
	if p.Codec != "" {
		cfg.Codec = p.Codec
	}
	if len(p.Include) > 0 {
		cfg.Include = p.Include
	}
	if len(p.Exclude) > 0 {
		cfg.Exclude = p.Exclude
	}
	if p.Output != "" {
		cfg.Output = p.Output
	}
	if p.Target != "" {
		cfg.Target = p.Target
	}
	if p.Inline {
		cfg.Inline = true
	}
	if p.Workers != 0 {
		cfg.Workers = p.Workers
	}
	if p.Depfile != "" {
		cfg.Depfile = p.Depfile
	}
	return cfg, nil
}
