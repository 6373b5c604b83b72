// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/packed/cmd/packed/cli"
	"github.com/bureau-foundation/packed/lib/asset"
	"github.com/bureau-foundation/packed/lib/digest"
	"github.com/bureau-foundation/packed/lib/manifest"
	"github.com/bureau-foundation/packed/lib/object"
)

type verifyParams struct {
	Manifest string `flag:"manifest,m" desc:"packer output directory holding packed.manifest" default:".packed"`
	Root     string `flag:"root" desc:"asset root to compare fingerprints against (optional)"`
	Verbose  bool   `flag:"verbose,v" desc:"log every verified asset"`
}

func verifyCommand() *cli.Command {
	var params verifyParams
	return &cli.Command{
		Name:    "verify",
		Summary: "Decode every artifact and check it against the manifest",
		Description: `Read every artifact the manifest references, extract the blob from
its object file (or read the inline blob), and decode it to the
recorded size. With --root, also check that each asset's fingerprint
still matches the source file.

Prints one line per failure and exits 1 if any asset fails.`,
		Usage: "packed verify [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("verify", &params)
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			m, err := manifest.Read(params.Manifest)
			if err != nil {
				return err
			}

			styles := cli.NewStyles()
			failures := 0
			for _, record := range m.Records {
				if err := verifyRecord(m, record, params.Manifest, params.Root); err != nil {
					fmt.Printf("%s %s: %v\n", styles.Failure("FAIL"), record.Path, err)
					failures++
					continue
				}
				logger.Debug("verified asset", "path", record.Path, "symbol", record.Symbol)
			}
			if failures > 0 {
				fmt.Printf("%d of %d assets failed verification\n", failures, len(m.Records))
				return &cli.ExitError{Code: 1}
			}
			fmt.Printf("verified %d assets\n", len(m.Records))
			return nil
		},
	}
}

func verifyRecord(m *manifest.Manifest, record manifest.Record, outputDirectory, root string) error {
	data, err := os.ReadFile(filepath.Join(outputDirectory, record.File))
	if err != nil {
		return err
	}

	blob := data
	if record.Storage == manifest.StorageLinked {
		blob, err = object.Extract(m.Target, data, record.Symbol)
		if err != nil {
			return err
		}
	}
	if int64(len(blob)) != record.CompressedSize {
		return fmt.Errorf("blob is %d bytes, manifest records %d", len(blob), record.CompressedSize)
	}

	var source asset.Source = asset.Inline{Data: blob, Codec: m.Codec, Size: int(record.OriginalSize)}
	if record.Storage == manifest.StorageLinked {
		source = asset.Linked{Symbol: record.Symbol, Data: blob, Codec: m.Codec, Size: int(record.OriginalSize)}
	}
	if _, err := asset.Decode(source); err != nil {
		return err
	}

	if root == "" {
		return nil
	}
	original, err := os.ReadFile(sourcePath(root, record.Path))
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}
	fingerprint := digest.Fingerprint(original, digest.FingerprintParams{
		Codec:  m.Codec.String(),
		Level:  m.Level,
		Target: m.Target.String(),
		Inline: record.Storage == manifest.StorageInline,
	})
	if fingerprint != record.Fingerprint {
		return fmt.Errorf("source changed since packing (fingerprint %s, manifest %s)",
			fingerprint.Short(), record.Fingerprint.Short())
	}
	return nil
}

// sourcePath maps a record path back to the file under root. A root
// that is itself a file was packed as a single asset.
func sourcePath(root, relativePath string) string {
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		return root
	}
	return filepath.Join(root, filepath.FromSlash(relativePath))
}
