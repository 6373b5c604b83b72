// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/packed/cmd/packed/cli"
	"github.com/bureau-foundation/packed/lib/codec"
	"github.com/bureau-foundation/packed/lib/manifest"
	"github.com/bureau-foundation/packed/lib/packerr"
)

type manifestParams struct {
	cli.JSONOutput
	Manifest string `flag:"manifest,m" desc:"packer output directory holding packed.manifest" default:".packed"`
	Diag     bool   `flag:"diag" desc:"print the raw manifest in CBOR diagnostic notation"`
}

func manifestCommand() *cli.Command {
	var params manifestParams
	return &cli.Command{
		Name:    "manifest",
		Summary: "Print the records of a packed manifest",
		Description: `Print every record of packed.manifest: path, symbol, storage, and
original and compressed sizes, followed by totals.`,
		Usage: "packed manifest [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("manifest", &params)
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			if params.Diag {
				return printDiagnostic(params.Manifest)
			}

			m, err := manifest.Read(params.Manifest)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(m); done {
				return err
			}
			printManifest(m)
			return nil
		},
	}
}

func printManifest(m *manifest.Manifest) {
	fmt.Printf("target %s, codec %s level %d, %d assets\n\n", m.Target, m.Codec, m.Level, len(m.Records))

	styles := cli.NewStyles()
	var table strings.Builder
	writer := tabwriter.NewWriter(&table, 2, 0, 3, ' ', 0)
	fmt.Fprintf(writer, "PATH\tSTORAGE\tORIGINAL\tCOMPRESSED\tSYMBOL\n")
	for _, record := range m.Records {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			record.Path, record.Storage,
			humanize.IBytes(uint64(record.OriginalSize)),
			humanize.IBytes(uint64(record.CompressedSize)),
			record.Symbol)
	}
	writer.Flush()
	header, rows, _ := strings.Cut(table.String(), "\n")
	fmt.Println(styles.Header(header))
	fmt.Print(rows)

	original, compressed := m.TotalSizes()
	ratio := 0.0
	if original > 0 {
		ratio = float64(compressed) / float64(original) * 100
	}
	fmt.Printf("\n%s\n", styles.Faint(fmt.Sprintf("total %s -> %s (%.1f%%)",
		humanize.IBytes(uint64(original)), humanize.IBytes(uint64(compressed)), ratio)))
}

func printDiagnostic(outputDirectory string) error {
	path := manifest.Path(outputDirectory)
	data, err := os.ReadFile(path)
	if err != nil {
		return packerr.Wrap(packerr.KindManifestIO, path, err)
	}
	notation, err := codec.Diagnose(data)
	if err != nil {
		return packerr.Wrap(packerr.KindManifestIO, path, err)
	}
	fmt.Printf("%s: %s\n", filepath.Base(path), notation)
	return nil
}
