// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/bureau-foundation/packed/lib/compress"
	"github.com/bureau-foundation/packed/lib/manifest"
	"github.com/bureau-foundation/packed/lib/packerr"
)

// AssetImportPath is the import path generated code uses for the
// runtime decoder.
const AssetImportPath = "github.com/bureau-foundation/packed/lib/asset"

// GenerateInput is everything Generate needs.
type GenerateInput struct {
	// Package is the package clause of the generated file.
	Package string

	// Func is the lookup function name.
	Func string

	Manifest *manifest.Manifest

	// Assets are the referenced records, ordered by path.
	Assets []Resolved

	// Dir is the directory the file will live in. Linked object paths
	// are written relative to it (${SRCDIR}).
	Dir string

	// ManifestDir is the packer output directory. Inline blobs are
	// read from it.
	ManifestDir string
}

type generatedFile struct {
	Package     string
	Func        string
	Target      string
	ImportPath  string
	Linked      bool
	LinkerFlags []string
	Externs     []string
	Cases       []generatedCase
	Blobs       []generatedBlob
}

type generatedCase struct {
	Path   string
	Source string
}

type generatedBlob struct {
	Name    string
	Literal string
}

var fileTemplate = template.Must(template.New("packed").Parse(`// Code generated by packed resolve. DO NOT EDIT.
{{if .Linked}}
//go:build cgo
{{end}}
package {{.Package}}
{{if .Linked}}
/*
{{range .LinkerFlags}}#cgo LDFLAGS: {{.}}
{{end}}
{{range .Externs}}{{.}}
{{end}}*/
import "C"
{{end}}
import (
{{if .Linked}}	"unsafe"

{{end}}	"{{.ImportPath}}"
)

// {{.Func}} returns the decoded contents of a packed asset. Generated
// for {{.Target}}.
func {{.Func}}(path string) ([]byte, error) {
	switch path {
{{range .Cases}}	case {{.Path}}:
		return asset.Decode({{.Source}})
{{end}}	default:
		return nil, asset.Unresolved(path)
	}
}
{{range .Blobs}}
var {{.Name}} = []byte({{.Literal}})
{{end}}`))

// Generate renders and gofmts the lookup file for input. Inline blobs
// are read from the manifest directory and checked against their
// recorded sizes; linked objects must exist.
func Generate(input GenerateInput) ([]byte, error) {
	file := generatedFile{
		Package:    input.Package,
		Func:       input.Func,
		Target:     input.Manifest.Target.String(),
		ImportPath: AssetImportPath,
	}
	codecName, err := codecIdentifier(input.Manifest.Codec)
	if err != nil {
		return nil, err
	}

	for _, resolved := range input.Assets {
		record := resolved.Record
		artifact := filepath.Join(input.ManifestDir, record.File)
		switch record.Storage {
		case manifest.StorageLinked:
			if _, err := os.Stat(artifact); err != nil {
				return nil, packerr.Wrap(packerr.KindManifestIO, record.Path, fmt.Errorf("object for asset: %w", err))
			}
			flag, err := linkerPath(input.Dir, artifact)
			if err != nil {
				return nil, err
			}
			file.Linked = true
			file.LinkerFlags = append(file.LinkerFlags, flag)
			file.Externs = append(file.Externs,
				fmt.Sprintf("extern const unsigned char %s[%d];", record.Symbol, record.CompressedSize))
			file.Cases = append(file.Cases, generatedCase{
				Path: strconv.Quote(record.Path),
				Source: fmt.Sprintf("asset.Linked{Symbol: %q, Data: unsafe.Slice((*byte)(unsafe.Pointer(&C.%s[0])), %d), Codec: asset.%s, Size: %d}",
					record.Symbol, record.Symbol, record.CompressedSize, codecName, record.OriginalSize),
			})

		case manifest.StorageInline:
			blob, err := os.ReadFile(artifact)
			if err != nil {
				return nil, packerr.Wrap(packerr.KindManifestIO, record.Path, fmt.Errorf("inline blob for asset: %w", err))
			}
			if int64(len(blob)) != record.CompressedSize {
				return nil, packerr.New(packerr.KindManifestIO, record.Path,
					"inline blob %s is %d bytes, manifest records %d", record.File, len(blob), record.CompressedSize)
			}
			file.Blobs = append(file.Blobs, generatedBlob{Name: record.Symbol, Literal: hexLiteral(blob)})
			file.Cases = append(file.Cases, generatedCase{
				Path: strconv.Quote(record.Path),
				Source: fmt.Sprintf("asset.Inline{Data: %s, Codec: asset.%s, Size: %d}",
					record.Symbol, codecName, record.OriginalSize),
			})

		default:
			return nil, packerr.New(packerr.KindManifestIO, record.Path, "unknown storage %d", record.Storage)
		}
	}

	var buffer bytes.Buffer
	if err := fileTemplate.Execute(&buffer, file); err != nil {
		return nil, fmt.Errorf("rendering generated file: %w", err)
	}
	formatted, err := format.Source(buffer.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated file: %w", err)
	}
	return formatted, nil
}

func codecIdentifier(codec compress.Codec) (string, error) {
	switch codec {
	case compress.CodecZstd:
		return "Zstd", nil
	case compress.CodecLZ4:
		return "LZ4", nil
	default:
		return "", packerr.New(packerr.KindManifestIO, "", "manifest codec %v has no runtime decoder", codec)
	}
}

// linkerPath returns the ${SRCDIR}-relative path of an object for a
// #cgo LDFLAGS line. cgo rejects flags with shell-special characters,
// so those are refused here with a clearer message.
func linkerPath(dir, object string) (string, error) {
	absoluteDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	absoluteObject, err := filepath.Abs(object)
	if err != nil {
		return "", err
	}
	relative, err := filepath.Rel(absoluteDir, absoluteObject)
	if err != nil {
		return "", packerr.Wrap(packerr.KindConfig, object, err)
	}
	relative = filepath.ToSlash(relative)
	if strings.ContainsAny(relative, " \t\n\"'`\\$;&|<>*?") {
		return "", packerr.New(packerr.KindConfig, relative,
			"object path cannot be passed through #cgo LDFLAGS; move the output directory to a plain path")
	}
	return "${SRCDIR}/" + relative, nil
}

// hexLiteral renders data as a Go string literal of \x escapes.
func hexLiteral(data []byte) string {
	const digits = "0123456789abcdef"
	literal := make([]byte, 0, 2+4*len(data))
	literal = append(literal, '"')
	for _, b := range data {
		literal = append(literal, '\\', 'x', digits[b>>4], digits[b&0x0f])
	}
	literal = append(literal, '"')
	return string(literal)
}
