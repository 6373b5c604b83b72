// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package resolve turns asset references in Go source into generated
// code that hands each referenced blob to the runtime decoder.
//
// A package using packed declares nothing itself. It calls a function,
// by default includePacked, with a string literal:
//
//	logo, err := includePacked("images/logo.png")
//
// and runs the resolver (usually from a go:generate line). The
// resolver finds every call, looks each literal up in the manifest,
// and writes zz_packed_<goos>_<goarch>.go defining
//
//	func includePacked(path string) ([]byte, error)
//
// with one case per referenced asset. A literal absent from the
// manifest fails resolution with its path and call position, and no
// file is written; invalid references never reach a compiled binary.
//
// Linked assets are declared to cgo as extern arrays and the objects
// are passed to the external linker through #cgo LDFLAGS; inline
// assets are string literals in the generated file. Both cases build
// an asset.Source and return asset.Decode(source).
package resolve

import (
	"errors"
	"fmt"
	"go/token"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bureau-foundation/packed/lib/atomicfile"
	"github.com/bureau-foundation/packed/lib/manifest"
	"github.com/bureau-foundation/packed/lib/packerr"
)

const (
	// DefaultFunc is the lookup function name generated code defines.
	DefaultFunc = "includePacked"

	// GeneratedPrefix starts the name of every file the resolver
	// writes.
	GeneratedPrefix = "zz_packed_"
)

// LookupError reports a reference to a path the manifest does not
// contain.
type LookupError struct {
	Path     string
	Position token.Position
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: asset %q is not in the manifest", e.Position, e.Path)
}

// ErrorKind classifies the error for packerr.KindOf.
func (e *LookupError) ErrorKind() packerr.Kind { return packerr.KindLookup }

// Options configures Resolve and Check.
type Options struct {
	// Dir is the package directory to scan and write into.
	Dir string

	// ManifestDir is the packer output directory holding the
	// manifest and artifacts.
	ManifestDir string

	// Func is the lookup function name. Empty selects DefaultFunc.
	Func string

	// Logger receives a summary at Info. Nil discards.
	Logger *slog.Logger
}

func (o Options) funcName() string {
	if o.Func == "" {
		return DefaultFunc
	}
	return o.Func
}

// Resolved pairs a referenced path with its manifest record.
type Resolved struct {
	Record manifest.Record

	// Position is the first call site referencing the path.
	Position token.Position
}

// Result describes a successful Resolve.
type Result struct {
	// File is the generated file's path.
	File string

	// Assets are the distinct referenced assets, ordered by path.
	Assets []Resolved

	// Manifest is the manifest resolution ran against.
	Manifest *manifest.Manifest
}

// FileName returns the generated file name for a manifest's target.
func FileName(m *manifest.Manifest) string {
	return GeneratedPrefix + m.Target.FileSuffix() + ".go"
}

// Check finds every reference in options.Dir and looks each up in the
// manifest, without writing anything. All missing paths are reported
// together as *LookupError values joined with errors.Join.
func Check(options Options) (*Result, error) {
	result, _, err := check(options)
	return result, err
}

func check(options Options) (*Result, *Package, error) {
	m, err := manifest.Read(options.ManifestDir)
	if err != nil {
		return nil, nil, err
	}
	pkg, err := FindReferences(options.Dir, options.funcName())
	if err != nil {
		return nil, nil, err
	}
	assets, err := lookup(m, pkg.References)
	if err != nil {
		return nil, nil, err
	}
	return &Result{
		File:     filepath.Join(options.Dir, FileName(m)),
		Assets:   assets,
		Manifest: m,
	}, pkg, nil
}

// Resolve runs Check and then writes the generated file for the
// manifest's target, replacing any previous version atomically.
func Resolve(options Options) (*Result, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	result, pkg, err := check(options)
	if err != nil {
		return nil, err
	}

	source, err := Generate(GenerateInput{
		Package:     pkg.Name,
		Func:        options.funcName(),
		Manifest:    result.Manifest,
		Assets:      result.Assets,
		Dir:         options.Dir,
		ManifestDir: options.ManifestDir,
	})
	if err != nil {
		return nil, err
	}

	if err := atomicfile.Write(result.File, source, 0644); err != nil {
		return nil, packerr.Wrap(packerr.KindLookup, result.File, err)
	}
	logger.Info("generated asset lookup",
		"file", result.File,
		"assets", len(result.Assets),
		"references", len(pkg.References),
		"target", result.Manifest.Target.String(),
	)
	return result, nil
}

// lookup resolves references against m, deduplicating by path.
func lookup(m *manifest.Manifest, references []Reference) ([]Resolved, error) {
	seen := make(map[string]bool, len(references))
	var assets []Resolved
	var errs []error
	for _, reference := range references {
		if seen[reference.Path] {
			continue
		}
		seen[reference.Path] = true
		record, ok := m.Lookup(reference.Path)
		if !ok {
			errs = append(errs, &LookupError{Path: reference.Path, Position: reference.Position})
			continue
		}
		assets = append(assets, Resolved{Record: record, Position: reference.Position})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Record.Path < assets[j].Record.Path })
	return assets, nil
}

// RemoveGenerated deletes generated files in dir for every target.
// Returns the removed paths.
func RemoveGenerated(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, GeneratedPrefix+"*.go"))
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			return removed, err
		}
		removed = append(removed, path)
	}
	return removed, nil
}
