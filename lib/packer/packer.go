// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package packer runs the build-time half of packed: it turns an asset
// tree into per-asset artifacts and a manifest.
//
// A run proceeds in fixed stages:
//
//  1. validate the configuration (nothing is touched on failure)
//  2. scan the asset root
//  3. derive every symbol and reject collisions
//  4. lock the output directory against concurrent runs
//  5. compress and emit each asset on a worker pool, reusing the
//     previous build's artifact when its fingerprint matches
//  6. atomically replace the manifest
//  7. prune artifacts the new manifest no longer references
//
// Artifact names are content addressed, so stage 5 never overwrites a
// file the previous manifest references with different bytes. Until
// stage 6 lands, the previous manifest and everything it references
// are intact; a failure anywhere before that leaves the output
// directory describing the previous build.
package packer

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bureau-foundation/packed/lib/atomicfile"
	"github.com/bureau-foundation/packed/lib/compress"
	"github.com/bureau-foundation/packed/lib/config"
	"github.com/bureau-foundation/packed/lib/lockfile"
	"github.com/bureau-foundation/packed/lib/manifest"
	"github.com/bureau-foundation/packed/lib/packerr"
	"github.com/bureau-foundation/packed/lib/scan"
	"github.com/bureau-foundation/packed/lib/symbol"
	"github.com/bureau-foundation/packed/lib/target"
)

// Options configures a run beyond what the config file carries.
type Options struct {
	// Logger receives per-asset events at Debug and the summary at
	// Info. Nil discards.
	Logger *slog.Logger

	// Derive overrides symbol derivation. Nil selects symbol.Derive.
	Derive symbol.DeriveFunc

	// ReadFile overrides how asset contents are read. Nil selects
	// os.ReadFile.
	ReadFile func(path string) ([]byte, error)
}

// Result summarizes a successful run.
type Result struct {
	Manifest *manifest.Manifest

	// Compressed counts assets compressed and emitted in this run;
	// Reused counts assets whose previous artifact was kept.
	Compressed int
	Reused     int

	// Pruned counts stale artifacts removed after the manifest swap.
	Pruned int
}

// Pack runs the packer for cfg.
func Pack(ctx context.Context, cfg *config.Config, options Options) (*Result, error) {
	started := time.Now()
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if options.ReadFile == nil {
		options.ReadFile = os.ReadFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	settings, err := newSettings(cfg)
	if err != nil {
		return nil, err
	}

	files, err := scanAssets(cfg)
	if err != nil {
		return nil, err
	}
	symbols, err := symbol.Assign(scan.Paths(files), options.Derive)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return nil, packerr.Wrap(packerr.KindManifestIO, cfg.Output, err)
	}
	lock, err := lockfile.Acquire(ctx, filepath.Join(cfg.Output, lockfile.FileName))
	if err != nil {
		return nil, packerr.Wrap(packerr.KindManifestIO, cfg.Output, err)
	}
	defer lock.Release()

	if err := atomicfile.RemoveTemporaries(cfg.Output); err != nil {
		logger.Warn("removing leftover temporary files", "output", cfg.Output, "error", err)
	}

	previous := loadPrevious(cfg.Output, logger)

	compressor, err := compress.New(settings.codec, settings.level)
	if err != nil {
		return nil, packerr.Wrap(packerr.KindConfig, "", err)
	}
	defer compressor.Close()

	run := &run{
		settings:   settings,
		output:     cfg.Output,
		previous:   previous,
		compressor: compressor,
		readFile:   options.ReadFile,
		logger:     logger,
	}
	outcomes, err := run.processAll(ctx, files, symbols, cfg.WorkerCount())
	if err != nil {
		run.removeCreated(outcomes)
		return nil, err
	}

	next := &manifest.Manifest{
		Version: manifest.Version,
		Target:  settings.target,
		Codec:   settings.codec,
		Level:   settings.level,
		Records: make([]manifest.Record, len(outcomes)),
	}
	result := &Result{Manifest: next}
	for index, outcome := range outcomes {
		next.Records[index] = outcome.record
		if outcome.reused {
			result.Reused++
		} else {
			result.Compressed++
		}
	}
	next.Sort()

	// The depfile goes first: once the manifest is swapped the build
	// is committed and can no longer fail.
	if cfg.Depfile != "" {
		if err := writeDepfile(cfg.Depfile, manifest.Path(cfg.Output), files); err != nil {
			run.removeCreated(outcomes)
			return nil, err
		}
	}

	if err := manifest.Write(cfg.Output, next); err != nil {
		run.removeCreated(outcomes)
		return nil, err
	}

	result.Pruned = prune(cfg.Output, next, logger)

	original, compressed := next.TotalSizes()
	logger.Info("packed assets",
		"assets", len(next.Records),
		"compressed", result.Compressed,
		"reused", result.Reused,
		"pruned", result.Pruned,
		"original_size", original,
		"compressed_size", compressed,
		"target", settings.target.String(),
		"storage", settings.storage.String(),
		"output", cfg.Output,
		"duration", time.Since(started),
	)
	return result, nil
}

// settings are the parsed, validated build parameters.
type settings struct {
	target  target.Target
	codec   compress.Codec
	level   int
	storage manifest.Storage
}

func newSettings(cfg *config.Config) (settings, error) {
	parsedTarget, err := cfg.ParsedTarget()
	if err != nil {
		return settings{}, packerr.Config("target: %v", err)
	}
	codec, err := cfg.ParsedCodec()
	if err != nil {
		return settings{}, packerr.Config("codec: %v", err)
	}
	storage := manifest.StorageLinked
	if cfg.Inline || !parsedTarget.CanLink() {
		storage = manifest.StorageInline
	}
	return settings{target: parsedTarget, codec: codec, level: cfg.Level, storage: storage}, nil
}

// scanAssets scans the root, leaving out the output directory when it
// lives inside the root.
func scanAssets(cfg *config.Config) ([]scan.File, error) {
	files, err := scan.Scan(cfg.Root, cfg.Filter())
	if err != nil {
		return nil, err
	}

	root, rootErr := filepath.Abs(cfg.Root)
	output, outputErr := filepath.Abs(cfg.Output)
	if rootErr != nil || outputErr != nil {
		return files, nil
	}
	relative, err := filepath.Rel(root, output)
	if err != nil || relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
		return files, nil
	}
	if relative == "." {
		return nil, packerr.Config("output %s must not be the asset root", cfg.Output)
	}

	prefix := filepath.ToSlash(relative) + "/"
	kept := files[:0]
	for _, file := range files {
		if !strings.HasPrefix(file.Path, prefix) {
			kept = append(kept, file)
		}
	}
	return kept, nil
}

// loadPrevious reads the previous manifest for artifact reuse. A
// missing manifest is a first build; an unreadable one is logged and
// treated the same way, so every asset is rebuilt.
func loadPrevious(output string, logger *slog.Logger) *manifest.Manifest {
	previous, err := manifest.Read(output)
	if err == nil {
		return previous
	}
	if !manifest.IsNotExist(err) {
		logger.Warn("ignoring unreadable previous manifest; rebuilding every asset", "error", err)
	}
	return nil
}

// prune removes artifacts that the manifest does not reference. Only
// files shaped like artifacts are considered, so a misconfigured
// output directory never loses unrelated files. Failures are logged:
// the build itself already succeeded.
func prune(output string, current *manifest.Manifest, logger *slog.Logger) int {
	entries, err := os.ReadDir(output)
	if err != nil {
		logger.Warn("listing output for pruning", "output", output, "error", err)
		return 0
	}
	referenced := current.Files()
	pruned := 0
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !isArtifactName(name) {
			continue
		}
		if _, keep := referenced[name]; keep {
			continue
		}
		if err := os.Remove(filepath.Join(output, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("pruning stale artifact", "file", name, "error", err)
			continue
		}
		logger.Debug("pruned stale artifact", "file", name)
		pruned++
	}
	if pruned > 0 {
		atomicfile.SyncDirectory(output)
	}
	return pruned
}

func isArtifactName(name string) bool {
	if !strings.HasPrefix(name, symbol.Prefix) {
		return false
	}
	switch filepath.Ext(name) {
	case ".o", "." + compress.CodecZstd.Extension(), "." + compress.CodecLZ4.Extension():
		return true
	default:
		return false
	}
}
