// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package packer

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bureau-foundation/packed/lib/atomicfile"
	"github.com/bureau-foundation/packed/lib/compress"
	"github.com/bureau-foundation/packed/lib/digest"
	"github.com/bureau-foundation/packed/lib/manifest"
	"github.com/bureau-foundation/packed/lib/object"
	"github.com/bureau-foundation/packed/lib/packerr"
	"github.com/bureau-foundation/packed/lib/scan"
)

// run holds the state shared by the workers of one Pack call. Every
// field is read-only while workers are running; each worker writes
// only its own outcome slot.
type run struct {
	settings   settings
	output     string
	previous   *manifest.Manifest
	compressor *compress.Compressor
	readFile   func(string) ([]byte, error)
	logger     *slog.Logger
}

// outcome is one asset's result.
type outcome struct {
	record manifest.Record
	reused bool

	// created is set when this run wrote an artifact that did not
	// exist before. Only such files are removed after a failure.
	created bool
}

// processAll processes every asset on a pool of workers. Outcomes are
// indexed like files. The first failure cancels the remaining work
// and is returned; the outcomes slice is still returned so the caller
// can clean up artifacts that were created.
func (r *run) processAll(ctx context.Context, files []scan.File, symbols []string, workers int) ([]outcome, error) {
	outcomes := make([]outcome, len(files))
	if workers > len(files) {
		workers = len(files)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var (
		waitGroup sync.WaitGroup
		errOnce   sync.Once
		firstErr  error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < workers; i++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			for index := range jobs {
				if ctx.Err() != nil {
					continue
				}
				result, err := r.process(files[index], symbols[index])
				outcomes[index] = result
				if err != nil {
					fail(err)
				}
			}
		}()
	}

feed:
	for index := range files {
		select {
		case jobs <- index:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	waitGroup.Wait()

	if firstErr != nil {
		return outcomes, firstErr
	}
	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// process reads, fingerprints, and either reuses or builds one asset.
func (r *run) process(file scan.File, sym string) (outcome, error) {
	data, err := r.readFile(file.Source)
	if err != nil {
		return outcome{}, packerr.Wrap(packerr.KindScan, file.Path, err)
	}

	fingerprint := digest.Fingerprint(data, digest.FingerprintParams{
		Codec:  r.settings.codec.String(),
		Level:  r.settings.level,
		Target: r.settings.target.String(),
		Inline: r.settings.storage == manifest.StorageInline,
	})
	name := manifest.ArtifactName(sym, fingerprint, r.settings.storage, r.settings.codec)

	if record, ok := r.reusable(file.Path, sym, fingerprint, name); ok {
		r.logger.Debug("reusing artifact",
			"path", file.Path,
			"symbol", sym,
			"original_size", record.OriginalSize,
			"compressed_size", record.CompressedSize,
			"reused", true,
		)
		return outcome{record: record, reused: true}, nil
	}

	blob, err := r.compressor.Compress(data)
	if err != nil {
		return outcome{}, packerr.Wrap(packerr.KindCompression, file.Path, err)
	}

	path := filepath.Join(r.output, name)
	_, statErr := os.Stat(path)
	existed := statErr == nil

	switch r.settings.storage {
	case manifest.StorageLinked:
		err = object.WriteFile(path, r.settings.target, sym, blob)
	default:
		err = atomicfile.Write(path, blob, 0644)
		if err != nil {
			err = packerr.Wrap(packerr.KindManifestIO, path, err)
		}
	}
	if err != nil {
		return outcome{}, err
	}

	record := manifest.Record{
		Path:           file.Path,
		Symbol:         sym,
		OriginalSize:   int64(len(data)),
		CompressedSize: int64(len(blob)),
		Storage:        r.settings.storage,
		File:           name,
		Fingerprint:    fingerprint,
	}
	r.logger.Debug("packed asset",
		"path", file.Path,
		"symbol", sym,
		"original_size", record.OriginalSize,
		"compressed_size", record.CompressedSize,
		"reused", false,
	)
	return outcome{record: record, created: !existed}, nil
}

// reusable returns the previous record for path when its artifact can
// be kept as is.
func (r *run) reusable(path, sym string, fingerprint digest.Hash, name string) (manifest.Record, bool) {
	if r.previous == nil {
		return manifest.Record{}, false
	}
	record, ok := r.previous.Lookup(path)
	if !ok {
		return manifest.Record{}, false
	}
	if record.Fingerprint != fingerprint || record.Symbol != sym ||
		record.Storage != r.settings.storage || record.File != name {
		return manifest.Record{}, false
	}
	if _, err := os.Stat(filepath.Join(r.output, record.File)); err != nil {
		return manifest.Record{}, false
	}
	return record, true
}

// removeCreated deletes artifacts written by this run that did not
// exist before it, after a failure. Files the previous manifest
// references are never touched.
func (r *run) removeCreated(outcomes []outcome) {
	var kept map[string]struct{}
	if r.previous != nil {
		kept = r.previous.Files()
	}
	for _, result := range outcomes {
		if !result.created {
			continue
		}
		if _, referenced := kept[result.record.File]; referenced {
			continue
		}
		path := filepath.Join(r.output, result.record.File)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("removing artifact of failed build", "file", result.record.File, "error", err)
		}
	}
}
