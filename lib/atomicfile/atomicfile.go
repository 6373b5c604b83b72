// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package atomicfile replaces files so readers never observe a partial
// write.
//
// [Write] writes to a uniquely named temporary file in the destination
// directory, fsyncs it, renames it over the destination, and fsyncs the
// directory so the rename survives power loss. Concurrent writers to
// different destinations in the same directory never share a temporary
// file. A crash at any point leaves either the old file or the new one,
// plus at most one stray temporary file that [RemoveTemporaries] cleans
// up.
package atomicfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// temporarySuffix marks temporary files for RemoveTemporaries. The
// names also start with a dot.
const temporarySuffix = ".partial"

// Write atomically replaces path with data. The parent directory must
// already exist. The file is created with perm (subject to umask).
func Write(path string, data []byte, perm fs.FileMode) error {
	directory := filepath.Dir(path)
	file, err := os.CreateTemp(directory, "."+filepath.Base(path)+".*"+temporarySuffix)
	if err != nil {
		return fmt.Errorf("creating temporary file for %s: %w", path, err)
	}
	temporaryPath := file.Name()

	// Remove the temporary file on any failure below.
	success := false
	defer func() {
		if !success {
			file.Close()
			os.Remove(temporaryPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("writing temporary file for %s: %w", path, err)
	}
	if err := file.Chmod(perm); err != nil {
		return fmt.Errorf("setting mode on temporary file for %s: %w", path, err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("syncing temporary file for %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing temporary file for %s: %w", path, err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		return fmt.Errorf("renaming %s into place: %w", path, err)
	}
	success = true

	SyncDirectory(directory)
	return nil
}

// SyncDirectory fsyncs a directory so that renames and removals inside
// it are durable. Best effort: some platforms cannot open directories
// for sync, and the data itself is already on disk.
func SyncDirectory(directory string) {
	handle, err := os.Open(directory)
	if err != nil {
		return
	}
	handle.Sync()
	handle.Close()
}

// IsTemporary reports whether name looks like a temporary file left by
// an interrupted Write.
func IsTemporary(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, temporarySuffix)
}

// RemoveTemporaries deletes temporary files left in directory by
// interrupted writes. Only call this while holding whatever lock
// serializes writers to the directory.
func RemoveTemporaries(directory string) error {
	entries, err := os.ReadDir(directory)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("listing %s: %w", directory, err)
	}
	var errs []error
	for _, entry := range entries {
		if entry.Type().IsRegular() && IsTemporary(entry.Name()) {
			if err := os.Remove(filepath.Join(directory, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
