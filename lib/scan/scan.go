// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package scan enumerates the asset files under a root.
//
// The result is a deterministic list of slash-separated paths relative
// to the root, sorted in byte order, independent of the host's path
// separator and directory iteration order. Symbolic links to regular
// files are followed; symbolic links to directories are not descended
// into. Anything that is neither a regular file nor a directory is an
// error, so a build never silently skips an asset it was told to pack.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bureau-foundation/packed/lib/packerr"
)

// Filter selects files by glob pattern. Patterns use path.Match
// syntax with three placement rules:
//
//   - a pattern without '/' matches the file's base name ("*.png")
//   - a pattern with '/' matches the whole relative path ("img/*.png")
//   - a pattern ending in "/**" matches everything beneath a directory
//     ("vendor/**")
//
// An empty Include list includes every file. Exclude wins over Include.
type Filter struct {
	Include []string
	Exclude []string
}

// Validate checks every pattern's syntax.
func (f Filter) Validate() error {
	for _, pattern := range append(append([]string(nil), f.Include...), f.Exclude...) {
		if err := validatePattern(pattern); err != nil {
			return packerr.Config("%v", err)
		}
	}
	return nil
}

func validatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("empty filter pattern")
	}
	if _, err := path.Match(strings.TrimSuffix(pattern, "/**"), ""); err != nil {
		return fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
	}
	return nil
}

// Matches reports whether a relative path passes the filter. Patterns
// must already be valid; an invalid pattern never matches.
func (f Filter) Matches(relativePath string) bool {
	for _, pattern := range f.Exclude {
		if matchPattern(pattern, relativePath) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pattern := range f.Include {
		if matchPattern(pattern, relativePath) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, relativePath string) bool {
	if prefix, found := strings.CutSuffix(pattern, "/**"); found {
		for directory := path.Dir(relativePath); directory != "."; directory = path.Dir(directory) {
			if matched, _ := path.Match(prefix, directory); matched {
				return true
			}
		}
		return false
	}
	if !strings.Contains(pattern, "/") {
		matched, _ := path.Match(pattern, path.Base(relativePath))
		return matched
	}
	matched, _ := path.Match(pattern, relativePath)
	return matched
}

// File is one scanned asset.
type File struct {
	// Path is slash-separated and relative to the root. For a
	// single-file root it is the file's base name.
	Path string

	// Source is the host path to read the asset from.
	Source string

	// Size is the size at scan time. The packer reads the file again
	// and trusts what it reads, not this value.
	Size int64
}

// Scan enumerates files under root that pass filter. The root may be a
// directory or a single regular file. Errors are classified as
// packerr.KindScan (or KindConfig for invalid patterns).
func Scan(root string, filter Filter) ([]File, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, packerr.Wrap(packerr.KindScan, root, err)
	}
	if info.Mode().IsRegular() {
		name := filepath.Base(root)
		if !filter.Matches(name) {
			return nil, nil
		}
		return []File{{Path: name, Source: root, Size: info.Size()}}, nil
	}
	if !info.IsDir() {
		return nil, packerr.New(packerr.KindScan, root, "unsupported file type %s", info.Mode().Type())
	}

	// WalkDir does not follow a symlinked root.
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, packerr.Wrap(packerr.KindScan, root, err)
	}

	var files []File
	err = filepath.WalkDir(walkRoot, func(hostPath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return packerr.Wrap(packerr.KindScan, hostPath, err)
		}
		if entry.IsDir() {
			return nil
		}

		relative, err := filepath.Rel(walkRoot, hostPath)
		if err != nil {
			return packerr.Wrap(packerr.KindScan, hostPath, err)
		}
		relative = filepath.ToSlash(relative)
		if !filter.Matches(relative) {
			return nil
		}

		// Stat follows symlinks; WalkDir's entry does not.
		info, err := os.Stat(hostPath)
		if err != nil {
			return packerr.Wrap(packerr.KindScan, hostPath, err)
		}
		switch {
		case info.Mode().IsRegular():
		case info.IsDir():
			// A symlink to a directory; not followed.
			return nil
		default:
			return packerr.New(packerr.KindScan, relative, "unsupported file type %s", info.Mode().Type())
		}

		files = append(files, File{Path: relative, Source: hostPath, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Paths returns the relative paths of files, in order.
func Paths(files []File) []string {
	paths := make([]string, len(files))
	for index, file := range files {
		paths[index] = file.Path
	}
	return paths
}
