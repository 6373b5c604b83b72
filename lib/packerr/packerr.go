// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package packerr defines the error taxonomy shared by the packer,
// the resolver, and the runtime decoder.
//
// Every failure the packed pipeline reports carries a [Kind] so that
// callers (the CLI, a build orchestrator, tests) can classify it
// without parsing message text. The general carrier is [Error], which
// wraps an inner error and optionally names the asset or file path it
// concerns. Packages with richer failure detail define their own
// types (symbol.CollisionError, resolve.LookupError, asset.DecodeError)
// and implement the [Kinded] interface so that [KindOf] still finds
// their kind through any amount of wrapping.
//
// This package has no dependencies on other packed packages.
package packerr

import (
	"errors"
	"fmt"
)

// Kind classifies a packed failure.
type Kind string

const (
	// KindConfig indicates invalid packer configuration: level out
	// of range, unknown codec, bad filter pattern, unusable root.
	// Reported before any output is produced.
	KindConfig Kind = "config"

	// KindScan indicates an I/O failure while enumerating or reading
	// asset files.
	KindScan Kind = "scan"

	// KindCompression indicates the codec failed to produce a frame.
	KindCompression Kind = "compression"

	// KindSymbolCollision indicates two distinct asset paths derived
	// the same linker symbol.
	KindSymbolCollision Kind = "symbol_collision"

	// KindObjectEmit indicates an object or blob artifact could not be
	// produced: unsupported platform or a write failure.
	KindObjectEmit Kind = "object_emit"

	// KindManifestIO indicates the manifest could not be persisted,
	// read, or decoded.
	KindManifestIO Kind = "manifest_io"

	// KindLookup indicates a source reference names a path that is
	// absent from the manifest.
	KindLookup Kind = "lookup"

	// KindDecode indicates a blob could not be decompressed to its
	// recorded length.
	KindDecode Kind = "decode"
)

// Kinded is implemented by error types that carry a [Kind].
type Kinded interface {
	ErrorKind() Kind
}

// Error is a classified packed failure. Path names the asset (relative
// path) or file the failure concerns and may be empty.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap returns the underlying error so errors.Is and errors.As walk
// the full chain.
func (e *Error) Unwrap() error { return e.Err }

// ErrorKind returns the classification.
func (e *Error) ErrorKind() Kind { return e.Kind }

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, path string, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err. Returns nil when err is nil.
func Wrap(kind Kind, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Path: path, Err: err}
}

// Config creates a configuration error.
func Config(format string, args ...any) *Error {
	return New(KindConfig, "", format, args...)
}

// KindOf returns the kind of the first classified error in err's chain,
// or "" when none is classified. Joined errors (errors.Join) report the
// kind of their first classified member.
func KindOf(err error) Kind {
	var kinded Kinded
	if errors.As(err, &kinded) {
		return kinded.ErrorKind()
	}
	return ""
}

// Is reports whether err's chain contains a failure of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
