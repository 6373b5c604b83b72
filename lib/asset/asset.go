// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package asset is the runtime half of packed: it turns the compressed
// bytes of a packed asset back into the original contents.
//
// Generated code (see lib/resolve) describes every referenced asset as
// a [Source]. There are exactly two kinds:
//
//   - [Linked]: the blob lives in a data section of a relocatable
//     object passed to the external linker; Data aliases that section
//     through cgo.
//   - [Inline]: the blob is a string literal in the generated file,
//     for targets that cannot link objects (js/wasm, wasip1/wasm) or
//     builds that force inline storage.
//
// Both are consumed by the same [Decode]. Decoding is stateless: each
// call allocates a fresh output buffer and a fresh decoder, and the
// package keeps no cache. Callers that want to decode once use [Lazy],
// which hands them an explicit single-assignment cell to own.
package asset

import (
	"fmt"
	"sync"

	"github.com/bureau-foundation/packed/lib/compress"
	"github.com/bureau-foundation/packed/lib/packerr"
)

// Codec identifies a blob's frame codec. Re-exported so generated code
// imports only this package.
type Codec = compress.Codec

// Codecs usable in a Source.
const (
	Zstd = compress.CodecZstd
	LZ4  = compress.CodecLZ4
)

// Source is a packed asset's compressed bytes plus what is needed to
// decode them. The set of implementations is closed: [Linked] and
// [Inline].
type Source interface {
	blob() []byte
	codec() Codec
	size() int
	String() string
}

// Linked is an asset delivered by the linker.
type Linked struct {
	// Symbol is the C-level symbol bounding the blob.
	Symbol string

	// Data is the linked section, normally an unsafe.Slice over the
	// cgo-declared symbol.
	Data []byte

	Codec Codec

	// Size is the original, uncompressed length.
	Size int
}

func (l Linked) blob() []byte   { return l.Data }
func (l Linked) codec() Codec   { return l.Codec }
func (l Linked) size() int      { return l.Size }
func (l Linked) String() string { return "linked symbol " + l.Symbol }

// Inline is an asset embedded directly in generated Go code.
type Inline struct {
	Data  []byte
	Codec Codec

	// Size is the original, uncompressed length.
	Size int
}

func (i Inline) blob() []byte   { return i.Data }
func (i Inline) codec() Codec   { return i.Codec }
func (i Inline) size() int      { return i.Size }
func (i Inline) String() string { return fmt.Sprintf("inline %s blob of %d bytes", i.Codec, len(i.Data)) }

// DecodeError reports a blob that did not decode to exactly its
// recorded size.
type DecodeError struct {
	// Source describes the asset (see Source.String).
	Source string

	// Expected is the recorded original size.
	Expected int

	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s (expected %d bytes): %v", e.Source, e.Expected, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrorKind classifies the error for packerr.KindOf.
func (e *DecodeError) ErrorKind() packerr.Kind { return packerr.KindDecode }

// Decode decompresses src into a newly allocated buffer of exactly the
// recorded size. Any disagreement between the frame and the recorded
// size is a *DecodeError; the output is never truncated or padded.
func Decode(src Source) ([]byte, error) {
	if src == nil {
		return nil, &DecodeError{Source: "nil source", Err: fmt.Errorf("no source")}
	}
	data, err := compress.Decompress(src.codec(), src.blob(), src.size())
	if err != nil {
		return nil, &DecodeError{Source: src.String(), Expected: src.size(), Err: err}
	}
	return data, nil
}

// Lazy returns a function that decodes src on its first call and
// returns the same result, including any error, on every later call.
// The cell belongs to the caller; this package holds no reference to
// it.
func Lazy(src Source) func() ([]byte, error) {
	return sync.OnceValues(func() ([]byte, error) {
		return Decode(src)
	})
}

// Unresolved is returned by generated lookup functions for a path that
// was not packed. The resolver rejects such references at generation
// time, so reaching it means the generated file is stale.
func Unresolved(path string) error {
	return packerr.New(packerr.KindLookup, path, "asset not packed; rerun packed resolve")
}
