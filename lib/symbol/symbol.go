// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package symbol derives the linker symbol names that bound each
// packed asset.
//
// A symbol has three parts:
//
//	packed_<sanitized path prefix>_<path digest>
//
// The sanitized prefix keeps symbols readable in nm and linker error
// output: every byte outside [A-Za-z0-9_] becomes '_', truncated to
// [MaxReadableLength] bytes. The digest suffix is the first 64 bits of
// the BLAKE3 keyed path digest (see lib/digest), which makes symbols
// for distinct paths distinct even when their sanitized prefixes agree
// ("a-b.txt" and "a_b.txt"). Derivation depends only on the relative
// path, so symbols are stable across rebuilds and machines.
//
// Stable is not proven unique: [Assign] derives every symbol for a
// build up front and reports any collision as a [*CollisionError]
// before a single artifact is written.
package symbol

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/packed/lib/digest"
	"github.com/bureau-foundation/packed/lib/packerr"
)

const (
	// Prefix starts every derived symbol.
	Prefix = "packed_"

	// EndSuffix is appended to a symbol to name the end-of-blob
	// marker exported next to it.
	EndSuffix = "_end"

	// MaxReadableLength bounds the sanitized path portion.
	MaxReadableLength = 40
)

// DeriveFunc maps a relative asset path to a symbol name.
type DeriveFunc func(relativePath string) string

// Derive returns the default symbol for a relative asset path.
func Derive(relativePath string) string {
	return Prefix + sanitize(relativePath) + "_" + digest.HashPath(relativePath).Short()
}

// End returns the end marker symbol for sym.
func End(sym string) string {
	return sym + EndSuffix
}

func sanitize(relativePath string) string {
	var builder strings.Builder
	for index := 0; index < len(relativePath) && builder.Len() < MaxReadableLength; index++ {
		character := relativePath[index]
		if isSymbolByte(character) {
			builder.WriteByte(character)
		} else {
			builder.WriteByte('_')
		}
	}
	return builder.String()
}

func isSymbolByte(character byte) bool {
	return character == '_' ||
		(character >= 'a' && character <= 'z') ||
		(character >= 'A' && character <= 'Z') ||
		(character >= '0' && character <= '9')
}

// Validate checks that name is a valid C identifier, which is the
// alphabet every supported object format and the cgo extern
// declarations accept.
func Validate(name string) error {
	if name == "" {
		return fmt.Errorf("empty symbol name")
	}
	if name[0] >= '0' && name[0] <= '9' {
		return fmt.Errorf("symbol %q starts with a digit", name)
	}
	for index := 0; index < len(name); index++ {
		if !isSymbolByte(name[index]) {
			return fmt.Errorf("symbol %q contains invalid byte %q at offset %d", name, name[index], index)
		}
	}
	return nil
}

// CollisionError reports two asset paths that derived the same symbol.
type CollisionError struct {
	Symbol string
	First  string
	Second string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("symbol collision: %q and %q both derive %s", e.First, e.Second, e.Symbol)
}

// ErrorKind classifies the error for packerr.KindOf.
func (e *CollisionError) ErrorKind() packerr.Kind {
	return packerr.KindSymbolCollision
}

// Assign derives symbols for paths with derive (nil selects [Derive])
// and returns them in input order. Both the start symbol and its end
// marker take part in the uniqueness check, so a path whose symbol
// happens to equal another's end marker is also rejected.
func Assign(paths []string, derive DeriveFunc) ([]string, error) {
	if derive == nil {
		derive = Derive
	}

	symbols := make([]string, len(paths))
	owners := make(map[string]string, 2*len(paths))
	for index, relativePath := range paths {
		sym := derive(relativePath)
		if err := Validate(sym); err != nil {
			return nil, packerr.Wrap(packerr.KindObjectEmit, relativePath, err)
		}
		for _, name := range []string{sym, End(sym)} {
			if owner, exists := owners[name]; exists {
				first, second := owner, relativePath
				if second < first {
					first, second = second, first
				}
				return nil, &CollisionError{Symbol: name, First: first, Second: second}
			}
			owners[name] = relativePath
		}
		symbols[index] = sym
	}
	return symbols, nil
}
