// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package object writes relocatable object files that carry one
// compressed asset each.
//
// Every object holds a single read-only, allocated data section
// containing the blob and exports two global symbols: the asset symbol
// at the first byte of the section and its end marker (see
// symbol.End) one past the last byte. The platform linker places the
// section in the read-only image; cgo code in the consuming package
// declares the asset symbol as an extern byte array.
//
// Three formats are written directly, without an assembler or C
// toolchain:
//
//   - ELF (ET_REL), 32- and 64-bit, either byte order
//   - Mach-O (MH_OBJECT), 64-bit little-endian
//   - COFF, as consumed by MinGW and MSVC linkers
//
// Output is a pure function of (target, symbol, blob): no timestamps,
// no host paths, no padding with uninitialized memory. The package
// tests parse every emitted object back with debug/elf, debug/macho,
// and debug/pe.
package object

import (
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"

	"github.com/bureau-foundation/packed/lib/atomicfile"
	"github.com/bureau-foundation/packed/lib/packerr"
	"github.com/bureau-foundation/packed/lib/symbol"
	"github.com/bureau-foundation/packed/lib/target"
)

// Extension is the file extension of emitted objects.
const Extension = "o"

// SectionAlignment is the alignment of the data section in every
// format. Decoders do not need it; it keeps SIMD-friendly loads on the
// blob from straddling cache lines.
const SectionAlignment = 16

// Emit returns the object file bytes for blob on the given target,
// exporting sym and symbol.End(sym). The platform's C symbol prefix is
// applied here: callers pass the C-level name.
//
// Errors are classified as packerr.KindObjectEmit.
func Emit(tgt target.Target, sym string, blob []byte) ([]byte, error) {
	if err := symbol.Validate(sym); err != nil {
		return nil, packerr.Wrap(packerr.KindObjectEmit, sym, err)
	}
	machine, err := tgt.Machine()
	if err != nil {
		return nil, packerr.Wrap(packerr.KindObjectEmit, sym, err)
	}
	if err := checkSize(tgt, machine, uint64(len(blob))); err != nil {
		return nil, packerr.Wrap(packerr.KindObjectEmit, sym, err)
	}

	names := symbolNames{
		start: tgt.SymbolPrefix() + sym,
		end:   tgt.SymbolPrefix() + symbol.End(sym),
	}

	switch tgt.Format() {
	case target.FormatELF:
		return emitELF(machine, sym, names, blob), nil
	case target.FormatMachO:
		return emitMachO(tgt, machine, names, blob), nil
	case target.FormatCOFF:
		return emitCOFF(machine, names, blob), nil
	default:
		return nil, packerr.New(packerr.KindObjectEmit, sym,
			"target %s cannot link objects; use inline storage", tgt)
	}
}

// WriteFile emits the object and writes it atomically to path.
func WriteFile(path string, tgt target.Target, sym string, blob []byte) error {
	data, err := Emit(tgt, sym, blob)
	if err != nil {
		return err
	}
	if err := atomicfile.Write(path, data, fileMode); err != nil {
		return packerr.Wrap(packerr.KindObjectEmit, path, err)
	}
	return nil
}

// symbolNames are the linker-level names after the platform prefix.
type symbolNames struct {
	start string
	end   string
}

// encoder appends fixed-width fields in one byte order.
type encoder struct {
	order  binary.AppendByteOrder
	buffer []byte
}

func (e *encoder) u8(value uint8)   { e.buffer = append(e.buffer, value) }
func (e *encoder) u16(value uint16) { e.buffer = e.order.AppendUint16(e.buffer, value) }
func (e *encoder) u32(value uint32) { e.buffer = e.order.AppendUint32(e.buffer, value) }
func (e *encoder) u64(value uint64) { e.buffer = e.order.AppendUint64(e.buffer, value) }

func (e *encoder) bytes(value []byte) { e.buffer = append(e.buffer, value...) }

// fixed appends value truncated or zero-padded to width bytes.
func (e *encoder) fixed(value string, width int) {
	field := make([]byte, width)
	copy(field, value)
	e.buffer = append(e.buffer, field...)
}

// align zero-pads to a multiple of alignment.
func (e *encoder) align(alignment int) {
	for len(e.buffer)%alignment != 0 {
		e.buffer = append(e.buffer, 0)
	}
}

func alignUp(value, alignment int) int {
	return (value + alignment - 1) / alignment * alignment
}

// stringTable accumulates NUL-terminated names and returns their
// offsets.
type stringTable struct {
	data []byte
}

func newStringTable(initial []byte) *stringTable {
	return &stringTable{data: append([]byte(nil), initial...)}
}

func (s *stringTable) add(name string) uint32 {
	offset := uint32(len(s.data))
	s.data = append(s.data, name...)
	s.data = append(s.data, 0)
	return offset
}

func checkedLength(blob []byte) uint32 {
	if uint64(len(blob)) > math.MaxUint32 {
		panic(fmt.Sprintf("object: blob length %d not checked before encoding", len(blob)))
	}
	return uint32(len(blob))
}

// fileMode is the mode for emitted artifacts.
const fileMode fs.FileMode = 0644

// maxHeaderSize bounds everything an object holds besides the blob:
// headers, load commands, symbol and string tables.
const maxHeaderSize = 64 << 10

// checkSize rejects blobs whose offsets or sizes would not fit the
// object's 32-bit fields: every 32-bit ELF field, and the file offsets
// of Mach-O load commands and COFF headers on all architectures.
func checkSize(tgt target.Target, machine target.Machine, size uint64) error {
	limited := machine.Bits == 32 ||
		tgt.Format() == target.FormatCOFF ||
		tgt.Format() == target.FormatMachO
	if limited && size > math.MaxUint32-maxHeaderSize {
		return fmt.Errorf("blob of %d bytes exceeds the 4 GiB limit of %s objects", size, tgt)
	}
	return nil
}
