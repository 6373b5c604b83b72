// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"encoding/binary"

	"github.com/bureau-foundation/packed/lib/target"
)

// COFF constants used by the writer.
const (
	coffFileHeaderSize    = 20
	coffSectionHeaderSize = 40
	coffSymbolSize        = 18

	imageScnCntInitializedData = 0x00000040
	imageScnAlign16Bytes       = 0x00500000
	imageScnMemRead            = 0x40000000

	imageSymClassExternal = 2
	imageSymClassStatic   = 3
)

// emitCOFF writes a COFF object with one .rdata section. The symbol
// table holds the static section symbol (with its section-definition
// auxiliary record) followed by the two external symbols. Names longer
// than eight bytes live in the string table.
func emitCOFF(machine target.Machine, names symbolNames, blob []byte) []byte {
	length := checkedLength(blob)
	dataOffset := alignUp(coffFileHeaderSize+coffSectionHeaderSize, SectionAlignment)
	symbolOffset := alignUp(dataOffset+len(blob), 4)
	const symbolCount = 4 // section symbol, its aux record, start, end

	strings := newStringTable([]byte{0, 0, 0, 0})

	out := &encoder{order: binary.LittleEndian}

	out.u16(machine.COFFMachine)
	out.u16(1) // NumberOfSections
	out.u32(0) // TimeDateStamp
	out.u32(uint32(symbolOffset))
	out.u32(symbolCount)
	out.u16(0) // SizeOfOptionalHeader
	out.u16(0) // Characteristics

	out.fixed(".rdata", 8)
	out.u32(0) // VirtualSize
	out.u32(0) // VirtualAddress
	out.u32(length)
	out.u32(uint32(dataOffset))
	out.u32(0) // PointerToRelocations
	out.u32(0) // PointerToLinenumbers
	out.u16(0) // NumberOfRelocations
	out.u16(0) // NumberOfLinenumbers
	out.u32(imageScnCntInitializedData | imageScnAlign16Bytes | imageScnMemRead)

	out.align(SectionAlignment)
	out.bytes(blob)
	out.align(4)

	// Section symbol and its auxiliary section definition.
	out.fixed(".rdata", 8)
	out.u32(0) // Value
	out.u16(1) // SectionNumber, 1-based
	out.u16(0) // Type
	out.u8(imageSymClassStatic)
	out.u8(1) // NumberOfAuxSymbols
	out.u32(length)
	out.u16(0) // NumberOfRelocations
	out.u16(0) // NumberOfLinenumbers
	out.u32(0) // CheckSum
	out.u16(0) // Number
	out.u8(0)  // Selection
	out.fixed("", 3)

	for _, entry := range []struct {
		name  string
		value uint32
	}{
		{names.start, 0},
		{names.end, length},
	} {
		coffSymbolName(out, strings, entry.name)
		out.u32(entry.value)
		out.u16(1)
		out.u16(0)
		out.u8(imageSymClassExternal)
		out.u8(0)
	}

	binary.LittleEndian.PutUint32(strings.data[0:4], uint32(len(strings.data)))
	out.bytes(strings.data)
	return out.buffer
}

// coffSymbolName writes the 8-byte name field: the name itself when it
// fits, otherwise four zero bytes and a string table offset.
func coffSymbolName(out *encoder, strings *stringTable, name string) {
	if len(name) <= 8 {
		out.fixed(name, 8)
		return
	}
	out.u32(0)
	out.u32(strings.add(name))
}
