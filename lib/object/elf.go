// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"github.com/bureau-foundation/packed/lib/target"
)

// ELF constants used by the writer.
const (
	elfClass32   = 1
	elfClass64   = 2
	elfData2LSB  = 1
	elfData2MSB  = 2
	elfVersion   = 1
	elfTypeRel   = 1
	shtProgbits  = 1
	shtSymtab    = 2
	shtStrtab    = 3
	shfAlloc     = 0x2
	stbLocal     = 0
	stbGlobal    = 1
	sttObject    = 1
	sttSection   = 3
	stvDefault   = 0
	elfSectionN  = 6
	elfShstrndx  = 5
	elfStrtabIdx = 4
)

// elfLayout holds the per-class structure sizes.
type elfLayout struct {
	headerSize  int
	sectionSize int
	symbolSize  int
	wordAlign   int
}

var (
	elf32Layout = elfLayout{headerSize: 52, sectionSize: 40, symbolSize: 16, wordAlign: 4}
	elf64Layout = elfLayout{headerSize: 64, sectionSize: 64, symbolSize: 24, wordAlign: 8}
)

// elfSection is one section header before encoding.
type elfSection struct {
	name      uint32
	kind      uint32
	flags     uint64
	offset    uint64
	size      uint64
	link      uint32
	info      uint32
	alignment uint64
	entrySize uint64
}

// elfSymbol is one symbol table entry before encoding.
type elfSymbol struct {
	name    uint32
	info    uint8
	section uint16
	value   uint64
	size    uint64
}

// emitELF writes an ET_REL object. Section order:
//
//	0 null
//	1 .rodata.<sym>   blob, SHF_ALLOC
//	2 .note.GNU-stack marks the stack non-executable
//	3 .symtab         null, section symbol, <sym>, <sym>_end
//	4 .strtab
//	5 .shstrtab
func emitELF(machine target.Machine, sym string, names symbolNames, blob []byte) []byte {
	layout := elf64Layout
	class := uint8(elfClass64)
	if machine.Bits == 32 {
		layout = elf32Layout
		class = elfClass32
	}
	data := uint8(elfData2LSB)
	if machine.ByteOrder.String() == "BigEndian" {
		data = elfData2MSB
	}
	length := uint64(len(blob))

	sectionNames := newStringTable([]byte{0})
	rodataName := sectionNames.add(".rodata." + sym)
	noteName := sectionNames.add(".note.GNU-stack")
	symtabName := sectionNames.add(".symtab")
	strtabName := sectionNames.add(".strtab")
	shstrtabName := sectionNames.add(".shstrtab")

	symbolNamesTable := newStringTable([]byte{0})
	startName := symbolNamesTable.add(names.start)
	endName := symbolNamesTable.add(names.end)

	symbols := []elfSymbol{
		{},
		{info: stbLocal<<4 | sttSection, section: 1},
		{name: startName, info: stbGlobal<<4 | sttObject, section: 1, size: length},
		{name: endName, info: stbGlobal<<4 | sttObject, section: 1, value: length},
	}

	// File layout: header, blob, symtab, strtab, shstrtab, section
	// headers.
	rodataOffset := alignUp(layout.headerSize, SectionAlignment)
	symtabOffset := alignUp(rodataOffset+len(blob), layout.wordAlign)
	symtabSize := len(symbols) * layout.symbolSize
	strtabOffset := symtabOffset + symtabSize
	shstrtabOffset := strtabOffset + len(symbolNamesTable.data)
	sectionHeaderOffset := alignUp(shstrtabOffset+len(sectionNames.data), layout.wordAlign)

	sections := []elfSection{
		{},
		{
			name: rodataName, kind: shtProgbits, flags: shfAlloc,
			offset: uint64(rodataOffset), size: length, alignment: SectionAlignment,
		},
		{
			name: noteName, kind: shtProgbits,
			offset: uint64(rodataOffset + len(blob)), alignment: 1,
		},
		{
			name: symtabName, kind: shtSymtab,
			offset: uint64(symtabOffset), size: uint64(symtabSize),
			link: elfStrtabIdx, info: 2, // index of the first global symbol
			alignment: uint64(layout.wordAlign), entrySize: uint64(layout.symbolSize),
		},
		{
			name: strtabName, kind: shtStrtab,
			offset: uint64(strtabOffset), size: uint64(len(symbolNamesTable.data)), alignment: 1,
		},
		{
			name: shstrtabName, kind: shtStrtab,
			offset: uint64(shstrtabOffset), size: uint64(len(sectionNames.data)), alignment: 1,
		},
	}

	out := &encoder{order: machine.ByteOrder}

	// e_ident
	out.bytes([]byte{0x7f, 'E', 'L', 'F', class, data, elfVersion, 0})
	out.fixed("", 8)

	out.u16(elfTypeRel)
	out.u16(machine.ELFMachine)
	out.u32(elfVersion)
	out.word(class, 0) // e_entry
	out.word(class, 0) // e_phoff
	out.word(class, uint64(sectionHeaderOffset))
	out.u32(machine.ELFFlags)
	out.u16(uint16(layout.headerSize))
	out.u16(0) // e_phentsize
	out.u16(0) // e_phnum
	out.u16(uint16(layout.sectionSize))
	out.u16(elfSectionN)
	out.u16(elfShstrndx)

	out.align(SectionAlignment)
	out.bytes(blob)

	out.align(layout.wordAlign)
	for _, entry := range symbols {
		if class == elfClass64 {
			out.u32(entry.name)
			out.u8(entry.info)
			out.u8(stvDefault)
			out.u16(entry.section)
			out.u64(entry.value)
			out.u64(entry.size)
		} else {
			out.u32(entry.name)
			out.u32(uint32(entry.value))
			out.u32(uint32(entry.size))
			out.u8(entry.info)
			out.u8(stvDefault)
			out.u16(entry.section)
		}
	}
	out.bytes(symbolNamesTable.data)
	out.bytes(sectionNames.data)

	out.align(layout.wordAlign)
	for _, section := range sections {
		out.u32(section.name)
		out.u32(section.kind)
		out.word(class, section.flags)
		out.word(class, 0) // sh_addr
		out.word(class, section.offset)
		out.word(class, section.size)
		out.u32(section.link)
		out.u32(section.info)
		out.word(class, section.alignment)
		out.word(class, section.entrySize)
	}
	return out.buffer
}

// word appends an ELF address-sized field.
func (e *encoder) word(class uint8, value uint64) {
	if class == elfClass64 {
		e.u64(value)
	} else {
		e.u32(uint32(value))
	}
}
