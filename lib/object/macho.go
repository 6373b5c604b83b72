// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"github.com/bureau-foundation/packed/lib/target"
)

// Mach-O constants used by the writer.
const (
	machOMagic64        = 0xfeedfacf
	machOTypeObject     = 0x1
	lcSegment64         = 0x19
	lcSymtab            = 0x2
	lcDysymtab          = 0xb
	lcBuildVersion      = 0x32
	vmProtReadWriteExec = 0x7
	nSect               = 0xe
	nExt                = 0x1

	machOHeaderSize       = 32
	segmentCommandSize    = 72
	machOSectionSize      = 80
	buildVersionSize      = 24
	symtabCommandSize     = 24
	dysymtabCommandSize   = 80
	nlistSize             = 16
	machOCommandCount     = 4
	machOSectionAlignLog2 = 4
)

// Platform identifiers and minimum versions for LC_BUILD_VERSION.
// Versions are encoded xxxx.yy.zz in nibbles: 11.0 is 0x000b0000.
const (
	platformMacOS        = 1
	platformIOS          = 2
	platformIOSSimulator = 7
	minimumMacOS         = 0x000b0000
	minimumIOS           = 0x000c0000
)

func buildVersion(tgt target.Target) (platform, minimum uint32) {
	if tgt.OS == "ios" {
		if tgt.Arch == "amd64" {
			return platformIOSSimulator, minimumIOS
		}
		return platformIOS, minimumIOS
	}
	return platformMacOS, minimumMacOS
}

// emitMachO writes an MH_OBJECT with one unnamed segment holding the
// __TEXT,__const section. Load commands: LC_SEGMENT_64,
// LC_BUILD_VERSION, LC_SYMTAB, LC_DYSYMTAB. Both symbols are external
// definitions, sorted by name as ld64 expects.
func emitMachO(tgt target.Target, machine target.Machine, names symbolNames, blob []byte) []byte {
	length := uint64(len(blob))
	commandsSize := segmentCommandSize + machOSectionSize + buildVersionSize + symtabCommandSize + dysymtabCommandSize
	dataOffset := alignUp(machOHeaderSize+commandsSize, SectionAlignment)
	symbolOffset := alignUp(dataOffset+len(blob), 8)

	strings := newStringTable([]byte{0})
	startName := strings.add(names.start)
	endName := strings.add(names.end)
	for len(strings.data)%8 != 0 {
		strings.data = append(strings.data, 0)
	}
	stringOffset := symbolOffset + 2*nlistSize

	out := &encoder{order: machine.ByteOrder}

	out.u32(machOMagic64)
	out.u32(machine.MachOCPU)
	out.u32(machine.MachOSubtype)
	out.u32(machOTypeObject)
	out.u32(machOCommandCount)
	out.u32(uint32(commandsSize))
	out.u32(0) // flags
	out.u32(0) // reserved

	// LC_SEGMENT_64 with one section.
	out.u32(lcSegment64)
	out.u32(segmentCommandSize + machOSectionSize)
	out.fixed("", 16) // object files use an unnamed segment
	out.u64(0)        // vmaddr
	out.u64(length)   // vmsize
	out.u64(uint64(dataOffset))
	out.u64(length) // filesize
	out.u32(vmProtReadWriteExec)
	out.u32(vmProtReadWriteExec)
	out.u32(1) // nsects
	out.u32(0) // flags

	out.fixed("__const", 16)
	out.fixed("__TEXT", 16)
	out.u64(0) // addr
	out.u64(length)
	out.u32(uint32(dataOffset))
	out.u32(machOSectionAlignLog2)
	out.u32(0) // reloff
	out.u32(0) // nreloc
	out.u32(0) // flags: S_REGULAR
	out.u32(0) // reserved1
	out.u32(0) // reserved2
	out.u32(0) // reserved3

	platform, minimum := buildVersion(tgt)
	out.u32(lcBuildVersion)
	out.u32(buildVersionSize)
	out.u32(platform)
	out.u32(minimum) // minos
	out.u32(minimum) // sdk
	out.u32(0)       // ntools

	out.u32(lcSymtab)
	out.u32(symtabCommandSize)
	out.u32(uint32(symbolOffset))
	out.u32(2) // nsyms
	out.u32(uint32(stringOffset))
	out.u32(uint32(len(strings.data)))

	out.u32(lcDysymtab)
	out.u32(dysymtabCommandSize)
	out.u32(0) // ilocalsym
	out.u32(0) // nlocalsym
	out.u32(0) // iextdefsym
	out.u32(2) // nextdefsym
	out.u32(2) // iundefsym
	out.u32(0) // nundefsym
	for i := 0; i < 12; i++ {
		out.u32(0) // toc, module table, references, indirect and relocation tables
	}

	out.align(SectionAlignment)
	out.bytes(blob)
	out.align(8)

	for _, entry := range []struct {
		name  uint32
		value uint64
	}{
		{startName, 0},
		{endName, length},
	} {
		out.u32(entry.name)
		out.u8(nSect | nExt)
		out.u8(1) // n_sect, 1-based
		out.u16(0)
		out.u64(entry.value)
	}
	out.bytes(strings.data)
	return out.buffer
}
