// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"fmt"

	"github.com/bureau-foundation/packed/lib/symbol"
	"github.com/bureau-foundation/packed/lib/target"
)

// Extract reads an object produced for tgt and returns the bytes
// between sym and its end marker. It is the inverse of [Emit] and is
// used to verify build outputs without invoking a linker.
func Extract(tgt target.Target, data []byte, sym string) ([]byte, error) {
	start := tgt.SymbolPrefix() + sym
	end := tgt.SymbolPrefix() + symbol.End(sym)

	switch tgt.Format() {
	case target.FormatELF:
		return extractELF(data, start, end)
	case target.FormatMachO:
		return extractMachO(data, start, end)
	case target.FormatCOFF:
		return extractCOFF(data, start, end)
	default:
		return nil, fmt.Errorf("target %s has no object format", tgt)
	}
}

// span slices section between two symbol values.
func span(section []byte, start, end uint64, name string) ([]byte, error) {
	if start > end || end > uint64(len(section)) {
		return nil, fmt.Errorf("symbol %s spans [%d, %d) outside its %d-byte section", name, start, end, len(section))
	}
	return section[start:end], nil
}

func extractELF(data []byte, start, end string) ([]byte, error) {
	file, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing ELF object: %w", err)
	}
	defer file.Close()

	symbols, err := file.Symbols()
	if err != nil {
		return nil, fmt.Errorf("reading ELF symbols: %w", err)
	}
	var startSymbol, endSymbol *elf.Symbol
	for index := range symbols {
		switch symbols[index].Name {
		case start:
			startSymbol = &symbols[index]
		case end:
			endSymbol = &symbols[index]
		}
	}
	if startSymbol == nil || endSymbol == nil {
		return nil, fmt.Errorf("ELF object does not define %s and %s", start, end)
	}
	if startSymbol.Section != endSymbol.Section || int(startSymbol.Section) >= len(file.Sections) {
		return nil, fmt.Errorf("ELF symbols %s and %s are not in the same section", start, end)
	}
	section, err := file.Sections[startSymbol.Section].Data()
	if err != nil {
		return nil, fmt.Errorf("reading ELF section: %w", err)
	}
	blob, err := span(section, startSymbol.Value, endSymbol.Value, start)
	if err != nil {
		return nil, err
	}
	if uint64(len(blob)) != startSymbol.Size {
		return nil, fmt.Errorf("ELF symbol %s declares %d bytes, end marker implies %d", start, startSymbol.Size, len(blob))
	}
	return blob, nil
}

func extractMachO(data []byte, start, end string) ([]byte, error) {
	file, err := macho.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing Mach-O object: %w", err)
	}
	defer file.Close()

	if file.Symtab == nil {
		return nil, fmt.Errorf("Mach-O object has no symbol table")
	}
	var startSymbol, endSymbol *macho.Symbol
	for index := range file.Symtab.Syms {
		switch file.Symtab.Syms[index].Name {
		case start:
			startSymbol = &file.Symtab.Syms[index]
		case end:
			endSymbol = &file.Symtab.Syms[index]
		}
	}
	if startSymbol == nil || endSymbol == nil {
		return nil, fmt.Errorf("Mach-O object does not define %s and %s", start, end)
	}
	if startSymbol.Sect != endSymbol.Sect || startSymbol.Sect == 0 || int(startSymbol.Sect) > len(file.Sections) {
		return nil, fmt.Errorf("Mach-O symbols %s and %s are not in the same section", start, end)
	}
	section := file.Sections[startSymbol.Sect-1]
	contents, err := section.Data()
	if err != nil {
		return nil, fmt.Errorf("reading Mach-O section: %w", err)
	}
	return span(contents, startSymbol.Value-section.Addr, endSymbol.Value-section.Addr, start)
}

func extractCOFF(data []byte, start, end string) ([]byte, error) {
	file, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing COFF object: %w", err)
	}
	defer file.Close()

	var startSymbol, endSymbol *pe.Symbol
	for _, candidate := range file.Symbols {
		switch candidate.Name {
		case start:
			startSymbol = candidate
		case end:
			endSymbol = candidate
		}
	}
	if startSymbol == nil || endSymbol == nil {
		return nil, fmt.Errorf("COFF object does not define %s and %s", start, end)
	}
	if startSymbol.SectionNumber != endSymbol.SectionNumber || startSymbol.SectionNumber < 1 ||
		int(startSymbol.SectionNumber) > len(file.Sections) {
		return nil, fmt.Errorf("COFF symbols %s and %s are not in the same section", start, end)
	}
	contents, err := file.Sections[startSymbol.SectionNumber-1].Data()
	if err != nil {
		return nil, fmt.Errorf("reading COFF section: %w", err)
	}
	return span(contents, uint64(startSymbol.Value), uint64(endSymbol.Value), start)
}
