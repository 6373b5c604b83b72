// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/packed/lib/packerr"
	"github.com/bureau-foundation/packed/lib/target"
)

const testSymbol = "packed_a_txt_0123456789abcdef"

func mustTarget(t *testing.T, value string) target.Target {
	t.Helper()
	parsed, err := target.Parse(value)
	if err != nil {
		t.Fatalf("Parse(%q): %v", value, err)
	}
	return parsed
}

func testBlobs() map[string][]byte {
	return map[string][]byte{
		"empty": {},
		"small": []byte("hello"),
		"odd":   bytes.Repeat([]byte{0xab}, 4099),
	}
}

func TestELF(t *testing.T) {
	tests := []struct {
		target  string
		class   elf.Class
		data    elf.Data
		machine elf.Machine
		flags   uint32
	}{
		{"linux/amd64", elf.ELFCLASS64, elf.ELFDATA2LSB, elf.EM_X86_64, 0},
		{"linux/386", elf.ELFCLASS32, elf.ELFDATA2LSB, elf.EM_386, 0},
		{"linux/arm64", elf.ELFCLASS64, elf.ELFDATA2LSB, elf.EM_AARCH64, 0},
		{"linux/arm", elf.ELFCLASS32, elf.ELFDATA2LSB, elf.EM_ARM, 0x05000000},
		{"linux/riscv64", elf.ELFCLASS64, elf.ELFDATA2LSB, elf.EM_RISCV, 0x5},
		{"linux/loong64", elf.ELFCLASS64, elf.ELFDATA2LSB, elf.EM_LOONGARCH, 0x43},
		{"linux/ppc64", elf.ELFCLASS64, elf.ELFDATA2MSB, elf.EM_PPC64, 1},
		{"linux/ppc64le", elf.ELFCLASS64, elf.ELFDATA2LSB, elf.EM_PPC64, 2},
		{"linux/s390x", elf.ELFCLASS64, elf.ELFDATA2MSB, elf.EM_S390, 0},
		{"freebsd/amd64", elf.ELFCLASS64, elf.ELFDATA2LSB, elf.EM_X86_64, 0},
	}
	for _, tt := range tests {
		for name, blob := range testBlobs() {
			t.Run(tt.target+"/"+name, func(t *testing.T) {
				tgt := mustTarget(t, tt.target)
				data, err := Emit(tgt, testSymbol, blob)
				if err != nil {
					t.Fatalf("Emit: %v", err)
				}

				file, err := elf.NewFile(bytes.NewReader(data))
				if err != nil {
					t.Fatalf("debug/elf rejected the object: %v", err)
				}
				if file.Type != elf.ET_REL {
					t.Errorf("Type = %v, want ET_REL", file.Type)
				}
				if file.Class != tt.class || file.Data != tt.data || file.Machine != tt.machine {
					t.Errorf("header = %v/%v/%v, want %v/%v/%v",
						file.Class, file.Data, file.Machine, tt.class, tt.data, tt.machine)
				}
				if flags := elfFlags(data, tt.class, tt.data); flags != tt.flags {
					t.Errorf("e_flags = %#x, want %#x", flags, tt.flags)
				}

				rodata := file.Section(".rodata." + testSymbol)
				if rodata == nil {
					t.Fatal("missing .rodata section")
				}
				if rodata.Flags != elf.SHF_ALLOC || rodata.Addralign != SectionAlignment {
					t.Errorf(".rodata flags/align = %v/%d", rodata.Flags, rodata.Addralign)
				}
				if rodata.Offset%SectionAlignment != 0 {
					t.Errorf(".rodata offset %d not aligned", rodata.Offset)
				}
				if file.Section(".note.GNU-stack") == nil {
					t.Error("missing .note.GNU-stack")
				}

				symbols, err := file.Symbols()
				if err != nil {
					t.Fatalf("Symbols: %v", err)
				}
				found := map[string]elf.Symbol{}
				for _, sym := range symbols {
					found[sym.Name] = sym
				}
				start, ok := found[testSymbol]
				if !ok {
					t.Fatalf("symbol %s missing from %v", testSymbol, symbols)
				}
				if elf.ST_BIND(start.Info) != elf.STB_GLOBAL || elf.ST_TYPE(start.Info) != elf.STT_OBJECT {
					t.Errorf("start symbol info = %#x", start.Info)
				}
				if start.Size != uint64(len(blob)) || start.Value != 0 {
					t.Errorf("start symbol value/size = %d/%d", start.Value, start.Size)
				}
				if end := found[testSymbol+"_end"]; end.Value != uint64(len(blob)) {
					t.Errorf("end symbol value = %d, want %d", end.Value, len(blob))
				}

				extracted, err := Extract(tgt, data, testSymbol)
				if err != nil {
					t.Fatalf("Extract: %v", err)
				}
				if !bytes.Equal(extracted, blob) {
					t.Error("extracted blob differs from the input")
				}
			})
		}
	}
}

func elfFlags(data []byte, class elf.Class, order elf.Data) uint32 {
	offset := 36
	if class == elf.ELFCLASS64 {
		offset = 48
	}
	field := data[offset : offset+4]
	if order == elf.ELFDATA2MSB {
		return uint32(field[0])<<24 | uint32(field[1])<<16 | uint32(field[2])<<8 | uint32(field[3])
	}
	return uint32(field[3])<<24 | uint32(field[2])<<16 | uint32(field[1])<<8 | uint32(field[0])
}

func TestMachO(t *testing.T) {
	tests := []struct {
		target string
		cpu    macho.Cpu
	}{
		{"darwin/amd64", macho.CpuAmd64},
		{"darwin/arm64", macho.CpuArm64},
		{"ios/arm64", macho.CpuArm64},
	}
	for _, tt := range tests {
		for name, blob := range testBlobs() {
			t.Run(tt.target+"/"+name, func(t *testing.T) {
				tgt := mustTarget(t, tt.target)
				data, err := Emit(tgt, testSymbol, blob)
				if err != nil {
					t.Fatalf("Emit: %v", err)
				}

				file, err := macho.NewFile(bytes.NewReader(data))
				if err != nil {
					t.Fatalf("debug/macho rejected the object: %v", err)
				}
				if file.Type != macho.TypeObj || file.Cpu != tt.cpu {
					t.Errorf("header type/cpu = %v/%v", file.Type, file.Cpu)
				}

				section := file.Section("__const")
				if section == nil {
					t.Fatal("missing __const section")
				}
				if section.Seg != "__TEXT" || section.Align != 4 || section.Size != uint64(len(blob)) {
					t.Errorf("section seg/align/size = %s/%d/%d", section.Seg, section.Align, section.Size)
				}
				if file.Dysymtab == nil || file.Dysymtab.Nextdefsym != 2 {
					t.Error("LC_DYSYMTAB missing or wrong")
				}

				if file.Symtab == nil || len(file.Symtab.Syms) != 2 {
					t.Fatal("expected two symbols")
				}
				start, end := file.Symtab.Syms[0], file.Symtab.Syms[1]
				if start.Name != "_"+testSymbol || end.Name != "_"+testSymbol+"_end" {
					t.Errorf("symbol names = %q, %q", start.Name, end.Name)
				}
				if start.Type != 0x0f || start.Sect != 1 || end.Value != uint64(len(blob)) {
					t.Errorf("symbols = %+v, %+v", start, end)
				}

				extracted, err := Extract(tgt, data, testSymbol)
				if err != nil {
					t.Fatalf("Extract: %v", err)
				}
				if !bytes.Equal(extracted, blob) {
					t.Error("extracted blob differs from the input")
				}
			})
		}
	}
}

// IMAGE_SCN_ALIGN_16BYTES; debug/pe does not export the alignment flags.
const coffAlign16Bytes = 0x00500000

func TestCOFF(t *testing.T) {
	tests := []struct {
		target  string
		machine uint16
		prefix  string
	}{
		{"windows/amd64", pe.IMAGE_FILE_MACHINE_AMD64, ""},
		{"windows/386", pe.IMAGE_FILE_MACHINE_I386, "_"},
		{"windows/arm64", pe.IMAGE_FILE_MACHINE_ARM64, ""},
	}
	for _, tt := range tests {
		for name, blob := range testBlobs() {
			t.Run(tt.target+"/"+name, func(t *testing.T) {
				tgt := mustTarget(t, tt.target)
				data, err := Emit(tgt, testSymbol, blob)
				if err != nil {
					t.Fatalf("Emit: %v", err)
				}

				file, err := pe.NewFile(bytes.NewReader(data))
				if err != nil {
					t.Fatalf("debug/pe rejected the object: %v", err)
				}
				if file.Machine != tt.machine || file.TimeDateStamp != 0 {
					t.Errorf("machine/timestamp = %#x/%d", file.Machine, file.TimeDateStamp)
				}
				if len(file.Sections) != 1 || file.Sections[0].Name != ".rdata" {
					t.Fatalf("sections = %v", file.Sections)
				}
				characteristics := file.Sections[0].Characteristics
				want := uint32(pe.IMAGE_SCN_CNT_INITIALIZED_DATA | pe.IMAGE_SCN_MEM_READ | coffAlign16Bytes)
				if characteristics != want {
					t.Errorf("characteristics = %#x, want %#x", characteristics, want)
				}
				if len(file.COFFSymbols) != 4 || len(file.Symbols) != 3 {
					t.Errorf("symbol records = %d, symbols = %d; want 4 and 3", len(file.COFFSymbols), len(file.Symbols))
				}

				names := map[string]bool{}
				for _, sym := range file.Symbols {
					names[sym.Name] = true
				}
				if !names[tt.prefix+testSymbol] || !names[tt.prefix+testSymbol+"_end"] {
					t.Errorf("symbols = %v", names)
				}

				extracted, err := Extract(tgt, data, testSymbol)
				if err != nil {
					t.Fatalf("Extract: %v", err)
				}
				if !bytes.Equal(extracted, blob) {
					t.Error("extracted blob differs from the input")
				}
			})
		}
	}
}

func TestEmitDeterministic(t *testing.T) {
	blob := bytes.Repeat([]byte("blob"), 1000)
	for _, name := range []string{"linux/amd64", "darwin/arm64", "windows/amd64"} {
		tgt := mustTarget(t, name)
		first, err := Emit(tgt, testSymbol, blob)
		if err != nil {
			t.Fatalf("Emit: %v", err)
		}
		second, err := Emit(tgt, testSymbol, blob)
		if err != nil {
			t.Fatalf("Emit: %v", err)
		}
		if !bytes.Equal(first, second) {
			t.Errorf("%s: repeated Emit produced different bytes", name)
		}
	}
}

func TestEmitErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		symbol string
	}{
		{"unsupported arch", "linux/mips", testSymbol},
		{"inline target", "js/wasm", testSymbol},
		{"invalid symbol", "linux/amd64", "bad.symbol"},
		{"no Mach-O encoding", "darwin/386", testSymbol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Emit(mustTarget(t, tt.target), tt.symbol, []byte("x"))
			if err == nil {
				t.Fatal("Emit should fail")
			}
			if !packerr.Is(err, packerr.KindObjectEmit) {
				t.Errorf("KindOf(%v) = %q, want object_emit", err, packerr.KindOf(err))
			}
		})
	}
}

func TestCheckSize(t *testing.T) {
	const fourGiB = uint64(1) << 32
	tests := []struct {
		target  string
		size    uint64
		wantErr bool
	}{
		{"linux/amd64", fourGiB, false},
		{"linux/386", fourGiB, true},
		{"linux/arm", 1 << 20, false},
		{"darwin/arm64", fourGiB, true},
		{"darwin/amd64", fourGiB - 1, true},
		{"darwin/arm64", 1 << 30, false},
		{"windows/amd64", fourGiB, true},
		{"windows/arm64", 1 << 30, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.target, tt.size), func(t *testing.T) {
			tgt, err := target.Parse(tt.target)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			machine, err := tgt.Machine()
			if err != nil {
				t.Fatalf("Machine: %v", err)
			}
			err = checkSize(tgt, machine, tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkSize = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), testSymbol+".o")
	tgt := mustTarget(t, "linux/amd64")
	if err := WriteFile(path, tgt, testSymbol, []byte("hello")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	extracted, err := Extract(tgt, data, testSymbol)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(extracted) != "hello" {
		t.Errorf("extracted %q, want hello", extracted)
	}

	missing := filepath.Join(t.TempDir(), "absent", "x.o")
	if err := WriteFile(missing, tgt, testSymbol, nil); !packerr.Is(err, packerr.KindObjectEmit) {
		t.Errorf("WriteFile into a missing directory = %v, want object_emit", err)
	}
}

func TestExtractMissingSymbol(t *testing.T) {
	tgt := mustTarget(t, "linux/amd64")
	data, err := Emit(tgt, testSymbol, []byte("x"))
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if _, err := Extract(tgt, data, "packed_other"); err == nil {
		t.Error("Extract of an absent symbol should fail")
	}
	if _, err := Extract(tgt, []byte("not an object"), testSymbol); err == nil {
		t.Error("Extract of garbage should fail")
	}
}
