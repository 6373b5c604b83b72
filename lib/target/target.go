// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package target maps a Go build target (GOOS/GOARCH) to the object
// file conventions of its native linker.
//
// Every target falls into exactly one [Format] family: ELF, Mach-O,
// COFF, or none. Targets in the "none" family (js/wasm, wasip1/wasm)
// cannot link external objects; their assets are embedded inline in
// generated code instead. The mapping is a pure table lookup: no
// target-specific logic lives outside this package and lib/object.
package target

import (
	"encoding/binary"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Format is an object file family.
type Format uint8

const (
	// FormatNone marks targets that cannot link relocatable objects.
	FormatNone Format = iota
	FormatELF
	FormatMachO
	FormatCOFF
)

// String returns the family name.
func (f Format) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatELF:
		return "elf"
	case FormatMachO:
		return "macho"
	case FormatCOFF:
		return "coff"
	default:
		return fmt.Sprintf("unknown(%d)", f)
	}
}

// Target is a GOOS/GOARCH pair.
type Target struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

// Parse parses "goos/goarch".
func Parse(value string) (Target, error) {
	goos, goarch, found := strings.Cut(value, "/")
	if !found || goos == "" || goarch == "" || strings.Contains(goarch, "/") {
		return Target{}, fmt.Errorf("invalid target %q (want goos/goarch, e.g. linux/amd64)", value)
	}
	return Target{OS: goos, Arch: goarch}, nil
}

// Host returns the target the Go toolchain would build for: $GOOS and
// $GOARCH when set, otherwise the running platform.
func Host() Target {
	host := Target{OS: runtime.GOOS, Arch: runtime.GOARCH}
	if goos := os.Getenv("GOOS"); goos != "" {
		host.OS = goos
	}
	if goarch := os.Getenv("GOARCH"); goarch != "" {
		host.Arch = goarch
	}
	return host
}

// String returns "goos/goarch".
func (t Target) String() string {
	return t.OS + "/" + t.Arch
}

// FileSuffix returns "goos_goarch", the file name suffix the go tool
// treats as an implicit build constraint.
func (t Target) FileSuffix() string {
	return t.OS + "_" + t.Arch
}

// Format returns the object family of the target's native linker.
func (t Target) Format() Format {
	if t.Arch == "wasm" {
		return FormatNone
	}
	switch t.OS {
	case "linux", "android", "freebsd", "netbsd", "openbsd", "dragonfly", "solaris", "illumos":
		return FormatELF
	case "darwin", "ios":
		return FormatMachO
	case "windows":
		return FormatCOFF
	default:
		return FormatNone
	}
}

// CanLink reports whether assets for this target can be delivered as
// linked objects. A target that cannot link gets inline embedding.
func (t Target) CanLink() bool {
	return t.Format() != FormatNone
}

// Validate checks that the target is one the packer can serve: either
// an inline target or a linkable target with known machine constants.
func (t Target) Validate() error {
	if t.OS == "" || t.Arch == "" {
		return fmt.Errorf("target must name both goos and goarch, got %q", t.String())
	}
	if t.Arch == "wasm" {
		if t.OS != "js" && t.OS != "wasip1" {
			return fmt.Errorf("unsupported platform %s", t)
		}
		return nil
	}
	if t.Format() == FormatNone {
		return fmt.Errorf("unsupported platform %s: no object format for %q", t, t.OS)
	}
	if _, err := t.Machine(); err != nil {
		return err
	}
	return nil
}

// Machine holds the per-architecture constants an object writer needs.
type Machine struct {
	// Bits is 32 or 64.
	Bits int

	// ByteOrder is the target byte order.
	ByteOrder binary.AppendByteOrder

	// ELFMachine is e_machine; ELFFlags is e_flags. The flags carry
	// the ABI bits the target linker checks when mixing objects.
	ELFMachine uint16
	ELFFlags   uint32

	// MachOCPU and MachOSubtype are cputype and cpusubtype. Zero when
	// the architecture has no 64-bit Mach-O encoding here.
	MachOCPU     uint32
	MachOSubtype uint32

	// COFFMachine is the IMAGE_FILE_HEADER Machine value.
	COFFMachine uint16
}

// ELF e_machine values.
const (
	elfMachine386       = 3
	elfMachinePPC64     = 21
	elfMachineS390      = 22
	elfMachineARM       = 40
	elfMachineX86_64    = 62
	elfMachineAArch64   = 183
	elfMachineRISCV     = 243
	elfMachineLoongArch = 258
)

// ELF e_flags values.
const (
	elfFlagsARMEABI5       = 0x05000000
	elfFlagsRISCVRVCDouble = 0x0001 | 0x0004 // EF_RISCV_RVC | EF_RISCV_FLOAT_ABI_DOUBLE
	elfFlagsLoongArchLP64D = 0x43            // EF_LOONGARCH_OBJABI_V1 | EF_LOONGARCH_ABI_DOUBLE_FLOAT
	elfFlagsPPC64ELFv1     = 1
	elfFlagsPPC64ELFv2     = 2
)

// Mach-O cputype and cpusubtype values.
const (
	machOCPUX86_64        = 0x01000007
	machOCPUARM64         = 0x0100000c
	machOSubtypeX86_64All = 3
	machOSubtypeARM64All  = 0
)

// COFF machine values.
const (
	coffMachineI386  = 0x014c
	coffMachineAMD64 = 0x8664
	coffMachineARMNT = 0x01c4
	coffMachineARM64 = 0xaa64
)

var machines = map[string]Machine{
	"amd64": {
		Bits: 64, ByteOrder: binary.LittleEndian,
		ELFMachine: elfMachineX86_64,
		MachOCPU:   machOCPUX86_64, MachOSubtype: machOSubtypeX86_64All,
		COFFMachine: coffMachineAMD64,
	},
	"386": {
		Bits: 32, ByteOrder: binary.LittleEndian,
		ELFMachine:  elfMachine386,
		COFFMachine: coffMachineI386,
	},
	"arm64": {
		Bits: 64, ByteOrder: binary.LittleEndian,
		ELFMachine: elfMachineAArch64,
		MachOCPU:   machOCPUARM64, MachOSubtype: machOSubtypeARM64All,
		COFFMachine: coffMachineARM64,
	},
	"arm": {
		Bits: 32, ByteOrder: binary.LittleEndian,
		ELFMachine: elfMachineARM, ELFFlags: elfFlagsARMEABI5,
		COFFMachine: coffMachineARMNT,
	},
	"riscv64": {
		Bits: 64, ByteOrder: binary.LittleEndian,
		ELFMachine: elfMachineRISCV, ELFFlags: elfFlagsRISCVRVCDouble,
	},
	"loong64": {
		Bits: 64, ByteOrder: binary.LittleEndian,
		ELFMachine: elfMachineLoongArch, ELFFlags: elfFlagsLoongArchLP64D,
	},
	"ppc64": {
		Bits: 64, ByteOrder: binary.BigEndian,
		ELFMachine: elfMachinePPC64, ELFFlags: elfFlagsPPC64ELFv1,
	},
	"ppc64le": {
		Bits: 64, ByteOrder: binary.LittleEndian,
		ELFMachine: elfMachinePPC64, ELFFlags: elfFlagsPPC64ELFv2,
	},
	"s390x": {
		Bits: 64, ByteOrder: binary.BigEndian,
		ELFMachine: elfMachineS390,
	},
}

// Machine returns the object constants for the target's architecture
// and checks that the architecture is encodable in the target's
// format family.
func (t Target) Machine() (Machine, error) {
	machine, ok := machines[t.Arch]
	if !ok {
		return Machine{}, fmt.Errorf("unsupported platform %s: no machine constants for %q", t, t.Arch)
	}
	switch t.Format() {
	case FormatMachO:
		if machine.MachOCPU == 0 {
			return Machine{}, fmt.Errorf("unsupported platform %s: no Mach-O encoding for %q", t, t.Arch)
		}
	case FormatCOFF:
		if machine.COFFMachine == 0 {
			return Machine{}, fmt.Errorf("unsupported platform %s: no COFF encoding for %q", t, t.Arch)
		}
	}
	return machine, nil
}

// SymbolPrefix returns the prefix the platform C compiler adds to
// global symbol names: "_" on Mach-O and 32-bit Windows.
func (t Target) SymbolPrefix() string {
	if t.Format() == FormatMachO || (t.Format() == FormatCOFF && t.Arch == "386") {
		return "_"
	}
	return ""
}
