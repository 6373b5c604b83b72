// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest reads and writes the packer's build manifest.
//
// A manifest describes one successful build: the target and codec
// settings, and one [Record] per packed asset, sorted by relative
// path. It lives at a fixed location inside the output directory
// ([FileName]) so the resolver can find it without configuration.
//
// The manifest is CBOR (see lib/codec) and is never patched: every
// build writes a complete new manifest to a temporary file and renames
// it over the old one. Artifacts referenced by a manifest are content
// addressed, so the previous manifest remains valid until the rename
// lands. Readers therefore always see a complete manifest whose
// artifacts exist.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bureau-foundation/packed/lib/atomicfile"
	"github.com/bureau-foundation/packed/lib/codec"
	"github.com/bureau-foundation/packed/lib/compress"
	"github.com/bureau-foundation/packed/lib/digest"
	"github.com/bureau-foundation/packed/lib/object"
	"github.com/bureau-foundation/packed/lib/packerr"
	"github.com/bureau-foundation/packed/lib/symbol"
	"github.com/bureau-foundation/packed/lib/target"
)

// FileName is the manifest's name inside the output directory.
const FileName = "packed.manifest"

// Version is the manifest format version this package reads and
// writes. Bump it when a field changes meaning.
const Version = 1

// Storage says how an asset reaches the final binary.
type Storage uint8

const (
	// StorageLinked assets are relocatable objects passed to the
	// external linker.
	StorageLinked Storage = 1

	// StorageInline assets are raw compressed blobs embedded as
	// literals in generated Go code.
	StorageInline Storage = 2
)

// String returns "linked" or "inline".
func (s Storage) String() string {
	switch s {
	case StorageLinked:
		return "linked"
	case StorageInline:
		return "inline"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// MarshalText encodes the storage mode by name.
func (s Storage) MarshalText() ([]byte, error) {
	if s != StorageLinked && s != StorageInline {
		return nil, fmt.Errorf("cannot encode unknown storage %d", s)
	}
	return []byte(s.String()), nil
}

// UnmarshalText parses a storage mode name.
func (s *Storage) UnmarshalText(text []byte) error {
	switch string(text) {
	case "linked":
		*s = StorageLinked
	case "inline":
		*s = StorageInline
	default:
		return fmt.Errorf("unknown storage %q", text)
	}
	return nil
}

// Record describes one packed asset.
type Record struct {
	// Path is the slash-separated path relative to the asset root.
	// Unique within a manifest.
	Path string `json:"path"`

	// Symbol is the C-level linker symbol (without platform prefix).
	// Unique within a manifest.
	Symbol string `json:"symbol"`

	OriginalSize   int64 `json:"original_size"`
	CompressedSize int64 `json:"compressed_size"`

	Storage Storage `json:"storage"`

	// File is the artifact's base name inside the output directory.
	File string `json:"file"`

	// Fingerprint covers the raw bytes and every build parameter that
	// shapes the artifact. Equal fingerprints mean the artifact can be
	// reused without recompression.
	Fingerprint digest.Hash `json:"fingerprint"`
}

// Manifest is the persisted description of one build.
type Manifest struct {
	Version int            `json:"version"`
	Target  target.Target  `json:"target"`
	Codec   compress.Codec `json:"codec"`
	Level   int            `json:"level"`
	Records []Record       `json:"records"`
}

// Path returns the manifest path inside an output directory.
func Path(outputDirectory string) string {
	return filepath.Join(outputDirectory, FileName)
}

// ArtifactName returns the content-addressed file name for an asset's
// artifact: "<symbol>.<fingerprint prefix>.<extension>".
func ArtifactName(sym string, fingerprint digest.Hash, storage Storage, frameCodec compress.Codec) string {
	extension := object.Extension
	if storage == StorageInline {
		extension = frameCodec.Extension()
	}
	return sym + "." + fingerprint.Short() + "." + extension
}

// Sort orders records by path.
func (m *Manifest) Sort() {
	sort.Slice(m.Records, func(i, j int) bool {
		return m.Records[i].Path < m.Records[j].Path
	})
}

// Lookup returns the record for a relative path. Records must be
// sorted (Validate guarantees this for anything Read returns).
func (m *Manifest) Lookup(relativePath string) (Record, bool) {
	index := sort.Search(len(m.Records), func(i int) bool {
		return m.Records[i].Path >= relativePath
	})
	if index < len(m.Records) && m.Records[index].Path == relativePath {
		return m.Records[index], true
	}
	return Record{}, false
}

// Files returns the set of artifact file names the manifest references.
func (m *Manifest) Files() map[string]struct{} {
	files := make(map[string]struct{}, len(m.Records))
	for _, record := range m.Records {
		files[record.File] = struct{}{}
	}
	return files
}

// TotalSizes returns the summed original and compressed sizes.
func (m *Manifest) TotalSizes() (original, compressed int64) {
	for _, record := range m.Records {
		original += record.OriginalSize
		compressed += record.CompressedSize
	}
	return original, compressed
}

// Validate checks the manifest's structural invariants and returns
// every violation found.
func (m *Manifest) Validate() error {
	var errs []error
	if m.Version != Version {
		errs = append(errs, fmt.Errorf("manifest version %d, this build reads version %d", m.Version, Version))
	}
	if err := m.Target.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := m.Codec.MarshalText(); err != nil {
		errs = append(errs, err)
	}
	if err := compress.ValidateLevel(m.Level); err != nil {
		errs = append(errs, err)
	}

	symbols := make(map[string]string, len(m.Records))
	files := make(map[string]string, len(m.Records))
	for index, record := range m.Records {
		if index > 0 && m.Records[index-1].Path >= record.Path {
			errs = append(errs, fmt.Errorf("records out of order or duplicated at %q", record.Path))
		}
		if record.Path == "" {
			errs = append(errs, fmt.Errorf("record %d has an empty path", index))
		}
		if err := symbol.Validate(record.Symbol); err != nil {
			errs = append(errs, fmt.Errorf("record %q: %w", record.Path, err))
		}
		if owner, exists := symbols[record.Symbol]; exists {
			errs = append(errs, fmt.Errorf("records %q and %q share symbol %s", owner, record.Path, record.Symbol))
		}
		symbols[record.Symbol] = record.Path
		if record.OriginalSize < 0 || record.CompressedSize <= 0 {
			errs = append(errs, fmt.Errorf("record %q has invalid sizes %d/%d", record.Path, record.OriginalSize, record.CompressedSize))
		}
		if record.Storage != StorageLinked && record.Storage != StorageInline {
			errs = append(errs, fmt.Errorf("record %q has unknown storage %d", record.Path, record.Storage))
		}
		if record.Storage == StorageLinked && !m.Target.CanLink() {
			errs = append(errs, fmt.Errorf("record %q is linked but target %s cannot link", record.Path, m.Target))
		}
		if record.File == "" || record.File != filepath.Base(record.File) || strings.ContainsAny(record.File, `/\`) {
			errs = append(errs, fmt.Errorf("record %q has invalid artifact name %q", record.Path, record.File))
		}
		if owner, exists := files[record.File]; exists {
			errs = append(errs, fmt.Errorf("records %q and %q share artifact %s", owner, record.Path, record.File))
		}
		files[record.File] = record.Path
		if record.Fingerprint.IsZero() {
			errs = append(errs, fmt.Errorf("record %q has no fingerprint", record.Path))
		}
	}
	return errors.Join(errs...)
}

// Read loads and validates the manifest in outputDirectory. When no
// manifest exists the returned error wraps fs.ErrNotExist.
func Read(outputDirectory string) (*Manifest, error) {
	path := Path(outputDirectory)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, packerr.Wrap(packerr.KindManifestIO, path, err)
	}
	return Decode(path, data)
}

// Decode parses and validates manifest bytes. The path is used only in
// error messages.
func Decode(path string, data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := codec.Unmarshal(data, &manifest); err != nil {
		return nil, packerr.Wrap(packerr.KindManifestIO, path, fmt.Errorf("decoding manifest: %w", err))
	}
	if err := manifest.Validate(); err != nil {
		return nil, packerr.Wrap(packerr.KindManifestIO, path, fmt.Errorf("invalid manifest: %w", err))
	}
	return &manifest, nil
}

// Encode validates and serializes a manifest.
func Encode(manifest *Manifest) ([]byte, error) {
	if err := manifest.Validate(); err != nil {
		return nil, packerr.Wrap(packerr.KindManifestIO, "", fmt.Errorf("refusing to write invalid manifest: %w", err))
	}
	data, err := codec.Marshal(manifest)
	if err != nil {
		return nil, packerr.Wrap(packerr.KindManifestIO, "", fmt.Errorf("encoding manifest: %w", err))
	}
	return data, nil
}

// Write validates the manifest and atomically replaces the manifest in
// outputDirectory.
func Write(outputDirectory string, manifest *Manifest) error {
	data, err := Encode(manifest)
	if err != nil {
		return err
	}
	path := Path(outputDirectory)
	if err := atomicfile.Write(path, data, 0644); err != nil {
		return packerr.Wrap(packerr.KindManifestIO, path, err)
	}
	return nil
}

// IsNotExist reports whether err means no manifest has been written
// yet.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
