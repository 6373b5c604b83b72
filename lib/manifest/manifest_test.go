// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/bureau-foundation/packed/lib/compress"
	"github.com/bureau-foundation/packed/lib/digest"
	"github.com/bureau-foundation/packed/lib/packerr"
	"github.com/bureau-foundation/packed/lib/symbol"
	"github.com/bureau-foundation/packed/lib/target"
)

func record(path string, storage Storage) Record {
	sym := symbol.Derive(path)
	fingerprint := digest.Fingerprint([]byte(path), digest.FingerprintParams{Codec: "zstd", Level: 6, Target: "linux/amd64"})
	return Record{
		Path:           path,
		Symbol:         sym,
		OriginalSize:   int64(len(path)),
		CompressedSize: 20,
		Storage:        storage,
		File:           ArtifactName(sym, fingerprint, storage, compress.CodecZstd),
		Fingerprint:    fingerprint,
	}
}

func sampleManifest() *Manifest {
	return &Manifest{
		Version: Version,
		Target:  target.Target{OS: "linux", Arch: "amd64"},
		Codec:   compress.CodecZstd,
		Level:   compress.DefaultLevel,
		Records: []Record{record("a.txt", StorageLinked), record("sub/b.bin", StorageLinked)},
	}
}

func TestWriteReadRoundtrip(t *testing.T) {
	directory := t.TempDir()
	original := sampleManifest()
	if err := Write(directory, original); err != nil {
		t.Fatalf("Write: %v", err)
	}

	loaded, err := Read(directory)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if loaded.Target != original.Target || loaded.Codec != original.Codec || loaded.Level != original.Level {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if len(loaded.Records) != 2 {
		t.Fatalf("loaded %d records, want 2", len(loaded.Records))
	}
	for index := range original.Records {
		if loaded.Records[index] != original.Records[index] {
			t.Errorf("record %d: got %+v, want %+v", index, loaded.Records[index], original.Records[index])
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	first, err := Encode(sampleManifest())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	second, err := Encode(sampleManifest())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("identical manifests encoded differently")
	}
}

func TestLookup(t *testing.T) {
	manifest := sampleManifest()
	found, ok := manifest.Lookup("sub/b.bin")
	if !ok || found.Path != "sub/b.bin" {
		t.Errorf("Lookup(sub/b.bin) = %+v, %v", found, ok)
	}
	for _, absent := range []string{"missing.txt", "", "a.tx", "sub"} {
		if _, ok := manifest.Lookup(absent); ok {
			t.Errorf("Lookup(%q) should miss", absent)
		}
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Read(t.TempDir())
	if err == nil {
		t.Fatal("Read of an empty directory should fail")
	}
	if !IsNotExist(err) {
		t.Errorf("error %v should wrap fs.ErrNotExist", err)
	}
	if !packerr.Is(err, packerr.KindManifestIO) {
		t.Errorf("KindOf = %q, want manifest_io", packerr.KindOf(err))
	}
}

func TestReadCorrupt(t *testing.T) {
	directory := t.TempDir()
	if err := os.WriteFile(Path(directory), []byte("not cbor at all"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Read(directory)
	if err == nil {
		t.Fatal("Read of a corrupt manifest should fail")
	}
	if IsNotExist(err) || !packerr.Is(err, packerr.KindManifestIO) {
		t.Errorf("error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Manifest)
		want   string
	}{
		{"version", func(m *Manifest) { m.Version = 99 }, "version"},
		{"level", func(m *Manifest) { m.Level = 0 }, "level"},
		{"order", func(m *Manifest) { m.Records[0], m.Records[1] = m.Records[1], m.Records[0] }, "out of order"},
		{"duplicate path", func(m *Manifest) { m.Records[1].Path = m.Records[0].Path }, "out of order or duplicated"},
		{"shared symbol", func(m *Manifest) { m.Records[1].Symbol = m.Records[0].Symbol }, "share symbol"},
		{"bad symbol", func(m *Manifest) { m.Records[0].Symbol = "no-dashes" }, "invalid byte"},
		{"artifact path", func(m *Manifest) { m.Records[0].File = "../escape.o" }, "invalid artifact name"},
		{"linked on wasm", func(m *Manifest) { m.Target = target.Target{OS: "js", Arch: "wasm"} }, "cannot link"},
		{"fingerprint", func(m *Manifest) { m.Records[0].Fingerprint = digest.Hash{} }, "no fingerprint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manifest := sampleManifest()
			tt.mutate(manifest)
			err := manifest.Validate()
			if err == nil {
				t.Fatal("Validate should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
			if writeErr := Write(t.TempDir(), manifest); writeErr == nil {
				t.Error("Write should refuse an invalid manifest")
			}
		})
	}
}

func TestArtifactName(t *testing.T) {
	fingerprint := digest.Fingerprint([]byte("x"), digest.FingerprintParams{})
	linked := ArtifactName("packed_x", fingerprint, StorageLinked, compress.CodecZstd)
	if linked != "packed_x."+fingerprint.Short()+".o" {
		t.Errorf("linked artifact = %q", linked)
	}
	inline := ArtifactName("packed_x", fingerprint, StorageInline, compress.CodecLZ4)
	if inline != "packed_x."+fingerprint.Short()+".lz4" {
		t.Errorf("inline artifact = %q", inline)
	}
}

func TestStorageText(t *testing.T) {
	for _, storage := range []Storage{StorageLinked, StorageInline} {
		text, err := storage.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText: %v", err)
		}
		var parsed Storage
		if err := parsed.UnmarshalText(text); err != nil || parsed != storage {
			t.Errorf("UnmarshalText(%q) = %v, %v", text, parsed, err)
		}
	}
	var parsed Storage
	if err := parsed.UnmarshalText([]byte("embedded")); err == nil {
		t.Error("unknown storage should fail")
	}
}
