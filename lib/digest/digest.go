// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest provides the BLAKE3 keyed hashes used by the packer.
//
// Two hash domains are defined, each with its own 32-byte key so that
// the same input bytes hash differently in each context:
//
//   - Path digests ([HashPath]) make derived linker symbols unique: the
//     symbol for an asset embeds a prefix of the digest of its relative
//     path.
//   - Content fingerprints ([Fingerprint]) decide whether an asset can
//     skip recompression on a rebuild. They cover the raw asset bytes
//     and every parameter that influences the emitted artifact (codec,
//     level, target), never modification times, so rebuilds are
//     reproducible across checkouts.
//
// This package has no dependencies on other packed packages.
package digest

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

// domainKey is a 32-byte BLAKE3 key. The byte values are the ASCII
// domain name zero-padded to 32 bytes, readable in hex dumps.
type domainKey [32]byte

// Domain keys. Changing either invalidates every derived symbol or
// fingerprint recorded in existing manifests.
var (
	symbolDomainKey = domainKey{
		'p', 'a', 'c', 'k', 'e', 'd', '.', 's', 'y', 'm', 'b', 'o', 'l',
	}

	contentDomainKey = domainKey{
		'p', 'a', 'c', 'k', 'e', 'd', '.', 'c', 'o', 'n', 't', 'e', 'n', 't',
	}
)

// HashPath computes the symbol-domain digest of a slash-separated
// relative asset path.
func HashPath(relativePath string) Hash {
	hasher := newKeyed(symbolDomainKey)
	hasher.Write([]byte(relativePath))
	return sum(hasher)
}

// FingerprintParams are the build parameters folded into a content
// fingerprint alongside the raw bytes.
type FingerprintParams struct {
	Codec  string
	Level  int
	Target string
	Inline bool
}

// Fingerprint computes the content-domain digest of an asset's raw
// bytes under the given build parameters. Each variable-length field is
// length-prefixed so distinct parameter tuples never produce the same
// hash input.
func Fingerprint(data []byte, params FingerprintParams) Hash {
	hasher := newKeyed(contentDomainKey)

	writeField := func(field string) {
		var length [8]byte
		binary.LittleEndian.PutUint64(length[:], uint64(len(field)))
		hasher.Write(length[:])
		hasher.Write([]byte(field))
	}

	writeField(params.Codec)
	writeField(fmt.Sprintf("%d", params.Level))
	writeField(params.Target)
	if params.Inline {
		writeField("inline")
	} else {
		writeField("linked")
	}

	var length [8]byte
	binary.LittleEndian.PutUint64(length[:], uint64(len(data)))
	hasher.Write(length[:])
	hasher.Write(data)

	return sum(hasher)
}

// String returns the hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 16 hex characters (64 bits) of the hash.
// Used in symbol names and artifact file names.
func (h Hash) Short() string {
	return hex.EncodeToString(h[:8])
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// MarshalText encodes the hash as lowercase hex. Manifest encoding and
// CLI JSON output both use this form.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText parses a 64-character hex string.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Parse parses a 64-character hex string into a Hash.
func Parse(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(hash) {
		return hash, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(hash))
	}
	copy(hash[:], decoded)
	return hash, nil
}

// newKeyed returns a keyed hasher. NewKeyed only fails for a key that is
// not 32 bytes, which domainKey rules out.
func newKeyed(key domainKey) *blake3.Hasher {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("digest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

func sum(hasher *blake3.Hasher) Hash {
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}
