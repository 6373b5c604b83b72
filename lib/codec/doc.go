// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration for packed's
// on-disk build state.
//
// The manifest is the only persistent structure the packer writes
// besides the artifacts themselves, and it must be reproducible: two
// builds of the same inputs produce byte-identical manifests. The
// encoder therefore uses Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys, smallest integer encoding, no indefinite-length
// items.
//
// JSON is reserved for human-facing output (packed manifest --json).
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// # Struct Tag Rules
//
// Types that are only persisted as CBOR use `cbor` tags. Types that are
// also printed as JSON use `json` tags only: fxamacker/cbor falls back
// to `json` tags when `cbor` tags are absent. Never put both on one
// field.
//
// Types implementing encoding.TextMarshaler (digests, codecs, targets)
// are encoded as CBOR text strings through MarshalText, so the manifest
// stays readable in diagnostic notation ([Diagnose]).
package codec
