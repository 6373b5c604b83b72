// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"strings"
	"testing"
)

func TestHashPathDeterministic(t *testing.T) {
	first := HashPath("sub/b.bin")
	second := HashPath("sub/b.bin")
	if first != second {
		t.Fatal("HashPath is not deterministic")
	}
	if first == HashPath("sub/b.bim") {
		t.Error("distinct paths produced the same digest")
	}
}

func TestDomainsAreSeparated(t *testing.T) {
	// The same bytes hashed in the two domains must differ.
	pathDigest := HashPath("a.txt")
	contentDigest := keyedForTest(contentDomainKey, []byte("a.txt"))
	if pathDigest == contentDigest {
		t.Error("symbol and content domains produced identical digests")
	}
}

func keyedForTest(key domainKey, data []byte) Hash {
	hasher := newKeyed(key)
	hasher.Write(data)
	return sum(hasher)
}

func TestFingerprintCoversParameters(t *testing.T) {
	data := []byte("hello")
	base := FingerprintParams{Codec: "zstd", Level: 6, Target: "linux/amd64"}
	baseline := Fingerprint(data, base)

	variants := map[string]FingerprintParams{
		"codec":  {Codec: "lz4", Level: 6, Target: "linux/amd64"},
		"level":  {Codec: "zstd", Level: 7, Target: "linux/amd64"},
		"target": {Codec: "zstd", Level: 6, Target: "darwin/arm64"},
		"inline": {Codec: "zstd", Level: 6, Target: "linux/amd64", Inline: true},
	}
	for name, params := range variants {
		t.Run(name, func(t *testing.T) {
			if Fingerprint(data, params) == baseline {
				t.Errorf("changing %s did not change the fingerprint", name)
			}
		})
	}

	if Fingerprint([]byte("hellO"), base) == baseline {
		t.Error("changing content did not change the fingerprint")
	}
	if Fingerprint(data, base) != baseline {
		t.Error("Fingerprint is not deterministic")
	}
}

func TestTextRoundTrip(t *testing.T) {
	hash := HashPath("a.txt")
	text, err := hash.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if len(text) != 64 {
		t.Fatalf("hex length = %d, want 64", len(text))
	}

	var parsed Hash
	if err := parsed.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if parsed != hash {
		t.Error("text round trip changed the hash")
	}
	if !strings.HasPrefix(hash.String(), hash.Short()) || len(hash.Short()) != 16 {
		t.Errorf("Short() = %q, want 16-char prefix of %q", hash.Short(), hash.String())
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	for _, input := range []string{"zz", "abcd", strings.Repeat("0", 66)} {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) should fail", input)
		}
	}
	var zero Hash
	if !zero.IsZero() {
		t.Error("zero hash should report IsZero")
	}
}
