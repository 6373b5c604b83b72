// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"errors"
	"strings"
	"testing"

	"github.com/bureau-foundation/packed/lib/packerr"
)

func TestDeriveShape(t *testing.T) {
	tests := []struct {
		path         string
		wantReadable string
	}{
		{"a.txt", "a_txt"},
		{"sub/b.bin", "sub_b_bin"},
		{"dir with spaces/ü.png", "dir_with_spaces____png"},
		{strings.Repeat("x", 100), strings.Repeat("x", MaxReadableLength)},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			sym := Derive(tt.path)
			if err := Validate(sym); err != nil {
				t.Fatalf("derived symbol is invalid: %v", err)
			}
			wantPrefix := Prefix + tt.wantReadable + "_"
			if !strings.HasPrefix(sym, wantPrefix) {
				t.Errorf("Derive(%q) = %q, want prefix %q", tt.path, sym, wantPrefix)
			}
			if len(sym) != len(wantPrefix)+16 {
				t.Errorf("Derive(%q) = %q, want a 16-character digest suffix", tt.path, sym)
			}
			if Derive(tt.path) != sym {
				t.Error("Derive is not deterministic")
			}
		})
	}
}

func TestDeriveDistinguishesSanitizedTwins(t *testing.T) {
	if Derive("a-b.txt") == Derive("a_b.txt") {
		t.Error("paths with the same sanitized form derived the same symbol")
	}
}

func TestValidate(t *testing.T) {
	for _, good := range []string{"packed_a", "_x", "A9_"} {
		if err := Validate(good); err != nil {
			t.Errorf("Validate(%q): %v", good, err)
		}
	}
	for _, bad := range []string{"", "9abc", "a.b", "a-b", "a b"} {
		if err := Validate(bad); err == nil {
			t.Errorf("Validate(%q) should fail", bad)
		}
	}
}

func TestAssign(t *testing.T) {
	paths := []string{"a.txt", "sub/b.bin"}
	symbols, err := Assign(paths, nil)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("Assign returned %d symbols, want 2", len(symbols))
	}
	for index, relativePath := range paths {
		if symbols[index] != Derive(relativePath) {
			t.Errorf("symbol %d = %q, want %q", index, symbols[index], Derive(relativePath))
		}
	}
}

func TestAssignEngineeredCollision(t *testing.T) {
	constant := func(string) string { return "packed_same" }

	_, err := Assign([]string{"z.txt", "a.txt"}, constant)
	if err == nil {
		t.Fatal("Assign should report the collision")
	}

	var collision *CollisionError
	if !errors.As(err, &collision) {
		t.Fatalf("error %T is not a *CollisionError", err)
	}
	if collision.Symbol != "packed_same" || collision.First != "a.txt" || collision.Second != "z.txt" {
		t.Errorf("collision = %+v", collision)
	}
	if !strings.Contains(err.Error(), "a.txt") || !strings.Contains(err.Error(), "z.txt") {
		t.Errorf("message %q should name both paths", err.Error())
	}
	if kind := packerr.KindOf(err); kind != packerr.KindSymbolCollision {
		t.Errorf("KindOf = %q, want %q", kind, packerr.KindSymbolCollision)
	}
}

func TestAssignEndMarkerCollision(t *testing.T) {
	derive := func(relativePath string) string {
		if relativePath == "first" {
			return "packed_x"
		}
		return "packed_x_end"
	}
	var collision *CollisionError
	if _, err := Assign([]string{"first", "second"}, derive); !errors.As(err, &collision) {
		t.Fatalf("Assign error = %v, want *CollisionError", err)
	}
	if collision.Symbol != "packed_x_end" {
		t.Errorf("collision symbol = %q", collision.Symbol)
	}
}

func TestAssignRejectsInvalidSymbol(t *testing.T) {
	_, err := Assign([]string{"a"}, func(string) string { return "bad-symbol" })
	if err == nil {
		t.Fatal("Assign should reject an invalid symbol")
	}
	if !packerr.Is(err, packerr.KindObjectEmit) {
		t.Errorf("KindOf = %q, want object_emit", packerr.KindOf(err))
	}
}
