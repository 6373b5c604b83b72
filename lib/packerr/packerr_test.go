// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package packerr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

type customError struct{}

func (customError) Error() string   { return "custom" }
func (customError) ErrorKind() Kind { return KindDecode }

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"without path", Config("level %d out of range", 40), "config: level 40 out of range"},
		{"with path", New(KindScan, "sub/b.bin", "read failed"), "scan: sub/b.bin: read failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapPreservesChain(t *testing.T) {
	err := Wrap(KindManifestIO, "out/packed.manifest", fs.ErrNotExist)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("wrapped error should match fs.ErrNotExist")
	}
	if KindOf(err) != KindManifestIO {
		t.Errorf("KindOf = %q, want %q", KindOf(err), KindManifestIO)
	}
	if Wrap(KindScan, "", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	inner := New(KindObjectEmit, "a.txt", "disk full")
	outer := fmt.Errorf("packing: %w", inner)
	if !Is(outer, KindObjectEmit) {
		t.Errorf("KindOf(outer) = %q, want %q", KindOf(outer), KindObjectEmit)
	}

	joined := errors.Join(errors.New("plain"), customError{})
	if KindOf(joined) != KindDecode {
		t.Errorf("KindOf(joined) = %q, want %q", KindOf(joined), KindDecode)
	}

	if KindOf(errors.New("unclassified")) != "" {
		t.Error("unclassified error should have empty kind")
	}
}
