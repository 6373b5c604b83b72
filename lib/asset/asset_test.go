// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/bureau-foundation/packed/lib/compress"
	"github.com/bureau-foundation/packed/lib/packerr"
)

func compressed(t *testing.T, codec Codec, data []byte) []byte {
	t.Helper()
	compressor, err := compress.New(codec, compress.DefaultLevel)
	if err != nil {
		t.Fatalf("compress.New: %v", err)
	}
	defer compressor.Close()
	frame, err := compressor.Compress(data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	return frame
}

func TestDecodeBothVariants(t *testing.T) {
	original := bytes.Repeat([]byte("asset bytes "), 300)
	for _, codec := range []Codec{Zstd, LZ4} {
		blob := compressed(t, codec, original)
		sources := []Source{
			Linked{Symbol: "packed_x", Data: blob, Codec: codec, Size: len(original)},
			Inline{Data: blob, Codec: codec, Size: len(original)},
		}
		for _, source := range sources {
			t.Run(codec.String()+"/"+source.String(), func(t *testing.T) {
				decoded, err := Decode(source)
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if !bytes.Equal(decoded, original) {
					t.Error("decoded bytes differ from the original")
				}
			})
		}
	}
}

func TestDecodeEmptyAsset(t *testing.T) {
	decoded, err := Decode(Inline{Data: compressed(t, Zstd, nil), Codec: Zstd, Size: 0})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("decoded %d bytes, want 0", len(decoded))
	}
}

func TestDecodeSizeMismatch(t *testing.T) {
	blob := compressed(t, Zstd, []byte("hello"))
	for _, size := range []int{4, 6} {
		_, err := Decode(Linked{Symbol: "packed_a", Data: blob, Codec: Zstd, Size: size})
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("size %d: error %v is not a *DecodeError", size, err)
		}
		if decodeErr.Expected != size || decodeErr.Source != "linked symbol packed_a" {
			t.Errorf("DecodeError = %+v", decodeErr)
		}
		if !errors.Is(err, compress.ErrSizeMismatch) {
			t.Errorf("error should wrap ErrSizeMismatch: %v", err)
		}
		if packerr.KindOf(err) != packerr.KindDecode {
			t.Errorf("KindOf = %q, want decode", packerr.KindOf(err))
		}
	}
}

func TestDecodeCorrupt(t *testing.T) {
	blob := compressed(t, LZ4, bytes.Repeat([]byte("x"), 1000))
	corrupt := append([]byte(nil), blob...)
	corrupt[4] ^= 0xff // frame descriptor flags
	if _, err := Decode(Inline{Data: corrupt, Codec: LZ4, Size: 1000}); err == nil {
		t.Error("corrupt blob should fail to decode")
	}
	if _, err := Decode(Inline{Data: blob[:len(blob)-3], Codec: LZ4, Size: 1000}); err == nil {
		t.Error("truncated blob should fail to decode")
	}
	if _, err := Decode(nil); err == nil {
		t.Error("nil source should fail")
	}
}

func TestLazyDecodesOnce(t *testing.T) {
	original := []byte("lazy")
	source := Inline{Data: compressed(t, Zstd, original), Codec: Zstd, Size: len(original)}
	get := Lazy(source)

	var waitGroup sync.WaitGroup
	results := make([][]byte, 8)
	for index := range results {
		index := index
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			data, err := get()
			if err != nil {
				t.Errorf("Lazy: %v", err)
			}
			results[index] = data
		}()
	}
	waitGroup.Wait()

	for index, data := range results {
		if !bytes.Equal(data, original) {
			t.Fatalf("result %d = %q", index, data)
		}
		// Every caller sees the same buffer: the cell holds one value.
		if &data[0] != &results[0][0] {
			t.Error("Lazy decoded more than once")
		}
	}
}

func TestLazyCachesErrors(t *testing.T) {
	get := Lazy(Inline{Data: []byte("garbage"), Codec: Zstd, Size: 3})
	_, first := get()
	_, second := get()
	if first == nil || first != second {
		t.Errorf("Lazy errors = %v, %v; want the same non-nil error", first, second)
	}
}

func TestUnresolved(t *testing.T) {
	err := Unresolved("missing.txt")
	if !packerr.Is(err, packerr.KindLookup) {
		t.Errorf("KindOf = %q, want lookup", packerr.KindOf(err))
	}
	if !bytes.Contains([]byte(err.Error()), []byte("missing.txt")) {
		t.Errorf("error %q should name the path", err)
	}
}
