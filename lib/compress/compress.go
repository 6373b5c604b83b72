// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress wraps the frame codecs used for packed assets.
//
// Two codecs are supported, both producing self-describing frames:
//
//   - zstd (the default): klauspost/compress. The frame header always
//     carries the frame content size, so the original length can be
//     recovered from the blob alone ([FrameContentSize]).
//   - lz4: pierrec/lz4 frame format with the content size option set
//     and a content checksum.
//
// Compression is deterministic: a [Compressor] uses a fixed encoder
// configuration with a single encoding goroutine and no timestamps,
// so identical input, codec, and level always produce byte-identical
// frames. Reproducible builds and any caching layer above the packer
// depend on this.
//
// Levels follow the zstd scale, 1 through 21. Each codec maps the
// level onto its own settings.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the frame codec used for a blob. The string forms
// are recorded in manifests and generated code; changing them breaks
// compatibility with existing build outputs.
type Codec uint8

const (
	// CodecZstd is the default codec: good ratios on text and binary
	// data, frame content size always present.
	CodecZstd Codec = 1

	// CodecLZ4 trades ratio for decode speed.
	CodecLZ4 Codec = 2
)

// Level bounds and default.
const (
	MinLevel = 1
	MaxLevel = 21

	// DefaultLevel balances build time against binary size.
	DefaultLevel = 6
)

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// Extension returns the file extension used for inline blob artifacts.
func (c Codec) Extension() string {
	switch c {
	case CodecZstd:
		return "zst"
	case CodecLZ4:
		return "lz4"
	default:
		return "blob"
	}
}

// MarshalText encodes the codec by name.
func (c Codec) MarshalText() ([]byte, error) {
	if c != CodecZstd && c != CodecLZ4 {
		return nil, fmt.Errorf("cannot encode unknown codec %d", c)
	}
	return []byte(c.String()), nil
}

// UnmarshalText parses a codec name.
func (c *Codec) UnmarshalText(text []byte) error {
	parsed, err := ParseCodec(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCodec parses a codec name. The empty string selects zstd.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "zstd", "":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return 0, fmt.Errorf("unknown codec %q (want zstd or lz4)", name)
	}
}

// ValidateLevel checks that level is within [MinLevel, MaxLevel].
func ValidateLevel(level int) error {
	if level < MinLevel || level > MaxLevel {
		return fmt.Errorf("compression level %d out of range [%d, %d]", level, MinLevel, MaxLevel)
	}
	return nil
}

// Compressor produces frames for one codec and level. A Compressor is
// safe for concurrent use: the zstd encoder's EncodeAll is documented
// as concurrency-safe, and lz4 frames use a fresh writer per call.
type Compressor struct {
	codec Codec
	level int
	zstd  *zstd.Encoder
}

// New creates a Compressor. Returns an error for an unknown codec or a
// level outside [MinLevel, MaxLevel].
func New(codec Codec, level int) (*Compressor, error) {
	if err := ValidateLevel(level); err != nil {
		return nil, err
	}

	compressor := &Compressor{codec: codec, level: level}
	switch codec {
	case CodecZstd:
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderCRC(true),
			zstd.WithZeroFrames(true),
			// Single-segment frames always carry the content size,
			// including the 1..255 byte range where the header would
			// otherwise omit it.
			zstd.WithSingleSegment(true),
		)
		if err != nil {
			return nil, fmt.Errorf("zstd encoder initialization: %w", err)
		}
		compressor.zstd = encoder
	case CodecLZ4:
	default:
		return nil, fmt.Errorf("unsupported codec: %s", codec)
	}
	return compressor, nil
}

// Codec returns the codec this Compressor produces.
func (c *Compressor) Codec() Codec { return c.codec }

// Level returns the configured level.
func (c *Compressor) Level() int { return c.level }

// Compress returns one complete frame holding data. Empty input still
// produces a valid, non-empty frame.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	switch c.codec {
	case CodecZstd:
		return c.zstd.EncodeAll(data, nil), nil
	case CodecLZ4:
		return compressLZ4(data, c.level)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", c.codec)
	}
}

// Close releases encoder resources.
func (c *Compressor) Close() error {
	if c.zstd != nil {
		return c.zstd.Close()
	}
	return nil
}

// lz4Level maps the 1..21 scale onto lz4's fast mode and its nine
// high-compression levels.
func lz4Level(level int) lz4.CompressionLevel {
	levels := []lz4.CompressionLevel{
		lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5,
		lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
	}
	switch {
	case level <= 3:
		return lz4.Fast
	case level >= 21:
		return lz4.Level9
	default:
		// 4..20 spread over Level1..Level9.
		return levels[(level-4)*len(levels)/17]
	}
}

func compressLZ4(data []byte, level int) ([]byte, error) {
	var buffer bytes.Buffer
	writer := lz4.NewWriter(&buffer)
	if err := writer.Apply(
		lz4.CompressionLevelOption(lz4Level(level)),
		lz4.ConcurrencyOption(1),
		lz4.ChecksumOption(true),
		lz4.SizeOption(uint64(len(data))),
	); err != nil {
		return nil, fmt.Errorf("lz4 writer options: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return buffer.Bytes(), nil
}

// ErrSizeMismatch is returned (wrapped) when a frame decodes to, or
// declares, a length different from the expected original size.
var ErrSizeMismatch = errors.New("decoded size mismatch")

// FrameContentSize returns the original size declared in a zstd frame
// header. The boolean is false when the codec does not expose the size
// or the header omits it.
func FrameContentSize(codec Codec, frame []byte) (uint64, bool, error) {
	if codec != CodecZstd {
		return 0, false, nil
	}
	var header zstd.Header
	if err := header.Decode(frame); err != nil {
		return 0, false, fmt.Errorf("zstd frame header: %w", err)
	}
	return header.FrameContentSize, header.HasFCS, nil
}

// Decompress decodes a single frame into a buffer allocated once at
// originalSize. Returns an error wrapping [ErrSizeMismatch] when the
// frame header or the decoded output disagree with originalSize; the
// output is never truncated or padded to fit.
//
// Every call builds its own decoder. Nothing is cached between calls.
func Decompress(codec Codec, frame []byte, originalSize int) ([]byte, error) {
	if originalSize < 0 {
		return nil, fmt.Errorf("negative original size %d", originalSize)
	}
	switch codec {
	case CodecZstd:
		return decompressZstd(frame, originalSize)
	case CodecLZ4:
		return decompressLZ4(frame, originalSize)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", codec)
	}
}

func decompressZstd(frame []byte, originalSize int) ([]byte, error) {
	declared, present, err := FrameContentSize(CodecZstd, frame)
	if err != nil {
		return nil, err
	}
	if present && declared != uint64(originalSize) {
		return nil, fmt.Errorf("zstd frame declares %d bytes, expected %d: %w", declared, originalSize, ErrSizeMismatch)
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd decoder initialization: %w", err)
	}
	defer decoder.Close()

	destination := make([]byte, 0, originalSize)
	result, err := decoder.DecodeAll(frame, destination)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != originalSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d: %w", len(result), originalSize, ErrSizeMismatch)
	}
	return result, nil
}

func decompressLZ4(frame []byte, originalSize int) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(frame))
	destination := make([]byte, originalSize)
	if _, err := io.ReadFull(reader, destination); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("lz4 decompress: frame shorter than %d bytes: %w", originalSize, ErrSizeMismatch)
		}
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}

	// The frame must end exactly here. Reading one more byte either
	// hits EOF (which also verifies the content checksum) or exposes
	// data beyond the recorded size.
	var extra [1]byte
	count, err := reader.Read(extra[:])
	if count > 0 {
		return nil, fmt.Errorf("lz4 decompress: frame longer than %d bytes: %w", originalSize, ErrSizeMismatch)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return destination, nil
}
