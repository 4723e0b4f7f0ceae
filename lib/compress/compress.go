// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress implements the block compression codecs used by
// the scan cache and by reference snapshots.
//
// Floating-point payloads compress poorly byte-for-byte. The byte
// grouping codecs first gather byte 0 of every element, then byte 1,
// and so on, so that the sign and exponent bytes of neighbouring
// values sit next to each other, and then apply LZ4.
package compress

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Tag identifies a codec. Tags are stored in snapshot headers;
// existing values must not change.
type Tag uint8

const (
	None Tag = 0
	LZ4  Tag = 1
	Zstd Tag = 2
	// BG4LZ4 groups bytes of 4-byte elements (float32, complex64).
	BG4LZ4 Tag = 3
	// BG8LZ4 groups bytes of 8-byte elements (float64, complex128).
	BG8LZ4 Tag = 4
)

func (tag Tag) String() string {
	switch tag {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	case BG4LZ4:
		return "bg4_lz4"
	case BG8LZ4:
		return "bg8_lz4"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// ParseTag accepts the names printed by [Tag.String].
func ParseTag(name string) (Tag, error) {
	switch name {
	case "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	case "bg4_lz4":
		return BG4LZ4, nil
	case "bg8_lz4":
		return BG8LZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression tag %q", name)
	}
}

// ErrIncompressible is returned when the compressed form would not be
// smaller than the input. Callers store the data with [None].
var ErrIncompressible = errors.New("data is incompressible")

// Compress compresses data with tag. [None] returns data unchanged.
func Compress(data []byte, tag Tag) ([]byte, error) {
	switch tag {
	case None:
		return data, nil
	case LZ4:
		return compressLZ4(data)
	case Zstd:
		return compressZstd(data)
	case BG4LZ4:
		return compressLZ4(groupBytes(data, 4))
	case BG8LZ4:
		return compressLZ4(groupBytes(data, 8))
	default:
		return nil, fmt.Errorf("unsupported compression tag %v", tag)
	}
}

// Decompress reverses [Compress]. The result must be exactly size
// bytes long.
func Decompress(compressed []byte, tag Tag, size int) ([]byte, error) {
	switch tag {
	case None:
		if len(compressed) != size {
			return nil, fmt.Errorf("uncompressed payload is %d bytes, expected %d", len(compressed), size)
		}
		return compressed, nil
	case LZ4:
		return decompressLZ4(compressed, size)
	case Zstd:
		return decompressZstd(compressed, size)
	case BG4LZ4, BG8LZ4:
		grouped, err := decompressLZ4(compressed, size)
		if err != nil {
			return nil, err
		}
		width := 4
		if tag == BG8LZ4 {
			width = 8
		}
		return ungroupBytes(grouped, width), nil
	default:
		return nil, fmt.Errorf("unsupported compression tag %v", tag)
	}
}

// Auto compresses data with the codec suited to its element size
// (4 or 8 selects byte grouping, anything else zstd), falling back to
// [None] when nothing helps.
func Auto(data []byte, elementSize int) ([]byte, Tag, error) {
	tag := Zstd
	switch elementSize {
	case 4:
		tag = BG4LZ4
	case 8:
		tag = BG8LZ4
	}
	if len(data) == 0 {
		return data, None, nil
	}
	compressed, err := Compress(data, tag)
	if errors.Is(err, ErrIncompressible) {
		return data, None, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return compressed, tag, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// Zero means lz4 judged the block incompressible.
	if written == 0 || written >= len(data) {
		return nil, ErrIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, size int) ([]byte, error) {
	destination := make([]byte, size)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != size {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
	}
	return destination, nil
}

// zstd encoders and decoders are safe for concurrent EncodeAll and
// DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, ErrIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, size int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != size {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
	}
	return result, nil
}

// groupBytes gathers byte position 0 of every width-byte element,
// then position 1, and so on. Trailing bytes that do not fill an
// element are appended unchanged.
func groupBytes(data []byte, width int) []byte {
	groups := len(data) / width
	output := make([]byte, len(data))
	for i := range groups {
		for position := range width {
			output[position*groups+i] = data[i*width+position]
		}
	}
	copy(output[groups*width:], data[groups*width:])
	return output
}

func ungroupBytes(data []byte, width int) []byte {
	groups := len(data) / width
	output := make([]byte, len(data))
	for i := range groups {
		for position := range width {
			output[i*width+position] = data[position*groups+i]
		}
	}
	copy(output[groups*width:], data[groups*width:])
	return output
}
