// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the algorithm applied to a session blob before
// encryption. The value is written as the first byte of every frame, so
// these constants are part of the record format.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

// maxBlobSize bounds the declared uncompressed size of a frame. Session
// blobs are a few hundred bytes; anything near this is corrupt.
const maxBlobSize = 1 << 20

var errIncompressible = errors.New("data is incompressible")

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses a compression name. The empty string selects
// zstd.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	case "none":
		return CompressionNone, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want zstd, lz4 or none)", name)
	}
}

// frame compresses blob with the preferred algorithm and prepends the
// frame header: one tag byte and the uncompressed length as a uvarint.
// Data that does not shrink is stored uncompressed.
func frame(blob []byte, preferred Compression) ([]byte, error) {
	if len(blob) > maxBlobSize {
		return nil, fmt.Errorf("session blob is %d bytes, limit is %d", len(blob), maxBlobSize)
	}

	tag := preferred
	var payload []byte
	var err error
	switch preferred {
	case CompressionNone:
		payload = blob
	case CompressionLZ4:
		payload, err = compressLZ4(blob)
	case CompressionZstd:
		payload, err = compressZstd(blob)
	default:
		return nil, fmt.Errorf("unsupported compression: %s", preferred)
	}
	if errors.Is(err, errIncompressible) {
		tag, payload, err = CompressionNone, blob, nil
	}
	if err != nil {
		return nil, err
	}

	header := make([]byte, 1, 1+binary.MaxVarintLen64+len(payload))
	header[0] = byte(tag)
	header = binary.AppendUvarint(header, uint64(len(blob)))
	return append(header, payload...), nil
}

// unframe reverses frame using the tag recorded in the header, so a
// record stays readable after the configured compression changes.
func unframe(framed []byte) ([]byte, error) {
	if len(framed) < 2 {
		return nil, errors.New("frame too short")
	}
	tag := Compression(framed[0])
	size, headerLength := binary.Uvarint(framed[1:])
	if headerLength <= 0 {
		return nil, errors.New("malformed frame length")
	}
	if size > maxBlobSize {
		return nil, fmt.Errorf("frame declares %d bytes, limit is %d", size, maxBlobSize)
	}
	payload := framed[1+headerLength:]

	switch tag {
	case CompressionNone:
		if uint64(len(payload)) != size {
			return nil, fmt.Errorf("uncompressed frame has %d bytes, header says %d", len(payload), size)
		}
		return payload, nil
	case CompressionLZ4:
		return decompressLZ4(payload, int(size))
	case CompressionZstd:
		return decompressZstd(payload, int(size))
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock reports 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
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

// zstd.Encoder and zstd.Decoder are safe for concurrent use through
// EncodeAll and DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		panic("vault: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxBlobSize))
	if err != nil {
		panic("vault: zstd decoder initialization failed: " + err.Error())
	}
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
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
