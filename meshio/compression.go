package meshio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block codec used for the container payload.
type Compression uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "lz4" or "zstd" (case-insensitive, empty means none).
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return CompressionNone, fmt.Errorf("meshio: unknown compression %q", s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxBlockSize))
	return dec
}

// Block layout: [raw size u32][stored size u32][data]. A stored size of 0
// means the data follows uncompressed.
const blockHeaderSize = 8

// maxBlockSize bounds the raw payload of one container.
const maxBlockSize = 1 << 30

// lz4MaxRatio is the largest raw/stored ratio an LZ4 block can reach: one
// length byte extends a match by at most 255 bytes.
const lz4MaxRatio = 255

// storeRatio is the compressed/raw ratio above which compression is not worth it.
const storeRatio = 0.9

func compressBlock(data []byte, c Compression) ([]byte, error) {
	if len(data) > maxBlockSize {
		return nil, fmt.Errorf("meshio: payload of %d bytes exceeds block limit", len(data))
	}

	var packed []byte
	switch c {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		packed = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		packed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("meshio: unknown compression %d", c)
	}

	if len(packed) == 0 || float64(len(packed)) > float64(len(data))*storeRatio {
		out := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		copy(out[blockHeaderSize:], data)
		return out, nil
	}

	out := make([]byte, blockHeaderSize+len(packed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(packed)))
	copy(out[blockHeaderSize:], packed)
	return out, nil
}

func decompressBlock(data []byte, c Compression) ([]byte, error) {
	if len(data) < blockHeaderSize {
		return nil, errors.New("block too small for header")
	}

	rawSize := binary.LittleEndian.Uint32(data[0:])
	storedSize := binary.LittleEndian.Uint32(data[4:])
	body := data[blockHeaderSize:]

	if storedSize == 0 {
		if uint64(len(body)) < uint64(rawSize) {
			return nil, errors.New("block data too small")
		}
		return body[:rawSize], nil
	}

	if uint64(len(body)) < uint64(storedSize) {
		return nil, errors.New("compressed block data too small")
	}
	body = body[:storedSize]
	if rawSize > maxBlockSize {
		return nil, fmt.Errorf("raw size %d exceeds block limit", rawSize)
	}

	switch c {
	case CompressionLZ4:
		if uint64(rawSize) > uint64(storedSize)*lz4MaxRatio+blockHeaderSize {
			return nil, fmt.Errorf("raw size %d impossible for %d lz4 bytes", rawSize, storedSize)
		}
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, err
		}
		if uint32(n) != rawSize { //nolint:gosec // n <= len(out)
			return nil, errors.New("decompressed size mismatch")
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		// The frame sizes its own output; rawSize is only checked afterwards.
		decoded, err := dec.DecodeAll(body, nil)
		if err != nil {
			return nil, err
		}
		if uint64(len(decoded)) != uint64(rawSize) {
			return nil, errors.New("decompressed size mismatch")
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("compressed block with codec %s", c)
	}
}
