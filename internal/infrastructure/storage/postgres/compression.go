package postgres

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// CompressionAlgo specifies the compression algorithm used for a stored payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which zstd is applied.
const DefaultCompressThreshold = 8 * 1024

// PayloadCodec compresses large payloads with zstd. Encoder and decoder are
// safe for concurrent EncodeAll/DecodeAll calls.
type PayloadCodec struct {
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

// NewPayloadCodec creates a codec. threshold <= 0 selects DefaultCompressThreshold.
func NewPayloadCodec(threshold int) (*PayloadCodec, error) {
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &PayloadCodec{encoder: encoder, decoder: decoder, threshold: threshold}, nil
}

// Encode returns the stored form of raw and the algorithm used.
func (c *PayloadCodec) Encode(raw []byte) ([]byte, CompressionAlgo) {
	if len(raw) <= c.threshold {
		return raw, CompressionNone
	}
	return c.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), CompressionZstd
}

// Decode reverses Encode.
func (c *PayloadCodec) Decode(data []byte, algo CompressionAlgo) ([]byte, error) {
	switch algo {
	case "", CompressionNone:
		return data, nil
	case CompressionZstd:
		out, err := c.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm %q", algo)
	}
}
