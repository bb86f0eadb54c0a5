package net

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Wire format: [2 bytes LE: total length including header][1 byte flags][payload].
// Flag bit 0 set means the payload is zstd-compressed. Terrain block packets
// dominate the byte volume, so frames above compressThreshold are compressed.
const (
	flagCompressed = 0x01

	// compressThreshold is the smallest payload worth compressing. Control
	// packets stay well under it and skip the zstd round trip.
	compressThreshold = 256

	maxFrameLen = 0xFFFF

	// maxPayloadLen bounds the DECOMPRESSED payload, not just the wire
	// bytes. Every legal packet fits a raw frame (block_edge is validated
	// against this at config load), so a compressed payload that inflates
	// past it is hostile, not big.
	maxPayloadLen = maxFrameLen - 3
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxPayloadLen))
)

// ReadFrame reads one frame from r and returns the decompressed payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [3]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	totalLen := int(binary.LittleEndian.Uint16(header[:2]))
	flags := header[2]
	payloadLen := totalLen - 3
	if payloadLen <= 0 || payloadLen > maxFrameLen-3 {
		return nil, fmt.Errorf("invalid frame length: %d", totalLen)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload (%d bytes): %w", payloadLen, err)
	}

	if flags&flagCompressed != 0 {
		decoded, err := zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress frame: %w", err)
		}
		if len(decoded) > maxPayloadLen {
			return nil, fmt.Errorf("decompressed frame too large: %d bytes", len(decoded))
		}
		return decoded, nil
	}
	return payload, nil
}

// WriteFrame writes one frame to w, compressing large payloads. Payloads
// over maxPayloadLen are rejected outright: the peer's decoder enforces the
// same bound, so squeezing one through compression would only move the
// failure to the other side.
func WriteFrame(w io.Writer, data []byte) error {
	if len(data) > maxPayloadLen {
		return fmt.Errorf("frame payload too large: %d bytes", len(data))
	}
	payload := data
	var flags byte
	if len(data) >= compressThreshold {
		compressed := zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2))
		// Incompressible payloads are sent as-is.
		if len(compressed) < len(data) {
			payload = compressed
			flags = flagCompressed
		}
	}

	totalLen := len(payload) + 3
	if totalLen > maxFrameLen {
		return fmt.Errorf("frame too large: %d bytes", totalLen)
	}

	var header [3]byte
	binary.LittleEndian.PutUint16(header[:2], uint16(totalLen))
	header[2] = flags

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}
