package net

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTripSmall(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03}

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, payload))

	// Small payloads go out raw.
	raw := buf.Bytes()
	assert.Equal(t, byte(0), raw[2]&flagCompressed)

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFrameRoundTripCompressible(t *testing.T) {
	// A terrain-block-shaped payload: long runs of the same material.
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i / 512)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, payload))

	raw := buf.Bytes()
	assert.Equal(t, byte(flagCompressed), raw[2]&flagCompressed)
	assert.Less(t, buf.Len(), len(payload), "wire size should shrink")

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFrameIncompressiblePayloadSentRaw(t *testing.T) {
	// Pseudo-random bytes do not compress; the frame must fall back to raw
	// rather than growing.
	payload := make([]byte, 1024)
	state := uint64(0x9E3779B97F4A7C15)
	for i := range payload {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		payload[i] = byte(state)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, payload))

	raw := buf.Bytes()
	if raw[2]&flagCompressed == 0 {
		assert.Equal(t, len(payload)+3, buf.Len())
	}

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFrameTooLarge(t *testing.T) {
	// Over the payload cap, even though it would compress to almost nothing.
	payload := make([]byte, maxPayloadLen+1)

	var buf bytes.Buffer
	err := WriteFrame(&buf, payload)
	require.Error(t, err)
}

func TestReadFrameRejectsDecompressionBomb(t *testing.T) {
	// A small wire frame whose payload inflates far past any legal packet.
	// The decoder must refuse it instead of materializing the expansion.
	bomb := zstdEncoder.EncodeAll(make([]byte, 1<<20), nil)
	require.Less(t, len(bomb)+3, maxFrameLen, "bomb must fit a legal frame on the wire")

	var buf bytes.Buffer
	var header [3]byte
	binary.LittleEndian.PutUint16(header[:2], uint16(len(bomb)+3))
	header[2] = flagCompressed
	buf.Write(header[:])
	buf.Write(bomb)

	_, err := ReadFrame(&buf)
	require.Error(t, err)
}

func TestReadFrameRejectsBadLength(t *testing.T) {
	var buf bytes.Buffer
	var header [3]byte
	binary.LittleEndian.PutUint16(header[:2], 3) // zero-byte payload
	buf.Write(header[:])

	_, err := ReadFrame(&buf)
	require.Error(t, err)
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	var header [3]byte
	binary.LittleEndian.PutUint16(header[:2], 10)
	buf.Write(header[:])
	buf.Write([]byte{0x01, 0x02}) // 2 of 7 payload bytes

	_, err := ReadFrame(&buf)
	require.Error(t, err)
}
