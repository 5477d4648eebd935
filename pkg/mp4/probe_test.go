package mp4

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBox(boxType string, content []byte) []byte {
	box := make([]byte, 8, 8+len(content))
	binary.BigEndian.PutUint32(box, uint32(8+len(content)))
	copy(box[4:], boxType)
	return append(box, content...)
}

// buildMvhd builds a version 0 movie header.
func buildMvhd(timescale, duration uint32) []byte {
	payload := make([]byte, 100)
	binary.BigEndian.PutUint32(payload[12:], timescale)
	binary.BigEndian.PutUint32(payload[16:], duration)
	binary.BigEndian.PutUint32(payload[20:], 0x00010000) // rate 1.0
	binary.BigEndian.PutUint16(payload[24:], 0x0100)     // volume 1.0
	binary.BigEndian.PutUint32(payload[96:], 2)          // next track id
	return buildBox("mvhd", payload)
}

func buildFile(boxes ...[]byte) []byte {
	ftyp := buildBox("ftyp", []byte("M4A \x00\x00\x02\x00isomM4A "))
	return append(ftyp, bytes.Join(boxes, nil)...)
}

var aacLCEsds = []byte{
	0x00, 0x00, 0x00, 0x00,
	0x03, 0x80, 0x80, 0x80, 0x25,
	0x00, 0x01, 0x00,
	0x04, 0x80, 0x80, 0x80, 0x17,
	0x40,
	0x15,
	0x00, 0x05, 0xec,
	0x00, 0x01, 0x0a, 0xa6,
	0x00, 0x01, 0xf4, 0x00, // 128000 bps
	0x05, 0x80, 0x80, 0x80, 0x05,
	0x13, 0x90, 0x56, 0xe5, 0x00,
	0x06, 0x80, 0x80, 0x80, 0x01,
	0x02,
}

func TestProbeReader_Duration(t *testing.T) {
	t.Parallel()

	data := buildFile(buildBox("moov", buildMvhd(1000, 90500)))
	info, err := ProbeReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), info.Timescale)
	assert.Equal(t, 90500*time.Millisecond, info.Duration)
	assert.InDelta(t, 90.5, info.Seconds(), 0.0001)
	assert.Empty(t, info.Codec)
}

func TestProbeReader_NoMovieHeader(t *testing.T) {
	t.Parallel()

	_, err := ProbeReader(bytes.NewReader(buildFile(buildBox("free", []byte{0, 0, 0, 0}))))
	assert.ErrorIs(t, err, ErrNotMP4)
}

func TestProbe_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "0001.m4a")
	require.NoError(t, os.WriteFile(path, buildFile(buildBox("moov", buildMvhd(44100, 44100*60))), 0644))

	info, err := Probe(path)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, info.Duration)

	_, err = Probe(filepath.Join(t.TempDir(), "missing.m4a"))
	require.Error(t, err)
}

func TestParseEsds(t *testing.T) {
	t.Parallel()

	codec, bitrate := parseEsds(aacLCEsds)
	assert.Equal(t, "AAC-LC", codec)
	assert.Equal(t, uint32(128000), bitrate)

	codec, bitrate = parseEsds([]byte{0x00, 0x00})
	assert.Empty(t, codec)
	assert.Zero(t, bitrate)
}

func TestParseEsds_ExtendedObjectType(t *testing.T) {
	t.Parallel()

	data := []byte{
		0x00, 0x00, 0x00, 0x00,
		0x03, 0x1b,
		0x00, 0x00, 0x00,
		0x04, 0x13,
		0x40, 0x15,
		0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x05, 0x02,
		0xf9, 0x40, // audioObjectType 31 escape, then 10 -> 42
	}
	codec, _ := parseEsds(data)
	assert.Equal(t, "xHE-AAC", codec)
}

func TestParseEsds_MPEG2ObjectTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		objectType byte
		expected   string
	}{
		{0x66, "MPEG-2 AAC Main"},
		{0x67, "MPEG-2 AAC-LC"},
		{0x68, "MPEG-2 AAC SSR"},
		{0x6B, "MP3"},
		{0x20, "Unknown"},
	}
	for _, tc := range tests {
		data := []byte{0x04, 0x0d, tc.objectType, 0x15, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
		codec, _ := parseEsds(data)
		assert.Equal(t, tc.expected, codec)
	}
}
