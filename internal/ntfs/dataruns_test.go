package ntfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataRunsSingleRun(t *testing.T) {
	// Header 0x31: offset field 3 bytes, length field 1 byte.
	// length=0x10 (16 clusters), offset=0x001234 (LCN 0x1234).
	buf := []byte{0x31, 0x10, 0x34, 0x12, 0x00, 0x00}
	runs, err := decodeDataRuns(buf)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.EqualValues(t, 0x1234, runs[0].lcn)
	assert.EqualValues(t, 16, runs[0].length)
}

func TestDecodeDataRunsSparseThenData(t *testing.T) {
	// First run: sparse hole of 5 clusters (header 0x01: length=1 byte,
	// offset=0 bytes). Second run: 3 clusters starting at LCN 100 relative
	// to the previous LCN (which was never set, so delta == LCN itself).
	buf := []byte{
		0x01, 0x05, // sparse run, length 5
		0x11, 0x03, 0x64, // header, length=3, offset delta=0x64=100
		0x00, // terminator
	}
	runs, err := decodeDataRuns(buf)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.EqualValues(t, sparseLCN, runs[0].lcn)
	assert.EqualValues(t, 5, runs[0].length)
	assert.EqualValues(t, 100, runs[1].lcn)
	assert.EqualValues(t, 3, runs[1].length)
}

func TestDecodeDataRunsNegativeOffset(t *testing.T) {
	// Two runs where the second moves backwards relative to the first,
	// as happens with fragmented files.
	buf := []byte{
		0x21, 0x05, 0xC8, 0x00, // length=5 (1 byte), LCN=200 (2-byte offset 0x00C8)
		0x21, 0x02, 0x9C, 0xFF, // length=2 (1 byte), delta=-100 (2-byte offset 0xFF9C)
		0x00,
	}
	runs, err := decodeDataRuns(buf)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.EqualValues(t, 200, runs[0].lcn)
	assert.EqualValues(t, 100, runs[1].lcn)
}

func TestDecodeSigned(t *testing.T) {
	assert.EqualValues(t, 100, decodeSigned([]byte{0x64}))
	assert.EqualValues(t, -100, decodeSigned([]byte{0x9C}))
	assert.EqualValues(t, -1, decodeSigned([]byte{0xFF}))
	assert.EqualValues(t, 0, decodeSigned(nil))
}

func TestFiletimeToTime(t *testing.T) {
	// 1970-01-01T00:00:00Z in FILETIME ticks.
	epoch := filetimeToTime(116444736000000000)
	assert.Equal(t, int64(0), epoch.Unix())

	zero := filetimeToTime(0)
	assert.True(t, zero.IsZero())
}
