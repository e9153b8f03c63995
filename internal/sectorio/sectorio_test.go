package sectorio

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medioxor/yoink/internal/yerrors"
)

func makeSource(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i % 251)
	}
	return buf
}

func TestNewRejectsNonPowerOfTwo(t *testing.T) {
	_, err := New(bytes.NewReader(nil), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, yerrors.ErrInvalidSectorSize)

	_, err = New(bytes.NewReader(nil), 513)
	require.Error(t, err)
	assert.ErrorIs(t, err, yerrors.ErrInvalidSectorSize)
}

func TestReadRoundTrip(t *testing.T) {
	const sectorSize = 512
	source := makeSource(sectorSize * 8)

	tests := []struct {
		name   string
		offset int64
		length int
	}{
		{"aligned start, aligned length", 0, sectorSize},
		{"unaligned start", 100, 50},
		{"spans multiple sectors", sectorSize - 10, sectorSize + 20},
		{"single byte mid-sector", sectorSize*3 + 7, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(bytes.NewReader(source), sectorSize)
			require.NoError(t, err)

			_, err = r.Seek(tt.offset, io.SeekStart)
			require.NoError(t, err)

			buf := make([]byte, tt.length)
			n, err := io.ReadFull(r, buf)
			require.NoError(t, err)
			assert.Equal(t, tt.length, n)
			assert.Equal(t, source[tt.offset:tt.offset+int64(tt.length)], buf)
		})
	}
}

func TestSeekEndUnsupported(t *testing.T) {
	r, err := New(bytes.NewReader(makeSource(512)), 512)
	require.NoError(t, err)

	_, err = r.Seek(0, io.SeekEnd)
	assert.ErrorIs(t, err, yerrors.ErrUnsupportedSeek)
}

func TestSeekCurrentAccumulates(t *testing.T) {
	r, err := New(bytes.NewReader(makeSource(4096)), 512)
	require.NoError(t, err)

	pos, err := r.Seek(100, io.SeekStart)
	require.NoError(t, err)
	assert.EqualValues(t, 100, pos)

	pos, err = r.Seek(50, io.SeekCurrent)
	require.NoError(t, err)
	assert.EqualValues(t, 150, pos)

	_, err = r.Seek(-1000, io.SeekCurrent)
	assert.Error(t, err)
}
