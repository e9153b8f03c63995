// Package sectorio implements the sector-aligned block reader (C2): it
// wraps a seekable byte source that only accepts sector-multiple I/O (a raw
// Windows volume handle) and exposes ordinary byte-addressable Read/Seek.
package sectorio

import (
	"fmt"
	"io"

	"github.com/medioxor/yoink/internal/yerrors"
)

// Reader wraps an io.ReadSeeker and only issues reads/seeks on boundaries
// of sectorSize. Reads and seeks at arbitrary byte offsets are translated
// into aligned reads against a reusable scratch buffer.
//
// A Reader keeps no buffer across calls beyond its own growable scratch
// slice, so every Read issues at least one aligned read to inner. The ntfs
// package uses a Reader directly, with no buffered reader layered on top.
type Reader struct {
	inner      io.ReadSeeker
	sectorSize int64
	position   int64
	scratch    []byte
}

// New constructs a Reader. Construction fails with ErrInvalidSectorSize
// unless sectorSize is a power of two.
func New(inner io.ReadSeeker, sectorSize int) (*Reader, error) {
	if sectorSize <= 0 || sectorSize&(sectorSize-1) != 0 {
		return nil, fmt.Errorf("%w: %d", yerrors.ErrInvalidSectorSize, sectorSize)
	}
	return &Reader{
		inner:      inner,
		sectorSize: int64(sectorSize),
	}, nil
}

func (r *Reader) alignDown(n int64) int64 {
	return n / r.sectorSize * r.sectorSize
}

func (r *Reader) alignUp(n int64) int64 {
	return r.alignDown(n) + r.sectorSize
}

// Read implements io.Reader. The logical position advances by exactly
// len(buf) bytes on success.
func (r *Reader) Read(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	alignedPosition := r.alignDown(r.position)
	start := r.position - alignedPosition
	end := start + int64(len(buf))
	alignedLen := r.alignUp(end)

	if int64(cap(r.scratch)) < alignedLen {
		r.scratch = make([]byte, alignedLen)
	} else {
		r.scratch = r.scratch[:alignedLen]
	}

	if _, err := r.inner.Seek(alignedPosition, io.SeekStart); err != nil {
		return 0, fmt.Errorf("%w: %v", yerrors.ErrArchiveIoError, err)
	}
	if _, err := io.ReadFull(r.inner, r.scratch); err != nil {
		return 0, err
	}

	n := copy(buf, r.scratch[start:end])
	r.position += int64(n)
	return n, nil
}

// Seek implements io.Seeker. io.SeekEnd always fails with
// ErrUnsupportedSeek because a raw partition handle cannot report its size.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = r.position + offset
		// Detect signed overflow/underflow the same way the checked-add in
		// the original implementation would reject it.
		if (offset > 0 && newPos < r.position) || (offset < 0 && newPos > r.position) {
			return 0, fmt.Errorf("invalid seek: overflow computing position")
		}
	case io.SeekEnd:
		return 0, yerrors.ErrUnsupportedSeek
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("invalid seek to negative position %d", newPos)
	}
	r.position = newPos
	return r.position, nil
}
