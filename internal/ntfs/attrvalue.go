package ntfs

import (
	"fmt"
	"io"

	"github.com/medioxor/yoink/internal/sectorio"
	"github.com/medioxor/yoink/internal/yerrors"
)

// dataStream reads the logical byte range of a non-resident attribute
// through its decoded data runs, returning zero bytes for sparse holes
// rather than reading them from disk.
type dataStream struct {
	device          *sectorio.Reader
	bytesPerCluster int64
	runs            []run
	realSize        int64
	resident        []byte // non-nil for small attributes stored inline in the MFT record
}

// ReadAt reads len(buf) bytes starting at the given logical offset into the
// stream. Short reads past realSize are not special-cased here; callers
// clamp against realSize themselves (see streamReader.Read).
func (d *dataStream) ReadAt(buf []byte, offset int64) (int, error) {
	if d.resident != nil {
		n := copy(buf, d.resident[offset:])
		return n, nil
	}

	total := 0
	runStart := int64(0)

	for _, r := range d.runs {
		runBytes := r.length * d.bytesPerCluster
		runEnd := runStart + runBytes

		// Overlap between [offset, offset+len(buf)) and [runStart, runEnd).
		readStart := maxInt64(offset, runStart)
		readEnd := minInt64(offset+int64(len(buf)), runEnd)
		if readStart < readEnd {
			destOffset := readStart - offset
			n := readEnd - readStart
			if r.lcn == sparseLCN {
				// Hole run: leave the destination zeroed, as allocated but
				// never written clusters.
				for i := int64(0); i < n; i++ {
					buf[destOffset+i] = 0
				}
			} else {
				physOffset := r.lcn*d.bytesPerCluster + (readStart - runStart)
				if _, err := d.device.Seek(physOffset, io.SeekStart); err != nil {
					return total, fmt.Errorf("%w: %v", yerrors.ErrArchiveIoError, err)
				}
				if _, err := io.ReadFull(d.device, buf[destOffset:destOffset+n]); err != nil {
					return total, fmt.Errorf("%w: %v", yerrors.ErrArchiveIoError, err)
				}
			}
			total += int(n)
		}

		runStart = runEnd
		if runStart >= offset+int64(len(buf)) {
			break
		}
	}

	return total, nil
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
