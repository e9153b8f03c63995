package ntfs

import (
	"fmt"

	"github.com/medioxor/yoink/internal/yerrors"
)

// run is one decoded data run: a span of length clusters starting at lcn,
// or a sparse hole (lcn < 0) of the same length.
type run struct {
	lcn    int64
	length int64
}

const sparseLCN = -1

// decodeDataRuns parses the variable-length-nibble-encoded run list that
// follows a non-resident attribute header. Each run is a header byte whose
// low nibble gives the byte length of the (always present) run length field
// and whose high nibble gives the byte length of the (possibly absent, for
// sparse runs) signed run offset field, relative to the previous run's LCN.
// A zero header byte terminates the list.
func decodeDataRuns(buf []byte) ([]run, error) {
	var runs []run
	pos := 0
	lastLCN := int64(0)

	for pos < len(buf) {
		header := buf[pos]
		if header == 0 {
			break
		}
		lengthSize := int(header & 0x0F)
		offsetSize := int(header >> 4)
		pos++

		if pos+lengthSize > len(buf) {
			return nil, fmt.Errorf("%w: data run length field out of bounds", yerrors.ErrNtfsParseError)
		}
		length := decodeUnsigned(buf[pos : pos+lengthSize])
		pos += lengthSize

		if offsetSize == 0 {
			// Sparse run: no LCN field, represents a hole.
			runs = append(runs, run{lcn: sparseLCN, length: length})
			continue
		}

		if pos+offsetSize > len(buf) {
			return nil, fmt.Errorf("%w: data run offset field out of bounds", yerrors.ErrNtfsParseError)
		}
		delta := decodeSigned(buf[pos : pos+offsetSize])
		pos += offsetSize

		lastLCN += delta
		runs = append(runs, run{lcn: lastLCN, length: length})
	}

	return runs, nil
}

func decodeUnsigned(b []byte) int64 {
	var v int64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | int64(b[i])
	}
	return v
}

// decodeSigned decodes a little-endian two's-complement value of variable
// byte width, sign-extending from the top bit of the last byte.
func decodeSigned(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	v := decodeUnsigned(b)
	topBit := int64(1) << uint(len(b)*8-1)
	if v&topBit != 0 {
		v -= topBit << 1
	}
	return v
}
