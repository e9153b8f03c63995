package ntfs

import (
	"encoding/binary"
	"fmt"

	"github.com/medioxor/yoink/internal/yerrors"
)

const mftRecordUpCase = 10

// upcaseTable is the volume's $UpCase conversion table: a 65536-entry
// uint16 map from a UTF-16 code unit to its upper-cased form, used to
// perform NTFS's case-insensitive filename comparison correctly instead of
// relying on Go's Unicode case folding, which can disagree with it.
type upcaseTable []uint16

func loadUpcaseTable(vol *Volume) (upcaseTable, error) {
	rec, err := vol.readRecord(mftRecordUpCase)
	if err != nil {
		return nil, fmt.Errorf("%w: reading $UpCase record: %v", yerrors.ErrNtfsParseError, err)
	}
	data, err := vol.readAttributeData(rec, attrData, "")
	if err != nil {
		return nil, fmt.Errorf("%w: reading $UpCase data: %v", yerrors.ErrNtfsParseError, err)
	}
	n := len(data) / 2
	if n > 65536 {
		n = 65536
	}
	table := make(upcaseTable, 65536)
	for i := 0; i < n; i++ {
		table[i] = binary.LittleEndian.Uint16(data[i*2 : i*2+2])
	}
	for i := n; i < 65536; i++ {
		table[i] = uint16(i)
	}
	return table, nil
}

func (t upcaseTable) foldEqual(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) != len(rb) {
		return false
	}
	for i := range ra {
		if t.upper(ra[i]) != t.upper(rb[i]) {
			return false
		}
	}
	return true
}

func (t upcaseTable) upper(r rune) rune {
	if r < 0 || int(r) >= len(t) {
		return r
	}
	return rune(t[r])
}
