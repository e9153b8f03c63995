package ntfs

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/medioxor/yoink/internal/yerrors"
)

// Attribute type codes, the handful this package needs to walk a file
// record and resolve paths, names and data.
const (
	attrStandardInformation = 0x10
	attrAttributeList       = 0x20
	attrFileName            = 0x30
	attrData                = 0x80
	attrIndexRoot           = 0x90
	attrIndexAllocation     = 0xA0
	attrBitmap              = 0xB0
	attrEnd                 = 0xFFFFFFFF
)

const (
	recordFlagInUse    = 0x0001
	recordFlagIsDir    = 0x0002
	fileNameNamespaceDOS = 2
)

// fileRecord is one parsed $MFT entry: its header fields plus the raw
// attribute byte ranges, not yet decoded into specific attribute shapes.
type fileRecord struct {
	inUse      bool
	isDir      bool
	baseRecord uint64
	attrs      []rawAttribute
}

// rawAttribute is an undecoded attribute: its type, its resident/non-resident
// value bytes (resident: the value itself; non-resident: the data-run byte
// string) and, for non-resident attributes, the size fields needed to read
// through sparse runs.
type rawAttribute struct {
	attrType      uint32
	nonResident   bool
	name          string
	value         []byte // resident value, or encoded data runs if non-resident
	allocatedSize int64
	realSize      int64
	startVCN      int64
}

// parseFileRecord decodes one raw MFT record buffer (bytesPerFileRecord long)
// after applying the update-sequence fixup.
func parseFileRecord(buf []byte, bytesPerSector uint16) (fileRecord, error) {
	if len(buf) < 48 || string(buf[0:4]) != "FILE" {
		return fileRecord{}, fmt.Errorf("%w: bad MFT record signature", yerrors.ErrNtfsParseError)
	}
	if err := applyFixup(buf, bytesPerSector); err != nil {
		return fileRecord{}, err
	}

	flags := binary.LittleEndian.Uint16(buf[22:24])
	baseRef := binary.LittleEndian.Uint64(buf[32:40])
	attrOffset := binary.LittleEndian.Uint16(buf[20:22])

	rec := fileRecord{
		inUse:      flags&recordFlagInUse != 0,
		isDir:      flags&recordFlagIsDir != 0,
		baseRecord: baseRef & 0x0000FFFFFFFFFFFF,
	}

	pos := int(attrOffset)
	for pos+8 <= len(buf) {
		attrType := binary.LittleEndian.Uint32(buf[pos : pos+4])
		if attrType == attrEnd {
			break
		}
		attrLen := binary.LittleEndian.Uint32(buf[pos+4 : pos+8])
		if attrLen == 0 || pos+int(attrLen) > len(buf) {
			break
		}
		attr, err := parseAttribute(buf[pos : pos+int(attrLen)])
		if err != nil {
			return fileRecord{}, err
		}
		rec.attrs = append(rec.attrs, attr)
		pos += int(attrLen)
	}

	return rec, nil
}

// applyFixup validates and replaces the "update sequence array" bytes that
// NTFS stamps over the last two bytes of every sector in a record, a
// corruption check left over from spinning-disk write tearing.
func applyFixup(buf []byte, bytesPerSector uint16) error {
	if len(buf) < 8 {
		return fmt.Errorf("%w: record too small for fixup header", yerrors.ErrNtfsParseError)
	}
	usaOffset := binary.LittleEndian.Uint16(buf[4:6])
	usaCount := binary.LittleEndian.Uint16(buf[6:8])
	if usaCount == 0 {
		return nil
	}
	if int(usaOffset)+int(usaCount)*2 > len(buf) {
		return fmt.Errorf("%w: update sequence array out of bounds", yerrors.ErrNtfsParseError)
	}
	usa := buf[usaOffset : usaOffset+usaCount*2]
	usn := usa[0:2]

	sector := int(bytesPerSector)
	for i := 1; i < int(usaCount); i++ {
		end := i*sector - 2
		if end+2 > len(buf) {
			break
		}
		if buf[end] != usn[0] || buf[end+1] != usn[1] {
			return fmt.Errorf("%w: update sequence number mismatch", yerrors.ErrNtfsParseError)
		}
		copy(buf[end:end+2], usa[i*2:i*2+2])
	}
	return nil
}

func parseAttribute(buf []byte) (rawAttribute, error) {
	if len(buf) < 16 {
		return rawAttribute{}, fmt.Errorf("%w: attribute header truncated", yerrors.ErrNtfsParseError)
	}
	attrType := binary.LittleEndian.Uint32(buf[0:4])
	nonResident := buf[8] != 0
	nameLen := buf[9]
	nameOffset := binary.LittleEndian.Uint16(buf[10:12])

	var name string
	if nameLen > 0 {
		name = utf16ToString(buf[nameOffset : int(nameOffset)+int(nameLen)*2])
	}

	attr := rawAttribute{attrType: attrType, nonResident: nonResident, name: name}

	if !nonResident {
		if len(buf) < 24 {
			return rawAttribute{}, fmt.Errorf("%w: resident attribute header truncated", yerrors.ErrNtfsParseError)
		}
		valueLen := binary.LittleEndian.Uint32(buf[16:20])
		valueOffset := binary.LittleEndian.Uint16(buf[20:22])
		if int(valueOffset)+int(valueLen) > len(buf) {
			return rawAttribute{}, fmt.Errorf("%w: resident attribute value out of bounds", yerrors.ErrNtfsParseError)
		}
		attr.value = append([]byte(nil), buf[valueOffset:int(valueOffset)+int(valueLen)]...)
		attr.realSize = int64(valueLen)
		attr.allocatedSize = int64(valueLen)
		return attr, nil
	}

	if len(buf) < 64 {
		return rawAttribute{}, fmt.Errorf("%w: non-resident attribute header truncated", yerrors.ErrNtfsParseError)
	}
	attr.startVCN = int64(binary.LittleEndian.Uint64(buf[16:24]))
	runsOffset := binary.LittleEndian.Uint16(buf[32:34])
	attr.allocatedSize = int64(binary.LittleEndian.Uint64(buf[40:48]))
	attr.realSize = int64(binary.LittleEndian.Uint64(buf[48:56]))
	if int(runsOffset) > len(buf) {
		return rawAttribute{}, fmt.Errorf("%w: data run offset out of bounds", yerrors.ErrNtfsParseError)
	}
	attr.value = append([]byte(nil), buf[runsOffset:]...)
	return attr, nil
}

// standardInformation is the subset of $STANDARD_INFORMATION this tool
// reports: the MFT-record modification timestamp.
type standardInformation struct {
	mftModified time.Time
}

func parseStandardInformation(value []byte) (standardInformation, error) {
	if len(value) < 24 {
		return standardInformation{}, fmt.Errorf("%w: $STANDARD_INFORMATION truncated", yerrors.ErrNtfsParseError)
	}
	mftModified := binary.LittleEndian.Uint64(value[16:24])
	return standardInformation{mftModified: filetimeToTime(mftModified)}, nil
}

// filetimeToTime converts a Windows FILETIME (100ns ticks since 1601-01-01)
// to time.Time.
func filetimeToTime(ft uint64) time.Time {
	const epochDiff = 116444736000000000 // 100ns ticks between 1601 and 1970
	if ft < epochDiff {
		return time.Time{}
	}
	unix100ns := ft - epochDiff
	return time.Unix(0, int64(unix100ns)*100).UTC()
}

type fileNameAttribute struct {
	parentRef uint64
	name      string
	namespace byte
}

func parseFileName(value []byte) (fileNameAttribute, error) {
	if len(value) < 66 {
		return fileNameAttribute{}, fmt.Errorf("%w: $FILE_NAME truncated", yerrors.ErrNtfsParseError)
	}
	parentRef := binary.LittleEndian.Uint64(value[0:8]) & 0x0000FFFFFFFFFFFF
	nameLenChars := value[64]
	namespace := value[65]
	nameBytes := value[66:]
	if len(nameBytes) < int(nameLenChars)*2 {
		return fileNameAttribute{}, fmt.Errorf("%w: $FILE_NAME name truncated", yerrors.ErrNtfsParseError)
	}
	name := utf16ToString(nameBytes[:int(nameLenChars)*2])
	return fileNameAttribute{parentRef: parentRef, name: name, namespace: namespace}, nil
}

func utf16ToString(b []byte) string {
	u16 := make([]uint16, len(b)/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(b[i*2 : i*2+2])
	}
	return string(utf16Decode(u16))
}

// utf16Decode is a small local decoder so this package does not reach for
// golang.org/x/text just to turn UTF-16LE names into runes.
func utf16Decode(s []uint16) []rune {
	out := make([]rune, 0, len(s))
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		if r >= 0xD800 && r <= 0xDBFF && i+1 < len(s) {
			r2 := rune(s[i+1])
			if r2 >= 0xDC00 && r2 <= 0xDFFF {
				out = append(out, ((r-0xD800)<<10|(r2-0xDC00))+0x10000)
				i++
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// findAttr returns the first attribute of the given type whose name equals
// name (an empty name selects only an unnamed attribute), or ok=false.
func (rec fileRecord) findAttr(attrType uint32, name string) (rawAttribute, bool) {
	for _, a := range rec.attrs {
		if a.attrType == attrType && a.name == name {
			return a, true
		}
	}
	return rawAttribute{}, false
}

func (rec fileRecord) allAttrs(attrType uint32) []rawAttribute {
	var out []rawAttribute
	for _, a := range rec.attrs {
		if a.attrType == attrType {
			out = append(out, a)
		}
	}
	return out
}
