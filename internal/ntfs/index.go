package ntfs

import (
	"encoding/binary"
	"fmt"

	"github.com/medioxor/yoink/internal/yerrors"
)

const (
	indexEntryFlagHasSubNode = 0x01
	indexEntryFlagLast       = 0x02
	indexHeaderFlagHasSubNodes = 0x01
)

// indexEntry is one decoded $I30 entry: the child's MFT reference plus its
// FILE_NAME attribute payload (so the caller can read the name out of it),
// and, if present, the VCN of the child index allocation buffer to descend
// into for entries ordered after this one.
type indexEntry struct {
	fileRef   uint64
	fileName  []byte
	hasSubNode bool
	subNodeVCN int64
	isLast     bool
}

func parseIndexEntries(buf []byte) ([]indexEntry, error) {
	var entries []indexEntry
	pos := 0
	for pos+16 <= len(buf) {
		fileRef := binary.LittleEndian.Uint64(buf[pos : pos+8])
		entryLen := binary.LittleEndian.Uint16(buf[pos+8 : pos+10])
		keyLen := binary.LittleEndian.Uint16(buf[pos+10 : pos+12])
		flags := binary.LittleEndian.Uint16(buf[pos+12 : pos+14])
		if entryLen == 0 || pos+int(entryLen) > len(buf) {
			break
		}

		e := indexEntry{
			fileRef:    fileRef & 0x0000FFFFFFFFFFFF,
			hasSubNode: flags&indexEntryFlagHasSubNode != 0,
			isLast:     flags&indexEntryFlagLast != 0,
		}
		if !e.isLast && keyLen > 0 {
			keyStart := pos + 16
			if keyStart+int(keyLen) > len(buf) {
				return nil, fmt.Errorf("%w: index entry key out of bounds", yerrors.ErrNtfsParseError)
			}
			e.fileName = append([]byte(nil), buf[keyStart:keyStart+int(keyLen)]...)
		}
		if e.hasSubNode {
			vcnOffset := pos + int(entryLen) - 8
			if vcnOffset >= pos && vcnOffset+8 <= len(buf) {
				e.subNodeVCN = int64(binary.LittleEndian.Uint64(buf[vcnOffset : vcnOffset+8]))
			}
		}

		entries = append(entries, e)
		pos += int(entryLen)

		if e.isLast {
			break
		}
	}
	return entries, nil
}

// findInIndex looks up a single path component (childName) among the
// directory's $I30 entries, descending into $INDEX_ALLOCATION buffers when
// the root's entries alone are not conclusive. It returns the matching
// child's MFT reference.
func (vol *Volume) findInIndex(dirRecord fileRecord, childName string) (uint64, bool, error) {
	rootAttr, ok := dirRecord.findAttr(attrIndexRoot, "$I30")
	if !ok {
		return 0, false, fmt.Errorf("%w: directory has no $I30 index root", yerrors.ErrNtfsParseError)
	}
	if len(rootAttr.value) < 32 {
		return 0, false, fmt.Errorf("%w: $I30 index root truncated", yerrors.ErrNtfsParseError)
	}

	headerStart := 16
	entriesOffset := int(binary.LittleEndian.Uint32(rootAttr.value[headerStart : headerStart+4]))
	entriesSize := int(binary.LittleEndian.Uint32(rootAttr.value[headerStart+4 : headerStart+8]))
	entriesBuf := rootAttr.value[headerStart+entriesOffset:]
	if entriesSize-entriesOffset >= 0 && headerStart+entriesSize <= len(rootAttr.value) {
		entriesBuf = rootAttr.value[headerStart+entriesOffset : headerStart+entriesSize]
	}

	entries, err := parseIndexEntries(entriesBuf)
	if err != nil {
		return 0, false, err
	}

	if ref, found, err := vol.searchEntries(dirRecord, entries, childName); found || err != nil {
		return ref, found, err
	}

	return 0, false, nil
}

// searchEntries walks one node's entries looking for an exact (case-folded)
// name match, descending into INDEX_ALLOCATION sub-nodes as needed. $I30 is
// collated, but this tool does not rely on that ordering to stop early: it
// always walks every sub-node, trading lookup speed for simplicity.
func (vol *Volume) searchEntries(dirRecord fileRecord, entries []indexEntry, childName string) (uint64, bool, error) {
	for _, e := range entries {
		if !e.isLast && len(e.fileName) > 0 {
			fn, err := parseFileName(e.fileName)
			if err == nil && fn.namespace != fileNameNamespaceDOS && vol.upcase.foldEqual(fn.name, childName) {
				return e.fileRef, true, nil
			}
		}
		if e.hasSubNode {
			children, err := vol.readIndexAllocationNode(dirRecord, e.subNodeVCN)
			if err != nil {
				return 0, false, err
			}
			if ref, found, err := vol.searchEntries(dirRecord, children, childName); found || err != nil {
				return ref, found, err
			}
		}
	}
	return 0, false, nil
}

// readIndexAllocationNode reads and fixes up one $INDEX_ALLOCATION buffer at
// the given VCN and returns its entries.
func (vol *Volume) readIndexAllocationNode(dirRecord fileRecord, vcn int64) ([]indexEntry, error) {
	allocAttr, ok := dirRecord.findAttr(attrIndexAllocation, "$I30")
	if !ok {
		return nil, fmt.Errorf("%w: index references a sub-node but has no $INDEX_ALLOCATION", yerrors.ErrNtfsParseError)
	}
	runs, err := decodeDataRuns(allocAttr.value)
	if err != nil {
		return nil, err
	}

	recordSize := vol.boot.bytesPerIndexRecord
	stream := &dataStream{device: vol.device, bytesPerCluster: vol.boot.bytesPerCluster(), runs: runs, realSize: allocAttr.realSize}

	buf := make([]byte, recordSize)
	if _, err := stream.ReadAt(buf, vcn*vol.vcnToByteScale()); err != nil {
		return nil, err
	}
	if string(buf[0:4]) != "INDX" {
		return nil, fmt.Errorf("%w: bad index buffer signature", yerrors.ErrNtfsParseError)
	}
	if err := applyFixup(buf, vol.boot.bytesPerSector); err != nil {
		return nil, err
	}

	const indexBufferHeaderLen = 24
	entriesOffset := int(binary.LittleEndian.Uint32(buf[indexBufferHeaderLen : indexBufferHeaderLen+4]))
	entriesSize := int(binary.LittleEndian.Uint32(buf[indexBufferHeaderLen+4 : indexBufferHeaderLen+8]))
	start := indexBufferHeaderLen + entriesOffset
	end := indexBufferHeaderLen + entriesSize
	if start < 0 || end > len(buf) || start > end {
		return nil, fmt.Errorf("%w: index buffer entries out of bounds", yerrors.ErrNtfsParseError)
	}
	return parseIndexEntries(buf[start:end])
}

// vcnToByteScale reports how many bytes one VCN unit of an index allocation
// stream covers. NTFS almost always sizes index records in whole clusters,
// but on volumes with a cluster larger than the index record size, one VCN
// unit corresponds to one index record, not one cluster.
func (vol *Volume) vcnToByteScale() int64 {
	if vol.boot.bytesPerIndexRecord > vol.boot.bytesPerCluster() {
		return vol.boot.bytesPerCluster()
	}
	return vol.boot.bytesPerIndexRecord
}
