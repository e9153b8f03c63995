package ntfs

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/medioxor/yoink/internal/sectorio"
)

// This file builds a small synthetic NTFS volume byte-for-byte, the way a
// real one would lay records out on disk, so the higher-level Volume/index
// logic can be tested without a real disk image. It intentionally covers
// only the handful of records the tests need (root, $UpCase, one file).

const (
	testSectorSize = 512
	testRecordSize = 1024
	testMFTLCN     = 4
	testMFTRecords = 16
)

func utf16Encode(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		out = append(out, byte(r), 0)
	}
	return out
}

func encodeResidentAttr(attrType uint32, name string, value []byte) []byte {
	nameUTF16 := utf16Encode(name)
	nameOffset := 24
	valueOffset := nameOffset + len(nameUTF16)
	attrLen := valueOffset + len(value)
	pad := (8 - attrLen%8) % 8
	total := attrLen + pad
	buf := make([]byte, total)
	binary.LittleEndian.PutUint32(buf[0:4], attrType)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(total))
	buf[8] = 0
	buf[9] = byte(len(name))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(nameOffset))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(value)))
	binary.LittleEndian.PutUint16(buf[20:22], uint16(valueOffset))
	copy(buf[nameOffset:], nameUTF16)
	copy(buf[valueOffset:], value)
	return buf
}

func encodeNonResidentAttr(attrType uint32, name string, allocatedSize, realSize int64, dataRuns []byte) []byte {
	nameUTF16 := utf16Encode(name)
	nameOffset := 64
	runsOffset := nameOffset + len(nameUTF16)
	attrLen := runsOffset + len(dataRuns)
	pad := (8 - attrLen%8) % 8
	total := attrLen + pad
	buf := make([]byte, total)
	binary.LittleEndian.PutUint32(buf[0:4], attrType)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(total))
	buf[8] = 1
	buf[9] = byte(len(name))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(nameOffset))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(runsOffset))
	binary.LittleEndian.PutUint64(buf[40:48], uint64(allocatedSize))
	binary.LittleEndian.PutUint64(buf[48:56], uint64(realSize))
	copy(buf[nameOffset:], nameUTF16)
	copy(buf[runsOffset:], dataRuns)
	return buf
}

func encodeFileNameValue(parentRef uint64, name string, namespace byte) []byte {
	nameUTF16 := utf16Encode(name)
	buf := make([]byte, 66+len(nameUTF16))
	binary.LittleEndian.PutUint64(buf[0:8], parentRef)
	buf[64] = byte(len([]rune(name)))
	buf[65] = namespace
	copy(buf[66:], nameUTF16)
	return buf
}

func encodeIndexEntry(fileRef uint64, fileNameValue []byte, isLast bool) []byte {
	keyLen := 0
	if !isLast {
		keyLen = len(fileNameValue)
	}
	header := 16
	entryLen := header + keyLen
	pad := (8 - entryLen%8) % 8
	total := entryLen + pad
	buf := make([]byte, total)
	binary.LittleEndian.PutUint64(buf[0:8], fileRef)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(total))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(keyLen))
	var flags uint16
	if isLast {
		flags |= indexEntryFlagLast
	}
	binary.LittleEndian.PutUint16(buf[12:14], flags)
	if !isLast {
		copy(buf[16:16+keyLen], fileNameValue)
	}
	return buf
}

func encodeIndexRootValue(entries []byte) []byte {
	entriesOffset := uint32(16)
	entriesSize := entriesOffset + uint32(len(entries))
	value := make([]byte, 16+16+len(entries))
	binary.LittleEndian.PutUint32(value[16:20], entriesOffset)
	binary.LittleEndian.PutUint32(value[20:24], entriesSize)
	copy(value[32:], entries)
	return value
}

func timeToFiletime(t time.Time) uint64 {
	const epochDiff = 116444736000000000
	return uint64(t.UnixNano()/100) + epochDiff
}

func fixupRecord(buf []byte, sectorSize int) {
	const usaOffset = 48
	numSectors := len(buf) / sectorSize
	usaCount := numSectors + 1
	binary.LittleEndian.PutUint16(buf[4:6], uint16(usaOffset))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(usaCount))
	usn := []byte{0x01, 0x00}
	for i := 1; i < usaCount; i++ {
		end := i*sectorSize - 2
		copy(buf[usaOffset+i*2:usaOffset+i*2+2], buf[end:end+2])
		copy(buf[end:end+2], usn)
	}
	copy(buf[usaOffset:usaOffset+2], usn)
}

func buildRecord(isDir bool, baseRecord uint64, attrs [][]byte) []byte {
	buf := make([]byte, testRecordSize)
	copy(buf[0:4], []byte("FILE"))
	const attrOffset = 56
	binary.LittleEndian.PutUint16(buf[20:22], uint16(attrOffset))
	flags := uint16(recordFlagInUse)
	if isDir {
		flags |= recordFlagIsDir
	}
	binary.LittleEndian.PutUint16(buf[22:24], flags)
	binary.LittleEndian.PutUint64(buf[32:40], baseRecord)
	pos := attrOffset
	for _, a := range attrs {
		copy(buf[pos:], a)
		pos += len(a)
	}
	binary.LittleEndian.PutUint32(buf[pos:pos+4], attrEnd)
	fixupRecord(buf, testSectorSize)
	return buf
}

func buildBootSector() []byte {
	buf := make([]byte, testSectorSize)
	copy(buf[3:7], []byte("NTFS"))
	binary.LittleEndian.PutUint16(buf[11:13], testSectorSize)
	buf[13] = 1 // sectorsPerCluster
	binary.LittleEndian.PutUint64(buf[0x30:0x38], testMFTLCN)
	binary.LittleEndian.PutUint64(buf[0x38:0x40], testMFTLCN)
	buf[0x40] = byte(int8(-10)) // 2^10 = 1024 bytes per file record
	buf[0x44] = byte(int8(-12)) // 2^12 = 4096 bytes per index record
	return buf
}

// testVolumeFixture describes what's embedded in the synthetic volume so
// individual tests can assert against known values instead of magic numbers.
type testVolumeFixture struct {
	disk           []byte
	fileModified   time.Time
	fileContent    []byte
	fileRecordNum  uint64
}

func buildTestVolume() testVolumeFixture {
	mftRegionStart := int64(testMFTLCN) * testSectorSize // bytesPerCluster == sectorSize here
	mftRegionClusters := int64(testMFTRecords * testRecordSize / testSectorSize)

	dataRuns := []byte{0x11, byte(mftRegionClusters), byte(testMFTLCN), 0x00}
	record0 := buildRecord(false, 0, [][]byte{
		encodeNonResidentAttr(attrData, "", mftRegionClusters*testSectorSize, mftRegionClusters*testSectorSize, dataRuns),
	})

	fileModified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	stdInfo := make([]byte, 24)
	binary.LittleEndian.PutUint64(stdInfo[16:24], timeToFiletime(fileModified))
	fileContent := []byte("hello world")
	const fileRecordNum = 11
	record11 := buildRecord(false, 0, [][]byte{
		encodeResidentAttr(attrStandardInformation, "", stdInfo),
		encodeResidentAttr(attrFileName, "", encodeFileNameValue(mftRecordRoot, "hello.txt", 1)),
		encodeResidentAttr(attrData, "", fileContent),
	})

	entries := append(
		encodeIndexEntry(fileRecordNum, encodeFileNameValue(mftRecordRoot, "hello.txt", 1), false),
		encodeIndexEntry(0, nil, true)...,
	)
	record5 := buildRecord(true, 0, [][]byte{
		encodeResidentAttr(attrIndexRoot, "$I30", encodeIndexRootValue(entries)),
	})

	upcaseData := make([]byte, 256*2)
	for i := 0; i < 256; i++ {
		v := uint16(i)
		if i >= 'a' && i <= 'z' {
			v = uint16(i - 32)
		}
		binary.LittleEndian.PutUint16(upcaseData[i*2:i*2+2], v)
	}
	record10 := buildRecord(false, 0, [][]byte{
		encodeResidentAttr(attrData, "", upcaseData),
	})

	disk := make([]byte, 65536)
	copy(disk[0:testSectorSize], buildBootSector())
	copy(disk[mftRegionStart+0*testRecordSize:], record0)
	copy(disk[mftRegionStart+5*testRecordSize:], record5)
	copy(disk[mftRegionStart+10*testRecordSize:], record10)
	copy(disk[mftRegionStart+fileRecordNum*testRecordSize:], record11)

	return testVolumeFixture{
		disk:          disk,
		fileModified:  fileModified,
		fileContent:   fileContent,
		fileRecordNum: fileRecordNum,
	}
}

func (f testVolumeFixture) open() (*Volume, error) {
	device, err := sectorio.New(bytes.NewReader(f.disk), testSectorSize)
	if err != nil {
		return nil, err
	}
	return openVolume(device)
}
