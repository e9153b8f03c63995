package ntfs

import (
	"fmt"
	"io"

	"github.com/medioxor/yoink/internal/sectorio"
	"github.com/medioxor/yoink/internal/yerrors"
)

const mftRecordRoot = 5

// Volume is an opened NTFS filesystem: a sector-aligned device reader plus
// the handful of metadata structures (boot sector, $MFT location, $UpCase
// table) needed to resolve paths and read file data without going through
// the operating system's own filesystem driver.
type Volume struct {
	device    *sectorio.Reader
	boot      bootSector
	mftStream *dataStream
	upcase    upcaseTable
	closer    io.Closer
}

// Close releases the underlying volume handle, if any.
func (vol *Volume) Close() error {
	if vol.closer == nil {
		return nil
	}
	return vol.closer.Close()
}

// openVolume parses the boot sector of rs, locates $MFT's own data runs and
// loads $UpCase. rs must be a *sectorio.Reader (tests wrap an in-memory
// image in one too); any other type is rejected with ErrVolumeOpenError.
func openVolume(rs io.ReadSeeker) (*Volume, error) {
	device, ok := rs.(*sectorio.Reader)
	if !ok {
		return nil, fmt.Errorf("%w: volume device must be sector-aligned", yerrors.ErrVolumeOpenError)
	}

	if _, err := device.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", yerrors.ErrVolumeOpenError, err)
	}
	boot, err := parseBootSector(device)
	if err != nil {
		return nil, err
	}

	vol := &Volume{device: device, boot: boot}

	mftRecordBuf := make([]byte, boot.bytesPerFileRecord)
	if _, err := device.Seek(boot.mftLCN*boot.bytesPerCluster(), io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", yerrors.ErrVolumeOpenError, err)
	}
	if _, err := io.ReadFull(device, mftRecordBuf); err != nil {
		return nil, fmt.Errorf("%w: reading $MFT record 0: %v", yerrors.ErrVolumeOpenError, err)
	}
	mftZero, err := parseFileRecord(mftRecordBuf, boot.bytesPerSector)
	if err != nil {
		return nil, err
	}

	dataAttr, ok := mftZero.findAttr(attrData, "")
	if !ok {
		return nil, fmt.Errorf("%w: $MFT record 0 has no $DATA attribute", yerrors.ErrNtfsParseError)
	}
	runs, err := decodeDataRuns(dataAttr.value)
	if err != nil {
		return nil, err
	}
	vol.mftStream = &dataStream{
		device:          device,
		bytesPerCluster: boot.bytesPerCluster(),
		runs:            runs,
		realSize:        dataAttr.realSize,
	}

	upcase, err := loadUpcaseTable(vol)
	if err != nil {
		return nil, err
	}
	vol.upcase = upcase

	return vol, nil
}

// readRecord reads and parses the MFT record at the given record number.
func (vol *Volume) readRecord(recordNumber uint64) (fileRecord, error) {
	offset := int64(recordNumber) * vol.boot.bytesPerFileRecord
	buf := make([]byte, vol.boot.bytesPerFileRecord)
	if _, err := vol.mftStream.ReadAt(buf, offset); err != nil {
		return fileRecord{}, fmt.Errorf("%w: reading MFT record %d: %v", yerrors.ErrNtfsParseError, recordNumber, err)
	}
	return parseFileRecord(buf, vol.boot.bytesPerSector)
}

// readAttributeData returns the fully-materialised value of one attribute,
// following its data runs if non-resident. Attribute lists that span
// multiple MFT records are not followed: every stream this tool needs
// ($UpCase, $I30, $STANDARD_INFORMATION, $FILE_NAME, and the $DATA of
// collected files) lives in the base record for the files this tool targets.
func (vol *Volume) readAttributeData(rec fileRecord, attrType uint32, name string) ([]byte, error) {
	attr, ok := rec.findAttr(attrType, name)
	if !ok {
		return nil, fmt.Errorf("%w: attribute 0x%X not present", yerrors.ErrAttributeMissing, attrType)
	}
	if !attr.nonResident {
		return attr.value, nil
	}

	runs, err := decodeDataRuns(attr.value)
	if err != nil {
		return nil, err
	}
	stream := &dataStream{
		device:          vol.device,
		bytesPerCluster: vol.boot.bytesPerCluster(),
		runs:            runs,
		realSize:        attr.realSize,
	}
	buf := make([]byte, attr.realSize)
	if _, err := stream.ReadAt(buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

// dataStreamFor builds a dataStream for reading a (possibly named) $DATA
// attribute's bytes on demand, without materialising the whole file.
func (vol *Volume) dataStreamFor(rec fileRecord, streamName string) (*dataStream, error) {
	attr, ok := rec.findAttr(attrData, streamName)
	if !ok {
		return nil, fmt.Errorf("%w: stream %q", yerrors.ErrStreamNotFound, streamName)
	}
	if !attr.nonResident {
		return &dataStream{realSize: attr.realSize, resident: attr.value}, nil
	}
	runs, err := decodeDataRuns(attr.value)
	if err != nil {
		return nil, err
	}
	return &dataStream{
		device:          vol.device,
		bytesPerCluster: vol.boot.bytesPerCluster(),
		runs:            runs,
		realSize:        attr.realSize,
	}, nil
}
