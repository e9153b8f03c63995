package ntfs

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/medioxor/yoink/internal/yerrors"
)

// bootSector holds the fields of the NTFS BIOS Parameter Block needed to
// navigate the volume: sector/cluster geometry and the MFT location.
type bootSector struct {
	bytesPerSector        uint16
	sectorsPerCluster     uint8
	mftLCN                int64
	mftMirrorLCN          int64
	bytesPerFileRecord    int64
	bytesPerIndexRecord   int64
}

func (b bootSector) bytesPerCluster() int64 {
	return int64(b.bytesPerSector) * int64(b.sectorsPerCluster)
}

// parseBootSector decodes the first 512 bytes of an NTFS volume.
func parseBootSector(r io.Reader) (bootSector, error) {
	buf := make([]byte, 512)
	if _, err := io.ReadFull(r, buf); err != nil {
		return bootSector{}, fmt.Errorf("%w: reading boot sector: %v", yerrors.ErrNtfsParseError, err)
	}
	if string(buf[3:7]) != "NTFS" {
		return bootSector{}, fmt.Errorf("%w: not an NTFS boot sector", yerrors.ErrNtfsParseError)
	}

	bs := bootSector{
		bytesPerSector:    binary.LittleEndian.Uint16(buf[11:13]),
		sectorsPerCluster: buf[13],
		mftLCN:            int64(binary.LittleEndian.Uint64(buf[0x30:0x38])),
		mftMirrorLCN:      int64(binary.LittleEndian.Uint64(buf[0x38:0x40])),
	}

	clustersPerFileRecord := int8(buf[0x40])
	if clustersPerFileRecord < 0 {
		bs.bytesPerFileRecord = int64(1) << uint(-clustersPerFileRecord)
	} else {
		bs.bytesPerFileRecord = int64(clustersPerFileRecord) * bs.bytesPerCluster()
	}

	clustersPerIndexRecord := int8(buf[0x44])
	if clustersPerIndexRecord < 0 {
		bs.bytesPerIndexRecord = int64(1) << uint(-clustersPerIndexRecord)
	} else {
		bs.bytesPerIndexRecord = int64(clustersPerIndexRecord) * bs.bytesPerCluster()
	}

	return bs, nil
}
