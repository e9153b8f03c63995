//go:build windows

package ntfs

import (
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/medioxor/yoink/internal/sectorio"
	"github.com/medioxor/yoink/internal/yerrors"
)

// defaultVolumeSectorSize is the physical sector alignment used for raw
// volume reads, not the NTFS-reported logical bytesPerSector. 4096 matches
// 4K-native drives; a 512-aligned read against one is rejected by the OS.
const defaultVolumeSectorSize = 4096

// fileHandleReadSeeker adapts a raw windows.Handle opened on a volume
// (\\.\C:) to io.ReadSeeker, the shape sectorio.Reader wraps.
type fileHandleReadSeeker struct {
	handle windows.Handle
}

func (f *fileHandleReadSeeker) Read(buf []byte) (int, error) {
	var n uint32
	err := windows.ReadFile(f.handle, buf, &n, nil)
	if err != nil {
		return int(n), err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: short read from volume", yerrors.ErrVolumeOpenError)
	}
	return int(n), nil
}

func (f *fileHandleReadSeeker) Seek(offset int64, whence int) (int64, error) {
	newPos, err := windows.Seek(f.handle, offset, whence)
	if err != nil {
		return 0, err
	}
	return newPos, nil
}

// OpenDrive opens a raw volume handle for driveLetter (e.g. "C") and parses
// it into a Volume. The handle is opened for shared read access, matching
// forensic collection tools that must not lock out the running system.
func OpenDrive(driveLetter string) (*Volume, error) {
	path := `\\.\` + driveLetter + `:`
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", yerrors.ErrVolumeOpenError, err)
	}

	handle, err := windows.CreateFile(
		pathPtr,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", yerrors.ErrVolumeOpenError, path, err)
	}

	device, err := sectorio.New(&fileHandleReadSeeker{handle: handle}, defaultVolumeSectorSize)
	if err != nil {
		windows.CloseHandle(handle)
		return nil, err
	}

	vol, err := openVolume(device)
	if err != nil {
		windows.CloseHandle(handle)
		return nil, err
	}
	vol.closer = &handleCloser{handle: handle}
	return vol, nil
}

type handleCloser struct {
	handle windows.Handle
}

func (h *handleCloser) Close() error {
	return windows.CloseHandle(h.handle)
}
