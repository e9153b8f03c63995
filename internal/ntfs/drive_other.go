//go:build !windows

package ntfs

import (
	"fmt"

	"github.com/medioxor/yoink/internal/yerrors"
)

// OpenDrive is only meaningful on Windows, where artefacts are collected by
// reading the volume's own NTFS structures rather than going through the
// filesystem. On other platforms the file collector never calls this path;
// see internal/rawfs for the OS-call fallback used there instead.
func OpenDrive(driveLetter string) (*Volume, error) {
	return nil, fmt.Errorf("%w: raw NTFS access is only supported on windows", yerrors.ErrVolumeOpenError)
}
