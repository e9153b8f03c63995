//go:build !windows

package rawfs

import (
	"io"
	"os"
	"time"
)

// OSFilesystem answers RawFilesystem queries with ordinary OS calls. There
// is no raw-volume reader outside Windows: a locked file simply fails to
// open, the same as it would for any other tool.
type OSFilesystem struct{}

// New constructs an OSFilesystem.
func New() *OSFilesystem {
	return &OSFilesystem{}
}

func (f *OSFilesystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (f *OSFilesystem) ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// OpenStream ignores the stream argument: alternate data streams are an
// NTFS concept with no equivalent here.
func (f *OSFilesystem) OpenStream(path, stream string) (io.ReadCloser, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, err
	}
	return file, info.Size(), nil
}

// Close is a no-op: OSFilesystem holds no long-lived handles between calls.
func (f *OSFilesystem) Close() error {
	return nil
}
