//go:build windows

package rawfs

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/medioxor/yoink/internal/ntfs"
	"github.com/medioxor/yoink/internal/yerrors"
)

// NTFSFilesystem answers RawFilesystem queries against raw volume handles,
// opening and caching one ntfs.Volume per drive letter on first use.
type NTFSFilesystem struct {
	mu      sync.Mutex
	volumes map[string]*ntfs.Volume
}

// New constructs an empty, lazily-populated NTFSFilesystem.
func New() *NTFSFilesystem {
	return &NTFSFilesystem{volumes: make(map[string]*ntfs.Volume)}
}

func (f *NTFSFilesystem) volumeFor(drive string) (*ntfs.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if vol, ok := f.volumes[drive]; ok {
		return vol, nil
	}
	vol, err := ntfs.OpenDrive(drive)
	if err != nil {
		return nil, err
	}
	f.volumes[drive] = vol
	return vol, nil
}

func (f *NTFSFilesystem) Exists(path string) bool {
	drive, rest, ok := SplitDrive(path)
	if !ok {
		return false
	}
	vol, err := f.volumeFor(drive)
	if err != nil {
		return false
	}
	return vol.Exists(rest)
}

func (f *NTFSFilesystem) ModTime(path string) (time.Time, error) {
	drive, rest, ok := SplitDrive(path)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q has no drive letter", yerrors.ErrPathNotFound, path)
	}
	vol, err := f.volumeFor(drive)
	if err != nil {
		return time.Time{}, err
	}
	return vol.Timestamp(rest)
}

func (f *NTFSFilesystem) OpenStream(path, stream string) (io.ReadCloser, int64, error) {
	drive, rest, ok := SplitDrive(path)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q has no drive letter", yerrors.ErrPathNotFound, path)
	}
	vol, err := f.volumeFor(drive)
	if err != nil {
		return nil, 0, err
	}
	r, size, err := vol.OpenStream(rest, stream)
	if err != nil {
		return nil, 0, err
	}
	return io.NopCloser(r), size, nil
}

// Close releases every volume handle opened during collection.
func (f *NTFSFilesystem) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var firstErr error
	for drive, vol := range f.volumes {
		if err := vol.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(f.volumes, drive)
	}
	return firstErr
}
