package ntfs

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/medioxor/yoink/internal/yerrors"
)

// Resolve walks path component by component from the volume root (MFT
// record 5, "."), using each directory's $I30 index to find the next
// component's MFT record. path may use either slash style and may or may
// not have a leading separator; a drive letter, if present, is not
// expected here — callers strip it before calling Resolve.
func (vol *Volume) Resolve(path string) (fileRecord, error) {
	rec, err := vol.readRecord(mftRecordRoot)
	if err != nil {
		return fileRecord{}, fmt.Errorf("%w: reading volume root: %v", yerrors.ErrNtfsParseError, err)
	}

	for _, component := range splitPath(path) {
		if !rec.isDir {
			return fileRecord{}, fmt.Errorf("%w: %q is not a directory", yerrors.ErrPathNotFound, component)
		}
		childRef, found, err := vol.findInIndex(rec, component)
		if err != nil {
			return fileRecord{}, err
		}
		if !found {
			return fileRecord{}, fmt.Errorf("%w: %q", yerrors.ErrPathNotFound, path)
		}
		rec, err = vol.readRecord(childRef)
		if err != nil {
			return fileRecord{}, err
		}
	}
	return rec, nil
}

func splitPath(path string) []string {
	path = strings.ReplaceAll(path, "/", "\\")
	parts := strings.Split(path, "\\")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Exists reports whether path resolves to a record on the volume.
func (vol *Volume) Exists(path string) bool {
	_, err := vol.Resolve(path)
	return err == nil
}

// Timestamp returns the MFT-record modification time recorded in
// $STANDARD_INFORMATION for path.
func (vol *Volume) Timestamp(path string) (time.Time, error) {
	rec, err := vol.Resolve(path)
	if err != nil {
		return time.Time{}, err
	}
	siBytes, err := vol.readAttributeData(rec, attrStandardInformation, "")
	if err != nil {
		return time.Time{}, err
	}
	si, err := parseStandardInformation(siBytes)
	if err != nil {
		return time.Time{}, err
	}
	return si.mftModified, nil
}

// OpenStream resolves path and returns a reader over the named data stream
// (streamName == "" for the unnamed/default $DATA attribute, matching the
// ":stream" alternate-data-stream suffix parsed elsewhere).
func (vol *Volume) OpenStream(path, streamName string) (io.Reader, int64, error) {
	rec, err := vol.Resolve(path)
	if err != nil {
		return nil, 0, err
	}
	stream, err := vol.dataStreamFor(rec, streamName)
	if err != nil {
		return nil, 0, err
	}
	return &streamReader{stream: stream, size: stream.realSize}, stream.realSize, nil
}

// streamReader adapts a dataStream's ReadAt interface to sequential
// io.Reader semantics, clamping reads at the attribute's real size.
type streamReader struct {
	stream *dataStream
	size   int64
	pos    int64
}

func (s *streamReader) Read(buf []byte) (int, error) {
	if s.pos >= s.size {
		return 0, io.EOF
	}
	remaining := s.size - s.pos
	if int64(len(buf)) > remaining {
		buf = buf[:remaining]
	}
	n, err := s.stream.ReadAt(buf, s.pos)
	s.pos += int64(n)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}
