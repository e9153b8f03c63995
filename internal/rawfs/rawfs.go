// Package rawfs abstracts over how a single artefact's bytes and metadata
// are read: through this tool's own NTFS parser on Windows (so a locked
// system file can still be read), or through ordinary OS calls everywhere
// else.
package rawfs

import (
	"io"
	"strings"
	"time"
)

// RawFilesystem is the narrow read surface the collectors need: does a path
// exist, when was it last modified, and a stream over its bytes (the
// unnamed $DATA stream, or a named alternate stream on Windows).
type RawFilesystem interface {
	Exists(path string) bool
	ModTime(path string) (time.Time, error)
	OpenStream(path, stream string) (io.ReadCloser, int64, error)
	Close() error
}

// SplitDrive separates a Windows-style absolute path's drive letter (e.g.
// "C") from the remainder of the path. ok is false if path does not start
// with a drive letter and colon.
func SplitDrive(path string) (drive string, rest string, ok bool) {
	if len(path) < 2 || path[1] != ':' {
		return "", path, false
	}
	c := path[0]
	if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
		return "", path, false
	}
	rest = path[2:]
	rest = strings.TrimPrefix(rest, `\`)
	rest = strings.TrimPrefix(rest, "/")
	return strings.ToUpper(string(c)), rest, true
}
