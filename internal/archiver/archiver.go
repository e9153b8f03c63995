// Package archiver implements the streaming ZIP archive writer (C7): it
// turns a deduplicated artefact list into a BZIP2-compressed, optionally
// AES-256-encrypted ZIP file, reading each artefact through whichever
// RawFilesystem implementation the current platform provides.
package archiver

import (
	"archive/zip"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dsnet/compress/bzip2"

	"github.com/medioxor/yoink/internal/artefact"
	"github.com/medioxor/yoink/internal/logging"
	"github.com/medioxor/yoink/internal/platform"
	"github.com/medioxor/yoink/internal/rawfs"
	"github.com/medioxor/yoink/internal/yerrors"
)

// bzip2Method is the registered compression method ID for BZIP2 entries in
// a ZIP central directory (PKWARE's appnote.txt assigns 12 to BZIP2).
const bzip2Method = 12

func init() {
	zip.RegisterCompressor(bzip2Method, func(w io.Writer) (io.WriteCloser, error) {
		return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
	})
	zip.RegisterDecompressor(bzip2Method, func(r io.Reader) io.ReadCloser {
		rc, err := bzip2.NewReader(r, nil)
		if err != nil {
			return io.NopCloser(errReader{err})
		}
		return rc
	})
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

// Archiver writes collected artefacts into a single ZIP archive.
type Archiver struct {
	fs  rawfs.RawFilesystem
	log *logging.Logger
}

// New constructs an Archiver that reads artefact bytes through fs.
func New(fs rawfs.RawFilesystem) *Archiver {
	return &Archiver{fs: fs, log: logging.New("archiver")}
}

// Compress writes fileArtefacts and memoryDumps into a new ZIP file at
// outputPath, BZIP2-compressing every entry and, when encryptionKey is
// non-empty, AES-256 encrypting every entry's payload. It fails with
// ErrNothingToCompress if the deduplicated artefact set is empty.
func (a *Archiver) Compress(ctx context.Context, fileArtefacts, memoryDumps []string, outputPath, encryptionKey string) (err error) {
	entries := buildEntryPlan(fileArtefacts, memoryDumps)
	if len(entries) == 0 {
		return yerrors.ErrNothingToCompress
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", yerrors.ErrInvalidOutputPath, outputPath, err)
	}
	defer func() {
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
	}()

	zw := zip.NewWriter(out)
	defer func() {
		if closeErr := zw.Close(); err == nil {
			err = closeErr
		}
	}()

	var aesKey []byte
	if encryptionKey != "" {
		salt := make([]byte, 16)
		if _, randErr := rand.Read(salt); randErr != nil {
			return fmt.Errorf("%w: %v", yerrors.ErrArchiveIoError, randErr)
		}
		aesKey, err = deriveKey(encryptionKey, salt)
		if err != nil {
			return err
		}
		if commentErr := zw.SetComment(hex.EncodeToString(salt)); commentErr != nil {
			return fmt.Errorf("%w: %v", yerrors.ErrArchiveIoError, commentErr)
		}
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if writeErr := a.writeEntry(zw, entry, aesKey); writeErr != nil {
			a.log.Warnf("skipping artefact %q: %v", entry.sourcePath, writeErr)
			continue
		}
	}

	return nil
}

// entryPlan is one resolved (source path, archive entry name) pair.
type entryPlan struct {
	sourcePath string // path to read bytes/mtime from
	entryName  string
	stream     string
	onDisk     bool // true for memory dumps: read via os.Open, not RawFilesystem
}

func buildEntryPlan(fileArtefacts, memoryDumps []string) []entryPlan {
	var entries []entryPlan
	for _, path := range artefact.Dedup(fileArtefacts) {
		filePath, stream := artefact.ParseStream(path)
		entries = append(entries, entryPlan{
			sourcePath: filePath,
			entryName:  regularEntryName(filePath, stream),
			stream:     stream,
		})
	}
	for _, path := range artefact.Dedup(memoryDumps) {
		entries = append(entries, entryPlan{
			sourcePath: path,
			entryName:  "memory/" + filepath.Base(path),
			onDisk:     true,
		})
	}
	return entries
}

// regularEntryName implements spec §4.7's naming rule: Windows artefacts
// have their drive-letter colon stripped and, if they carry a stream
// suffix, an underscore-joined stream name (ZIP entry names forbid ':');
// Linux artefacts keep their path with the leading '/' removed.
func regularEntryName(filePath, stream string) string {
	if !platform.IsWindows() {
		return strings.TrimPrefix(filePath, "/")
	}
	name := artefact.StripDriveColon(filePath)
	if stream != "" {
		name = name + "_" + stream
	}
	return name
}

func (a *Archiver) writeEntry(zw *zip.Writer, entry entryPlan, aesKey []byte) error {
	var body io.Reader
	var size int64
	var modTime time.Time
	var closer io.Closer

	if entry.onDisk {
		file, err := os.Open(entry.sourcePath)
		if err != nil {
			return err
		}
		info, err := file.Stat()
		if err != nil {
			file.Close()
			return err
		}
		body, size, modTime, closer = file, info.Size(), info.ModTime(), file
	} else {
		r, n, err := a.fs.OpenStream(entry.sourcePath, entry.stream)
		if err != nil {
			return err
		}
		mtime, err := a.fs.ModTime(entry.sourcePath)
		if err != nil {
			mtime = time.Now()
		}
		body, size, modTime, closer = r, n, mtime, r
	}
	defer closer.Close()

	header := &zip.FileHeader{
		Name:     filepath.ToSlash(entry.entryName),
		Method:   bzip2Method,
		Modified: modTime,
	}
	header.SetMode(0o600)
	// large_file=true for every entry, matching the original tool: the
	// 64-bit size field is always populated rather than gated on a 4GiB
	// threshold. archive/zip itself only emits the zip64 extra record once
	// a size crosses that threshold, so small entries still encode as
	// plain ZIP on the wire; this is the closest the standard library
	// lets us get to unconditional per-entry zip64.
	header.UncompressedSize64 = uint64(size)

	entryWriter, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("%w: %v", yerrors.ErrArchiveIoError, err)
	}

	dest := entryWriter
	if aesKey != nil {
		encWriter, err := newEncryptWriter(entryWriter, aesKey)
		if err != nil {
			return err
		}
		dest = encWriter
	}

	if _, err := io.Copy(dest, body); err != nil {
		return fmt.Errorf("%w: %v", yerrors.ErrArchiveIoError, err)
	}
	return nil
}
