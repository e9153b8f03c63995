package archiver

import (
	"archive/zip"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/medioxor/yoink/internal/yerrors"
)

// Extract reverses Compress: it reads every entry out of the ZIP at
// archivePath into destDir, decrypting first if the archive carries a salt
// comment and encryptionKey is non-empty. Only the package's round-trip
// tests call it; it is not part of the collection pipeline and the CLI does
// not expose it.
func Extract(archivePath, destDir, encryptionKey string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %v", yerrors.ErrArchiveIoError, err)
	}
	defer r.Close()

	var aesKey []byte
	if encryptionKey != "" && r.Comment != "" {
		salt, decodeErr := hex.DecodeString(r.Comment)
		if decodeErr != nil {
			return fmt.Errorf("%w: malformed archive salt: %v", yerrors.ErrArchiveIoError, decodeErr)
		}
		aesKey, err = deriveKey(encryptionKey, salt)
		if err != nil {
			return err
		}
	}

	for _, f := range r.File {
		if err := extractOne(f, destDir, aesKey); err != nil {
			return fmt.Errorf("%w: extracting %s: %v", yerrors.ErrArchiveIoError, f.Name, err)
		}
	}
	return nil
}

func extractOne(f *zip.File, destDir string, aesKey []byte) error {
	destPath := filepath.Join(destDir, filepath.FromSlash(f.Name))
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	var body io.Reader = rc
	if aesKey != nil {
		body, err = newDecryptReader(rc, aesKey)
		if err != nil {
			return err
		}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, body); err != nil {
		return err
	}
	return os.Chtimes(destPath, f.Modified, f.Modified)
}
