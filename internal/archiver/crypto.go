package archiver

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"

	"github.com/medioxor/yoink/internal/yerrors"
)

// scrypt cost parameters, matched to the teacher's backend/crypt cipher so
// a reader familiar with that code recognises the derivation immediately.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	aesKeyLength = 32
	ivLength     = aes.BlockSize
)

// deriveKey turns an operator-supplied passphrase and a per-archive salt
// into a 256-bit AES key.
func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, aesKeyLength)
	if err != nil {
		return nil, fmt.Errorf("%w: deriving key: %v", yerrors.ErrArchiveIoError, err)
	}
	return key, nil
}

// newEncryptWriter wraps dst so every byte written to the returned writer is
// AES-256-CTR encrypted under key. It writes a random IV to dst first, as a
// prefix of the ciphertext stream, matching how the paired decryptReader
// expects to find it.
//
// This does not produce WinZip-AES-compatible output (see DESIGN.md): no
// library in the reference set implements that format's authenticated mode,
// so this archive's encrypted entries are only readable by this tool's own
// Extract.
func newEncryptWriter(dst io.Writer, key []byte) (io.Writer, error) {
	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("%w: generating IV: %v", yerrors.ErrArchiveIoError, err)
	}
	if _, err := dst.Write(iv); err != nil {
		return nil, fmt.Errorf("%w: writing IV: %v", yerrors.ErrArchiveIoError, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", yerrors.ErrArchiveIoError, err)
	}
	stream := cipher.NewCTR(block, iv)
	return &cipher.StreamWriter{S: stream, W: dst}, nil
}

// newDecryptReader is the inverse of newEncryptWriter: it reads the IV
// prefix from src then returns a reader that decrypts everything after it.
func newDecryptReader(src io.Reader, key []byte) (io.Reader, error) {
	iv := make([]byte, ivLength)
	if _, err := io.ReadFull(src, iv); err != nil {
		return nil, fmt.Errorf("%w: reading IV: %v", yerrors.ErrArchiveIoError, err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", yerrors.ErrArchiveIoError, err)
	}
	stream := cipher.NewCTR(block, iv)
	return &cipher.StreamReader{S: stream, R: src}, nil
}
