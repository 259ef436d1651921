package drs

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/adler32"
	"io"
	"os"
	"strconv"

	"github.com/primdata/dmt/pkg/db/models"
)

// Adler32 returns the rolling checksum of the file's full content as its
// decimal string representation, the form stored in the checksum ledger.
func Adler32(path string) (string, error) {
	h := adler32.New()
	if err := sumFile(path, h); err != nil {
		return "", err
	}
	return strconv.FormatUint(uint64(h.Sum32()), 10), nil
}

// MD5 returns the hex digest of the file's content.
func MD5(path string) (string, error) {
	h := md5.New()
	if err := sumFile(path, h); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SHA256 returns the hex digest of the file's content.
func SHA256(path string) (string, error) {
	h := sha256.New()
	if err := sumFile(path, h); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ChecksumFile computes the named checksum type for the file at path.
func ChecksumFile(path, checksumType string) (string, error) {
	switch checksumType {
	case models.ChecksumAdler32:
		return Adler32(path)
	case models.ChecksumMD5:
		return MD5(path)
	case models.ChecksumSHA256:
		return SHA256(path)
	default:
		return "", fmt.Errorf("unknown checksum type %q", checksumType)
	}
}

func sumFile(path string, h hash.Hash) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to checksum %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("failed to checksum %s: %w", path, err)
	}
	return nil
}
