// Package checksum computes the md5 digests recorded in index files.
package checksum

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// MD5 returns the lowercase hex md5 digest of everything read from r.
func MD5(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileMD5 returns the lowercase hex md5 digest of the file at path.
func FileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sum, err := MD5(f)
	if err != nil {
		return "", fmt.Errorf("cannot hash %s: %w", path, err)
	}
	return sum, nil
}
