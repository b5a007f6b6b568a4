// Package checksum computes content fingerprints used for change detection.
//
// The digest is MD5 so that caches written by earlier versions of the tool
// stay valid. It is a change fingerprint, not an integrity guarantee.
package checksum

import (
	"crypto/md5" //nolint:gosec // fingerprint only
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/starford/notepdf/internal/apperr"
)

// File streams the file at path through MD5 and returns the hex digest.
// Open and read failures wrap apperr.ErrSourceRead.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("checksum: open %s: %w: %w", path, apperr.ErrSourceRead, err)
	}
	defer f.Close()

	h := md5.New() //nolint:gosec
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("checksum: read %s: %w: %w", path, apperr.ErrSourceRead, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
