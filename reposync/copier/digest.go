package copier

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// fileDigest returns the SHA256 hex digest of the file at
// path.
func fileDigest(path string) (result string, retErr error) {
	const errCtx = "calculating digest"

	fi, err := os.Open(path) //nolint:gosec // path is caller-provided by design
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := fi.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("%s: %w", errCtx, closeErr)
		}
	}()

	ha := sha256.New()

	if _, err := io.Copy(ha, fi); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return hex.EncodeToString(ha.Sum(nil)), nil
}

// sameContent reports whether both regular files exist
// and hold identical bytes. A symlink at b never matches.
func sameContent(a, b string) (bool, error) {
	const errCtx = "comparing files"

	ia, err := os.Stat(a)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	ib, err := os.Lstat(b)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	if !ib.Mode().IsRegular() || ia.Size() != ib.Size() ||
		ia.Mode().Perm() != ib.Mode().Perm() {
		return false, nil
	}

	da, err := fileDigest(a)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	db, err := fileDigest(b)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	return da == db, nil
}
