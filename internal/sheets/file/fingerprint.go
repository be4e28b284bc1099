package file

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"orcamento/internal/core"
)

// chunkSize is the read size used while hashing.
const chunkSize = 4096

// Fingerprint streams the file through MD5 and returns the hex digest. No
// lock is taken; a concurrent writer can produce a digest matching neither
// version, which the next poll corrects.
func Fingerprint(path string) (core.Fingerprint, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: path is empty", core.ErrFileNotFound)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", core.ErrFileNotFound, path)
		}
		return "", fmt.Errorf("%w: open %s: %w", core.ErrRead, path, err)
	}
	defer f.Close()

	h := md5.New()
	buf := make([]byte, chunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: hash %s: %w", core.ErrRead, path, err)
		}
	}
	return core.Fingerprint(hex.EncodeToString(h.Sum(nil))), nil
}
