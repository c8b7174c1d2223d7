package verify

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// readBufferSize bounds memory used while hashing regardless of file size.
const readBufferSize = 1 << 20

// HashFile streams the file through xxh64 (seed 0) and returns the digest
// packed little-endian and base64 encoded, the format used by modlist manifests.
//
// xxh64 is an integrity check only. It is fast but not collision resistant and
// must not be relied on to detect deliberate tampering.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer f.Close()

	return HashReader(f)
}

// HashReader is HashFile for an arbitrary stream.
func HashReader(r io.Reader) (string, error) {
	h := xxhash.New()
	buf := make([]byte, readBufferSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("hashing: %w", err)
	}
	return encodeDigest(h.Sum64()), nil
}

func encodeDigest(sum uint64) string {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], sum)
	return base64.StdEncoding.EncodeToString(b[:])
}
