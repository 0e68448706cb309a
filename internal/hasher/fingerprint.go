// Package hasher computes the two-tier file fingerprint used for
// duplicate detection and runs the process-wide queue that drains
// pending files through it.
package hasher

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const chunkSize = 1 << 20 // 1 MiB

// QuickSignature computes "<size>:<md5_first_1MiB[:16]>:<md5_last_1MiB[:16]>".
// For files at or under one chunk, the last-chunk digest equals the first.
func QuickSignature(path string, size int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	first, err := readChunkDigest(f, 0, size)
	if err != nil {
		return "", err
	}

	var last string
	if size <= chunkSize {
		last = first
	} else {
		last, err = readChunkDigest(f, size-chunkSize, size)
		if err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%d:%s:%s", size, first, last), nil
}

func readChunkDigest(f *os.File, offset, size int64) (string, error) {
	n := chunkSize
	if size < chunkSize {
		n = int(size)
	}
	buf := make([]byte, n)
	if _, err := f.ReadAt(buf, offset); err != nil && err != io.EOF {
		return "", fmt.Errorf("read chunk at %d: %w", offset, err)
	}
	sum := md5.Sum(buf)
	return hex.EncodeToString(sum[:])[:16], nil
}

// FullHash computes the SHA-256 digest over the entire file, reading in
// 1 MiB chunks.
func FullHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
