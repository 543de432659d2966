// Package cryptox computes content checksums for stored media.
package cryptox

import (
	"encoding/hex"
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
)

// NewHash returns an unkeyed BLAKE2b-256 hash.
func NewHash() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// only possible with an oversized key
		panic(err)
	}
	return h
}

// Checksum reads r to EOF and returns its hex BLAKE2b-256 digest and the
// number of bytes read.
func Checksum(r io.Reader) (string, int64, error) {
	h := NewHash()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
