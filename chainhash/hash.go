// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainhash provides the fixed-size hash type used to key every
// hash-indexed map in the ledger: blocks_by_id, transactions,
// spent_key_images, and vote_histories.
package chainhash

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// HashSize is the number of bytes in a hash.
const HashSize = 32

// Hash is a 32-byte hash, stored and compared as a fixed-size array so it
// can be used directly as a map key.
type Hash [HashSize]byte

// String returns the hash as a hex string in big-endian display order,
// matching the convention of every other hash-printing chain daemon in
// the pack.
func (h Hash) String() string {
	for i, b := range h[:HashSize/2] {
		h[i], h[HashSize-1-i] = h[HashSize-1-i], b
	}
	return hex.EncodeToString(h[:])
}

// IsEqual reports whether h and other represent the same hash. Two nil
// *Hash values are equal; a nil *Hash never equals a non-nil one, even
// one holding the zero hash.
func (h *Hash) IsEqual(other *Hash) bool {
	if h == nil && other == nil {
		return true
	}
	if h == nil || other == nil {
		return false
	}
	return *h == *other
}

// SetBytes sets the hash to the contents of newHash, which must be
// exactly HashSize bytes.
func (h *Hash) SetBytes(newHash []byte) error {
	if len(newHash) != HashSize {
		return fmt.Errorf("invalid hash length %d, want %d", len(newHash), HashSize)
	}
	copy(h[:], newHash)
	return nil
}

// HashB computes the 32-byte BLAKE2b digest of data. This is the chaining
// hash used for transaction prefix/full hashes and block ids; it is
// distinct from the PoW primitive (boulderhash), which the core never
// computes itself.
func HashB(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

// HashH computes HashB and returns it as a Hash.
func HashH(data []byte) Hash {
	return Hash(blake2b.Sum256(data))
}
