// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/binary"
	"math/big"

	"github.com/xpbproject/xpbd/chainhash"
	"github.com/xpbproject/xpbd/wire"
)

// shortHashLongHasher stands in for the real memory-hard long-hash
// function until one is wired in; it satisfies catchup.LongHasher by
// reducing a header's short hash to a big.Int, the same escape hatch
// validation.Verifier uses for ring-signature checks it does not itself
// implement. A production build replaces this with the actual algorithm
// without touching catchup.Worker at all.
type shortHashLongHasher struct{}

func (shortHashLongHasher) LongHash(header wire.Header) (*big.Int, error) {
	var buf [8 + 8 + 8 + chainhash.HashSize + 4]byte
	binary.LittleEndian.PutUint64(buf[0:8], header.MajorVersion)
	binary.LittleEndian.PutUint64(buf[8:16], header.MinorVersion)
	binary.LittleEndian.PutUint64(buf[16:24], header.Timestamp)
	copy(buf[24:24+chainhash.HashSize], header.PrevID[:])
	binary.LittleEndian.PutUint32(buf[24+chainhash.HashSize:], header.Nonce)

	sum := chainhash.HashB(buf[:])
	return new(big.Int).SetBytes(sum), nil
}
