// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the binary encoding of a block: its header, the
// embedded miner transaction, the list of ordinary transaction hashes it
// references, and — once the chain has switched to delegate sealing — the
// signing delegate and its signature over the block id.
package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/chaincfg"
	"github.com/xpbproject/xpbd/chainhash"
	"github.com/xpbproject/xpbd/transaction"
	"github.com/xpbproject/xpbd/wireutil"
)

var littleEndian = binary.LittleEndian

// SignatureSize is the length of a DPoS block signature.
const SignatureSize = 64

// MaxTxHashes bounds the number of transaction hashes a single block may
// carry, guarding decode against a hostile or corrupt length prefix.
const MaxTxHashes = 0x10000

// Header is a block's header: the fields that are hashed to produce the
// block id, plus the proof-of-work nonce when the block's major version
// is sealed by mining rather than delegate signature.
type Header struct {
	MajorVersion uint64
	MinorVersion uint64
	Timestamp    uint64
	PrevID       chainhash.Hash

	// Nonce is only present on the wire, and only contributes to the
	// block id, when MajorVersion <= chaincfg.PoWMajorVersion.
	Nonce uint32
}

// Block is a complete block: header, miner transaction, the hashes of the
// ordinary transactions it includes, and — for DPoS-era blocks — the
// signing delegate and its signature.
type Block struct {
	Header   Header
	MinerTx  *transaction.Transaction
	TxHashes []chainhash.Hash

	// SigningDelegate and Signature are only present on the wire, and
	// are excluded from the hashed id, when Header.MajorVersion >=
	// chaincfg.DPoSMajorVersion.
	SigningDelegate uint64
	Signature       [SignatureSize]byte
}

// IsPoW reports whether the header's major version is sealed by mining.
func (h Header) IsPoW() bool {
	return h.MajorVersion <= chaincfg.PoWMajorVersion
}

// IsDPoS reports whether the header's major version is sealed by delegate
// signature.
func (h Header) IsDPoS() bool {
	return h.MajorVersion >= chaincfg.DPoSMajorVersion
}

// ID hashes the block's header, miner transaction, and transaction hash
// list. The nonce is included only for PoW-era blocks; the signing
// delegate and signature are never part of the id, since they are applied
// to the id after it is computed.
func (b *Block) ID() (chainhash.Hash, error) {
	var buf bytes.Buffer
	if err := b.encodeHashable(&buf); err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.HashH(buf.Bytes()), nil
}

// Encode writes the full wire encoding of the block, including the DPoS
// signer tail when present, to w.
func (b *Block) Encode(w io.Writer) error {
	if err := b.encodeHashable(w); err != nil {
		return err
	}
	if !b.Header.IsDPoS() {
		return nil
	}
	if err := wireutil.WriteVarInt(w, b.SigningDelegate); err != nil {
		return err
	}
	_, err := w.Write(b.Signature[:])
	return err
}

func (b *Block) encodeHashable(w io.Writer) error {
	if err := wireutil.WriteVarInt(w, b.Header.MajorVersion); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, b.Header.MinorVersion); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, b.Header.Timestamp); err != nil {
		return err
	}
	if _, err := w.Write(b.Header.PrevID[:]); err != nil {
		return err
	}
	if b.Header.IsPoW() {
		var nonceBuf [4]byte
		littleEndian.PutUint32(nonceBuf[:], b.Header.Nonce)
		if _, err := w.Write(nonceBuf[:]); err != nil {
			return err
		}
	}

	if b.MinerTx == nil {
		return errors.New("block has no miner transaction")
	}
	if err := b.MinerTx.Encode(w); err != nil {
		return errors.Wrap(err, "encode miner transaction")
	}

	if err := wireutil.WriteVarInt(w, uint64(len(b.TxHashes))); err != nil {
		return err
	}
	for _, h := range b.TxHashes {
		if _, err := w.Write(h[:]); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a complete block, including its DPoS signer tail when the
// decoded major version calls for one, from r.
func Decode(r io.Reader) (*Block, error) {
	b := &Block{}

	var err error
	if b.Header.MajorVersion, err = wireutil.ReadVarInt(r); err != nil {
		return nil, errors.Wrap(err, "read major version")
	}
	if b.Header.MinorVersion, err = wireutil.ReadVarInt(r); err != nil {
		return nil, errors.Wrap(err, "read minor version")
	}
	if b.Header.Timestamp, err = wireutil.ReadVarInt(r); err != nil {
		return nil, errors.Wrap(err, "read timestamp")
	}
	if _, err := io.ReadFull(r, b.Header.PrevID[:]); err != nil {
		return nil, errors.Wrap(err, "read prev id")
	}
	if b.Header.IsPoW() {
		var nonceBuf [4]byte
		if _, err := io.ReadFull(r, nonceBuf[:]); err != nil {
			return nil, errors.Wrap(err, "read nonce")
		}
		b.Header.Nonce = littleEndian.Uint32(nonceBuf[:])
	}

	minerTx, err := transaction.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode miner transaction")
	}
	b.MinerTx = minerTx

	numHashes, err := wireutil.ReadVarInt(r)
	if err != nil {
		return nil, errors.Wrap(err, "read tx hash count")
	}
	if numHashes > MaxTxHashes {
		return nil, errors.Errorf("tx hash count %d exceeds max allowed %d", numHashes, MaxTxHashes)
	}
	b.TxHashes = make([]chainhash.Hash, numHashes)
	for i := range b.TxHashes {
		if _, err := io.ReadFull(r, b.TxHashes[i][:]); err != nil {
			return nil, errors.Wrapf(err, "read tx hash %d", i)
		}
	}

	if !b.Header.IsDPoS() {
		return b, nil
	}
	if b.SigningDelegate, err = wireutil.ReadVarInt(r); err != nil {
		return nil, errors.Wrap(err, "read signing delegate")
	}
	if _, err := io.ReadFull(r, b.Signature[:]); err != nil {
		return nil, errors.Wrap(err, "read signature")
	}
	return b, nil
}
