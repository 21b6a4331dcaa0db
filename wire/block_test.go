// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"

	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/chaincfg"
	"github.com/xpbproject/xpbd/chainhash"
	"github.com/xpbproject/xpbd/cointype"
	"github.com/xpbproject/xpbd/transaction"
)

func coinbaseTx() *transaction.Transaction {
	return &transaction.Transaction{
		Version:    cointype.VanillaTxVersion,
		UnlockTime: 60,
		Inputs: []transaction.Input{
			&transaction.CoinbaseInput{Height: 100},
		},
		Outputs: []transaction.Output{
			{Amount: amount.Amount(5_000_000), CoinType: cointype.XPB, Key: transaction.OneTimeKey{1}},
		},
		Signatures: [][]transaction.RingSignature{{}},
	}
}

func TestBlockEncodeDecodeRoundTripPoW(t *testing.T) {
	b := &Block{
		Header: Header{
			MajorVersion: chaincfg.PoWMajorVersion,
			MinorVersion: 0,
			Timestamp:    1_700_000_000,
			PrevID:       chainhash.Hash{0xaa},
			Nonce:        12345,
		},
		MinerTx:  coinbaseTx(),
		TxHashes: []chainhash.Hash{{0x01}, {0x02}},
	}

	var buf bytes.Buffer
	if err := b.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Header.Nonce != b.Header.Nonce {
		t.Errorf("nonce = %d, want %d", got.Header.Nonce, b.Header.Nonce)
	}
	if len(got.TxHashes) != len(b.TxHashes) {
		t.Fatalf("got %d tx hashes, want %d", len(got.TxHashes), len(b.TxHashes))
	}
	if buf.Len() != 0 {
		t.Errorf("%d unexpected trailing bytes after decode", buf.Len())
	}
}

func TestBlockEncodeDecodeRoundTripDPoS(t *testing.T) {
	b := &Block{
		Header: Header{
			MajorVersion: chaincfg.DPoSMajorVersion,
			Timestamp:    1_700_000_500,
			PrevID:       chainhash.Hash{0xbb},
		},
		MinerTx:         coinbaseTx(),
		SigningDelegate: 7,
		Signature:       [SignatureSize]byte{0xcc},
	}

	var buf bytes.Buffer
	if err := b.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.SigningDelegate != b.SigningDelegate {
		t.Errorf("signing delegate = %d, want %d", got.SigningDelegate, b.SigningDelegate)
	}
	if got.Signature != b.Signature {
		t.Errorf("signature mismatch")
	}
}

func TestBlockIDExcludesNonceForDPoSBlocks(t *testing.T) {
	base := Block{
		Header: Header{
			MajorVersion: chaincfg.DPoSMajorVersion,
			Timestamp:    1_700_000_500,
			PrevID:       chainhash.Hash{0xbb},
		},
		MinerTx: coinbaseTx(),
	}
	withNonce := base
	withNonce.Header.Nonce = 999

	id1, err := base.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	id2, err := withNonce.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if id1 != id2 {
		t.Error("nonce affected the id of a DPoS-era block, but it is PoW-only data")
	}
}

func TestBlockIDIncludesNonceForPoWBlocks(t *testing.T) {
	base := Block{
		Header: Header{
			MajorVersion: chaincfg.PoWMajorVersion,
			Timestamp:    1_700_000_500,
			PrevID:       chainhash.Hash{0xbb},
			Nonce:        1,
		},
		MinerTx: coinbaseTx(),
	}
	changed := base
	changed.Header.Nonce = 2

	id1, err := base.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	id2, err := changed.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if id1 == id2 {
		t.Error("nonce change did not affect the id of a PoW-era block")
	}
}

func TestDecodeRejectsOversizedTxHashCount(t *testing.T) {
	b := &Block{
		Header: Header{
			MajorVersion: chaincfg.PoWMajorVersion,
			PrevID:       chainhash.Hash{0x01},
		},
		MinerTx: coinbaseTx(),
	}
	var buf bytes.Buffer
	if err := b.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Splice in an oversized hash count by re-encoding manually: easier
	// to just craft a buffer with a corrupted count after the real
	// header and miner tx, so decode the real one only far enough, then
	// feed a forged remainder.
	encoded := buf.Bytes()
	forged := append([]byte{}, encoded...)
	// Find-and-bump is brittle across encodings, so instead just assert
	// the guard directly using a hand-built minimal stream.
	_ = forged

	var tiny bytes.Buffer
	tiny.Write([]byte{0}) // major version 0 (PoW)
	tiny.Write([]byte{0}) // minor version 0
	tiny.Write([]byte{0}) // timestamp 0
	tiny.Write(make([]byte, chainhash.HashSize))
	tiny.Write([]byte{0, 0, 0, 0}) // nonce
	if err := coinbaseTx().Encode(&tiny); err != nil {
		t.Fatalf("encode miner tx: %v", err)
	}
	tiny.Write([]byte{0xff, 0, 0, 0, 0, 0x01, 0, 0, 0}) // varint: 0x0100000000, over MaxTxHashes

	if _, err := Decode(&tiny); err == nil {
		t.Error("expected error decoding an oversized tx hash count")
	}
}
