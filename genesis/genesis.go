// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package genesis builds the first block of a network's chain from its
// chaincfg.Params. The block is derived afresh on every call; nothing is
// precomputed or cached.
package genesis

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/chaincfg"
	"github.com/xpbproject/xpbd/chainhash"
	"github.com/xpbproject/xpbd/cointype"
	"github.com/xpbproject/xpbd/transaction"
	"github.com/xpbproject/xpbd/wire"
)

// Block builds the genesis block for params: a single coinbase-only miner
// transaction sealed at params.GenesisTimestamp, with its nonce derived by
// hashing params.GenesisNonceString rather than mined by brute force, since
// a genesis block only needs to be reproducible, not to satisfy any real
// difficulty target. If params.ExpectedGenesisID is set, the computed id is
// checked against it and a mismatch is reported as an error rather than
// silently accepted.
func Block(params *chaincfg.Params) (*wire.Block, error) {
	nonce := binary.LittleEndian.Uint32(chainhash.HashB([]byte(params.GenesisNonceString))[:4])

	minerTx := &transaction.Transaction{
		Version:    1,
		UnlockTime: chaincfg.MinedMoneyUnlockWindow,
		Inputs:     []transaction.Input{&transaction.CoinbaseInput{Height: 0}},
		Signatures: [][]transaction.RingSignature{nil},
		Outputs: []transaction.Output{
			{Amount: 0, CoinType: cointype.XPB, Key: transaction.OneTimeKey{}},
		},
	}

	block := &wire.Block{
		Header: wire.Header{
			MajorVersion: chaincfg.PoWMajorVersion,
			Timestamp:    params.GenesisTimestamp,
			Nonce:        nonce,
		},
		MinerTx: minerTx,
	}

	id, err := block.ID()
	if err != nil {
		return nil, errors.Wrap(err, "compute genesis block id")
	}
	var zero chainhash.Hash
	if params.ExpectedGenesisID != zero && id != params.ExpectedGenesisID {
		return nil, errors.Errorf("%s: generated genesis id %s does not match expected id %s",
			params.Name, id, params.ExpectedGenesisID)
	}

	return block, nil
}
