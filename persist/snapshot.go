// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package persist saves and restores the committed ledger to disk: a
// whole-chain snapshot written atomically (temp file, fsync, rename) and
// replayed block by block through chainstore on load, plus a secondary
// goleveldb-backed cache of the proof-of-work each block achieved, so the
// catch-up worker never has to recompute a long hash it already paid for.
package persist

import (
	"bufio"
	"io"
	"math/big"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/chaincfg"
	"github.com/xpbproject/xpbd/chainstore"
	"github.com/xpbproject/xpbd/logger"
	"github.com/xpbproject/xpbd/transaction"
	"github.com/xpbproject/xpbd/wire"
	"github.com/xpbproject/xpbd/wireutil"
)

var log, _ = logger.Get(logger.SubsystemTags.PERS)

// snapshotMagic identifies a snapshot file; snapshotVersion guards the
// layout below it so a future format change fails loudly instead of
// silently misreading an old file.
var snapshotMagic = [4]byte{'X', 'P', 'B', 'S'}

const snapshotVersion = 1

// SaveSnapshot writes store's entire main chain to path: every block from
// genesis to the current tip, each paired with the achieved difficulty it
// was originally applied with and the ordinary transactions its TxHashes
// name. The write lands in a temp file in the same directory, is fsync'd,
// and is only then renamed over path, so a crash mid-write never leaves a
// corrupt or partial snapshot where callers expect a complete one.
func SaveSnapshot(store *chainstore.Store, path string) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return errors.Wrap(err, "create temp snapshot file")
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(tmp)
	tip := store.TipHeight()

	if _, err = w.Write(snapshotMagic[:]); err != nil {
		return errors.Wrap(err, "write magic")
	}
	if err = wireutil.WriteVarInt(w, snapshotVersion); err != nil {
		return errors.Wrap(err, "write version")
	}
	if err = wireutil.WriteVarInt(w, tip+1); err != nil {
		return errors.Wrap(err, "write chain length")
	}

	for height := uint64(0); height <= tip; height++ {
		sb, ok := store.BlockAtHeight(height)
		if !ok {
			return errors.Errorf("main chain missing block at height %d", height)
		}
		diff, ok := store.BlockDifficulty(height)
		if !ok {
			return errors.Errorf("main chain missing difficulty at height %d", height)
		}
		id, err := sb.Block.ID()
		if err != nil {
			return errors.Wrapf(err, "compute block id at height %d", height)
		}
		txs, ok := store.BlockTransactions(id)
		if !ok {
			return errors.Errorf("main chain missing transactions at height %d", height)
		}
		if err = writeBlockEntry(w, sb.Block, diff, txs); err != nil {
			return errors.Wrapf(err, "write block at height %d", height)
		}
	}

	if err = w.Flush(); err != nil {
		return errors.Wrap(err, "flush temp snapshot file")
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(err, "fsync temp snapshot file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp snapshot file")
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "rename temp snapshot file into place")
	}

	log.Infof("wrote snapshot of %d blocks to %s", tip+1, path)
	return nil
}

// writeBlockEntry writes one block's difficulty, wire encoding, and the
// ordinary (non-miner) transactions its hashes reference, in the order
// block.TxHashes names them.
func writeBlockEntry(w io.Writer, block *wire.Block, diff *big.Int, txs []*transaction.Transaction) error {
	diffBytes := diff.Bytes()
	if err := wireutil.WriteVarBytes(w, diffBytes); err != nil {
		return errors.Wrap(err, "write difficulty")
	}
	if err := block.Encode(w); err != nil {
		return errors.Wrap(err, "encode block")
	}
	if err := wireutil.WriteVarInt(w, uint64(len(txs)-1)); err != nil {
		return errors.Wrap(err, "write tx count")
	}
	for i, tx := range txs {
		if i == 0 {
			// txs[0] is the miner transaction, already encoded as part
			// of the block itself.
			continue
		}
		if err := tx.Encode(w); err != nil {
			return errors.Wrapf(err, "encode transaction %d", i)
		}
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot and replays it into
// a fresh Store for params: AddGenesis for height 0, then AddBlock for
// every subsequent height, in order. A snapshot that fails any block's
// consensus rules on replay — which should never happen for a snapshot
// this package itself produced — is reported as an error rather than
// silently accepted.
func LoadSnapshot(path string, params *chaincfg.Params) (*chainstore.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open snapshot file")
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, errors.Wrap(err, "read magic")
	}
	if magic != snapshotMagic {
		return nil, errors.New("not a snapshot file")
	}
	version, err := wireutil.ReadVarInt(r)
	if err != nil {
		return nil, errors.Wrap(err, "read version")
	}
	if version != snapshotVersion {
		return nil, errors.Errorf("unsupported snapshot version %d", version)
	}
	numBlocks, err := wireutil.ReadVarInt(r)
	if err != nil {
		return nil, errors.Wrap(err, "read chain length")
	}

	store := chainstore.New(params)
	for height := uint64(0); height < numBlocks; height++ {
		diff, block, txs, err := readBlockEntry(r)
		if err != nil {
			return nil, errors.Wrapf(err, "read block at height %d", height)
		}
		// txs carries the miner transaction at index 0 for symmetry with
		// writeBlockEntry; AddGenesis/AddBlock only want the ordinary
		// transactions a block's hash list references.
		ordinary := txs[1:]
		if height == 0 {
			if _, err := store.AddGenesis(block, ordinary, diff); err != nil {
				return nil, errors.Wrap(err, "replay genesis")
			}
			continue
		}
		if _, err := store.AddBlock(block, ordinary, diff); err != nil {
			return nil, errors.Wrapf(err, "replay block at height %d", height)
		}
	}

	log.Infof("loaded snapshot of %d blocks from %s", numBlocks, path)
	return store, nil
}

func readBlockEntry(r io.Reader) (*big.Int, *wire.Block, []*transaction.Transaction, error) {
	diffBytes, err := wireutil.ReadVarBytes(r, 128, "difficulty")
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "read difficulty")
	}
	diff := new(big.Int).SetBytes(diffBytes)

	block, err := wire.Decode(r)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "decode block")
	}

	numTxs, err := wireutil.ReadVarInt(r)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "read tx count")
	}
	if numTxs != uint64(len(block.TxHashes)) {
		return nil, nil, nil, errors.Errorf("tx count %d does not match block's %d tx hashes", numTxs, len(block.TxHashes))
	}
	txs := make([]*transaction.Transaction, 0, numTxs+1)
	txs = append(txs, block.MinerTx)
	for i := uint64(0); i < numTxs; i++ {
		tx, err := transaction.Decode(r)
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "decode transaction %d", i)
		}
		txs = append(txs, tx)
	}
	return diff, block, txs, nil
}
