// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package persist

import (
	"math/big"
	"sync"

	"github.com/btcsuite/goleveldb/leveldb"
	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/chainhash"
)

// flushInterval is how many Put calls accumulate in memory before
// LongHashCache writes them through to the underlying leveldb handle.
// Batching the writes this way is what lets the catch-up worker record a
// long hash on every header it processes without a disk write on every
// one of them.
const flushInterval = 100

// LongHashCache memoizes the proof-of-work difficulty a block's long hash
// was found to satisfy, keyed by block id, so the catch-up worker never
// has to recompute one it already paid for. Writes are batched in memory
// and flushed to the backing goleveldb handle every flushInterval Puts,
// and unconditionally on Close.
type LongHashCache struct {
	mtx     sync.Mutex
	db      *leveldb.DB
	pending *leveldb.Batch
	dirty   int
}

// OpenLongHashCache opens (creating if necessary) a goleveldb database at
// path to back a LongHashCache.
func OpenLongHashCache(path string) (*LongHashCache, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "open long hash cache")
	}
	return &LongHashCache{db: db, pending: new(leveldb.Batch)}, nil
}

// Get returns the cached difficulty for id, if one has been recorded and
// already flushed through to the backing handle. A Put not yet flushed by
// a prior Put or Flush call is not visible to Get; catch-up is expected to
// recompute rather than block on a flush for its own most recent work.
func (c *LongHashCache) Get(id chainhash.Hash) (*big.Int, bool) {
	value, err := c.db.Get(id[:], nil)
	if err != nil {
		return nil, false
	}
	return new(big.Int).SetBytes(value), true
}

// Put records id's achieved difficulty, batching the write in memory and
// flushing every flushInterval calls.
func (c *LongHashCache) Put(id chainhash.Hash, difficulty *big.Int) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.pending.Put(id[:], difficulty.Bytes())
	c.dirty++
	if c.dirty < flushInterval {
		return nil
	}
	return c.flushLocked()
}

// Flush forces any batched writes through to the backing handle
// immediately, regardless of how many are pending.
func (c *LongHashCache) Flush() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.dirty == 0 {
		return nil
	}
	return c.flushLocked()
}

func (c *LongHashCache) flushLocked() error {
	if err := c.db.Write(c.pending, nil); err != nil {
		return errors.Wrap(err, "flush long hash cache batch")
	}
	c.pending = new(leveldb.Batch)
	c.dirty = 0
	return nil
}

// Close flushes any pending writes and closes the backing handle.
func (c *LongHashCache) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	return c.db.Close()
}
