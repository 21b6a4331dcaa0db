// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package catchup

import (
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/xpbproject/xpbd/chainhash"
	"github.com/xpbproject/xpbd/persist"
	"github.com/xpbproject/xpbd/wire"
)

type stubHasher struct {
	called chan wire.Header
	diff   *big.Int
	err    error
}

func (s *stubHasher) LongHash(header wire.Header) (*big.Int, error) {
	s.called <- header
	return s.diff, s.err
}

func newTestCache(t *testing.T) *persist.LongHashCache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "longhash.db")
	cache, err := persist.OpenLongHashCache(path)
	if err != nil {
		t.Fatalf("OpenLongHashCache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestWorkerHashesQueuedHeaderAndCachesResult(t *testing.T) {
	hasher := &stubHasher{called: make(chan wire.Header, 1), diff: big.NewInt(42)}
	cache := newTestCache(t)
	w := New(hasher, cache)
	w.Run()
	defer w.Stop()

	id := chainhash.HashH([]byte("header one"))
	header := wire.Header{Timestamp: 1}
	w.Enqueue(id, header)

	select {
	case got := <-hasher.called:
		if got != header {
			t.Fatalf("hasher called with %+v, want %+v", got, header)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the worker to hash the queued header")
	}

	if err := cache.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	diff, ok := w.Result(id)
	if !ok {
		t.Fatalf("expected a cached result after the hash completed")
	}
	if diff.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("Result = %s, want 42", diff)
	}
}

func TestWorkerSkipsAlreadyCachedHeader(t *testing.T) {
	hasher := &stubHasher{called: make(chan wire.Header, 1), diff: big.NewInt(1)}
	cache := newTestCache(t)
	id := chainhash.HashH([]byte("already done"))
	if err := cache.Put(id, big.NewInt(7)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	w := New(hasher, cache)
	w.Run()
	defer w.Stop()

	w.Enqueue(id, wire.Header{})

	select {
	case <-hasher.called:
		t.Fatalf("hasher should not be called for an already-cached header")
	case <-time.After(100 * time.Millisecond):
	}

	diff, ok := w.Result(id)
	if !ok || diff.Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("Result = %v, %v, want 7, true", diff, ok)
	}
}

func TestWorkerStopDrainsInFlightJob(t *testing.T) {
	hasher := &stubHasher{called: make(chan wire.Header, 1), diff: big.NewInt(5)}
	cache := newTestCache(t)
	w := New(hasher, cache)
	w.Run()

	id := chainhash.HashH([]byte("stop test"))
	w.Enqueue(id, wire.Header{})
	<-hasher.called

	w.Stop()

	if diff, ok := w.Result(id); !ok || diff.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("Result after Stop = %v, %v, want 5, true", diff, ok)
	}
}
