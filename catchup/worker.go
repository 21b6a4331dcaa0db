// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package catchup runs the background long-hash worker: headers a
// validator has only checked against their short hash are queued here for
// their expensive long hash to be computed off the chain lock, with
// results memoized in a persist.LongHashCache so initial sync never pays
// for the same header twice.
package catchup

import (
	"math/big"
	"sync"

	"github.com/xpbproject/xpbd/chainhash"
	"github.com/xpbproject/xpbd/logger"
	"github.com/xpbproject/xpbd/persist"
	"github.com/xpbproject/xpbd/util/panics"
	"github.com/xpbproject/xpbd/wire"
)

var log, _ = logger.Get(logger.SubsystemTags.CTCH)

// LongHasher computes the proof-of-work long hash of a block header — the
// memory-hard function a header's achieved difficulty is actually judged
// against, as opposed to the cheap short hash used for relay-time checks.
// The concrete algorithm is an external primitive, injected here the same
// way validation.Verifier injects ring-signature verification.
type LongHasher interface {
	LongHash(header wire.Header) (*big.Int, error)
}

// job is one header awaiting a long hash, keyed by the block id its short
// hash already committed it to.
type job struct {
	id     chainhash.Hash
	header wire.Header
}

// Worker computes long hashes for queued headers on its own goroutine and
// caches each result, so a later catch-up pass over the same header never
// re-hashes it. A job is popped off the queue, hashed, and only the cache
// write that follows touches anything shared — the blockchain lock is
// never held across a hash.
type Worker struct {
	hasher LongHasher
	cache  *persist.LongHashCache
	spawn  func(func())

	mtx     sync.Mutex
	queue   []job
	queued  map[chainhash.Hash]struct{}
	newWork chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

// New returns a Worker that hashes headers with hasher and memoizes
// results in cache. Call Run to start its background goroutine.
func New(hasher LongHasher, cache *persist.LongHashCache) *Worker {
	return &Worker{
		hasher:  hasher,
		cache:   cache,
		spawn:   panics.GoroutineWrapperFunc(log),
		queued:  make(map[chainhash.Hash]struct{}),
		newWork: make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Enqueue submits header, identified by id, for long-hash computation if
// it is not already cached or already waiting in the queue. It never
// blocks on the hash itself.
func (w *Worker) Enqueue(id chainhash.Hash, header wire.Header) {
	if _, ok := w.cache.Get(id); ok {
		return
	}

	w.mtx.Lock()
	if _, ok := w.queued[id]; ok {
		w.mtx.Unlock()
		return
	}
	w.queued[id] = struct{}{}
	w.queue = append(w.queue, job{id: id, header: header})
	w.mtx.Unlock()

	select {
	case w.newWork <- struct{}{}:
	default:
	}
}

// Result reports the long-hash difficulty cached for id, if one has been
// computed (and flushed) yet.
func (w *Worker) Result(id chainhash.Hash) (*big.Int, bool) {
	return w.cache.Get(id)
}

// Pending reports how many headers are queued but not yet hashed.
func (w *Worker) Pending() int {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	return len(w.queue)
}

// Run starts the worker's background goroutine and returns immediately.
func (w *Worker) Run() {
	w.spawn(w.loop)
}

// Stop requests the worker finish any job already in flight and then
// exit without starting another, blocking until it has actually done so
// and flushed its cache.
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
}

func (w *Worker) loop() {
	defer close(w.done)
	defer w.cache.Flush()

	for {
		j, ok := w.dequeue()
		if !ok {
			select {
			case <-w.stop:
				return
			case <-w.newWork:
			}
			continue
		}

		select {
		case <-w.stop:
			return
		default:
		}

		diff, err := w.hasher.LongHash(j.header)
		if err != nil {
			log.Warnf("long hash of block %s failed: %+v", j.id, err)
			continue
		}
		if err := w.cache.Put(j.id, diff); err != nil {
			log.Warnf("cache long hash of block %s: %+v", j.id, err)
		}
	}
}

func (w *Worker) dequeue() (job, bool) {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	if len(w.queue) == 0 {
		return job{}, false
	}
	j := w.queue[0]
	w.queue = w.queue[1:]
	delete(w.queued, j.id)
	return j, true
}
