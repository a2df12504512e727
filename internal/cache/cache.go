// Package cache implements the process-wide session resumption cache. The
// cache owns copies of every session blob it holds and guarantees that the
// backing memory of a blob is overwritten with zeros before it is released,
// on every reclaim path.
package cache

import (
	"bytes"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// hashID is the bucket hash over raw session-id bytes. Variable so tests can
// force collisions.
var hashID = xxhash.Sum64

// scrubHook, when non-nil, observes every buffer right after it has been
// zeroed and before it is released.
var scrubHook func([]byte)

// scrub zero-fills b so no session material survives in reclaimed memory.
func scrub(b []byte) {
	for i := range b {
		b[i] = 0
	}
	if scrubHook != nil {
		scrubHook(b)
	}
}

type entry struct {
	id   []byte
	data []byte
}

// release scrubs the entry's payload before the entry is dropped. Entries
// with empty data have nothing to hide and are dropped as-is.
func (e *entry) release() {
	if len(e.data) > 0 {
		scrub(e.data)
		e.data = e.data[:0]
	}
	e.id = e.id[:0]
}

// DB is a hash table of session-id → session blob, chained on 64-bit hash
// collisions. One mutex serializes every operation; the scrub-then-remove
// sequence can therefore never interleave with a concurrent lookup of the
// same entry.
type DB struct {
	mu       sync.Mutex
	buckets  map[uint64][]*entry
	entries  int
	capacity int
}

// New allocates an empty cache database. Called once at server startup and
// again after a credential reload.
func New(capacity int) *DB {
	return &DB{
		buckets:  make(map[uint64][]*entry),
		capacity: capacity,
	}
}

// Store inserts or replaces the blob for id. Both id and data are copied, so
// the cache's scrub obligations never extend to caller-owned memory. When
// the cache is full an arbitrary existing entry is scrubbed and evicted
// first.
func (db *DB) Store(id, data []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()

	h := hashID(id)

	for _, e := range db.buckets[h] {
		if bytes.Equal(e.id, id) {
			if len(e.data) > 0 {
				scrub(e.data)
			}
			e.data = append([]byte(nil), data...)
			return
		}
	}

	if db.capacity > 0 && db.entries >= db.capacity {
		db.evictOneLocked()
	}

	db.buckets[h] = append(db.buckets[h], &entry{
		id:   append([]byte(nil), id...),
		data: append([]byte(nil), data...),
	})
	db.entries++
}

// Lookup returns a copy of the blob stored under id, matching by exact
// session-id byte equality within the hash chain.
func (db *DB) Lookup(id []byte) ([]byte, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, e := range db.buckets[hashID(id)] {
		if bytes.Equal(e.id, id) {
			return append([]byte(nil), e.data...), true
		}
	}
	return nil, false
}

// Evict scrubs and removes the entry for id, atomically under the database
// lock so the erase-before-free ordering cannot be broken by the call site.
func (db *DB) Evict(id []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()

	h := hashID(id)
	chain := db.buckets[h]
	for i, e := range chain {
		if bytes.Equal(e.id, id) {
			e.release()
			db.buckets[h] = append(chain[:i], chain[i+1:]...)
			if len(db.buckets[h]) == 0 {
				delete(db.buckets, h)
			}
			db.entries--
			return
		}
	}
}

// Len returns the live entry count.
func (db *DB) Len() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.entries
}

// Deinit scrubs every live entry and then clears the table. After it returns
// no session material from this database remains in reachable memory.
func (db *DB) Deinit() {
	db.mu.Lock()
	defer db.mu.Unlock()

	for h, chain := range db.buckets {
		for _, e := range chain {
			e.release()
		}
		delete(db.buckets, h)
	}
	db.entries = 0
}

// evictOneLocked scrubs and drops one entry to make room. Caller holds db.mu.
func (db *DB) evictOneLocked() {
	for h, chain := range db.buckets {
		e := chain[0]
		e.release()
		if len(chain) == 1 {
			delete(db.buckets, h)
		} else {
			db.buckets[h] = chain[1:]
		}
		db.entries--
		return
	}
}
