package cache

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
)

// captureScrubs records every buffer the cache scrubs and whether it really
// was zeroed at that point.
func captureScrubs(t *testing.T) *[][]byte {
	t.Helper()
	var scrubbed [][]byte
	old := scrubHook
	scrubHook = func(b []byte) {
		for _, v := range b {
			if v != 0 {
				t.Errorf("scrub hook observed non-zero byte %#x", v)
			}
		}
		scrubbed = append(scrubbed, b)
	}
	t.Cleanup(func() { scrubHook = old })
	return &scrubbed
}

func TestStoreLookup(t *testing.T) {
	db := New(0)
	id := []byte("session-id-1")
	data := []byte("serialized session state")

	db.Store(id, data)

	got, ok := db.Lookup(id)
	if !ok {
		t.Fatal("Lookup missed a stored entry")
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Lookup = %q, want %q", got, data)
	}

	// The cache owns its copy: mutating what Lookup returned or what was
	// passed to Store must not reach cache memory.
	got[0] ^= 0xff
	data[0] ^= 0xff
	again, _ := db.Lookup(id)
	if !bytes.Equal(again, []byte("serialized session state")) {
		t.Error("cache entry aliases caller memory")
	}

	if _, ok := db.Lookup([]byte("unknown")); ok {
		t.Error("Lookup invented an entry")
	}
}

func TestEvictScrubsBeforeRemoval(t *testing.T) {
	scrubbed := captureScrubs(t)

	db := New(0)
	db.Store([]byte("id"), []byte("secret-material"))
	db.Evict([]byte("id"))

	if len(*scrubbed) != 1 {
		t.Fatalf("scrub hook fired %d times, want 1", len(*scrubbed))
	}
	if len((*scrubbed)[0]) != len("secret-material") {
		t.Errorf("scrubbed %d bytes, want %d", len((*scrubbed)[0]), len("secret-material"))
	}
	if db.Len() != 0 {
		t.Errorf("Len = %d after eviction, want 0", db.Len())
	}
}

func TestDeinitScrubsEveryLiveEntry(t *testing.T) {
	scrubbed := captureScrubs(t)

	db := New(0)
	db.Store([]byte("a"), []byte("aaaa"))
	db.Store([]byte("b"), []byte("bbbbbbbb"))
	db.Store([]byte("c"), nil) // zero-length data has nothing to scrub

	db.Deinit()

	if len(*scrubbed) != 2 {
		t.Errorf("scrub hook fired %d times, want 2 (entries with data)", len(*scrubbed))
	}
	if db.Len() != 0 {
		t.Errorf("Len = %d after Deinit, want 0", db.Len())
	}
	if _, ok := db.Lookup([]byte("a")); ok {
		t.Error("entry survived Deinit")
	}
}

func TestReplaceScrubsPreviousData(t *testing.T) {
	scrubbed := captureScrubs(t)

	db := New(0)
	id := []byte("id")
	db.Store(id, []byte("old-blob"))
	db.Store(id, []byte("new-blob"))

	if len(*scrubbed) != 1 {
		t.Fatalf("scrub hook fired %d times on replace, want 1", len(*scrubbed))
	}
	got, _ := db.Lookup(id)
	if !bytes.Equal(got, []byte("new-blob")) {
		t.Errorf("Lookup after replace = %q", got)
	}
	if db.Len() != 1 {
		t.Errorf("Len = %d, want 1", db.Len())
	}
}

func TestHashCollisionChaining(t *testing.T) {
	old := hashID
	hashID = func([]byte) uint64 { return 42 } // every id collides
	defer func() { hashID = old }()

	db := New(0)
	db.Store([]byte("first"), []byte("data-1"))
	db.Store([]byte("second"), []byte("data-2"))

	if got, _ := db.Lookup([]byte("first")); !bytes.Equal(got, []byte("data-1")) {
		t.Errorf("Lookup(first) = %q", got)
	}
	if got, _ := db.Lookup([]byte("second")); !bytes.Equal(got, []byte("data-2")) {
		t.Errorf("Lookup(second) = %q", got)
	}

	db.Evict([]byte("first"))
	if _, ok := db.Lookup([]byte("first")); ok {
		t.Error("evicted entry still present")
	}
	if got, _ := db.Lookup([]byte("second")); !bytes.Equal(got, []byte("data-2")) {
		t.Error("eviction removed a chained neighbor")
	}
}

func TestCapacityEviction(t *testing.T) {
	scrubbed := captureScrubs(t)

	db := New(2)
	db.Store([]byte("a"), []byte("1111"))
	db.Store([]byte("b"), []byte("2222"))
	db.Store([]byte("c"), []byte("3333"))

	if db.Len() != 2 {
		t.Errorf("Len = %d at capacity 2, want 2", db.Len())
	}
	if len(*scrubbed) != 1 {
		t.Errorf("capacity eviction scrubbed %d buffers, want 1", len(*scrubbed))
	}
}

func TestConcurrentAccess(t *testing.T) {
	db := New(0)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := []byte(fmt.Sprintf("conn-%d-%d", i, j%10))
				db.Store(id, []byte("blob"))
				db.Lookup(id)
				if j%3 == 0 {
					db.Evict(id)
				}
			}
		}(i)
	}
	wg.Wait()

	db.Deinit()
	if db.Len() != 0 {
		t.Errorf("Len = %d after Deinit, want 0", db.Len())
	}
}
