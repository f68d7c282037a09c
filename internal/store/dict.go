package store

import (
	"hash/fnv"
	"sync"
)

// shardCount fixes the number of lock stripes. Keys hash onto stripes
// with FNV-1a, so unrelated keys rarely contend.
const shardCount = 32

type shard struct {
	mu    sync.RWMutex
	items map[string]Value
}

// Dict is the concurrent dictionary from key to typed value.
//
// Concurrency model:
//   - The map is split into shardCount stripes, each guarded by its
//     own RWMutex. Readers on distinct keys proceed in parallel; a
//     writer on key k excludes all readers and writers on k's stripe.
//   - All access goes through View/Update, which run the caller's
//     closure under the stripe lock. A closure must not touch the
//     dictionary again (same-stripe reentry would self-deadlock) and
//     must not retain the value past its return.
//   - No iteration order is promised.
type Dict struct {
	shards [shardCount]shard
}

func NewDict() *Dict {
	d := &Dict{}
	for i := range d.shards {
		d.shards[i].items = make(map[string]Value)
	}
	return d
}

func (d *Dict) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &d.shards[h.Sum32()%shardCount]
}

// View runs fn with a shared view of the key's value under the stripe
// read lock. ok is false when the key is absent.
func (d *Dict) View(key string, fn func(v Value, ok bool)) {
	s := d.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	fn(v, ok)
}

// Update runs fn with an exclusive view of the key's value under the
// stripe write lock. fn returns the value to store afterwards and a
// removal flag: (v, false) keeps or replaces the entry, (nil, false)
// leaves the key absent, and (_, true) deletes it.
func (d *Dict) Update(key string, fn func(v Value, ok bool) (Value, bool)) {
	s := d.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	next, remove := fn(v, ok)
	switch {
	case remove:
		delete(s.items, key)
	case next != nil:
		s.items[key] = next
	}
}

// Delete removes a key of any kind, reporting whether it existed.
func (d *Dict) Delete(key string) bool {
	s := d.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	delete(s.items, key)
	return ok
}

// Len counts entries across all stripes. The count is only a snapshot
// under concurrent mutation.
func (d *Dict) Len() int {
	var n int
	for i := range d.shards {
		s := &d.shards[i]
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}
