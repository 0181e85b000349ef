package bridge

import (
	"hash/fnv"
	"sync"
	"time"
)

const numShards = 16

// DedupStore remembers signal IDs for a bounded window so a webhook delivered
// twice places one order instead of two. Sharded to keep concurrent signals
// off a single lock.
type DedupStore struct {
	ttl    time.Duration
	shards [numShards]*dedupShard
}

type dedupShard struct {
	mu    sync.Mutex
	items map[string]time.Time
}

// NewDedupStore creates a store with the given suppression window.
func NewDedupStore(ttl time.Duration) *DedupStore {
	d := &DedupStore{ttl: ttl}
	for i := range d.shards {
		d.shards[i] = &dedupShard{items: make(map[string]time.Time)}
	}
	return d
}

func (d *DedupStore) shard(key string) *dedupShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return d.shards[h.Sum32()%numShards]
}

// Seen reports whether id was recorded within the window, recording it if
// not. Expired entries in the shard are swept opportunistically.
func (d *DedupStore) Seen(id string) bool {
	now := time.Now()
	s := d.shard(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, at := range s.items {
		if now.Sub(at) > d.ttl {
			delete(s.items, k)
		}
	}

	if at, ok := s.items[id]; ok && now.Sub(at) <= d.ttl {
		return true
	}
	s.items[id] = now
	return false
}

// Len returns the number of remembered IDs across shards.
func (d *DedupStore) Len() int {
	total := 0
	for _, s := range d.shards {
		s.mu.Lock()
		total += len(s.items)
		s.mu.Unlock()
	}
	return total
}
