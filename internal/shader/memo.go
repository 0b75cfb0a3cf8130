package shader

import (
	"container/list"
	"crypto/sha256"
	"sync"
	"sync/atomic"
)

const (
	// DefaultShards is the shard count used when none is configured.
	DefaultShards = 16

	// DefaultShardCapacity is the number of modules kept per shard.
	DefaultShardCapacity = 64
)

type digest [sha256.Size]byte

// memo is a sharded LRU of compiled SPIR-V keyed by source digest. Each
// shard has its own lock so parallel executors compiling different
// shaders do not contend.
type memo struct {
	shards   []*memoShard
	mask     uint8
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type memoShard struct {
	mu      sync.Mutex
	entries map[digest]*list.Element
	lru     *list.List // front is most recently used
}

type memoEntry struct {
	key  digest
	code []byte
}

// newMemo rounds shards up to a power of two no larger than 256.
func newMemo(shards, capacity int) *memo {
	if shards <= 0 {
		shards = DefaultShards
	}
	n := 1
	for n < shards && n < 256 {
		n <<= 1
	}
	if capacity <= 0 {
		capacity = DefaultShardCapacity
	}

	m := &memo{shards: make([]*memoShard, n), mask: uint8(n - 1), capacity: capacity} //nolint:gosec // n <= 256
	for i := range m.shards {
		m.shards[i] = &memoShard{entries: make(map[digest]*list.Element), lru: list.New()}
	}
	return m
}

func (m *memo) shard(key digest) *memoShard {
	return m.shards[key[0]&m.mask]
}

// getOrCreate returns the cached code for key or stores the result of
// create. Failed compilations are not cached. create runs under the shard
// lock so a shader is compiled once even when requested concurrently.
func (m *memo) getOrCreate(key digest, create func() ([]byte, error)) ([]byte, error) {
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		s.lru.MoveToFront(e)
		m.hits.Add(1)
		return e.Value.(*memoEntry).code, nil
	}
	m.misses.Add(1)

	code, err := create()
	if err != nil {
		return nil, err
	}

	for s.lru.Len() >= m.capacity {
		oldest := s.lru.Back()
		s.lru.Remove(oldest)
		delete(s.entries, oldest.Value.(*memoEntry).key)
		m.evictions.Add(1)
	}
	s.entries[key] = s.lru.PushFront(&memoEntry{key: key, code: code})
	return code, nil
}

func (m *memo) len() int {
	total := 0
	for _, s := range m.shards {
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// Stats reports compiler cache activity.
type Stats struct {
	Len       int
	Shards    int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (m *memo) stats() Stats {
	return Stats{
		Len:       m.len(),
		Shards:    len(m.shards),
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Evictions: m.evictions.Load(),
	}
}
