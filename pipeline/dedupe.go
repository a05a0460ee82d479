package pipeline

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Deduplicator remembers every movie id seen during a run. The backing LRU
// is resized before it would evict, so an id is never forgotten.
type Deduplicator struct {
	seen     *lru.Cache[int, struct{}]
	capacity int
}

// NewDeduplicator creates an empty id set with the given initial capacity.
func NewDeduplicator(initialSize int) (*Deduplicator, error) {
	if initialSize <= 0 {
		initialSize = 1
	}
	cache, err := lru.New[int, struct{}](initialSize)
	if err != nil {
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}
	return &Deduplicator{seen: cache, capacity: initialSize}, nil
}

// Add records id and reports whether it was new.
func (d *Deduplicator) Add(id int) bool {
	if d.seen.Contains(id) {
		return false
	}
	if d.seen.Len() >= d.capacity {
		d.capacity *= 2
		d.seen.Resize(d.capacity)
	}
	d.seen.Add(id, struct{}{})
	return true
}

// Len returns the number of distinct ids recorded.
func (d *Deduplicator) Len() int {
	return d.seen.Len()
}
