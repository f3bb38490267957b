package cft

import (
	"sync"

	"github.com/wippyai/ftbind"
)

// regions records the native ranges the gateway has handed out: blocks from
// Alloc, face name strings and glyph bitmap buffers. Memory refuses any
// access that does not fall inside one of them. A range is forgotten when
// its owner is destroyed or FreeType replaces the storage.
type regions struct {
	mu    sync.Mutex
	spans map[ftbind.Ptr]span
}

type span struct {
	size  uint64
	owner ftbind.Ptr
}

func (r *regions) add(base ftbind.Ptr, size uint64, owner ftbind.Ptr) {
	if base == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spans == nil {
		r.spans = make(map[ftbind.Ptr]span)
	}
	r.spans[base] = span{size: size, owner: owner}
}

// dropOwned forgets every range owned by owner, including a block allocated
// at owner itself.
func (r *regions) dropOwned(owner ftbind.Ptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for base, s := range r.spans {
		if s.owner == owner {
			delete(r.spans, base)
		}
	}
}

// contains reports whether [p, p+n) lies inside a single recorded range.
func (r *regions) contains(p ftbind.Ptr, n uint64) bool {
	end := uint64(p) + n
	if p == 0 || end < uint64(p) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for base, s := range r.spans {
		if p >= base && end <= uint64(base)+s.size {
			return true
		}
	}
	return false
}

func (r *regions) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spans)
}
