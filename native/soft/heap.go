package soft

import (
	"sort"
	"sync"

	"github.com/wippyai/ftbind"
)

const (
	heapBase  ftbind.Ptr = 0x10000
	heapAlign            = 16
)

// Stats is a snapshot of heap usage.
type Stats struct {
	LiveBlocks int
	LiveBytes  uint64
	Allocs     uint64
	Frees      uint64
}

// Heap is a block allocator over a private address space. Blocks are never
// adjacent, so a read that runs past the end of one block fails instead of
// spilling into the next.
type Heap struct {
	blocks map[ftbind.Ptr][]byte
	bases  []ftbind.Ptr
	stats  Stats
	next   ftbind.Ptr
	limit  uint64
	mu     sync.Mutex
}

// NewHeap creates a heap. A zero limit means unlimited.
func NewHeap(limit uint64) *Heap {
	return &Heap{
		blocks: make(map[ftbind.Ptr][]byte),
		next:   heapBase,
		limit:  limit,
	}
}

// Alloc reserves a zeroed block of size bytes.
func (h *Heap) Alloc(size uint32) (ftbind.Ptr, bool) {
	n := uint64(size)
	if n == 0 {
		n = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.limit > 0 && h.stats.LiveBytes+n > h.limit {
		return 0, false
	}

	p := h.next
	h.next += ftbind.Ptr((n+heapAlign-1)/heapAlign*heapAlign) + heapAlign
	h.blocks[p] = make([]byte, n)
	h.bases = append(h.bases, p)

	h.stats.LiveBlocks++
	h.stats.LiveBytes += n
	h.stats.Allocs++
	return p, true
}

// Free releases the block starting at p. Interior pointers are rejected.
func (h *Heap) Free(p ftbind.Ptr) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.blocks[p]
	if !ok {
		return false
	}
	delete(h.blocks, p)
	i := sort.Search(len(h.bases), func(i int) bool { return h.bases[i] >= p })
	h.bases = append(h.bases[:i], h.bases[i+1:]...)

	h.stats.LiveBlocks--
	h.stats.LiveBytes -= uint64(len(b))
	h.stats.Frees++
	return true
}

// Read returns a view of length bytes at p. The range must lie within a
// single live block.
func (h *Heap) Read(p ftbind.Ptr, length uint32) ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.find(p, length)
}

// Write copies data to p. The range must lie within a single live block.
func (h *Heap) Write(p ftbind.Ptr, data []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	dst, ok := h.find(p, uint32(len(data)))
	if !ok {
		return false
	}
	copy(dst, data)
	return true
}

// BlockSize returns the size of the block starting at p.
func (h *Heap) BlockSize(p ftbind.Ptr) (uint32, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.blocks[p]
	return uint32(len(b)), ok
}

// Stats returns current usage counters.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

func (h *Heap) find(p ftbind.Ptr, length uint32) ([]byte, bool) {
	if p == 0 {
		return nil, false
	}
	i := sort.Search(len(h.bases), func(i int) bool { return h.bases[i] > p }) - 1
	if i < 0 {
		return nil, false
	}
	base := h.bases[i]
	b := h.blocks[base]
	off := uint64(p - base)
	if off+uint64(length) > uint64(len(b)) {
		return nil, false
	}
	return b[off : off+uint64(length) : off+uint64(length)], true
}

// allocCString stores s with a trailing NUL.
func (h *Heap) allocCString(s string) (ftbind.Ptr, bool) {
	p, ok := h.Alloc(uint32(len(s) + 1))
	if !ok {
		return 0, false
	}
	h.Write(p, []byte(s))
	return p, true
}

// allocBytes stores a copy of data. An empty slice yields NULL.
func (h *Heap) allocBytes(data []byte) (ftbind.Ptr, bool) {
	if len(data) == 0 {
		return 0, true
	}
	p, ok := h.Alloc(uint32(len(data)))
	if !ok {
		return 0, false
	}
	h.Write(p, data)
	return p, true
}
