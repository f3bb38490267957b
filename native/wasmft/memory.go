package wasmft

import (
	"math"
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/ftbind"
)

// memory adapts wazero linear memory to ftbind.Memory.
//
// Linear memory moves when the module grows it, so every access holds the
// gateway lock and Read hands out a copy. Gateway code that already holds
// the lock uses mem directly.
type memory struct {
	mem api.Memory
	mu  *sync.Mutex
}

func (m memory) Read(ptr ftbind.Ptr, length uint32) ([]byte, bool) {
	if ptr > math.MaxUint32 {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.mem.Read(uint32(ptr), length)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

func (m memory) Write(ptr ftbind.Ptr, data []byte) bool {
	if ptr > math.MaxUint32 {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mem.Write(uint32(ptr), data)
}

// cstring reads a NUL-terminated string of at most limit bytes. The caller
// holds the gateway lock.
func (m memory) cstring(ptr uint32, limit uint32) (string, bool) {
	for n := uint32(0); n < limit; n++ {
		b, ok := m.mem.ReadByte(ptr + n)
		if !ok {
			return "", false
		}
		if b == 0 {
			s, _ := m.mem.Read(ptr, n)
			return string(s), true
		}
	}
	return "", false
}
