package ftbind

// Ptr is a native address or opaque token handed out by a gateway.
// Zero is NULL.
type Ptr uint64

// Memory represents memory owned by the native library.
//
// Read returns the bytes at ptr. Backends whose storage can move during a
// native call, such as wasm linear memory, return a copy; others return a
// slice aliasing the library's storage. Either way the result must not be
// retained past the next native call.
type Memory interface {
	Read(ptr Ptr, length uint32) ([]byte, bool)
	Write(ptr Ptr, data []byte) bool
}
