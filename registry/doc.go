// Package registry tracks every live native resource handed out by a gateway.
//
// Each registered resource gets a Handle that packs a slot index and a
// generation counter. Slots are recycled through a free list, and the
// generation is bumped on every release, so a stale Handle never resolves to
// a newer entry. Handle 0 is reserved and always invalid.
//
// Entries form a tree: every entry except a root has a parent, and a parent
// cannot be released while it has live children.
//
//	reg := registry.New()
//	lib, _ := reg.Register(libPtr, registry.KindLibrary, 0)
//	face, _ := reg.Register(facePtr, registry.KindFace, lib.Handle)
//	err := reg.Release(lib.Handle) // resource_in_use
//
// # Locking
//
// All bookkeeping is serialized by one mutex that is never held across a
// native call. Callers that need exclusive access to a tree while they talk
// to the native library use Guard, which takes the per-root lock of every
// distinct root in a fixed order.
package registry
