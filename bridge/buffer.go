package bridge

import (
	"io"

	"github.com/wippyai/ftbind"
	"github.com/wippyai/ftbind/errors"
	"github.com/wippyai/ftbind/registry"
)

// Owner is a registered resource that owns a region of native memory.
type Owner interface {
	Handle() registry.Handle
	Registry() *registry.Registry
	Memory() ftbind.Memory

	// Region returns the base address and size of the owned memory, as
	// reported by the native library. It is fixed for the owner's lifetime.
	Region() (ftbind.Ptr, uint32)
}

// Buffer is a bounds-checked view of an owner's native region.
type Buffer struct {
	owner  Owner
	ptr    ftbind.Ptr
	handle registry.Handle
	length uint32
}

// View returns a view of length bytes at offset into owner's region.
func View(owner Owner, offset, length uint32) (*Buffer, error) {
	h := owner.Handle()
	if h == 0 || !owner.Registry().IsLive(h) {
		return nil, errors.InvalidHandle(errors.PhaseBuffer, "view", uint64(h))
	}

	base, size := owner.Region()
	if end := uint64(offset) + uint64(length); end > uint64(size) {
		return nil, errors.New(errors.PhaseBuffer, errors.KindInvalidArgument).
			Op("view").
			Handle(uint64(h)).
			Detail("range [%d, %d) exceeds region of %d bytes", offset, end, size).
			Build()
	}

	return &Buffer{
		owner:  owner,
		ptr:    base + ftbind.Ptr(offset),
		handle: h,
		length: length,
	}, nil
}

// Len returns the view length in bytes.
func (b *Buffer) Len() uint32 { return b.length }

// Owner returns the handle of the resource the view borrows from.
func (b *Buffer) Owner() registry.Handle { return b.handle }

// guard locks the owner's tree and verifies it is still the resource the
// view was taken from.
func (b *Buffer) guard(op string) (func(), error) {
	unlock, err := b.owner.Registry().Guard(b.handle)
	if err != nil {
		if errors.KindOf(err) == errors.KindAlreadyReleased {
			return nil, errors.AlreadyReleased(errors.PhaseBuffer, op, uint64(b.handle))
		}
		return nil, err
	}
	return unlock, nil
}

func (b *Buffer) raw(op string) ([]byte, error) {
	if b.length == 0 {
		return []byte{}, nil
	}
	p, ok := b.owner.Memory().Read(b.ptr, b.length)
	if !ok || uint32(len(p)) != b.length {
		return nil, errors.New(errors.PhaseBuffer, errors.KindNativeFailure).
			Op(op).
			Handle(uint64(b.handle)).
			Detail("native memory at %#x is not readable", uint64(b.ptr)).
			Build()
	}
	return p, nil
}

// Bytes returns a copy of the viewed bytes.
func (b *Buffer) Bytes() ([]byte, error) {
	unlock, err := b.guard("bytes")
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, err := b.raw("bytes")
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), p...), nil
}

// ReadAt implements io.ReaderAt over the view.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.InvalidArgument(errors.PhaseBuffer, "read_at", "negative offset")
	}
	unlock, err := b.guard("read_at")
	if err != nil {
		return 0, err
	}
	defer unlock()

	if off >= int64(b.length) {
		return 0, io.EOF
	}
	src, err := b.raw("read_at")
	if err != nil {
		return 0, err
	}
	n := copy(p, src[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Do calls fn with the viewed bytes while the owner's tree is locked. The
// slice aliases native memory when the backend lends it (soft, cgo) and is a
// copy otherwise (wasm). It must not be retained after fn returns.
//
// The tree lock is not reentrant: fn must not call any wrapper or bridge
// method on the same tree, or it deadlocks. Use Bytes to work on a copy
// without holding the lock.
func (b *Buffer) Do(fn func(p []byte) error) error {
	unlock, err := b.guard("do")
	if err != nil {
		return err
	}
	defer unlock()

	p, err := b.raw("do")
	if err != nil {
		return err
	}
	return fn(p)
}

var _ io.ReaderAt = (*Buffer)(nil)
