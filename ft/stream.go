package ft

import (
	"context"

	"github.com/wippyai/ftbind"
	"github.com/wippyai/ftbind/bridge"
	"github.com/wippyai/ftbind/native"
	"github.com/wippyai/ftbind/registry"
)

// Stream is a block of font bytes in native memory. Faces opened from a
// stream read it lazily, so the stream outlives them.
type Stream struct {
	resource
	data ftbind.Ptr
	size uint32
}

// Size returns the number of bytes in the stream.
func (s *Stream) Size() uint32 { return s.size }

// Region implements bridge.Owner.
func (s *Stream) Region() (ftbind.Ptr, uint32) { return s.data, s.size }

// View lends length bytes at offset of the stream without copying.
func (s *Stream) View(offset, length uint32) (*bridge.Buffer, error) {
	return bridge.View(s, offset, length)
}

// NewFace opens face index of the stream.
func (s *Stream) NewFace(ctx context.Context, index int64) (*Face, error) {
	return s.newFace(ctx, "new_memory_face", index)
}

func (s *Stream) newFace(ctx context.Context, op string, index int64) (*Face, error) {
	unlock, err := enter(op, &s.resource)
	if err != nil {
		return nil, err
	}
	defer unlock()

	gw := s.env.gw
	p, st := gw.NewMemoryFace(ctx, s.env.lib, s.data, s.size, index)
	if !st.OK() {
		return nil, s.env.status(ctx, op, s.Handle(), st)
	}

	f := &Face{stream: s}
	f.env = s.env
	f.destroy = func(ctx context.Context) native.Status {
		return gw.DoneFace(ctx, p)
	}
	if err := f.register(ctx, op, p, registry.KindFace, s.Handle()); err != nil {
		return nil, err
	}
	return f, nil
}

// Release frees the stream bytes. It fails with resource_in_use while a
// face reads from the stream.
func (s *Stream) Release(ctx context.Context) error { return s.release(ctx) }

// Close releases the stream unless it is already released.
func (s *Stream) Close(ctx context.Context) error { return s.close(ctx) }
