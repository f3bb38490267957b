package ft

import (
	"context"
	"io"
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/ftbind/errors"
	"github.com/wippyai/ftbind/native"
	"github.com/wippyai/ftbind/registry"
)

// Library owns one native library instance and is the root of its tree.
type Library struct {
	resource
}

// Open initializes a library on gw.
func Open(ctx context.Context, gw native.Gateway, opts ...Option) (*Library, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return OpenWithConfig(ctx, gw, &cfg)
}

// OpenWithConfig initializes a library on gw. A nil config uses defaults.
func OpenWithConfig(ctx context.Context, gw native.Gateway, cfg *Config) (*Library, error) {
	const op = "init_library"
	if gw == nil {
		return nil, errors.InvalidArgument(errors.PhaseLifecycle, op, "nil gateway")
	}
	c := cfg.withDefaults()
	e := &env{
		gw:  gw,
		reg: c.Registry,
		log: c.Logger.With(zap.String("backend", gw.Name())),
	}

	p, st := gw.InitLibrary(ctx)
	if !st.OK() {
		return nil, e.status(ctx, op, 0, st)
	}
	e.lib = p

	l := &Library{}
	l.env = e
	l.destroy = func(ctx context.Context) native.Status {
		return gw.DoneLibrary(ctx, p)
	}
	if err := l.register(ctx, op, p, registry.KindLibrary, 0); err != nil {
		return nil, err
	}
	return l, nil
}

// Gateway returns the gateway the library runs on.
func (l *Library) Gateway() native.Gateway { return l.env.gw }

// Version returns the native library version.
func (l *Library) Version(ctx context.Context) (Version, error) {
	const op = "library_version"
	unlock, err := enter(op, &l.resource)
	if err != nil {
		return Version{}, err
	}
	defer unlock()

	v, st := l.env.gw.LibraryVersion(ctx, l.env.lib)
	if !st.OK() {
		return Version{}, l.env.status(ctx, op, l.Handle(), st)
	}
	return v, nil
}

// ErrorString describes a FreeType error code. Codes outside the known
// table are described by the native library when it has a message.
func (l *Library) ErrorString(ctx context.Context, code int32) (string, error) {
	if !l.Live() {
		return "", errors.InvalidHandle(errors.PhaseLifecycle, "error_string", uint64(l.Handle()))
	}
	if msg, ok := errors.Message(code); ok {
		return msg, nil
	}
	if msg, ok := l.env.gw.ErrorString(ctx, code); ok {
		return msg, nil
	}
	return "", nil
}

// NewStream copies data into native memory owned by the library.
func (l *Library) NewStream(ctx context.Context, data []byte) (*Stream, error) {
	const op = "new_stream"
	if len(data) == 0 {
		return nil, errors.InvalidArgument(errors.PhaseLifecycle, op, "empty font data")
	}
	if uint64(len(data)) > math.MaxUint32 {
		return nil, errors.InvalidArgument(errors.PhaseLifecycle, op, "font data exceeds 4 GiB")
	}

	unlock, err := enter(op, &l.resource)
	if err != nil {
		return nil, err
	}
	defer unlock()

	gw := l.env.gw
	size := uint32(len(data))
	p, st := gw.Alloc(ctx, size)
	if !st.OK() {
		return nil, l.env.status(ctx, op, l.Handle(), st)
	}

	s := &Stream{data: p, size: size}
	s.env = l.env
	s.destroy = func(ctx context.Context) native.Status {
		return gw.Free(ctx, p)
	}
	if !gw.Memory().Write(p, data) {
		s.destroy(ctx)
		return nil, errors.New(errors.PhaseLifecycle, errors.KindNativeFailure).
			Op(op).
			Handle(uint64(l.Handle())).
			Detail("copy %d bytes to %#x", size, p).
			Build()
	}
	if err := s.register(ctx, op, p, registry.KindStream, l.Handle()); err != nil {
		return nil, err
	}
	return s, nil
}

// NewFace opens face index from data. The face owns a private copy of the
// bytes, released together with the face.
func (l *Library) NewFace(ctx context.Context, data []byte, index int64) (*Face, error) {
	s, err := l.NewStream(ctx, data)
	if err != nil {
		return nil, err
	}
	f, err := s.newFace(ctx, "new_face", index)
	if err != nil {
		if rerr := s.Release(ctx); rerr != nil {
			l.env.log.Warn("release stream of failed face", zap.Error(rerr))
		}
		return nil, err
	}
	f.after = func(ctx context.Context) error {
		return s.Close(ctx)
	}
	return f, nil
}

// NewFaceFromFile opens face index of the font file at path.
func (l *Library) NewFaceFromFile(ctx context.Context, path string, index int64) (*Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.From(errors.Translate(errors.CodeCannotOpenResource)).
			Op("new_face").
			Detail("%s", path).
			Cause(err).
			Build()
	}
	return l.NewFace(ctx, data, index)
}

// NewFaceFromReader reads r to the end and opens face index from it.
func (l *Library) NewFaceFromReader(ctx context.Context, r io.Reader, index int64) (*Face, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.From(errors.Translate(errors.CodeCannotOpenResource)).
			Op("new_face").
			Cause(err).
			Build()
	}
	return l.NewFace(ctx, data, index)
}

// NewStroker creates a stroker with FreeType's default settings.
func (l *Library) NewStroker(ctx context.Context) (*Stroker, error) {
	const op = "stroker_new"
	unlock, err := enter(op, &l.resource)
	if err != nil {
		return nil, err
	}
	defer unlock()

	gw := l.env.gw
	p, st := gw.NewStroker(ctx, l.env.lib)
	if !st.OK() {
		return nil, l.env.status(ctx, op, l.Handle(), st)
	}

	s := &Stroker{}
	s.env = l.env
	s.destroy = func(ctx context.Context) native.Status {
		return gw.DoneStroker(ctx, p)
	}
	if err := s.register(ctx, op, p, registry.KindStroker, l.Handle()); err != nil {
		return nil, err
	}
	return s, nil
}

// Release destroys the library. It fails with resource_in_use while any
// stream, face or stroker created from it is live.
func (l *Library) Release(ctx context.Context) error { return l.release(ctx) }

// Close releases the library unless it is already released.
func (l *Library) Close(ctx context.Context) error { return l.close(ctx) }
