package ft

import (
	"context"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/ftbind"
	"github.com/wippyai/ftbind/errors"
	"github.com/wippyai/ftbind/native"
	"github.com/wippyai/ftbind/registry"
)

// env is shared by every wrapper of one library tree.
type env struct {
	gw  native.Gateway
	reg *registry.Registry
	log *zap.Logger
	lib ftbind.Ptr
}

// status converts a failed native status into an error. Codes the table
// does not know are described by the library itself when it can.
func (e *env) status(ctx context.Context, op string, h registry.Handle, st native.Status) error {
	code := int32(st)
	b := errors.From(errors.Translate(code)).Op(op).Handle(uint64(h))
	if _, known := errors.Message(code); !known {
		if msg, ok := e.gw.ErrorString(ctx, code); ok {
			b.Detail("%s", msg)
		}
	}
	return b.Build()
}

type state uint32

const (
	stateUninitialized state = iota
	stateLive
	stateReleased
)

// resource is the lifecycle core embedded by every wrapper.
//
// The state moves Uninitialized -> Live once the native object is
// registered and Live -> Released once Release has run the destructor. It
// never moves back.
type resource struct {
	env   *env
	entry registry.Entry
	state atomic.Uint32

	// destroy runs the native destructor. It is called at most once.
	destroy func(ctx context.Context) native.Status

	// after runs once the resource is released, outside the tree guard.
	after func(ctx context.Context) error
}

// Handle returns the registry handle, or zero before registration.
func (r *resource) Handle() registry.Handle { return r.entry.Handle }

// Registry returns the registry tracking the resource.
func (r *resource) Registry() *registry.Registry { return r.env.reg }

// Memory returns the address space of the owning gateway.
func (r *resource) Memory() ftbind.Memory { return r.env.gw.Memory() }

// Live reports whether the resource has not been released.
func (r *resource) Live() bool { return r.load() == stateLive }

func (r *resource) ptr() ftbind.Ptr { return r.entry.Native }

func (r *resource) load() state { return state(r.state.Load()) }

// register records the native object p. When the registry refuses it, the
// object is destroyed at once so nothing leaks.
func (r *resource) register(ctx context.Context, op string, p ftbind.Ptr, kind registry.Kind, parent registry.Handle) error {
	e, err := r.env.reg.Register(p, kind, parent)
	if err != nil {
		if st := r.destroy(ctx); !st.OK() {
			r.env.log.Warn("destroy after failed registration",
				zap.String("op", op),
				zap.Stringer("kind", kind),
				zap.Int32("status", int32(st)))
		}
		if fe, ok := errors.As(err); ok {
			return errors.From(fe).Op(op).Build()
		}
		return err
	}
	r.entry = e
	r.state.Store(uint32(stateLive))
	r.env.log.Debug("opened",
		zap.String("op", op),
		zap.Stringer("handle", e.Handle),
		zap.Stringer("kind", kind))
	return nil
}

// enter takes the tree guard shared by rs for one operation. Every resource
// must be live and tracked by the same registry.
func enter(op string, rs ...*resource) (func(), error) {
	hs := make([]registry.Handle, len(rs))
	for i, r := range rs {
		if r.load() != stateLive {
			return nil, errors.InvalidHandle(errors.PhaseLifecycle, op, uint64(r.entry.Handle))
		}
		if r.env.reg != rs[0].env.reg {
			return nil, errors.InvalidArgument(errors.PhaseLifecycle, op, "resources belong to different registries")
		}
		hs[i] = r.entry.Handle
	}

	unlock, err := rs[0].env.reg.Guard(hs...)
	if err != nil {
		var h uint64
		if fe, ok := errors.As(err); ok {
			h = fe.Handle
		}
		return nil, errors.InvalidHandle(errors.PhaseLifecycle, op, h)
	}
	return unlock, nil
}

// do runs a status-only native call under the resource's guard.
func (r *resource) do(ctx context.Context, op string, call func() native.Status) error {
	unlock, err := enter(op, r)
	if err != nil {
		return err
	}
	defer unlock()

	if st := call(); !st.OK() {
		return r.env.status(ctx, op, r.Handle(), st)
	}
	return nil
}

// release implements Release for every wrapper.
func (r *resource) release(ctx context.Context) error {
	const op = "release"
	h := r.entry.Handle

	switch r.load() {
	case stateUninitialized:
		return errors.InvalidHandle(errors.PhaseLifecycle, op, 0)
	case stateReleased:
		return errors.AlreadyReleased(errors.PhaseLifecycle, op, uint64(h))
	}

	unlock, err := r.env.reg.Guard(h)
	if err != nil {
		return errors.AlreadyReleased(errors.PhaseLifecycle, op, uint64(h))
	}
	if err := r.env.reg.Release(h); err != nil {
		unlock()
		return err
	}
	r.state.Store(uint32(stateReleased))
	st := r.destroy(ctx)
	unlock()

	var result error
	if !st.OK() {
		r.env.log.Warn("native destructor failed",
			zap.Stringer("handle", h),
			zap.Stringer("kind", r.entry.Kind),
			zap.Int32("status", int32(st)))
		result = r.env.status(ctx, op, h, st)
	}
	if r.after != nil {
		result = multierr.Append(result, r.after(ctx))
	}
	return result
}

// close implements Close: release unless already released.
func (r *resource) close(ctx context.Context) error {
	if r.load() != stateLive {
		return nil
	}
	err := r.release(ctx)
	if errors.KindOf(err) == errors.KindAlreadyReleased {
		if e, _ := errors.As(err); e.Phase == errors.PhaseLifecycle {
			return nil
		}
	}
	return err
}
