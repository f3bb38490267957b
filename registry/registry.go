package registry

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/ftbind"
	"github.com/wippyai/ftbind/errors"
)

// Registry is the table of live native resources.
type Registry struct {
	slots     []slot
	freeList  []uint32
	roots     map[Handle]*sync.Mutex
	observers []Observer
	live      int
	limit     int
	mu        sync.Mutex
	obsMu     sync.RWMutex
	closed    bool
}

type slot struct {
	children map[Handle]struct{}
	created  time.Time
	native   ftbind.Ptr
	parent   Handle
	root     Handle
	gen      uint32
	kind     Kind
	valid    bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLimit caps the number of simultaneously live handles. Register fails
// with out_of_memory once the cap is reached. Zero means unlimited.
func WithLimit(n int) Option {
	return func(r *Registry) {
		r.limit = n
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		slots:    make([]slot, 0, 64),
		freeList: make([]uint32, 0, 16),
		roots:    make(map[Handle]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register records a new native resource under parent. A zero parent makes
// the entry a root with its own lock.
func (r *Registry) Register(native ftbind.Ptr, kind Kind, parent Handle) (Entry, error) {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()
		return Entry{}, errors.New(errors.PhaseRegistry, errors.KindInvalidHandle).
			Op("register").
			Detail("registry closed").
			Build()
	}

	var root Handle
	var ps *slot
	if parent != 0 {
		ps = r.lookup(parent)
		if ps == nil {
			r.mu.Unlock()
			return Entry{}, errors.New(errors.PhaseRegistry, errors.KindInvalidHandle).
				Op("register").
				Handle(uint64(parent)).
				Detail("parent of %s is not live", kind).
				Build()
		}
		root = ps.root
	}

	if r.limit > 0 && r.live >= r.limit {
		r.mu.Unlock()
		return Entry{}, errors.OutOfMemory(errors.PhaseRegistry, "register", "handle limit reached")
	}

	var idx uint32
	if n := len(r.freeList); n > 0 {
		idx = r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
	} else {
		r.slots = append(r.slots, slot{})
		idx = uint32(len(r.slots) - 1)
	}

	s := &r.slots[idx]
	s.gen++
	h := makeHandle(idx, s.gen)
	if root == 0 {
		root = h
		r.roots[h] = &sync.Mutex{}
	}
	s.native = native
	s.kind = kind
	s.parent = parent
	s.root = root
	s.created = time.Now()
	s.children = nil
	s.valid = true
	r.live++

	if ps != nil {
		if ps.children == nil {
			ps.children = make(map[Handle]struct{})
		}
		ps.children[h] = struct{}{}
	}

	e := s.entry(h)
	r.mu.Unlock()

	Logger().Debug("registered",
		zap.Stringer("handle", h),
		zap.Stringer("kind", kind),
		zap.Stringer("parent", parent))

	r.notify(Event{Type: EventRegistered, Entry: e})
	return e, nil
}

// Release removes h from the registry. It does not touch native memory;
// the caller runs the native destructor once Release succeeds.
func (r *Registry) Release(h Handle) error {
	if h == 0 {
		return errors.InvalidHandle(errors.PhaseRegistry, "release", 0)
	}

	r.mu.Lock()
	s := r.lookup(h)
	if s == nil {
		r.mu.Unlock()
		return errors.AlreadyReleased(errors.PhaseRegistry, "release", uint64(h))
	}
	if n := len(s.children); n > 0 {
		r.mu.Unlock()
		return errors.ResourceInUse(uint64(h), n)
	}

	e := s.entry(h)
	if s.parent != 0 {
		if ps := r.lookup(s.parent); ps != nil {
			delete(ps.children, h)
		}
	}
	if s.root == h {
		delete(r.roots, h)
	}

	*s = slot{gen: s.gen}
	r.freeList = append(r.freeList, h.Slot())
	r.live--
	r.mu.Unlock()

	Logger().Debug("released",
		zap.Stringer("handle", h),
		zap.Stringer("kind", e.Kind))

	r.notify(Event{Type: EventReleased, Entry: e})
	return nil
}

// IsLive reports whether h refers to a registered resource.
func (r *Registry) IsLive(h Handle) bool {
	if h == 0 {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup(h) != nil
}

// Lookup returns a snapshot of the entry for h.
func (r *Registry) Lookup(h Handle) (Entry, bool) {
	if h == 0 {
		return Entry{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lookup(h)
	if s == nil {
		return Entry{}, false
	}
	return s.entry(h), true
}

// Children returns the live direct children of h.
func (r *Registry) Children(h Handle) []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lookup(h)
	if s == nil || len(s.children) == 0 {
		return nil
	}
	out := make([]Handle, 0, len(s.children))
	for c := range s.children {
		out = append(out, c)
	}
	sortHandles(out)
	return out
}

// Live returns a snapshot of every live entry in slot order.
func (r *Registry) Live() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0, r.live)
	for i := range r.slots {
		s := &r.slots[i]
		if s.valid {
			out = append(out, s.entry(makeHandle(uint32(i), s.gen)))
		}
	}
	return out
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// Subscribe adds an observer for lifecycle events.
func (r *Registry) Subscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.observers = append(r.observers, o)
}

// Unsubscribe removes an observer.
func (r *Registry) Unsubscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	for i, obs := range r.observers {
		if obs == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// Close stops the registry from accepting new registrations. Live entries
// can still be released so that outstanding wrappers can clean up.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.live > 0 {
		Logger().Warn("registry closed with live handles", zap.Int("live", r.live))
	}
	return nil
}

// lookup returns the slot for h or nil. Caller holds r.mu.
func (r *Registry) lookup(h Handle) *slot {
	if h == 0 {
		return nil
	}
	idx := h.Slot()
	if int(idx) >= len(r.slots) {
		return nil
	}
	s := &r.slots[idx]
	if !s.valid || s.gen != h.Generation() {
		return nil
	}
	return s
}

func (s *slot) entry(h Handle) Entry {
	return Entry{
		Handle:   h,
		Native:   s.native,
		Kind:     s.kind,
		Parent:   s.parent,
		Root:     s.root,
		Created:  s.created,
		Children: len(s.children),
	}
}

func (r *Registry) notify(e Event) {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()
	for _, o := range r.observers {
		o.OnRegistryEvent(e)
	}
}
