package registry

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/wippyai/ftbind"
	"github.com/wippyai/ftbind/errors"
)

func TestRegistry_Basic(t *testing.T) {
	r := New()

	lib, err := r.Register(0x1000, KindLibrary, 0)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if lib.Handle == 0 {
		t.Fatal("Expected non-zero handle")
	}
	if lib.Root != lib.Handle {
		t.Errorf("Root = %s, want %s", lib.Root, lib.Handle)
	}

	e, ok := r.Lookup(lib.Handle)
	if !ok {
		t.Fatal("Lookup failed")
	}
	if e.Native != 0x1000 || e.Kind != KindLibrary {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.Created.IsZero() {
		t.Error("Created not set")
	}

	if err := r.Release(lib.Handle); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if r.IsLive(lib.Handle) {
		t.Fatal("Expected handle to be dead after Release")
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}

func TestRegistry_ZeroHandle(t *testing.T) {
	r := New()

	if r.IsLive(0) {
		t.Error("handle 0 must never be live")
	}
	if _, ok := r.Lookup(0); ok {
		t.Error("Lookup(0) must fail")
	}
	err := r.Release(0)
	if errors.KindOf(err) != errors.KindInvalidHandle {
		t.Errorf("Release(0) = %v, want invalid_handle", err)
	}
}

func TestRegistry_DoubleRelease(t *testing.T) {
	r := New()
	lib, _ := r.Register(1, KindLibrary, 0)

	if err := r.Release(lib.Handle); err != nil {
		t.Fatal(err)
	}
	err := r.Release(lib.Handle)
	if !errors.Is(err, errors.ErrAlreadyReleased) {
		t.Fatalf("second Release = %v, want already_released", err)
	}
}

func TestRegistry_ParentMustBeLive(t *testing.T) {
	r := New()
	lib, _ := r.Register(1, KindLibrary, 0)
	r.Release(lib.Handle)

	_, err := r.Register(2, KindFace, lib.Handle)
	if errors.KindOf(err) != errors.KindInvalidHandle {
		t.Fatalf("Register under dead parent = %v, want invalid_handle", err)
	}
	if r.Len() != 0 {
		t.Errorf("failed Register created an entry")
	}
}

func TestRegistry_ResourceInUse(t *testing.T) {
	r := New()
	lib, _ := r.Register(1, KindLibrary, 0)
	face, _ := r.Register(2, KindFace, lib.Handle)
	glyph, _ := r.Register(3, KindGlyph, face.Handle)

	before := r.Live()

	err := r.Release(lib.Handle)
	if !errors.Is(err, errors.ErrResourceInUse) {
		t.Fatalf("Release(lib) = %v, want resource_in_use", err)
	}
	err = r.Release(face.Handle)
	if !errors.Is(err, errors.ErrResourceInUse) {
		t.Fatalf("Release(face) = %v, want resource_in_use", err)
	}

	after := r.Live()
	if len(before) != len(after) {
		t.Fatalf("registry changed: %d entries before, %d after", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("entry %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}

	for _, h := range []Handle{glyph.Handle, face.Handle, lib.Handle} {
		if err := r.Release(h); err != nil {
			t.Fatalf("Release(%s) failed: %v", h, err)
		}
	}
}

func TestRegistry_TreeBookkeeping(t *testing.T) {
	r := New()
	lib, _ := r.Register(1, KindLibrary, 0)
	stream, _ := r.Register(2, KindStream, lib.Handle)
	f1, _ := r.Register(3, KindFace, stream.Handle)
	f2, _ := r.Register(4, KindFace, stream.Handle)

	if f1.Root != lib.Handle || f2.Parent != stream.Handle {
		t.Errorf("unexpected tree: %+v %+v", f1, f2)
	}

	kids := r.Children(stream.Handle)
	if len(kids) != 2 || kids[0] != f1.Handle || kids[1] != f2.Handle {
		t.Errorf("Children = %v", kids)
	}

	e, _ := r.Lookup(stream.Handle)
	if e.Children != 2 {
		t.Errorf("Children count = %d, want 2", e.Children)
	}

	r.Release(f1.Handle)
	e, _ = r.Lookup(stream.Handle)
	if e.Children != 1 {
		t.Errorf("Children count after release = %d, want 1", e.Children)
	}
}

func TestRegistry_HandleReuse(t *testing.T) {
	r := New()
	a, _ := r.Register(1, KindLibrary, 0)
	r.Release(a.Handle)

	b, _ := r.Register(2, KindLibrary, 0)
	if b.Handle.Slot() != a.Handle.Slot() {
		t.Fatalf("slot not recycled: %d vs %d", b.Handle.Slot(), a.Handle.Slot())
	}
	if b.Handle == a.Handle {
		t.Fatal("recycled slot must get a new generation")
	}
	if r.IsLive(a.Handle) {
		t.Error("stale handle resolves to the new entry")
	}
	if err := r.Release(a.Handle); !errors.Is(err, errors.ErrAlreadyReleased) {
		t.Errorf("Release(stale) = %v, want already_released", err)
	}
	if !r.IsLive(b.Handle) {
		t.Error("releasing a stale handle affected the new entry")
	}
}

func TestRegistry_Limit(t *testing.T) {
	r := New(WithLimit(2))
	lib, _ := r.Register(1, KindLibrary, 0)
	r.Register(2, KindFace, lib.Handle)

	_, err := r.Register(3, KindFace, lib.Handle)
	if !errors.Is(err, errors.ErrOutOfMemory) {
		t.Fatalf("Register over limit = %v, want out_of_memory", err)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}

func TestRegistry_Close(t *testing.T) {
	r := New()
	lib, _ := r.Register(1, KindLibrary, 0)

	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal("Close should be idempotent")
	}

	_, err := r.Register(2, KindLibrary, 0)
	if errors.KindOf(err) != errors.KindInvalidHandle {
		t.Errorf("Register after Close = %v, want invalid_handle", err)
	}
	if err := r.Release(lib.Handle); err != nil {
		t.Errorf("Release after Close = %v, want nil", err)
	}
}

type recorder struct {
	events []Event
	mu     sync.Mutex
}

func (r *recorder) OnRegistryEvent(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func TestRegistry_Observers(t *testing.T) {
	r := New()
	rec := &recorder{}
	r.Subscribe(rec)

	lib, _ := r.Register(7, KindLibrary, 0)
	r.Release(lib.Handle)
	r.Release(lib.Handle) // no event for a failed release

	if len(rec.events) != 2 {
		t.Fatalf("got %d events, want 2", len(rec.events))
	}
	if rec.events[0].Type != EventRegistered || rec.events[1].Type != EventReleased {
		t.Errorf("unexpected events %+v", rec.events)
	}
	if rec.events[1].Entry.Native != 7 {
		t.Errorf("released entry = %+v", rec.events[1].Entry)
	}

	r.Unsubscribe(rec)
	r.Register(8, KindLibrary, 0)
	if len(rec.events) != 2 {
		t.Error("observer called after Unsubscribe")
	}
}

func TestRegistry_ObserverMayReenter(t *testing.T) {
	r := New()
	obs := &reentrant{r: r}
	r.Subscribe(obs)

	lib, _ := r.Register(1, KindLibrary, 0)
	if !obs.sawLive {
		t.Error("observer could not look up the registered handle")
	}
	r.Release(lib.Handle)
}

type reentrant struct {
	r       *Registry
	sawLive bool
}

func (o *reentrant) OnRegistryEvent(e Event) {
	if e.Type == EventRegistered {
		o.sawLive = o.r.IsLive(e.Entry.Handle)
	}
}

// Random register/release sequences must never leave a child whose parent
// is gone, and a refused release must leave the registry untouched.
func TestRegistry_RandomizedTreeInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	r := New()
	var live []Handle

	for step := 0; step < 5000; step++ {
		if len(live) == 0 || rng.Intn(3) > 0 {
			var parent Handle
			kind := KindLibrary
			if len(live) > 0 && rng.Intn(4) > 0 {
				parent = live[rng.Intn(len(live))]
				kind = KindFace
			}
			e, err := r.Register(ftbind.Ptr(step), kind, parent)
			if err != nil {
				t.Fatalf("step %d: Register: %v", step, err)
			}
			live = append(live, e.Handle)
			continue
		}

		i := rng.Intn(len(live))
		h := live[i]
		hasKids := len(r.Children(h)) > 0
		before := r.Len()

		err := r.Release(h)
		switch {
		case hasKids:
			if !errors.Is(err, errors.ErrResourceInUse) {
				t.Fatalf("step %d: Release with children = %v", step, err)
			}
			if r.Len() != before || !r.IsLive(h) {
				t.Fatalf("step %d: refused release mutated the registry", step)
			}
		default:
			if err != nil {
				t.Fatalf("step %d: Release = %v", step, err)
			}
			live = append(live[:i], live[i+1:]...)
		}

		for _, e := range r.Live() {
			if e.Parent != 0 && !r.IsLive(e.Parent) {
				t.Fatalf("step %d: %s outlived parent %s", step, e.Handle, e.Parent)
			}
		}
	}
}

func TestRegistry_ConcurrentRegisterRelease(t *testing.T) {
	r := New()
	lib, _ := r.Register(1, KindLibrary, 0)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				e, err := r.Register(ftbind.Ptr(i), KindGlyph, lib.Handle)
				if err != nil {
					t.Error(err)
					return
				}
				if err := r.Release(e.Handle); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
	if err := r.Release(lib.Handle); err != nil {
		t.Fatal(err)
	}
}

func TestDefault(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default must return the same registry")
	}
}

func TestKindString(t *testing.T) {
	tests := map[Kind]string{
		KindLibrary: "library",
		KindStream:  "stream",
		KindFace:    "face",
		KindGlyph:   "glyph",
		KindStroker: "stroker",
		Kind(99):    "kind(99)",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
