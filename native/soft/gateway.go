package soft

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/ftbind"
	"github.com/wippyai/ftbind/errors"
	"github.com/wippyai/ftbind/native"
)

var (
	stOK                   = native.StatusOK
	stInvalidArgument      = native.Status(errors.CodeInvalidArgument)
	stUnknownFileFormat    = native.Status(errors.CodeUnknownFileFormat)
	stInvalidFileFormat    = native.Status(errors.CodeInvalidFileFormat)
	stInvalidTable         = native.Status(errors.CodeInvalidTable)
	stArrayTooLarge        = native.Status(errors.CodeArrayTooLarge)
	stInvalidGlyphIndex    = native.Status(errors.CodeInvalidGlyphIndex)
	stInvalidGlyphFormat   = native.Status(errors.CodeInvalidGlyphFormat)
	stCannotRenderGlyph    = native.Status(errors.CodeCannotRenderGlyph)
	stInvalidOutline       = native.Status(errors.CodeInvalidOutline)
	stInvalidPixelSize     = native.Status(errors.CodeInvalidPixelSize)
	stInvalidLibraryHandle = native.Status(errors.CodeInvalidLibraryHandle)
	stInvalidFaceHandle    = native.Status(errors.CodeInvalidFaceHandle)
	stInvalidSizeHandle    = native.Status(errors.CodeInvalidSizeHandle)
	stOutOfMemory          = native.Status(errors.CodeOutOfMemory)
)

// identitySize is the heap block backing each object's address.
const identitySize = 16

type object interface {
	// free releases heap blocks the object owns besides its identity block.
	free(h *Heap)
}

type library struct {
	owned map[ftbind.Ptr]struct{}
}

func (*library) free(*Heap) {}

// Gateway implements native.Gateway in Go.
type Gateway struct {
	heap    *Heap
	objects map[ftbind.Ptr]object
	owner   map[ftbind.Ptr]ftbind.Ptr
	cfg     Config
	mu      sync.Mutex
	closed  bool
}

var _ native.Gateway = (*Gateway)(nil)

// New creates a soft gateway. A nil config uses defaults.
func New(cfg *Config) *Gateway {
	c := cfg.withDefaults()
	return &Gateway{
		heap:    NewHeap(c.HeapLimit),
		objects: make(map[ftbind.Ptr]object),
		owner:   make(map[ftbind.Ptr]ftbind.Ptr),
		cfg:     c,
	}
}

func (g *Gateway) Name() string { return "soft" }

func (g *Gateway) Memory() ftbind.Memory { return g.heap }

// Stats reports heap usage. A balanced program returns to its baseline.
func (g *Gateway) Stats() Stats { return g.heap.Stats() }

// Objects returns the number of live native objects.
func (g *Gateway) Objects() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.objects)
}

// call runs fn under the gateway lock and turns a panic into StatusTrap.
func (g *Gateway) call(entry string, fn func() native.Status) (st native.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("entry point panicked",
				zap.String("entry", entry),
				zap.Any("panic", r))
			st = native.StatusTrap
		}
	}()
	if g.closed {
		return stInvalidLibraryHandle
	}
	return fn()
}

func (g *Gateway) newObject(lib ftbind.Ptr, o object) (ftbind.Ptr, native.Status) {
	p, ok := g.heap.Alloc(identitySize)
	if !ok {
		o.free(g.heap)
		return 0, stOutOfMemory
	}
	g.objects[p] = o
	if l, ok := g.objects[lib].(*library); ok {
		l.owned[p] = struct{}{}
		g.owner[p] = lib
	}
	return p, stOK
}

func (g *Gateway) dropObject(p ftbind.Ptr) {
	o, ok := g.objects[p]
	if !ok {
		return
	}
	o.free(g.heap)
	g.heap.Free(p)
	delete(g.objects, p)
	if lib, ok := g.owner[p]; ok {
		if l, ok := g.objects[lib].(*library); ok {
			delete(l.owned, p)
		}
		delete(g.owner, p)
	}
}

func lookup[T object](g *Gateway, p ftbind.Ptr) (T, bool) {
	t, ok := g.objects[p].(T)
	return t, ok
}

func (g *Gateway) Alloc(_ context.Context, size uint32) (ftbind.Ptr, native.Status) {
	var p ftbind.Ptr
	st := g.call("alloc", func() native.Status {
		var ok bool
		if p, ok = g.heap.Alloc(size); !ok {
			return stOutOfMemory
		}
		return stOK
	})
	return p, st
}

func (g *Gateway) Free(_ context.Context, p ftbind.Ptr) native.Status {
	return g.call("free", func() native.Status {
		if p == 0 {
			return stOK
		}
		if _, isObject := g.objects[p]; isObject {
			return stInvalidArgument
		}
		if !g.heap.Free(p) {
			return stInvalidArgument
		}
		return stOK
	})
}

func (g *Gateway) InitLibrary(context.Context) (ftbind.Ptr, native.Status) {
	var p ftbind.Ptr
	st := g.call("init_library", func() native.Status {
		var st native.Status
		p, st = g.newObject(0, &library{owned: make(map[ftbind.Ptr]struct{})})
		return st
	})
	return p, st
}

// DoneLibrary destroys lib and every object created under it, as
// FT_Done_FreeType does.
func (g *Gateway) DoneLibrary(_ context.Context, lib ftbind.Ptr) native.Status {
	return g.call("done_library", func() native.Status {
		l, ok := lookup[*library](g, lib)
		if !ok {
			return stInvalidLibraryHandle
		}
		for p := range l.owned {
			g.dropObject(p)
		}
		g.dropObject(lib)
		return stOK
	})
}

func (g *Gateway) LibraryVersion(_ context.Context, lib ftbind.Ptr) (native.Version, native.Status) {
	st := g.call("library_version", func() native.Status {
		if _, ok := lookup[*library](g, lib); !ok {
			return stInvalidLibraryHandle
		}
		return stOK
	})
	if st != stOK {
		return native.Version{}, st
	}
	return g.cfg.Version, st
}

// ErrorString reports false: the soft gateway is built without error
// strings, like a FreeType built without FT_CONFIG_OPTION_ERROR_STRINGS.
func (g *Gateway) ErrorString(context.Context, int32) (string, bool) {
	return "", false
}

// Close destroys every remaining object.
func (g *Gateway) Close(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true
	if n := len(g.objects); n > 0 {
		Logger().Debug("closing with live objects", zap.Int("objects", n))
	}
	for p := range g.objects {
		g.dropObject(p)
	}
	return nil
}
