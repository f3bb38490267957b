package ft

import (
	"context"
	"testing"

	"go.uber.org/multierr"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/wippyai/ftbind/errors"
	"github.com/wippyai/ftbind/native/soft"
	"github.com/wippyai/ftbind/registry"
)

func TestScope_ClosesInReverse(t *testing.T) {
	ctx := context.Background()
	gw := soft.New(nil)
	reg := registry.New()
	scope := NewScope()

	lib, err := Open(ctx, gw, WithRegistry(reg))
	must(t, "Open", err)
	scope.Add(lib)
	face, err := lib.NewFace(ctx, goregular.TTF, 0)
	must(t, "NewFace", err)
	scope.Add(face)
	must(t, "SetPixelSizes", face.SetPixelSizes(ctx, 0, 16))
	glyph, err := face.LoadChar(ctx, 'a', LoadRender)
	must(t, "LoadChar", err)
	scope.Add(glyph)
	stroker, err := lib.NewStroker(ctx)
	must(t, "NewStroker", err)
	scope.Add(stroker)

	if scope.Len() != 4 || reg.Len() != 5 {
		t.Fatalf("scope Len = %d, registry Len = %d", scope.Len(), reg.Len())
	}
	must(t, "Close", scope.Close(ctx))
	if reg.Len() != 0 || lib.Live() {
		t.Errorf("registry Len = %d, library live = %v", reg.Len(), lib.Live())
	}
	if s := gw.Stats(); s.LiveBlocks != 0 {
		t.Errorf("LiveBlocks = %d after scope Close", s.LiveBlocks)
	}
	if scope.Len() != 0 {
		t.Error("scope not emptied")
	}
	must(t, "second Close", scope.Close(ctx))
}

func TestScope_ToleratesReleased(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	scope := NewScope()
	scope.Add(h.lib)
	f, err := h.lib.NewFace(ctx, goregular.TTF, 0)
	must(t, "NewFace", err)
	scope.Add(f)

	must(t, "face Release", f.Release(ctx))
	must(t, "scope Close", scope.Close(ctx))
	wantKind(t, "Release after scope", h.lib.Release(ctx), errors.KindAlreadyReleased)
}

func TestScope_Detach(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	scope := NewScope()
	scope.Add(h.lib)

	if !scope.Detach(h.lib) {
		t.Fatal("Detach did not find the library")
	}
	if scope.Detach(h.lib) {
		t.Error("second Detach found the library")
	}
	must(t, "Close", scope.Close(ctx))
	if !h.lib.Live() {
		t.Fatal("detached library was closed")
	}
	must(t, "Release", h.lib.Release(ctx))
}

type failingCloser struct {
	err    error
	closed *[]string
	name   string
}

func (c failingCloser) Close(context.Context) error {
	*c.closed = append(*c.closed, c.name)
	return c.err
}

func TestScope_CollectsErrors(t *testing.T) {
	var closed []string
	first := errors.InvalidArgument(errors.PhaseLifecycle, "close", "first")
	third := errors.InvalidArgument(errors.PhaseLifecycle, "close", "third")

	scope := NewScope()
	scope.Add(failingCloser{first, &closed, "first"})
	scope.Add(failingCloser{nil, &closed, "second"})
	scope.Add(failingCloser{third, &closed, "third"})

	err := scope.Close(context.Background())
	if got := multierr.Errors(err); len(got) != 2 || got[0] != third || got[1] != first {
		t.Errorf("errors = %v", got)
	}
	if len(closed) != 3 || closed[0] != "third" || closed[2] != "first" {
		t.Errorf("close order = %v", closed)
	}
}
