package ft

import (
	"context"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/wippyai/ftbind/errors"
	"github.com/wippyai/ftbind/native/soft"
	"github.com/wippyai/ftbind/registry"
)

// harness is one soft gateway with a private registry.
type harness struct {
	gw  *soft.Gateway
	reg *registry.Registry
	lib *Library
}

func newHarness(t *testing.T, regOpts ...registry.Option) *harness {
	t.Helper()
	ctx := context.Background()
	gw := soft.New(nil)
	reg := registry.New(regOpts...)
	t.Cleanup(func() { gw.Close(ctx) })

	lib, err := Open(ctx, gw, WithRegistry(reg))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return &harness{gw: gw, reg: reg, lib: lib}
}

func (h *harness) face(t *testing.T, ppem uint32) *Face {
	t.Helper()
	ctx := context.Background()
	f, err := h.lib.NewFace(ctx, goregular.TTF, 0)
	if err != nil {
		t.Fatalf("NewFace: %v", err)
	}
	if ppem > 0 {
		if err := f.SetPixelSizes(ctx, 0, ppem); err != nil {
			t.Fatalf("SetPixelSizes: %v", err)
		}
	}
	return f
}

func (h *harness) glyph(t *testing.T, f *Face, r rune, flags LoadFlags) *Glyph {
	t.Helper()
	g, err := f.LoadChar(context.Background(), r, flags)
	if err != nil {
		t.Fatalf("LoadChar(%q): %v", r, err)
	}
	return g
}

func wantKind(t *testing.T, what string, err error, want errors.Kind) {
	t.Helper()
	if got := errors.KindOf(err); got != want {
		t.Errorf("%s: err = %v, want kind %q", what, err, want)
	}
}

func must(t *testing.T, what string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", what, err)
	}
}
