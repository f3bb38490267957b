package ft

import (
	"context"
	"testing"

	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/wippyai/ftbind/errors"
)

func TestFace_Info(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	f := h.face(t, 0)

	ref, err := sfnt.Parse(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	family, _ := ref.Name(nil, sfnt.NameIDFamily)

	info, err := f.Info(ctx)
	must(t, "Info", err)

	if info.FamilyName != family {
		t.Errorf("FamilyName = %q, want %q", info.FamilyName, family)
	}
	if info.StyleName == "" {
		t.Error("empty StyleName")
	}
	if info.NumFaces != 1 || info.FaceIndex != 0 {
		t.Errorf("NumFaces = %d FaceIndex = %d", info.NumFaces, info.FaceIndex)
	}
	if info.NumGlyphs != int64(ref.NumGlyphs()) {
		t.Errorf("NumGlyphs = %d, want %d", info.NumGlyphs, ref.NumGlyphs())
	}
	if info.UnitsPerEM != uint16(ref.UnitsPerEm()) {
		t.Errorf("UnitsPerEM = %d", info.UnitsPerEM)
	}
	if info.NumCharMaps < 1 || info.NumFixedSizes != 0 {
		t.Errorf("NumCharMaps = %d NumFixedSizes = %d", info.NumCharMaps, info.NumFixedSizes)
	}
	if !info.Scalable() || info.FixedWidth() {
		t.Errorf("Scalable = %v FixedWidth = %v", info.Scalable(), info.FixedWidth())
	}
	if info.Ascender <= 0 || info.Descender >= 0 {
		t.Errorf("Ascender = %d Descender = %d", info.Ascender, info.Descender)
	}

	mono, err := h.lib.NewFace(ctx, gomono.TTF, 0)
	must(t, "NewFace mono", err)
	mi, err := mono.Info(ctx)
	must(t, "Info mono", err)
	if !mi.FixedWidth() {
		t.Error("Go Mono not fixed width")
	}
}

func TestFace_CharMaps(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	f := h.face(t, 0)

	maps, err := f.CharMaps(ctx)
	must(t, "CharMaps", err)
	info, _ := f.Info(ctx)
	if len(maps) != info.NumCharMaps {
		t.Fatalf("len(CharMaps) = %d, want %d", len(maps), info.NumCharMaps)
	}
	var unicode bool
	for _, cm := range maps {
		if cm.Encoding == EncodingUnicode {
			unicode = true
		}
	}
	if !unicode {
		t.Error("no Unicode charmap")
	}

	must(t, "SelectCharMap(unicode)", f.SelectCharMap(ctx, EncodingUnicode))
	if err := f.SelectCharMap(ctx, Encoding(0x1234)); err == nil {
		t.Error("SelectCharMap of a missing encoding succeeded")
	}
}

func TestFace_Sizing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	f := h.face(t, 0)

	_, err := f.LoadChar(ctx, 'A', LoadDefault)
	if got, want := errors.KindOf(err), errors.Translate(errors.CodeInvalidSizeHandle).Kind; got != want {
		t.Errorf("LoadChar before sizing kind = %q, want %q", got, want)
	}

	wantKind(t, "negative size", f.SetCharSize(ctx, -1, 0, 72, 72), errors.KindInvalidArgument)
	must(t, "SetCharSize", f.SetCharSize(ctx, fixed.I(12), 0, 96, 96))

	g, err := f.LoadChar(ctx, 'A', LoadDefault)
	must(t, "LoadChar", err)
	m, err := g.Metrics(ctx)
	must(t, "Metrics", err)
	if m.HoriAdvance <= 0 || m.Height <= 0 {
		t.Errorf("metrics = %+v", m)
	}

	// Unscaled metrics are in font units.
	u, err := f.LoadChar(ctx, 'A', LoadNoScale)
	must(t, "LoadChar(NoScale)", err)
	um, _ := u.Metrics(ctx)
	if um.HoriAdvance <= m.HoriAdvance {
		t.Errorf("unscaled advance %d not larger than 16px advance %d", um.HoriAdvance, m.HoriAdvance)
	}
}

func TestFace_CharIndex(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	f := h.face(t, 24)

	ref, _ := sfnt.Parse(goregular.TTF)
	tests := []rune{'a', 'Z', '0', ' ', 'é', 0x10ffff}
	for _, r := range tests {
		want, _ := ref.GlyphIndex(nil, r)
		got, err := f.CharIndex(ctx, r)
		if err != nil || got != uint32(want) {
			t.Errorf("CharIndex(%U) = %d, %v, want %d", r, got, err, want)
		}
	}
	_, err := f.CharIndex(ctx, -1)
	wantKind(t, "negative rune", err, errors.KindInvalidArgument)

	g := h.glyph(t, f, 'g', LoadDefault)
	idx, _ := f.CharIndex(ctx, 'g')
	if g.Index() != idx || g.Face() != f {
		t.Errorf("glyph index = %d, want %d", g.Index(), idx)
	}

	_, err = f.LoadGlyph(ctx, uint32(ref.NumGlyphs()), LoadDefault)
	wantKind(t, "glyph index out of range", err, errors.KindInvalidArgument)
}

func TestFace_ReleaseWithLiveGlyph(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	f := h.face(t, 16)
	g := h.glyph(t, f, 'x', LoadDefault)

	wantKind(t, "face Release", f.Release(ctx), errors.KindResourceInUse)
	if !f.Live() {
		t.Fatal("face released with a live glyph")
	}
	must(t, "glyph Release", g.Release(ctx))
	must(t, "face Release", f.Release(ctx))
	must(t, "library Release", h.lib.Release(ctx))
}

func TestFace_MethodsAfterRelease(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	f := h.face(t, 16)
	must(t, "Release", f.Release(ctx))

	calls := map[string]func() error{
		"Info":          func() error { _, err := f.Info(ctx); return err },
		"CharMaps":      func() error { _, err := f.CharMaps(ctx); return err },
		"SelectCharMap": func() error { return f.SelectCharMap(ctx, EncodingUnicode) },
		"SetCharSize":   func() error { return f.SetCharSize(ctx, fixed.I(10), 0, 0, 0) },
		"SetPixelSizes": func() error { return f.SetPixelSizes(ctx, 10, 10) },
		"CharIndex":     func() error { _, err := f.CharIndex(ctx, 'a'); return err },
		"LoadGlyph":     func() error { _, err := f.LoadGlyph(ctx, 1, LoadDefault); return err },
		"LoadChar":      func() error { _, err := f.LoadChar(ctx, 'a', LoadDefault); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			wantKind(t, name, call(), errors.KindInvalidHandle)
		})
	}

	wantKind(t, "second Release", f.Release(ctx), errors.KindAlreadyReleased)
	if err := f.Close(ctx); err != nil {
		t.Errorf("Close after Release = %v", err)
	}
}
