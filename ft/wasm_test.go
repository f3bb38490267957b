package ft

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tetratelabs/wazero"

	"github.com/wippyai/ftbind/errors"
	"github.com/wippyai/ftbind/internal/ftfixture"
	"github.com/wippyai/ftbind/native"
	"github.com/wippyai/ftbind/native/wasmft"
	"github.com/wippyai/ftbind/registry"
)

func openWasm(t *testing.T, opts ...ftfixture.Option) (*Library, *ftfixture.Fixture, *registry.Registry) {
	t.Helper()
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { r.Close(ctx) })

	fx := ftfixture.New(opts...)
	bin, err := fx.Install(ctx, r)
	if err != nil {
		t.Fatal(err)
	}
	gw, err := wasmft.Load(ctx, bin, &wasmft.Config{Runtime: r})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(func() { gw.Close(ctx) })

	reg := registry.New()
	lib, err := Open(ctx, gw, WithRegistry(reg))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return lib, fx, reg
}

func TestWasm_Lifecycle(t *testing.T) {
	ctx := context.Background()
	lib, fx, reg := openWasm(t)
	baseline := fx.LiveBlocks()

	v, err := lib.Version(ctx)
	must(t, "Version", err)
	if v.String() != "2.13.3" {
		t.Errorf("Version = %s", v)
	}

	f, err := lib.NewFace(ctx, ftfixture.Font(), 0)
	must(t, "NewFace", err)
	info, err := f.Info(ctx)
	must(t, "Info", err)
	want := FaceInfo{
		FamilyName:         ftfixture.FamilyName,
		StyleName:          ftfixture.StyleName,
		NumFaces:           1,
		FaceFlags:          native.FaceFlagScalable | native.FaceFlagSFNT | native.FaceFlagHorizontal,
		NumGlyphs:          ftfixture.NumGlyphs,
		NumCharMaps:        1,
		BBox:               BBox{XMin: -50, YMin: -200, XMax: 950, YMax: 800},
		UnitsPerEM:         ftfixture.UnitsPerEM,
		Ascender:           800,
		Descender:          -200,
		Height:             1200,
		MaxAdvanceWidth:    1000,
		MaxAdvanceHeight:   1200,
		UnderlinePosition:  -100,
		UnderlineThickness: 50,
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("Info mismatch (-want +got):\n%s", diff)
	}
	maps, err := f.CharMaps(ctx)
	must(t, "CharMaps", err)
	if diff := cmp.Diff([]CharMap{{Encoding: EncodingUnicode, PlatformID: 3, EncodingID: 1}}, maps); diff != "" {
		t.Errorf("CharMaps mismatch (-want +got):\n%s", diff)
	}

	must(t, "SetPixelSizes", f.SetPixelSizes(ctx, 0, 16))
	g, err := f.LoadChar(ctx, 'A', LoadRender)
	must(t, "LoadChar", err)
	bm, err := g.Bitmap(ctx)
	must(t, "Bitmap", err)
	pix, err := bm.Buffer.Bytes()
	must(t, "Bytes", err)
	if len(pix) == 0 || uint32(len(pix)) != uint32(bm.Pitch)*bm.Rows {
		t.Errorf("bitmap %+v with %d bytes", bm, len(pix))
	}
	img, err := g.Image(ctx)
	must(t, "Image", err)
	if img.Bounds().Dx() != int(bm.Width) || img.Bounds().Dy() != int(bm.Rows) {
		t.Errorf("image bounds %v for %dx%d bitmap", img.Bounds(), bm.Width, bm.Rows)
	}

	wantKind(t, "library Release with face", lib.Release(ctx), errors.KindResourceInUse)
	must(t, "glyph Release", g.Release(ctx))
	_, err = bm.Buffer.Bytes()
	wantKind(t, "Bytes after Release", err, errors.KindAlreadyReleased)
	must(t, "face Release", f.Release(ctx))

	if reg.Len() != 1 {
		t.Errorf("registry Len = %d", reg.Len())
	}
	if fx.LiveBlocks() != baseline {
		t.Errorf("live blocks = %d, want %d", fx.LiveBlocks(), baseline)
	}
	must(t, "library Release", lib.Release(ctx))
}

func TestWasm_Statuses(t *testing.T) {
	ctx := context.Background()
	lib, fx, reg := openWasm(t)
	baseline := fx.LiveBlocks()

	_, err := lib.NewFace(ctx, []byte("nope, not a font"), 0)
	wantKind(t, "malformed", err, errors.KindUnsupportedFormat)
	if reg.Len() != 1 || fx.LiveBlocks() != baseline {
		t.Errorf("failed open left Len = %d blocks = %d", reg.Len(), fx.LiveBlocks())
	}

	f, err := lib.NewFace(ctx, ftfixture.Font(), 0)
	must(t, "NewFace", err)
	_, err = f.LoadGlyph(ctx, 1, LoadDefault)
	if got, want := errors.KindOf(err), errors.Translate(errors.CodeInvalidSizeHandle).Kind; got != want {
		t.Errorf("LoadGlyph before sizing kind = %q, want %q", got, want)
	}
	must(t, "SetPixelSizes", f.SetPixelSizes(ctx, 0, 10))
	_, err = f.LoadGlyph(ctx, ftfixture.NumGlyphs, LoadDefault)
	wantKind(t, "glyph index out of range", err, errors.KindInvalidArgument)

	g, err := f.LoadGlyph(ctx, 40, LoadDefault)
	must(t, "LoadGlyph", err)
	wantKind(t, "Render(LCD)", g.Render(ctx, RenderLCD), errors.KindNativeFailure)
	_, err = g.Bitmap(ctx)
	wantKind(t, "Bitmap before Render", err, errors.KindUnsupportedFormat)
}

func TestWasm_Stroke(t *testing.T) {
	ctx := context.Background()
	lib, _, _ := openWasm(t)

	f, err := lib.NewFace(ctx, ftfixture.Font(), 0)
	must(t, "NewFace", err)
	must(t, "SetPixelSizes", f.SetPixelSizes(ctx, 0, 20))
	s, err := lib.NewStroker(ctx)
	must(t, "NewStroker", err)
	must(t, "Set", s.Set(ctx, 2<<6, LineCapRound, LineJoinRound, 4))

	g, err := f.LoadChar(ctx, 'O', LoadDefault)
	must(t, "LoadChar", err)
	must(t, "Stroke", g.Stroke(ctx, s))
	must(t, "Render", g.Render(ctx, RenderNormal))
	bm, err := g.Bitmap(ctx)
	must(t, "Bitmap", err)
	if bm.Width != 14 || bm.Rows != 24 {
		t.Errorf("stroked bitmap %dx%d, want 14x24", bm.Width, bm.Rows)
	}
}

func TestWasm_MissingEntry(t *testing.T) {
	ctx := context.Background()
	lib, _, reg := openWasm(t, ftfixture.Without("ftb_stroker_new"))

	_, err := lib.NewStroker(ctx)
	e, ok := errors.As(err)
	if !ok || e.Kind != errors.KindNativeFailure || e.Code != errors.CodeMissingEntry {
		t.Fatalf("NewStroker err = %v, want missing entry", err)
	}
	if reg.Len() != 1 {
		t.Errorf("registry Len = %d", reg.Len())
	}
}

func TestWasm_Trap(t *testing.T) {
	ctx := context.Background()
	lib, fx, _ := openWasm(t, ftfixture.Trapping("ftb_face_info"))
	baseline := fx.LiveBlocks()

	f, err := lib.NewFace(ctx, ftfixture.Font(), 0)
	must(t, "NewFace", err)
	_, err = f.Info(ctx)
	e, ok := errors.As(err)
	if !ok || e.Kind != errors.KindNativeFailure || e.Code != errors.CodeTrap {
		t.Fatalf("Info err = %v, want trap", err)
	}

	must(t, "face Release", f.Release(ctx))
	if fx.LiveBlocks() != baseline {
		t.Errorf("live blocks = %d, want %d", fx.LiveBlocks(), baseline)
	}
}

func TestWasm_ErrorString(t *testing.T) {
	ctx := context.Background()
	lib, _, _ := openWasm(t)

	if e := errors.Translate(unlistedCode); e.Kind != errors.KindNativeFailure || e.Detail != "" {
		t.Fatalf("Translate(%#x) = %v, want bare native_failure", unlistedCode, e)
	}
	msg, err := lib.ErrorString(ctx, unlistedCode)
	if err != nil || msg != "fixture error 0xf0" {
		t.Errorf("ErrorString(%#x) = %q, %v", unlistedCode, msg, err)
	}
	want, _ := errors.Message(errors.CodeInvalidGlyphIndex)
	msg, _ = lib.ErrorString(ctx, errors.CodeInvalidGlyphIndex)
	if msg != want {
		t.Errorf("ErrorString(0x10) = %q, want %q", msg, want)
	}
}

func TestWasm_ConcurrentStreamsWhileMemoryGrows(t *testing.T) {
	ctx := context.Background()
	lib, fx, reg := openWasm(t, ftfixture.Growing())
	other, err := Open(ctx, lib.Gateway(), WithRegistry(reg))
	must(t, "Open", err)
	defer other.Close(ctx)
	baseline := fx.LiveBlocks()

	data := bytes.Repeat([]byte("ftbind"), 512)
	var wg sync.WaitGroup
	for _, l := range []*Library{lib, other} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				s, err := l.NewStream(ctx, data)
				if err != nil {
					t.Errorf("NewStream: %v", err)
					return
				}
				buf, err := s.View(0, s.Size())
				if err != nil {
					t.Errorf("View: %v", err)
				} else if got, err := buf.Bytes(); err != nil || !bytes.Equal(got, data) {
					t.Errorf("Bytes = %d bytes, %v", len(got), err)
				}
				if err := s.Release(ctx); err != nil {
					t.Errorf("Release: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if fx.LiveBlocks() != baseline {
		t.Errorf("live blocks = %d, want %d", fx.LiveBlocks(), baseline)
	}
}
