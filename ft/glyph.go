package ft

import (
	"context"
	"image"

	"github.com/wippyai/ftbind"
	"github.com/wippyai/ftbind/bridge"
	"github.com/wippyai/ftbind/errors"
	"github.com/wippyai/ftbind/native"
	"github.com/wippyai/ftbind/registry"
)

// Glyph is a glyph image copied out of its face. It starts as an outline
// (or an embedded bitmap) and becomes a bitmap once rendered.
type Glyph struct {
	resource
	face  *Face
	index uint32
}

// Index returns the glyph index the glyph was loaded from.
func (g *Glyph) Index() uint32 { return g.index }

// Face returns the face the glyph was loaded from.
func (g *Glyph) Face() *Face { return g.face }

// Metrics returns the metrics recorded when the glyph was loaded.
func (g *Glyph) Metrics(ctx context.Context) (GlyphMetrics, error) {
	const op = "glyph_metrics"
	unlock, err := enter(op, &g.resource)
	if err != nil {
		return GlyphMetrics{}, err
	}
	defer unlock()

	rec, st := g.env.gw.GlyphMetrics(ctx, g.ptr())
	if !st.OK() {
		return GlyphMetrics{}, g.env.status(ctx, op, g.Handle(), st)
	}
	return metricsFrom(rec), nil
}

// Render converts the glyph to a bitmap. Rendering a bitmap glyph again is
// a no-op.
func (g *Glyph) Render(ctx context.Context, mode RenderMode) error {
	return g.do(ctx, "render_glyph", func() native.Status {
		return g.env.gw.RenderGlyph(ctx, g.ptr(), mode)
	})
}

// Stroke replaces the glyph outline with its border as configured on s.
// s must come from the same library as the glyph.
func (g *Glyph) Stroke(ctx context.Context, s *Stroker) error {
	const op = "glyph_stroke"
	if s == nil {
		return errors.InvalidArgument(errors.PhaseLifecycle, op, "nil stroker")
	}
	if s.env.lib != g.env.lib || s.env.gw != g.env.gw {
		return errors.InvalidArgument(errors.PhaseLifecycle, op, "stroker belongs to another library")
	}
	unlock, err := enter(op, &g.resource, &s.resource)
	if err != nil {
		return err
	}
	defer unlock()

	if st := g.env.gw.StrokeGlyph(ctx, g.ptr(), s.ptr()); !st.OK() {
		return g.env.status(ctx, op, g.Handle(), st)
	}
	return nil
}

// Bitmap describes a rendered glyph. Buffer borrows the pixels from the
// glyph and fails with already_released once the glyph is released.
type Bitmap struct {
	Buffer    *bridge.Buffer
	Rows      uint32
	Width     uint32
	Pitch     int32
	Left      int32
	Top       int32
	PixelMode PixelMode
}

// Bitmap returns the glyph's bitmap. The glyph must be rendered.
func (g *Glyph) Bitmap(ctx context.Context) (Bitmap, error) {
	const op = "glyph_bitmap"
	unlock, err := enter(op, &g.resource)
	if err != nil {
		return Bitmap{}, err
	}
	defer unlock()

	rec, st := g.env.gw.GlyphBitmap(ctx, g.ptr())
	if !st.OK() {
		return Bitmap{}, g.env.status(ctx, op, g.Handle(), st)
	}
	size, err := checkBitmap(op, g.Handle(), rec)
	if err != nil {
		return Bitmap{}, err
	}
	buf, err := bridge.View(pixels{g, rec.Buffer, size}, 0, size)
	if err != nil {
		return Bitmap{}, err
	}
	return Bitmap{
		Buffer:    buf,
		Rows:      rec.Rows,
		Width:     rec.Width,
		Pitch:     rec.Pitch,
		Left:      rec.Left,
		Top:       rec.Top,
		PixelMode: rec.PixelMode,
	}, nil
}

// Image copies the rendered bitmap into an image.Alpha placed relative to
// the glyph origin, y growing downwards. Mono bitmaps expand to 0 and 0xff.
func (g *Glyph) Image(ctx context.Context) (*image.Alpha, error) {
	const op = "glyph_image"
	unlock, err := enter(op, &g.resource)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, st := g.env.gw.GlyphBitmap(ctx, g.ptr())
	if !st.OK() {
		return nil, g.env.status(ctx, op, g.Handle(), st)
	}
	size, err := checkBitmap(op, g.Handle(), rec)
	if err != nil {
		return nil, err
	}
	if rec.Width > maxBitmapSide || rec.Rows > maxBitmapSide {
		return nil, badBitmap(op, g.Handle(), "bitmap of %dx%d pixels is too large", rec.Width, rec.Rows)
	}
	img := image.NewAlpha(image.Rect(
		int(rec.Left), -int(rec.Top),
		int(rec.Left)+int(rec.Width), -int(rec.Top)+int(rec.Rows)))
	if rec.Rows == 0 || rec.Width == 0 {
		return img, nil
	}

	switch rec.PixelMode {
	case native.PixelModeGray, native.PixelModeMono:
	default:
		return nil, badBitmap(op, g.Handle(), "pixel mode %d", rec.PixelMode)
	}

	raw, ok := g.Memory().Read(rec.Buffer, size)
	if !ok || uint32(len(raw)) != size {
		return nil, errors.New(errors.PhaseBuffer, errors.KindNativeFailure).
			Op(op).
			Handle(uint64(g.Handle())).
			Detail("bitmap at %#x out of bounds", rec.Buffer).
			Build()
	}

	stride := int(rec.Stride())
	for y := 0; y < int(rec.Rows); y++ {
		src := y
		if rec.Pitch < 0 {
			src = int(rec.Rows) - 1 - y
		}
		row := raw[src*stride : (src+1)*stride]
		dst := img.Pix[y*img.Stride : y*img.Stride+int(rec.Width)]
		if rec.PixelMode == native.PixelModeGray {
			copy(dst, row)
			continue
		}
		for x := range dst {
			if row[x>>3]&(0x80>>(x&7)) != 0 {
				dst[x] = 0xff
			}
		}
	}
	return img, nil
}

// maxBitmapSide bounds the images Image allocates.
const maxBitmapSide = 1 << 14

// checkBitmap rejects bitmap records whose buffer cannot hold the pixels
// they describe, and returns the buffer size. Pitch is only checked for
// gray and mono, the layouts this package reads.
func checkBitmap(op string, h registry.Handle, rec native.BitmapRec) (uint32, error) {
	size, ok := rec.Size()
	if !ok {
		return 0, badBitmap(op, h, "%d rows of pitch %d overflow the buffer size", rec.Rows, rec.Pitch)
	}
	if rec.Rows == 0 || rec.Width == 0 {
		return size, nil
	}

	var need uint64
	switch rec.PixelMode {
	case native.PixelModeGray:
		need = uint64(rec.Width)
	case native.PixelModeMono:
		need = (uint64(rec.Width) + 7) / 8
	}
	if uint64(rec.Stride()) < need {
		return 0, badBitmap(op, h, "pitch %d is too small for %d pixels in mode %d", rec.Pitch, rec.Width, rec.PixelMode)
	}
	if rec.Buffer == 0 && size > 0 {
		return 0, badBitmap(op, h, "%dx%d bitmap has no buffer", rec.Width, rec.Rows)
	}
	return size, nil
}

func badBitmap(op string, h registry.Handle, format string, args ...any) error {
	return errors.New(errors.PhaseBuffer, errors.KindUnsupportedFormat).
		Op(op).
		Handle(uint64(h)).
		Detail(format, args...).
		Build()
}

// Release frees the glyph and invalidates every Bitmap buffer borrowed
// from it.
func (g *Glyph) Release(ctx context.Context) error { return g.release(ctx) }

// Close releases the glyph unless it is already released.
func (g *Glyph) Close(ctx context.Context) error { return g.close(ctx) }

// pixels lends a glyph's bitmap buffer to the bridge.
type pixels struct {
	*Glyph
	base ftbind.Ptr
	size uint32
}

func (p pixels) Region() (ftbind.Ptr, uint32) { return p.base, p.size }
