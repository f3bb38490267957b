package soft

import (
	"context"
	"errors"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/wippyai/ftbind"
	"github.com/wippyai/ftbind/native"
)

// maxBitmapPixels bounds the size of a rendered bitmap.
const maxBitmapPixels = 1 << 24

// glyph is an independent copy of a loaded glyph, like an FT_Glyph. It holds
// either an outline or, once rendered, a bitmap.
type glyph struct {
	outline  []sfnt.Segment
	metrics  native.GlyphMetricsRec
	bitmap   native.BitmapRec
	rendered bool
}

func (gl *glyph) free(h *Heap) {
	if gl.bitmap.Buffer != 0 {
		h.Free(gl.bitmap.Buffer)
		gl.bitmap.Buffer = 0
	}
}

// LoadGlyph scales the outline of glyph index to the face's current size.
// With LoadNoScale the outline and metrics are in font units.
func (g *Gateway) LoadGlyph(_ context.Context, p ftbind.Ptr, index uint32, flags native.LoadFlags) (ftbind.Ptr, native.Status) {
	var out ftbind.Ptr
	st := g.call("load_glyph", func() native.Status {
		f, ok := lookup[*face](g, p)
		if !ok {
			return stInvalidFaceHandle
		}
		if int64(index) >= int64(f.font.NumGlyphs()) {
			return stInvalidGlyphIndex
		}

		noScale := flags&native.LoadNoScale != 0
		if !noScale && !f.sized {
			return stInvalidSizeHandle
		}

		gl, st := f.load(sfnt.GlyphIndex(index), flags)
		if st != stOK {
			return st
		}

		if flags&native.LoadRender != 0 {
			mode := native.RenderNormal
			if flags&native.LoadMonochrome != 0 {
				mode = native.RenderMono
			}
			if st := gl.render(g.heap, mode); st != stOK {
				return st
			}
		}

		out, st = g.newObject(g.owner[p], gl)
		return st
	})
	return out, st
}

func (f *face) load(x sfnt.GlyphIndex, flags native.LoadFlags) (*glyph, native.Status) {
	noScale := flags&native.LoadNoScale != 0
	hinting := font.HintingFull
	if noScale || flags&native.LoadNoHinting != 0 {
		hinting = font.HintingNone
	}

	ppem := f.yppem
	if noScale {
		ppem = f.unitsPPEM()
	}

	segs, err := f.font.LoadGlyph(&f.buf, x, ppem, nil)
	switch {
	case errors.Is(err, sfnt.ErrNotFound):
		return nil, stInvalidGlyphIndex
	case errors.Is(err, sfnt.ErrColoredGlyph):
		return nil, stInvalidGlyphFormat
	case err != nil:
		return nil, stInvalidOutline
	}
	outline := make([]sfnt.Segment, len(segs))
	copy(outline, segs)

	adv, err := f.font.GlyphAdvance(&f.buf, x, ppem, hinting)
	if err != nil {
		return nil, stInvalidTable
	}
	m, err := f.font.Metrics(&f.buf, ppem, hinting)
	if err != nil {
		return nil, stInvalidTable
	}

	if !noScale && f.xppem != f.yppem {
		for i := range outline {
			for j := range outline[i].Args {
				outline[i].Args[j].X = scaleX(outline[i].Args[j].X, f.xppem, f.yppem)
			}
		}
		adv = scaleX(adv, f.xppem, f.yppem)
	}

	b := sfnt.Segments(outline).Bounds()
	if hinting == font.HintingFull {
		b.Min.X &^= 63
		b.Min.Y &^= 63
		b.Max.X = (b.Max.X + 63) &^ 63
		b.Max.Y = (b.Max.Y + 63) &^ 63
	}

	gm := native.GlyphMetricsRec{
		Width:        int64(b.Max.X - b.Min.X),
		Height:       int64(b.Max.Y - b.Min.Y),
		HoriBearingX: int64(b.Min.X),
		HoriBearingY: int64(-b.Min.Y),
		HoriAdvance:  int64(adv),
		VertAdvance:  int64(m.Height),
	}
	gm.VertBearingX = gm.HoriBearingX - gm.HoriAdvance/2
	gm.VertBearingY = (gm.VertAdvance - gm.Height) / 2

	return &glyph{outline: outline, metrics: gm}, stOK
}

func scaleX(v, xppem, yppem fixed.Int26_6) fixed.Int26_6 {
	return fixed.Int26_6(int64(v) * int64(xppem) / int64(yppem))
}

func (g *Gateway) GlyphMetrics(_ context.Context, p ftbind.Ptr) (native.GlyphMetricsRec, native.Status) {
	var m native.GlyphMetricsRec
	st := g.call("glyph_metrics", func() native.Status {
		gl, ok := lookup[*glyph](g, p)
		if !ok {
			return stInvalidArgument
		}
		m = gl.metrics
		return stOK
	})
	return m, st
}

// RenderGlyph converts the glyph to a bitmap in place. Rendering a glyph that
// is already a bitmap is a no-op, as with FT_Glyph_To_Bitmap.
func (g *Gateway) RenderGlyph(_ context.Context, p ftbind.Ptr, mode native.RenderMode) native.Status {
	return g.call("render_glyph", func() native.Status {
		gl, ok := lookup[*glyph](g, p)
		if !ok {
			return stInvalidArgument
		}
		return gl.render(g.heap, mode)
	})
}

func (gl *glyph) render(h *Heap, mode native.RenderMode) native.Status {
	if gl.rendered {
		return stOK
	}
	switch mode {
	case native.RenderNormal, native.RenderLight, native.RenderMono:
	default:
		return stCannotRenderGlyph
	}

	mask, left, top, st := rasterize(gl.outline)
	if st != stOK {
		return st
	}

	bm := native.BitmapRec{Left: int32(left), Top: int32(top), PixelMode: native.PixelModeGray}
	if mode == native.RenderMono {
		bm.PixelMode = native.PixelModeMono
	}
	var pix []byte
	if mask != nil {
		w, rows := mask.Rect.Dx(), mask.Rect.Dy()
		bm.Width, bm.Rows = uint32(w), uint32(rows)
		if mode == native.RenderMono {
			bm.Pitch = int32((w + 7) / 8)
			pix = packMono(mask, int(bm.Pitch))
		} else {
			bm.Pitch = int32(w)
			pix = mask.Pix
		}
	}

	var ok bool
	if bm.Buffer, ok = h.allocBytes(pix); !ok {
		return stOutOfMemory
	}
	gl.bitmap = bm
	gl.rendered = true
	gl.outline = nil
	return stOK
}

// rasterize fills outline with the nonzero rule. left and top place the
// bitmap relative to the glyph origin, with top measured upwards.
func rasterize(outline []sfnt.Segment) (mask *image.Alpha, left, top int, st native.Status) {
	if len(outline) == 0 {
		return nil, 0, 0, stOK
	}
	b := sfnt.Segments(outline).Bounds()
	minX, minY := b.Min.X.Floor(), b.Min.Y.Floor()
	w, h := b.Max.X.Ceil()-minX, b.Max.Y.Ceil()-minY
	if w <= 0 || h <= 0 {
		return nil, minX, -minY, stOK
	}
	if w*h > maxBitmapPixels {
		return nil, 0, 0, stArrayTooLarge
	}

	ox, oy := float32(minX), float32(minY)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return float32(p.X)/64 - ox, float32(p.Y)/64 - oy
	}

	z := vector.NewRasterizer(w, h)
	open := false
	for _, s := range outline {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(pt(s.Args[0]))
			open = true
		case sfnt.SegmentOpLineTo:
			z.LineTo(pt(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			z.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			dx, dy := pt(s.Args[2])
			z.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	if open {
		z.ClosePath()
	}

	mask = image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask, minX, -minY, stOK
}

// packMono thresholds mask into 1-bit rows, most significant bit first.
func packMono(mask *image.Alpha, pitch int) []byte {
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	out := make([]byte, pitch*h)
	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, a := range row {
			if a >= 0x80 {
				out[y*pitch+x/8] |= 0x80 >> (x % 8)
			}
		}
	}
	return out
}

func (g *Gateway) GlyphBitmap(_ context.Context, p ftbind.Ptr) (native.BitmapRec, native.Status) {
	var bm native.BitmapRec
	st := g.call("glyph_bitmap", func() native.Status {
		gl, ok := lookup[*glyph](g, p)
		if !ok {
			return stInvalidArgument
		}
		if !gl.rendered {
			return stInvalidGlyphFormat
		}
		bm = gl.bitmap
		return stOK
	})
	return bm, st
}

func (g *Gateway) DoneGlyph(_ context.Context, p ftbind.Ptr) native.Status {
	return g.call("done_glyph", func() native.Status {
		if _, ok := lookup[*glyph](g, p); !ok {
			return stInvalidArgument
		}
		g.dropObject(p)
		return stOK
	})
}
