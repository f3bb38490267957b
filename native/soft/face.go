package soft

import (
	"context"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/wippyai/ftbind"
	"github.com/wippyai/ftbind/native"
)

// maxPPEM is the largest ppem FreeType accepts, in 26.6.
const maxPPEM = fixed.Int26_6(0xFFFF << 6)

type face struct {
	font     *sfnt.Font
	charmaps []native.CharMapRec
	buf      sfnt.Buffer
	rec      native.FaceRec
	selected int
	xppem    fixed.Int26_6
	yppem    fixed.Int26_6
	sized    bool
}

func (f *face) free(h *Heap) {
	if f.rec.FamilyName != 0 {
		h.Free(f.rec.FamilyName)
	}
	if f.rec.StyleName != 0 {
		h.Free(f.rec.StyleName)
	}
}

// unitsPPEM is the ppem at which sfnt reports raw font units.
func (f *face) unitsPPEM() fixed.Int26_6 {
	return fixed.Int26_6(f.font.UnitsPerEm())
}

func (g *Gateway) NewMemoryFace(_ context.Context, lib, data ftbind.Ptr, size uint32, index int64) (ftbind.Ptr, native.Status) {
	var p ftbind.Ptr
	st := g.call("new_memory_face", func() native.Status {
		if _, ok := lookup[*library](g, lib); !ok {
			return stInvalidLibraryHandle
		}
		if data == 0 {
			return stInvalidArgument
		}
		if size == 0 {
			return stUnknownFileFormat
		}
		src, ok := g.heap.Read(data, size)
		if !ok {
			return stInvalidArgument
		}

		coll, err := sfnt.ParseCollection(src)
		if err != nil {
			return stUnknownFileFormat
		}
		if index < 0 || index >= int64(coll.NumFonts()) {
			return stInvalidArgument
		}
		fnt, err := coll.Font(int(index))
		if err != nil {
			return stInvalidFileFormat
		}

		f := &face{font: fnt, selected: -1}
		if st := f.init(g.heap, src, coll.NumFonts(), int(index)); st != stOK {
			f.free(g.heap)
			return st
		}
		var st native.Status
		p, st = g.newObject(lib, f)
		return st
	})
	return p, st
}

func (f *face) init(h *Heap, src []byte, numFaces, index int) native.Status {
	unit := f.unitsPPEM()
	bounds, err := f.font.Bounds(&f.buf, unit, font.HintingNone)
	if err != nil {
		return stInvalidTable
	}
	m, err := f.font.Metrics(&f.buf, unit, font.HintingNone)
	if err != nil {
		return stInvalidTable
	}

	f.rec = native.FaceRec{
		NumFaces:   int64(numFaces),
		FaceIndex:  int64(index),
		FaceFlags:  native.FaceFlagScalable | native.FaceFlagSFNT | native.FaceFlagHorizontal,
		NumGlyphs:  int64(f.font.NumGlyphs()),
		UnitsPerEM: uint16(f.font.UnitsPerEm()),
		BBox: native.BBox{
			XMin: int64(bounds.Min.X),
			YMin: int64(-bounds.Max.Y),
			XMax: int64(bounds.Max.X),
			YMax: int64(-bounds.Min.Y),
		},
		Ascender:  int16(m.Ascent),
		Descender: int16(-m.Descent),
		Height:    int16(m.Height),
	}
	f.rec.MaxAdvanceWidth = int16(f.maxAdvance(unit))
	f.rec.MaxAdvanceHeight = f.rec.Height

	if post := f.font.PostTable(); post != nil {
		f.rec.UnderlinePosition = post.UnderlinePosition
		f.rec.UnderlineThickness = post.UnderlineThickness
		if post.IsFixedPitch {
			f.rec.FaceFlags |= native.FaceFlagFixedWidth
		}
		if post.ItalicAngle != 0 {
			f.rec.StyleFlags |= native.StyleFlagItalic
		}
	}

	family, _ := f.font.Name(&f.buf, sfnt.NameIDFamily)
	style, _ := f.font.Name(&f.buf, sfnt.NameIDSubfamily)
	if style == "" {
		style = "Regular"
	}
	lower := strings.ToLower(style)
	if strings.Contains(lower, "bold") {
		f.rec.StyleFlags |= native.StyleFlagBold
	}
	if strings.Contains(lower, "italic") || strings.Contains(lower, "oblique") {
		f.rec.StyleFlags |= native.StyleFlagItalic
	}

	var ok bool
	if family != "" {
		if f.rec.FamilyName, ok = h.allocCString(family); !ok {
			return stOutOfMemory
		}
	}
	if f.rec.StyleName, ok = h.allocCString(style); !ok {
		return stOutOfMemory
	}

	f.charmaps = readCharMaps(src, index)
	f.rec.NumCharMaps = int32(len(f.charmaps))
	f.selected = defaultCharMap(f.charmaps)
	return stOK
}

func (f *face) maxAdvance(ppem fixed.Int26_6) fixed.Int26_6 {
	var widest fixed.Int26_6
	for i := 0; i < f.font.NumGlyphs(); i++ {
		adv, err := f.font.GlyphAdvance(&f.buf, sfnt.GlyphIndex(i), ppem, font.HintingNone)
		if err == nil && adv > widest {
			widest = adv
		}
	}
	return widest
}

func (g *Gateway) DoneFace(_ context.Context, p ftbind.Ptr) native.Status {
	return g.call("done_face", func() native.Status {
		if _, ok := lookup[*face](g, p); !ok {
			return stInvalidFaceHandle
		}
		g.dropObject(p)
		return stOK
	})
}

func (g *Gateway) FaceInfo(_ context.Context, p ftbind.Ptr) (native.FaceRec, native.Status) {
	var rec native.FaceRec
	st := g.call("face_info", func() native.Status {
		f, ok := lookup[*face](g, p)
		if !ok {
			return stInvalidFaceHandle
		}
		rec = f.rec
		return stOK
	})
	return rec, st
}

func (g *Gateway) CharMap(_ context.Context, p ftbind.Ptr, i int32) (native.CharMapRec, native.Status) {
	var rec native.CharMapRec
	st := g.call("charmap", func() native.Status {
		f, ok := lookup[*face](g, p)
		if !ok {
			return stInvalidFaceHandle
		}
		if i < 0 || int(i) >= len(f.charmaps) {
			return stInvalidArgument
		}
		rec = f.charmaps[i]
		return stOK
	})
	return rec, st
}

func (g *Gateway) SelectCharMap(_ context.Context, p ftbind.Ptr, enc native.Encoding) native.Status {
	return g.call("select_charmap", func() native.Status {
		f, ok := lookup[*face](g, p)
		if !ok {
			return stInvalidFaceHandle
		}
		if enc == native.EncodingNone {
			return stInvalidArgument
		}
		for i, cm := range f.charmaps {
			if cm.Encoding == enc {
				f.selected = i
				return stOK
			}
		}
		return stInvalidArgument
	})
}

// SetCharSize follows FT_Set_Char_Size: a zero dimension copies the other,
// zero resolutions default to 72 dpi, and sizes below 1pt are raised to 1pt.
func (g *Gateway) SetCharSize(_ context.Context, p ftbind.Ptr, width, height int64, hres, vres uint32) native.Status {
	return g.call("set_char_size", func() native.Status {
		f, ok := lookup[*face](g, p)
		if !ok {
			return stInvalidFaceHandle
		}
		if width < 0 || height < 0 {
			return stInvalidArgument
		}
		if width == 0 {
			width = height
		} else if height == 0 {
			height = width
		}
		width = max(width, 64)
		height = max(height, 64)
		if hres == 0 {
			hres = vres
		} else if vres == 0 {
			vres = hres
		}
		if hres == 0 {
			hres, vres = 72, 72
		}

		x := width * int64(hres) / 72
		y := height * int64(vres) / 72
		if x > int64(maxPPEM) || y > int64(maxPPEM) {
			return stInvalidPixelSize
		}
		f.setPPEM(fixed.Int26_6(x), fixed.Int26_6(y))
		return stOK
	})
}

func (g *Gateway) SetPixelSizes(_ context.Context, p ftbind.Ptr, width, height uint32) native.Status {
	return g.call("set_pixel_sizes", func() native.Status {
		f, ok := lookup[*face](g, p)
		if !ok {
			return stInvalidFaceHandle
		}
		if width == 0 {
			width = height
		} else if height == 0 {
			height = width
		}
		width = max(width, 1)
		height = max(height, 1)
		if width > 0xFFFF || height > 0xFFFF {
			return stInvalidPixelSize
		}
		f.setPPEM(fixed.I(int(width)), fixed.I(int(height)))
		return stOK
	})
}

func (f *face) setPPEM(x, y fixed.Int26_6) {
	f.xppem = x
	f.yppem = y
	f.sized = true
}

func (g *Gateway) CharIndex(_ context.Context, p ftbind.Ptr, code uint32) (uint32, native.Status) {
	var idx uint32
	st := g.call("char_index", func() native.Status {
		f, ok := lookup[*face](g, p)
		if !ok {
			return stInvalidFaceHandle
		}
		if f.selected < 0 {
			return stOK
		}
		r, ok := toUnicode(f.charmaps[f.selected].Encoding, code)
		if !ok {
			return stOK
		}
		gi, err := f.font.GlyphIndex(&f.buf, r)
		if err != nil {
			return stInvalidTable
		}
		if gi == 0 && f.charmaps[f.selected].Encoding == native.EncodingMSSymbol && code <= 0xFF {
			gi, _ = f.font.GlyphIndex(&f.buf, rune(code))
		}
		idx = uint32(gi)
		return stOK
	})
	return idx, st
}
