//go:build freetype && cgo

package cft

/*
#cgo pkg-config: freetype2
#include <stdlib.h>
#include <string.h>
#include <ft2build.h>
#include FT_FREETYPE_H
#include FT_GLYPH_H
#include FT_STROKER_H

// ftb_glyph keeps a stable address for an FT_Glyph that FT_Glyph_To_Bitmap
// and FT_Glyph_Stroke replace in place, plus the slot metrics at load time.
typedef struct {
	FT_Glyph glyph;
	FT_Glyph_Metrics metrics;
} ftb_glyph;

static FT_Error ftb_load_glyph(FT_Face face, FT_UInt index, FT_Int32 flags, ftb_glyph **out) {
	FT_Error err = FT_Load_Glyph(face, index, flags);
	if (err) return err;
	ftb_glyph *g = calloc(1, sizeof(ftb_glyph));
	if (!g) return FT_Err_Out_Of_Memory;
	err = FT_Get_Glyph(face->glyph, &g->glyph);
	if (err) {
		free(g);
		return err;
	}
	g->metrics = face->glyph->metrics;
	*out = g;
	return 0;
}

static FT_Error ftb_render_glyph(ftb_glyph *g, FT_Render_Mode mode) {
	if (g->glyph->format == FT_GLYPH_FORMAT_BITMAP) return 0;
	return FT_Glyph_To_Bitmap(&g->glyph, mode, NULL, 1);
}

static FT_Error ftb_glyph_bitmap(ftb_glyph *g, FT_Bitmap *bm, FT_Int *left, FT_Int *top) {
	if (g->glyph->format != FT_GLYPH_FORMAT_BITMAP) return FT_Err_Invalid_Glyph_Format;
	FT_BitmapGlyph b = (FT_BitmapGlyph)g->glyph;
	*bm = b->bitmap;
	*left = b->left;
	*top = b->top;
	return 0;
}

static FT_Error ftb_stroke_glyph(ftb_glyph *g, FT_Stroker s) {
	if (g->glyph->format != FT_GLYPH_FORMAT_OUTLINE) return FT_Err_Invalid_Glyph_Format;
	return FT_Glyph_Stroke(&g->glyph, s, 1);
}

static void ftb_done_glyph(ftb_glyph *g) {
	FT_Done_Glyph(g->glyph);
	free(g);
}

static FT_CharMap ftb_charmap(FT_Face face, int i) {
	return face->charmaps[i];
}
*/
import "C"

import (
	"context"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/ftbind"
	"github.com/wippyai/ftbind/errors"
	"github.com/wippyai/ftbind/native"
)

var (
	stInvalidArgument = native.Status(errors.CodeInvalidArgument)
	stOutOfMemory     = native.Status(errors.CodeOutOfMemory)
)

// Gateway calls FreeType directly. Separate FT_Library instances are
// independent, so the gateway holds no lock around calls; calls on one
// library tree are serialized by the wrapper layer. mem tracks the ranges
// Memory may touch.
type Gateway struct {
	mem regions
}

var _ native.Gateway = (*Gateway)(nil)

// New returns the cgo gateway.
func New() *Gateway {
	var major, minor, patch C.FT_Int
	var lib C.FT_Library
	if C.FT_Init_FreeType(&lib) == 0 {
		C.FT_Library_Version(lib, &major, &minor, &patch)
		C.FT_Done_FreeType(lib)
		Logger().Debug("freetype linked",
			zap.Int("major", int(major)), zap.Int("minor", int(minor)), zap.Int("patch", int(patch)))
	}
	return &Gateway{}
}

func (*Gateway) Name() string { return "freetype" }

func (g *Gateway) Memory() ftbind.Memory { return cmemory{&g.mem} }

func status(err C.FT_Error) native.Status { return native.Status(err) }

func addr(p unsafe.Pointer) ftbind.Ptr { return ftbind.Ptr(uintptr(p)) }

func pointer(p ftbind.Ptr) unsafe.Pointer { return unsafe.Pointer(uintptr(p)) }

func library(p ftbind.Ptr) C.FT_Library { return C.FT_Library(pointer(p)) }
func face(p ftbind.Ptr) C.FT_Face       { return C.FT_Face(pointer(p)) }
func glyph(p ftbind.Ptr) *C.ftb_glyph   { return (*C.ftb_glyph)(pointer(p)) }
func stroker(p ftbind.Ptr) C.FT_Stroker { return C.FT_Stroker(pointer(p)) }

func (g *Gateway) Alloc(_ context.Context, size uint32) (ftbind.Ptr, native.Status) {
	if size == 0 {
		size = 1
	}
	p := C.malloc(C.size_t(size))
	if p == nil {
		return 0, stOutOfMemory
	}
	g.mem.add(addr(p), uint64(size), addr(p))
	return addr(p), native.StatusOK
}

func (g *Gateway) Free(_ context.Context, ptr ftbind.Ptr) native.Status {
	g.mem.dropOwned(ptr)
	C.free(pointer(ptr))
	return native.StatusOK
}

func (*Gateway) InitLibrary(context.Context) (ftbind.Ptr, native.Status) {
	var lib C.FT_Library
	if err := C.FT_Init_FreeType(&lib); err != 0 {
		return 0, status(err)
	}
	return addr(unsafe.Pointer(lib)), native.StatusOK
}

func (*Gateway) DoneLibrary(_ context.Context, lib ftbind.Ptr) native.Status {
	return status(C.FT_Done_FreeType(library(lib)))
}

func (*Gateway) LibraryVersion(_ context.Context, lib ftbind.Ptr) (native.Version, native.Status) {
	var major, minor, patch C.FT_Int
	C.FT_Library_Version(library(lib), &major, &minor, &patch)
	return native.Version{Major: int32(major), Minor: int32(minor), Patch: int32(patch)}, native.StatusOK
}

// ErrorString needs FreeType built with FT_CONFIG_OPTION_ERROR_STRINGS.
func (*Gateway) ErrorString(_ context.Context, code int32) (string, bool) {
	s := C.FT_Error_String(C.FT_Error(code))
	if s == nil {
		return "", false
	}
	return C.GoString(s), true
}

func (*Gateway) NewMemoryFace(_ context.Context, lib, data ftbind.Ptr, size uint32, index int64) (ftbind.Ptr, native.Status) {
	var f C.FT_Face
	err := C.FT_New_Memory_Face(library(lib), (*C.FT_Byte)(pointer(data)), C.FT_Long(size), C.FT_Long(index), &f)
	if err != 0 {
		return 0, status(err)
	}
	return addr(unsafe.Pointer(f)), native.StatusOK
}

func (g *Gateway) DoneFace(_ context.Context, p ftbind.Ptr) native.Status {
	g.mem.dropOwned(p)
	return status(C.FT_Done_Face(face(p)))
}

func (g *Gateway) FaceInfo(_ context.Context, p ftbind.Ptr) (native.FaceRec, native.Status) {
	f := face(p)
	g.addString(f.family_name, p)
	g.addString(f.style_name, p)
	return native.FaceRec{
		NumFaces:   int64(f.num_faces),
		FaceIndex:  int64(f.face_index),
		FaceFlags:  int64(f.face_flags),
		StyleFlags: int64(f.style_flags),
		NumGlyphs:  int64(f.num_glyphs),
		FamilyName: addr(unsafe.Pointer(f.family_name)),
		StyleName:  addr(unsafe.Pointer(f.style_name)),
		BBox: native.BBox{
			XMin: int64(f.bbox.xMin), YMin: int64(f.bbox.yMin),
			XMax: int64(f.bbox.xMax), YMax: int64(f.bbox.yMax),
		},
		NumFixedSizes:      int32(f.num_fixed_sizes),
		NumCharMaps:        int32(f.num_charmaps),
		UnitsPerEM:         uint16(f.units_per_EM),
		Ascender:           int16(f.ascender),
		Descender:          int16(f.descender),
		Height:             int16(f.height),
		MaxAdvanceWidth:    int16(f.max_advance_width),
		MaxAdvanceHeight:   int16(f.max_advance_height),
		UnderlinePosition:  int16(f.underline_position),
		UnderlineThickness: int16(f.underline_thickness),
	}, native.StatusOK
}

// addString records a NUL-terminated string owned by owner, terminator
// included.
func (g *Gateway) addString(s *C.FT_String, owner ftbind.Ptr) {
	if s != nil {
		g.mem.add(addr(unsafe.Pointer(s)), uint64(C.strlen((*C.char)(unsafe.Pointer(s))))+1, owner)
	}
}

func (*Gateway) CharMap(_ context.Context, p ftbind.Ptr, i int32) (native.CharMapRec, native.Status) {
	f := face(p)
	if i < 0 || i >= int32(f.num_charmaps) {
		return native.CharMapRec{}, stInvalidArgument
	}
	cm := C.ftb_charmap(f, C.int(i))
	return native.CharMapRec{
		Encoding:   native.Encoding(cm.encoding),
		PlatformID: uint16(cm.platform_id),
		EncodingID: uint16(cm.encoding_id),
	}, native.StatusOK
}

func (*Gateway) SelectCharMap(_ context.Context, p ftbind.Ptr, enc native.Encoding) native.Status {
	return status(C.FT_Select_Charmap(face(p), C.FT_Encoding(enc)))
}

func (*Gateway) SetCharSize(_ context.Context, p ftbind.Ptr, width, height int64, hres, vres uint32) native.Status {
	return status(C.FT_Set_Char_Size(face(p), C.FT_F26Dot6(width), C.FT_F26Dot6(height), C.FT_UInt(hres), C.FT_UInt(vres)))
}

func (*Gateway) SetPixelSizes(_ context.Context, p ftbind.Ptr, width, height uint32) native.Status {
	return status(C.FT_Set_Pixel_Sizes(face(p), C.FT_UInt(width), C.FT_UInt(height)))
}

func (*Gateway) CharIndex(_ context.Context, p ftbind.Ptr, code uint32) (uint32, native.Status) {
	return uint32(C.FT_Get_Char_Index(face(p), C.FT_ULong(code))), native.StatusOK
}

func (*Gateway) LoadGlyph(_ context.Context, p ftbind.Ptr, index uint32, flags native.LoadFlags) (ftbind.Ptr, native.Status) {
	var g *C.ftb_glyph
	if err := C.ftb_load_glyph(face(p), C.FT_UInt(index), C.FT_Int32(flags), &g); err != 0 {
		return 0, status(err)
	}
	return addr(unsafe.Pointer(g)), native.StatusOK
}

func (*Gateway) GlyphMetrics(_ context.Context, p ftbind.Ptr) (native.GlyphMetricsRec, native.Status) {
	m := glyph(p).metrics
	return native.GlyphMetricsRec{
		Width:        int64(m.width),
		Height:       int64(m.height),
		HoriBearingX: int64(m.horiBearingX),
		HoriBearingY: int64(m.horiBearingY),
		HoriAdvance:  int64(m.horiAdvance),
		VertBearingX: int64(m.vertBearingX),
		VertBearingY: int64(m.vertBearingY),
		VertAdvance:  int64(m.vertAdvance),
	}, native.StatusOK
}

func (g *Gateway) RenderGlyph(_ context.Context, p ftbind.Ptr, mode native.RenderMode) native.Status {
	g.mem.dropOwned(p)
	return status(C.ftb_render_glyph(glyph(p), C.FT_Render_Mode(mode)))
}

func (g *Gateway) GlyphBitmap(_ context.Context, p ftbind.Ptr) (native.BitmapRec, native.Status) {
	var bm C.FT_Bitmap
	var left, top C.FT_Int
	if err := C.ftb_glyph_bitmap(glyph(p), &bm, &left, &top); err != 0 {
		return native.BitmapRec{}, status(err)
	}
	rec := native.BitmapRec{
		Buffer:    addr(unsafe.Pointer(bm.buffer)),
		Rows:      uint32(bm.rows),
		Width:     uint32(bm.width),
		Pitch:     int32(bm.pitch),
		Left:      int32(left),
		Top:       int32(top),
		PixelMode: native.PixelMode(bm.pixel_mode),
	}
	g.mem.dropOwned(p)
	g.mem.add(rec.Buffer, uint64(rec.Stride())*uint64(rec.Rows), p)
	return rec, native.StatusOK
}

func (g *Gateway) DoneGlyph(_ context.Context, p ftbind.Ptr) native.Status {
	g.mem.dropOwned(p)
	C.ftb_done_glyph(glyph(p))
	return native.StatusOK
}

func (*Gateway) NewStroker(_ context.Context, lib ftbind.Ptr) (ftbind.Ptr, native.Status) {
	var s C.FT_Stroker
	if err := C.FT_Stroker_New(library(lib), &s); err != 0 {
		return 0, status(err)
	}
	return addr(unsafe.Pointer(s)), native.StatusOK
}

func (*Gateway) SetStroker(_ context.Context, p ftbind.Ptr, radius int64, lineCap native.LineCap, lineJoin native.LineJoin, miterLimit int64) native.Status {
	C.FT_Stroker_Set(stroker(p), C.FT_Fixed(radius), C.FT_Stroker_LineCap(lineCap), C.FT_Stroker_LineJoin(lineJoin), C.FT_Fixed(miterLimit))
	return native.StatusOK
}

func (*Gateway) DoneStroker(_ context.Context, p ftbind.Ptr) native.Status {
	C.FT_Stroker_Done(stroker(p))
	return native.StatusOK
}

func (g *Gateway) StrokeGlyph(_ context.Context, gl, s ftbind.Ptr) native.Status {
	g.mem.dropOwned(gl)
	return status(C.ftb_stroke_glyph(glyph(gl), stroker(s)))
}

// Close is a no-op: FreeType has no global state to tear down.
func (*Gateway) Close(context.Context) error { return nil }

// cmemory exposes the C heap ranges recorded in spans.
type cmemory struct {
	spans *regions
}

func (m cmemory) Read(ptr ftbind.Ptr, length uint32) ([]byte, bool) {
	if !m.spans.contains(ptr, uint64(length)) {
		return nil, false
	}
	return unsafe.Slice((*byte)(pointer(ptr)), length), true
}

func (m cmemory) Write(ptr ftbind.Ptr, data []byte) bool {
	if !m.spans.contains(ptr, uint64(len(data))) {
		return false
	}
	copy(unsafe.Slice((*byte)(pointer(ptr)), len(data)), data)
	return true
}
