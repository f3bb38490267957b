package native

import (
	"encoding/binary"

	"github.com/wippyai/ftbind"
)

// Out-parameter records of the ftb_* wasm32 ABI. All fields are
// little-endian; FT_Long and pointers are 32 bits wide.
//
//	FaceRec (68 bytes)
//	  0 num_faces i32        4 face_index i32      8 face_flags i32
//	 12 style_flags i32     16 num_glyphs i32     20 family_name ptr
//	 24 style_name ptr      28 num_fixed_sizes    32 num_charmaps i32
//	 36 bbox xMin,yMin,xMax,yMax i32
//	 52 units_per_EM u16    54 ascender i16       56 descender i16
//	 58 height i16          60 max_advance_width  62 max_advance_height
//	 64 underline_position  66 underline_thickness
//
//	CharMapRec (8 bytes): encoding u32, platform_id u16, encoding_id u16
//	GlyphMetricsRec (32 bytes): eight i32 in FT_Glyph_Metrics order
//	BitmapRec (28 bytes): buffer ptr, rows u32, width u32, pitch i32,
//	                      left i32, top i32, pixel_mode u8 + 3 pad
//	Version (12 bytes): major, minor, patch i32
const (
	FaceRecSize         = 68
	CharMapRecSize      = 8
	GlyphMetricsRecSize = 32
	BitmapRecSize       = 28
	VersionSize         = 12

	// ScratchSize is large enough for any single out-parameter record.
	ScratchSize = 128
)

var le = binary.LittleEndian

func i32(b []byte, off int) int32 { return int32(le.Uint32(b[off:])) }
func i16(b []byte, off int) int16 { return int16(le.Uint16(b[off:])) }

// DecodeFaceRec reads a FaceRec from its wasm32 layout.
func DecodeFaceRec(b []byte) (FaceRec, bool) {
	if len(b) < FaceRecSize {
		return FaceRec{}, false
	}
	return FaceRec{
		NumFaces:      int64(i32(b, 0)),
		FaceIndex:     int64(i32(b, 4)),
		FaceFlags:     int64(i32(b, 8)),
		StyleFlags:    int64(i32(b, 12)),
		NumGlyphs:     int64(i32(b, 16)),
		FamilyName:    ftbind.Ptr(le.Uint32(b[20:])),
		StyleName:     ftbind.Ptr(le.Uint32(b[24:])),
		NumFixedSizes: i32(b, 28),
		NumCharMaps:   i32(b, 32),
		BBox: BBox{
			XMin: int64(i32(b, 36)),
			YMin: int64(i32(b, 40)),
			XMax: int64(i32(b, 44)),
			YMax: int64(i32(b, 48)),
		},
		UnitsPerEM:         le.Uint16(b[52:]),
		Ascender:           i16(b, 54),
		Descender:          i16(b, 56),
		Height:             i16(b, 58),
		MaxAdvanceWidth:    i16(b, 60),
		MaxAdvanceHeight:   i16(b, 62),
		UnderlinePosition:  i16(b, 64),
		UnderlineThickness: i16(b, 66),
	}, true
}

// PutFaceRec writes r in its wasm32 layout. It is the inverse of
// DecodeFaceRec for values that fit in 32 bits.
func PutFaceRec(b []byte, r FaceRec) {
	_ = b[FaceRecSize-1]
	le.PutUint32(b[0:], uint32(r.NumFaces))
	le.PutUint32(b[4:], uint32(r.FaceIndex))
	le.PutUint32(b[8:], uint32(r.FaceFlags))
	le.PutUint32(b[12:], uint32(r.StyleFlags))
	le.PutUint32(b[16:], uint32(r.NumGlyphs))
	le.PutUint32(b[20:], uint32(r.FamilyName))
	le.PutUint32(b[24:], uint32(r.StyleName))
	le.PutUint32(b[28:], uint32(r.NumFixedSizes))
	le.PutUint32(b[32:], uint32(r.NumCharMaps))
	le.PutUint32(b[36:], uint32(r.BBox.XMin))
	le.PutUint32(b[40:], uint32(r.BBox.YMin))
	le.PutUint32(b[44:], uint32(r.BBox.XMax))
	le.PutUint32(b[48:], uint32(r.BBox.YMax))
	le.PutUint16(b[52:], r.UnitsPerEM)
	le.PutUint16(b[54:], uint16(r.Ascender))
	le.PutUint16(b[56:], uint16(r.Descender))
	le.PutUint16(b[58:], uint16(r.Height))
	le.PutUint16(b[60:], uint16(r.MaxAdvanceWidth))
	le.PutUint16(b[62:], uint16(r.MaxAdvanceHeight))
	le.PutUint16(b[64:], uint16(r.UnderlinePosition))
	le.PutUint16(b[66:], uint16(r.UnderlineThickness))
}

// DecodeCharMapRec reads a CharMapRec from its wasm32 layout.
func DecodeCharMapRec(b []byte) (CharMapRec, bool) {
	if len(b) < CharMapRecSize {
		return CharMapRec{}, false
	}
	return CharMapRec{
		Encoding:   Encoding(le.Uint32(b[0:])),
		PlatformID: le.Uint16(b[4:]),
		EncodingID: le.Uint16(b[6:]),
	}, true
}

// PutCharMapRec writes r in its wasm32 layout.
func PutCharMapRec(b []byte, r CharMapRec) {
	_ = b[CharMapRecSize-1]
	le.PutUint32(b[0:], uint32(r.Encoding))
	le.PutUint16(b[4:], r.PlatformID)
	le.PutUint16(b[6:], r.EncodingID)
}

// DecodeGlyphMetricsRec reads a GlyphMetricsRec from its wasm32 layout.
func DecodeGlyphMetricsRec(b []byte) (GlyphMetricsRec, bool) {
	if len(b) < GlyphMetricsRecSize {
		return GlyphMetricsRec{}, false
	}
	return GlyphMetricsRec{
		Width:        int64(i32(b, 0)),
		Height:       int64(i32(b, 4)),
		HoriBearingX: int64(i32(b, 8)),
		HoriBearingY: int64(i32(b, 12)),
		HoriAdvance:  int64(i32(b, 16)),
		VertBearingX: int64(i32(b, 20)),
		VertBearingY: int64(i32(b, 24)),
		VertAdvance:  int64(i32(b, 28)),
	}, true
}

// PutGlyphMetricsRec writes r in its wasm32 layout.
func PutGlyphMetricsRec(b []byte, r GlyphMetricsRec) {
	_ = b[GlyphMetricsRecSize-1]
	for i, v := range [8]int64{
		r.Width, r.Height,
		r.HoriBearingX, r.HoriBearingY, r.HoriAdvance,
		r.VertBearingX, r.VertBearingY, r.VertAdvance,
	} {
		le.PutUint32(b[i*4:], uint32(v))
	}
}

// DecodeBitmapRec reads a BitmapRec from its wasm32 layout.
func DecodeBitmapRec(b []byte) (BitmapRec, bool) {
	if len(b) < BitmapRecSize {
		return BitmapRec{}, false
	}
	return BitmapRec{
		Buffer:    ftbind.Ptr(le.Uint32(b[0:])),
		Rows:      le.Uint32(b[4:]),
		Width:     le.Uint32(b[8:]),
		Pitch:     i32(b, 12),
		Left:      i32(b, 16),
		Top:       i32(b, 20),
		PixelMode: PixelMode(b[24]),
	}, true
}

// PutBitmapRec writes r in its wasm32 layout.
func PutBitmapRec(b []byte, r BitmapRec) {
	_ = b[BitmapRecSize-1]
	le.PutUint32(b[0:], uint32(r.Buffer))
	le.PutUint32(b[4:], r.Rows)
	le.PutUint32(b[8:], r.Width)
	le.PutUint32(b[12:], uint32(r.Pitch))
	le.PutUint32(b[16:], uint32(r.Left))
	le.PutUint32(b[20:], uint32(r.Top))
	b[24] = byte(r.PixelMode)
	b[25], b[26], b[27] = 0, 0, 0
}

// DecodeVersion reads a Version from its wasm32 layout.
func DecodeVersion(b []byte) (Version, bool) {
	if len(b) < VersionSize {
		return Version{}, false
	}
	return Version{Major: i32(b, 0), Minor: i32(b, 4), Patch: i32(b, 8)}, true
}

// PutVersion writes v in its wasm32 layout.
func PutVersion(b []byte, v Version) {
	_ = b[VersionSize-1]
	le.PutUint32(b[0:], uint32(v.Major))
	le.PutUint32(b[4:], uint32(v.Minor))
	le.PutUint32(b[8:], uint32(v.Patch))
}
