package native

import (
	"context"
	"fmt"
	"math"

	"github.com/wippyai/ftbind"
)

// Status is a raw status code returned by a native entry point.
// Zero is success. Positive values are FreeType error codes; negative values
// are reserved for failures of the gateway itself.
type Status int32

const (
	StatusOK Status = 0

	// StatusTrap reports that the native call panicked or trapped.
	StatusTrap Status = -1

	// StatusMissingEntry reports that the library lacks the entry point.
	StatusMissingEntry Status = -2
)

// OK reports whether s is StatusOK.
func (s Status) OK() bool { return s == StatusOK }

// Gateway is the set of native entry points used by the wrapper layer.
//
// Implementations must be safe for concurrent use. They may serialize calls
// internally.
type Gateway interface {
	// Name identifies the backend, e.g. "soft" or "wasm".
	Name() string

	// Memory gives access to the library's address space.
	Memory() ftbind.Memory

	Alloc(ctx context.Context, size uint32) (ftbind.Ptr, Status)
	Free(ctx context.Context, ptr ftbind.Ptr) Status

	InitLibrary(ctx context.Context) (ftbind.Ptr, Status)
	DoneLibrary(ctx context.Context, lib ftbind.Ptr) Status
	LibraryVersion(ctx context.Context, lib ftbind.Ptr) (Version, Status)

	// ErrorString returns the library's own message for code, if it has one.
	ErrorString(ctx context.Context, code int32) (string, bool)

	// NewMemoryFace opens face index from size bytes at data. The bytes must
	// stay valid until DoneFace.
	NewMemoryFace(ctx context.Context, lib, data ftbind.Ptr, size uint32, index int64) (ftbind.Ptr, Status)
	DoneFace(ctx context.Context, face ftbind.Ptr) Status
	FaceInfo(ctx context.Context, face ftbind.Ptr) (FaceRec, Status)
	CharMap(ctx context.Context, face ftbind.Ptr, i int32) (CharMapRec, Status)
	SelectCharMap(ctx context.Context, face ftbind.Ptr, enc Encoding) Status

	// SetCharSize takes 26.6 point sizes and dpi resolutions.
	SetCharSize(ctx context.Context, face ftbind.Ptr, width, height int64, hres, vres uint32) Status
	SetPixelSizes(ctx context.Context, face ftbind.Ptr, width, height uint32) Status
	CharIndex(ctx context.Context, face ftbind.Ptr, code uint32) (uint32, Status)

	// LoadGlyph loads a glyph into the face's slot and copies it out as an
	// independent glyph object owned by the caller.
	LoadGlyph(ctx context.Context, face ftbind.Ptr, index uint32, flags LoadFlags) (ftbind.Ptr, Status)
	GlyphMetrics(ctx context.Context, glyph ftbind.Ptr) (GlyphMetricsRec, Status)
	RenderGlyph(ctx context.Context, glyph ftbind.Ptr, mode RenderMode) Status
	GlyphBitmap(ctx context.Context, glyph ftbind.Ptr) (BitmapRec, Status)
	DoneGlyph(ctx context.Context, glyph ftbind.Ptr) Status

	NewStroker(ctx context.Context, lib ftbind.Ptr) (ftbind.Ptr, Status)
	SetStroker(ctx context.Context, stroker ftbind.Ptr, radius int64, lineCap LineCap, lineJoin LineJoin, miterLimit int64) Status
	DoneStroker(ctx context.Context, stroker ftbind.Ptr) Status
	StrokeGlyph(ctx context.Context, glyph, stroker ftbind.Ptr) Status

	// Close tears down the gateway. Native objects still alive are lost.
	Close(ctx context.Context) error
}

// Version is the library version triple.
type Version struct {
	Major int32
	Minor int32
	Patch int32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// BBox is a bounding box in font units.
type BBox struct {
	XMin, YMin, XMax, YMax int64
}

// FaceRec mirrors the public fields of FT_FaceRec.
type FaceRec struct {
	NumFaces           int64
	FaceIndex          int64
	FaceFlags          int64
	StyleFlags         int64
	NumGlyphs          int64
	FamilyName         ftbind.Ptr
	StyleName          ftbind.Ptr
	BBox               BBox
	NumFixedSizes      int32
	NumCharMaps        int32
	UnitsPerEM         uint16
	Ascender           int16
	Descender          int16
	Height             int16
	MaxAdvanceWidth    int16
	MaxAdvanceHeight   int16
	UnderlinePosition  int16
	UnderlineThickness int16
}

// Face flags, as in FT_FACE_FLAG_*.
const (
	FaceFlagScalable   int64 = 1 << 0
	FaceFlagFixedSizes int64 = 1 << 1
	FaceFlagFixedWidth int64 = 1 << 2
	FaceFlagSFNT       int64 = 1 << 3
	FaceFlagHorizontal int64 = 1 << 4
	FaceFlagVertical   int64 = 1 << 5
	FaceFlagKerning    int64 = 1 << 6
	FaceFlagGlyphNames int64 = 1 << 9
	FaceFlagHinter     int64 = 1 << 11
	FaceFlagCIDKeyed   int64 = 1 << 12
	FaceFlagColor      int64 = 1 << 14
)

// Style flags, as in FT_STYLE_FLAG_*.
const (
	StyleFlagItalic int64 = 1 << 0
	StyleFlagBold   int64 = 1 << 1
)

// CharMapRec mirrors FT_CharMapRec.
type CharMapRec struct {
	Encoding   Encoding
	PlatformID uint16
	EncodingID uint16
}

// GlyphMetricsRec mirrors FT_Glyph_Metrics. All values are 26.6 pixels
// (or font units when loaded with LoadNoScale).
type GlyphMetricsRec struct {
	Width        int64
	Height       int64
	HoriBearingX int64
	HoriBearingY int64
	HoriAdvance  int64
	VertBearingX int64
	VertBearingY int64
	VertAdvance  int64
}

// BitmapRec describes the bitmap of a rendered glyph. Buffer points into
// memory owned by the glyph.
type BitmapRec struct {
	Buffer    ftbind.Ptr
	Rows      uint32
	Width     uint32
	Pitch     int32
	Left      int32
	Top       int32
	PixelMode PixelMode
}

// Size returns the number of bytes covered by Buffer. It reports false when
// the record describes more than fits in a uint32.
func (b BitmapRec) Size() (uint32, bool) {
	n := uint64(b.Stride()) * uint64(b.Rows)
	if n > math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}

// Stride returns the absolute pitch.
func (b BitmapRec) Stride() uint32 {
	p := int64(b.Pitch)
	if p < 0 {
		p = -p
	}
	return uint32(p)
}
