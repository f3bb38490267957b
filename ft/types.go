package ft

import (
	"golang.org/x/image/math/fixed"

	"github.com/wippyai/ftbind/native"
)

type (
	Encoding   = native.Encoding
	LoadFlags  = native.LoadFlags
	RenderMode = native.RenderMode
	PixelMode  = native.PixelMode
	LineCap    = native.LineCap
	LineJoin   = native.LineJoin
	Version    = native.Version
	BBox       = native.BBox
	CharMap    = native.CharMapRec
)

const (
	EncodingNone       = native.EncodingNone
	EncodingUnicode    = native.EncodingUnicode
	EncodingAppleRoman = native.EncodingAppleRoman

	LoadDefault    = native.LoadDefault
	LoadNoScale    = native.LoadNoScale
	LoadNoHinting  = native.LoadNoHinting
	LoadRender     = native.LoadRender
	LoadMonochrome = native.LoadMonochrome

	RenderNormal = native.RenderNormal
	RenderLight  = native.RenderLight
	RenderMono   = native.RenderMono
	RenderLCD    = native.RenderLCD

	PixelModeMono = native.PixelModeMono
	PixelModeGray = native.PixelModeGray

	LineCapButt   = native.LineCapButt
	LineCapRound  = native.LineCapRound
	LineCapSquare = native.LineCapSquare

	LineJoinRound = native.LineJoinRound
	LineJoinBevel = native.LineJoinBevel
	LineJoinMiter = native.LineJoinMiter
)

// FaceInfo is a snapshot of a face's public fields. Names are copied out of
// native memory when the snapshot is taken.
type FaceInfo struct {
	FamilyName string
	StyleName  string

	NumFaces   int64
	FaceIndex  int64
	FaceFlags  int64
	StyleFlags int64
	NumGlyphs  int64

	NumFixedSizes int
	NumCharMaps   int

	BBox               BBox
	UnitsPerEM         uint16
	Ascender           int16
	Descender          int16
	Height             int16
	MaxAdvanceWidth    int16
	MaxAdvanceHeight   int16
	UnderlinePosition  int16
	UnderlineThickness int16
}

// Scalable reports whether the face has outlines.
func (i FaceInfo) Scalable() bool { return i.FaceFlags&native.FaceFlagScalable != 0 }

// FixedWidth reports whether every glyph has the same advance.
func (i FaceInfo) FixedWidth() bool { return i.FaceFlags&native.FaceFlagFixedWidth != 0 }

func (i FaceInfo) Italic() bool { return i.StyleFlags&native.StyleFlagItalic != 0 }
func (i FaceInfo) Bold() bool   { return i.StyleFlags&native.StyleFlagBold != 0 }

// GlyphMetrics are 26.6 pixel values, or font units for glyphs loaded with
// LoadNoScale.
type GlyphMetrics struct {
	Width        fixed.Int26_6
	Height       fixed.Int26_6
	HoriBearingX fixed.Int26_6
	HoriBearingY fixed.Int26_6
	HoriAdvance  fixed.Int26_6
	VertBearingX fixed.Int26_6
	VertBearingY fixed.Int26_6
	VertAdvance  fixed.Int26_6
}

func metricsFrom(r native.GlyphMetricsRec) GlyphMetrics {
	return GlyphMetrics{
		Width:        fixed.Int26_6(r.Width),
		Height:       fixed.Int26_6(r.Height),
		HoriBearingX: fixed.Int26_6(r.HoriBearingX),
		HoriBearingY: fixed.Int26_6(r.HoriBearingY),
		HoriAdvance:  fixed.Int26_6(r.HoriAdvance),
		VertBearingX: fixed.Int26_6(r.VertBearingX),
		VertBearingY: fixed.Int26_6(r.VertBearingY),
		VertAdvance:  fixed.Int26_6(r.VertAdvance),
	}
}

// Bounds returns the glyph's ink box relative to the pen position, with y
// growing downwards as in golang.org/x/image/font.
func (m GlyphMetrics) Bounds() fixed.Rectangle26_6 {
	minX, minY := m.HoriBearingX, -m.HoriBearingY
	return fixed.Rectangle26_6{
		Min: fixed.Point26_6{X: minX, Y: minY},
		Max: fixed.Point26_6{X: minX + m.Width, Y: minY + m.Height},
	}
}
