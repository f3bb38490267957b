package native

import "fmt"

// Encoding is a four-byte charmap tag, as built by FT_ENC_TAG.
type Encoding uint32

func encTag(a, b, c, d byte) Encoding {
	return Encoding(uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d))
}

const (
	EncodingNone          Encoding = 0
	EncodingMSSymbol      Encoding = 's'<<24 | 'y'<<16 | 'm'<<8 | 'b'
	EncodingUnicode       Encoding = 'u'<<24 | 'n'<<16 | 'i'<<8 | 'c'
	EncodingSJIS          Encoding = 's'<<24 | 'j'<<16 | 'i'<<8 | 's'
	EncodingPRC           Encoding = 'g'<<24 | 'b'<<16 | ' '<<8 | ' '
	EncodingBig5          Encoding = 'b'<<24 | 'i'<<16 | 'g'<<8 | '5'
	EncodingWansung       Encoding = 'w'<<24 | 'a'<<16 | 'n'<<8 | 's'
	EncodingJohab         Encoding = 'j'<<24 | 'o'<<16 | 'h'<<8 | 'a'
	EncodingAdobeStandard Encoding = 'A'<<24 | 'D'<<16 | 'O'<<8 | 'B'
	EncodingAdobeExpert   Encoding = 'A'<<24 | 'D'<<16 | 'B'<<8 | 'E'
	EncodingAdobeCustom   Encoding = 'A'<<24 | 'D'<<16 | 'B'<<8 | 'C'
	EncodingAdobeLatin1   Encoding = 'l'<<24 | 'a'<<16 | 't'<<8 | '1'
	EncodingOldLatin2     Encoding = 'l'<<24 | 'a'<<16 | 't'<<8 | '2'
	EncodingAppleRoman    Encoding = 'a'<<24 | 'r'<<16 | 'm'<<8 | 'n'
)

// String returns the four-character tag, e.g. "unic".
func (e Encoding) String() string {
	if e == EncodingNone {
		return "none"
	}
	return string([]byte{byte(e >> 24), byte(e >> 16), byte(e >> 8), byte(e)})
}

// ParseEncoding converts a tag string of up to four bytes into an Encoding.
// Short tags are padded with spaces.
func ParseEncoding(tag string) (Encoding, error) {
	if len(tag) == 0 || len(tag) > 4 {
		return 0, fmt.Errorf("encoding tag %q must be 1 to 4 bytes", tag)
	}
	var b [4]byte
	for i := range b {
		if i < len(tag) {
			b[i] = tag[i]
		} else {
			b[i] = ' '
		}
	}
	return encTag(b[0], b[1], b[2], b[3]), nil
}

// LoadFlags mirror FT_LOAD_*.
type LoadFlags int32

const (
	LoadDefault           LoadFlags = 0
	LoadNoScale           LoadFlags = 1 << 0
	LoadNoHinting         LoadFlags = 1 << 1
	LoadRender            LoadFlags = 1 << 2
	LoadNoBitmap          LoadFlags = 1 << 3
	LoadVerticalLayout    LoadFlags = 1 << 4
	LoadForceAutohint     LoadFlags = 1 << 5
	LoadCropBitmap        LoadFlags = 1 << 6
	LoadPedantic          LoadFlags = 1 << 7
	LoadNoRecurse         LoadFlags = 1 << 10
	LoadIgnoreTransform   LoadFlags = 1 << 11
	LoadMonochrome        LoadFlags = 1 << 12
	LoadLinearDesign      LoadFlags = 1 << 13
	LoadNoAutohint        LoadFlags = 1 << 15
	LoadColor             LoadFlags = 1 << 20
	LoadComputeMetrics    LoadFlags = 1 << 21
	LoadBitmapMetricsOnly LoadFlags = 1 << 22
)

// RenderMode mirrors FT_Render_Mode.
type RenderMode uint32

const (
	RenderNormal RenderMode = iota
	RenderLight
	RenderMono
	RenderLCD
	RenderLCDV
	RenderSDF
)

func (m RenderMode) String() string {
	switch m {
	case RenderNormal:
		return "normal"
	case RenderLight:
		return "light"
	case RenderMono:
		return "mono"
	case RenderLCD:
		return "lcd"
	case RenderLCDV:
		return "lcd_v"
	case RenderSDF:
		return "sdf"
	default:
		return fmt.Sprintf("render_mode(%d)", uint32(m))
	}
}

// PixelMode mirrors FT_Pixel_Mode.
type PixelMode uint8

const (
	PixelModeNone PixelMode = iota
	PixelModeMono
	PixelModeGray
	PixelModeGray2
	PixelModeGray4
	PixelModeLCD
	PixelModeLCDV
	PixelModeBGRA
)

// LineCap mirrors FT_Stroker_LineCap.
type LineCap uint32

const (
	LineCapButt LineCap = iota
	LineCapRound
	LineCapSquare
)

// LineJoin mirrors FT_Stroker_LineJoin.
type LineJoin uint32

const (
	LineJoinRound LineJoin = iota
	LineJoinBevel
	LineJoinMiterVariable
	LineJoinMiterFixed

	LineJoinMiter = LineJoinMiterVariable
)
