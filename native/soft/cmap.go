package soft

import (
	"bytes"
	"encoding/binary"

	"github.com/go-text/typesetting/font/opentype"
	"golang.org/x/text/encoding/charmap"

	"github.com/wippyai/ftbind/native"
)

var cmapTag = opentype.MustNewTag("cmap")

// readCharMaps lists the encoding records of the cmap table of font index in
// src, in table order.
func readCharMaps(src []byte, index int) []native.CharMapRec {
	loaders, err := opentype.NewLoaders(bytes.NewReader(src))
	if err != nil || index >= len(loaders) {
		return nil
	}
	raw, err := loaders[index].RawTable(cmapTag)
	if err != nil || len(raw) < 4 {
		return nil
	}

	n := int(binary.BigEndian.Uint16(raw[2:]))
	recs := make([]native.CharMapRec, 0, n)
	for i := 0; i < n; i++ {
		off := 4 + 8*i
		if off+8 > len(raw) {
			break
		}
		pid := binary.BigEndian.Uint16(raw[off:])
		eid := binary.BigEndian.Uint16(raw[off+2:])
		recs = append(recs, native.CharMapRec{
			Encoding:   encodingOf(pid, eid),
			PlatformID: pid,
			EncodingID: eid,
		})
	}
	return recs
}

// encodingOf maps a (platform, encoding) pair to its FreeType tag.
func encodingOf(platform, encoding uint16) native.Encoding {
	switch platform {
	case 0: // Unicode
		return native.EncodingUnicode
	case 1: // Macintosh
		if encoding == 0 {
			return native.EncodingAppleRoman
		}
	case 3: // Windows
		switch encoding {
		case 0:
			return native.EncodingMSSymbol
		case 1, 10:
			return native.EncodingUnicode
		case 2:
			return native.EncodingSJIS
		case 3:
			return native.EncodingPRC
		case 4:
			return native.EncodingBig5
		case 5:
			return native.EncodingWansung
		case 6:
			return native.EncodingJohab
		}
	}
	return native.EncodingNone
}

// defaultCharMap picks the charmap FreeType selects when a face is opened:
// a full-repertoire Unicode map if there is one, then any Unicode map.
func defaultCharMap(recs []native.CharMapRec) int {
	best := -1
	for i, r := range recs {
		if r.Encoding != native.EncodingUnicode {
			continue
		}
		if r.PlatformID == 3 && r.EncodingID == 10 {
			return i
		}
		if best < 0 {
			best = i
		}
	}
	return best
}

// toUnicode converts a character code in enc to a rune that sfnt can look
// up. It reports false for encodings the soft gateway cannot map.
func toUnicode(enc native.Encoding, code uint32) (rune, bool) {
	switch enc {
	case native.EncodingUnicode:
		if code > 0x10FFFF {
			return 0, false
		}
		return rune(code), true
	case native.EncodingAppleRoman:
		if code > 0xFF {
			return 0, false
		}
		return charmap.Macintosh.DecodeByte(byte(code)), true
	case native.EncodingMSSymbol:
		if code <= 0xFF {
			return rune(0xF000 | code), true
		}
		return rune(code), code <= 0xFFFF
	}
	return 0, false
}
