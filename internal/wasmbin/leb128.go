package wasmbin

import "github.com/tetratelabs/wazero/api"

// ULEB128 encodes an unsigned value in LEB128 format.
func ULEB128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func valType(t api.ValueType) byte {
	switch t {
	case api.ValueTypeI64:
		return 0x7e
	case api.ValueTypeF32:
		return 0x7d
	case api.ValueTypeF64:
		return 0x7c
	default:
		return 0x7f
	}
}

func appendName(dst []byte, s string) []byte {
	dst = append(dst, ULEB128(uint32(len(s)))...)
	return append(dst, s...)
}

func appendSection(dst []byte, id byte, body []byte) []byte {
	dst = append(dst, id)
	dst = append(dst, ULEB128(uint32(len(body)))...)
	return append(dst, body...)
}
