package bridge

import (
	"github.com/wippyai/ftbind"
	"github.com/wippyai/ftbind/errors"
)

// CString reads a NUL-terminated string of at most limit bytes that the
// owner keeps alive, such as a face's family name.
func CString(owner Owner, ptr ftbind.Ptr, limit uint32) (string, error) {
	h := owner.Handle()
	unlock, err := owner.Registry().Guard(h)
	if err != nil {
		if errors.KindOf(err) == errors.KindAlreadyReleased {
			return "", errors.AlreadyReleased(errors.PhaseBuffer, "cstring", uint64(h))
		}
		return "", err
	}
	defer unlock()
	return ReadCString(owner.Memory(), ptr, limit)
}

// ReadCString reads a NUL-terminated string without any liveness check.
// Callers must hold the guard of the string's owner. A NULL pointer reads as
// the empty string.
func ReadCString(mem ftbind.Memory, ptr ftbind.Ptr, limit uint32) (string, error) {
	if ptr == 0 {
		return "", nil
	}
	var out []byte
	for i := uint32(0); i < limit; i++ {
		p, ok := mem.Read(ptr+ftbind.Ptr(i), 1)
		if !ok {
			break
		}
		if p[0] == 0 {
			return string(out), nil
		}
		out = append(out, p[0])
	}
	return "", errors.New(errors.PhaseBuffer, errors.KindInvalidArgument).
		Op("cstring").
		Detail("no terminator within %d bytes at %#x", limit, uint64(ptr)).
		Build()
}
