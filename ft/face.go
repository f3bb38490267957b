package ft

import (
	"context"

	"golang.org/x/image/math/fixed"

	"github.com/wippyai/ftbind/bridge"
	"github.com/wippyai/ftbind/errors"
	"github.com/wippyai/ftbind/native"
	"github.com/wippyai/ftbind/registry"
)

// maxNameLen bounds family and style names read from native memory.
const maxNameLen = 1024

// Face is an opened font face. It keeps its stream alive.
type Face struct {
	resource
	stream *Stream
}

// Stream returns the stream the face reads from.
func (f *Face) Stream() *Stream { return f.stream }

// Info returns a snapshot of the face's public fields.
func (f *Face) Info(ctx context.Context) (FaceInfo, error) {
	const op = "face_info"
	unlock, err := enter(op, &f.resource)
	if err != nil {
		return FaceInfo{}, err
	}
	defer unlock()

	rec, st := f.env.gw.FaceInfo(ctx, f.ptr())
	if !st.OK() {
		return FaceInfo{}, f.env.status(ctx, op, f.Handle(), st)
	}

	mem := f.Memory()
	family, err := bridge.ReadCString(mem, rec.FamilyName, maxNameLen)
	if err != nil {
		return FaceInfo{}, err
	}
	style, err := bridge.ReadCString(mem, rec.StyleName, maxNameLen)
	if err != nil {
		return FaceInfo{}, err
	}

	return FaceInfo{
		FamilyName:         family,
		StyleName:          style,
		NumFaces:           rec.NumFaces,
		FaceIndex:          rec.FaceIndex,
		FaceFlags:          rec.FaceFlags,
		StyleFlags:         rec.StyleFlags,
		NumGlyphs:          rec.NumGlyphs,
		NumFixedSizes:      int(rec.NumFixedSizes),
		NumCharMaps:        int(rec.NumCharMaps),
		BBox:               rec.BBox,
		UnitsPerEM:         rec.UnitsPerEM,
		Ascender:           rec.Ascender,
		Descender:          rec.Descender,
		Height:             rec.Height,
		MaxAdvanceWidth:    rec.MaxAdvanceWidth,
		MaxAdvanceHeight:   rec.MaxAdvanceHeight,
		UnderlinePosition:  rec.UnderlinePosition,
		UnderlineThickness: rec.UnderlineThickness,
	}, nil
}

// CharMaps lists the face's character maps.
func (f *Face) CharMaps(ctx context.Context) ([]CharMap, error) {
	const op = "get_charmap"
	unlock, err := enter(op, &f.resource)
	if err != nil {
		return nil, err
	}
	defer unlock()

	gw := f.env.gw
	rec, st := gw.FaceInfo(ctx, f.ptr())
	if !st.OK() {
		return nil, f.env.status(ctx, op, f.Handle(), st)
	}
	maps := make([]CharMap, 0, rec.NumCharMaps)
	for i := int32(0); i < rec.NumCharMaps; i++ {
		cm, st := gw.CharMap(ctx, f.ptr(), i)
		if !st.OK() {
			return nil, f.env.status(ctx, op, f.Handle(), st)
		}
		maps = append(maps, cm)
	}
	return maps, nil
}

// SelectCharMap makes the first charmap with encoding enc current.
func (f *Face) SelectCharMap(ctx context.Context, enc Encoding) error {
	return f.do(ctx, "select_charmap", func() native.Status {
		return f.env.gw.SelectCharMap(ctx, f.ptr(), enc)
	})
}

// SetCharSize sets the nominal size in 26.6 points at the given
// resolutions. A zero width or height copies the other; a zero resolution
// means 72 dpi.
func (f *Face) SetCharSize(ctx context.Context, width, height fixed.Int26_6, hres, vres uint32) error {
	const op = "set_char_size"
	if width < 0 || height < 0 {
		return errors.InvalidArgument(errors.PhaseLifecycle, op, "negative char size")
	}
	return f.do(ctx, op, func() native.Status {
		return f.env.gw.SetCharSize(ctx, f.ptr(), int64(width), int64(height), hres, vres)
	})
}

// SetPixelSizes sets the nominal size in whole pixels. A zero dimension
// copies the other.
func (f *Face) SetPixelSizes(ctx context.Context, width, height uint32) error {
	return f.do(ctx, "set_pixel_sizes", func() native.Status {
		return f.env.gw.SetPixelSizes(ctx, f.ptr(), width, height)
	})
}

// CharIndex maps r through the current charmap. Zero means the face has no
// glyph for r.
func (f *Face) CharIndex(ctx context.Context, r rune) (uint32, error) {
	const op = "get_char_index"
	if r < 0 {
		return 0, errors.InvalidArgument(errors.PhaseLifecycle, op, "negative character code")
	}
	unlock, err := enter(op, &f.resource)
	if err != nil {
		return 0, err
	}
	defer unlock()
	return f.charIndex(ctx, op, r)
}

func (f *Face) charIndex(ctx context.Context, op string, r rune) (uint32, error) {
	idx, st := f.env.gw.CharIndex(ctx, f.ptr(), uint32(r))
	if !st.OK() {
		return 0, f.env.status(ctx, op, f.Handle(), st)
	}
	return idx, nil
}

// LoadGlyph loads glyph index into a new Glyph owned by the face.
func (f *Face) LoadGlyph(ctx context.Context, index uint32, flags LoadFlags) (*Glyph, error) {
	const op = "load_glyph"
	unlock, err := enter(op, &f.resource)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return f.loadGlyph(ctx, op, index, flags)
}

// LoadChar loads the glyph r maps to. Characters without a glyph load the
// face's .notdef glyph.
func (f *Face) LoadChar(ctx context.Context, r rune, flags LoadFlags) (*Glyph, error) {
	const op = "load_char"
	if r < 0 {
		return nil, errors.InvalidArgument(errors.PhaseLifecycle, op, "negative character code")
	}
	unlock, err := enter(op, &f.resource)
	if err != nil {
		return nil, err
	}
	defer unlock()

	idx, err := f.charIndex(ctx, op, r)
	if err != nil {
		return nil, err
	}
	return f.loadGlyph(ctx, op, idx, flags)
}

func (f *Face) loadGlyph(ctx context.Context, op string, index uint32, flags LoadFlags) (*Glyph, error) {
	gw := f.env.gw
	p, st := gw.LoadGlyph(ctx, f.ptr(), index, flags)
	if !st.OK() {
		return nil, f.env.status(ctx, op, f.Handle(), st)
	}

	g := &Glyph{face: f, index: index}
	g.env = f.env
	g.destroy = func(ctx context.Context) native.Status {
		return gw.DoneGlyph(ctx, p)
	}
	if err := g.register(ctx, op, p, registry.KindGlyph, f.Handle()); err != nil {
		return nil, err
	}
	return g, nil
}

// Release closes the face. It fails with resource_in_use while glyphs
// loaded from it are live. A face opened with Library.NewFace releases its
// private stream as well.
func (f *Face) Release(ctx context.Context) error { return f.release(ctx) }

// Close releases the face unless it is already released.
func (f *Face) Close(ctx context.Context) error { return f.close(ctx) }
