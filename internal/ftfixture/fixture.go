// Package ftfixture is a small fake of the ftb_* FreeType ABI, implemented
// as wazero host functions behind a synthesized wasm module. Tests load it
// through the wasm gateway exactly like a real FreeType build.
package ftfixture

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/ftbind"
	"github.com/wippyai/ftbind/errors"
	"github.com/wippyai/ftbind/internal/wasmbin"
	"github.com/wippyai/ftbind/native"
)

// HostModule is the import namespace of the synthesized module.
const HostModule = "ftfixture"

// Magic prefixes every font the fake accepts. Anything else is reported as
// Unknown_File_Format.
const Magic = "FTFX"

// Face properties reported by ftb_face_info.
const (
	FamilyName = "Fixture Sans"
	StyleName  = "Regular"
	NumGlyphs  = 96
	UnitsPerEM = 1000
)

const (
	pages         = 4
	errorStringAt = 64
	heapBase      = 1024
	align         = 8
)

var (
	i32 = api.ValueTypeI32

	codeUnknownFormat = errors.CodeUnknownFileFormat
	codeBadArgument   = errors.CodeInvalidArgument
	codeBadGlyph      = errors.CodeInvalidGlyphIndex
	codeGlyphFormat   = errors.CodeInvalidGlyphFormat
	codeCannotRender  = errors.CodeCannotRenderGlyph
	codeBadLibrary    = errors.CodeInvalidLibraryHandle
	codeBadFace       = errors.CodeInvalidFaceHandle
	codeBadSize       = errors.CodeInvalidSizeHandle
	codeOutOfMemory   = errors.CodeOutOfMemory
)

// Option configures a Fixture.
type Option func(*Fixture)

// Without leaves entries out of the module's exports.
func Without(entries ...string) Option {
	return func(f *Fixture) {
		for _, e := range entries {
			f.without[e] = true
		}
	}
}

// Trapping makes entries panic, which wazero reports as a trap.
func Trapping(entries ...string) Option {
	return func(f *Fixture) {
		for _, e := range entries {
			f.trapping[e] = true
		}
	}
}

// Growing makes every ftb_malloc grow linear memory by one page, so any
// view of memory taken before an allocation goes stale.
func Growing() Option {
	return func(f *Fixture) { f.growing = true }
}

// Fixture holds the fake library state. Addresses are offsets into the
// synthesized module's memory.
type Fixture struct {
	blocks   map[uint32]uint32
	libs     map[uint32]bool
	faces    map[uint32]*face
	glyphs   map[uint32]*glyph
	strokers map[uint32]*stroker
	without  map[string]bool
	trapping map[string]bool
	next     uint32
	growing  bool
	mu       sync.Mutex
}

type face struct {
	lib     uint32
	family  uint32
	style   uint32
	pixels  uint32
	charmap bool
}

type glyph struct {
	lib      uint32
	bitmap   uint32
	size     uint32
	grow     uint32
	index    uint32
	rendered bool
	mono     bool
}

type stroker struct {
	lib    uint32
	radius int32
}

// New creates an empty fixture.
func New(opts ...Option) *Fixture {
	f := &Fixture{
		blocks:   make(map[uint32]uint32),
		libs:     make(map[uint32]bool),
		faces:    make(map[uint32]*face),
		glyphs:   make(map[uint32]*glyph),
		strokers: make(map[uint32]*stroker),
		without:  make(map[string]bool),
		trapping: make(map[string]bool),
		next:     heapBase,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Font returns bytes the fake accepts as a font.
func Font() []byte {
	return append([]byte(Magic), "fixture font data"...)
}

// LiveBlocks reports the number of allocations not yet freed.
func (f *Fixture) LiveBlocks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blocks)
}

// Install instantiates the host module in r and returns the bytes of the
// module to hand to the gateway.
func (f *Fixture) Install(ctx context.Context, r wazero.Runtime) ([]byte, error) {
	host := r.NewHostModuleBuilder(HostModule)
	shim := wasmbin.NewBuilder(HostModule).Memory(pages, "memory")

	for _, e := range f.entries() {
		if f.without[e.name] {
			continue
		}
		host = host.NewFunctionBuilder().
			WithGoModuleFunction(f.hostFunc(e), e.params, e.results).
			Export(e.name)
		shim.Func(e.name, e.params, e.results)
	}

	if _, err := host.Instantiate(ctx); err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", HostModule, err)
	}
	return shim.Build(), nil
}

type entry struct {
	fn      func(mem api.Memory, args []uint64) uint64
	name    string
	params  []api.ValueType
	results []api.ValueType
}

func (f *Fixture) hostFunc(e entry) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		if f.trapping[e.name] {
			panic(fmt.Sprintf("%s: trap in %s", HostModule, e.name))
		}
		f.mu.Lock()
		r := e.fn(mod.Memory(), stack[:len(e.params)])
		f.mu.Unlock()
		if len(e.results) > 0 {
			stack[0] = r
		}
	}
}

func ptr(p uint32) ftbind.Ptr { return ftbind.Ptr(p) }

func sig(n int) []api.ValueType {
	out := make([]api.ValueType, n)
	for i := range out {
		out[i] = i32
	}
	return out
}

// errFunc is an entry returning FT_Error.
func errFunc(name string, params int, fn func(mem api.Memory, args []uint32) int32) entry {
	return entry{
		name:    name,
		params:  sig(params),
		results: sig(1),
		fn: func(mem api.Memory, args []uint64) uint64 {
			a := make([]uint32, len(args))
			for i, v := range args {
				a[i] = api.DecodeU32(v)
			}
			return api.EncodeI32(fn(mem, a))
		},
	}
}

func (f *Fixture) entries() []entry {
	return []entry{
		{name: "ftb_malloc", params: sig(1), results: sig(1), fn: func(mem api.Memory, a []uint64) uint64 {
			if f.growing {
				mem.Grow(1)
			}
			return api.EncodeU32(f.alloc(mem, api.DecodeU32(a[0])))
		}},
		{name: "ftb_free", params: sig(1), fn: func(_ api.Memory, a []uint64) uint64 {
			delete(f.blocks, api.DecodeU32(a[0]))
			return 0
		}},
		{name: "ftb_error_string", params: sig(1), results: sig(1), fn: func(mem api.Memory, a []uint64) uint64 {
			msg := fmt.Sprintf("fixture error %#x\x00", api.DecodeI32(a[0]))
			mem.WriteString(errorStringAt, msg)
			return errorStringAt
		}},
		{name: "ftb_get_char_index", params: sig(2), results: sig(1), fn: func(_ api.Memory, a []uint64) uint64 {
			code := api.DecodeU32(a[1])
			if f.faces[api.DecodeU32(a[0])] == nil || code < 32 || code >= 32+NumGlyphs-1 {
				return 0
			}
			return api.EncodeU32(code - 31)
		}},
		errFunc("ftb_init_library", 1, f.initLibrary),
		errFunc("ftb_done_library", 1, f.doneLibrary),
		errFunc("ftb_library_version", 2, func(mem api.Memory, a []uint32) int32 {
			if !f.libs[a[0]] {
				return codeBadLibrary
			}
			b := make([]byte, native.VersionSize)
			native.PutVersion(b, native.Version{Major: 2, Minor: 13, Patch: 3})
			mem.Write(a[1], b)
			return 0
		}),
		errFunc("ftb_new_memory_face", 5, f.newFace),
		errFunc("ftb_done_face", 1, f.doneFace),
		errFunc("ftb_face_info", 2, f.faceInfo),
		errFunc("ftb_get_charmap", 3, func(mem api.Memory, a []uint32) int32 {
			if f.faces[a[0]] == nil {
				return codeBadFace
			}
			if a[1] != 0 {
				return codeBadArgument
			}
			b := make([]byte, native.CharMapRecSize)
			native.PutCharMapRec(b, native.CharMapRec{Encoding: native.EncodingUnicode, PlatformID: 3, EncodingID: 1})
			mem.Write(a[2], b)
			return 0
		}),
		errFunc("ftb_select_charmap", 2, func(_ api.Memory, a []uint32) int32 {
			fc := f.faces[a[0]]
			if fc == nil {
				return codeBadFace
			}
			if native.Encoding(a[1]) != native.EncodingUnicode {
				return codeBadArgument
			}
			fc.charmap = true
			return 0
		}),
		errFunc("ftb_set_char_size", 5, func(_ api.Memory, a []uint32) int32 {
			fc := f.faces[a[0]]
			if fc == nil {
				return codeBadFace
			}
			h := int32(a[2])
			if h == 0 {
				h = int32(a[1])
			}
			res := a[4]
			if res == 0 {
				res = 72
			}
			if h < 0 {
				return codeBadArgument
			}
			fc.pixels = uint32((int64(h)*int64(res)/72 + 32) >> 6)
			return 0
		}),
		errFunc("ftb_set_pixel_sizes", 3, func(_ api.Memory, a []uint32) int32 {
			fc := f.faces[a[0]]
			if fc == nil {
				return codeBadFace
			}
			h := a[2]
			if h == 0 {
				h = a[1]
			}
			fc.pixels = h
			return 0
		}),
		errFunc("ftb_load_glyph", 4, f.loadGlyph),
		errFunc("ftb_glyph_metrics", 2, func(mem api.Memory, a []uint32) int32 {
			gl := f.glyphs[a[0]]
			if gl == nil {
				return codeBadArgument
			}
			b := make([]byte, native.GlyphMetricsRecSize)
			native.PutGlyphMetricsRec(b, gl.metrics())
			mem.Write(a[1], b)
			return 0
		}),
		errFunc("ftb_render_glyph", 2, f.renderGlyph),
		errFunc("ftb_glyph_bitmap", 2, func(mem api.Memory, a []uint32) int32 {
			gl := f.glyphs[a[0]]
			if gl == nil {
				return codeBadArgument
			}
			if !gl.rendered {
				return codeGlyphFormat
			}
			b := make([]byte, native.BitmapRecSize)
			native.PutBitmapRec(b, gl.bitmapRec())
			mem.Write(a[1], b)
			return 0
		}),
		errFunc("ftb_done_glyph", 1, func(_ api.Memory, a []uint32) int32 {
			gl := f.glyphs[a[0]]
			if gl == nil {
				return codeBadArgument
			}
			f.dropGlyph(a[0], gl)
			return 0
		}),
		errFunc("ftb_stroker_new", 2, func(mem api.Memory, a []uint32) int32 {
			if !f.libs[a[0]] {
				return codeBadLibrary
			}
			p := f.alloc(mem, 16)
			if p == 0 {
				return codeOutOfMemory
			}
			f.strokers[p] = &stroker{lib: a[0]}
			mem.WriteUint32Le(a[1], p)
			return 0
		}),
		errFunc("ftb_stroker_set", 5, func(_ api.Memory, a []uint32) int32 {
			s := f.strokers[a[0]]
			if s == nil || int32(a[1]) < 0 {
				return codeBadArgument
			}
			s.radius = int32(a[1])
			return 0
		}),
		errFunc("ftb_stroker_done", 1, func(_ api.Memory, a []uint32) int32 {
			if f.strokers[a[0]] == nil {
				return codeBadArgument
			}
			delete(f.strokers, a[0])
			delete(f.blocks, a[0])
			return 0
		}),
		errFunc("ftb_glyph_stroke", 2, func(_ api.Memory, a []uint32) int32 {
			gl, s := f.glyphs[a[0]], f.strokers[a[1]]
			if gl == nil || s == nil {
				return codeBadArgument
			}
			if gl.rendered {
				return codeGlyphFormat
			}
			gl.grow += uint32((s.radius + 63) >> 6)
			return 0
		}),
	}
}

func (f *Fixture) alloc(mem api.Memory, size uint32) uint32 {
	if size == 0 {
		size = 1
	}
	p := f.next
	end := uint64(p) + uint64(size)
	if end > uint64(mem.Size()) {
		return 0
	}
	f.next = uint32((end + align - 1) &^ (align - 1))
	f.blocks[p] = size
	return p
}

func (f *Fixture) allocString(mem api.Memory, s string) uint32 {
	p := f.alloc(mem, uint32(len(s)+1))
	if p != 0 {
		mem.WriteString(p, s+"\x00")
	}
	return p
}

func (f *Fixture) initLibrary(mem api.Memory, a []uint32) int32 {
	p := f.alloc(mem, 16)
	if p == 0 {
		return codeOutOfMemory
	}
	f.libs[p] = true
	mem.WriteUint32Le(a[0], p)
	return 0
}

// doneLibrary destroys the library together with every object created
// from it.
func (f *Fixture) doneLibrary(_ api.Memory, a []uint32) int32 {
	lib := a[0]
	if !f.libs[lib] {
		return codeBadLibrary
	}
	for p, fc := range f.faces {
		if fc.lib == lib {
			f.dropFace(p, fc)
		}
	}
	for p, gl := range f.glyphs {
		if gl.lib == lib {
			f.dropGlyph(p, gl)
		}
	}
	for p, s := range f.strokers {
		if s.lib == lib {
			delete(f.strokers, p)
			delete(f.blocks, p)
		}
	}
	delete(f.libs, lib)
	delete(f.blocks, lib)
	return 0
}

func (f *Fixture) newFace(mem api.Memory, a []uint32) int32 {
	lib, data, size, index, out := a[0], a[1], a[2], int32(a[3]), a[4]
	if !f.libs[lib] {
		return codeBadLibrary
	}
	if data == 0 || size < uint32(len(Magic)) {
		return codeUnknownFormat
	}
	b, ok := mem.Read(data, uint32(len(Magic)))
	if !ok {
		return codeBadArgument
	}
	if string(b) != Magic {
		return codeUnknownFormat
	}
	if index != 0 {
		return codeBadArgument
	}

	p := f.alloc(mem, 16)
	if p == 0 {
		return codeOutOfMemory
	}
	fc := &face{lib: lib, family: f.allocString(mem, FamilyName), style: f.allocString(mem, StyleName)}
	f.faces[p] = fc
	mem.WriteUint32Le(out, p)
	return 0
}

func (f *Fixture) doneFace(_ api.Memory, a []uint32) int32 {
	fc := f.faces[a[0]]
	if fc == nil {
		return codeBadFace
	}
	f.dropFace(a[0], fc)
	return 0
}

func (f *Fixture) dropFace(p uint32, fc *face) {
	delete(f.blocks, fc.family)
	delete(f.blocks, fc.style)
	delete(f.blocks, p)
	delete(f.faces, p)
}

func (f *Fixture) dropGlyph(p uint32, gl *glyph) {
	if gl.bitmap != 0 {
		delete(f.blocks, gl.bitmap)
	}
	delete(f.blocks, p)
	delete(f.glyphs, p)
}

func (f *Fixture) faceInfo(mem api.Memory, a []uint32) int32 {
	fc := f.faces[a[0]]
	if fc == nil {
		return codeBadFace
	}
	rec := native.FaceRec{
		NumFaces:           1,
		FaceFlags:          native.FaceFlagScalable | native.FaceFlagSFNT | native.FaceFlagHorizontal,
		NumGlyphs:          NumGlyphs,
		FamilyName:         ptr(fc.family),
		StyleName:          ptr(fc.style),
		BBox:               native.BBox{XMin: -50, YMin: -200, XMax: 950, YMax: 800},
		NumCharMaps:        1,
		UnitsPerEM:         UnitsPerEM,
		Ascender:           800,
		Descender:          -200,
		Height:             1200,
		MaxAdvanceWidth:    1000,
		MaxAdvanceHeight:   1200,
		UnderlinePosition:  -100,
		UnderlineThickness: 50,
	}
	b := make([]byte, native.FaceRecSize)
	native.PutFaceRec(b, rec)
	mem.Write(a[1], b)
	return 0
}

func (f *Fixture) loadGlyph(mem api.Memory, a []uint32) int32 {
	fc := f.faces[a[0]]
	if fc == nil {
		return codeBadFace
	}
	index, flags := a[1], native.LoadFlags(a[2])
	if index >= NumGlyphs {
		return codeBadGlyph
	}
	size := fc.pixels
	if flags&native.LoadNoScale != 0 {
		size = UnitsPerEM
	} else if size == 0 {
		return codeBadSize
	}

	p := f.alloc(mem, 16)
	if p == 0 {
		return codeOutOfMemory
	}
	gl := &glyph{lib: fc.lib, index: index, size: size}
	f.glyphs[p] = gl
	if flags&native.LoadRender != 0 {
		mode := native.RenderNormal
		if flags&native.LoadMonochrome != 0 {
			mode = native.RenderMono
		}
		if code := f.render(mem, gl, mode); code != 0 {
			f.dropGlyph(p, gl)
			return code
		}
	}
	mem.WriteUint32Le(a[3], p)
	return 0
}

func (f *Fixture) renderGlyph(mem api.Memory, a []uint32) int32 {
	gl := f.glyphs[a[0]]
	if gl == nil {
		return codeBadArgument
	}
	return f.render(mem, gl, native.RenderMode(a[1]))
}

// render fills a box half as wide as the glyph is tall. Glyph 0 (.notdef)
// and glyph 1 (space) are blank.
func (f *Fixture) render(mem api.Memory, gl *glyph, mode native.RenderMode) int32 {
	if gl.rendered {
		return 0
	}
	if mode != native.RenderNormal && mode != native.RenderMono {
		return codeCannotRender
	}
	gl.mono = mode == native.RenderMono
	w, h := gl.box()
	if w*h > 0 {
		pitch := gl.pitch()
		p := f.alloc(mem, pitch*h)
		if p == 0 {
			return codeOutOfMemory
		}
		buf := make([]byte, pitch*h)
		for y := uint32(0); y < h; y++ {
			for x := uint32(0); x < w; x++ {
				if gl.mono {
					buf[y*pitch+x/8] |= 0x80 >> (x % 8)
				} else {
					buf[y*pitch+x] = 0xff
				}
			}
		}
		mem.Write(p, buf)
		gl.bitmap = p
	}
	gl.rendered = true
	return 0
}

func (gl *glyph) box() (w, h uint32) {
	if gl.index < 2 {
		return 0, 0
	}
	return gl.size/2 + 2*gl.grow, gl.size + 2*gl.grow
}

func (gl *glyph) pitch() uint32 {
	w, _ := gl.box()
	if gl.mono {
		return (w + 7) / 8
	}
	return w
}

func (gl *glyph) metrics() native.GlyphMetricsRec {
	w, h := gl.box()
	return native.GlyphMetricsRec{
		Width:        int64(w) << 6,
		Height:       int64(h) << 6,
		HoriBearingX: -int64(gl.grow) << 6,
		HoriBearingY: int64(gl.size*4/5+gl.grow) << 6,
		HoriAdvance:  int64(gl.size*3/5) << 6,
		VertBearingX: -int64(w/2) << 6,
		VertBearingY: int64(gl.size/10) << 6,
		VertAdvance:  int64(gl.size*6/5) << 6,
	}
}

func (gl *glyph) bitmapRec() native.BitmapRec {
	w, h := gl.box()
	mode := native.PixelModeGray
	if gl.mono {
		mode = native.PixelModeMono
	}
	if w*h == 0 {
		return native.BitmapRec{PixelMode: mode}
	}
	return native.BitmapRec{
		Buffer:    ptr(gl.bitmap),
		Rows:      h,
		Width:     w,
		Pitch:     int32(gl.pitch()),
		Left:      -int32(gl.grow),
		Top:       int32(gl.size*4/5 + gl.grow),
		PixelMode: mode,
	}
}
