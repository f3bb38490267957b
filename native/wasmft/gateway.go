package wasmft

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/ftbind"
	"github.com/wippyai/ftbind/errors"
	"github.com/wippyai/ftbind/native"
)

// Export names of the ftb_* ABI.
const (
	entryMalloc        = "ftb_malloc"
	entryFree          = "ftb_free"
	entryInitLibrary   = "ftb_init_library"
	entryDoneLibrary   = "ftb_done_library"
	entryVersion       = "ftb_library_version"
	entryErrorString   = "ftb_error_string"
	entryNewMemoryFace = "ftb_new_memory_face"
	entryDoneFace      = "ftb_done_face"
	entryFaceInfo      = "ftb_face_info"
	entryCharMap       = "ftb_get_charmap"
	entrySelectCharMap = "ftb_select_charmap"
	entrySetCharSize   = "ftb_set_char_size"
	entrySetPixelSizes = "ftb_set_pixel_sizes"
	entryCharIndex     = "ftb_get_char_index"
	entryLoadGlyph     = "ftb_load_glyph"
	entryGlyphMetrics  = "ftb_glyph_metrics"
	entryRenderGlyph   = "ftb_render_glyph"
	entryGlyphBitmap   = "ftb_glyph_bitmap"
	entryDoneGlyph     = "ftb_done_glyph"
	entryStrokerNew    = "ftb_stroker_new"
	entryStrokerSet    = "ftb_stroker_set"
	entryStrokerDone   = "ftb_stroker_done"
	entryGlyphStroke   = "ftb_glyph_stroke"
)

// Entries lists every ftb_* export the gateway binds.
var Entries = []string{
	entryMalloc, entryFree, entryInitLibrary, entryDoneLibrary, entryVersion,
	entryErrorString, entryNewMemoryFace, entryDoneFace, entryFaceInfo,
	entryCharMap, entrySelectCharMap, entrySetCharSize, entrySetPixelSizes,
	entryCharIndex, entryLoadGlyph, entryGlyphMetrics, entryRenderGlyph,
	entryGlyphBitmap, entryDoneGlyph, entryStrokerNew, entryStrokerSet,
	entryStrokerDone, entryGlyphStroke,
}

var required = []string{entryMalloc, entryFree, entryInitLibrary, entryDoneLibrary}

const (
	wasiModule = "wasi_snapshot_preview1"

	// maxErrorString bounds ftb_error_string results.
	maxErrorString = 256
)

var (
	stInvalidArgument      = native.Status(errors.CodeInvalidArgument)
	stInvalidLibraryHandle = native.Status(errors.CodeInvalidLibraryHandle)
	stOutOfMemory          = native.Status(errors.CodeOutOfMemory)
)

// Gateway runs the ftb_* ABI of a wasm module.
//
// A wazero module instance is not safe for concurrent calls, so every call
// holds mu. The scratch block receives out-parameters and is only touched
// under mu.
type Gateway struct {
	runtime     wazero.Runtime
	module      api.Module
	mem         memory
	fns         map[string]api.Function
	name        string
	scratch     uint32
	ownsRuntime bool
	mu          sync.Mutex
	closed      bool
}

var _ native.Gateway = (*Gateway)(nil)

// Load compiles and instantiates wasm and binds its exports.
func Load(ctx context.Context, wasm []byte, cfg *Config) (*Gateway, error) {
	c := cfg.withDefaults()

	g := &Gateway{runtime: c.Runtime, name: c.ModuleName}
	if g.runtime == nil {
		rc := wazero.NewRuntimeConfig()
		if c.MemoryLimitPages > 0 {
			rc = rc.WithMemoryLimitPages(c.MemoryLimitPages)
		}
		g.runtime = wazero.NewRuntimeWithConfig(ctx, rc)
		g.ownsRuntime = true
	}

	if err := g.instantiate(ctx, wasm); err != nil {
		return nil, multierr.Append(err, g.Close(ctx))
	}

	Logger().Debug("wasm gateway loaded",
		zap.String("module", g.name),
		zap.Int("entries", len(g.fns)),
		zap.Uint32("memory", g.mem.mem.Size()))
	return g, nil
}

func (g *Gateway) instantiate(ctx context.Context, wasm []byte) error {
	compiled, err := g.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return errors.Load("compile module", err)
	}

	if importsWASI(compiled) && g.runtime.Module(wasiModule) == nil {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, g.runtime); err != nil {
			// A concurrent loader sharing the runtime may have won the race.
			if g.runtime.Module(wasiModule) == nil {
				return errors.Load("instantiate WASI", err)
			}
		}
	}

	// Library modules are reactors: no _start, optional _initialize.
	modCfg := wazero.NewModuleConfig().WithName(g.name).WithStartFunctions()
	g.module, err = g.runtime.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return errors.Load("instantiate module", err)
	}
	if initFn := g.module.ExportedFunction("_initialize"); initFn != nil {
		if _, err := initFn.Call(ctx); err != nil {
			return errors.Load("_initialize", err)
		}
	}

	mem := g.module.ExportedMemory("memory")
	if mem == nil {
		return errors.Load("module does not export memory", nil)
	}
	g.mem = memory{mem: mem, mu: &g.mu}

	g.fns = make(map[string]api.Function, len(Entries))
	for _, name := range Entries {
		if fn := g.module.ExportedFunction(name); fn != nil {
			g.fns[name] = fn
		}
	}
	for _, name := range required {
		if g.fns[name] == nil {
			return errors.Load(fmt.Sprintf("module does not export %s", name), nil)
		}
	}

	ptr, st := g.Alloc(ctx, native.ScratchSize)
	if !st.OK() {
		return errors.Load("allocate scratch block", errors.Translate(int32(st)))
	}
	g.scratch = uint32(ptr)
	return nil
}

func importsWASI(compiled wazero.CompiledModule) bool {
	for _, fn := range compiled.ImportedFunctions() {
		if mod, _, ok := fn.Import(); ok && mod == wasiModule {
			return true
		}
	}
	return false
}

func (g *Gateway) Name() string { return "wasm" }

func (g *Gateway) Memory() ftbind.Memory { return g.mem }

// Exported reports whether the module provides entry.
func (g *Gateway) Exported(entry string) bool {
	_, ok := g.fns[entry]
	return ok
}

// invoke calls entry with g.mu held. The first result, if any, is returned
// raw.
func (g *Gateway) invoke(ctx context.Context, entry string, args ...uint64) (uint64, native.Status) {
	if g.closed {
		return 0, stInvalidLibraryHandle
	}
	fn := g.fns[entry]
	if fn == nil {
		return 0, native.StatusMissingEntry
	}
	res, err := fn.Call(ctx, args...)
	if err != nil {
		Logger().Warn("native call trapped", zap.String("entry", entry), zap.Error(err))
		return 0, native.StatusTrap
	}
	if len(res) == 0 {
		return 0, native.StatusOK
	}
	return res[0], native.StatusOK
}

// call invokes an entry that returns an FT_Error.
func (g *Gateway) call(ctx context.Context, entry string, args ...uint64) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, st := g.invoke(ctx, entry, args...)
	if !st.OK() {
		return st
	}
	return native.Status(api.DecodeI32(r))
}

// callOut invokes an entry whose last argument is an out-parameter of size
// bytes and returns a copy of the record.
func (g *Gateway) callOut(ctx context.Context, entry string, size uint32, args ...uint64) ([]byte, native.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, stInvalidLibraryHandle
	}
	if !g.mem.mem.Write(g.scratch, make([]byte, size)) {
		return nil, native.StatusTrap
	}
	r, st := g.invoke(ctx, entry, append(args, uint64(g.scratch))...)
	if !st.OK() {
		return nil, st
	}
	if st := native.Status(api.DecodeI32(r)); !st.OK() {
		return nil, st
	}
	b, ok := g.mem.mem.Read(g.scratch, size)
	if !ok {
		return nil, native.StatusTrap
	}
	return append([]byte(nil), b...), native.StatusOK
}

func (g *Gateway) callPtr(ctx context.Context, entry string, args ...uint64) (ftbind.Ptr, native.Status) {
	b, st := g.callOut(ctx, entry, 4, args...)
	if !st.OK() {
		return 0, st
	}
	return ftbind.Ptr(binary.LittleEndian.Uint32(b)), st
}

// ptr32 narrows a pointer to the wasm32 address space.
func ptr32(p ftbind.Ptr) (uint64, bool) {
	if p > math.MaxUint32 {
		return 0, false
	}
	return api.EncodeU32(uint32(p)), true
}

// long32 narrows an FT_Long argument.
func long32(v int64) (uint64, bool) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, false
	}
	return api.EncodeI32(int32(v)), true
}

func ptrs(ps ...ftbind.Ptr) ([]uint64, bool) {
	out := make([]uint64, len(ps))
	for i, p := range ps {
		v, ok := ptr32(p)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func (g *Gateway) Alloc(ctx context.Context, size uint32) (ftbind.Ptr, native.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, st := g.invoke(ctx, entryMalloc, api.EncodeU32(size))
	if !st.OK() {
		return 0, st
	}
	p := api.DecodeU32(r)
	if p == 0 {
		return 0, stOutOfMemory
	}
	return ftbind.Ptr(p), native.StatusOK
}

func (g *Gateway) Free(ctx context.Context, ptr ftbind.Ptr) native.Status {
	if ptr == 0 {
		return native.StatusOK
	}
	p, ok := ptr32(ptr)
	if !ok {
		return stInvalidArgument
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	_, st := g.invoke(ctx, entryFree, p)
	if !st.OK() {
		Logger().Warn("free failed", zap.Uint64("ptr", uint64(ptr)), zap.Int32("status", int32(st)))
	}
	return st
}

func (g *Gateway) InitLibrary(ctx context.Context) (ftbind.Ptr, native.Status) {
	return g.callPtr(ctx, entryInitLibrary)
}

func (g *Gateway) DoneLibrary(ctx context.Context, lib ftbind.Ptr) native.Status {
	return g.done(ctx, entryDoneLibrary, lib)
}

func (g *Gateway) done(ctx context.Context, entry string, p ftbind.Ptr) native.Status {
	v, ok := ptr32(p)
	if !ok {
		return stInvalidArgument
	}
	return g.call(ctx, entry, v)
}

func (g *Gateway) LibraryVersion(ctx context.Context, lib ftbind.Ptr) (native.Version, native.Status) {
	l, ok := ptr32(lib)
	if !ok {
		return native.Version{}, stInvalidArgument
	}
	b, st := g.callOut(ctx, entryVersion, native.VersionSize, l)
	if !st.OK() {
		return native.Version{}, st
	}
	v, _ := native.DecodeVersion(b)
	return v, st
}

func (g *Gateway) ErrorString(ctx context.Context, code int32) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, st := g.invoke(ctx, entryErrorString, api.EncodeI32(code))
	if !st.OK() || api.DecodeU32(r) == 0 {
		return "", false
	}
	return g.mem.cstring(api.DecodeU32(r), maxErrorString)
}

func (g *Gateway) NewMemoryFace(ctx context.Context, lib, data ftbind.Ptr, size uint32, index int64) (ftbind.Ptr, native.Status) {
	args, ok := ptrs(lib, data)
	idx, ok2 := long32(index)
	if !ok || !ok2 {
		return 0, stInvalidArgument
	}
	return g.callPtr(ctx, entryNewMemoryFace, args[0], args[1], api.EncodeU32(size), idx)
}

func (g *Gateway) DoneFace(ctx context.Context, face ftbind.Ptr) native.Status {
	return g.done(ctx, entryDoneFace, face)
}

func (g *Gateway) FaceInfo(ctx context.Context, face ftbind.Ptr) (native.FaceRec, native.Status) {
	f, ok := ptr32(face)
	if !ok {
		return native.FaceRec{}, stInvalidArgument
	}
	b, st := g.callOut(ctx, entryFaceInfo, native.FaceRecSize, f)
	if !st.OK() {
		return native.FaceRec{}, st
	}
	rec, _ := native.DecodeFaceRec(b)
	return rec, st
}

func (g *Gateway) CharMap(ctx context.Context, face ftbind.Ptr, i int32) (native.CharMapRec, native.Status) {
	f, ok := ptr32(face)
	if !ok {
		return native.CharMapRec{}, stInvalidArgument
	}
	b, st := g.callOut(ctx, entryCharMap, native.CharMapRecSize, f, api.EncodeI32(i))
	if !st.OK() {
		return native.CharMapRec{}, st
	}
	rec, _ := native.DecodeCharMapRec(b)
	return rec, st
}

func (g *Gateway) SelectCharMap(ctx context.Context, face ftbind.Ptr, enc native.Encoding) native.Status {
	f, ok := ptr32(face)
	if !ok {
		return stInvalidArgument
	}
	return g.call(ctx, entrySelectCharMap, f, api.EncodeU32(uint32(enc)))
}

func (g *Gateway) SetCharSize(ctx context.Context, face ftbind.Ptr, width, height int64, hres, vres uint32) native.Status {
	f, ok := ptr32(face)
	w, okw := long32(width)
	h, okh := long32(height)
	if !ok || !okw || !okh {
		return stInvalidArgument
	}
	return g.call(ctx, entrySetCharSize, f, w, h, api.EncodeU32(hres), api.EncodeU32(vres))
}

func (g *Gateway) SetPixelSizes(ctx context.Context, face ftbind.Ptr, width, height uint32) native.Status {
	f, ok := ptr32(face)
	if !ok {
		return stInvalidArgument
	}
	return g.call(ctx, entrySetPixelSizes, f, api.EncodeU32(width), api.EncodeU32(height))
}

func (g *Gateway) CharIndex(ctx context.Context, face ftbind.Ptr, code uint32) (uint32, native.Status) {
	f, ok := ptr32(face)
	if !ok {
		return 0, stInvalidArgument
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	r, st := g.invoke(ctx, entryCharIndex, f, api.EncodeU32(code))
	return api.DecodeU32(r), st
}

func (g *Gateway) LoadGlyph(ctx context.Context, face ftbind.Ptr, index uint32, flags native.LoadFlags) (ftbind.Ptr, native.Status) {
	f, ok := ptr32(face)
	if !ok {
		return 0, stInvalidArgument
	}
	return g.callPtr(ctx, entryLoadGlyph, f, api.EncodeU32(index), api.EncodeU32(uint32(flags)))
}

func (g *Gateway) GlyphMetrics(ctx context.Context, glyph ftbind.Ptr) (native.GlyphMetricsRec, native.Status) {
	gl, ok := ptr32(glyph)
	if !ok {
		return native.GlyphMetricsRec{}, stInvalidArgument
	}
	b, st := g.callOut(ctx, entryGlyphMetrics, native.GlyphMetricsRecSize, gl)
	if !st.OK() {
		return native.GlyphMetricsRec{}, st
	}
	rec, _ := native.DecodeGlyphMetricsRec(b)
	return rec, st
}

func (g *Gateway) RenderGlyph(ctx context.Context, glyph ftbind.Ptr, mode native.RenderMode) native.Status {
	gl, ok := ptr32(glyph)
	if !ok {
		return stInvalidArgument
	}
	return g.call(ctx, entryRenderGlyph, gl, api.EncodeU32(uint32(mode)))
}

func (g *Gateway) GlyphBitmap(ctx context.Context, glyph ftbind.Ptr) (native.BitmapRec, native.Status) {
	gl, ok := ptr32(glyph)
	if !ok {
		return native.BitmapRec{}, stInvalidArgument
	}
	b, st := g.callOut(ctx, entryGlyphBitmap, native.BitmapRecSize, gl)
	if !st.OK() {
		return native.BitmapRec{}, st
	}
	rec, _ := native.DecodeBitmapRec(b)
	return rec, st
}

func (g *Gateway) DoneGlyph(ctx context.Context, glyph ftbind.Ptr) native.Status {
	return g.done(ctx, entryDoneGlyph, glyph)
}

func (g *Gateway) NewStroker(ctx context.Context, lib ftbind.Ptr) (ftbind.Ptr, native.Status) {
	l, ok := ptr32(lib)
	if !ok {
		return 0, stInvalidArgument
	}
	return g.callPtr(ctx, entryStrokerNew, l)
}

func (g *Gateway) SetStroker(ctx context.Context, stroker ftbind.Ptr, radius int64, lineCap native.LineCap, lineJoin native.LineJoin, miterLimit int64) native.Status {
	s, ok := ptr32(stroker)
	r, okr := long32(radius)
	m, okm := long32(miterLimit)
	if !ok || !okr || !okm {
		return stInvalidArgument
	}
	return g.call(ctx, entryStrokerSet, s, r, api.EncodeU32(uint32(lineCap)), api.EncodeU32(uint32(lineJoin)), m)
}

func (g *Gateway) DoneStroker(ctx context.Context, stroker ftbind.Ptr) native.Status {
	return g.done(ctx, entryStrokerDone, stroker)
}

func (g *Gateway) StrokeGlyph(ctx context.Context, glyph, stroker ftbind.Ptr) native.Status {
	args, ok := ptrs(glyph, stroker)
	if !ok {
		return stInvalidArgument
	}
	return g.call(ctx, entryGlyphStroke, args...)
}

// Close releases the scratch block and closes the module, and the runtime
// if the gateway created it. It is safe to call more than once.
func (g *Gateway) Close(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}

	var err error
	if g.module != nil {
		if g.scratch != 0 {
			if _, st := g.invoke(ctx, entryFree, api.EncodeU32(g.scratch)); !st.OK() {
				err = errors.From(errors.Translate(int32(st))).Op("free scratch").Build()
			}
			g.scratch = 0
		}
		err = multierr.Append(err, g.module.Close(ctx))
	}
	if g.ownsRuntime {
		err = multierr.Append(err, g.runtime.Close(ctx))
	}
	g.closed = true
	return err
}
