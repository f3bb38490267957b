package ft

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/wippyai/ftbind"
	"github.com/wippyai/ftbind/errors"
	"github.com/wippyai/ftbind/native"
	"github.com/wippyai/ftbind/native/soft"
	"github.com/wippyai/ftbind/registry"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	if h.lib.Handle() == 0 || !h.lib.Live() {
		t.Fatalf("handle = %v live = %v", h.lib.Handle(), h.lib.Live())
	}
	if h.reg.Len() != 1 {
		t.Errorf("registry Len = %d, want 1", h.reg.Len())
	}
	if h.lib.Gateway() != h.gw {
		t.Error("Gateway does not return the gateway passed to Open")
	}

	v, err := h.lib.Version(ctx)
	must(t, "Version", err)
	if v != soft.DefaultVersion {
		t.Errorf("Version = %s, want %s", v, soft.DefaultVersion)
	}

	must(t, "Release", h.lib.Release(ctx))
	if h.lib.Live() || h.reg.Len() != 0 {
		t.Errorf("after Release: live = %v, Len = %d", h.lib.Live(), h.reg.Len())
	}
	if s := h.gw.Stats(); s.LiveBlocks != 0 {
		t.Errorf("LiveBlocks = %d after Release", s.LiveBlocks)
	}

	wantKind(t, "second Release", h.lib.Release(ctx), errors.KindAlreadyReleased)
	if err := h.lib.Close(ctx); err != nil {
		t.Errorf("Close after Release = %v", err)
	}
	_, err = h.lib.Version(ctx)
	wantKind(t, "Version after Release", err, errors.KindInvalidHandle)
	_, err = h.lib.NewFace(ctx, goregular.TTF, 0)
	wantKind(t, "NewFace after Release", err, errors.KindInvalidHandle)
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, nil)
	wantKind(t, "nil gateway", err, errors.KindInvalidArgument)

	gw := soft.New(nil)
	gw.Close(ctx)
	reg := registry.New()
	_, err = Open(ctx, gw, WithRegistry(reg))
	if err == nil {
		t.Fatal("Open on a closed gateway succeeded")
	}
	if e, ok := errors.As(err); !ok || e.Phase != errors.PhaseNative || !e.HasCode {
		t.Errorf("err = %v, want a native status error", err)
	}
	if reg.Len() != 0 {
		t.Errorf("failed Open registered %d handles", reg.Len())
	}
}

func TestOpen_RegistrationFailure(t *testing.T) {
	ctx := context.Background()
	gw := soft.New(nil)
	reg := registry.New(registry.WithLimit(1))
	if _, err := reg.Register(1, registry.KindLibrary, 0); err != nil {
		t.Fatal(err)
	}

	_, err := Open(ctx, gw, WithRegistry(reg))
	wantKind(t, "Open", err, errors.KindOutOfMemory)
	if gw.Objects() != 0 || gw.Stats().LiveBlocks != 0 {
		t.Errorf("objects = %d blocks = %d after refused registration", gw.Objects(), gw.Stats().LiveBlocks)
	}
}

func TestLibrary_ErrorString(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	want, _ := errors.Message(errors.CodeInvalidArgument)
	msg, err := h.lib.ErrorString(ctx, errors.CodeInvalidArgument)
	if err != nil || msg != want {
		t.Errorf("ErrorString(0x06) = %q, %v, want %q", msg, err, want)
	}
	if _, known := errors.Message(unlistedCode); known {
		t.Fatalf("code %#x is in the error table", unlistedCode)
	}
	msg, err = h.lib.ErrorString(ctx, unlistedCode)
	if err != nil || msg != "" {
		t.Errorf("ErrorString(%#x) = %q, %v", unlistedCode, msg, err)
	}

	h.lib.Release(ctx)
	_, err = h.lib.ErrorString(ctx, errors.CodeInvalidArgument)
	wantKind(t, "ErrorString after Release", err, errors.KindInvalidHandle)
}

// unlistedCode is a status the error table does not know.
const unlistedCode = 0xf0

// describing fails SetPixelSizes with unlistedCode and describes every code
// the way FT_Error_String does.
type describing struct {
	native.Gateway
}

func (describing) SetPixelSizes(context.Context, ftbind.Ptr, uint32, uint32) native.Status {
	return native.Status(unlistedCode)
}

func (describing) ErrorString(_ context.Context, code int32) (string, bool) {
	return fmt.Sprintf("100%% unlisted %#x", code), true
}

func TestLibrary_ErrorStringFallback(t *testing.T) {
	ctx := context.Background()
	gw := soft.New(nil)
	defer gw.Close(ctx)
	lib, err := Open(ctx, describing{gw}, WithRegistry(registry.New()))
	must(t, "Open", err)
	defer lib.Close(ctx)

	msg, err := lib.ErrorString(ctx, unlistedCode)
	if err != nil || msg != "100% unlisted 0xf0" {
		t.Errorf("ErrorString(%#x) = %q, %v", unlistedCode, msg, err)
	}
	want, _ := errors.Message(errors.CodeInvalidArgument)
	if msg, _ := lib.ErrorString(ctx, errors.CodeInvalidArgument); msg != want {
		t.Errorf("ErrorString(0x06) = %q, want table message %q", msg, want)
	}

	f, err := lib.NewFace(ctx, goregular.TTF, 0)
	must(t, "NewFace", err)
	defer f.Close(ctx)

	err = f.SetPixelSizes(ctx, 0, 16)
	e, ok := errors.As(err)
	if !ok {
		t.Fatalf("SetPixelSizes err = %v", err)
	}
	if e.Kind != errors.KindNativeFailure || e.Code != unlistedCode {
		t.Errorf("kind = %q code = %#x, want native_failure %#x", e.Kind, e.Code, unlistedCode)
	}
	if e.Detail != "100% unlisted 0xf0" {
		t.Errorf("Detail = %q", e.Detail)
	}
	if e.Op != "set_pixel_sizes" || e.Handle != uint64(f.Handle()) {
		t.Errorf("Op = %q Handle = %d", e.Op, e.Handle)
	}
}

func TestLibrary_ReleaseWithLiveChildren(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	f := h.face(t, 0)

	wantKind(t, "Release with live face", h.lib.Release(ctx), errors.KindResourceInUse)
	if !h.lib.Live() {
		t.Fatal("library released despite live children")
	}
	if _, err := h.lib.Version(ctx); err != nil {
		t.Errorf("Version after refused Release: %v", err)
	}

	must(t, "face Release", f.Release(ctx))
	must(t, "library Release", h.lib.Release(ctx))
	if s := h.gw.Stats(); s.LiveBlocks != 0 {
		t.Errorf("LiveBlocks = %d", s.LiveBlocks)
	}
}

func TestLibrary_MalformedFont(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	before := h.gw.Stats()

	_, err := h.lib.NewFace(ctx, []byte("definitely not a font file"), 0)
	wantKind(t, "NewFace", err, errors.KindUnsupportedFormat)
	if e, ok := errors.As(err); !ok || e.Code != errors.CodeUnknownFileFormat {
		t.Errorf("err = %v, want Unknown_File_Format", err)
	}
	if h.reg.Len() != 1 {
		t.Errorf("registry Len = %d, want only the library", h.reg.Len())
	}
	if s := h.gw.Stats(); s.LiveBlocks != before.LiveBlocks {
		t.Errorf("LiveBlocks = %d, want %d", s.LiveBlocks, before.LiveBlocks)
	}

	_, err = h.lib.NewFace(ctx, goregular.TTF, 3)
	wantKind(t, "face index out of range", err, errors.KindInvalidArgument)
}

func TestLibrary_NewStreamArguments(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.lib.NewStream(ctx, nil)
	wantKind(t, "nil data", err, errors.KindInvalidArgument)
	_, err = h.lib.NewFace(ctx, []byte{}, 0)
	wantKind(t, "empty data", err, errors.KindInvalidArgument)
	if h.reg.Len() != 1 {
		t.Errorf("registry Len = %d", h.reg.Len())
	}
}

func TestLibrary_RegistrationFailureLeavesNoNativeObjects(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		limit int
		open  func(l *Library) error
	}{
		{"face", 2, func(l *Library) error {
			_, err := l.NewFace(ctx, goregular.TTF, 0)
			return err
		}},
		{"stream", 1, func(l *Library) error {
			_, err := l.NewStream(ctx, goregular.TTF)
			return err
		}},
		{"stroker", 1, func(l *Library) error {
			_, err := l.NewStroker(ctx)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, registry.WithLimit(tt.limit))
			before := h.gw.Stats()
			objects := h.gw.Objects()

			wantKind(t, "open", tt.open(h.lib), errors.KindOutOfMemory)
			if s := h.gw.Stats(); s.LiveBlocks != before.LiveBlocks {
				t.Errorf("LiveBlocks = %d, want %d", s.LiveBlocks, before.LiveBlocks)
			}
			if h.gw.Objects() != objects {
				t.Errorf("Objects = %d, want %d", h.gw.Objects(), objects)
			}
			if h.reg.Len() != 1 {
				t.Errorf("registry Len = %d, want 1", h.reg.Len())
			}
			must(t, "library Release", h.lib.Release(ctx))
		})
	}
}

func TestLibrary_NewFaceFromFile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	path := filepath.Join(t.TempDir(), "goregular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := h.lib.NewFaceFromFile(ctx, path, 0)
	must(t, "NewFaceFromFile", err)
	must(t, "Release", f.Release(ctx))

	missing := filepath.Join(t.TempDir(), "missing%d.ttf")
	_, err = h.lib.NewFaceFromFile(ctx, missing, 0)
	e, ok := errors.As(err)
	if !ok || e.Kind != errors.KindNativeFailure || e.Code != errors.CodeCannotOpenResource {
		t.Errorf("missing file err = %v", err)
	} else if e.Detail != missing {
		t.Errorf("Detail = %q, want the path verbatim", e.Detail)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file err does not wrap fs.ErrNotExist: %v", err)
	}
}

func TestLibrary_NewFaceFromReader(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	f, err := h.lib.NewFaceFromReader(ctx, bytes.NewReader(goregular.TTF), 0)
	must(t, "NewFaceFromReader", err)
	info, err := f.Info(ctx)
	must(t, "Info", err)
	if info.NumGlyphs == 0 {
		t.Error("no glyphs")
	}
	f.Release(ctx)

	_, err = h.lib.NewFaceFromReader(ctx, iotest.ErrReader(fs.ErrClosed), 0)
	if !errors.Is(err, fs.ErrClosed) {
		t.Errorf("reader error not wrapped: %v", err)
	}
}
