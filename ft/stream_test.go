package ft

import (
	"bytes"
	"context"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/wippyai/ftbind/errors"
)

func TestStream_SharedByFaces(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	s, err := h.lib.NewStream(ctx, goregular.TTF)
	must(t, "NewStream", err)
	if s.Size() != uint32(len(goregular.TTF)) {
		t.Errorf("Size = %d", s.Size())
	}

	a, err := s.NewFace(ctx, 0)
	must(t, "NewFace a", err)
	b, err := s.NewFace(ctx, 0)
	must(t, "NewFace b", err)
	if a.Stream() != s || b.Stream() != s {
		t.Error("faces do not report their stream")
	}

	wantKind(t, "stream Release with faces", s.Release(ctx), errors.KindResourceInUse)
	must(t, "a Release", a.Release(ctx))
	wantKind(t, "stream Release with one face", s.Release(ctx), errors.KindResourceInUse)
	must(t, "b Release", b.Release(ctx))

	// Faces opened from a caller's stream leave it alone.
	if !s.Live() {
		t.Fatal("stream released with its faces")
	}
	must(t, "stream Release", s.Release(ctx))
	must(t, "library Release", h.lib.Release(ctx))
}

func TestStream_PrivateStreamFollowsFace(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	f := h.face(t, 0)
	s := f.Stream()

	if !s.Live() || h.reg.Len() != 3 {
		t.Fatalf("stream live = %v, Len = %d", s.Live(), h.reg.Len())
	}
	wantKind(t, "private stream Release", s.Release(ctx), errors.KindResourceInUse)

	must(t, "face Release", f.Release(ctx))
	if s.Live() {
		t.Error("private stream outlived its face")
	}
	if h.reg.Len() != 1 {
		t.Errorf("registry Len = %d, want 1", h.reg.Len())
	}
}

func TestStream_View(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	s, err := h.lib.NewStream(ctx, goregular.TTF)
	must(t, "NewStream", err)

	buf, err := s.View(0, 4)
	must(t, "View", err)
	got, err := buf.Bytes()
	must(t, "Bytes", err)
	if !bytes.Equal(got, goregular.TTF[:4]) {
		t.Errorf("Bytes = % x, want % x", got, goregular.TTF[:4])
	}
	if buf.Owner() != s.Handle() {
		t.Error("view owner is not the stream")
	}

	_, err = s.View(s.Size()-1, 2)
	wantKind(t, "View past end", err, errors.KindInvalidArgument)

	must(t, "Release", s.Release(ctx))
	_, err = buf.Bytes()
	wantKind(t, "Bytes after Release", err, errors.KindAlreadyReleased)
	_, err = s.View(0, 4)
	wantKind(t, "View after Release", err, errors.KindInvalidHandle)
	_, err = s.NewFace(ctx, 0)
	wantKind(t, "NewFace after Release", err, errors.KindInvalidHandle)
}
