package main

import (
	"context"
	"image"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/wippyai/ftbind/ft"
	"github.com/wippyai/ftbind/native/soft"
	"github.com/wippyai/ftbind/registry"
)

func TestAsciiArt(t *testing.T) {
	img := image.NewAlpha(image.Rect(0, 0, 3, 2))
	img.Pix = []byte{0, 0x80, 0xff, 0xff, 0, 0}

	if got, want := asciiArt(img, 80), " =@\n@  \n"; got != want {
		t.Errorf("asciiArt = %q, want %q", got, want)
	}
	if got, want := asciiArt(img, 2), " =\n@ \n"; got != want {
		t.Errorf("clipped asciiArt = %q, want %q", got, want)
	}
}

func TestRenderText(t *testing.T) {
	ctx := context.Background()
	reg := registry.New()
	lib, err := ft.Open(ctx, soft.New(nil), ft.WithRegistry(reg))
	if err != nil {
		t.Fatal(err)
	}
	face, err := lib.NewFace(ctx, goregular.TTF, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := face.SetPixelSizes(ctx, 0, 16); err != nil {
		t.Fatal(err)
	}

	art, err := renderText(ctx, face, "Hi!", 40)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(art, "\n"), "\n")
	if len(lines) < 8 {
		t.Fatalf("only %d rows:\n%s", len(lines), art)
	}
	for _, l := range lines {
		if len(l) > 40 {
			t.Fatalf("row wider than 40 columns: %q", l)
		}
	}
	if !strings.ContainsAny(art, "#%@") {
		t.Errorf("no dark pixels:\n%s", art)
	}

	// Every glyph is released as soon as it is drawn.
	if reg.Len() != 3 {
		t.Errorf("registry Len = %d, want library, stream and face", reg.Len())
	}
}
