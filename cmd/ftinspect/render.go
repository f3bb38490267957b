package main

import (
	"context"
	"image"
	"image/draw"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/wippyai/ftbind/errors"
	"github.com/wippyai/ftbind/ft"
)

const shades = " .:-=+*#%@"

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// renderText lays out text on one baseline and returns it as ASCII art no
// wider than width columns.
func renderText(ctx context.Context, face *ft.Face, text string, width int) (string, error) {
	var (
		pen    int
		glyphs []*image.Alpha
		origin []int
	)
	for _, r := range text {
		img, advance, err := loadImage(ctx, face, r)
		if err != nil {
			return "", err
		}
		glyphs = append(glyphs, img)
		origin = append(origin, pen)
		pen += advance
		if pen >= width {
			break
		}
	}

	var bounds image.Rectangle
	for i, img := range glyphs {
		bounds = bounds.Union(img.Bounds().Add(image.Pt(origin[i], 0)))
	}
	if bounds.Empty() {
		return "", nil
	}
	canvas := image.NewAlpha(bounds)
	for i, img := range glyphs {
		r := img.Bounds().Add(image.Pt(origin[i], 0))
		draw.Draw(canvas, r, img, img.Bounds().Min, draw.Over)
	}
	return asciiArt(canvas, width), nil
}

// loadImage renders r and returns its bitmap with the advance in pixels.
func loadImage(ctx context.Context, face *ft.Face, r rune) (*image.Alpha, int, error) {
	g, err := face.LoadChar(ctx, r, ft.LoadRender)
	if err != nil {
		return nil, 0, err
	}
	defer g.Close(ctx)

	m, err := g.Metrics(ctx)
	if err != nil {
		return nil, 0, err
	}
	img, err := g.Image(ctx)
	if errors.KindOf(err) == errors.KindUnsupportedFormat {
		// Color bitmaps and the like only advance the pen.
		img, err = image.NewAlpha(image.Rectangle{}), nil
	}
	if err != nil {
		return nil, 0, err
	}
	return img, m.HoriAdvance.Round(), nil
}

func asciiArt(img *image.Alpha, width int) string {
	b := img.Bounds()
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X && x-b.Min.X < width; x++ {
			a := img.AlphaAt(x, y).A
			sb.WriteByte(shades[int(a)*(len(shades)-1)/255])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
