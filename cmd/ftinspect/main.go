package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/wippyai/ftbind/ft"
	"github.com/wippyai/ftbind/native"
	"github.com/wippyai/ftbind/native/cft"
	"github.com/wippyai/ftbind/native/soft"
	"github.com/wippyai/ftbind/native/wasmft"
	"github.com/wippyai/ftbind/registry"
)

type options struct {
	font        string
	backend     string
	module      string
	text        string
	index       int64
	size        uint
	charmaps    bool
	interactive bool
	verbose     bool
}

// backends open a gateway by name. The freetype backend registers itself
// when built with cgo and the freetype tag.
var backends = map[string]func(ctx context.Context, o *options) (native.Gateway, error){
	"soft": func(context.Context, *options) (native.Gateway, error) {
		return soft.New(nil), nil
	},
	"wasm": func(ctx context.Context, o *options) (native.Gateway, error) {
		if o.module == "" {
			return nil, fmt.Errorf("the wasm backend needs -module")
		}
		bin, err := os.ReadFile(o.module)
		if err != nil {
			return nil, fmt.Errorf("read module: %w", err)
		}
		return wasmft.Load(ctx, bin, nil)
	},
}

func main() {
	var o options
	flag.StringVar(&o.font, "font", "", "Path to a font file")
	flag.Int64Var(&o.index, "index", 0, "Face index within the font file")
	flag.StringVar(&o.backend, "backend", "soft", "Native backend: "+backendNames())
	flag.StringVar(&o.module, "module", "", "FreeType wasm module (wasm backend)")
	flag.UintVar(&o.size, "size", 16, "Pixel size for rendering")
	flag.StringVar(&o.text, "text", "", "Text to render as ASCII art")
	flag.BoolVar(&o.charmaps, "charmaps", false, "List the face's charmaps")
	flag.BoolVar(&o.interactive, "i", false, "Interactive glyph browser")
	flag.BoolVar(&o.verbose, "v", false, "Verbose logging")
	flag.Parse()

	if o.font == "" {
		fmt.Fprintln(os.Stderr, "Usage: ftinspect -font <file> [-index n] [-backend "+backendNames()+"] [-module file.wasm]")
		fmt.Fprintln(os.Stderr, "       ftinspect -font <file> -text <string> [-size px]")
		fmt.Fprintln(os.Stderr, "       ftinspect -font <file> -i  (interactive mode)")
		os.Exit(1)
	}

	log, err := newLogger(o.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	for _, set := range []func(*zap.Logger){ft.SetLogger, registry.SetLogger, soft.SetLogger, wasmft.SetLogger, cft.SetLogger} {
		set(log)
	}

	if err := run(context.Background(), &o, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func backendNames() string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func run(ctx context.Context, o *options, log *zap.Logger) (err error) {
	open, ok := backends[o.backend]
	if !ok {
		return fmt.Errorf("unknown backend %q (have %s)", o.backend, backendNames())
	}
	gw, err := open(ctx, o)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", o.backend, err)
	}
	defer gw.Close(ctx)

	reg := registry.New()
	defer reportLeaks(reg, log)

	scope := ft.NewScope()
	defer func() {
		if cerr := scope.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	lib, err := ft.Open(ctx, gw, ft.WithRegistry(reg), ft.WithLogger(log))
	if err != nil {
		return err
	}
	scope.Add(lib)

	face, err := lib.NewFaceFromFile(ctx, o.font, o.index)
	if err != nil {
		return err
	}
	scope.Add(face)

	if o.interactive {
		return runInteractive(ctx, face, o)
	}

	if err := printInfo(ctx, lib, face, o.charmaps); err != nil {
		return err
	}
	if o.text == "" {
		return nil
	}

	if err := face.SetPixelSizes(ctx, 0, uint32(o.size)); err != nil {
		return err
	}
	art, err := renderText(ctx, face, norm.NFC.String(o.text), terminalWidth())
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(art)
	return nil
}

func printInfo(ctx context.Context, lib *ft.Library, face *ft.Face, charmaps bool) error {
	v, err := lib.Version(ctx)
	if err != nil {
		return err
	}
	info, err := face.Info(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Backend: %s (FreeType %s)\n", lib.Gateway().Name(), v)
	fmt.Printf("Family: %s\n", info.FamilyName)
	if info.StyleName != "" {
		fmt.Printf("Style: %s\n", info.StyleName)
	}
	fmt.Printf("Face: %d of %d\n", info.FaceIndex, info.NumFaces)
	fmt.Printf("Glyphs: %d\n", info.NumGlyphs)
	fmt.Printf("Units per EM: %d\n", info.UnitsPerEM)
	fmt.Printf("Ascender/Descender/Height: %d/%d/%d\n", info.Ascender, info.Descender, info.Height)
	fmt.Printf("BBox: (%d, %d) - (%d, %d)\n", info.BBox.XMin, info.BBox.YMin, info.BBox.XMax, info.BBox.YMax)
	fmt.Printf("Fixed sizes: %d\n", info.NumFixedSizes)
	fmt.Printf("Flags: %s\n", faceFlags(info))

	if !charmaps {
		fmt.Printf("Charmaps: %d\n", info.NumCharMaps)
		return nil
	}
	maps, err := face.CharMaps(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nCharmaps:\n")
	for i, cm := range maps {
		fmt.Printf("  %d: %s (platform %d, encoding %d)\n", i, cm.Encoding, cm.PlatformID, cm.EncodingID)
	}
	return nil
}

func faceFlags(info ft.FaceInfo) string {
	var flags []string
	if info.Scalable() {
		flags = append(flags, "scalable")
	}
	if info.FixedWidth() {
		flags = append(flags, "fixed-width")
	}
	if info.Italic() {
		flags = append(flags, "italic")
	}
	if info.Bold() {
		flags = append(flags, "bold")
	}
	if len(flags) == 0 {
		return "none"
	}
	return strings.Join(flags, ", ")
}

// reportLeaks logs every handle still registered once the scope is closed.
func reportLeaks(reg *registry.Registry, log *zap.Logger) {
	live := reg.Live()
	if len(live) == 0 {
		log.Debug("no live handles at exit")
		return
	}
	for _, e := range live {
		log.Warn("handle still live at exit",
			zap.Stringer("handle", e.Handle),
			zap.Stringer("kind", e.Kind),
			zap.Stringer("parent", e.Parent),
			zap.Int("children", e.Children))
	}
	fmt.Fprintf(os.Stderr, "%d handle(s) leaked\n", len(live))
}
