// Package ftbind provides a resource-safe Go binding layer for native font
// libraries that speak the FreeType C ABI.
//
// Native libraries manage memory by hand and report failures as integer
// status codes. This module puts a handle registry and scoped wrappers in
// front of them so that Go callers cannot free twice, read freed memory, or
// leak a native object on an error path.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	ftbind/            Root package with core Ptr and Memory types
//	├── ft/            Resource wrappers: Library, Stream, Face, Glyph, Stroker
//	├── registry/      Handle registry: parent/child tree, per-root locks
//	├── bridge/        Borrowed views over native-owned memory
//	├── errors/        Structured errors and FreeType status translation
//	└── native/        Native call gateway interface and ABI records
//	    ├── soft/      In-process Go implementation of the FreeType entry points
//	    ├── wasmft/    FreeType compiled to WebAssembly, run by wazero
//	    └── cft/       System libfreetype through cgo (build tag "freetype")
//
// # Quick Start
//
// Open a library, load a face and render a glyph:
//
//	lib, err := ft.Open(ctx, soft.New(nil))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer lib.Close(ctx)
//
//	face, err := lib.NewFaceFromFile(ctx, "FiraCode-Regular.ttf", 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer face.Close(ctx)
//
//	if err := face.SetPixelSizes(ctx, 0, 32); err != nil {
//	    log.Fatal(err)
//	}
//
//	glyph, err := face.LoadChar(ctx, 'g', ft.LoadRender)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer glyph.Close(ctx)
//
//	img, err := glyph.Image(ctx)
//
// # Ownership
//
// Every native object is registered with its parent. A parent cannot be
// released while it has live children:
//
//	Library ─┬─ Stream ── Face ── Glyph
//	         └─ Stroker
//
// Release returns errors.ErrResourceInUse when the order is violated.
// Close is the deferred form: it never reports a second release.
//
// # Thread Safety
//
// Wrappers are safe for concurrent use. Calls on handles that share a root
// Library are serialized by a per-root lock held in the registry; separate
// libraries proceed in parallel.
package ftbind
