// Package soft is an in-process Go implementation of the FreeType entry
// points used by ftbind.
//
// It behaves like a native library: every object it hands out (library, face,
// glyph, stroker, name strings, bitmap buffers) lives in a block heap with
// its own address space, callers refer to objects by address, and failures
// are reported as FreeType status codes. Because every object is a heap
// block, Stats gives an exact count of what is still allocated, which makes
// the gateway useful for leak tests.
//
// Fonts are parsed with golang.org/x/image/font/sfnt. Charmap records come
// from the raw cmap table, read through go-text's opentype loaders. Glyphs
// are rasterized with golang.org/x/image/vector.
package soft
