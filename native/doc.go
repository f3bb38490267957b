// Package native defines the Native Call Gateway: the boundary between Go and
// a foreign library that implements the FreeType C ABI.
//
// A Gateway has one method per entry point. Methods take already-validated
// arguments, call the library, and return the raw Status next to any
// out-parameters. Gateways never interpret status codes and never register
// handles; both are the job of the wrapper layer in package ft.
//
// Three gateways are provided:
//
//	soft     in-process Go implementation, always available
//	wasmft   FreeType compiled to WebAssembly, run with wazero
//	cft      system libfreetype through cgo (build tag "freetype")
//
// Records returned through out-parameters (FaceRec, CharMapRec, BitmapRec,
// GlyphMetricsRec, Version) have a fixed little-endian wasm32 layout,
// described in abi.go.
package native
