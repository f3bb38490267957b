// Package ft is the safe wrapper layer over a native FreeType gateway.
//
// Every native object is owned by exactly one wrapper. Wrappers form the
// same tree as the objects they own:
//
//	Library
//	├── Stream ── Face ── Glyph
//	└── Stroker
//
// A wrapper is registered in a registry.Registry under its parent and every
// native call it makes holds the root guard of its tree, so calls on one
// library are serialized while separate libraries run in parallel.
//
// Release destroys the native object exactly once. It fails with
// resource_in_use while children are live and with already_released on a
// second call. Close is the forgiving variant: it is a no-op once released,
// which makes it suitable for defer and for Scope.
package ft
