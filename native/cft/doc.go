// Package cft implements native.Gateway over the system FreeType through cgo.
//
// The gateway is only built with the freetype build tag:
//
//	go build -tags freetype ./...
//
// It links against freetype2 as reported by pkg-config. Pointers handed out
// are C addresses. The gateway does not validate object pointers; the wrapper
// layer only passes pointers of live registry entries. Memory does check its
// accesses: only blocks from Alloc, face names and glyph bitmaps the gateway
// has reported are readable, each until its owner is destroyed.
package cft
