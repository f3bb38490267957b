// Package wasmbin writes small WebAssembly binaries: a module that imports a
// set of host functions, re-exports them through trampolines and owns a
// linear memory. It lets a Go host pose as a native library compiled to wasm.
package wasmbin
