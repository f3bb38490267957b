// Package errors provides structured error types for the ftbind library.
//
// Errors are categorized by Kind (what went wrong) and Phase (which layer
// noticed it). Errors coming from the native library also carry the raw
// status code the library returned.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLifecycle, errors.KindInvalidHandle).
//		Op("Face.LoadGlyph").
//		Handle(uint64(h)).
//		Detail("face released").
//		Build()
//
// Native status codes go through Translate, which never drops a code:
//
//	if st != 0 {
//	    return errors.Translate(int32(st))
//	}
//
// All errors implement the standard error interface and support errors.Is/As.
// Matching is by Kind, and by Code when the target carries one:
//
//	if errors.Is(err, errors.ErrResourceInUse) { ... }
package errors
