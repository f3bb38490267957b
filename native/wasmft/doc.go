// Package wasmft implements native.Gateway over a FreeType build compiled to
// WebAssembly and run with wazero.
//
// The module exports its linear memory as "memory" and a flat C ABI of ftb_*
// functions. Every pointer and FT_Long is 32 bits wide. Entry points that
// produce a value take a trailing out-parameter pointer and return an
// FT_Error; the record layouts are described in package native.
//
//	ftb_malloc(size) ptr                     ftb_free(ptr)
//	ftb_init_library(out) err                ftb_done_library(lib) err
//	ftb_library_version(lib, out) err        ftb_error_string(code) cstr
//	ftb_new_memory_face(lib, data, len, index, out) err
//	ftb_done_face(face) err                  ftb_face_info(face, out) err
//	ftb_get_charmap(face, i, out) err        ftb_select_charmap(face, enc) err
//	ftb_set_char_size(face, w, h, hres, vres) err
//	ftb_set_pixel_sizes(face, w, h) err      ftb_get_char_index(face, code) index
//	ftb_load_glyph(face, index, flags, out) err
//	ftb_glyph_metrics(glyph, out) err        ftb_render_glyph(glyph, mode) err
//	ftb_glyph_bitmap(glyph, out) err         ftb_done_glyph(glyph) err
//	ftb_stroker_new(lib, out) err            ftb_stroker_set(s, r, cap, join, miter) err
//	ftb_stroker_done(s) err                  ftb_glyph_stroke(glyph, s) err
//
// Only memory, ftb_malloc, ftb_free, ftb_init_library and ftb_done_library
// are required. A missing optional entry reports native.StatusMissingEntry.
package wasmft
