package errors

// Native status codes reported by FreeType. Negative codes are reserved for
// gateway-level failures that never come from the library itself.
const (
	CodeOK                   int32 = 0x00
	CodeCannotOpenResource   int32 = 0x01
	CodeUnknownFileFormat    int32 = 0x02
	CodeInvalidFileFormat    int32 = 0x03
	CodeInvalidVersion       int32 = 0x04
	CodeLowerModuleVersion   int32 = 0x05
	CodeInvalidArgument      int32 = 0x06
	CodeUnimplementedFeature int32 = 0x07
	CodeInvalidTable         int32 = 0x08
	CodeInvalidOffset        int32 = 0x09
	CodeArrayTooLarge        int32 = 0x0a
	CodeMissingModule        int32 = 0x0b
	CodeMissingProperty      int32 = 0x0c

	CodeInvalidGlyphIndex    int32 = 0x10
	CodeInvalidCharacterCode int32 = 0x11
	CodeInvalidGlyphFormat   int32 = 0x12
	CodeCannotRenderGlyph    int32 = 0x13
	CodeInvalidOutline       int32 = 0x14
	CodeInvalidComposite     int32 = 0x15
	CodeTooManyHints         int32 = 0x16
	CodeInvalidPixelSize     int32 = 0x17
	CodeInvalidSVGDocument   int32 = 0x18

	CodeInvalidHandle        int32 = 0x20
	CodeInvalidLibraryHandle int32 = 0x21
	CodeInvalidDriverHandle  int32 = 0x22
	CodeInvalidFaceHandle    int32 = 0x23
	CodeInvalidSizeHandle    int32 = 0x24
	CodeInvalidSlotHandle    int32 = 0x25
	CodeInvalidCharMapHandle int32 = 0x26
	CodeInvalidCacheHandle   int32 = 0x27
	CodeInvalidStreamHandle  int32 = 0x28

	CodeOutOfMemory    int32 = 0x40
	CodeUnlistedObject int32 = 0x41

	CodeTrap         int32 = -1
	CodeMissingEntry int32 = -2
)

type codeInfo struct {
	name    string
	message string
	kind    Kind
}

var codeTable = map[int32]codeInfo{
	// generic
	0x00: {"Ok", "no error", ""},
	0x01: {"Cannot_Open_Resource", "cannot open resource", KindNativeFailure},
	0x02: {"Unknown_File_Format", "unknown file format", KindUnsupportedFormat},
	0x03: {"Invalid_File_Format", "broken file", KindUnsupportedFormat},
	0x04: {"Invalid_Version", "invalid FreeType version", KindUnsupportedFormat},
	0x05: {"Lower_Module_Version", "module version is too low", KindNativeFailure},
	0x06: {"Invalid_Argument", "invalid argument", KindInvalidArgument},
	0x07: {"Unimplemented_Feature", "unimplemented feature", KindNativeFailure},
	0x08: {"Invalid_Table", "broken table", KindUnsupportedFormat},
	0x09: {"Invalid_Offset", "broken offset within table", KindUnsupportedFormat},
	0x0a: {"Array_Too_Large", "array allocation size too large", KindNativeFailure},
	0x0b: {"Missing_Module", "missing module", KindNativeFailure},
	0x0c: {"Missing_Property", "missing property", KindNativeFailure},

	// glyph/character
	0x10: {"Invalid_Glyph_Index", "invalid glyph index", KindInvalidArgument},
	0x11: {"Invalid_Character_Code", "invalid character code", KindInvalidArgument},
	0x12: {"Invalid_Glyph_Format", "unsupported glyph image format", KindUnsupportedFormat},
	0x13: {"Cannot_Render_Glyph", "cannot render this glyph format", KindNativeFailure},
	0x14: {"Invalid_Outline", "invalid outline", KindNativeFailure},
	0x15: {"Invalid_Composite", "invalid composite glyph", KindNativeFailure},
	0x16: {"Too_Many_Hints", "too many hints", KindNativeFailure},
	0x17: {"Invalid_Pixel_Size", "invalid pixel size", KindInvalidArgument},
	0x18: {"Invalid_SVG_Document", "invalid SVG document", KindNativeFailure},

	// handles
	0x20: {"Invalid_Handle", "invalid object handle", KindInvalidHandle},
	0x21: {"Invalid_Library_Handle", "invalid library handle", KindInvalidHandle},
	0x22: {"Invalid_Driver_Handle", "invalid module handle", KindInvalidHandle},
	0x23: {"Invalid_Face_Handle", "invalid face handle", KindInvalidHandle},
	0x24: {"Invalid_Size_Handle", "invalid size handle", KindInvalidHandle},
	0x25: {"Invalid_Slot_Handle", "invalid glyph slot handle", KindInvalidHandle},
	0x26: {"Invalid_CharMap_Handle", "invalid charmap handle", KindInvalidHandle},
	0x27: {"Invalid_Cache_Handle", "invalid cache manager handle", KindInvalidHandle},
	0x28: {"Invalid_Stream_Handle", "invalid stream handle", KindInvalidHandle},

	// driver
	0x30: {"Too_Many_Drivers", "too many modules", KindNativeFailure},
	0x31: {"Too_Many_Extensions", "too many extensions", KindNativeFailure},

	// memory
	0x40: {"Out_Of_Memory", "out of memory", KindOutOfMemory},
	0x41: {"Unlisted_Object", "unlisted object", KindNativeFailure},

	// stream
	0x51: {"Cannot_Open_Stream", "cannot open stream", KindNativeFailure},
	0x52: {"Invalid_Stream_Seek", "invalid stream seek", KindNativeFailure},
	0x53: {"Invalid_Stream_Skip", "invalid stream skip", KindNativeFailure},
	0x54: {"Invalid_Stream_Read", "invalid stream read", KindNativeFailure},
	0x55: {"Invalid_Stream_Operation", "invalid stream operation", KindNativeFailure},
	0x56: {"Invalid_Frame_Operation", "invalid frame operation", KindNativeFailure},
	0x57: {"Nested_Frame_Access", "nested frame access", KindNativeFailure},
	0x58: {"Invalid_Frame_Read", "invalid frame read", KindNativeFailure},

	// raster
	0x60: {"Raster_Uninitialized", "raster uninitialized", KindNativeFailure},
	0x61: {"Raster_Corrupted", "raster corrupted", KindNativeFailure},
	0x62: {"Raster_Overflow", "raster overflow", KindNativeFailure},
	0x63: {"Raster_Negative_Height", "negative height while rastering", KindNativeFailure},

	// cache
	0x70: {"Too_Many_Caches", "too many registered caches", KindNativeFailure},

	// TrueType and SFNT
	0x80: {"Invalid_Opcode", "invalid opcode", KindNativeFailure},
	0x81: {"Too_Few_Arguments", "too few arguments", KindNativeFailure},
	0x82: {"Stack_Overflow", "stack overflow", KindNativeFailure},
	0x83: {"Code_Overflow", "code overflow", KindNativeFailure},
	0x84: {"Bad_Argument", "bad argument", KindNativeFailure},
	0x85: {"Divide_By_Zero", "division by zero", KindNativeFailure},
	0x86: {"Invalid_Reference", "invalid reference", KindNativeFailure},
	0x87: {"Debug_OpCode", "found debug opcode", KindNativeFailure},
	0x88: {"ENDF_In_Exec_Stream", "found ENDF opcode in execution stream", KindNativeFailure},
	0x89: {"Nested_DEFS", "nested DEFS", KindNativeFailure},
	0x8a: {"Invalid_CodeRange", "invalid code range", KindNativeFailure},
	0x8b: {"Execution_Too_Long", "execution context too long", KindNativeFailure},
	0x8c: {"Too_Many_Function_Defs", "too many function definitions", KindNativeFailure},
	0x8d: {"Too_Many_Instruction_Defs", "too many instruction definitions", KindNativeFailure},
	0x8e: {"Table_Missing", "SFNT font table missing", KindNativeFailure},
	0x8f: {"Horiz_Header_Missing", "horizontal header (hhea) table missing", KindNativeFailure},
	0x90: {"Locations_Missing", "locations (loca) table missing", KindNativeFailure},
	0x91: {"Name_Table_Missing", "name table missing", KindNativeFailure},
	0x92: {"CMap_Table_Missing", "character map (cmap) table missing", KindNativeFailure},
	0x93: {"Hmtx_Table_Missing", "horizontal metrics (hmtx) table missing", KindNativeFailure},
	0x94: {"Post_Table_Missing", "PostScript (post) table missing", KindNativeFailure},
	0x95: {"Invalid_Horiz_Metrics", "invalid horizontal metrics", KindNativeFailure},
	0x96: {"Invalid_CharMap_Format", "invalid character map (cmap) format", KindNativeFailure},
	0x97: {"Invalid_PPem", "invalid ppem value", KindNativeFailure},
	0x98: {"Invalid_Vert_Metrics", "invalid vertical metrics", KindNativeFailure},
	0x99: {"Could_Not_Find_Context", "could not find context", KindNativeFailure},
	0x9a: {"Invalid_Post_Table_Format", "invalid PostScript (post) table format", KindNativeFailure},
	0x9b: {"Invalid_Post_Table", "invalid PostScript (post) table", KindNativeFailure},
	0x9c: {"DEF_In_Glyf_Bytecode", "found FDEF or IDEF opcode in glyf bytecode", KindNativeFailure},
	0x9d: {"Missing_Bitmap", "missing bitmap in strike", KindNativeFailure},
	0x9e: {"Missing_SVG_Hooks", "SVG hooks have not been set", KindNativeFailure},

	// CFF, CID, and Type 1
	0xa0: {"Syntax_Error", "opcode syntax error", KindNativeFailure},
	0xa1: {"Stack_Underflow", "argument stack underflow", KindNativeFailure},
	0xa2: {"Ignore", "ignore", KindNativeFailure},
	0xa3: {"No_Unicode_Glyph_Name", "no Unicode glyph name found", KindNativeFailure},
	0xa4: {"Glyph_Too_Big", "glyph too big for hinting", KindNativeFailure},

	// BDF
	0xb0: {"Missing_Startfont_Field", "`STARTFONT' field missing", KindNativeFailure},
	0xb1: {"Missing_Font_Field", "`FONT' field missing", KindNativeFailure},
	0xb2: {"Missing_Size_Field", "`SIZE' field missing", KindNativeFailure},
	0xb3: {"Missing_Fontboundingbox_Field", "`FONTBOUNDINGBOX' field missing", KindNativeFailure},
	0xb4: {"Missing_Chars_Field", "`CHARS' field missing", KindNativeFailure},
	0xb5: {"Missing_Startchar_Field", "`STARTCHAR' field missing", KindNativeFailure},
	0xb6: {"Missing_Encoding_Field", "`ENCODING' field missing", KindNativeFailure},
	0xb7: {"Missing_Bbx_Field", "`BBX' field missing", KindNativeFailure},
	0xb8: {"Bbx_Too_Big", "`BBX' too big", KindNativeFailure},
	0xb9: {"Corrupted_Font_Header", "Font header corrupted or missing fields", KindNativeFailure},
	0xba: {"Corrupted_Font_Glyphs", "Font glyphs corrupted or missing fields", KindNativeFailure},

	// gateway
	CodeTrap:         {"Trap", "native call trapped", KindNativeFailure},
	CodeMissingEntry: {"Missing_Entry", "entry point not provided by library", KindNativeFailure},
}

// Translate maps a native status code to a structured error.
// It returns nil for CodeOK. Codes missing from the table become
// KindNativeFailure with the code preserved.
func Translate(code int32) *Error {
	if code == CodeOK {
		return nil
	}
	info, ok := codeTable[code]
	if !ok {
		return &Error{
			Phase:   PhaseNative,
			Kind:    KindNativeFailure,
			Code:    code,
			HasCode: true,
		}
	}
	return &Error{
		Phase:   PhaseNative,
		Kind:    info.kind,
		Code:    code,
		HasCode: true,
		Detail:  info.message,
	}
}

// Name returns the FreeType error name for code, or "" if unknown.
func Name(code int32) string {
	return codeTable[code].name
}

// Message returns the FreeType error message for code.
// The second result is false when the code is not in the table.
func Message(code int32) (string, bool) {
	info, ok := codeTable[code]
	return info.message, ok
}
