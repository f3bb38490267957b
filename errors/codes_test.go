package errors

import (
	"errors"
	"testing"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		code int32
		kind Kind
		name string
	}{
		{CodeInvalidArgument, KindInvalidArgument, "Invalid_Argument"},
		{CodeInvalidGlyphIndex, KindInvalidArgument, "Invalid_Glyph_Index"},
		{CodeInvalidCharacterCode, KindInvalidArgument, "Invalid_Character_Code"},
		{CodeInvalidPixelSize, KindInvalidArgument, "Invalid_Pixel_Size"},
		{CodeOutOfMemory, KindOutOfMemory, "Out_Of_Memory"},
		{CodeUnknownFileFormat, KindUnsupportedFormat, "Unknown_File_Format"},
		{CodeInvalidFileFormat, KindUnsupportedFormat, "Invalid_File_Format"},
		{CodeInvalidTable, KindUnsupportedFormat, "Invalid_Table"},
		{CodeInvalidGlyphFormat, KindUnsupportedFormat, "Invalid_Glyph_Format"},
		{CodeInvalidHandle, KindInvalidHandle, "Invalid_Handle"},
		{CodeInvalidFaceHandle, KindInvalidHandle, "Invalid_Face_Handle"},
		{CodeInvalidStreamHandle, KindInvalidHandle, "Invalid_Stream_Handle"},
		{CodeCannotOpenResource, KindNativeFailure, "Cannot_Open_Resource"},
		{CodeUnimplementedFeature, KindNativeFailure, "Unimplemented_Feature"},
		{0xba, KindNativeFailure, "Corrupted_Font_Glyphs"},
		{CodeTrap, KindNativeFailure, "Trap"},
		{CodeMissingEntry, KindNativeFailure, "Missing_Entry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Translate(tt.code)
			if err == nil {
				t.Fatal("Translate returned nil")
			}
			if err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", err.Kind, tt.kind)
			}
			if !err.HasCode || err.Code != tt.code {
				t.Errorf("Code = %#x HasCode = %v, want %#x", err.Code, err.HasCode, tt.code)
			}
			if err.Phase != PhaseNative {
				t.Errorf("Phase = %v, want %v", err.Phase, PhaseNative)
			}
			if Name(tt.code) != tt.name {
				t.Errorf("Name = %q, want %q", Name(tt.code), tt.name)
			}
		})
	}
}

func TestTranslateOK(t *testing.T) {
	if err := Translate(CodeOK); err != nil {
		t.Fatalf("Translate(0) = %v, want nil", err)
	}
}

func TestTranslateUnknownCode(t *testing.T) {
	for _, code := range []int32{0x0d, 0x7f, 0x1234, -99} {
		err := Translate(code)
		if err == nil {
			t.Fatalf("Translate(%#x) returned nil", code)
		}
		if err.Kind != KindNativeFailure {
			t.Errorf("Kind = %v, want native_failure", err.Kind)
		}
		if err.Code != code {
			t.Errorf("Code = %#x, want %#x verbatim", err.Code, code)
		}
		if !errors.Is(err, &Error{Kind: KindNativeFailure, Code: code, HasCode: true}) {
			t.Error("code must be matchable with errors.Is")
		}
		if _, ok := Message(code); ok {
			t.Errorf("Message(%#x) reported a known code", code)
		}
	}
}

func TestTranslateIsPure(t *testing.T) {
	a := Translate(CodeInvalidArgument)
	b := Translate(CodeInvalidArgument)
	if a == b {
		t.Fatal("Translate must return fresh errors")
	}
	a.Op = "mutated"
	if b.Op != "" || Translate(CodeInvalidArgument).Op != "" {
		t.Fatal("Translate result shares state")
	}
}

func TestMessage(t *testing.T) {
	msg, ok := Message(CodeOutOfMemory)
	if !ok || msg != "out of memory" {
		t.Errorf("Message = %q, %v", msg, ok)
	}
}
