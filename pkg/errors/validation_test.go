package errors

import (
	"testing"
)

func TestValidateNodeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "Principled BSDF", false},
		{"valid with dot", "Mix.001", false},
		{"valid unicode", "Größe", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateMaterialName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "Material", false},
		{"valid with space", "Red Plastic", false},
		{"valid with dot", "Metal.001", false},

		{"empty", "", true},
		{"leading dot", ".hidden", true},
		{"traversal", "a..b", true},
		{"slash", "a/b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMaterialName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMaterialName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidName) {
				t.Errorf("ValidateMaterialName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidName)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid relative", "textures/wood.png", false},
		{"valid absolute", "/srv/textures/wood.png", false},
		{"valid udim", "textures/wood.<UDIM>.png", false},

		{"empty", "", true},
		{"traversal", "../secret.png", true},
		{"backslash", "textures\\wood.png", true},
		{"control char", "wood\x01.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCategory(t *testing.T) {
	if err := ValidateCategory("math"); err != nil {
		t.Errorf("ValidateCategory(math) error = %v", err)
	}
	if err := ValidateCategory(""); err == nil {
		t.Error("ValidateCategory(\"\") error = nil, want error")
	}
	if err := ValidateCategory("noise texture"); err == nil {
		t.Error("ValidateCategory with space error = nil, want error")
	}
}
