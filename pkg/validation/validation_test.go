package validation

import (
	"strings"
	"testing"
)

func TestValidatePetName(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        string
		wantErr     bool
		errContains string
	}{
		{
			name:  "valid simple name",
			input: "tux",
			want:  "tux",
		},
		{
			name:  "valid name with hyphen and dot",
			input: "mr-whiskers.2",
			want:  "mr-whiskers.2",
		},
		{
			name:  "valid name with underscore",
			input: "big_cat",
			want:  "big_cat",
		},
		{
			name:  "name with leading/trailing spaces",
			input: "  tux  ",
			want:  "tux",
		},
		{
			name:        "empty name",
			input:       "",
			wantErr:     true,
			errContains: "cannot be empty",
		},
		{
			name:        "only whitespace",
			input:       "   ",
			wantErr:     true,
			errContains: "cannot be only whitespace",
		},
		{
			name:  "max length name",
			input: strings.Repeat("a", MaxPetNameLen),
			want:  strings.Repeat("a", MaxPetNameLen),
		},
		{
			name:        "name too long",
			input:       strings.Repeat("a", MaxPetNameLen+1),
			wantErr:     true,
			errContains: "too long",
		},
		{
			name:        "name with inner space",
			input:       "big cat",
			wantErr:     true,
			errContains: "invalid characters",
		},
		{
			name:        "name with comma",
			input:       "tux,bob",
			wantErr:     true,
			errContains: "invalid characters",
		},
		{
			name:        "name with control character",
			input:       "tux\x07",
			wantErr:     true,
			errContains: "control characters",
		},
		{
			name:        "invalid UTF-8",
			input:       "tux\xff",
			wantErr:     true,
			errContains: "invalid UTF-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePetName(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidatePetName(%q) expected error, got %q", tt.input, got)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("ValidatePetName(%q) error = %v, want it to contain %q", tt.input, err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidatePetName(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ValidatePetName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeSpeech(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "zzz", "zzz"},
		{"empty", "", ""},
		{"newlines become spaces", "hello\nworld", "hello world"},
		{"whitespace collapses", "  a \t\t b  ", "a b"},
		{"control characters dropped", "bo\x00in\x1bg", "boing"},
		{"invalid UTF-8 dropped", "wh\xffee", "whee"},
		{"truncated", strings.Repeat("x", MaxSpeechLen+10), strings.Repeat("x", MaxSpeechLen)},
		{"runes counted, not bytes", strings.Repeat("é", MaxSpeechLen+1), strings.Repeat("é", MaxSpeechLen)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeSpeech(tt.input); got != tt.want {
				t.Errorf("SanitizeSpeech(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
