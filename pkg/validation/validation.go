// Package validation checks and sanitizes user-supplied pet names and speech
// text before they reach the desktop or the terminal.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length limits, in runes
const (
	MaxPetNameLen = 16
	MaxSpeechLen  = 40
)

// Pet names are shown in status lines and used as comma separated flag
// values, so they stay to a conservative character set.
var validPetNameChars = regexp.MustCompile(`^[a-zA-Z0-9\-_.]+$`)

// ValidatePetName trims name and checks it can be used as a pet identifier
func ValidatePetName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("pet name cannot be empty")
	}

	if !utf8.ValidString(name) {
		return "", fmt.Errorf("pet name contains invalid UTF-8 characters")
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("pet name cannot be only whitespace")
	}

	if n := utf8.RuneCountInString(trimmed); n > MaxPetNameLen {
		return "", fmt.Errorf("pet name too long: %d characters (max %d)", n, MaxPetNameLen)
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("pet name contains control characters")
		}
	}

	if !validPetNameChars.MatchString(trimmed) {
		return "", fmt.Errorf("pet name contains invalid characters (only letters, digits, hyphens, underscores and dots allowed)")
	}

	return trimmed, nil
}

// SanitizeSpeech makes text safe to draw in a one-line speech bubble:
// invalid UTF-8 and control characters are dropped, runs of whitespace
// collapse to one space and the result is cut to MaxSpeechLen runes.
func SanitizeSpeech(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}

	filtered := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)

	collapsed := strings.Join(strings.Fields(filtered), " ")

	runes := []rune(collapsed)
	if len(runes) > MaxSpeechLen {
		return string(runes[:MaxSpeechLen])
	}
	return collapsed
}
