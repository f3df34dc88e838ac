// Package unicodecheck detects invisible and direction-changing Unicode in
// user text and normalizes text before it is stored.
package unicodecheck

import (
	"fmt"
	"slices"

	"golang.org/x/text/unicode/norm"
)

// Zero-width characters commonly used in spoofing attacks.
var zeroWidthChars = []rune{
	'\u200B', // Zero Width Space
	'\u200C', // Zero Width Non-Joiner
	'\u200D', // Zero Width Joiner
	'\u200E', // Left-to-Right Mark
	'\u200F', // Right-to-Left Mark
	'\u2060', // Word Joiner
	'\uFEFF', // Byte Order Mark / Zero Width No-Break Space
}

// Bidirectional text override characters that can reorder displayed text.
var bidiOverrideChars = []rune{
	'\u202A', // Left-to-Right Embedding
	'\u202B', // Right-to-Left Embedding
	'\u202C', // Pop Directional Formatting
	'\u202D', // Left-to-Right Override
	'\u202E', // Right-to-Left Override
	'\u2066', // Left-to-Right Isolate
	'\u2067', // Right-to-Left Isolate
	'\u2068', // First Strong Isolate
	'\u2069', // Pop Directional Isolate
}

// Violation describes the first disallowed character found in a string
type Violation struct {
	Kind     string
	Rune     rune
	Position int
}

func (v *Violation) Error() string {
	return fmt.Sprintf("contains %s character U+%04X at position %d", v.Kind, v.Rune, v.Position)
}

// ContainsZeroWidthChars checks for zero-width Unicode characters that can be used for spoofing.
func ContainsZeroWidthChars(s string) bool {
	for _, r := range s {
		if slices.Contains(zeroWidthChars, r) {
			return true
		}
	}
	return false
}

// ContainsBidiOverrides checks for bidirectional text override characters
// that can reorder displayed text to disguise content.
func ContainsBidiOverrides(s string) bool {
	for _, r := range s {
		if slices.Contains(bidiOverrideChars, r) {
			return true
		}
	}
	return false
}

// Check returns a *Violation for the first zero-width or bidi override
// character in s, or nil. Position counts runes, not bytes.
func Check(s string) error {
	pos := 0
	for _, r := range s {
		switch {
		case slices.Contains(zeroWidthChars, r):
			return &Violation{Kind: "zero-width", Rune: r, Position: pos}
		case slices.Contains(bidiOverrideChars, r):
			return &Violation{Kind: "bidirectional override", Rune: r, Position: pos}
		}
		pos++
	}
	return nil
}

// IsNFCNormalized checks whether the string is in NFC (Canonical Composition) form.
func IsNFCNormalized(s string) bool {
	return norm.NFC.IsNormalString(s)
}

// Normalize returns s in NFC form
func Normalize(s string) string {
	return norm.NFC.String(s)
}
