package unicodecheck

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsZeroWidthChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"empty string", "", false},
		{"normal text", "HTML is easy", false},
		{"zero width space", "HTML\u200Bis easy", true},
		{"zero width joiner", "a\u200Db", true},
		{"right-to-left mark", "a\u200Fb", true},
		{"word joiner", "a\u2060b", true},
		{"byte order mark", "\uFEFFnote", true},
		{"CJK characters", "\u4E16\u754C", false},
		{"emoji", "buy milk \U0001F95B", false},
		{"accented characters", "caf\u00E9", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContainsZeroWidthChars(tt.input))
		})
	}
}

func TestContainsBidiOverrides(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"empty string", "", false},
		{"hebrew text is fine", "\u05E9\u05DC\u05D5\u05DD", false},
		{"RTL override", "invoice\u202Efdp.exe", true},
		{"LTR embedding", "a\u202Ab", true},
		{"first strong isolate", "a\u2068b", true},
		{"pop directional isolate", "a\u2069b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContainsBidiOverrides(tt.input))
		})
	}
}

func TestCheck(t *testing.T) {
	t.Run("clean text", func(t *testing.T) {
		assert.NoError(t, Check("Browser can execute only JavaScript\n\ttabs and newlines are fine"))
	})

	t.Run("reports zero-width position in runes", func(t *testing.T) {
		err := Check("caf\u00E9\u200Bau lait")
		require.Error(t, err)

		var v *Violation
		require.True(t, errors.As(err, &v))
		assert.Equal(t, "zero-width", v.Kind)
		assert.Equal(t, '\u200B', v.Rune)
		assert.Equal(t, 4, v.Position)
		assert.Equal(t, "contains zero-width character U+200B at position 4", err.Error())
	})

	t.Run("reports bidi override", func(t *testing.T) {
		err := Check("x\u202Ey")
		require.Error(t, err)
		assert.Equal(t, "contains bidirectional override character U+202E at position 1", err.Error())
	})
}

func TestIsNFCNormalized(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"empty string", "", true},
		{"ASCII text", "hello", true},
		{"precomposed e-acute (NFC)", "\u00E9", true},
		{"decomposed e-acute (NFD)", "e\u0301", false},
		{"decomposed mixed", "cafe\u0301", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNFCNormalized(tt.input))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "caf\u00E9", Normalize("cafe\u0301"))
	assert.Equal(t, "plain", Normalize("plain"))
	assert.True(t, IsNFCNormalized(Normalize("A\u030Angstr\u00F6m")))
}
