package uuidgen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewV7(t *testing.T) {
	id, err := NewV7()
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestMustNewV7(t *testing.T) {
	assert.NotPanics(t, func() {
		id := MustNewV7()
		assert.Equal(t, uuid.Version(7), id.Version())
	})
}

func TestNewNoteID(t *testing.T) {
	t.Run("canonical form", func(t *testing.T) {
		id, err := NewNoteID()
		require.NoError(t, err)
		assert.Len(t, id, 36)

		parsed, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, parsed.String())
	})

	t.Run("ids sort in generation order", func(t *testing.T) {
		previous, err := NewNoteID()
		require.NoError(t, err)
		for range 50 {
			next, err := NewNoteID()
			require.NoError(t, err)
			assert.Less(t, previous, next)
			previous = next
		}
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"lowercase", "0192f0c4-7b1e-7c3a-9d2e-1f2a3b4c5d6e", "0192f0c4-7b1e-7c3a-9d2e-1f2a3b4c5d6e", false},
		{"uppercase is canonicalised", "0192F0C4-7B1E-7C3A-9D2E-1F2A3B4C5D6E", "0192f0c4-7b1e-7c3a-9d2e-1f2a3b4c5d6e", false},
		{"mongo object id", "5f1d7e3a9b1c2d3e4f5a6b7c", "", true},
		{"garbage", "abc", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
