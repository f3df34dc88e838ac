// Package uuidgen assigns identifiers to stored records.
package uuidgen

import (
	"fmt"

	"github.com/google/uuid"
)

// NewV7 generates a time-ordered UUIDv7, so key order follows insertion order
func NewV7() (uuid.UUID, error) {
	return uuid.NewV7()
}

// MustNewV7 is like NewV7 but panics on error.
// Should only be used where UUID generation failure is unrecoverable.
func MustNewV7() uuid.UUID {
	id, err := NewV7()
	if err != nil {
		panic(fmt.Sprintf("failed to generate UUIDv7: %v", err))
	}
	return id
}

// NewNoteID returns the canonical string form of a fresh note identifier
func NewNoteID() (string, error) {
	id, err := NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate note id: %w", err)
	}
	return id.String(), nil
}

// Parse validates s as a UUID and returns its canonical lowercase form
func Parse(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
