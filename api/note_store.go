package api

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/notekeeper/notes/internal/unicodecheck"
	"github.com/notekeeper/notes/internal/uuidgen"
)

// NoteStore defines the persistence operations behind the note routes
type NoteStore interface {
	// Create validates and persists a new note, assigning its id
	Create(ctx context.Context, input NoteInput) (*Note, error)
	// List returns every stored note
	List(ctx context.Context) ([]Note, error)
	// Get returns the note with the given id, or nil when there is none
	Get(ctx context.Context, id string) (*Note, error)
	// Update applies the set fields to the matching note and returns the
	// post-update note, or nil when no note matches
	Update(ctx context.Context, id string, input NoteInput) (*Note, error)
	// Delete removes the note if present; deleting a missing note succeeds
	Delete(ctx context.Context, id string) error
}

// Validation message prefixes per operation
const (
	createValidationPrefix = "Note validation failed"
	updateValidationPrefix = "Validation failed"
)

// IDFormatError reports a path id that is not a valid note key
type IDFormatError struct {
	ID  string
	Err error
}

func (e *IDFormatError) Error() string {
	return fmt.Sprintf("Cast to UUID failed for value %q at path \"id\": %v", e.ID, e.Err)
}

func (e *IDFormatError) Unwrap() error {
	return e.Err
}

// ValidationError reports a field that failed a declared constraint
type ValidationError struct {
	Prefix string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Prefix, e.Field, e.Reason)
}

func newRequiredError(prefix, field string) *ValidationError {
	return &ValidationError{
		Prefix: prefix,
		Field:  field,
		Reason: fmt.Sprintf("Path `%s` is required.", field),
	}
}

func newCastError(prefix, field, kind string, raw []byte) *ValidationError {
	return &ValidationError{
		Prefix: prefix,
		Field:  field,
		Reason: fmt.Sprintf("Cast to %s failed for value %s at path %q", kind, truncateForMessage(string(raw)), field),
	}
}

// parseNoteID validates a path id and returns its canonical form
func parseNoteID(id string) (string, error) {
	canonical, err := uuidgen.Parse(id)
	if err != nil {
		return "", &IDFormatError{ID: id, Err: err}
	}
	return canonical, nil
}

// ContentRules holds the limits applied to note content on every write
type ContentRules struct {
	// MaxLength is measured in runes; zero disables the check
	MaxLength int
	// StrictUnicode normalizes to NFC and rejects invisible formatting
	// characters. When false content is stored verbatim.
	StrictUnicode bool
}

// normalizeContent runs the required and length checks and, in strict
// mode, the unicode rules
func (r ContentRules) normalizeContent(prefix string, content *string) (string, error) {
	if content == nil {
		return "", newRequiredError(prefix, fieldContent)
	}

	value := *content
	if r.StrictUnicode {
		value = unicodecheck.Normalize(value)
	}
	if r.MaxLength > 0 && utf8.RuneCountInString(value) > r.MaxLength {
		return "", &ValidationError{
			Prefix: prefix,
			Field:  fieldContent,
			Reason: fmt.Sprintf("Path `content` is longer than the maximum allowed length (%d).", r.MaxLength),
		}
	}
	if r.StrictUnicode {
		if err := unicodecheck.Check(value); err != nil {
			return "", &ValidationError{
				Prefix: prefix,
				Field:  fieldContent,
				Reason: fmt.Sprintf("Path `content` %s.", err.Error()),
			}
		}
	}
	return value, nil
}

// truncateForMessage bounds user-supplied values echoed in error messages
func truncateForMessage(s string) string {
	const maxEcho = 64
	if utf8.RuneCountInString(s) <= maxEcho {
		return s
	}
	return string([]rune(s)[:maxEcho]) + "..."
}
