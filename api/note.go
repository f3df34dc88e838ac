package api

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/notekeeper/notes/api/models"
)

// Note is the API representation of a stored note
type Note struct {
	Id        TypesUUID `json:"id"`
	Content   string    `json:"content"`
	Important bool      `json:"important"`
}

// NoteInput carries the fields of a create or update request after casting.
// A nil Content with ContentSet means the body held an explicit null.
type NoteInput struct {
	Content    *string
	ContentSet bool
	// Important is nil when an update leaves the flag untouched
	Important *bool
}

// Body field names
const (
	fieldContent   = "content"
	fieldImportant = "important"
)

// noteFromModel converts a database row into its API form
func noteFromModel(m *models.Note) (*Note, error) {
	id, err := ParseUUID(m.ID)
	if err != nil {
		return nil, err
	}
	return &Note{
		Id:        id,
		Content:   m.Content,
		Important: m.Important.Bool(),
	}, nil
}

// DecodeCreateInput casts the fields of a create body. An absent or falsy
// important always yields false.
func DecodeCreateInput(fields map[string]json.RawMessage) (NoteInput, error) {
	input, err := decodeContent(fields, createValidationPrefix)
	if err != nil {
		return NoteInput{}, err
	}

	important := false
	if raw, ok := fields[fieldImportant]; ok {
		important, err = castBoolean(raw, createValidationPrefix)
		if err != nil {
			return NoteInput{}, err
		}
	}
	input.Important = &important
	return input, nil
}

// DecodeUpdateInput casts the fields of an update body. Absent keys leave
// the stored values untouched.
func DecodeUpdateInput(fields map[string]json.RawMessage) (NoteInput, error) {
	input, err := decodeContent(fields, updateValidationPrefix)
	if err != nil {
		return NoteInput{}, err
	}

	if raw, ok := fields[fieldImportant]; ok {
		important, err := castBoolean(raw, updateValidationPrefix)
		if err != nil {
			return NoteInput{}, err
		}
		input.Important = &important
	}
	return input, nil
}

func decodeContent(fields map[string]json.RawMessage, prefix string) (NoteInput, error) {
	raw, ok := fields[fieldContent]
	if !ok {
		return NoteInput{}, nil
	}

	input := NoteInput{ContentSet: true}
	if isJSONNull(raw) {
		return input, nil
	}

	content, err := castString(raw, prefix)
	if err != nil {
		return NoteInput{}, err
	}
	input.Content = &content
	return input, nil
}

// castString accepts strings verbatim and numbers or booleans in their
// textual form
func castString(raw json.RawMessage, prefix string) (string, error) {
	var value any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&value); err != nil {
		return "", newCastError(prefix, fieldContent, "string", raw)
	}

	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", newCastError(prefix, fieldContent, "string", raw)
	}
}

// castBoolean treats every JSON falsy value as false and otherwise accepts
// only the exact spellings true, 1, "1", "true" and "yes"
func castBoolean(raw json.RawMessage, prefix string) (bool, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return false, newCastError(prefix, fieldImportant, "Boolean", raw)
	}

	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case float64:
		switch v {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	case string:
		switch v {
		case "", "false", "0", "no":
			return false, nil
		case "true", "1", "yes":
			return true, nil
		}
	}
	return false, newCastError(prefix, fieldImportant, "Boolean", raw)
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
