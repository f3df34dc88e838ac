package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notekeeper/notes/internal/slogging"
)

// NoteHandler provides the note routes
type NoteHandler struct {
	store NoteStore
}

// NewNoteHandler creates a note handler backed by store
func NewNoteHandler(store NoteStore) *NoteHandler {
	return &NoteHandler{store: store}
}

// Greeting serves the smoke-test page
// GET /
func (h *NoteHandler) Greeting(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<h1>Hello World!</h1>"))
}

// CreateNote creates a note
// POST /api/notes
func (h *NoteHandler) CreateNote(c *gin.Context) {
	fields, err := ParseRequestFields(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if _, ok := fields[fieldContent]; !ok {
		_ = c.Error(ContentMissingError())
		return
	}

	input, err := DecodeCreateInput(fields)
	if err != nil {
		_ = c.Error(err)
		return
	}

	note, err := h.store.Create(c.Request.Context(), input)
	if err != nil {
		_ = c.Error(err)
		return
	}

	slogging.GetContextLogger(c).Debug("Created note %s", note.Id)
	c.JSON(http.StatusOK, note)
}

// ListNotes returns every note
// GET /api/notes
func (h *NoteHandler) ListNotes(c *gin.Context) {
	notes, err := h.store.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if notes == nil {
		notes = []Note{}
	}
	c.JSON(http.StatusOK, notes)
}

// GetNote returns a single note, or an empty 404
// GET /api/notes/:id
func (h *NoteHandler) GetNote(c *gin.Context) {
	note, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if note == nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, note)
}

// UpdateNote applies the body fields to a note and returns the result. A
// well-formed id matching no note answers null.
// PUT /api/notes/:id
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	fields, err := ParseRequestFields(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	// a bad id wins over a bad body
	if _, err := parseNoteID(c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}

	input, err := DecodeUpdateInput(fields)
	if err != nil {
		_ = c.Error(err)
		return
	}

	note, err := h.store.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// DeleteNote removes a note
// DELETE /api/notes/:id
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
