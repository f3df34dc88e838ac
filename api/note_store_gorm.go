package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/notekeeper/notes/api/models"
	"github.com/notekeeper/notes/internal/slogging"
	"gorm.io/gorm"
)

// GormNoteStore implements NoteStore using GORM with optional Redis caching
type GormNoteStore struct {
	db    *gorm.DB
	cache *CacheService
	rules ContentRules
}

// NewGormNoteStore creates a new GORM-backed note store. cache may be nil.
func NewGormNoteStore(db *gorm.DB, cache *CacheService, rules ContentRules) *GormNoteStore {
	return &GormNoteStore{
		db:    db,
		cache: cache,
		rules: rules,
	}
}

// Create validates and inserts a new note
func (s *GormNoteStore) Create(ctx context.Context, input NoteInput) (*Note, error) {
	logger := slogging.Get()

	content, err := s.rules.normalizeContent(createValidationPrefix, input.Content)
	if err != nil {
		return nil, err
	}

	important := false
	if input.Important != nil {
		important = *input.Important
	}

	model := models.Note{
		Content:   content,
		Important: models.DBBool(important),
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		logger.Error("Failed to create note in database: %v", err)
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	note, err := noteFromModel(&model)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.InvalidateNoteList(ctx); cacheErr != nil {
			logger.Error("Failed to invalidate note list after creation: %v", cacheErr)
		}
	}

	logger.Debug("Successfully created note: %s", note.Id)
	return note, nil
}

// List returns every note in insertion order
func (s *GormNoteStore) List(ctx context.Context) ([]Note, error) {
	if s.cache != nil {
		return s.cache.LoadNoteList(ctx, s.list)
	}
	return s.list(ctx)
}

func (s *GormNoteStore) list(ctx context.Context) ([]Note, error) {
	logger := slogging.Get()

	var rows []models.Note
	if err := s.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		logger.Error("Failed to query notes from database: %v", err)
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	notes := make([]Note, 0, len(rows))
	for i := range rows {
		note, err := noteFromModel(&rows[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert note %s: %w", rows[i].ID, err)
		}
		notes = append(notes, *note)
	}

	logger.Debug("Successfully retrieved %d notes", len(notes))
	return notes, nil
}

// Get retrieves a note by id with a cache-first strategy
func (s *GormNoteStore) Get(ctx context.Context, id string) (*Note, error) {
	noteID, err := parseNoteID(id)
	if err != nil {
		return nil, err
	}

	load := func(ctx context.Context) (*Note, error) {
		model, err := s.find(s.db.WithContext(ctx), noteID)
		if err != nil || model == nil {
			return nil, err
		}
		return noteFromModel(model)
	}

	if s.cache != nil {
		return s.cache.LoadNote(ctx, noteID, load)
	}
	return load(ctx)
}

// Update merges the set fields into the stored note, re-validates the
// result and saves it
func (s *GormNoteStore) Update(ctx context.Context, id string, input NoteInput) (*Note, error) {
	logger := slogging.Get()

	noteID, err := parseNoteID(id)
	if err != nil {
		return nil, err
	}

	var updated *models.Note
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := s.find(tx, noteID)
		if err != nil || model == nil {
			return err
		}

		if input.ContentSet {
			content, err := s.rules.normalizeContent(updateValidationPrefix, input.Content)
			if err != nil {
				return err
			}
			model.Content = content
		}
		if input.Important != nil {
			model.Important = models.DBBool(*input.Important)
		}

		if err := tx.Save(model).Error; err != nil {
			logger.Error("Failed to update note in database: %v", err)
			return fmt.Errorf("failed to update note: %w", err)
		}
		updated = model
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		logger.Debug("Update matched no note: %s", noteID)
		return nil, nil
	}

	note, err := noteFromModel(updated)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.InvalidateNote(ctx, noteID); cacheErr != nil {
			logger.Error("Failed to invalidate note cache after update: %v", cacheErr)
		}
	}

	logger.Debug("Successfully updated note: %s", noteID)
	return note, nil
}

// Delete removes a note; a missing note is not an error
func (s *GormNoteStore) Delete(ctx context.Context, id string) error {
	logger := slogging.Get()

	noteID, err := parseNoteID(id)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Where("id = ?", noteID).Delete(&models.Note{})
	if result.Error != nil {
		logger.Error("Failed to delete note from database: %v", result.Error)
		return fmt.Errorf("failed to delete note: %w", result.Error)
	}

	if s.cache != nil {
		if cacheErr := s.cache.InvalidateNote(ctx, noteID); cacheErr != nil {
			logger.Error("Failed to remove note from cache: %v", cacheErr)
		}
	}

	logger.Debug("Deleted note %s (%d rows)", noteID, result.RowsAffected)
	return nil
}

// find loads a note row, returning nil when it does not exist
func (s *GormNoteStore) find(tx *gorm.DB, noteID string) (*models.Note, error) {
	var model models.Note
	if err := tx.First(&model, "id = ?", noteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slogging.Get().Error("Failed to get note from database: %v", err)
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return &model, nil
}
