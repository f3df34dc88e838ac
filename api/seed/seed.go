// Package seed inserts the sample notes used by local development setups.
package seed

import (
	"fmt"

	"github.com/notekeeper/notes/api/models"
	"github.com/notekeeper/notes/internal/slogging"
	"gorm.io/gorm"
)

// SampleNote is a note inserted by SeedDatabase
type SampleNote struct {
	Content   string
	Important bool
}

// SampleNotes returns the development sample notes
func SampleNotes() []SampleNote {
	return []SampleNote{
		{Content: "HTML is easy", Important: true},
		{Content: "Browser can execute only JavaScript", Important: false},
		{Content: "GET and POST are the most important methods of HTTP protocol", Important: true},
	}
}

// SeedDatabase ensures every sample note exists.
// This function is idempotent - safe to call multiple times.
func SeedDatabase(db *gorm.DB) error {
	log := slogging.Get()

	log.Info("Seeding database with sample notes...")

	created := 0
	for _, sample := range SampleNotes() {
		note := models.Note{
			Content:   sample.Content,
			Important: models.DBBool(sample.Important),
		}

		// content is the natural key for sample rows
		result := db.Where("content = ?", sample.Content).FirstOrCreate(&note)
		if result.Error != nil {
			log.Error("Failed to seed note %q: %v", sample.Content, result.Error)
			return fmt.Errorf("failed to seed note: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			created++
			log.Debug("Created sample note %s", note.ID)
		}
	}

	log.Info("Database seeding completed successfully (%d created)", created)
	return nil
}
