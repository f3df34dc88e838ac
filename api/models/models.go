// Package models defines the GORM models persisted by the note store.
// Column types stay portable across the supported SQL dialects.
package models

import (
	"time"

	"github.com/notekeeper/notes/internal/uuidgen"
	"gorm.io/gorm"
)

// Note is a stored note row
type Note struct {
	ID         string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	Content    string    `gorm:"column:content;not null"`
	Important  DBBool    `gorm:"column:important;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;autoCreateTime;index"`
	ModifiedAt time.Time `gorm:"column:modified_at;not null;autoUpdateTime"`
}

// TableName specifies the table name for Note
func (Note) TableName() string {
	return "notes"
}

// BeforeCreate assigns a time-ordered UUID if not set
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		id, err := uuidgen.NewNoteID()
		if err != nil {
			return err
		}
		n.ID = id
	}
	return nil
}

// AllModels returns every model for auto-migration
func AllModels() []any {
	return []any{
		&Note{},
	}
}
