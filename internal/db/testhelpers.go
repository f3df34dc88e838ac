package db

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/notekeeper/notes/api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB holds a test database connection and cleanup function
type TestDB struct {
	DB      *gorm.DB
	Cleanup func()
}

// NewTestDB creates a new in-memory SQLite database for testing.
// It automatically migrates all models and returns a cleanup function.
func NewTestDB(t *testing.T) (*TestDB, error) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return nil, err
	}

	cleanup := func() {
		_ = sqlDB.Close()
	}

	return &TestDB{
		DB:      db,
		Cleanup: cleanup,
	}, nil
}

// MustCreateTestDB creates a test DB, failing the test on error.
// Cleanup is registered with t.
func MustCreateTestDB(t *testing.T) *TestDB {
	t.Helper()

	tdb, err := NewTestDB(t)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(tdb.Cleanup)

	return tdb
}

// SeedNote inserts a note directly and returns it
func (tdb *TestDB) SeedNote(t *testing.T, content string, important bool) *models.Note {
	t.Helper()

	note := &models.Note{
		Content:   content,
		Important: models.DBBool(important),
	}
	if err := tdb.DB.Create(note).Error; err != nil {
		t.Fatalf("failed to seed note: %v", err)
	}

	return note
}

// NewTestRedis starts an in-process Redis server and connects a RedisDB to it
func NewTestRedis(t *testing.T) (*RedisDB, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb, err := NewRedisDB(RedisConfig{URL: "redis://" + mr.Addr() + "/0"})
	if err != nil {
		t.Fatalf("failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	return rdb, mr
}
