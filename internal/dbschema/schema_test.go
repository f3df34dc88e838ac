package dbschema

import (
	"testing"

	"github.com/notekeeper/notes/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestGetExpectedSchema(t *testing.T) {
	assert.Equal(t, []string{"notes"}, GetTableNames())

	schema := GetExpectedSchema()
	require.Len(t, schema, 1)
	assert.Equal(t, models.Note{}.TableName(), schema[0].Name)

	primaryKeys := 0
	for _, col := range schema[0].Columns {
		if col.IsPrimaryKey {
			primaryKeys++
			assert.Equal(t, "id", col.Name)
		}
	}
	assert.Equal(t, 1, primaryKeys)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "created_at", normalizeName("CREATED_AT"))
	assert.Equal(t, "id", normalizeName(`"ID"`))
}

func TestValidateSchema(t *testing.T) {
	t.Run("MigratedDatabasePasses", func(t *testing.T) {
		db := openSQLite(t)
		require.NoError(t, db.AutoMigrate(models.AllModels()...))

		results, err := ValidateSchema(db)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].Valid, "errors: %v", results[0].Errors)
		assert.True(t, AllValid(results))
	})

	t.Run("MissingTableFails", func(t *testing.T) {
		db := openSQLite(t)

		results, err := ValidateSchema(db)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.False(t, results[0].Valid)
		assert.Contains(t, results[0].Errors[0], "does not exist")
		assert.False(t, AllValid(results))
	})

	t.Run("MissingColumnAndIndexFail", func(t *testing.T) {
		db := openSQLite(t)
		require.NoError(t, db.Exec(`CREATE TABLE notes (id varchar(36) PRIMARY KEY, content text NOT NULL, extra text)`).Error)

		results, err := ValidateSchema(db)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.False(t, results[0].Valid)
		assert.Contains(t, results[0].Errors, "Column 'important' does not exist")
		assert.Contains(t, results[0].Errors, "Index 'idx_notes_created_at' does not exist")
		assert.Contains(t, results[0].Warnings, "Unexpected column 'extra'")

		LogValidationResults(results)
	})
}
