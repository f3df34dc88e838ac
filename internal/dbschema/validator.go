package dbschema

import (
	"fmt"

	"github.com/notekeeper/notes/internal/slogging"
	"gorm.io/gorm"
)

// ValidationResult represents the result of a schema validation
type ValidationResult struct {
	TableName string
	Valid     bool
	Errors    []string
	Warnings  []string
}

// ValidateSchema checks the live database against the expected schema using
// the dialect's GORM migrator, so it works on every supported database
func ValidateSchema(db *gorm.DB) ([]ValidationResult, error) {
	logger := slogging.Get()
	logger.Debug("Starting database schema validation")

	migrator := db.Migrator()
	expectedTables := GetExpectedSchema()
	results := make([]ValidationResult, 0, len(expectedTables))

	for _, expectedTable := range expectedTables {
		logger.Debug("Validating table: %s", expectedTable.Name)

		result := ValidationResult{
			TableName: expectedTable.Name,
			Valid:     true,
			Errors:    []string{},
			Warnings:  []string{},
		}

		if !migrator.HasTable(expectedTable.Name) {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Table '%s' does not exist", expectedTable.Name))
			results = append(results, result)
			continue
		}

		if err := validateTableColumns(db, expectedTable, &result); err != nil {
			logger.Error("Failed to validate columns for table %s: %v", expectedTable.Name, err)
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to validate columns: %v", err))
		}

		for _, index := range expectedTable.Indexes {
			if !migrator.HasIndex(expectedTable.Name, index.Name) {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf("Index '%s' does not exist", index.Name))
			}
		}

		results = append(results, result)
	}

	return results, nil
}

func validateTableColumns(db *gorm.DB, expectedTable TableSchema, result *ValidationResult) error {
	columnTypes, err := db.Migrator().ColumnTypes(expectedTable.Name)
	if err != nil {
		return fmt.Errorf("failed to read column types: %w", err)
	}

	actual := make(map[string]gorm.ColumnType, len(columnTypes))
	for _, ct := range columnTypes {
		actual[normalizeName(ct.Name())] = ct
	}

	for _, expected := range expectedTable.Columns {
		ct, ok := actual[expected.Name]
		if !ok {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Column '%s' does not exist", expected.Name))
			continue
		}
		delete(actual, expected.Name)

		// not every driver reports nullability
		if nullable, ok := ct.Nullable(); ok && nullable != expected.IsNullable && !expected.IsPrimaryKey {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Column '%s' nullable=%t, expected %t", expected.Name, nullable, expected.IsNullable))
		}
	}

	for name := range actual {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Unexpected column '%s'", name))
	}
	return nil
}

// LogValidationResults logs the validation results
func LogValidationResults(results []ValidationResult) {
	logger := slogging.Get()

	allValid := true
	for _, result := range results {
		if !result.Valid {
			allValid = false
			logger.Error("Schema validation failed for table '%s':", result.TableName)
			for _, err := range result.Errors {
				logger.Error("  - %s", err)
			}
		} else {
			logger.Debug("Schema validation passed for table '%s'", result.TableName)
		}

		for _, warning := range result.Warnings {
			logger.Warn("  Warning for table '%s': %s", result.TableName, warning)
		}
	}

	if allValid {
		logger.Info("Database schema validation completed successfully - all tables match expected schema")
	} else {
		logger.Error("Database schema validation failed - some tables do not match expected schema")
	}
}

// AllValid reports whether every result passed
func AllValid(results []ValidationResult) bool {
	for _, r := range results {
		if !r.Valid {
			return false
		}
	}
	return true
}
