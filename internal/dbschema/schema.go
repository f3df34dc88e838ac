package dbschema

import (
	"strings"
)

// TableSchema represents the expected schema for a table
type TableSchema struct {
	Name    string
	Columns []ColumnSchema
	Indexes []IndexSchema
}

// ColumnSchema represents the expected schema for a column
type ColumnSchema struct {
	Name         string
	IsNullable   bool
	IsPrimaryKey bool
}

// IndexSchema represents the expected schema for an index
type IndexSchema struct {
	Name    string
	Columns []string
}

// GetExpectedSchema returns the complete expected database schema
func GetExpectedSchema() []TableSchema {
	return []TableSchema{
		{
			Name: "notes",
			Columns: []ColumnSchema{
				{Name: "id", IsNullable: false, IsPrimaryKey: true},
				{Name: "content", IsNullable: false},
				{Name: "important", IsNullable: false},
				{Name: "created_at", IsNullable: false},
				{Name: "modified_at", IsNullable: false},
			},
			Indexes: []IndexSchema{
				{Name: "idx_notes_created_at", Columns: []string{"created_at"}},
			},
		},
	}
}

// GetTableNames returns the names of every expected table
func GetTableNames() []string {
	tables := GetExpectedSchema()
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}
	return names
}

// normalizeName folds identifiers so Oracle's upper-case catalog matches
func normalizeName(name string) string {
	return strings.ToLower(strings.Trim(name, `"`))
}
