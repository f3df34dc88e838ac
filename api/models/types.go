package models

import (
	"database/sql/driver"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Dialect names as reported by gorm.Dialector.Name()
const (
	dialectPostgres  = "postgres"
	dialectOracle    = "oracle"
	dialectMySQL     = "mysql"
	dialectSQLServer = "sqlserver"
	dialectSQLite    = "sqlite"
)

// DBBool is a boolean column that scans from every dialect's representation:
// native booleans, NUMBER(1), TINYINT(1) and BIT.
type DBBool bool

// GormDBDataType returns the dialect-specific column type
func (DBBool) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Name() {
	case dialectOracle:
		return "NUMBER(1)"
	case dialectMySQL:
		return "TINYINT(1)"
	case dialectSQLServer:
		return "BIT"
	case dialectSQLite:
		return "INTEGER"
	case dialectPostgres:
		return "BOOLEAN"
	default:
		return "BOOLEAN"
	}
}

// Scan implements sql.Scanner
func (b *DBBool) Scan(value any) error {
	if value == nil {
		*b = false
		return nil
	}

	switch v := value.(type) {
	case bool:
		*b = DBBool(v)
	case int64:
		*b = v != 0
	case int:
		*b = v != 0
	case int32:
		*b = v != 0
	case float64:
		*b = v != 0
	case []byte:
		s := string(v)
		*b = s != "" && s != "0" && s != "f" && s != "false"
	default:
		// godror.Number implements fmt.Stringer
		stringer, ok := value.(fmt.Stringer)
		if !ok {
			return fmt.Errorf("cannot scan type %T into DBBool", value)
		}
		str := stringer.String()
		*b = str != "0" && str != ""
	}
	return nil
}

// Value implements driver.Valuer
func (b DBBool) Value() (driver.Value, error) {
	return bool(b), nil
}

// Bool returns the underlying bool value.
func (b DBBool) Bool() bool {
	return bool(b)
}
