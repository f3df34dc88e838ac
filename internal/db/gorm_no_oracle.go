//go:build !oracle

package db

import (
	"gorm.io/gorm"
)

// getOracleDialector returns nil when built without the oracle tag.
// Oracle support requires CGO and the Oracle Instant Client libraries.
func getOracleDialector(dsn string) gorm.Dialector {
	return nil
}
