//go:build oracle

package db

import (
	"gorm.io/gorm"

	// uses godror under the hood, requires CGO and Oracle Instant Client
	"github.com/oracle-samples/gorm-oracle/oracle"
)

// getOracleDialector returns the Oracle dialector. The DSN uses godror's
// logfmt form: user="u" password="p" connectString="host/service" [configDir="/wallet"]
func getOracleDialector(dsn string) gorm.Dialector {
	return oracle.Open(dsn)
}
