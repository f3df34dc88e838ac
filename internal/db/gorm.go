package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/notekeeper/notes/internal/slogging"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DatabaseType represents the type of database
type DatabaseType string

const (
	DatabaseTypePostgres  DatabaseType = "postgres"
	DatabaseTypeOracle    DatabaseType = "oracle"
	DatabaseTypeMySQL     DatabaseType = "mysql"
	DatabaseTypeSQLServer DatabaseType = "sqlserver"
	DatabaseTypeSQLite    DatabaseType = "sqlite"
)

// GormConfig holds the configuration for a GORM database connection
type GormConfig struct {
	Type DatabaseType
	// DSN is passed to the dialector unchanged. For sqlite it is a file path or ":memory:".
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// LogSQL traces every statement at debug level
	LogSQL bool
	// Tracing installs the OpenTelemetry GORM plugin
	Tracing bool
}

// GormDB represents a GORM database connection for any supported dialect
type GormDB struct {
	db  *gorm.DB
	cfg GormConfig
}

// NewGormDB creates a new GORM database connection based on configuration
func NewGormDB(cfg GormConfig) (*GormDB, error) {
	log := slogging.Get()
	log.Debug("Initializing GORM connection for database type: %s", cfg.Type)

	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("Using %s store at %s", cfg.Type, DescribeDSN(cfg.Type, cfg.DSN))

	gormConfig := &gorm.Config{
		Logger: newGormLogger(log, cfg.LogSQL),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: cfg.Type != DatabaseTypeSQLite,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		log.Error("Failed to open GORM connection: %v", err)
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	if cfg.Tracing {
		if err := db.Use(otelgorm.NewPlugin(otelgorm.WithDBName(string(cfg.Type)))); err != nil {
			return nil, fmt.Errorf("failed to install gorm tracing plugin: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Error("Failed to get underlying sql.DB: %v", err)
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpen, maxIdle := cfg.MaxOpenConns, cfg.MaxIdleConns
	maxLifetime, maxIdleTime := cfg.ConnMaxLifetime, cfg.ConnMaxIdleTime
	if cfg.Type == DatabaseTypeSQLite {
		// one long-lived connection: a second or recycled connection to
		// ":memory:" would see a different, empty database
		maxOpen, maxIdle = 1, 1
		maxLifetime, maxIdleTime = 0, 0
	}
	log.Debug("Setting GORM connection pool parameters: maxOpen=%d, maxIdle=%d, maxLifetime=%s, maxIdleTime=%s",
		maxOpen, maxIdle, maxLifetime, maxIdleTime)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(maxLifetime)
	sqlDB.SetConnMaxIdleTime(maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		log.Error("Failed to ping database: %v", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Debug("GORM connection established successfully")

	return &GormDB{db: db, cfg: cfg}, nil
}

func openDialector(cfg GormConfig) (gorm.Dialector, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("missing connection string for database type: %s", cfg.Type)
	}

	switch cfg.Type {
	case DatabaseTypePostgres:
		return postgres.Open(cfg.DSN), nil
	case DatabaseTypeMySQL:
		return mysql.Open(cfg.DSN), nil
	case DatabaseTypeSQLServer:
		return sqlserver.Open(cfg.DSN), nil
	case DatabaseTypeSQLite:
		return sqlite.Open(cfg.DSN), nil
	case DatabaseTypeOracle:
		dialector := getOracleDialector(cfg.DSN)
		if dialector == nil {
			return nil, fmt.Errorf("oracle support not compiled in; rebuild with -tags oracle")
		}
		return dialector, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// DescribeDSN renders a connection target for logs without credentials
func DescribeDSN(dbType DatabaseType, dsn string) string {
	switch dbType {
	case DatabaseTypeSQLite:
		return dsn
	case DatabaseTypePostgres:
		pc, err := pgconn.ParseConfig(dsn)
		if err != nil {
			return "<unparseable dsn>"
		}
		return fmt.Sprintf("%s:%d/%s", pc.Host, pc.Port, pc.Database)
	case DatabaseTypeMySQL:
		mc, err := mysqldriver.ParseDSN(dsn)
		if err != nil {
			return "<unparseable dsn>"
		}
		return fmt.Sprintf("%s(%s)/%s", mc.Net, mc.Addr, mc.DBName)
	case DatabaseTypeSQLServer:
		u, err := url.Parse(dsn)
		if err != nil || u.Host == "" {
			return "<unparseable dsn>"
		}
		return fmt.Sprintf("%s/%s", u.Host, u.Query().Get("database"))
	default:
		if at := strings.LastIndex(dsn, "@"); at >= 0 {
			return dsn[at+1:]
		}
		return "<redacted>"
	}
}

// Close closes the database connection
func (g *GormDB) Close() error {
	log := slogging.Get()
	log.Debug("Closing GORM connection")

	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		log.Error("Error closing GORM connection: %v", err)
		return fmt.Errorf("error closing database connection: %w", err)
	}

	log.Debug("GORM connection closed successfully")
	return nil
}

// DB returns the GORM database instance
func (g *GormDB) DB() *gorm.DB {
	return g.db
}

// DatabaseType returns the configured dialect
func (g *GormDB) DatabaseType() DatabaseType {
	return g.cfg.Type
}

// Ping checks if the database connection is alive
func (g *GormDB) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// LogStats logs statistics about the database connection pool
func (g *GormDB) LogStats() {
	log := slogging.Get()

	sqlDB, err := g.db.DB()
	if err != nil {
		log.Error("Failed to get underlying sql.DB for stats: %v", err)
		return
	}

	stats := sqlDB.Stats()
	log.Debug("GORM connection pool stats: open=%d, inUse=%d, idle=%d, waitCount=%d, waitDuration=%s",
		stats.OpenConnections,
		stats.InUse,
		stats.Idle,
		stats.WaitCount,
		stats.WaitDuration,
	)
}

// AutoMigrate runs GORM auto-migration for the given models
func (g *GormDB) AutoMigrate(models ...any) error {
	log := slogging.Get()
	log.Debug("Running GORM auto-migration for %d models", len(models))

	if err := g.db.AutoMigrate(models...); err != nil {
		// ORA-01442: column to be modified to NOT NULL is already NOT NULL
		if g.cfg.Type == DatabaseTypeOracle && strings.Contains(err.Error(), "ORA-01442") {
			log.Warn("Oracle migration warning (ignored): column already NOT NULL")
			return nil
		}
		log.Error("GORM auto-migration failed: %v", err)
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	log.Debug("GORM auto-migration completed successfully")
	return nil
}

// gormLogger adapts slogging to GORM's logger interface
type gormLogger struct {
	log      *slogging.Logger
	traceSQL bool
}

func newGormLogger(log *slogging.Logger, traceSQL bool) logger.Interface {
	return &gormLogger{log: log, traceSQL: traceSQL}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return l
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.log.Info(msg, data...)
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.log.Warn(msg, data...)
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.log.Error(msg, data...)
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if err == nil && !l.traceSQL {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()

	// record-not-found is an expected outcome for single-note lookups
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.log.Error("GORM query error: %v [%s] (%d rows, %s)", err, sql, rows, elapsed)
		return
	}
	l.log.Debug("GORM query: %s (%d rows, %s)", sql, rows, elapsed)
}
