package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/notekeeper/notes/api/models"
	"github.com/notekeeper/notes/api/seed"
	"github.com/notekeeper/notes/internal/config"
	"github.com/notekeeper/notes/internal/db"
	"github.com/notekeeper/notes/internal/dbschema"
	"github.com/notekeeper/notes/internal/secrets"
	"github.com/notekeeper/notes/internal/slogging"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to configuration file")
		checkOnly  = flag.Bool("check", false, "Only validate the schema, do not migrate")
		seedData   = flag.Bool("seed", false, "Insert the sample notes after migrating")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logCfg := cfg.LoggerConfig()
	logCfg.AlsoLogToConsole = true
	if err := slogging.Initialize(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := slogging.Get()

	if err := run(context.Background(), cfg, *checkOnly, *seedData); err != nil {
		logger.Error("%v", err)
		_ = logger.Close()
		os.Exit(1)
	}
	_ = logger.Close()
}

func run(ctx context.Context, cfg *config.Config, checkOnly, seedData bool) error {
	logger := slogging.Get()

	provider, err := secrets.NewProvider(ctx, &cfg.Secrets)
	if err != nil {
		return fmt.Errorf("failed to create secrets provider: %w", err)
	}
	defer func() { _ = provider.Close() }()
	if err := secrets.ResolveConnectionStrings(ctx, provider, cfg); err != nil {
		return err
	}

	dsn := cfg.Database.URL
	if dsn == "" {
		dsn = cfg.Database.SQLitePath
	}
	gormDB, err := db.NewGormDB(db.GormConfig{
		Type:   db.DatabaseType(cfg.Database.Type),
		DSN:    dsn,
		LogSQL: cfg.Database.LogSQL,
	})
	if err != nil {
		return err
	}
	defer func() { _ = gormDB.Close() }()

	if !checkOnly {
		logger.Info("Running auto-migration for %d models...", len(models.AllModels()))
		if err := gormDB.AutoMigrate(models.AllModels()...); err != nil {
			return err
		}
		logger.Info("Migration complete")

		if seedData {
			if err := seed.SeedDatabase(gormDB.DB()); err != nil {
				return err
			}
		}
	}

	results, err := dbschema.ValidateSchema(gormDB.DB())
	if err != nil {
		return fmt.Errorf("failed to validate schema: %w", err)
	}
	dbschema.LogValidationResults(results)

	if !dbschema.AllValid(results) {
		return fmt.Errorf("database schema validation failed; run without -check to migrate")
	}
	return nil
}
