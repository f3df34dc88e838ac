package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/notekeeper/notes/internal/slogging"
	"gopkg.in/yaml.v3"
)

// Supported database types
const (
	DatabaseTypeSQLite    = "sqlite"
	DatabaseTypePostgres  = "postgres"
	DatabaseTypeMySQL     = "mysql"
	DatabaseTypeSQLServer = "sqlserver"
	DatabaseTypeOracle    = "oracle"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Secrets    SecretsConfig    `yaml:"secrets"`
	Validation ValidationConfig `yaml:"validation"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                 string        `yaml:"port" env:"PORT"`
	Interface            string        `yaml:"interface" env:"SERVER_INTERFACE"`
	ReadTimeout          time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout         time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout          time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT"`
	ShutdownTimeout      time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	SlowRequestThreshold time.Duration `yaml:"slow_request_threshold" env:"SERVER_SLOW_REQUEST_THRESHOLD"`
}

// DatabaseConfig selects and tunes the note store connection
type DatabaseConfig struct {
	Type string `yaml:"type" env:"DATABASE_TYPE"`
	// URL is the driver DSN; when empty and Type is sqlite, SQLitePath is used
	URL string `yaml:"url" env:"DATABASE_URL"`
	// URLSecret names a secret holding the DSN, resolved through the secrets provider
	URLSecret       string        `yaml:"url_secret" env:"DATABASE_URL_SECRET"`
	SQLitePath      string        `yaml:"sqlite_path" env:"DATABASE_SQLITE_PATH"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env:"DATABASE_CONN_MAX_IDLE_TIME"`
	AutoMigrate     bool          `yaml:"auto_migrate" env:"DATABASE_AUTO_MIGRATE"`
	LogSQL          bool          `yaml:"log_sql" env:"DATABASE_LOG_SQL"`
}

// RedisConfig holds the optional note cache connection
type RedisConfig struct {
	// URL enables the cache when set, e.g. redis://:password@localhost:6379/0
	URL      string        `yaml:"url" env:"REDIS_URL"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"REDIS_CACHE_TTL"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level            string `yaml:"level" env:"LOGGING_LEVEL"`
	IsDev            bool   `yaml:"is_dev" env:"LOGGING_IS_DEV"`
	LogDir           string `yaml:"log_dir" env:"LOGGING_LOG_DIR"`
	MaxAgeDays       int    `yaml:"max_age_days" env:"LOGGING_MAX_AGE_DAYS"`
	MaxSizeMB        int    `yaml:"max_size_mb" env:"LOGGING_MAX_SIZE_MB"`
	MaxBackups       int    `yaml:"max_backups" env:"LOGGING_MAX_BACKUPS"`
	AlsoLogToConsole bool   `yaml:"also_log_to_console" env:"LOGGING_ALSO_LOG_TO_CONSOLE"`
	ConsoleOnly      bool   `yaml:"console_only" env:"LOGGING_CONSOLE_ONLY"`
	LogRequestBodies bool   `yaml:"log_request_bodies" env:"LOGGING_LOG_REQUEST_BODIES"`
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName       string  `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
	ServiceVersion    string  `yaml:"service_version" env:"OTEL_SERVICE_VERSION"`
	Environment       string  `yaml:"environment" env:"OTEL_ENVIRONMENT"`
	TracingEnabled    bool    `yaml:"tracing_enabled" env:"OTEL_TRACING_ENABLED"`
	TracingSampleRate float64 `yaml:"tracing_sample_rate" env:"OTEL_TRACING_SAMPLE_RATE"`
	// TracingEndpoint is an OTLP gRPC endpoint; empty writes spans to stdout
	TracingEndpoint string `yaml:"tracing_endpoint" env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`
	MetricsEnabled  bool   `yaml:"metrics_enabled" env:"OTEL_METRICS_ENABLED"`
	// MetricsEndpoint additionally pushes metrics over OTLP gRPC
	MetricsEndpoint string        `yaml:"metrics_endpoint" env:"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"`
	MetricsInterval time.Duration `yaml:"metrics_interval" env:"OTEL_METRICS_INTERVAL"`
	Insecure        bool          `yaml:"insecure" env:"OTEL_EXPORTER_OTLP_INSECURE"`
}

// SecretsConfig selects the secrets provider
type SecretsConfig struct {
	Provider         string `yaml:"provider" env:"SECRETS_PROVIDER"`
	AWSRegion        string `yaml:"aws_region" env:"SECRETS_AWS_REGION"`
	AWSSecretName    string `yaml:"aws_secret_name" env:"SECRETS_AWS_SECRET_NAME"`
	OCICompartmentID string `yaml:"oci_compartment_id" env:"SECRETS_OCI_COMPARTMENT_ID"`
	OCIVaultID       string `yaml:"oci_vault_id" env:"SECRETS_OCI_VAULT_ID"`
	OCISecretName    string `yaml:"oci_secret_name" env:"SECRETS_OCI_SECRET_NAME"`
}

// ValidationConfig holds note content limits
type ValidationConfig struct {
	// MaxContentLength is measured in runes; 0 disables the check
	MaxContentLength int `yaml:"max_content_length" env:"VALIDATION_MAX_CONTENT_LENGTH"`
	// StrictUnicode NFC-normalizes content and rejects invisible formatting
	// characters. Off by default so content is stored exactly as sent.
	StrictUnicode bool `yaml:"strict_unicode" env:"VALIDATION_STRICT_UNICODE"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load(configFile string) (*Config, error) {
	config := getDefaultConfig()

	if configFile != "" {
		if err := loadFromYAML(config, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config from YAML: %w", err)
		}
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, fmt.Errorf("failed to override with environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// getDefaultConfig returns a configuration with default values
func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                 "3001",
			Interface:            "0.0.0.0",
			ReadTimeout:          5 * time.Second,
			WriteTimeout:         10 * time.Second,
			IdleTimeout:          60 * time.Second,
			ShutdownTimeout:      15 * time.Second,
			SlowRequestThreshold: 2 * time.Second,
		},
		Database: DatabaseConfig{
			Type:            DatabaseTypeSQLite,
			SQLitePath:      "notes.db",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 10 * time.Minute,
			AutoMigrate:     true,
		},
		Redis: RedisConfig{
			CacheTTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:            "info",
			IsDev:            true,
			LogDir:           "logs",
			MaxAgeDays:       7,
			MaxSizeMB:        100,
			MaxBackups:       10,
			AlsoLogToConsole: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName:       "notes-api",
			Environment:       "development",
			TracingSampleRate: 1.0,
			MetricsInterval:   30 * time.Second,
		},
		Secrets: SecretsConfig{
			Provider: "env",
		},
		Validation: ValidationConfig{
			MaxContentLength: 10000,
		},
	}
}

// loadFromYAML loads configuration from a YAML file
func loadFromYAML(config *Config, filename string) error {
	data, err := os.ReadFile(filename) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return nil
}

// overrideWithEnv overrides configuration values with environment variables
func overrideWithEnv(config *Config) error {
	return overrideStructWithEnv(reflect.ValueOf(config).Elem())
}

// overrideStructWithEnv recursively overrides struct fields with environment variables
func overrideStructWithEnv(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := overrideStructWithEnv(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envValue := os.Getenv(envTag)
		if envValue == "" {
			continue
		}

		if err := setFieldFromString(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s from env %s: %w", fieldType.Name, envTag, err)
		}
	}

	return nil
}

// setFieldFromString sets a struct field value from a string based on the field type
func setFieldFromString(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool value: %s", value)
		}
		field.SetBool(boolVal)
	case reflect.Int:
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid int value: %s", value)
		}
		field.SetInt(int64(intVal))
	case reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration value: %s", value)
			}
			field.SetInt(int64(duration))
		} else {
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid int64 value: %s", value)
			}
			field.SetInt(intVal)
		}
	case reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
		field.SetFloat(floatVal)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("server port must be a number between 0 and 65535, got %q", c.Server.Port)
	}

	c.Database.Type = strings.ToLower(c.Database.Type)
	switch c.Database.Type {
	case DatabaseTypeSQLite:
		if c.Database.URL == "" && c.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite requires database url or sqlite path")
		}
	case DatabaseTypePostgres, DatabaseTypeMySQL, DatabaseTypeSQLServer, DatabaseTypeOracle:
		if c.Database.URL == "" && c.Database.URLSecret == "" {
			return fmt.Errorf("%s requires database url or url secret", c.Database.Type)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database pool sizes must not be negative")
	}

	if c.Redis.URL != "" && c.Redis.CacheTTL <= 0 {
		return fmt.Errorf("redis cache ttl must be greater than 0")
	}

	if c.Telemetry.TracingSampleRate < 0 || c.Telemetry.TracingSampleRate > 1 {
		return fmt.Errorf("tracing sample rate must be between 0.0 and 1.0")
	}

	if c.Validation.MaxContentLength < 0 {
		return fmt.Errorf("max content length must not be negative")
	}

	return nil
}

// ListenAddress returns the host:port the HTTP server binds to
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Interface, c.Server.Port)
}

// GetLogLevel returns the parsed log level
func (c *Config) GetLogLevel() slogging.LogLevel {
	return slogging.ParseLogLevel(c.Logging.Level)
}

// LoggerConfig converts the logging section to a slogging configuration
func (c *Config) LoggerConfig() slogging.Config {
	return slogging.Config{
		Level:            c.GetLogLevel(),
		IsDev:            c.Logging.IsDev,
		LogDir:           c.Logging.LogDir,
		MaxAgeDays:       c.Logging.MaxAgeDays,
		MaxSizeMB:        c.Logging.MaxSizeMB,
		MaxBackups:       c.Logging.MaxBackups,
		AlsoLogToConsole: c.Logging.AlsoLogToConsole,
		ConsoleOnly:      c.Logging.ConsoleOnly,
		LogRequestBodies: c.Logging.LogRequestBodies,
	}
}
