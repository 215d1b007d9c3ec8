// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Cost basis modes understood by the valuation engine.
const (
	CostBasisStoreOrder    = "store_order"
	CostBasisChronological = "chronological"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	// Origins allowed by CORS and the events websocket, empty allows any
	AllowedOrigins []string

	Finnhub FinnhubConfig

	PriceStaleAfter   time.Duration // Cached prices older than this are refreshed
	BulkRefreshDelay  time.Duration // Pause between sequential refreshes
	ReportingCurrency string        // Currency of ledger amounts
	CostBasisMode     string        // store_order or chronological
	RefreshSchedule   string        // Cron spec for the bulk refresh job, empty disables it

	// Cron spec for database maintenance and price cache pruning, empty disables both
	MaintenanceSchedule string

	Backup BackupConfig
}

// FinnhubConfig configures the quote provider client
type FinnhubConfig struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	RateLimit int // Requests per second
}

// BackupConfig configures ledger snapshots to S3-compatible storage
type BackupConfig struct {
	Enabled   bool
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // Custom endpoint for R2/MinIO, empty uses AWS
	AccessKey string
	SecretKey string
	Schedule  string

	RetentionDays int // Backups older than this are rotated out, 0 keeps everything
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("FOLIO_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("FOLIO_PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		Finnhub: FinnhubConfig{
			APIKey:    getEnv("FINNHUB_API_KEY", ""),
			BaseURL:   getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
			Timeout:   getEnvAsDuration("FINNHUB_TIMEOUT", 10*time.Second),
			RateLimit: getEnvAsInt("FINNHUB_RATE_LIMIT", 1),
		},
		PriceStaleAfter:   getEnvAsDuration("PRICE_STALE_AFTER", 15*time.Minute),
		BulkRefreshDelay:  getEnvAsDuration("BULK_REFRESH_DELAY", 500*time.Millisecond),
		ReportingCurrency: strings.ToUpper(getEnv("REPORTING_CURRENCY", "USD")),
		CostBasisMode:     getEnv("COST_BASIS_MODE", CostBasisStoreOrder),
		RefreshSchedule:   getEnv("PRICE_REFRESH_SCHEDULE", ""),

		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "0 0 2 * * *"),
		Backup: BackupConfig{
			Enabled:   getEnvAsBool("BACKUP_ENABLED", false),
			Bucket:    getEnv("BACKUP_BUCKET", ""),
			Prefix:    getEnv("BACKUP_PREFIX", "folio"),
			Region:    getEnv("BACKUP_REGION", "auto"),
			Endpoint:  getEnv("BACKUP_ENDPOINT", ""),
			AccessKey: getEnv("BACKUP_ACCESS_KEY", ""),
			SecretKey: getEnv("BACKUP_SECRET_KEY", ""),
			Schedule:  getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),

			RetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the loaded values are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.PriceStaleAfter <= 0 {
		return fmt.Errorf("PRICE_STALE_AFTER must be positive, got %s", c.PriceStaleAfter)
	}
	if c.BulkRefreshDelay < 0 {
		return fmt.Errorf("BULK_REFRESH_DELAY must not be negative, got %s", c.BulkRefreshDelay)
	}
	if c.Finnhub.RateLimit <= 0 {
		return fmt.Errorf("FINNHUB_RATE_LIMIT must be positive, got %d", c.Finnhub.RateLimit)
	}
	if len(c.ReportingCurrency) != 3 {
		return fmt.Errorf("REPORTING_CURRENCY must be a 3-letter code, got %q", c.ReportingCurrency)
	}

	switch c.CostBasisMode {
	case CostBasisStoreOrder, CostBasisChronological:
	default:
		return fmt.Errorf("unknown COST_BASIS_MODE %q", c.CostBasisMode)
	}

	// Schedules use the seconds-enabled cron dialect of the scheduler
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if c.RefreshSchedule != "" {
		if _, err := parser.Parse(c.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid PRICE_REFRESH_SCHEDULE: %w", err)
		}
	}
	if c.MaintenanceSchedule != "" {
		if _, err := parser.Parse(c.MaintenanceSchedule); err != nil {
			return fmt.Errorf("invalid MAINTENANCE_SCHEDULE: %w", err)
		}
	}

	if c.Backup.Enabled {
		if c.Backup.Bucket == "" {
			return fmt.Errorf("BACKUP_BUCKET is required when backups are enabled")
		}
		if _, err := parser.Parse(c.Backup.Schedule); err != nil {
			return fmt.Errorf("invalid BACKUP_SCHEDULE: %w", err)
		}
		if c.Backup.RetentionDays < 0 {
			return fmt.Errorf("BACKUP_RETENTION_DAYS must not be negative, got %d", c.Backup.RetentionDays)
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
