package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	JWTSecret     string           `json:"jwt_secret"`
	JWTTTLHours   int              `json:"jwt_ttl_hours"`
	Database      DatabaseConfig   `json:"database"`
	LogConfig     logger.LogConfig `json:"log_config"`
	FileStore     FileStoreConfig  `json:"file_store"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	// Minimum seconds between login attempts per client; 0 disables.
	LoginRateLimitSeconds int                 `json:"login_rate_limit_seconds"`
	StaleCheckout         StaleCheckoutConfig `json:"stale_checkout"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// StaleCheckoutConfig controls the periodic job that reports checkouts held
// longer than MaxAgeHours. The job only logs; it never releases a lock.
type StaleCheckoutConfig struct {
	CronSpec    string `json:"cron_spec"`
	MaxAgeHours int    `json:"max_age_hours"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		return nil, fmt.Errorf("file_store.type is required")
	}
	if cfg.StaleCheckout.CronSpec == "" {
		cfg.StaleCheckout.CronSpec = "0 * * * *"
	}
	if cfg.StaleCheckout.MaxAgeHours == 0 {
		cfg.StaleCheckout.MaxAgeHours = 72
	}
	return &cfg, nil
}
