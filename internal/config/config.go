package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Schema actions applied when a session factory is built.
const (
	SchemaActionValidate = "validate"
	SchemaActionUpdate   = "update"
	SchemaActionNone     = "none"
)

// SchemaActions lists every accepted SCHEMA_ACTION value.
var SchemaActions = []string{SchemaActionValidate, SchemaActionUpdate, SchemaActionNone}

type Config struct {
	Database DatabaseConfig
	Cache    CacheConfig
}

type DatabaseConfig struct {
	// DatabaseURL points at a server database. Empty selects the in-memory engine.
	DatabaseURL string

	// MigrationsDir overrides the embedded changelog with a directory on disk.
	MigrationsDir string

	SchemaAction string // validate, update or none
	ShowSQL      bool
}

type CacheConfig struct {
	// RedisURL enables the second-level cache. Empty disables it.
	RedisURL       string
	RedisKeyPrefix string
	TTL            int // seconds
}

func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			DatabaseURL:   getEnv("DATABASE_URL", ""),
			MigrationsDir: getEnv("MIGRATIONS_DIR", ""),
			SchemaAction:  strings.ToLower(getEnv("SCHEMA_ACTION", SchemaActionValidate)),
			ShowSQL:       getEnvAsBool("SHOW_SQL", false),
		},
		Cache: CacheConfig{
			RedisURL:       getEnv("REDIS_URL", ""),
			RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "ormtestkit:"),
			TTL:            getEnvAsInt("CACHE_TTL", 300), // 5 minutes default
		},
	}

	if !slices.Contains(SchemaActions, cfg.Database.SchemaAction) {
		return nil, fmt.Errorf("SCHEMA_ACTION must be one of %s (got %q)", strings.Join(SchemaActions, ", "), cfg.Database.SchemaAction)
	}
	if cfg.Cache.TTL <= 0 {
		return nil, fmt.Errorf("CACHE_TTL must be positive (got %d)", cfg.Cache.TTL)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
