package db

import (
	"os"
	"strconv"
	"time"

	"github.com/m0rjc/OrmTestKit/internal/config"
)

// ProviderFromConfig picks the Postgres provider when a database URL is
// configured and an in-memory SQLite database otherwise.
func ProviderFromConfig(cfg *config.Config) DataSourceProvider {
	if cfg.Database.DatabaseURL != "" {
		p := NewPostgresDataSourceProvider(cfg.Database.DatabaseURL)
		if cfg.Database.MigrationsDir != "" {
			p.Changelog = os.DirFS(cfg.Database.MigrationsDir)
		}
		return p
	}

	p := NewSQLiteDataSourceProvider()
	if cfg.Database.MigrationsDir != "" {
		p.Changelog = os.DirFS(cfg.Database.MigrationsDir)
	}
	return p
}

// PropertiesFromConfig returns configuration properties for provider.
func PropertiesFromConfig(cfg *config.Config, provider DataSourceProvider) Properties {
	return Properties{
		PropertyDialect:      provider.Dialect(),
		PropertySchemaAction: cfg.Database.SchemaAction,
		PropertyShowSQL:      strconv.FormatBool(cfg.Database.ShowSQL),
	}
}

// CacheFromConfig connects the Redis second-level cache. It returns nil when
// no Redis URL is configured. The caller closes the returned client.
func CacheFromConfig(cfg *config.Config) (*RedisCache, *RedisClient, error) {
	if cfg.Cache.RedisURL == "" {
		return nil, nil, nil
	}
	client, err := NewRedisClient(cfg.Cache.RedisURL, cfg.Cache.RedisKeyPrefix)
	if err != nil {
		return nil, nil, err
	}
	return NewRedisCache(client, time.Duration(cfg.Cache.TTL)*time.Second), client, nil
}
