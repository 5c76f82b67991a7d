package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "MIGRATIONS_DIR", "SCHEMA_ACTION", "SHOW_SQL", "REDIS_URL", "REDIS_KEY_PREFIX", "CACHE_TTL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Database.DatabaseURL)
	assert.Equal(t, SchemaActionValidate, cfg.Database.SchemaAction)
	assert.False(t, cfg.Database.ShowSQL)
	assert.Empty(t, cfg.Cache.RedisURL)
	assert.Equal(t, "ormtestkit:", cfg.Cache.RedisKeyPrefix)
	assert.Equal(t, 300, cfg.Cache.TTL)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://sa@localhost/test")
	t.Setenv("MIGRATIONS_DIR", "/tmp/changelog")
	t.Setenv("SCHEMA_ACTION", "UPDATE")
	t.Setenv("SHOW_SQL", "true")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("CACHE_TTL", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://sa@localhost/test", cfg.Database.DatabaseURL)
	assert.Equal(t, "/tmp/changelog", cfg.Database.MigrationsDir)
	assert.Equal(t, SchemaActionUpdate, cfg.Database.SchemaAction)
	assert.True(t, cfg.Database.ShowSQL)
	assert.Equal(t, "redis://localhost:6379", cfg.Cache.RedisURL)
	assert.Equal(t, 60, cfg.Cache.TTL)
}

func TestLoad_RejectsUnknownSchemaAction(t *testing.T) {
	t.Setenv("SCHEMA_ACTION", "create-drop")

	_, err := Load()
	assert.ErrorContains(t, err, "SCHEMA_ACTION")
}

func TestLoad_AcceptsEverySchemaAction(t *testing.T) {
	for _, action := range SchemaActions {
		t.Setenv("SCHEMA_ACTION", strings.ToUpper(action))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, action, cfg.Database.SchemaAction)
	}
}

func TestLoad_RejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("SCHEMA_ACTION", "")
	t.Setenv("CACHE_TTL", "-5")

	_, err := Load()
	assert.ErrorContains(t, err, "CACHE_TTL")
}
