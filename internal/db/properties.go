package db

import (
	"maps"
	"strconv"
	"time"

	"github.com/m0rjc/OrmTestKit/internal/config"
)

// Property keys understood by Configuration and the data source providers.
const (
	PropertyDialect      = "dialect"
	PropertySchemaAction = "schema.action"
	PropertyShowSQL      = "show_sql"

	PropertyURL      = "url"
	PropertyUser     = "user"
	PropertyPassword = "password"
)

// Schema actions, applied once the session factory has connected.
const (
	SchemaActionValidate = config.SchemaActionValidate
	SchemaActionUpdate   = config.SchemaActionUpdate
	SchemaActionNone     = config.SchemaActionNone
)

// Properties holds string settings for a configuration or data source.
type Properties map[string]string

// Get returns the value for key, or defaultValue when it is unset or empty.
func (p Properties) Get(key, defaultValue string) string {
	if value := p[key]; value != "" {
		return value
	}
	return defaultValue
}

func (p Properties) GetBool(key string, defaultValue bool) bool {
	if value := p[key]; value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetDuration accepts Go duration strings ("30s") or a bare number of seconds.
func (p Properties) GetDuration(key string, defaultValue time.Duration) time.Duration {
	value := p[key]
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

// Clone returns an independent copy.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	maps.Copy(out, p)
	return out
}
