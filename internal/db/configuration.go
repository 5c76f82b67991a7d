package db

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/m0rjc/OrmTestKit/internal/logging"
	"github.com/m0rjc/OrmTestKit/internal/metrics"
)

// ErrDialectMismatch is returned when the dialect property names a different
// database than the data source being mapped.
var ErrDialectMismatch = errors.New("dialect does not match data source")

// Configuration collects properties, mapped models, package scans and an
// optional interceptor, and builds a SessionFactory from them.
type Configuration struct {
	properties  Properties
	models      []any
	packages    []string
	interceptor Interceptor
	cache       SecondLevelCache
}

func NewConfiguration() *Configuration {
	return &Configuration{properties: Properties{}}
}

// AddProperties merges props into the configuration. Later values win.
func (c *Configuration) AddProperties(props Properties) *Configuration {
	for k, v := range props {
		c.properties[k] = v
	}
	return c
}

// AddAnnotatedModel maps a gorm-tagged struct (pass a pointer, e.g. &Car{}).
func (c *Configuration) AddAnnotatedModel(model any) *Configuration {
	c.models = append(c.models, model)
	return c
}

// AddPackage maps every model registered under name with RegisterPackage.
func (c *Configuration) AddPackage(name string) *Configuration {
	c.packages = append(c.packages, name)
	return c
}

func (c *Configuration) SetInterceptor(interceptor Interceptor) *Configuration {
	c.interceptor = interceptor
	return c
}

func (c *Configuration) SetSecondLevelCache(cache SecondLevelCache) *Configuration {
	c.cache = cache
	return c
}

// resolveModels expands package scans and drops duplicate model types,
// keeping first-seen order.
func (c *Configuration) resolveModels() ([]any, error) {
	all := append([]any(nil), c.models...)
	for _, name := range c.packages {
		models, err := PackageModels(name)
		if err != nil {
			return nil, err
		}
		all = append(all, models...)
	}

	seen := make(map[reflect.Type]bool, len(all))
	out := make([]any, 0, len(all))
	for _, model := range all {
		if model == nil {
			return nil, fmt.Errorf("nil model")
		}
		t := reflect.TypeOf(model)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, model)
	}
	return out, nil
}

// BuildSessionFactory maps the configured models onto ds. The data source
// must have been migrated first.
func (c *Configuration) BuildSessionFactory(ds *DataSource) (*SessionFactory, error) {
	database := "unknown"
	if ds != nil {
		database = string(ds.Database)
	}

	factory, err := c.build(ds)
	if err != nil {
		metrics.SessionFactoriesBuilt.WithLabelValues(database, "error").Inc()
		var mismatch *SchemaMismatchError
		if errors.As(err, &mismatch) {
			metrics.SchemaValidationFailures.Inc()
		}
		return nil, err
	}

	metrics.SessionFactoriesBuilt.WithLabelValues(database, "success").Inc()
	slog.Info("session factory built",
		"database", database,
		"schema_version", ds.Version(),
		"models", len(factory.models),
		"schema_action", factory.properties.Get(PropertySchemaAction, SchemaActionValidate),
	)
	return factory, nil
}

func (c *Configuration) build(ds *DataSource) (*SessionFactory, error) {
	if !ds.Migrated() {
		return nil, ErrNotMigrated
	}

	props := c.properties.Clone()
	if dialect := props[PropertyDialect]; dialect != "" && dialect != string(ds.Database) {
		return nil, fmt.Errorf("%w: %s configured, data source is %s", ErrDialectMismatch, dialect, ds.Database)
	}

	models, err := c.resolveModels()
	if err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(ds.dialector, &gorm.Config{
		Logger: newGormLogger(props.GetBool(PropertyShowSQL, false)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gorm connection: %w", err)
	}

	if c.interceptor != nil {
		if err := gormDB.Use(&interceptorPlugin{interceptor: c.interceptor}); err != nil {
			return nil, fmt.Errorf("failed to install interceptor: %w", err)
		}
	}

	if err := applySchemaAction(gormDB, props.Get(PropertySchemaAction, SchemaActionValidate), models); err != nil {
		return nil, err
	}

	cache := c.cache
	if cache == nil {
		cache = noCache{}
	}

	return &SessionFactory{
		db:         gormDB,
		dataSource: ds,
		models:     models,
		properties: props,
		cache:      cache,
	}, nil
}

// newGormLogger routes gorm output through slog. With showSQL every statement
// is logged at info level, otherwise only warnings and slow queries.
func newGormLogger(showSQL bool) logger.Interface {
	level := logger.Warn
	if showSQL {
		level = logger.Info
	}
	return logger.New(logging.NewWriter("gorm", slog.LevelInfo), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
