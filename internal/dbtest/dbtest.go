// Package dbtest bootstraps a freshly migrated database and a session
// factory for tests.
//
// A test describes what it needs through a Fixture. Only Entities is
// required; the optional hook interfaces in this package override the
// defaults (in-memory SQLite, validate the schema, no interceptor, no
// second-level cache):
//
//	type carFixture struct{}
//
//	func (carFixture) Entities() []any { return []any{&db.Manufacturer{}, &db.Car{}} }
//
//	func TestCars(t *testing.T) {
//		factory := dbtest.NewSessionFactory(t, carFixture{})
//		...
//	}
//
// Suites built on testify can embed Suite instead, which builds a new
// factory before every test.
package dbtest

import (
	"context"
	"testing"

	"github.com/m0rjc/OrmTestKit/internal/db"
)

// Fixture lists the models a test maps.
type Fixture interface {
	Entities() []any
}

// PackageFixture adds model packages registered with db.RegisterPackage.
type PackageFixture interface {
	Packages() []string
}

// InterceptorFixture installs an interceptor on the session factory.
type InterceptorFixture interface {
	Interceptor() db.Interceptor
}

// DataSourceFixture replaces the default in-memory SQLite provider.
type DataSourceFixture interface {
	DataSourceProvider() db.DataSourceProvider
}

// PropertiesFixture adjusts the configuration properties. It receives the
// defaults and returns the properties to use.
type PropertiesFixture interface {
	Properties(defaults db.Properties) db.Properties
}

// CacheFixture enables a second-level cache.
type CacheFixture interface {
	SecondLevelCache() db.SecondLevelCache
}

// DefaultDataSourceProvider returns a provider for a new, uniquely named in-memory database.
func DefaultDataSourceProvider() db.DataSourceProvider {
	return db.NewSQLiteDataSourceProvider()
}

// DefaultProperties are the properties used unless a PropertiesFixture changes them.
func DefaultProperties(provider db.DataSourceProvider) db.Properties {
	return db.Properties{
		db.PropertyDialect:      provider.Dialect(),
		db.PropertySchemaAction: db.SchemaActionValidate,
	}
}

// NewSessionFactory migrates a new data source and builds a session factory
// for the fixture. The factory is closed when the test finishes. Any
// failure fails the test immediately.
func NewSessionFactory(t testing.TB, fixture Fixture) *db.SessionFactory {
	t.Helper()

	factory, err := Build(context.Background(), fixture)
	if err != nil {
		t.Fatalf("Failed to build session factory: %v", err)
	}
	t.Cleanup(func() {
		if err := factory.Close(); err != nil {
			t.Errorf("Failed to close session factory: %v", err)
		}
	})
	return factory
}

// Build is NewSessionFactory without a testing.TB; the caller owns the
// returned factory. Migrations always complete before the factory is built.
func Build(ctx context.Context, fixture Fixture) (*db.SessionFactory, error) {
	provider := DefaultDataSourceProvider()
	if f, ok := fixture.(DataSourceFixture); ok {
		provider = f.DataSourceProvider()
	}

	props := DefaultProperties(provider)
	if f, ok := fixture.(PropertiesFixture); ok {
		props = f.Properties(props)
	}

	cfg := db.NewConfiguration().AddProperties(props)
	for _, entity := range fixture.Entities() {
		cfg.AddAnnotatedModel(entity)
	}
	if f, ok := fixture.(PackageFixture); ok {
		for _, name := range f.Packages() {
			cfg.AddPackage(name)
		}
	}
	if f, ok := fixture.(InterceptorFixture); ok {
		if interceptor := f.Interceptor(); interceptor != nil {
			cfg.SetInterceptor(interceptor)
		}
	}
	if f, ok := fixture.(CacheFixture); ok {
		if cache := f.SecondLevelCache(); cache != nil {
			cfg.SetSecondLevelCache(cache)
		}
	}

	ds, err := provider.DataSource(ctx)
	if err != nil {
		return nil, err
	}

	factory, err := cfg.BuildSessionFactory(ds)
	if err != nil {
		_ = ds.Close()
		return nil, err
	}
	return factory, nil
}
