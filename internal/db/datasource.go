package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"

	"gorm.io/gorm"
)

// Database identifies the engine behind a data source.
type Database string

const (
	SQLite   Database = "sqlite"
	Postgres Database = "postgres"
)

// IdentifierStrategy is a primary key generation strategy supported by a database.
type IdentifierStrategy string

const (
	Identity IdentifierStrategy = "identity"
	Sequence IdentifierStrategy = "sequence"
)

// DataSourceProvider describes how to reach a database and how to bring its
// schema up to date.
type DataSourceProvider interface {
	// Dialect is the dialect name the ORM configuration is built with.
	Dialect() string

	// Open connects to the database without touching its schema.
	Open(ctx context.Context) (*DataSource, error)

	// DataSource connects and applies the changelog. It never returns a
	// data source whose migrations did not complete.
	DataSource(ctx context.Context) (*DataSource, error)

	// DataSourceProperties returns the url, user and password of the data source.
	DataSourceProperties() Properties

	IdentifierStrategies() []IdentifierStrategy
	Database() Database
}

// DataSource is an open connection pool plus what is needed to migrate it
// and hand it to the ORM.
type DataSource struct {
	DB        *sql.DB
	Database  Database
	Changelog fs.FS

	dialector gorm.Dialector
	migrated  bool
	version   int64
}

// Migrated reports whether the changelog has been applied through Migrate.
func (ds *DataSource) Migrated() bool {
	return ds != nil && ds.migrated
}

// Version is the schema version reached by the last Migrate call.
func (ds *DataSource) Version() int64 {
	return ds.version
}

// Close closes the underlying connection pool. For in-memory databases this
// discards all data.
func (ds *DataSource) Close() error {
	return ds.DB.Close()
}

// SupportsStrategy reports whether a provider supports the given identifier strategy.
func SupportsStrategy(p DataSourceProvider, s IdentifierStrategy) bool {
	return slices.Contains(p.IdentifierStrategies(), s)
}

// openAndMigrate is the shared DataSource implementation: connect, then
// apply the changelog, closing the connection if migration fails.
func openAndMigrate(ctx context.Context, p DataSourceProvider) (*DataSource, error) {
	ds, err := p.Open(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := Migrate(ctx, ds); err != nil {
		if closeErr := ds.Close(); closeErr != nil {
			slog.Warn("failed to close data source after migration failure",
				"database", ds.Database,
				"error", closeErr,
			)
		}
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return ds, nil
}

// pingDataSource verifies a freshly opened pool, closing it on failure.
func pingDataSource(ctx context.Context, sqlDB *sql.DB) error {
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Join(fmt.Errorf("failed to ping database: %w", err), sqlDB.Close())
	}
	return nil
}
