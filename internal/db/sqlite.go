package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"

	"github.com/m0rjc/OrmTestKit/internal/db/migrations"
)

const sqliteDriverName = "sqlite3"

// SQLiteDataSourceProvider provides in-memory SQLite databases. This is the
// default provider for tests.
type SQLiteDataSourceProvider struct {
	// Name of the in-memory database. Providers with the same name share a
	// database while any connection to it is open. Empty gives every Open a
	// private database.
	Name string

	// Changelog overrides the embedded SQLite changelog.
	Changelog fs.FS
}

// NewSQLiteDataSourceProvider returns a provider for a uniquely named in-memory database.
func NewSQLiteDataSourceProvider() *SQLiteDataSourceProvider {
	return &SQLiteDataSourceProvider{Name: uuid.NewString()}
}

func (p *SQLiteDataSourceProvider) Dialect() string {
	return string(SQLite)
}

func (p *SQLiteDataSourceProvider) Database() Database {
	return SQLite
}

func (p *SQLiteDataSourceProvider) IdentifierStrategies() []IdentifierStrategy {
	return []IdentifierStrategy{Identity}
}

func (p *SQLiteDataSourceProvider) DataSourceProperties() Properties {
	return Properties{
		PropertyURL:      p.url(),
		PropertyUser:     "sa",
		PropertyPassword: "",
	}
}

func (p *SQLiteDataSourceProvider) url() string {
	if p.Name == "" {
		return "file::memory:?_foreign_keys=1"
	}
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", p.Name)
}

func (p *SQLiteDataSourceProvider) Open(ctx context.Context) (*DataSource, error) {
	changelog := p.Changelog
	if changelog == nil {
		var err error
		if changelog, err = migrations.ForDatabase(string(SQLite)); err != nil {
			return nil, err
		}
	}

	sqlDB, err := sql.Open(sqliteDriverName, p.url())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps the in-memory database alive for the lifetime
	// of the pool and serialises writers.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := pingDataSource(ctx, sqlDB); err != nil {
		return nil, err
	}

	return &DataSource{
		DB:        sqlDB,
		Database:  SQLite,
		Changelog: changelog,
		dialector: &sqlite.Dialector{DriverName: sqliteDriverName, Conn: sqlDB},
	}, nil
}

func (p *SQLiteDataSourceProvider) DataSource(ctx context.Context) (*DataSource, error) {
	return openAndMigrate(ctx, p)
}
