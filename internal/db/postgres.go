package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/url"

	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"

	"github.com/m0rjc/OrmTestKit/internal/db/migrations"
)

const pgxDriverName = "pgx"

// PostgresDataSourceProvider provides a server database reached through DatabaseURL.
type PostgresDataSourceProvider struct {
	DatabaseURL string

	// Changelog overrides the embedded Postgres changelog.
	Changelog fs.FS
}

func NewPostgresDataSourceProvider(databaseURL string) *PostgresDataSourceProvider {
	return &PostgresDataSourceProvider{DatabaseURL: databaseURL}
}

func (p *PostgresDataSourceProvider) Dialect() string {
	return string(Postgres)
}

func (p *PostgresDataSourceProvider) Database() Database {
	return Postgres
}

func (p *PostgresDataSourceProvider) IdentifierStrategies() []IdentifierStrategy {
	return []IdentifierStrategy{Identity, Sequence}
}

// DataSourceProperties splits the credentials out of the database URL. The
// returned url has the password removed.
func (p *PostgresDataSourceProvider) DataSourceProperties() Properties {
	props := Properties{PropertyURL: p.DatabaseURL, PropertyUser: "", PropertyPassword: ""}

	u, err := url.Parse(p.DatabaseURL)
	if err != nil || u.User == nil {
		return props
	}
	props[PropertyUser] = u.User.Username()
	if password, ok := u.User.Password(); ok {
		props[PropertyPassword] = password
	}
	u.User = url.User(u.User.Username())
	props[PropertyURL] = u.String()
	return props
}

func (p *PostgresDataSourceProvider) Open(ctx context.Context) (*DataSource, error) {
	if p.DatabaseURL == "" {
		return nil, fmt.Errorf("postgres data source requires a database URL")
	}

	changelog := p.Changelog
	if changelog == nil {
		var err error
		if changelog, err = migrations.ForDatabase(string(Postgres)); err != nil {
			return nil, err
		}
	}

	sqlDB, err := sql.Open(pgxDriverName, p.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := pingDataSource(ctx, sqlDB); err != nil {
		return nil, err
	}

	return &DataSource{
		DB:        sqlDB,
		Database:  Postgres,
		Changelog: changelog,
		dialector: postgres.New(postgres.Config{Conn: sqlDB}),
	}, nil
}

func (p *PostgresDataSourceProvider) DataSource(ctx context.Context) (*DataSource, error) {
	return openAndMigrate(ctx, p)
}
