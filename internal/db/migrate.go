package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/m0rjc/OrmTestKit/internal/metrics"
)

// ErrNotMigrated is returned when a session factory is built over a data
// source whose changelog has not been applied.
var ErrNotMigrated = errors.New("data source has not been migrated")

func gooseDialect(database Database) (goose.Dialect, error) {
	switch database {
	case SQLite:
		return goose.DialectSQLite3, nil
	case Postgres:
		return goose.DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database %q", database)
	}
}

func newMigrationProvider(ds *DataSource) (*goose.Provider, error) {
	if ds == nil || ds.DB == nil {
		return nil, fmt.Errorf("data source is not open")
	}
	if ds.Changelog == nil {
		return nil, fmt.Errorf("data source has no changelog")
	}
	dialect, err := gooseDialect(ds.Database)
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(dialect, ds.DB, ds.Changelog)
	if err != nil {
		return nil, fmt.Errorf("failed to load changelog: %w", err)
	}
	return provider, nil
}

// Migrate applies every pending changeset in the data source's changelog and
// returns the schema version reached. Running it again applies nothing.
func Migrate(ctx context.Context, ds *DataSource) (int64, error) {
	start := time.Now()

	version, err := migrate(ctx, ds)

	result := "success"
	if err != nil {
		result = "error"
	}
	if ds != nil {
		metrics.MigrationRunDuration.WithLabelValues(string(ds.Database), result).Observe(time.Since(start).Seconds())
	}
	return version, err
}

func migrate(ctx context.Context, ds *DataSource) (int64, error) {
	provider, err := newMigrationProvider(ds)
	if err != nil {
		return 0, err
	}

	results, err := provider.Up(ctx)
	for _, r := range results {
		if r.Error != nil {
			continue
		}
		metrics.MigrationsApplied.WithLabelValues(string(ds.Database)).Inc()
		slog.Debug("migration applied",
			"database", ds.Database,
			"version", r.Source.Version,
			"path", r.Source.Path,
			"duration", r.Duration,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("migration failed: %w", err)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	ds.migrated = true
	ds.version = version

	slog.Info("database migrated",
		"database", ds.Database,
		"version", version,
		"applied", len(results),
	)
	return version, nil
}

// ChangesetStatus is the state of one changeset in a data source's changelog.
type ChangesetStatus struct {
	Version   int64
	Path      string
	Applied   bool
	AppliedAt time.Time
}

// MigrationStatus lists every changeset and whether it has been applied.
func MigrationStatus(ctx context.Context, ds *DataSource) ([]ChangesetStatus, error) {
	provider, err := newMigrationProvider(ds)
	if err != nil {
		return nil, err
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}

	out := make([]ChangesetStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, ChangesetStatus{
			Version:   s.Source.Version,
			Path:      s.Source.Path,
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

// Reset rolls back every applied changeset, newest first, leaving only the
// goose version table. It returns the changesets rolled back, including those
// rolled back before a failure. The data source counts as unmigrated once a
// rollback has been attempted and must be migrated again before use.
func Reset(ctx context.Context, ds *DataSource) ([]ChangesetStatus, error) {
	provider, err := newMigrationProvider(ds)
	if err != nil {
		return nil, err
	}

	results, err := provider.DownTo(ctx, 0)
	ds.migrated = false
	ds.version = 0

	var partialErr *goose.PartialError
	if errors.As(err, &partialErr) && len(results) == 0 {
		results = partialErr.Applied
	}

	rolledBack := make([]ChangesetStatus, 0, len(results))
	for _, r := range results {
		if r == nil || r.Error != nil {
			continue
		}
		rolledBack = append(rolledBack, ChangesetStatus{Version: r.Source.Version, Path: r.Source.Path})
	}
	if err != nil {
		return rolledBack, fmt.Errorf("rollback failed: %w", err)
	}
	return rolledBack, nil
}
