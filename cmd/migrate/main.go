package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/m0rjc/OrmTestKit/internal/config"
	"github.com/m0rjc/OrmTestKit/internal/db"
	"github.com/m0rjc/OrmTestKit/internal/logging"
)

func main() {
	// Initialize structured logging
	logging.InitLogger()

	// Parse command line flags
	command := flag.String("command", "up", "One of: up, status, validate")
	timeout := flag.Duration("timeout", 2*time.Minute, "Maximum time to spend on the command")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, cfg, *command); err != nil {
		slog.Error("command failed", "command", *command, "error", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, command string) error {
	provider := db.ProviderFromConfig(cfg)
	slog.Info("opening data source", "database", provider.Database())

	ds, err := provider.Open(ctx)
	if err != nil {
		return err
	}
	defer ds.Close()

	switch command {
	case "up":
		version, err := db.Migrate(ctx, ds)
		if err != nil {
			return err
		}
		slog.Info("database is up to date", "version", version)
		return nil

	case "status":
		statuses, err := db.MigrationStatus(ctx, ds)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied " + s.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%5d  %-40s %s\n", s.Version, s.Path, state)
		}
		return nil

	case "validate":
		return validate(ctx, cfg, provider, ds)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// validate builds a session factory over the catalog package against the
// current schema, so drift between models and changelog fails the build.
// An in-memory database starts empty and is migrated first.
func validate(ctx context.Context, cfg *config.Config, provider db.DataSourceProvider, ds *db.DataSource) error {
	if provider.Database() == db.SQLite {
		if _, err := db.Migrate(ctx, ds); err != nil {
			return err
		}
	} else {
		// A server database must already be up to date; Migrate then only
		// records the reached version.
		statuses, err := db.MigrationStatus(ctx, ds)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			if !s.Applied {
				return fmt.Errorf("migration %d (%s) is pending", s.Version, s.Path)
			}
		}
		if _, err := db.Migrate(ctx, ds); err != nil {
			return err
		}
	}

	props := db.PropertiesFromConfig(cfg, provider)
	props[db.PropertySchemaAction] = db.SchemaActionValidate

	configuration := db.NewConfiguration().
		AddProperties(props).
		AddPackage(db.CatalogPackage)

	cache, redisClient, err := db.CacheFromConfig(cfg)
	if err != nil {
		return err
	}
	if cache != nil {
		defer redisClient.Close()
		configuration.SetSecondLevelCache(cache)
	}

	factory, err := configuration.BuildSessionFactory(ds)
	if err != nil {
		return err
	}
	slog.Info("schema matches mapped models",
		"models", len(factory.Models()),
		"version", ds.Version(),
	)
	return nil
}
