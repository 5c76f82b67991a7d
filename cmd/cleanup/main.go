package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/m0rjc/OrmTestKit/internal/config"
	"github.com/m0rjc/OrmTestKit/internal/db"
	"github.com/m0rjc/OrmTestKit/internal/logging"
)

// cleanup rolls a shared test database back to an empty schema so the next
// test run migrates it from scratch.
func main() {
	// Initialize structured logging
	logging.InitLogger()

	// Parse command line flags
	remigrate := flag.Bool("remigrate", false, "Apply the changelog again after rolling back")
	timeout := flag.Duration("timeout", 2*time.Minute, "Maximum time to spend on the cleanup")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Database.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required; in-memory databases are discarded when closed")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	provider := db.ProviderFromConfig(cfg)
	ds, err := provider.Open(ctx)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer ds.Close()

	slog.Info("database connection established", "database", provider.Database())

	exitCode := 0

	slog.Info("rolling back applied migrations")
	rolledBack, err := db.Reset(ctx, ds)
	for _, c := range rolledBack {
		slog.Info("migration rolled back", "version", c.Version, "path", c.Path)
	}
	if err != nil {
		slog.Error("failed to roll back migrations", "error", err)
		exitCode = 1
	} else {
		slog.Info("schema rolled back successfully", "changesets", len(rolledBack))
	}

	if exitCode == 0 && *remigrate {
		slog.Info("re-applying migrations")
		if version, err := db.Migrate(ctx, ds); err != nil {
			slog.Error("failed to re-apply migrations", "error", err)
			exitCode = 1
		} else {
			slog.Info("migrations re-applied successfully", "version", version)
		}
	}

	if exitCode == 0 {
		slog.Info("database cleanup completed successfully")
	} else {
		slog.Error("database cleanup completed with errors")
	}

	ds.Close()
	os.Exit(exitCode)
}
