package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var migrationPath, databaseURL string
	var down bool
	flag.StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "postgres connection URL")
	flag.StringVar(&migrationPath, "migration-path", "./migrations", "directory holding the migrations")
	flag.BoolVar(&down, "down", false, "roll back every migration instead of applying them")
	flag.Parse()

	if databaseURL == "" {
		slog.Error("database URL is required: pass -database-url or set DATABASE_URL")
		os.Exit(2)
	}

	m, err := migrate.New("file://"+migrationPath, databaseURL)
	if err != nil {
		slog.Error("open migrations failed", "path", migrationPath, "err", err)
		os.Exit(1)
	}
	defer m.Close()

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("no migrations to apply")
		return
	}
	if err != nil {
		slog.Error("migration failed", "down", down, "err", err)
		os.Exit(1)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		slog.Error("read migration version failed", "err", err)
		os.Exit(1)
	}
	slog.Info("migrations applied", "version", version, "dirty", dirty)
}
