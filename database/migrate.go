package database

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate brings the schema for driver up to date. Running it on an
// up-to-date database is a no-op.
func Migrate(driver, databaseURL string) error {
	url, err := migrationURL(driver, databaseURL)
	if err != nil {
		return err
	}

	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("open %s migrations: %w", driver, err)
	}

	mig, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer mig.Close()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// migrationURL turns the connection string the store uses into the URL
// golang-migrate expects.
func migrationURL(driver, databaseURL string) (string, error) {
	switch driver {
	case DriverPostgres:
		return databaseURL, nil
	case DriverSQLite:
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		path = strings.TrimPrefix(path, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if path == "" {
			return "", errors.New("sqlite database path is empty")
		}
		return "sqlite://" + path, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}
