package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"
	"strconv"
	"sync"

	"github.com/angelmondragon/photoalbum-backend/pkg/config"
	"github.com/pressly/goose/v3"
)

// SourceDir is where new migration files are authored, relative to the repo root.
const SourceDir = "pkg/migrate/migrations"

//go:embed migrations/*/*.sql
var Migrations embed.FS

// Dialects lists every driver that ships its own migration set.
var Dialects = []string{config.StoreDriverPostgres, config.StoreDriverSQLite}

var gooseDialects = map[string]string{
	config.StoreDriverPostgres: "postgres",
	config.StoreDriverSQLite:   "sqlite3",
}

// goose keeps dialect and base FS as package globals.
var gooseMu sync.Mutex

// Dir returns the embedded migration directory for a store driver.
func Dir(driver string) string {
	return path.Join("migrations", driver)
}

func prepare(driver string) (string, error) {
	dialect, ok := gooseDialects[driver]
	if !ok {
		return "", fmt.Errorf("no migrations for driver %q", driver)
	}
	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}
	return Dir(driver), nil
}

// Run executes a standard goose command against the embedded migrations of driver.
func Run(ctx context.Context, db *sql.DB, driver string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir, err := prepare(driver)
	if err != nil {
		return err
	}

	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, driver string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir, err := prepare(driver)
	if err != nil {
		return err
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil
	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}

// Version reports the current schema version.
func Version(ctx context.Context, db *sql.DB, driver string) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if _, err := prepare(driver); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db)
}
