package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/photoalbum-backend/pkg/config"
	"github.com/angelmondragon/photoalbum-backend/pkg/db"
	"github.com/angelmondragon/photoalbum-backend/pkg/logger"
)

// MaybeAutoRun applies pending migrations at startup when the store is
// relational and either auto-migrate is enabled or the driver is sqlite,
// whose database file is created on first use.
func MaybeAutoRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client == nil || !cfg.DB.IsRelational() {
		return nil
	}
	if !cfg.DB.AutoMigrate && client.Driver() != config.StoreDriverSQLite {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": client.Driver()})
	logg.Info(ctx, "running goose migrations (auto-run)")

	if err := Run(ctx, sqlDB, client.Driver(), "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
