package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"shuttle-booking/internal/domain/schedule"
	"shuttle-booking/internal/infra"
	"shuttle-booking/internal/infra/memstore"
	"shuttle-booking/internal/infra/postgres"
	"shuttle-booking/internal/infra/sqlite"
	"shuttle-booking/internal/pkg/config"
	"shuttle-booking/internal/usecase/shared"

	"go.uber.org/fx"
)

var StorageModule = fx.Module("storage",
	fx.Provide(
		NewStore,
	),
	fx.Invoke(SeedDates),
)

// NewStore selects the persistence backend from STORAGE_DRIVER and ties its
// lifetime to the fx application.
func NewStore(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (shared.Store, error) {
	switch driver := cfg.Storage.NormalizedDriver(); driver {
	case "sqlite":
		store, err := sqlite.Open(cfg.Storage.SQLitePath, cfg.Storage.QueryTimeout)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				return store.Close()
			},
		})
		logger.Info("storage ready", "driver", driver, "path", cfg.Storage.SQLitePath)
		return store, nil

	case "postgres":
		pool, cleanup, err := postgres.Connect(context.Background(), cfg.DB)
		if err != nil {
			return nil, err
		}
		store := postgres.NewStore(pool, cfg.Storage.QueryTimeout)
		if err := store.EnsureSchema(context.Background()); err != nil {
			cleanup()
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				cleanup()
				return nil
			},
		})
		logger.Info("storage ready", "driver", driver, "host", cfg.DB.Host)
		return store, nil

	case "memory":
		logger.Info("storage ready", "driver", driver)
		return memstore.New(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// SeedDates opens the dates listed in SEED_DATES at startup. Dates that are
// already open are left untouched.
func SeedDates(cfg config.Config, store shared.Store, logger *slog.Logger) error {
	ctx := context.Background()
	for _, raw := range cfg.Storage.SeedDates {
		if raw == "" {
			continue
		}
		d, err := schedule.ParseDate(raw)
		if err != nil {
			return fmt.Errorf("invalid SEED_DATES entry %q: %w", raw, err)
		}
		if err := store.AddDate(ctx, d); err != nil {
			if infra.IsKind(err, infra.KindDuplicateKey) {
				continue
			}
			return err
		}
		logger.Info("seeded reservation date", "date", d.String())
	}
	return nil
}
