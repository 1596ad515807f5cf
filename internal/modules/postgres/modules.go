package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"wyckoff_keeper/internal/modules/config"
	"wyckoff_keeper/pkg/db"
	"wyckoff_keeper/pkg/logger"
)

// Module регистрирует *db.PgTxManager. Без db_dsn провайдер отдаёт nil и журнал остаётся в памяти.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, lc fx.Lifecycle, cfg *config.Config) (*db.PgTxManager, error) {
				if cfg.DB == "" {
					logger.Warn("db_dsn is empty, trade journal stays in memory")
					return nil, nil
				}

				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				err = poolMaster.Ping(ctx)
				if err != nil {
					poolMaster.Close()
					return nil, fmt.Errorf("ping postgres: %w", err)
				}

				tm := db.NewPgTxManager(poolMaster)
				lc.Append(fx.Hook{
					OnStop: func(_ context.Context) error {
						tm.Close()
						return nil
					},
				})
				return tm, nil
			},
		),
	)
}
