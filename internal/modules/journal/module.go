package journal

import (
	"context"

	"go.uber.org/fx"

	"wyckoff_keeper/internal/modules/journal/service"
	"wyckoff_keeper/internal/runner/keeper"
	"wyckoff_keeper/pkg/db"
	"wyckoff_keeper/pkg/logger"
)

// Module выбирает журнал сделок: Postgres при наличии пула, иначе память.
func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			func(ctx context.Context, tm *db.PgTxManager) (service.Store, error) {
				if tm == nil {
					return service.NewMemoryJournal(service.DefaultMemoryCapacity), nil
				}
				j := service.NewPgJournal(tm)
				if err := j.Migrate(ctx); err != nil {
					return nil, err
				}
				logger.Info("trade journal: postgres")
				return j, nil
			},
			func(s service.Store) keeper.Journal { return s },
			func(s service.Store) service.History { return s },
		),
	)
}
