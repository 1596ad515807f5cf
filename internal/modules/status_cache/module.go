package status_cache

import (
	"context"

	"go.uber.org/fx"

	"wyckoff_keeper/internal/modules/config"
	"wyckoff_keeper/internal/modules/status_cache/service"
	"wyckoff_keeper/internal/runner/keeper"
)

// Module кладёт кэш статусов в группу observers; без redis.addr наблюдатель пустой.
func Module() fx.Option {
	return fx.Module("status_cache",
		fx.Provide(
			func(lc fx.Lifecycle, cfg *config.Config) *service.Cache {
				c := service.NewCache(service.Options{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
					Prefix:   cfg.Redis.Prefix,
					TTL:      cfg.Redis.TTL,
				})
				if c != nil {
					lc.Append(fx.Hook{
						OnStop: func(_ context.Context) error { return c.Close() },
					})
				}
				return c
			},
			fx.Annotate(
				func(c *service.Cache) keeper.Observer {
					if c == nil {
						return keeper.NopObserver{}
					}
					return c
				},
				fx.ResultTags(`group:"observers"`),
			),
		),
	)
}
