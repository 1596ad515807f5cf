package market_data

import (
	"context"

	"go.uber.org/fx"

	"wyckoff_keeper/internal/modules/config"
	"wyckoff_keeper/internal/modules/market_data/service"
	"wyckoff_keeper/internal/runner/keeper"
)

// Module поднимает источник свечей; WebSocket стартует только для source=stream.
func Module() fx.Option {
	return fx.Module("market_data",
		fx.Provide(
			service.NewClient,
			service.NewStreamSource,
			service.NewSource,
			func(r *service.Recorder) keeper.MarketData { return r },
			// прогрев окна из REST; synthetic истории не имеет
			func(cfg *config.Config, r *service.Recorder) keeper.History {
				if !cfg.Keeper.Warmup || cfg.MarketData.Source == config.SourceSynthetic {
					return nil
				}
				return r
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, s *service.StreamSource) {
			if cfg.MarketData.Source != config.SourceStream {
				return
			}
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go s.Run(ctx)
					return nil
				},
				OnStop: func(_ context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
