package runner

import (
	"context"
	"time"

	"go.uber.org/fx"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/internal/modules/config"
	"wyckoff_keeper/internal/runner/keeper"
	"wyckoff_keeper/internal/runner/registry"
	"wyckoff_keeper/pkg/logger"
)

const defaultShutdownTimeout = 30 * time.Second

type Params struct {
	fx.In

	Config    *config.Config
	Market    keeper.MarketData
	History   keeper.History
	Exchanges registry.ExchangeProvider
	Journal   keeper.Journal
	Notifier  keeper.Notifier
	Observers []keeper.Observer `group:"observers"`
}

func NewRegistry(p Params) *registry.Registry {
	interval := p.Config.Keeper.PollInterval
	return registry.New(registry.Deps{
		Market:     p.Market,
		History:    p.History,
		Exchanges:  p.Exchanges,
		Journal:    p.Journal,
		Notifier:   p.Notifier,
		Observers:  p.Observers,
		MaxRetries: p.Config.Keeper.MaxRetries,
		NewScheduler: func(models.BotConfig) keeper.Scheduler {
			return keeper.IntervalScheduler{Interval: interval}
		},
	})
}

// StartBots поднимает ботов из bots_file. Ошибка одного бота не мешает остальным.
func StartBots(ctx context.Context, reg *registry.Registry, bots []models.BotConfig) int {
	started := 0
	for _, b := range bots {
		if err := reg.Start(ctx, b); err != nil {
			logger.Error("autostart %s: %v", b.BotID, err)
			continue
		}
		started++
	}
	return started
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewRegistry, // *registry.Registry
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, reg *registry.Registry) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					n := StartBots(ctx, reg, cfg.Bots)
					logger.Info("runner started, %d/%d bots from %q", n, len(cfg.Bots), cfg.BotsFile)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					timeout := cfg.Keeper.ShutdownTimeout
					if timeout <= 0 {
						timeout = defaultShutdownTimeout
					}
					sctx, cancel := context.WithTimeout(ctx, timeout)
					defer cancel()
					return reg.Shutdown(sctx)
				},
			})
		}),
	)
}
