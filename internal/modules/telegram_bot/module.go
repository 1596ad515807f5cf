package telegram

import (
	"context"

	"go.uber.org/fx"

	"wyckoff_keeper/internal/modules/config"
	jservice "wyckoff_keeper/internal/modules/journal/service"
	"wyckoff_keeper/internal/modules/telegram_bot/service"
	"wyckoff_keeper/internal/runner/keeper"
	"wyckoff_keeper/internal/runner/registry"
	"wyckoff_keeper/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("telegram",
		// 1. Клиент Telegram; без токена — nil
		fx.Provide(
			func(cfg *config.Config) (*service.Telegram, error) {
				if cfg.Telegram.Token == "" {
					logger.Warn("telegram token is empty, notifications go to the log")
					return nil, nil
				}
				return service.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
			},
		),

		// 2. Адаптер: *service.Telegram -> keeper.Notifier
		fx.Provide(
			func(t *service.Telegram) keeper.Notifier {
				if t == nil {
					return service.LogNotifier{}
				}
				return t
			},
		),
		// Запуск основного цикла через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram, reg *registry.Registry, history jservice.History) {
				if t == nil {
					return
				}
				t.Bind(reg, history)
				ctx, cancel := context.WithCancel(context.Background())
				lc.Append(fx.Hook{
					OnStart: func(_ context.Context) error {
						t.Start(ctx)
						return nil
					},
					OnStop: func(_ context.Context) error {
						cancel()
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
