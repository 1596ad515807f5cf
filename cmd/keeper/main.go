package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"wyckoff_keeper/internal/modules/config"
	"wyckoff_keeper/internal/modules/exchange"
	"wyckoff_keeper/internal/modules/health"
	"wyckoff_keeper/internal/modules/journal"
	"wyckoff_keeper/internal/modules/market_data"
	"wyckoff_keeper/internal/modules/postgres"
	"wyckoff_keeper/internal/modules/status_cache"
	telegram "wyckoff_keeper/internal/modules/telegram_bot"
	"wyckoff_keeper/internal/runner"
	"wyckoff_keeper/pkg/logger"
	"wyckoff_keeper/pkg/tracing"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.Init(cfg.Service.LogLevel, cfg.Service.Name); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	tracing.SetServiceName(cfg.Service.Name)
	_, closeTracer, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		logger.Fatal("init tracer: %v", err)
	}
	defer closeTracer()

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(cfg),
		postgres.Module(),
		journal.Module(),
		market_data.Module(),
		exchange.Module(),
		status_cache.Module(),
		runner.Module(),
		health.Module(),
		telegram.Module(),
	)
	// registry стартует раньше HTTP: /readyz отвечает только когда боты из bots_file подняты
	app.Run()
}
