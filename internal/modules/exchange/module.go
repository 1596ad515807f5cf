package exchange

import (
	"go.uber.org/fx"

	"wyckoff_keeper/internal/modules/config"
	"wyckoff_keeper/internal/modules/exchange/service"
	mdservice "wyckoff_keeper/internal/modules/market_data/service"
	"wyckoff_keeper/internal/runner/registry"
)

func Module() fx.Option {
	return fx.Module("exchange",
		fx.Provide(
			func(cfg *config.Config, prices *mdservice.Recorder) *service.Provider {
				return service.NewProvider(cfg, prices)
			},
			func(p *service.Provider) registry.ExchangeProvider { return p },
		),
	)
}
