package service

import (
	"context"

	"github.com/pkg/errors"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/internal/modules/config"
	okx "wyckoff_keeper/internal/modules/okx_client/service"
	"wyckoff_keeper/internal/runner/keeper"
)

// Provider выдаёт execution-клиент под конфиг бота.
type Provider struct {
	cfg    *config.Config
	prices PriceFeed
}

func NewProvider(cfg *config.Config, prices PriceFeed) *Provider {
	return &Provider{cfg: cfg, prices: prices}
}

// Acquire returns a fresh paper broker per bot, or a signed OKX client when the
// credentials are configured.
func (p *Provider) Acquire(_ context.Context, bot models.BotConfig) (keeper.Execution, error) {
	switch bot.Exchange {
	case models.ExchangePaper:
		return NewPaperBroker(p.cfg.Paper.Balance, p.prices), nil
	case models.ExchangeOKX:
		if !p.cfg.HasOKXCredentials() {
			return nil, errors.Wrapf(models.ErrMissingCredentials, "bot %s wants okx", bot.BotID)
		}
		return okx.NewClient(okx.Credentials{
			BaseURL:    p.cfg.OKX.BaseURL,
			APIKey:     p.cfg.OKX.APIKey,
			APISecret:  p.cfg.OKX.APISecret,
			Passphrase: p.cfg.OKX.Passphrase,
			Simulated:  p.cfg.OKX.Simulated,
			Timeout:    p.cfg.OKX.Timeout,
		})
	}
	return nil, errors.Wrapf(models.ErrInvalidConfig, "unknown exchange %q", bot.Exchange)
}
