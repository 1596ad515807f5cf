package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/internal/modules/config"
)

type staticPrices map[string]float64

func (s staticPrices) LastPrice(m string) (float64, bool) {
	px, ok := s[m]
	return px, ok
}

func TestPaperBroker_OpenMarkClose(t *testing.T) {
	prices := staticPrices{"BTC": 100}
	b := NewPaperBroker(1000, prices)
	ctx := context.Background()

	rec, err := b.OpenPosition(ctx, models.OpenInstruction{Market: "BTC", Side: models.SideLong, Size: 2, Leverage: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.OrderID)
	assert.InDelta(t, 100, rec.Price, 1e-12)

	prices["BTC"] = 103
	positions, err := b.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.InDelta(t, 6, positions[0].UnrealizedPnl, 1e-12)

	_, err = b.ClosePosition(ctx, "BTC")
	require.NoError(t, err)

	bal, _ := b.AccountBalance(ctx)
	assert.InDelta(t, 1006, bal, 1e-12)

	positions, _ = b.Positions(ctx)
	assert.Empty(t, positions)
}

func TestPaperBroker_ShortPnl(t *testing.T) {
	prices := staticPrices{"ETH": 50}
	b := NewPaperBroker(1000, prices)
	ctx := context.Background()

	_, err := b.OpenPosition(ctx, models.OpenInstruction{Market: "ETH", Side: models.SideShort, Size: 10, Leverage: 2})
	require.NoError(t, err)

	prices["ETH"] = 52
	positions, _ := b.Positions(ctx)
	require.Len(t, positions, 1)
	assert.InDelta(t, -20, positions[0].UnrealizedPnl, 1e-12)
	assert.Equal(t, 2, positions[0].Leverage)
}

func TestPaperBroker_Rejections(t *testing.T) {
	ctx := context.Background()

	b := NewPaperBroker(100, staticPrices{"BTC": 100})
	_, err := b.OpenPosition(ctx, models.OpenInstruction{Market: "BTC", Side: models.SideLong, Size: 5, Leverage: 1})
	assert.ErrorIs(t, err, models.ErrExecution, "margin above balance")

	_, err = b.OpenPosition(ctx, models.OpenInstruction{Market: "SOL", Side: models.SideLong, Size: 1, Leverage: 1})
	assert.ErrorIs(t, err, models.ErrExecution, "no price yet")

	_, err = b.ClosePosition(ctx, "BTC")
	assert.ErrorIs(t, err, models.ErrExecution, "nothing to close")

	_, err = b.OpenPosition(ctx, models.OpenInstruction{Market: "BTC", Side: models.SideLong, Size: 0.5, Leverage: 1})
	require.NoError(t, err)
	_, err = b.OpenPosition(ctx, models.OpenInstruction{Market: "BTC", Side: models.SideShort, Size: 0.5, Leverage: 1})
	assert.ErrorIs(t, err, models.ErrExecution, "one position per market")

	_, err = b.MarketPrice(ctx, "SOL")
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestProvider_Acquire(t *testing.T) {
	cfg := &config.Config{}
	cfg.Paper.Balance = 500
	p := NewProvider(cfg, staticPrices{})

	exec, err := p.Acquire(context.Background(), models.BotConfig{BotID: "a", Exchange: models.ExchangePaper})
	require.NoError(t, err)
	bal, _ := exec.AccountBalance(context.Background())
	assert.InDelta(t, 500, bal, 1e-12)

	_, err = p.Acquire(context.Background(), models.BotConfig{BotID: "b", Exchange: models.ExchangeOKX})
	assert.ErrorIs(t, err, models.ErrMissingCredentials)

	cfg.OKX.APIKey, cfg.OKX.APISecret, cfg.OKX.Passphrase = "k", "s", "p"
	exec, err = p.Acquire(context.Background(), models.BotConfig{BotID: "c", Exchange: models.ExchangeOKX})
	require.NoError(t, err)
	assert.NotNil(t, exec)
}
