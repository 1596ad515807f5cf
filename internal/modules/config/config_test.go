package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wyckoff_keeper/internal/models"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Keeper.PollInterval)
	assert.Equal(t, 3, cfg.Keeper.MaxRetries)
	assert.Equal(t, ":8080", cfg.Service.HTTPAddr)
	assert.Equal(t, SourceOKX, cfg.MarketData.Source)
	assert.Equal(t, "5m", cfg.MarketData.Timeframe)
	assert.InDelta(t, 10000, cfg.Paper.Balance, 1e-9)
	assert.Empty(t, cfg.Bots)
	assert.False(t, cfg.HasOKXCredentials())
}

func TestLoad_FileAndBots(t *testing.T) {
	dir := t.TempDir()
	bots := writeFile(t, dir, "bots.yaml", `
bots:
  - bot_id: btc-auto
    market: BTC-USDT-SWAP
    mode: auto
    exchange: paper
    position_size_pct: 10
    max_leverage: 3
    stop_loss_pct: 2
    take_profit_pct: 4
    strategy:
      lookback_bars: 30
      volume_threshold: 2
      accumulation_sensitivity: 0.5
      distribution_sensitivity: 0.6
  - bot_id: eth-watch
    market: ETH-USDT-SWAP
    mode: manual
    stop_loss_pct: 2
    take_profit_pct: 4
`)
	path := writeFile(t, dir, "values.yaml", `
service:
  http_addr: ":9090"
keeper:
  poll_interval: 1m
  max_retries: 5
market_data:
  source: synthetic
bots_file: `+bots+`
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Service.HTTPAddr)
	assert.Equal(t, time.Minute, cfg.Keeper.PollInterval)
	assert.Equal(t, 5, cfg.Keeper.MaxRetries)
	assert.Equal(t, SourceSynthetic, cfg.MarketData.Source)

	require.Len(t, cfg.Bots, 2)
	assert.Equal(t, models.ModeAuto, cfg.Bots[0].Mode)
	assert.Equal(t, 30, cfg.Bots[0].Strategy.LookbackBars)
	assert.Equal(t, models.DefaultStrategyParams(), cfg.Bots[1].Strategy)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KEEPER_KEEPER_MAX_RETRIES", "7")
	t.Setenv("TELEGRAM_TOKEN", "tg-token")
	t.Setenv("OKX_API_KEY", "k")
	t.Setenv("OKX_API_SECRET", "s")
	t.Setenv("OKX_PASSPHRASE", "p")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Keeper.MaxRetries)
	assert.Equal(t, "tg-token", cfg.Telegram.Token)
	assert.True(t, cfg.HasOKXCredentials())
}

func TestLoad_RejectsInvalidBot(t *testing.T) {
	dir := t.TempDir()
	bots := writeFile(t, dir, "bots.yaml", `
bots:
  - bot_id: broken
    market: BTC-USDT-SWAP
    mode: auto
    exchange: paper
    position_size_pct: 150
    max_leverage: 3
    stop_loss_pct: 2
    take_profit_pct: 4
`)
	path := writeFile(t, dir, "values.yaml", "bots_file: "+bots+"\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}

func TestLoad_RejectsDuplicateBots(t *testing.T) {
	dir := t.TempDir()
	bots := writeFile(t, dir, "bots.yaml", `
bots:
  - {bot_id: a, market: X, mode: manual, stop_loss_pct: 1, take_profit_pct: 1}
  - {bot_id: a, market: Y, mode: manual, stop_loss_pct: 1, take_profit_pct: 1}
`)
	path := writeFile(t, dir, "values.yaml", "bots_file: "+bots+"\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}

func TestLoad_UnknownSource(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "values.yaml", "market_data:\n  source: carrier-pigeon\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}
