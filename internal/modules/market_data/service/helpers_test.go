package service

import (
	"time"

	"wyckoff_keeper/internal/modules/config"
)

func testConfig(baseURL, wsURL string) *config.Config {
	cfg := &config.Config{}
	cfg.OKX.BaseURL = baseURL
	cfg.MarketData.Timeframe = "5m"
	cfg.MarketData.RateLimit = 100
	cfg.MarketData.Burst = 10
	cfg.MarketData.Timeout = 2 * time.Second
	cfg.MarketData.WSURL = wsURL
	return cfg
}
