package service

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"wyckoff_keeper/internal/modules/config"
)

// Client — публичные market-эндпоинты OKX (REST + WebSocket), без подписи.
type Client struct {
	baseURL   string
	wsURL     string
	timeframe string

	http     *http.Client
	wsDialer *websocket.Dialer
	limiter  *rate.Limiter
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.MarketData.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	burst := cfg.MarketData.Burst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(cfg.MarketData.RateLimit)
	if limit <= 0 {
		limit = rate.Inf
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.OKX.BaseURL, "/"),
		wsURL:     cfg.MarketData.WSURL,
		timeframe: cfg.MarketData.Timeframe,
		http:      &http.Client{Timeout: timeout},
		wsDialer:  &websocket.Dialer{HandshakeTimeout: timeout},
		limiter:   rate.NewLimiter(limit, burst),
	}
}

func (c *Client) Timeframe() string { return c.timeframe }
