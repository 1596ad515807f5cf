package service

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/internal/modules/config"
	"wyckoff_keeper/internal/runner/keeper"
)

// Recorder wraps a market data source and remembers the last close per market.
// The paper broker prices its fills from it.
type Recorder struct {
	src keeper.MarketData

	mu   sync.RWMutex
	last map[string]float64
}

func NewRecorder(src keeper.MarketData) *Recorder {
	return &Recorder{src: src, last: make(map[string]float64)}
}

// NewSource picks the implementation named by market_data.source.
func NewSource(cfg *config.Config, c *Client, stream *StreamSource) *Recorder {
	var src keeper.MarketData
	switch cfg.MarketData.Source {
	case config.SourceStream:
		src = stream
	case config.SourceSynthetic:
		src = NewSyntheticSource(time.Now().UnixNano(), cfg.MarketData.Timeframe, time.Now().UTC().Truncate(time.Minute))
	default:
		src = NewOKXSource(c)
	}
	return NewRecorder(src)
}

func (r *Recorder) FetchLatestBar(ctx context.Context, market string) (models.Bar, error) {
	b, err := r.src.FetchLatestBar(ctx, market)
	if err != nil {
		return b, err
	}
	if b.Close > 0 {
		r.mu.Lock()
		r.last[market] = b.Close
		r.mu.Unlock()
	}
	return b, nil
}

// RecentBars delegates to the wrapped source when it can serve history.
func (r *Recorder) RecentBars(ctx context.Context, market string, limit int) ([]models.Bar, error) {
	h, ok := r.src.(keeper.History)
	if !ok {
		return nil, errors.Wrapf(models.ErrDataUnavailable, "source %T has no history", r.src)
	}
	return h.RecentBars(ctx, market, limit)
}

// LastPrice returns the close of the most recent bar fetched for market.
func (r *Recorder) LastPrice(market string) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	px, ok := r.last[market]
	return px, ok
}
