package service

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/internal/runner/keeper"
	"wyckoff_keeper/internal/strategy"
)

func TestMetrics_OnTick(t *testing.T) {
	m := NewMetrics()
	ctx := context.Background()
	st := models.Status{BotID: "b1", ErrorCount: 0, Stats: models.Stats{TotalPnl: 12.5}}

	m.OnTick(ctx, st, keeper.TickResult{
		Analysis: strategy.Analysis{Signal: models.Signal{Direction: models.DirectionLong}},
		Trades: []models.TradeRecord{
			{Action: models.TradeClose, Success: true},
			{Action: models.TradeOpen, Success: false},
		},
	})
	m.OnTick(ctx, st, keeper.TickResult{Stale: true})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticks.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticks.WithLabelValues("stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.signals.WithLabelValues("long")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.trades.WithLabelValues("close", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.trades.WithLabelValues("open", "fail")))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.totalPnl.WithLabelValues("b1")))

	st.ErrorCount = 3
	m.OnTick(ctx, st, keeper.TickResult{Err: errors.New("down"), Terminal: true})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticks.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.selfStops))
	assert.Equal(t, 0, testutil.CollectAndCount(m.errorCount))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RegisterActiveBots(func() int { return 4 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "keeper_active_bots 4")
}

func TestState_OnTick(t *testing.T) {
	s := NewState(nil)
	assert.False(t, s.Ready())
	assert.False(t, s.WSConnected())
	assert.True(t, s.LastTick().IsZero())

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.OnTick(context.Background(), models.Status{}, keeper.TickResult{At: at})
	assert.Equal(t, at.Unix(), s.LastTick().Unix())

	s = NewState(func() bool { return true })
	assert.True(t, s.WSConnected())
}
