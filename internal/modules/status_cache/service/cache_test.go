package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/internal/runner/keeper"
)

type fakeRedis struct {
	data   map[string]string
	ttls   map[string]time.Duration
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Close() error { return nil }

func status() models.Status {
	return models.Status{
		BotID:      "bot-1",
		Market:     "BTC-USDT-SWAP",
		Mode:       models.ModeAuto,
		Running:    true,
		Phase:      models.PhaseAccumulation,
		ErrorCount: 1,
		Stats:      models.Stats{TotalTrades: 2, SuccessfulTrades: 1, TotalPnl: 3.5},
	}
}

func TestCache_PutGet(t *testing.T) {
	r := newFakeRedis()
	c := newCache(r, "", 0)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, status()))
	assert.Equal(t, DefaultTTL, r.ttls["keeper:status:bot-1"])

	got, ok, err := c.Get(ctx, "bot-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, status(), got)
}

func TestCache_GetMissing(t *testing.T) {
	c := newCache(newFakeRedis(), "x:", time.Minute)

	_, ok, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_OnTickTerminalMarksStopped(t *testing.T) {
	r := newFakeRedis()
	c := newCache(r, "s:", time.Minute)

	c.OnTick(context.Background(), status(), keeper.TickResult{Terminal: true, Err: errors.New("down")})

	got, ok, err := c.Get(context.Background(), "bot-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, got.Running)
	assert.Equal(t, time.Minute, r.ttls["s:bot-1"])
}

func TestCache_OnTickSwallowsRedisErrors(t *testing.T) {
	r := newFakeRedis()
	r.setErr = errors.New("connection refused")
	c := newCache(r, "", 0)

	assert.NotPanics(t, func() {
		c.OnTick(context.Background(), status(), keeper.TickResult{})
	})
	assert.Error(t, c.Put(context.Background(), status()))
}

func TestNewCache_DisabledWithoutAddr(t *testing.T) {
	assert.Nil(t, NewCache(Options{}))
}
