package keeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wyckoff_keeper/internal/models"
)

const waitTimeout = 2 * time.Second

func nextTick(t *testing.T, ch chanObserver) tickEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for tick")
		return tickEvent{}
	}
}

func newObservedKeeper(t *testing.T, cfg models.BotConfig, market *fakeMarket) (*Keeper, chanObserver) {
	t.Helper()
	obs := make(chanObserver, 8)
	k, err := New(cfg, Deps{Market: market, Observers: []Observer{obs}})
	require.NoError(t, err)
	return k, obs
}

func TestRun_FirstTickIsImmediate(t *testing.T) {
	market := &fakeMarket{}
	market.push(flat(0), flat(1), flat(2))
	k, obs := newObservedKeeper(t, botConfig(models.ModeManual), market)
	sched := NewManualScheduler()

	ctx, cancel := context.WithCancel(context.Background())
	done := k.Start(ctx, sched)
	assert.True(t, k.Status().Running)

	ev := nextTick(t, obs)
	assert.Equal(t, 1, ev.status.BarsCollected)
	assert.True(t, ev.status.Running)

	require.NoError(t, sched.Fire(ctx))
	ev = nextTick(t, obs)
	assert.Equal(t, 2, ev.status.BarsCollected)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("keeper did not stop")
	}
	assert.False(t, k.Status().Running)
	assert.Equal(t, 2, market.calls)
}

func TestRun_SelfStopsAfterConsecutiveFailures(t *testing.T) {
	market := &fakeMarket{err: models.ErrDataUnavailable}
	k, obs := newObservedKeeper(t, botConfig(models.ModeManual), market)
	sched := NewManualScheduler()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := k.Start(ctx, sched)

	for i := 1; i <= DefaultMaxRetries; i++ {
		ev := nextTick(t, obs)
		assert.Equal(t, i, ev.status.ErrorCount)
		if i < DefaultMaxRetries {
			assert.False(t, ev.result.Terminal)
			require.NoError(t, sched.Fire(ctx))
		} else {
			assert.True(t, ev.result.Terminal)
		}
	}

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrTooManyFailures))
	case <-time.After(waitTimeout):
		t.Fatal("keeper did not self-stop")
	}
	assert.Equal(t, DefaultMaxRetries, k.Status().ErrorCount)
}

func TestIntervalScheduler_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := IntervalScheduler{Interval: time.Hour}.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIntervalScheduler_Elapses(t *testing.T) {
	err := IntervalScheduler{Interval: time.Millisecond}.Wait(context.Background())
	assert.NoError(t, err)
}
