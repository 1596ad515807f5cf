package keeper

import (
	"context"
	"time"

	"wyckoff_keeper/internal/models"
)

// MarketData supplies one fresh bar per call.
type MarketData interface {
	FetchLatestBar(ctx context.Context, market string) (models.Bar, error)
}

// History returns up to limit closed bars, oldest first.
type History interface {
	RecentBars(ctx context.Context, market string, limit int) ([]models.Bar, error)
}

// Execution is the exchange client a bot trades through.
type Execution interface {
	Positions(ctx context.Context) ([]models.Position, error)
	AccountBalance(ctx context.Context) (float64, error)
	MarketPrice(ctx context.Context, market string) (float64, error)
	OpenPosition(ctx context.Context, in models.OpenInstruction) (models.Receipt, error)
	ClosePosition(ctx context.Context, market string) (models.Receipt, error)
}

// Journal persists trade attempts.
type Journal interface {
	RecordTrade(ctx context.Context, rec models.TradeRecord) error
}

type Notifier interface {
	Notify(ctx context.Context, botID, text string)
}

// Observer sees the bot state after every tick.
type Observer interface {
	OnTick(ctx context.Context, st models.Status, res TickResult)
}

const DefaultMaxRetries = 3

type Deps struct {
	Market MarketData
	// Execution is nil for bots that only report signals.
	Execution Execution
	// History, when set, seeds the window before the first tick.
	History    History
	Journal    Journal
	Notifier   Notifier
	Observers  []Observer
	MaxRetries int
	Now        func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.MaxRetries <= 0 {
		d.MaxRetries = DefaultMaxRetries
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// NopObserver ignores every tick.
type NopObserver struct{}

func (NopObserver) OnTick(context.Context, models.Status, TickResult) {}
