package keeper

import (
	"context"
	"errors"
	"sync"
	"time"

	"wyckoff_keeper/internal/models"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func ts(i int) time.Time { return t0.Add(time.Duration(i) * 5 * time.Minute) }

func flat(i int) models.Bar {
	return models.Bar{Timestamp: ts(i), Open: 100, High: 100.5, Low: 99.5, Close: 100, Volume: 100}
}

// breakout closes above a flat 99.5..100.5 range on triple volume.
func breakout(i int) models.Bar {
	return models.Bar{Timestamp: ts(i), Open: 100, High: 101.6, Low: 99.9, Close: 101.5, Volume: 300}
}

// breakdown closes below the same range on triple volume.
func breakdown(i int) models.Bar {
	return models.Bar{Timestamp: ts(i), Open: 100, High: 100.1, Low: 98.4, Close: 98.5, Volume: 300}
}

func botConfig(mode models.Mode) models.BotConfig {
	return models.BotConfig{
		BotID:           "bot-1",
		Market:          "BTC-USDT-SWAP",
		Mode:            mode,
		Exchange:        models.ExchangePaper,
		PositionSizePct: 10,
		MaxLeverage:     3,
		StopLossPct:     2,
		TakeProfitPct:   4,
		Strategy: models.StrategyParams{
			LookbackBars:            5,
			VolumeThreshold:         1.5,
			AccumulationSensitivity: 0.7,
			DistributionSensitivity: 0.7,
		},
	}
}

type fakeMarket struct {
	mu    sync.Mutex
	bars  []models.Bar
	err   error
	panic bool
	calls int
}

func (f *fakeMarket) FetchLatestBar(_ context.Context, _ string) (models.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.panic {
		panic("feed exploded")
	}
	if f.err != nil {
		return models.Bar{}, f.err
	}
	if len(f.bars) == 0 {
		return models.Bar{}, models.ErrDataUnavailable
	}
	b := f.bars[0]
	f.bars = f.bars[1:]
	return b, nil
}

func (f *fakeMarket) push(bars ...models.Bar) {
	f.mu.Lock()
	f.bars = append(f.bars, bars...)
	f.mu.Unlock()
}

func (f *fakeMarket) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type fakeExecution struct {
	mu        sync.Mutex
	positions map[string]models.Position
	balance   float64
	price     float64

	positionsErr error
	balanceErr   error
	openErr      error
	closeErr     error

	opened []models.OpenInstruction
	closed []string
}

func newFakeExecution() *fakeExecution {
	return &fakeExecution{
		positions: map[string]models.Position{},
		balance:   10000,
		price:     101.5,
	}
}

func (f *fakeExecution) Positions(context.Context) ([]models.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.positionsErr != nil {
		return nil, f.positionsErr
	}
	out := make([]models.Position, 0, len(f.positions))
	for _, p := range f.positions {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeExecution) AccountBalance(context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance, f.balanceErr
}

func (f *fakeExecution) MarketPrice(context.Context, string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.price, nil
}

func (f *fakeExecution) OpenPosition(_ context.Context, in models.OpenInstruction) (models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, in)
	if f.openErr != nil {
		return models.Receipt{}, f.openErr
	}
	f.positions[in.Market] = models.Position{
		Market:     in.Market,
		Side:       in.Side,
		Size:       in.Size,
		EntryPrice: f.price,
		Leverage:   in.Leverage,
	}
	return models.Receipt{OrderID: "ord-" + in.ClientOrderID, Market: in.Market, Side: in.Side, Size: in.Size, Price: f.price}, nil
}

func (f *fakeExecution) ClosePosition(_ context.Context, market string) (models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, market)
	if f.closeErr != nil {
		return models.Receipt{}, f.closeErr
	}
	p, ok := f.positions[market]
	if !ok {
		return models.Receipt{}, errors.New("no position")
	}
	delete(f.positions, market)
	return models.Receipt{OrderID: "close-1", Market: market, Side: p.Side, Size: p.Size, Price: f.price}, nil
}

func (f *fakeExecution) hold(p models.Position) {
	f.mu.Lock()
	f.positions[p.Market] = p
	f.mu.Unlock()
}

type fakeJournal struct {
	mu   sync.Mutex
	recs []models.TradeRecord
}

func (f *fakeJournal) RecordTrade(_ context.Context, rec models.TradeRecord) error {
	f.mu.Lock()
	f.recs = append(f.recs, rec)
	f.mu.Unlock()
	return nil
}

func (f *fakeJournal) records() []models.TradeRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.TradeRecord(nil), f.recs...)
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) Notify(_ context.Context, _, text string) {
	f.mu.Lock()
	f.msgs = append(f.msgs, text)
	f.mu.Unlock()
}

func (f *fakeNotifier) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgs...)
}

type tickEvent struct {
	status models.Status
	result TickResult
}

// chanObserver hands every tick to the test goroutine.
type chanObserver chan tickEvent

func (c chanObserver) OnTick(_ context.Context, st models.Status, res TickResult) {
	c <- tickEvent{status: st, result: res}
}
