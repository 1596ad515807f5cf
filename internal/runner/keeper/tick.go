package keeper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/shopspring/decimal"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/internal/strategy"
	"wyckoff_keeper/pkg/tracing"
)

const sizeDecimals = 8

// TickResult describes one completed tick.
type TickResult struct {
	At       time.Time
	Analysis strategy.Analysis
	// Stale is set when the provider returned a bar that was not newer than the last
	// one; the window and signal are left untouched.
	Stale  bool
	Trades []models.TradeRecord
	Err    error

	ErrorCount int
	// Terminal means the keeper gives up after this tick.
	Terminal bool
}

// Tick runs one full decision cycle synchronously. It never panics.
func (k *Keeper) Tick(ctx context.Context) (res TickResult) {
	res.At = k.deps.Now()

	span, ctx := tracing.StartSpan(ctx, "keeper.tick",
		opentracing.Tag{Key: "bot_id", Value: k.cfg.BotID},
		opentracing.Tag{Key: "market", Value: k.cfg.Market},
	)

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("tick panic: %v", r)
		}
		k.finish(ctx, &res)

		span.SetTag("signal", string(res.Analysis.Signal.Direction))
		span.SetTag("phase", string(res.Analysis.Phase))
		tracing.Finish(span, res.Err)
	}()

	res.Err = k.tick(ctx, &res)
	return res
}

func (k *Keeper) tick(ctx context.Context, res *TickResult) error {
	bar, err := k.deps.Market.FetchLatestBar(ctx, k.cfg.Market)
	if err != nil {
		return fmt.Errorf("fetch bar for %s: %w", k.cfg.Market, err)
	}
	if err := bar.Validate(); err != nil {
		return fmt.Errorf("bar for %s at %s: %w", k.cfg.Market, bar.Timestamp.Format(time.RFC3339), err)
	}

	window, fresh := k.appendBar(bar)
	res.Stale = !fresh
	if fresh {
		res.Analysis = strategy.Analyze(window, k.cfg.Strategy)
		k.recordAnalysis(res.At, res.Analysis)
	} else {
		k.log.Warnf("bar %s is not newer than the last one, skipping analysis", bar.Timestamp.Format(time.RFC3339))
		res.Analysis = k.lastAnalysis()
		k.touch(res.At)
	}

	if !k.cfg.Mode.Automated() {
		if fresh {
			k.alert(ctx, res.Analysis.Signal)
		}
		return nil
	}

	pos, err := k.refreshPosition(ctx)
	if err != nil {
		return err
	}

	if fresh {
		pos, err = k.reconcile(ctx, res, res.Analysis.Signal, pos)
		if err != nil {
			k.setPosition(pos)
			return err
		}
	}

	if pos != nil {
		d := strategy.EvaluateRisk(*pos, k.cfg.StopLossPct, k.cfg.TakeProfitPct)
		if d.Close {
			k.log.Infof("risk exit %s: pnl %.4f (%.2f%%)", d.Reason, d.Pnl, d.PnlPct)
			if k.closePosition(ctx, res, *pos, d.Reason) {
				pos = nil
			}
		}
	}

	k.setPosition(pos)
	return nil
}

// appendBar adds bar to the window unless its timestamp is not newer than the last
// bar, and returns a copy of the window.
func (k *Keeper) appendBar(bar models.Bar) ([]models.Bar, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if n := len(k.window); n > 0 && !bar.Timestamp.IsZero() && !bar.Timestamp.After(k.window[n-1].Timestamp) {
		return nil, false
	}

	k.window = append(k.window, bar)
	if limit := k.cfg.Strategy.WindowCapacity(); len(k.window) > limit {
		// сдвигаем окно, не наращивая backing array
		k.window = append(k.window[:0], k.window[len(k.window)-limit:]...)
	}

	out := make([]models.Bar, len(k.window))
	copy(out, k.window)
	return out, true
}

func (k *Keeper) recordAnalysis(at time.Time, a strategy.Analysis) {
	sig := a.Signal
	k.mu.Lock()
	k.lastSignal = &sig
	k.phase = a.Phase
	k.lastPoll = at
	k.mu.Unlock()
}

func (k *Keeper) lastAnalysis() strategy.Analysis {
	k.mu.RLock()
	defer k.mu.RUnlock()
	a := strategy.Analysis{Phase: k.phase, Ready: k.phase != ""}
	if k.lastSignal != nil {
		a.Signal = *k.lastSignal
	}
	return a
}

func (k *Keeper) touch(at time.Time) {
	k.mu.Lock()
	k.lastPoll = at
	k.mu.Unlock()
}

func (k *Keeper) setPosition(pos *models.Position) {
	k.mu.Lock()
	k.position = pos
	k.mu.Unlock()
}

// refreshPosition reloads the position for the bot's market from the exchange.
func (k *Keeper) refreshPosition(ctx context.Context) (*models.Position, error) {
	positions, err := k.deps.Execution.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	for _, p := range positions {
		if p.Market == k.cfg.Market && p.Size > 0 {
			pos := p
			return &pos, nil
		}
	}
	return nil, nil
}

// reconcile brings the exchange position in line with the signal. Execution failures
// are recorded and swallowed; provider failures fail the tick.
func (k *Keeper) reconcile(ctx context.Context, res *TickResult, sig models.Signal, pos *models.Position) (*models.Position, error) {
	want, ok := sig.Direction.Side()
	if !ok {
		return pos, nil
	}
	if pos != nil && pos.Side == want {
		return pos, nil
	}

	if pos != nil {
		k.log.Infof("signal %s opposes held %s position, closing first", sig.Direction, pos.Side)
		if !k.closePosition(ctx, res, *pos, "reversal") {
			return pos, nil
		}
		pos = nil
	}

	balance, err := k.deps.Execution.AccountBalance(ctx)
	if err != nil {
		return pos, fmt.Errorf("account balance: %w", err)
	}
	price, err := k.deps.Execution.MarketPrice(ctx, k.cfg.Market)
	if err != nil {
		return pos, fmt.Errorf("market price for %s: %w", k.cfg.Market, err)
	}

	size := PositionSize(balance, k.cfg.PositionSizePct, price)
	if size <= 0 {
		k.log.Warnf("skip open: size rounds to zero (balance %.4f, price %.4f, pct %.2f)",
			balance, price, k.cfg.PositionSizePct)
		return pos, nil
	}

	return k.openPosition(ctx, res, sig, want, size, price), nil
}

// PositionSize converts a balance share into base units, rounded down to 8 decimals.
func PositionSize(balance, pct, price float64) float64 {
	if balance <= 0 || pct <= 0 || price <= 0 {
		return 0
	}
	size := decimal.NewFromFloat(balance).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100)).
		Div(decimal.NewFromFloat(price)).
		RoundDown(sizeDecimals)
	return size.InexactFloat64()
}

func (k *Keeper) openPosition(ctx context.Context, res *TickResult, sig models.Signal, side models.Side, size, price float64) *models.Position {
	in := models.OpenInstruction{
		ClientOrderID: uuid.NewString(),
		Market:        k.cfg.Market,
		Side:          side,
		Size:          size,
		Leverage:      k.cfg.MaxLeverage,
	}

	rec := models.TradeRecord{
		BotID:  k.cfg.BotID,
		Market: k.cfg.Market,
		Action: models.TradeOpen,
		Reason: sig.Reason,
		Side:   side,
		Size:   size,
		Price:  price,
		At:     k.deps.Now(),
	}

	receipt, err := k.deps.Execution.OpenPosition(ctx, in)
	if err != nil {
		k.log.Errorf("open %s %.8f failed: %v", side, size, err)
		rec.Error = err.Error()
		k.countTrade(rec, 0)
		k.journal(ctx, res, rec)
		k.notify(ctx, fmt.Sprintf("⚠️ [%s] open %s failed: %v", k.cfg.Market, side, err))
		return nil
	}

	if receipt.Size > 0 {
		rec.Size = receipt.Size
	}
	if receipt.Price > 0 {
		rec.Price = receipt.Price
	}
	rec.OrderID = receipt.OrderID
	rec.Success = true
	k.countTrade(rec, 0)
	k.journal(ctx, res, rec)

	k.log.Infof("opened %s %.8f @ %.4f (order %s)", side, rec.Size, rec.Price, rec.OrderID)
	k.notify(ctx, fmt.Sprintf("✅ [%s] opened %s size=%.8f @ %.4f lev=%dx\n%s",
		k.cfg.Market, side, rec.Size, rec.Price, k.cfg.MaxLeverage, sig.Reason))

	return &models.Position{
		Market:     k.cfg.Market,
		Side:       side,
		Size:       rec.Size,
		EntryPrice: rec.Price,
		Leverage:   k.cfg.MaxLeverage,
	}
}

// closePosition exits pos in full. It returns false when the exchange rejected the close.
func (k *Keeper) closePosition(ctx context.Context, res *TickResult, pos models.Position, reason string) bool {
	rec := models.TradeRecord{
		BotID:  k.cfg.BotID,
		Market: pos.Market,
		Action: models.TradeClose,
		Reason: reason,
		Side:   pos.Side,
		Size:   pos.Size,
		Price:  pos.EntryPrice,
		Pnl:    pos.UnrealizedPnl,
		At:     k.deps.Now(),
	}

	receipt, err := k.deps.Execution.ClosePosition(ctx, pos.Market)
	if err != nil {
		k.log.Errorf("close %s (%s) failed: %v", pos.Side, reason, err)
		rec.Error = err.Error()
		k.countTrade(rec, 0)
		k.journal(ctx, res, rec)
		k.notify(ctx, fmt.Sprintf("⚠️ [%s] close %s (%s) failed: %v", pos.Market, pos.Side, reason, err))
		return false
	}

	if receipt.Price > 0 {
		rec.Price = receipt.Price
	}
	rec.OrderID = receipt.OrderID
	rec.Success = true
	k.countTrade(rec, pos.UnrealizedPnl)
	k.journal(ctx, res, rec)

	k.log.Infof("closed %s %.8f (%s), pnl %.4f", pos.Side, pos.Size, reason, pos.UnrealizedPnl)
	k.notify(ctx, fmt.Sprintf("🔒 [%s] closed %s (%s) pnl=%.4f", pos.Market, pos.Side, reason, pos.UnrealizedPnl))
	return true
}

func (k *Keeper) countTrade(rec models.TradeRecord, pnl float64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.stats.TotalTrades++
	if rec.Success {
		k.stats.SuccessfulTrades++
		k.stats.TotalPnl += pnl
	}
}

func (k *Keeper) journal(ctx context.Context, res *TickResult, rec models.TradeRecord) {
	res.Trades = append(res.Trades, rec)
	if k.deps.Journal == nil {
		return
	}
	if err := k.deps.Journal.RecordTrade(ctx, rec); err != nil {
		k.log.Warnf("journal %s %s: %v", rec.Action, rec.Side, err)
	}
}

// alert sends a manual-mode signal once per change of direction.
func (k *Keeper) alert(ctx context.Context, sig models.Signal) {
	k.mu.Lock()
	prev := k.lastAlert
	k.lastAlert = sig.Direction
	k.mu.Unlock()

	if sig.Direction == models.DirectionFlat || sig.Direction == prev {
		return
	}
	k.notify(ctx, fmt.Sprintf("📣 [%s] %s signal (confidence %.2f)\n%s",
		k.cfg.Market, sig.Direction, sig.Confidence, sig.Reason))
}

// finish updates the error counter and publishes the snapshot to observers.
func (k *Keeper) finish(ctx context.Context, res *TickResult) {
	k.mu.Lock()
	if res.Err != nil {
		k.errorCount++
		k.lastErr = res.Err.Error()
	} else {
		k.errorCount = 0
		k.lastErr = ""
	}
	res.ErrorCount = k.errorCount
	res.Terminal = res.Err != nil && k.errorCount >= k.deps.MaxRetries
	st := k.statusLocked()
	k.mu.Unlock()

	if res.Err != nil {
		k.log.Warnf("tick failed (%d/%d): %v", res.ErrorCount, k.deps.MaxRetries, res.Err)
	}

	for _, o := range k.deps.Observers {
		k.observe(ctx, o, st, *res)
	}
}

// observe isolates the keeper from a panicking observer.
func (k *Keeper) observe(ctx context.Context, o Observer, st models.Status, res TickResult) {
	defer func() {
		if r := recover(); r != nil {
			k.log.Errorf("observer %T panicked: %v", o, r)
		}
	}()
	o.OnTick(ctx, st, res)
}
