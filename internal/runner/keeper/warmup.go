package keeper

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"

	"wyckoff_keeper/pkg/tracing"
)

// Warmup seeds the window with the closed bars preceding the latest one, so the first
// tick already evaluates a full lookback. The latest closed bar is left for that tick.
// Invalid or out-of-order bars are skipped.
func (k *Keeper) Warmup(ctx context.Context) (n int, err error) {
	span, ctx := tracing.StartSpan(ctx, "keeper.warmup",
		opentracing.Tag{Key: "bot_id", Value: k.cfg.BotID},
	)
	defer func() { tracing.Finish(span, err) }()

	if k.deps.History == nil {
		return 0, nil
	}

	bars, err := k.deps.History.RecentBars(ctx, k.cfg.Market, k.cfg.Strategy.LookbackBars+1)
	if err != nil {
		return 0, fmt.Errorf("history for %s: %w", k.cfg.Market, err)
	}
	if len(bars) < 2 {
		return 0, nil
	}

	for _, b := range bars[:len(bars)-1] {
		if b.Validate() != nil {
			continue
		}
		if _, ok := k.appendBar(b); ok {
			n++
		}
	}
	return n, nil
}
