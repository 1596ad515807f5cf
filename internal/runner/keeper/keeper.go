package keeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/pkg/logger"
)

// ErrTooManyFailures ends a keeper loop after MaxRetries consecutive failed ticks.
var ErrTooManyFailures = errors.New("keeper stopped after consecutive tick failures")

// Keeper is the per-bot worker. Only its own loop mutates the state below; mu lets
// status readers take consistent snapshots.
type Keeper struct {
	cfg  models.BotConfig
	deps Deps
	log  *zap.SugaredLogger

	mu         sync.RWMutex
	running    bool
	startedAt  time.Time
	window     []models.Bar
	lastSignal *models.Signal
	phase      models.Phase
	position   *models.Position
	errorCount int
	stats      models.Stats
	lastPoll   time.Time
	lastErr    string

	// последнее направление, о котором уже сообщили (manual mode)
	lastAlert models.Direction
}

func New(cfg models.BotConfig, deps Deps) (*Keeper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Market == nil {
		return nil, fmt.Errorf("%w: market data source is required", models.ErrInvalidConfig)
	}
	if cfg.Mode.Automated() && deps.Execution == nil {
		return nil, fmt.Errorf("%w: bot %s runs in %s mode without an execution client",
			models.ErrMissingCredentials, cfg.BotID, cfg.Mode)
	}

	return &Keeper{
		cfg:       cfg,
		deps:      deps.withDefaults(),
		log:       logger.With("bot_id", cfg.BotID, "market", cfg.Market),
		window:    make([]models.Bar, 0, cfg.Strategy.WindowCapacity()),
		lastAlert: models.DirectionFlat,
	}, nil
}

func (k *Keeper) Config() models.BotConfig { return k.cfg }

// Start marks the keeper running and launches Run in its own goroutine. The returned
// channel yields the loop's exit reason.
func (k *Keeper) Start(ctx context.Context, sched Scheduler) <-chan error {
	k.markStarted()

	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- k.Run(ctx, sched)
	}()
	return done
}

// Run ticks once immediately, then once per scheduler release, until ctx is cancelled
// (nil) or the keeper gives up after MaxRetries failed ticks (ErrTooManyFailures).
func (k *Keeper) Run(ctx context.Context, sched Scheduler) error {
	k.markStarted()
	defer k.setRunning(false)

	if k.deps.History != nil {
		if n, err := k.Warmup(ctx); err != nil {
			k.log.Warnf("warmup failed, collecting bars from scratch: %v", err)
		} else {
			k.log.Infof("warmup loaded %d bars", n)
		}
	}

	k.log.Infof("keeper loop started")
	for {
		// a stop only cancels scheduling; the tick itself always completes
		res := k.Tick(context.WithoutCancel(ctx))
		if res.Terminal {
			k.log.Errorf("keeper self-stopping after %d consecutive failures: %v", res.ErrorCount, res.Err)
			k.notify(ctx, fmt.Sprintf("🛑 [%s] stopped after %d consecutive errors: %v",
				k.cfg.Market, res.ErrorCount, res.Err))
			return fmt.Errorf("%w: bot %s: %v", ErrTooManyFailures, k.cfg.BotID, res.Err)
		}

		if err := sched.Wait(ctx); err != nil {
			k.log.Infof("keeper loop stopped")
			return nil
		}
	}
}

func (k *Keeper) markStarted() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.running {
		return
	}
	k.running = true
	k.startedAt = k.deps.Now()
}

func (k *Keeper) setRunning(v bool) {
	k.mu.Lock()
	k.running = v
	k.mu.Unlock()
}

// Status returns a read-only snapshot.
func (k *Keeper) Status() models.Status {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.statusLocked()
}

func (k *Keeper) statusLocked() models.Status {
	st := models.Status{
		BotID:         k.cfg.BotID,
		Market:        k.cfg.Market,
		Mode:          k.cfg.Mode,
		Running:       k.running,
		StartedAt:     k.startedAt,
		LastPollTime:  k.lastPoll,
		Phase:         k.phase,
		Stats:         k.stats,
		ErrorCount:    k.errorCount,
		BarsCollected: len(k.window),
		LastError:     k.lastErr,
	}
	if k.lastSignal != nil {
		sig := *k.lastSignal
		st.LastSignal = &sig
	}
	if k.position != nil {
		pos := *k.position
		st.CurrentPosition = &pos
	}
	return st
}

func (k *Keeper) notify(ctx context.Context, text string) {
	if k.deps.Notifier == nil {
		return
	}
	k.deps.Notifier.Notify(ctx, k.cfg.BotID, text)
}
