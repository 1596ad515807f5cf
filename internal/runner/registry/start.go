package registry

import (
	"context"
	"errors"
	"fmt"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/internal/runner/keeper"
	"wyckoff_keeper/pkg/logger"
)

// Start validates cfg, builds a keeper and launches its loop. A second start for the
// same bot id returns models.ErrAlreadyRunning and leaves the running keeper alone.
// When the bot was just stopped and its last tick is still in flight, Start waits for
// that tick until ctx is done and then gives up with models.ErrAlreadyRunning.
func (r *Registry) Start(ctx context.Context, cfg models.BotConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := r.reserve(ctx, cfg.BotID); err != nil {
		if errors.Is(err, models.ErrAlreadyRunning) {
			logger.Warn("start %s: already running", cfg.BotID)
		}
		return err
	}
	registered := false
	defer func() {
		if !registered {
			r.release(cfg.BotID)
		}
	}()

	deps := keeper.Deps{
		Market:     r.deps.Market,
		History:    r.deps.History,
		Journal:    r.deps.Journal,
		Notifier:   r.deps.Notifier,
		Observers:  r.deps.Observers,
		MaxRetries: r.deps.MaxRetries,
	}
	if cfg.Mode.Automated() {
		if r.deps.Exchanges == nil {
			return fmt.Errorf("%w: no exchange provider configured", models.ErrMissingCredentials)
		}
		exec, err := r.deps.Exchanges.Acquire(ctx, cfg)
		if err != nil {
			return fmt.Errorf("acquire %s client for %s: %w", cfg.Exchange, cfg.BotID, err)
		}
		deps.Execution = exec
	}

	k, err := keeper.New(cfg, deps)
	if err != nil {
		return err
	}

	// цикл keeper'а не привязан к ctx запроса
	runCtx, cancel := context.WithCancel(context.Background())
	e := &entry{keeper: k, cancel: cancel, stopped: make(chan struct{})}

	r.mu.Lock()
	delete(r.pending, cfg.BotID)
	if r.closed {
		r.mu.Unlock()
		cancel()
		registered = true
		return ErrClosed
	}
	r.bots[cfg.BotID] = e
	r.wg.Add(1)
	r.mu.Unlock()
	registered = true

	done := k.Start(runCtx, r.deps.NewScheduler(cfg))
	go r.watch(cfg.BotID, e, done)

	logger.Info("bot %s started: market=%s mode=%s exchange=%s", cfg.BotID, cfg.Market, cfg.Mode, cfg.Exchange)
	return nil
}

func (r *Registry) reserve(ctx context.Context, botID string) error {
	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return ErrClosed
		}
		if _, ok := r.bots[botID]; ok {
			r.mu.Unlock()
			return fmt.Errorf("%w: %s", models.ErrAlreadyRunning, botID)
		}
		if _, ok := r.pending[botID]; ok {
			r.mu.Unlock()
			return fmt.Errorf("%w: %s", models.ErrAlreadyRunning, botID)
		}
		old, ok := r.draining[botID]
		if !ok {
			r.pending[botID] = struct{}{}
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		select {
		case <-old.stopped:
		case <-ctx.Done():
			return fmt.Errorf("%w: %s is still finishing its last tick", models.ErrAlreadyRunning, botID)
		}
	}
}

func (r *Registry) release(botID string) {
	r.mu.Lock()
	delete(r.pending, botID)
	r.mu.Unlock()
}

// watch waits for the keeper loop to exit, forgets the entry and drops a self-stopped
// keeper.
func (r *Registry) watch(botID string, e *entry, done <-chan error) {
	defer r.wg.Done()

	err := <-done

	r.mu.Lock()
	if cur, ok := r.bots[botID]; ok && cur == e {
		delete(r.bots, botID)
	}
	if cur, ok := r.draining[botID]; ok && cur == e {
		delete(r.draining, botID)
	}
	r.mu.Unlock()
	close(e.stopped)

	if err == nil {
		return
	}
	e.cancel()
	logger.Error("bot %s deregistered: %v", botID, err)
}
