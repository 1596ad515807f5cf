package registry

import (
	"context"

	"wyckoff_keeper/pkg/logger"
)

// Stop cancels future ticks of the bot and deregisters it. An in-flight tick still
// completes; until it does the bot id stays reserved. Returns false when the bot was
// not running.
func (r *Registry) Stop(botID string) bool {
	r.mu.Lock()
	e, ok := r.bots[botID]
	if ok {
		delete(r.bots, botID)
		r.draining[botID] = e
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	e.cancel()
	logger.Info("bot %s stopped", botID)
	return true
}

// Shutdown stops every keeper and waits for their loops to exit.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	entries := make([]*entry, 0, len(r.bots))
	for id, e := range r.bots {
		entries = append(entries, e)
		delete(r.bots, id)
		r.draining[id] = e
	}
	r.mu.Unlock()

	for _, e := range entries {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("registry shut down, %d bots stopped", len(entries))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
