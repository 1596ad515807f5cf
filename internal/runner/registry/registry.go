package registry

import (
	"context"
	"errors"
	"sync"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/internal/runner/keeper"
)

var ErrClosed = errors.New("registry is shut down")

// ExchangeProvider hands out an execution client for an automated bot.
type ExchangeProvider interface {
	Acquire(ctx context.Context, cfg models.BotConfig) (keeper.Execution, error)
}

// SchedulerFactory builds the scheduler for a newly started bot.
type SchedulerFactory func(cfg models.BotConfig) keeper.Scheduler

type Deps struct {
	Market    keeper.MarketData
	History   keeper.History
	Exchanges ExchangeProvider
	Journal   keeper.Journal
	Notifier  keeper.Notifier
	Observers []keeper.Observer

	MaxRetries   int
	NewScheduler SchedulerFactory
}

type entry struct {
	keeper *keeper.Keeper
	cancel context.CancelFunc
	// закрывается, когда цикл keeper'а завершился вместе с последним тиком
	stopped chan struct{}
}

// Registry хранит активных keeper'ов: не больше одного на bot id.
type Registry struct {
	deps Deps

	mu      sync.Mutex
	bots     map[string]*entry
	pending  map[string]struct{}
	draining map[string]*entry
	closed   bool

	wg sync.WaitGroup
}

func New(deps Deps) *Registry {
	if deps.NewScheduler == nil {
		deps.NewScheduler = func(models.BotConfig) keeper.Scheduler {
			return keeper.IntervalScheduler{Interval: keeper.DefaultPollInterval}
		}
	}
	return &Registry{
		deps:     deps,
		bots:     make(map[string]*entry),
		pending:  make(map[string]struct{}),
		draining: make(map[string]*entry),
	}
}

// Count returns the number of registered keepers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bots)
}
