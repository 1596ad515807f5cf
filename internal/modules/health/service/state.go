package service

import (
	"context"
	"sync/atomic"
	"time"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/internal/runner/keeper"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsConnected  func() bool
	lastTickUnix atomic.Int64 // unix seconds
}

// NewState; wsConnected may be nil when no stream is used.
func NewState(wsConnected func() bool) *State {
	s := &State{startedAt: time.Now(), wsConnected: wsConnected}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) WSConnected() bool {
	if s.wsConnected == nil {
		return false
	}
	return s.wsConnected()
}

func (s *State) TouchTick(t time.Time) { s.lastTickUnix.Store(t.Unix()) }
func (s *State) LastTick() time.Time {
	u := s.lastTickUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

// OnTick запоминает время последнего тика любого бота.
func (s *State) OnTick(_ context.Context, _ models.Status, res keeper.TickResult) {
	s.TouchTick(res.At)
}
