package service

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"wyckoff_keeper/internal/models"
)

type walk struct {
	last models.Bar
	next int // индекс следующего бара
}

// SyntheticSource — случайное блуждание для paper-режима и локальной разработки.
// Bars follow the clock: FetchLatestBar returns the latest bar closed by now, so every
// bot on a market sees the same sequence no matter how many of them poll it.
type SyntheticSource struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	now   func() time.Time
	step  time.Duration
	start time.Time
	vol   float64
	walks map[string]*walk
}

func NewSyntheticSource(seed int64, timeframe string, start time.Time) *SyntheticSource {
	step := timeframeToDuration(timeframe)
	if step <= 0 {
		step = time.Minute
	}
	return &SyntheticSource{
		rnd:   rand.New(rand.NewSource(seed)),
		now:   time.Now,
		step:  step,
		start: start,
		vol:   0.004,
		walks: make(map[string]*walk),
	}
}

// WithClock replaces the wall clock, e.g. with a fake one in tests.
func (s *SyntheticSource) WithClock(now func() time.Time) *SyntheticSource {
	s.now = now
	return s
}

func (s *SyntheticSource) FetchLatestBar(_ context.Context, market string) (models.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.walks[market]
	if !ok {
		w = &walk{last: models.Bar{Close: 100}}
		s.walks[market] = w
	}

	// бар i закрыт, когда now >= start + (i+1)*step; первый бар отдаём всегда
	latest := int(s.now().Sub(s.start)/s.step) - 1
	if latest < 0 {
		latest = 0
	}
	for w.next <= latest {
		w.last = s.nextBar(w.last.Close, s.start.Add(time.Duration(w.next)*s.step))
		w.next++
	}
	return w.last, nil
}

func (s *SyntheticSource) nextBar(open float64, ts time.Time) models.Bar {
	ret := (s.rnd.Float64() - 0.5) * 2.0 * s.vol
	closep := open * (1.0 + ret)
	high := math.Max(open, closep) * (1.0 + s.rnd.Float64()*s.vol*0.5)
	low := math.Min(open, closep) * (1.0 - s.rnd.Float64()*s.vol*0.5)

	volume := 10_000 + s.rnd.Float64()*5_000
	if s.rnd.Float64() < 0.05 {
		volume *= 3
	}
	return models.Bar{Timestamp: ts, Open: open, High: high, Low: low, Close: closep, Volume: volume}
}
