package service

import (
	"context"
	"sync"

	"wyckoff_keeper/internal/models"
)

const DefaultMemoryCapacity = 1000

// MemoryJournal keeps the last records per bot when no database is configured.
type MemoryJournal struct {
	mu       sync.RWMutex
	capacity int
	byBot    map[string][]models.TradeRecord
}

func NewMemoryJournal(capacity int) *MemoryJournal {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryJournal{
		capacity: capacity,
		byBot:    make(map[string][]models.TradeRecord),
	}
}

func (j *MemoryJournal) RecordTrade(_ context.Context, rec models.TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	list := append(j.byBot[rec.BotID], rec)
	if len(list) > j.capacity {
		list = list[len(list)-j.capacity:]
	}
	j.byBot[rec.BotID] = list
	return nil
}

func (j *MemoryJournal) Recent(_ context.Context, botID string, limit int) ([]models.TradeRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	list := j.byBot[botID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]models.TradeRecord, 0, limit)
	for i := len(list) - 1; i >= len(list)-limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}
