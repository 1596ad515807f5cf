package service

import (
	"context"

	"wyckoff_keeper/internal/models"
)

// History reads journaled trades back for the control API and the chat bot.
type History interface {
	Recent(ctx context.Context, botID string, limit int) ([]models.TradeRecord, error)
}

// Store is a journal that can also be read back.
type Store interface {
	History
	RecordTrade(ctx context.Context, rec models.TradeRecord) error
}

var (
	_ Store = (*PgJournal)(nil)
	_ Store = (*MemoryJournal)(nil)
)
