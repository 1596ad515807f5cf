package service

import (
	"context"
	"fmt"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/pkg/db"
)

const createTrades = `
CREATE TABLE IF NOT EXISTS trades (
	id         BIGSERIAL PRIMARY KEY,
	bot_id     TEXT             NOT NULL,
	market     TEXT             NOT NULL,
	action     TEXT             NOT NULL,
	reason     TEXT             NOT NULL DEFAULT '',
	side       TEXT             NOT NULL,
	size       DOUBLE PRECISION NOT NULL DEFAULT 0,
	price      DOUBLE PRECISION NOT NULL DEFAULT 0,
	pnl        DOUBLE PRECISION NOT NULL DEFAULT 0,
	order_id   TEXT             NOT NULL DEFAULT '',
	success    BOOLEAN          NOT NULL,
	error      TEXT             NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ      NOT NULL
);
CREATE INDEX IF NOT EXISTS trades_bot_id_created_at_idx ON trades (bot_id, created_at DESC);
`

const insertTrade = `
INSERT INTO trades (bot_id, market, action, reason, side, size, price, pnl, order_id, success, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

const selectRecent = `
SELECT bot_id, market, action, reason, side, size, price, pnl, order_id, success, error, created_at
FROM trades
WHERE bot_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`

// PgJournal пишет каждую попытку сделки в таблицу trades.
type PgJournal struct {
	db db.TxManager
}

func NewPgJournal(tm db.TxManager) *PgJournal {
	return &PgJournal{db: tm}
}

// Migrate creates the trades table when it is missing.
func (j *PgJournal) Migrate(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgJournal.Migrate: %w", err)
		}
	}()

	_, err = j.db.Conn().Exec(ctx, createTrades)
	return err
}

func (j *PgJournal) RecordTrade(ctx context.Context, rec models.TradeRecord) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgJournal.RecordTrade: %w", err)
		}
	}()

	return j.db.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, insertTrade,
			rec.BotID,
			rec.Market,
			string(rec.Action),
			rec.Reason,
			string(rec.Side),
			rec.Size,
			rec.Price,
			rec.Pnl,
			rec.OrderID,
			rec.Success,
			rec.Error,
			rec.At.UTC(),
		)
		return err
	})
}

// Recent returns up to limit records of a bot, newest first.
func (j *PgJournal) Recent(ctx context.Context, botID string, limit int) (out []models.TradeRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgJournal.Recent: %w", err)
		}
	}()

	rows, err := j.db.Conn().Query(ctx, selectRecent, botID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec          models.TradeRecord
			action, side string
		)
		if err = rows.Scan(
			&rec.BotID,
			&rec.Market,
			&action,
			&rec.Reason,
			&side,
			&rec.Size,
			&rec.Price,
			&rec.Pnl,
			&rec.OrderID,
			&rec.Success,
			&rec.Error,
			&rec.At,
		); err != nil {
			return nil, err
		}
		rec.Action = models.TradeAction(action)
		rec.Side = models.Side(side)
		out = append(out, rec)
	}
	return out, rows.Err()
}
