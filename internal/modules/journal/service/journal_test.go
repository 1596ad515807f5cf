package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/pkg/db"
)

var at = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func trade(botID string, i int) models.TradeRecord {
	return models.TradeRecord{
		BotID:   botID,
		Market:  "BTC-USDT-SWAP",
		Action:  models.TradeOpen,
		Side:    models.SideLong,
		Size:    float64(i),
		Price:   100,
		Success: true,
		At:      at.Add(time.Duration(i) * time.Minute),
	}
}

func TestMemoryJournal_RecentNewestFirst(t *testing.T) {
	j := NewMemoryJournal(10)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		require.NoError(t, j.RecordTrade(ctx, trade("a", i)))
	}
	require.NoError(t, j.RecordTrade(ctx, trade("b", 9)))

	got, err := j.Recent(ctx, "a", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3.0, got[0].Size)
	assert.Equal(t, 2.0, got[1].Size)

	all, err := j.Recent(ctx, "a", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := j.Recent(ctx, "missing", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryJournal_Capacity(t *testing.T) {
	j := NewMemoryJournal(2)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, j.RecordTrade(ctx, trade("a", i)))
	}
	got, err := j.Recent(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 5.0, got[0].Size)
	assert.Equal(t, 4.0, got[1].Size)
}

type execCall struct {
	sql  string
	args []any
}

type fakeTx struct {
	execErr error
	calls   []execCall
}

func (f *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeTx) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTx) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

type fakeTxManager struct {
	tx   *fakeTx
	runs int
}

func (m *fakeTxManager) RunMaster(ctx context.Context, fn func(ctxTx context.Context, tx db.Transaction) error) error {
	m.runs++
	return fn(ctx, m.tx)
}

func (m *fakeTxManager) Conn() db.Transaction { return m.tx }

func TestPgJournal_RecordTrade(t *testing.T) {
	tm := &fakeTxManager{tx: &fakeTx{}}
	j := NewPgJournal(tm)

	rec := trade("a", 1)
	rec.OrderID = "ord-1"
	require.NoError(t, j.RecordTrade(context.Background(), rec))

	assert.Equal(t, 1, tm.runs)
	require.Len(t, tm.tx.calls, 1)
	call := tm.tx.calls[0]
	assert.Contains(t, call.sql, "INSERT INTO trades")
	require.Len(t, call.args, 12)
	assert.Equal(t, "a", call.args[0])
	assert.Equal(t, "open", call.args[2])
	assert.Equal(t, "long", call.args[4])
	assert.Equal(t, "ord-1", call.args[8])
	assert.Equal(t, true, call.args[9])
	assert.Equal(t, at.Add(time.Minute), call.args[11])
}

func TestPgJournal_RecordTradeError(t *testing.T) {
	boom := errors.New("connection reset")
	tm := &fakeTxManager{tx: &fakeTx{execErr: boom}}

	err := NewPgJournal(tm).RecordTrade(context.Background(), trade("a", 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "PgJournal.RecordTrade")
}

func TestPgJournal_Migrate(t *testing.T) {
	tm := &fakeTxManager{tx: &fakeTx{}}
	require.NoError(t, NewPgJournal(tm).Migrate(context.Background()))
	require.Len(t, tm.tx.calls, 1)
	assert.Contains(t, tm.tx.calls[0].sql, "CREATE TABLE IF NOT EXISTS trades")
}
