package models

import "time"

type Stats struct {
	TotalTrades      int     `json:"total_trades"`
	SuccessfulTrades int     `json:"successful_trades"`
	TotalPnl         float64 `json:"total_pnl"`
}

// Status — снапшот состояния бота для status/list.
type Status struct {
	BotID           string    `json:"bot_id"`
	Market          string    `json:"market,omitempty"`
	Mode            Mode      `json:"mode,omitempty"`
	Running         bool      `json:"running"`
	StartedAt       time.Time `json:"started_at,omitempty"`
	LastPollTime    time.Time `json:"last_poll_time,omitempty"`
	LastSignal      *Signal   `json:"last_signal,omitempty"`
	Phase           Phase     `json:"phase,omitempty"`
	CurrentPosition *Position `json:"current_position,omitempty"`
	Stats           Stats     `json:"stats"`
	ErrorCount      int       `json:"error_count"`
	BarsCollected   int       `json:"bars_collected"`
	LastError       string    `json:"last_error,omitempty"`
}

// NotRunning is the explicit result for an unknown bot id.
func NotRunning(botID string) Status {
	return Status{BotID: botID, Running: false}
}
