package models

import "time"

type TradeAction string

const (
	TradeOpen  TradeAction = "open"
	TradeClose TradeAction = "close"
)

// TradeRecord is one open/close attempt handed to the journal.
type TradeRecord struct {
	BotID   string      `json:"bot_id"`
	Market  string      `json:"market"`
	Action  TradeAction `json:"action"`
	Reason  string      `json:"reason"`
	Side    Side        `json:"side"`
	Size    float64     `json:"size"`
	Price   float64     `json:"price"`
	Pnl     float64     `json:"pnl"`
	OrderID string      `json:"order_id,omitempty"`
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	At      time.Time   `json:"at"`
}
