package models

import "time"

type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// Position is owned by the execution collaborator; keepers only cache it.
type Position struct {
	Market        string  `json:"market"`
	Side          Side    `json:"side"`
	Size          float64 `json:"size"`
	EntryPrice    float64 `json:"entry_price"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`
	Leverage      int     `json:"leverage"`
}

// Notional — entry * size, база для pnl в процентах.
func (p Position) Notional() float64 { return p.EntryPrice * p.Size }

type OpenInstruction struct {
	ClientOrderID string  `json:"client_order_id"`
	Market        string  `json:"market"`
	Side          Side    `json:"side"`
	Size          float64 `json:"size"`
	Leverage      int     `json:"leverage"`
}

type Receipt struct {
	OrderID   string    `json:"order_id"`
	Market    string    `json:"market"`
	Side      Side      `json:"side"`
	Size      float64   `json:"size"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
