package strategy

import "wyckoff_keeper/internal/models"

const (
	RiskStopLoss   = "stop_loss"
	RiskTakeProfit = "take_profit"
)

type RiskDecision struct {
	Close  bool
	Reason string
	PnlPct float64
	// Pnl is the unrealized pnl that becomes realized when Close is true.
	Pnl float64
}

// EvaluateRisk decides a single full-size exit for an open position.
func EvaluateRisk(pos models.Position, stopLossPct, takeProfitPct float64) RiskDecision {
	notional := pos.Notional()
	if notional <= 0 {
		return RiskDecision{Pnl: pos.UnrealizedPnl}
	}

	pnlPct := pos.UnrealizedPnl / notional * 100
	d := RiskDecision{PnlPct: pnlPct, Pnl: pos.UnrealizedPnl}

	switch {
	case pnlPct <= -stopLossPct:
		d.Close, d.Reason = true, RiskStopLoss
	case pnlPct >= takeProfitPct:
		d.Close, d.Reason = true, RiskTakeProfit
	}
	return d
}
