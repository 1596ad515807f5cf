package models

import (
	"fmt"
	"strings"
)

type Mode string

const (
	// ModeManual only reports signals.
	ModeManual Mode = "manual"
	// ModeAuto places and closes positions through the execution client.
	ModeAuto Mode = "auto"
)

// Automated reports whether the mode needs an execution-capable client.
func (m Mode) Automated() bool { return m == ModeAuto }

type ExchangeKind string

const (
	ExchangePaper ExchangeKind = "paper"
	ExchangeOKX   ExchangeKind = "okx"
)

// BotConfig is supplied once at start and never mutated afterwards.
type BotConfig struct {
	BotID           string         `json:"bot_id" yaml:"bot_id"`
	Market          string         `json:"market" yaml:"market"`
	Mode            Mode           `json:"mode" yaml:"mode"`
	Exchange        ExchangeKind   `json:"exchange" yaml:"exchange"`
	PositionSizePct float64        `json:"position_size_pct" yaml:"position_size_pct"`
	MaxLeverage     int            `json:"max_leverage" yaml:"max_leverage"`
	StopLossPct     float64        `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TakeProfitPct   float64        `json:"take_profit_pct" yaml:"take_profit_pct"`
	Strategy        StrategyParams `json:"strategy" yaml:"strategy"`
}

func (c BotConfig) Validate() error {
	if strings.TrimSpace(c.BotID) == "" {
		return fmt.Errorf("%w: bot_id is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Market) == "" {
		return fmt.Errorf("%w: market is required", ErrInvalidConfig)
	}
	switch c.Mode {
	case ModeManual, ModeAuto:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	if c.Mode.Automated() {
		switch c.Exchange {
		case ExchangePaper, ExchangeOKX:
		default:
			return fmt.Errorf("%w: unknown exchange %q", ErrInvalidConfig, c.Exchange)
		}
		if c.PositionSizePct <= 0 || c.PositionSizePct > 100 {
			return fmt.Errorf("%w: position_size_pct must be in (0,100], got %.4f", ErrInvalidConfig, c.PositionSizePct)
		}
		if c.MaxLeverage < 1 {
			return fmt.Errorf("%w: max_leverage must be >= 1, got %d", ErrInvalidConfig, c.MaxLeverage)
		}
	}
	if c.StopLossPct <= 0 {
		return fmt.Errorf("%w: stop_loss_pct must be > 0", ErrInvalidConfig)
	}
	if c.TakeProfitPct <= 0 {
		return fmt.Errorf("%w: take_profit_pct must be > 0", ErrInvalidConfig)
	}
	return c.Strategy.Validate()
}
