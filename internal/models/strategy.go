package models

import "fmt"

// StrategyParams are fixed for the lifetime of a bot.
type StrategyParams struct {
	LookbackBars            int     `json:"lookback_bars" yaml:"lookback_bars"`
	VolumeThreshold         float64 `json:"volume_threshold" yaml:"volume_threshold"`
	AccumulationSensitivity float64 `json:"accumulation_sensitivity" yaml:"accumulation_sensitivity"`
	DistributionSensitivity float64 `json:"distribution_sensitivity" yaml:"distribution_sensitivity"`
}

func DefaultStrategyParams() StrategyParams {
	return StrategyParams{
		LookbackBars:            20,
		VolumeThreshold:         1.5,
		AccumulationSensitivity: 0.7,
		DistributionSensitivity: 0.7,
	}
}

func (p StrategyParams) Validate() error {
	if p.LookbackBars < 5 {
		return fmt.Errorf("%w: lookback_bars must be >= 5, got %d", ErrInvalidConfig, p.LookbackBars)
	}
	if p.VolumeThreshold <= 1 {
		return fmt.Errorf("%w: volume_threshold must be > 1, got %.4f", ErrInvalidConfig, p.VolumeThreshold)
	}
	if p.AccumulationSensitivity < 0 || p.AccumulationSensitivity > 1 {
		return fmt.Errorf("%w: accumulation_sensitivity must be in [0,1], got %.4f", ErrInvalidConfig, p.AccumulationSensitivity)
	}
	if p.DistributionSensitivity < 0 || p.DistributionSensitivity > 1 {
		return fmt.Errorf("%w: distribution_sensitivity must be in [0,1], got %.4f", ErrInvalidConfig, p.DistributionSensitivity)
	}
	return nil
}

// WindowCapacity is the maximum number of bars a keeper retains.
func (p StrategyParams) WindowCapacity() int { return 2 * p.LookbackBars }

type Trend string

const (
	TrendUp       Trend = "up"
	TrendDown     Trend = "down"
	TrendSideways Trend = "sideways"
)

type VolumeTrend string

const (
	VolumeIncreasing VolumeTrend = "increasing"
	VolumeDecreasing VolumeTrend = "decreasing"
	VolumeStable     VolumeTrend = "stable"
)

// Metrics — агрегаты по окну свечей, пересчитываются каждый тик.
type Metrics struct {
	AvgVolume   float64     `json:"avg_volume"`
	AvgPrice    float64     `json:"avg_price"`
	Volatility  float64     `json:"volatility"`
	Trend       Trend       `json:"trend"`
	VolumeTrend VolumeTrend `json:"volume_trend"`
	Support     float64     `json:"support"`
	Resistance  float64     `json:"resistance"`
	PriceRange  float64     `json:"price_range"`
}

type Phase string

const (
	PhaseAccumulation Phase = "accumulation"
	PhaseMarkup       Phase = "markup"
	PhaseDistribution Phase = "distribution"
	PhaseMarkdown     Phase = "markdown"
)

type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
	DirectionFlat  Direction = "flat"
)

// Side returns the position side a non-flat direction asks for.
func (d Direction) Side() (Side, bool) {
	switch d {
	case DirectionLong:
		return SideLong, true
	case DirectionShort:
		return SideShort, true
	}
	return "", false
}

type Signal struct {
	Direction  Direction          `json:"direction"`
	Reason     string             `json:"reason"`
	Confidence float64            `json:"confidence"`
	Metadata   map[string]float64 `json:"metadata,omitempty"`
}
