package strategy

import (
	"fmt"
	"math"

	"wyckoff_keeper/internal/models"
)

// GenerateSignal applies the per-phase entry rules to the latest bar.
func GenerateSignal(latest models.Bar, m models.Metrics, phase models.Phase, p models.StrategyParams) models.Signal {
	switch phase {
	case models.PhaseAccumulation:
		return accumulationSignal(latest, m, p)
	case models.PhaseDistribution:
		return distributionSignal(latest, m, p)
	case models.PhaseMarkup:
		return models.Signal{
			Direction:  models.DirectionFlat,
			Confidence: trendWaitConf,
			Reason:     "markup phase: trend already established, waiting for a pullback into accumulation",
		}
	case models.PhaseMarkdown:
		return models.Signal{
			Direction:  models.DirectionFlat,
			Confidence: trendWaitConf,
			Reason:     "markdown phase: trend already established, waiting for a pullback into distribution",
		}
	}
	return models.Signal{
		Direction: models.DirectionFlat,
		Reason:    fmt.Sprintf("no rule for phase %q", phase),
	}
}

func accumulationSignal(l models.Bar, m models.Metrics, p models.StrategyParams) models.Signal {
	breakoutPrice := m.Resistance * (1 - p.AccumulationSensitivity*sensitivityStep)
	volMultiple := volumeMultiple(l, m)
	volumeSpike := l.Volume > m.AvgVolume*p.VolumeThreshold
	strongMove := (l.Close-l.Open)/l.Open > strongMoveRatio

	meta := map[string]float64{
		"breakout_price":  breakoutPrice,
		"volume_multiple": volMultiple,
	}

	if l.Close > breakoutPrice && volumeSpike && l.Bullish() && strongMove {
		return models.Signal{
			Direction:  models.DirectionLong,
			Confidence: math.Min(maxConfidence, p.AccumulationSensitivity),
			Reason: fmt.Sprintf(
				"accumulation breakout: close %.4f above breakout price %.4f on %.2fx average volume",
				l.Close, breakoutPrice, volMultiple,
			),
			Metadata: meta,
		}
	}

	return models.Signal{
		Direction:  models.DirectionFlat,
		Confidence: rangeWaitConf,
		Reason:     fmt.Sprintf("accumulation phase: waiting for breakout above %.4f", breakoutPrice),
		Metadata:   meta,
	}
}

func distributionSignal(l models.Bar, m models.Metrics, p models.StrategyParams) models.Signal {
	breakdownPrice := m.Support * (1 + p.DistributionSensitivity*sensitivityStep)
	volMultiple := volumeMultiple(l, m)
	volumeSpike := l.Volume > m.AvgVolume*p.VolumeThreshold
	strongMove := (l.Open-l.Close)/l.Open > strongMoveRatio

	meta := map[string]float64{
		"breakdown_price": breakdownPrice,
		"volume_multiple": volMultiple,
	}

	if l.Close < breakdownPrice && volumeSpike && l.Bearish() && strongMove {
		return models.Signal{
			Direction:  models.DirectionShort,
			Confidence: math.Min(maxConfidence, p.DistributionSensitivity),
			Reason: fmt.Sprintf(
				"distribution breakdown: close %.4f below breakdown price %.4f on %.2fx average volume",
				l.Close, breakdownPrice, volMultiple,
			),
			Metadata: meta,
		}
	}

	return models.Signal{
		Direction:  models.DirectionFlat,
		Confidence: rangeWaitConf,
		Reason:     fmt.Sprintf("distribution phase: waiting for breakdown below %.4f", breakdownPrice),
		Metadata:   meta,
	}
}

func volumeMultiple(l models.Bar, m models.Metrics) float64 {
	if m.AvgVolume <= 0 {
		return 0
	}
	return l.Volume / m.AvgVolume
}
