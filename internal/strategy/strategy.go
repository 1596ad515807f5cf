// Package strategy holds the Wyckoff signal engine. Every function here is pure:
// the same window and params always produce the same result.
package strategy

import (
	"fmt"

	"wyckoff_keeper/internal/models"
)

const (
	narrowRangeRatio  = 0.03
	trendMarginRatio  = 0.02
	volumeRisingRatio = 1.2
	volumeFallingRate = 0.8
	strongMoveRatio   = 0.005
	sensitivityStep   = 0.01

	maxConfidence     = 0.9
	rangeWaitConf     = 0.3
	trendWaitConf     = 0.2
	phaseLookbackBars = 3
)

// Analysis — результат одного прогона движка по окну.
type Analysis struct {
	// Ready is false when the window was too short; Metrics and Phase are then zero.
	Ready   bool
	Metrics models.Metrics
	Phase   models.Phase
	Signal  models.Signal
}

// Analyze evaluates the latest bar of window against the structure formed by the
// lookback bars that precede it.
func Analyze(window []models.Bar, p models.StrategyParams) Analysis {
	if len(window) < p.LookbackBars {
		return Analysis{Signal: insufficientData(len(window), p.LookbackBars)}
	}

	latest := window[len(window)-1]
	structure := structureOf(window, p.LookbackBars)

	m := CalculateMetrics(structure)
	phase := ClassifyPhase(structure, latest, m)

	return Analysis{
		Ready:   true,
		Metrics: m,
		Phase:   phase,
		Signal:  GenerateSignal(latest, m, phase, p),
	}
}

// structureOf returns up to lookback bars immediately before the latest one.
func structureOf(window []models.Bar, lookback int) []models.Bar {
	end := len(window) - 1
	start := end - lookback
	if start < 0 {
		start = 0
	}
	return window[start:end]
}

func insufficientData(have, need int) models.Signal {
	return models.Signal{
		Direction:  models.DirectionFlat,
		Confidence: 0,
		Reason:     fmt.Sprintf("insufficient data: have %d bars, need %d", have, need),
	}
}
