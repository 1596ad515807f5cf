package strategy

import "wyckoff_keeper/internal/models"

// ClassifyPhase maps the structure and the latest bar to a Wyckoff phase. It keeps
// no memory of earlier phases.
func ClassifyPhase(structure []models.Bar, latest models.Bar, m models.Metrics) models.Phase {
	narrow := m.AvgPrice > 0 && m.PriceRange/m.AvgPrice < narrowRangeRatio

	if m.Trend == models.TrendSideways && narrow {
		if m.VolumeTrend == models.VolumeIncreasing {
			bullish := 0
			for _, b := range recentBars(structure, latest, phaseLookbackBars) {
				if b.Bullish() {
					bullish++
				}
			}
			if bullish >= 2 {
				return models.PhaseAccumulation
			}
			return models.PhaseDistribution
		}

		// выход из узкого диапазона
		switch {
		case latest.Close > m.Resistance:
			return models.PhaseAccumulation
		case latest.Close < m.Support:
			return models.PhaseDistribution
		}
		return byCloseVsAverage(latest, m)
	}

	switch m.Trend {
	case models.TrendUp:
		return models.PhaseMarkup
	case models.TrendDown:
		return models.PhaseMarkdown
	}

	return byCloseVsAverage(latest, m)
}

func byCloseVsAverage(latest models.Bar, m models.Metrics) models.Phase {
	if latest.Close < m.AvgPrice {
		return models.PhaseAccumulation
	}
	return models.PhaseDistribution
}

// recentBars returns the last n bars ending with latest, without touching structure.
func recentBars(structure []models.Bar, latest models.Bar, n int) []models.Bar {
	tail := n - 1
	if tail > len(structure) {
		tail = len(structure)
	}
	out := make([]models.Bar, 0, tail+1)
	out = append(out, structure[len(structure)-tail:]...)
	return append(out, latest)
}
