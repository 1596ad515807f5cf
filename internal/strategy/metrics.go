package strategy

import (
	"math"

	"wyckoff_keeper/internal/models"
)

// CalculateMetrics aggregates a bar window. Sums run left to right so results are
// reproducible bit for bit.
func CalculateMetrics(bars []models.Bar) models.Metrics {
	n := len(bars)
	if n == 0 {
		return models.Metrics{Trend: models.TrendSideways, VolumeTrend: models.VolumeStable}
	}

	closes := make([]float64, n)
	volumes := make([]float64, n)
	support, resistance := bars[0].Low, bars[0].High
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
		if b.Low < support {
			support = b.Low
		}
		if b.High > resistance {
			resistance = b.High
		}
	}

	avgPrice := mean(closes)
	m := models.Metrics{
		AvgVolume:  mean(volumes),
		AvgPrice:   avgPrice,
		Volatility: populationStdDev(closes, avgPrice),
		Support:    support,
		Resistance: resistance,
		PriceRange: resistance - support,
	}

	mid := n / 2
	m.Trend = priceTrend(closes[:mid], closes[mid:], avgPrice)
	m.VolumeTrend = volumeTrend(volumes[:mid], volumes[mid:])
	return m
}

func priceTrend(first, second []float64, avgPrice float64) models.Trend {
	if len(first) == 0 || len(second) == 0 {
		return models.TrendSideways
	}
	diff := mean(second) - mean(first)
	margin := avgPrice * trendMarginRatio
	switch {
	case diff > margin:
		return models.TrendUp
	case diff < -margin:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}

func volumeTrend(first, second []float64) models.VolumeTrend {
	if len(first) == 0 || len(second) == 0 {
		return models.VolumeStable
	}
	a, b := mean(first), mean(second)
	switch {
	case b > a*volumeRisingRatio:
		return models.VolumeIncreasing
	case b < a*volumeFallingRate:
		return models.VolumeDecreasing
	default:
		return models.VolumeStable
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func populationStdDev(xs []float64, mu float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sq float64
	for _, x := range xs {
		d := x - mu
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}
