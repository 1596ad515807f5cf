package strategy

import (
	"time"

	"wyckoff_keeper/internal/models"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func bar(i int, open, high, low, close, volume float64) models.Bar {
	return models.Bar{
		Timestamp: t0.Add(time.Duration(i) * 5 * time.Minute),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}
}

func flatBars(n int, price, volume float64) []models.Bar {
	out := make([]models.Bar, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, bar(i, price, price, price, price, volume))
	}
	return out
}

func params(lookback int) models.StrategyParams {
	return models.StrategyParams{
		LookbackBars:            lookback,
		VolumeThreshold:         1.5,
		AccumulationSensitivity: 0.7,
		DistributionSensitivity: 0.7,
	}
}
