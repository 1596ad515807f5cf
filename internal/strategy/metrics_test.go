package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wyckoff_keeper/internal/models"
)

func TestCalculateMetrics_Basic(t *testing.T) {
	bars := []models.Bar{
		bar(0, 10, 11, 9, 10, 100),
		bar(1, 10, 12, 9, 11, 100),
		bar(2, 11, 13, 10, 12, 300),
		bar(3, 12, 14, 11, 13, 300),
	}

	m := CalculateMetrics(bars)

	assert.InDelta(t, 11.5, m.AvgPrice, 1e-12)
	assert.InDelta(t, 200, m.AvgVolume, 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), m.Volatility, 1e-12)
	assert.Equal(t, 9.0, m.Support)
	assert.Equal(t, 14.0, m.Resistance)
	assert.Equal(t, 5.0, m.PriceRange)
	// (12.5 - 10.5) = 2 > 0.23
	assert.Equal(t, models.TrendUp, m.Trend)
	assert.Equal(t, models.VolumeIncreasing, m.VolumeTrend)
}

func TestCalculateMetrics_Trends(t *testing.T) {
	tests := []struct {
		name        string
		closes      []float64
		volumes     []float64
		trend       models.Trend
		volumeTrend models.VolumeTrend
	}{
		{
			name:        "down and decreasing",
			closes:      []float64{110, 108, 100, 98},
			volumes:     []float64{500, 500, 100, 100},
			trend:       models.TrendDown,
			volumeTrend: models.VolumeDecreasing,
		},
		{
			name:        "sideways within the 2% margin",
			closes:      []float64{100, 100.5, 101, 101.5},
			volumes:     []float64{100, 100, 110, 110},
			trend:       models.TrendSideways,
			volumeTrend: models.VolumeStable,
		},
		{
			name:        "odd length puts the extra bar in the second half",
			closes:      []float64{100, 100, 100, 100, 130},
			volumes:     []float64{100, 100, 100, 100, 400},
			trend:       models.TrendUp,
			volumeTrend: models.VolumeIncreasing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars := make([]models.Bar, len(tt.closes))
			for i, c := range tt.closes {
				bars[i] = bar(i, c, c+1, c-1, c, tt.volumes[i])
			}
			m := CalculateMetrics(bars)
			assert.Equal(t, tt.trend, m.Trend)
			assert.Equal(t, tt.volumeTrend, m.VolumeTrend)
		})
	}
}

func TestCalculateMetrics_Empty(t *testing.T) {
	m := CalculateMetrics(nil)
	assert.Equal(t, models.TrendSideways, m.Trend)
	assert.Equal(t, models.VolumeStable, m.VolumeTrend)
	assert.Zero(t, m.AvgPrice)
}

func TestCalculateMetrics_AverageWithinRange(t *testing.T) {
	bars := make([]models.Bar, 0, 30)
	price := 50.0
	for i := 0; i < 30; i++ {
		step := float64((i*7)%5) - 2
		open := price
		price += step
		lo, hi := math.Min(open, price)-0.5, math.Max(open, price)+0.5
		bars = append(bars, bar(i, open, hi, lo, price, float64(100+i)))
	}

	for n := 5; n <= len(bars); n++ {
		m := CalculateMetrics(bars[len(bars)-n:])
		require.LessOrEqual(t, m.Support, m.AvgPrice)
		require.LessOrEqual(t, m.AvgPrice, m.Resistance)
	}
}

func TestCalculateMetrics_Reproducible(t *testing.T) {
	bars := []models.Bar{
		bar(0, 0.1, 0.35, 0.05, 0.3, 0.7),
		bar(1, 0.3, 0.4, 0.1, 0.2, 0.1),
		bar(2, 0.2, 0.25, 0.05, 0.1, 0.3),
		bar(3, 0.1, 0.7, 0.1, 0.7, 0.9),
	}
	assert.Equal(t, CalculateMetrics(bars), CalculateMetrics(bars))
}
