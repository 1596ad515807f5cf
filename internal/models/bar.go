package models

import (
	"fmt"
	"math"
	"time"
)

// Bar is one OHLCV observation for a fixed interval.
type Bar struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Open      float64   `json:"open" yaml:"open"`
	High      float64   `json:"high" yaml:"high"`
	Low       float64   `json:"low" yaml:"low"`
	Close     float64   `json:"close" yaml:"close"`
	Volume    float64   `json:"volume" yaml:"volume"`
}

// Validate rejects bars a provider should never have produced.
func (b Bar) Validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", ErrMalformedBar)
		}
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("%w: non-positive price o=%.6f h=%.6f l=%.6f c=%.6f",
			ErrMalformedBar, b.Open, b.High, b.Low, b.Close)
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: negative volume %.6f", ErrMalformedBar, b.Volume)
	}
	if b.High < b.Low {
		return fmt.Errorf("%w: high %.6f < low %.6f", ErrMalformedBar, b.High, b.Low)
	}
	if b.Open > b.High || b.Open < b.Low || b.Close > b.High || b.Close < b.Low {
		return fmt.Errorf("%w: open/close outside [low, high]", ErrMalformedBar)
	}
	return nil
}

// Bullish — закрытие выше открытия.
func (b Bar) Bullish() bool { return b.Close > b.Open }

func (b Bar) Bearish() bool { return b.Close < b.Open }
