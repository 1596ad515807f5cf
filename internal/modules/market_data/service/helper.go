package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"wyckoff_keeper/internal/models"
)

func timeframeToDuration(tf string) time.Duration {
	switch tf {
	case "1m":
		return time.Minute
	case "3m":
		return 3 * time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1H", "1h":
		return time.Hour
	case "2H", "2h":
		return 2 * time.Hour
	case "4H", "4h":
		return 4 * time.Hour
	case "1D", "1d":
		return 24 * time.Hour
	default:
		return 0
	}
}

func okxBar(tf string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(tf)) {
	case "1m", "3m", "5m", "15m", "30m":
		return strings.ToLower(strings.TrimSpace(tf)), nil
	case "60m", "1h":
		return "1H", nil
	case "2h":
		return "2H", nil
	case "4h":
		return "4H", nil
	case "1d":
		return "1D", nil
	}
	return "", fmt.Errorf("unsupported timeframe for OKX bar: %q", tf)
}

// parseCandleRow разбирает строку OKX [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm].
// confirmed is false for a candle that is still forming.
func parseCandleRow(row []string) (bar models.Bar, confirmed bool, err error) {
	if len(row) < 6 {
		return models.Bar{}, false, errors.Errorf("candle row has %d fields", len(row))
	}

	tsMs, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return models.Bar{}, false, errors.Wrap(err, "parse candle ts")
	}

	var vals [5]float64
	for i := range vals {
		vals[i], err = strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return models.Bar{}, false, errors.Wrapf(err, "parse candle field %d", i+1)
		}
	}

	bar = models.Bar{
		Timestamp: time.UnixMilli(tsMs).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}
	// confirm всегда в последнем элементе
	confirmed = len(row) >= 9 && row[len(row)-1] == "1"
	return bar, confirmed, nil
}
