package service

import (
	"context"
	"math"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"wyckoff_keeper/internal/models"
)

type positionRow struct {
	InstID  string `json:"instId"`
	PosSide string `json:"posSide"`
	Pos     string `json:"pos"`
	AvgPx   string `json:"avgPx"`
	Upl     string `json:"upl"`
	Lever   string `json:"lever"`
}

// Positions returns open SWAP positions with sizes in base units.
func (c *Client) Positions(ctx context.Context) ([]models.Position, error) {
	var rows []positionRow
	if err := c.do(ctx, "GET", "/api/v5/account/positions?instType=SWAP", nil, &rows); err != nil {
		return nil, errors.Wrap(err, "positions")
	}

	out := make([]models.Position, 0, len(rows))
	for _, r := range rows {
		pos, _ := strconv.ParseFloat(r.Pos, 64)
		if pos == 0 {
			continue
		}

		side := models.Side(r.PosSide)
		if r.PosSide == "net" || r.PosSide == "" {
			// net mode: знак pos задаёт сторону
			side = models.SideLong
			if pos < 0 {
				side = models.SideShort
			}
		}

		inst, err := c.GetInstrument(ctx, r.InstID)
		if err != nil {
			return nil, errors.Wrapf(err, "instrument for position %s", r.InstID)
		}

		entry, _ := strconv.ParseFloat(r.AvgPx, 64)
		upl, _ := strconv.ParseFloat(r.Upl, 64)
		lever, _ := strconv.ParseFloat(r.Lever, 64)

		out = append(out, models.Position{
			Market:        r.InstID,
			Side:          side,
			Size:          inst.BaseSize(math.Abs(pos)),
			EntryPrice:    entry,
			UnrealizedPnl: upl,
			Leverage:      int(lever),
		})
	}
	return out, nil
}

type balanceRow struct {
	Details []struct {
		Ccy      string `json:"ccy"`
		AvailBal string `json:"availBal"`
		AvailEq  string `json:"availEq"`
		Eq       string `json:"eq"`
	} `json:"details"`
}

// AccountBalance returns available USDT.
func (c *Client) AccountBalance(ctx context.Context) (float64, error) {
	var rows []balanceRow
	if err := c.do(ctx, "GET", "/api/v5/account/balance?ccy=USDT", nil, &rows); err != nil {
		return 0, errors.Wrap(err, "balance")
	}
	for _, r := range rows {
		for _, d := range r.Details {
			if d.Ccy != "USDT" {
				continue
			}
			for _, s := range []string{d.AvailEq, d.AvailBal, d.Eq} {
				if v, err := strconv.ParseFloat(s, 64); err == nil {
					return v, nil
				}
			}
		}
	}
	return 0, errors.New("USDT balance not found")
}

type tickerRow struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
}

func (c *Client) MarketPrice(ctx context.Context, market string) (float64, error) {
	var rows []tickerRow
	if err := c.do(ctx, "GET", "/api/v5/market/ticker?instId="+url.QueryEscape(market), nil, &rows); err != nil {
		return 0, errors.Wrap(err, "ticker")
	}
	if len(rows) == 0 {
		return 0, errors.Errorf("no ticker for %s", market)
	}
	px, err := strconv.ParseFloat(rows[0].Last, 64)
	if err != nil || px <= 0 {
		return 0, errors.Errorf("bad last price %q for %s", rows[0].Last, market)
	}
	return px, nil
}
