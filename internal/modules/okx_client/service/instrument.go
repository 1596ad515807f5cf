package service

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"wyckoff_keeper/internal/models"
)

// Instrument — параметры контракта, нужные для перевода размера в контракты.
type Instrument struct {
	InstID string
	LotSz  float64
	MinSz  float64
	// CtVal — базовых единиц в одном контракте (ctVal * ctMult)
	CtVal float64
}

type instrumentRow struct {
	InstID string `json:"instId"`
	LotSz  string `json:"lotSz"`
	MinSz  string `json:"minSz"`
	CtVal  string `json:"ctVal"`
	CtMult string `json:"ctMult"`
	State  string `json:"state"`
}

func (c *Client) GetInstrument(ctx context.Context, instID string) (Instrument, error) {
	c.instMu.Lock()
	inst, ok := c.instruments[instID]
	c.instMu.Unlock()
	if ok {
		return inst, nil
	}

	var rows []instrumentRow
	if err := c.do(ctx, "GET", "/api/v5/public/instruments?instType=SWAP&instId="+url.QueryEscape(instID), nil, &rows); err != nil {
		return Instrument{}, err
	}
	if len(rows) == 0 {
		return Instrument{}, errors.Errorf("instrument %s not found", instID)
	}
	row := rows[0]
	if row.State != "" && row.State != "live" {
		return Instrument{}, errors.Errorf("instrument %s not live: state=%s", instID, row.State)
	}

	parsePos := func(name, s string) (float64, error) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return 0, errors.Errorf("%s parse: %v (%q)", name, err, s)
		}
		return v, nil
	}

	lotSz, err := parsePos("lotSz", row.LotSz)
	if err != nil {
		return Instrument{}, err
	}
	minSz, err := parsePos("minSz", row.MinSz)
	if err != nil {
		return Instrument{}, err
	}
	ctVal, err := parsePos("ctVal", row.CtVal)
	if err != nil {
		return Instrument{}, err
	}
	if m, e := strconv.ParseFloat(row.CtMult, 64); e == nil && m > 0 {
		ctVal *= m
	}

	inst = Instrument{InstID: row.InstID, LotSz: lotSz, MinSz: minSz, CtVal: ctVal}
	c.instMu.Lock()
	c.instruments[instID] = inst
	c.instMu.Unlock()
	return inst, nil
}

// Contracts converts a base-unit size into contracts, rounded down to lotSz.
func (i Instrument) Contracts(size float64) (decimal.Decimal, error) {
	lot := decimal.NewFromFloat(i.LotSz)
	steps := decimal.NewFromFloat(size).
		Div(decimal.NewFromFloat(i.CtVal)).
		Div(lot).
		Floor()
	sz := steps.Mul(lot)
	if sz.LessThan(decimal.NewFromFloat(i.MinSz)) {
		return decimal.Zero, errors.Wrapf(models.ErrExecution,
			"size %.8f is below min %s contracts of %s", size, decimal.NewFromFloat(i.MinSz), i.InstID)
	}
	return sz, nil
}

// BaseSize converts contracts back into base units.
func (i Instrument) BaseSize(contracts float64) float64 {
	return decimal.NewFromFloat(contracts).Mul(decimal.NewFromFloat(i.CtVal)).InexactFloat64()
}
