package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"wyckoff_keeper/internal/models"
)

type orderAck struct {
	OrdID   string `json:"ordId"`
	ClOrdID string `json:"clOrdId"`
	SCode   string `json:"sCode"`
	SMsg    string `json:"sMsg"`
}

// OpenPosition sets leverage and sends a market order for the instruction.
func (c *Client) OpenPosition(ctx context.Context, in models.OpenInstruction) (models.Receipt, error) {
	inst, err := c.GetInstrument(ctx, in.Market)
	if err != nil {
		return models.Receipt{}, errors.Wrap(models.ErrExecution, err.Error())
	}
	contracts, err := inst.Contracts(in.Size)
	if err != nil {
		return models.Receipt{}, err
	}

	if in.Leverage > 0 {
		lev := map[string]string{
			"instId":  in.Market,
			"lever":   strconv.Itoa(in.Leverage),
			"mgnMode": "cross",
		}
		if err := c.do(ctx, "POST", "/api/v5/account/set-leverage", lev, nil); err != nil {
			return models.Receipt{}, errors.Wrapf(models.ErrExecution, "set leverage: %v", err)
		}
	}

	side := "buy"
	if in.Side == models.SideShort {
		side = "sell"
	}
	body := map[string]string{
		"instId":  in.Market,
		"tdMode":  "cross",
		"side":    side,
		"posSide": string(in.Side),
		"ordType": "market",
		"sz":      contracts.String(),
		// clOrdId: до 32 буквенно-цифровых символов
		"clOrdId": strings.ReplaceAll(in.ClientOrderID, "-", ""),
	}

	var acks []orderAck
	if err := c.do(ctx, "POST", "/api/v5/trade/order", body, &acks); err != nil {
		return models.Receipt{}, errors.Wrapf(models.ErrExecution, "place order: %v", err)
	}
	if len(acks) == 0 {
		return models.Receipt{}, errors.Wrap(models.ErrExecution, "order: empty response")
	}
	if acks[0].SCode != "" && acks[0].SCode != "0" {
		return models.Receipt{}, errors.Wrapf(models.ErrExecution, "order reject: sCode=%s sMsg=%s", acks[0].SCode, acks[0].SMsg)
	}

	return models.Receipt{
		OrderID:   acks[0].OrdID,
		Market:    in.Market,
		Side:      in.Side,
		Size:      inst.BaseSize(contracts.InexactFloat64()),
		Timestamp: c.now().UTC(),
	}, nil
}

// ClosePosition closes every open side of market at market price.
func (c *Client) ClosePosition(ctx context.Context, market string) (models.Receipt, error) {
	positions, err := c.Positions(ctx)
	if err != nil {
		return models.Receipt{}, errors.Wrapf(models.ErrExecution, "close %s: %v", market, err)
	}

	var (
		rec    models.Receipt
		closed bool
	)
	for _, p := range positions {
		if p.Market != market {
			continue
		}
		body := map[string]string{
			"instId":  market,
			"mgnMode": "cross",
			"posSide": string(p.Side),
		}
		if err := c.do(ctx, "POST", "/api/v5/trade/close-position", body, nil); err != nil {
			return models.Receipt{}, errors.Wrapf(models.ErrExecution, "close %s %s: %v", market, p.Side, err)
		}
		rec = models.Receipt{Market: market, Side: p.Side, Size: p.Size, Timestamp: c.now().UTC()}
		closed = true
	}
	if !closed {
		return models.Receipt{}, errors.Wrapf(models.ErrExecution, "close %s: no open position", market)
	}
	return rec, nil
}
