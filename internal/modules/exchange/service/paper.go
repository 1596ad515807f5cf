package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"wyckoff_keeper/internal/models"
)

// PriceFeed gives the paper broker the latest known price of a market.
type PriceFeed interface {
	LastPrice(market string) (float64, bool)
}

// PaperBroker — in-memory исполнение по последней известной цене. Одна позиция на
// рынок, без комиссий; баланс меняется только на реализованный pnl.
type PaperBroker struct {
	prices PriceFeed
	now    func() time.Time

	mu        sync.Mutex
	balance   float64
	positions map[string]models.Position
}

func NewPaperBroker(balance float64, prices PriceFeed) *PaperBroker {
	return &PaperBroker{
		prices:    prices,
		now:       time.Now,
		balance:   balance,
		positions: make(map[string]models.Position),
	}
}

func (p *PaperBroker) price(market string) (float64, error) {
	px, ok := p.prices.LastPrice(market)
	if !ok || px <= 0 {
		return 0, errors.Wrapf(models.ErrDataUnavailable, "paper: no price for %s yet", market)
	}
	return px, nil
}

func unrealized(pos models.Position, px float64) float64 {
	if pos.Side == models.SideShort {
		return (pos.EntryPrice - px) * pos.Size
	}
	return (px - pos.EntryPrice) * pos.Size
}

func (p *PaperBroker) Positions(context.Context) ([]models.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]models.Position, 0, len(p.positions))
	for m, pos := range p.positions {
		if px, err := p.price(m); err == nil {
			pos.UnrealizedPnl = unrealized(pos, px)
		}
		out = append(out, pos)
	}
	return out, nil
}

func (p *PaperBroker) AccountBalance(context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance, nil
}

func (p *PaperBroker) MarketPrice(_ context.Context, market string) (float64, error) {
	return p.price(market)
}

func (p *PaperBroker) OpenPosition(_ context.Context, in models.OpenInstruction) (models.Receipt, error) {
	if in.Size <= 0 {
		return models.Receipt{}, errors.Wrap(models.ErrExecution, "paper: size must be > 0")
	}
	px, err := p.price(in.Market)
	if err != nil {
		return models.Receipt{}, errors.Wrap(models.ErrExecution, err.Error())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if cur, ok := p.positions[in.Market]; ok {
		return models.Receipt{}, errors.Wrapf(models.ErrExecution, "paper: %s already has a %s position", in.Market, cur.Side)
	}
	lev := in.Leverage
	if lev < 1 {
		lev = 1
	}
	if margin := in.Size * px / float64(lev); margin > p.balance {
		return models.Receipt{}, errors.Wrapf(models.ErrExecution, "paper: margin %.4f exceeds balance %.4f", margin, p.balance)
	}

	p.positions[in.Market] = models.Position{
		Market:     in.Market,
		Side:       in.Side,
		Size:       in.Size,
		EntryPrice: px,
		Leverage:   lev,
	}
	return models.Receipt{
		OrderID:   uuid.New().String(),
		Market:    in.Market,
		Side:      in.Side,
		Size:      in.Size,
		Price:     px,
		Timestamp: p.now().UTC(),
	}, nil
}

func (p *PaperBroker) ClosePosition(_ context.Context, market string) (models.Receipt, error) {
	px, err := p.price(market)
	if err != nil {
		return models.Receipt{}, errors.Wrap(models.ErrExecution, err.Error())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[market]
	if !ok {
		return models.Receipt{}, errors.Wrapf(models.ErrExecution, "paper: no open position for %s", market)
	}
	p.balance += unrealized(pos, px)
	delete(p.positions, market)

	return models.Receipt{
		OrderID:   uuid.New().String(),
		Market:    market,
		Side:      pos.Side,
		Size:      pos.Size,
		Price:     px,
		Timestamp: p.now().UTC(),
	}, nil
}
