package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/pkg/tracing"
)

type candlesResp struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}

// GetCandles returns up to limit candles oldest first, each flagged closed or forming.
func (c *Client) GetCandles(ctx context.Context, instID, timeframe string, limit int) (bars []models.Bar, closed []bool, err error) {
	span, ctx := tracing.StartSpan(ctx, "okx.market.candles",
		opentracing.Tag{Key: "inst_id", Value: instID},
	)
	defer func() { tracing.Finish(span, err) }()

	if limit <= 0 {
		limit = 100
	}
	bar, err := okxBar(timeframe)
	if err != nil {
		return nil, nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, errors.Wrap(err, "rate limiter")
	}

	u := fmt.Sprintf("%s/api/v5/market/candles?instId=%s&bar=%s&limit=%d",
		c.baseURL, url.QueryEscape(instID), url.QueryEscape(bar), limit,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "build candles request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, errors.Wrapf(models.ErrDataUnavailable, "okx candles %s: %v", instID, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, nil, errors.Wrapf(models.ErrDataUnavailable, "okx candles %s: http %d: %s", instID, resp.StatusCode, string(body))
	}

	var r candlesResp
	if err := sonic.Unmarshal(body, &r); err != nil {
		return nil, nil, errors.Wrap(err, "decode candles")
	}
	if r.Code != "0" {
		return nil, nil, errors.Wrapf(models.ErrDataUnavailable, "okx candles %s: code=%s msg=%s", instID, r.Code, r.Msg)
	}

	// OKX отдаёт newest-first → разворачиваем
	bars = make([]models.Bar, 0, len(r.Data))
	closed = make([]bool, 0, len(r.Data))
	for i := len(r.Data) - 1; i >= 0; i-- {
		cb, ok, perr := parseCandleRow(r.Data[i])
		if perr != nil {
			continue
		}
		bars = append(bars, cb)
		closed = append(closed, ok)
	}
	return bars, closed, nil
}

// OKXSource polls the REST candles endpoint for the latest closed bar.
type OKXSource struct {
	c *Client
}

func NewOKXSource(c *Client) *OKXSource { return &OKXSource{c: c} }

func (s *OKXSource) FetchLatestBar(ctx context.Context, market string) (models.Bar, error) {
	bars, closed, err := s.c.GetCandles(ctx, market, s.c.timeframe, 3)
	if err != nil {
		return models.Bar{}, err
	}
	for i := len(bars) - 1; i >= 0; i-- {
		if closed[i] {
			return bars[i], nil
		}
	}
	return models.Bar{}, errors.Wrapf(models.ErrDataUnavailable, "no closed %s candle for %s", s.c.timeframe, market)
}

// RecentBars returns up to limit closed candles, oldest first.
func (s *OKXSource) RecentBars(ctx context.Context, market string, limit int) ([]models.Bar, error) {
	// +1 на формирующуюся свечу
	bars, closed, err := s.c.GetCandles(ctx, market, s.c.timeframe, limit+1)
	if err != nil {
		return nil, err
	}
	out := make([]models.Bar, 0, len(bars))
	for i, b := range bars {
		if closed[i] {
			out = append(out, b)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
