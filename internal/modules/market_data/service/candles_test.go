package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wyckoff_keeper/internal/models"
)

func TestOKXSource_LatestClosedCandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/market/candles", r.URL.Path)
		assert.Equal(t, "BTC-USDT-SWAP", r.URL.Query().Get("instId"))
		assert.Equal(t, "5m", r.URL.Query().Get("bar"))
		// newest first, the head candle is still forming
		fmt.Fprint(w, `{"code":"0","msg":"","data":[
			["1700000600000","101","102","100","101.5","900","9","9000","0"],
			["1700000300000","100","101.2","99.8","101","1200","12","12000","1"],
			["1700000000000","99","100.5","98.9","100","800","8","8000","1"]
		]}`)
	}))
	defer srv.Close()

	src := NewOKXSource(NewClient(testConfig(srv.URL, "")))
	b, err := src.FetchLatestBar(context.Background(), "BTC-USDT-SWAP")

	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1700000300000).UTC(), b.Timestamp)
	assert.Equal(t, models.Bar{
		Timestamp: time.UnixMilli(1700000300000).UTC(),
		Open:      100, High: 101.2, Low: 99.8, Close: 101, Volume: 1200,
	}, b)
}

func TestOKXSource_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusInternalServerError, `oops`},
		{"okx error code", http.StatusOK, `{"code":"51001","msg":"Instrument ID does not exist","data":[]}`},
		{"only forming candle", http.StatusOK, `{"code":"0","msg":"","data":[["1700000600000","1","1","1","1","1","1","1","0"]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewOKXSource(NewClient(testConfig(srv.URL, ""))).FetchLatestBar(context.Background(), "X")
			assert.ErrorIs(t, err, models.ErrDataUnavailable)
		})
	}
}

func TestGetCandles_UnsupportedTimeframe(t *testing.T) {
	c := NewClient(testConfig("http://127.0.0.1:1", ""))

	_, _, err := c.GetCandles(context.Background(), "X", "7m", 10)
	assert.Error(t, err)
}

func TestParseCandleRow(t *testing.T) {
	b, confirmed, err := parseCandleRow([]string{"1700000000000", "1", "2", "0.5", "1.5", "10", "0", "0", "1"})
	require.NoError(t, err)
	assert.True(t, confirmed)
	assert.InDelta(t, 1.5, b.Close, 1e-12)

	_, confirmed, err = parseCandleRow([]string{"1700000000000", "1", "2", "0.5", "1.5", "10"})
	require.NoError(t, err)
	assert.False(t, confirmed)

	_, _, err = parseCandleRow([]string{"x", "1", "2", "0.5", "1.5", "10"})
	assert.Error(t, err)

	_, _, err = parseCandleRow([]string{"1"})
	assert.Error(t, err)
}
