package service

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/internal/runner/keeper"
)

// Metrics — prometheus-метрики keeper'ов. Регистрируются в собственном реестре.
//
//   - keeper_ticks_total{result}            ok|stale|error
//   - keeper_signals_total{direction}       long|short|flat
//   - keeper_trades_total{action,result}    open|close x ok|fail
//   - keeper_self_stops_total
//   - keeper_active_bots
//   - keeper_error_count{bot_id}
//   - keeper_total_pnl{bot_id}
type Metrics struct {
	reg *prometheus.Registry

	ticks      *prometheus.CounterVec
	signals    *prometheus.CounterVec
	trades     *prometheus.CounterVec
	selfStops  prometheus.Counter
	errorCount *prometheus.GaugeVec
	totalPnl   *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keeper_ticks_total",
				Help: "Keeper ticks by result",
			},
			[]string{"result"},
		),
		signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keeper_signals_total",
				Help: "Signals produced on fresh bars",
			},
			[]string{"direction"},
		),
		trades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keeper_trades_total",
				Help: "Open/close attempts by result",
			},
			[]string{"action", "result"},
		),
		selfStops: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "keeper_self_stops_total",
				Help: "Keepers stopped after too many consecutive failures",
			},
		),
		errorCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "keeper_error_count",
				Help: "Consecutive failed ticks per bot",
			},
			[]string{"bot_id"},
		),
		totalPnl: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "keeper_total_pnl",
				Help: "Realized pnl per bot",
			},
			[]string{"bot_id"},
		),
	}
	m.reg.MustRegister(m.ticks, m.signals, m.trades, m.selfStops, m.errorCount, m.totalPnl)
	return m
}

// RegisterActiveBots exposes keeper_active_bots backed by count.
func (m *Metrics) RegisterActiveBots(count func() int) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "keeper_active_bots",
			Help: "Keepers currently registered",
		},
		func() float64 { return float64(count()) },
	))
}

func (m *Metrics) OnTick(_ context.Context, st models.Status, res keeper.TickResult) {
	switch {
	case res.Err != nil:
		m.ticks.WithLabelValues("error").Inc()
	case res.Stale:
		m.ticks.WithLabelValues("stale").Inc()
	default:
		m.ticks.WithLabelValues("ok").Inc()
		if d := res.Analysis.Signal.Direction; d != "" {
			m.signals.WithLabelValues(string(d)).Inc()
		}
	}

	for _, tr := range res.Trades {
		result := "ok"
		if !tr.Success {
			result = "fail"
		}
		m.trades.WithLabelValues(string(tr.Action), result).Inc()
	}

	if res.Terminal {
		m.selfStops.Inc()
		m.errorCount.DeleteLabelValues(st.BotID)
		m.totalPnl.DeleteLabelValues(st.BotID)
		return
	}
	m.errorCount.WithLabelValues(st.BotID).Set(float64(st.ErrorCount))
	m.totalPnl.WithLabelValues(st.BotID).Set(st.Stats.TotalPnl)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
