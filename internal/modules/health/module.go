package health

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/fx"

	"wyckoff_keeper/internal/modules/config"
	"wyckoff_keeper/internal/modules/health/service"
	jservice "wyckoff_keeper/internal/modules/journal/service"
	mdservice "wyckoff_keeper/internal/modules/market_data/service"
	"wyckoff_keeper/internal/runner/keeper"
	"wyckoff_keeper/internal/runner/registry"
	"wyckoff_keeper/pkg/logger"
)

type Config struct {
	Addr string // например ":8080"
}

func NewConfig(cfg *config.Config) Config {
	return Config{Addr: cfg.Service.HTTPAddr}
}

func NewState(cfg *config.Config, stream *mdservice.StreamSource) *service.State {
	if cfg.MarketData.Source != config.SourceStream {
		return service.NewState(nil)
	}
	return service.NewState(stream.Connected)
}

func NewMux(state *service.State, metrics *service.Metrics, reg *registry.Registry, history jservice.History) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// readiness: сервис готов обслуживать трафик
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		// полезный JSON для отладки
		resp := map[string]any{
			"ready":       state.Ready(),
			"wsConnected": state.WSConnected(),
			"uptimeSec":   int64(state.Uptime().Seconds()),
			"activeBots":  reg.Count(),
			"lastTickUnix": func() int64 {
				t := state.LastTick()
				if t.IsZero() {
					return 0
				}
				return t.Unix()
			}(),
		}
		data, _ := sonic.Marshal(resp)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	})

	metrics.RegisterActiveBots(reg.Count)
	mux.Handle("/metrics", metrics.Handler())

	service.NewAPI(reg, history).Register(mux)
	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg Config, mux *http.ServeMux, state *service.State) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("http server: %v", err)
				}
			}()
			state.SetReady(true)
			logger.Info("http listening on %s", cfg.Addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			state.SetReady(false)
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			NewState,
			service.NewMetrics,
			NewConfig,
			NewMux,
			fx.Annotate(
				func(s *service.State) keeper.Observer { return s },
				fx.ResultTags(`group:"observers"`),
			),
			fx.Annotate(
				func(m *service.Metrics) keeper.Observer { return m },
				fx.ResultTags(`group:"observers"`),
			),
		),
		fx.Invoke(RunHTTP),
	)
}
