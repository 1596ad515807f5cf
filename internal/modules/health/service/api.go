package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/internal/runner/registry"
	"wyckoff_keeper/pkg/logger"
)

const (
	maxBodyBytes      = 1 << 20
	defaultTradeLimit = 50
)

// Bots is the registry surface the control API drives.
type Bots interface {
	Start(ctx context.Context, cfg models.BotConfig) error
	Stop(botID string) bool
	Status(botID string) models.Status
	List() []models.Status
}

type TradeHistory interface {
	Recent(ctx context.Context, botID string, limit int) ([]models.TradeRecord, error)
}

type API struct {
	bots    Bots
	history TradeHistory
}

func NewAPI(bots Bots, history TradeHistory) *API {
	return &API{bots: bots, history: history}
}

// Register вешает /bots на mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /bots", a.list)
	mux.HandleFunc("POST /bots", a.start)
	mux.HandleFunc("GET /bots/{id}", a.status)
	mux.HandleFunc("DELETE /bots/{id}", a.stop)
	mux.HandleFunc("GET /bots/{id}/trades", a.trades)
}

func (a *API) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.bots.List())
}

func (a *API) start(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var cfg models.BotConfig
	if err := sonic.Unmarshal(body, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if cfg.Strategy == (models.StrategyParams{}) {
		cfg.Strategy = models.DefaultStrategyParams()
	}

	if err := a.bots.Start(r.Context(), cfg); err != nil {
		logger.Warn("api: start %s: %v", cfg.BotID, err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, a.bots.Status(cfg.BotID))
}

func (a *API) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.bots.Status(r.PathValue("id")))
}

func (a *API) stop(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !a.bots.Stop(id) {
		writeError(w, http.StatusNotFound, errors.New("bot is not running"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) trades(w http.ResponseWriter, r *http.Request) {
	limit := defaultTradeLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}
	recs, err := a.history.Recent(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		logger.Error("api: trades %s: %v", r.PathValue("id"), err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []models.TradeRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, models.ErrMissingCredentials):
		return http.StatusUnprocessableEntity
	case errors.Is(err, registry.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
