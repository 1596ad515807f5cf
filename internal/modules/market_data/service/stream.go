package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/pkg/logger"
)

const pingInterval = 20 * time.Second

// StreamSource keeps the last closed candle per market from the OKX business
// WebSocket and falls back to REST when the cached candle is missing or stale.
type StreamSource struct {
	c        *Client
	fallback *OKXSource
	maxAge   time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	latest  map[string]models.Bar
	markets map[string]struct{}
	added   chan string

	connected atomic.Bool
}

func NewStreamSource(c *Client) *StreamSource {
	return &StreamSource{
		c:        c,
		fallback: NewOKXSource(c),
		maxAge:   2 * timeframeToDuration(c.timeframe),
		now:      time.Now,
		latest:   make(map[string]models.Bar),
		markets:  make(map[string]struct{}),
		added:    make(chan string, 64),
	}
}

func (s *StreamSource) FetchLatestBar(ctx context.Context, market string) (models.Bar, error) {
	s.watch(market)

	s.mu.RLock()
	b, ok := s.latest[market]
	s.mu.RUnlock()

	if ok && s.maxAge > 0 && s.now().Sub(b.Timestamp) <= s.maxAge {
		return b, nil
	}
	return s.fallback.FetchLatestBar(ctx, market)
}

// RecentBars always goes to REST; the stream only keeps the latest candle.
func (s *StreamSource) RecentBars(ctx context.Context, market string, limit int) ([]models.Bar, error) {
	return s.fallback.RecentBars(ctx, market, limit)
}

// watch adds market to the subscription set; a live connection subscribes it at once.
func (s *StreamSource) watch(market string) {
	s.mu.Lock()
	_, known := s.markets[market]
	if !known {
		s.markets[market] = struct{}{}
	}
	s.mu.Unlock()

	if known {
		return
	}
	select {
	case s.added <- market:
	default:
		// переподписка при реконнекте всё равно подхватит рынок
	}
}

func (s *StreamSource) watched() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.markets))
	for m := range s.markets {
		out = append(out, m)
	}
	return out
}

// Connected reports whether a WebSocket session is currently up.
func (s *StreamSource) Connected() bool { return s.connected.Load() }

// Run держит соединение до отмены ctx, переподключаясь раз в секунду.
func (s *StreamSource) Run(ctx context.Context) {
	for {
		if err := s.session(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("[WS] candles stream %s: %v", s.c.wsURL, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (s *StreamSource) session(ctx context.Context) error {
	bar, err := okxBar(s.c.timeframe)
	if err != nil {
		return err
	}
	channel := "candle" + bar

	conn, _, err := s.c.wsDialer.DialContext(ctx, s.c.wsURL, nil)
	if err != nil {
		return errors.Wrap(err, "dial")
	}
	defer conn.Close()

	if markets := s.watched(); len(markets) > 0 {
		if err := subscribe(conn, channel, markets...); err != nil {
			return err
		}
	}
	logger.Info("[WS] connected %s, %s", s.c.wsURL, channel)
	s.connected.Store(true)
	defer s.connected.Store(false)

	done := make(chan struct{})
	defer close(done)
	go s.writer(ctx, conn, channel, done)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "read")
		}
		s.handle(channel, msg)
	}
}

// writer is the only goroutine that writes to conn after the initial subscribe.
func (s *StreamSource) writer(ctx context.Context, conn *websocket.Conn, channel string, done <-chan struct{}) {
	// keepalive ping — иначе OKX рвёт соединение с 4004
	t := time.NewTicker(pingInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close()
			return
		case <-done:
			return
		case <-t.C:
			_ = conn.WriteMessage(websocket.TextMessage, []byte("ping"))
		case m := <-s.added:
			if err := subscribe(conn, channel, m); err != nil {
				logger.Warn("[WS] subscribe %s: %v", m, err)
			}
		}
	}
}

type wsArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type wsOp struct {
	Op   string  `json:"op"`
	Args []wsArg `json:"args"`
}

type wsFrame struct {
	Arg  wsArg      `json:"arg"`
	Data [][]string `json:"data"`
}

func subscribe(conn *websocket.Conn, channel string, markets ...string) error {
	op := wsOp{Op: "subscribe", Args: make([]wsArg, 0, len(markets))}
	for _, m := range markets {
		op.Args = append(op.Args, wsArg{Channel: channel, InstID: m})
	}
	payload, err := sonic.Marshal(op)
	if err != nil {
		return errors.Wrap(err, "marshal subscribe")
	}
	return errors.Wrap(conn.WriteMessage(websocket.TextMessage, payload), "subscribe")
}

func (s *StreamSource) handle(channel string, msg []byte) {
	var frame wsFrame
	if err := sonic.Unmarshal(msg, &frame); err != nil {
		return // pong и служебные события
	}
	if frame.Arg.Channel != channel || len(frame.Data) == 0 {
		return
	}

	for _, row := range frame.Data {
		b, confirmed, err := parseCandleRow(row)
		if err != nil || !confirmed {
			continue
		}
		s.mu.Lock()
		if prev, ok := s.latest[frame.Arg.InstID]; !ok || b.Timestamp.After(prev.Timestamp) {
			s.latest[frame.Arg.InstID] = b
		}
		s.mu.Unlock()
	}
}
