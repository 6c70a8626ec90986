package enginehttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"seedrush/internal/metrics"
)

const (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// EventStream subscribes to the engine's WebSocket push channel. Payloads
// are ignored; only the event type is decoded, because a push is a wake-up,
// never a data carrier.
type EventStream struct {
	wsURL  string
	logger *slog.Logger

	mu       sync.Mutex
	handlers map[string]func()
}

func NewEventStream(wsURL string, logger *slog.Logger) *EventStream {
	return &EventStream{
		wsURL:    wsURL,
		logger:   logger,
		handlers: make(map[string]func()),
	}
}

func (s *EventStream) On(channel string, fn func()) {
	s.mu.Lock()
	s.handlers[channel] = fn
	s.mu.Unlock()
}

func (s *EventStream) Off(channel string) {
	s.mu.Lock()
	delete(s.handlers, channel)
	s.mu.Unlock()
}

type wsEvent struct {
	Type string `json:"type"`
}

// Run reads events until ctx is done, reconnecting with capped doubling
// backoff. A successful connect resets the backoff.
func (s *EventStream) Run(ctx context.Context) {
	delay := reconnectBaseDelay
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
		if err != nil {
			s.logger.Warn("event stream connect failed",
				slog.String("url", s.wsURL),
				slog.String("error", err.Error()))
			metrics.EventStreamReconnects.Inc()
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, reconnectMaxDelay)
			continue
		}

		s.logger.Info("event stream connected", slog.String("url", s.wsURL))
		delay = reconnectBaseDelay
		s.readLoop(ctx, conn)
		conn.Close()
	}
}

func (s *EventStream) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("event stream read failed", slog.String("error", err.Error()))
				metrics.EventStreamReconnects.Inc()
			}
			return
		}

		var ev wsEvent
		if err := json.Unmarshal(data, &ev); err != nil || ev.Type == "" {
			continue
		}

		s.mu.Lock()
		fn := s.handlers[ev.Type]
		s.mu.Unlock()
		if fn != nil {
			fn()
		}
	}
}
