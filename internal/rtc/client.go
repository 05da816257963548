package rtc

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const defaultConnectTimeout = 10 * time.Second

// WebsocketTransport is a Transport over one websocket connection to the
// realtime server. A single read loop feeds Events; writes are serialized
// by a mutex.
type WebsocketTransport struct {
	conn   *websocket.Conn
	logger *zap.Logger

	events chan Event
	done   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

type sayMessage struct {
	Type     string `json:"type"`
	Identity string `json:"identity"`
	Text     string `json:"text"`
}

// Connect dials the realtime server and starts the read loop.
func Connect(ctx context.Context, url, apiKey, apiSecret string, logger *zap.Logger) (*WebsocketTransport, error) {
	headers := make(http.Header)
	if apiKey != "" {
		headers.Set("Authorization", "Bearer "+apiKey)
	}
	if apiSecret != "" {
		headers.Set("X-Api-Secret", apiSecret)
	}

	dialCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, defaultConnectTimeout)
		defer cancel()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, url, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	transport := &WebsocketTransport{
		conn:   conn,
		logger: logger,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	go transport.readLoop()
	return transport, nil
}

// Events returns the inbound event stream. The channel closes when the
// connection drops or Close is called.
func (t *WebsocketTransport) Events() <-chan Event {
	return t.events
}

// Say sends a spoken line to one participant.
func (t *WebsocketTransport) Say(ctx context.Context, identity, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return fmt.Errorf("transport closed")
	default:
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.conn.WriteJSON(sayMessage{Type: "say", Identity: identity, Text: text}); err != nil {
		return fmt.Errorf("failed to send say message: %w", err)
	}
	return nil
}

// Close shuts the connection down. Safe to call more than once.
func (t *WebsocketTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		t.writeMu.Lock()
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		t.writeMu.Unlock()
		_ = t.conn.Close()
	})
	return nil
}

func (t *WebsocketTransport) readLoop() {
	defer close(t.events)
	for {
		var event Event
		if err := t.conn.ReadJSON(&event); err != nil {
			select {
			case <-t.done:
			default:
				t.logger.Warn("Realtime connection closed", zap.Error(err))
				t.Close()
			}
			return
		}
		if event.Type == "" {
			t.logger.Debug("Skipping frame without type")
			continue
		}
		select {
		case t.events <- event:
		case <-t.done:
			return
		}
	}
}
