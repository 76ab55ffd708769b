// Package live streams admin notifications over a WebSocket.
package live

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/playperu/fieldgame/internal/notify"
)

const (
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// Subscriber is the part of the broker the handler needs.
type Subscriber interface {
	Subscribe(channel string) chan []byte
	Unsubscribe(channel string, ch chan []byte)
}

type Handler struct {
	logger  *slog.Logger
	broker  Subscriber
	channel string
}

// NewHandler streams the messages published on channel.
func NewHandler(logger *slog.Logger, broker Subscriber, channel string) *Handler {
	return &Handler{logger: logger, broker: broker, channel: channel}
}

func NewAdminHandler(logger *slog.Logger, broker Subscriber) *Handler {
	return NewHandler(logger, broker, notify.ChannelAdmin)
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.stream)
	return r
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	msgs := h.broker.Subscribe(h.channel)
	defer h.broker.Unsubscribe(h.channel, msgs)

	// The feed is one way; CloseRead handles control frames and cancels
	// ctx once the client goes away.
	ctx := conn.CloseRead(r.Context())

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("live feed closed", "channel", h.channel)
			return
		case data := <-msgs:
			if err := h.write(ctx, conn, data); err != nil {
				h.logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				h.logger.Debug("websocket ping failed", "error", err)
				return
			}
		}
	}
}

func (h *Handler) write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
