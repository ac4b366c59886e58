package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/campus-orgs/backend/internal/middleware"
	"github.com/campus-orgs/backend/pkg/response"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 50 * time.Second
	sendBuffer   = 64
)

// Subscriber opens a subscription to an organization channel.
type Subscriber interface {
	Subscribe(ctx context.Context, orgID uuid.UUID, handler func(Message)) (cancel func(), err error)
}

// Handler upgrades members to a WebSocket that relays their organization's activity.
type Handler struct {
	base     context.Context
	sub      Subscriber
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler creates a feed handler. Open sockets are closed when base is done.
// checkOrigin may be nil to accept same-origin requests only.
func NewHandler(base context.Context, sub Subscriber, checkOrigin func(r *http.Request) bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		base: base,
		sub:  sub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// Serve handles GET /organizations/:id/feed. Call after JWT and RequireOrgRole.
func (h *Handler) Serve(c *gin.Context) {
	orgID, ok := c.Get(middleware.ContextOrganizationID)
	if !ok {
		response.Forbidden(c, "not a member of this organization")
		return
	}
	id := orgID.(uuid.UUID)

	send := make(chan Message, sendBuffer)
	ctx, cancel := context.WithCancel(h.base)
	defer cancel()
	stop, err := h.sub.Subscribe(ctx, id, func(m Message) {
		select {
		case send <- m:
		default:
			h.logger.Warn("feed client too slow, dropping message", zap.String("org_id", id.String()), zap.String("event", m.Event))
		}
	})
	if err != nil {
		h.logger.Error("feed subscribe failed", zap.String("org_id", id.String()), zap.Error(err))
		response.ServiceUnavailable(c, "feed unavailable")
		return
	}
	defer stop()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	go readPump(conn, cancel)
	writePump(ctx, conn, send)
}

// readPump discards client frames and cancels ctx when the peer goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(ctx context.Context, conn *websocket.Conn, send <-chan Message) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
