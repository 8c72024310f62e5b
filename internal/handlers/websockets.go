package handlers

import (
	"context"
	"net/http"
	"time"

	"fridge_monitor"
	"fridge_monitor/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
)

// Origins are enforced by the cors middleware for browser callers.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Live feed
// @Description  WebSocket upgrade. The server pushes one JSON reading per text message as readings are stored.
// @Tags         live
// @Success      101  {string}  string  "Switching Protocols"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	id, feed, cancel := h.services.Broadcaster.Subscribe()
	defer cancel()

	metrics.WSConnectionsActive.Inc()
	defer metrics.WSConnectionsActive.Dec()
	if h.log != nil {
		h.log.Infow("ws_subscribed", "subscriber", id)
	}

	armReadDeadline(conn)
	done := make(chan struct{})
	go h.drainPeer(conn, id, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	h.pump(c.Request.Context(), conn, feed, ping.C, done)
	if h.log != nil {
		h.log.Infow("ws_unsubscribed", "subscriber", id)
	}
}

// pump writes readings and pings until the peer goes away.
func (h *Handler) pump(ctx context.Context, conn *websocket.Conn, feed <-chan fridge_monitor.Record, ping <-chan time.Time, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping:
			if err := sendPing(conn); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case rec, ok := <-feed:
			if !ok {
				return
			}
			if err := sendRecord(conn, rec); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// armReadDeadline lets pongs keep an otherwise silent subscriber alive.
// Clients never send payloads; anything over maxMsgSize closes the stream.
func armReadDeadline(conn *websocket.Conn) {
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// drainPeer consumes inbound frames so control messages are processed, and
// closes done once the subscriber disconnects or stops answering pings.
func (h *Handler) drainPeer(conn *websocket.Conn, id string, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.NextReader(); err != nil {
			if h.log != nil {
				h.log.Debugw("ws_peer_gone", "subscriber", id, "err", err)
			}
			return
		}
	}
}

func sendPing(conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// sendRecord writes rec as a bare JSON object with a write deadline.
func sendRecord(conn *websocket.Conn, rec fridge_monitor.Record) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(rec)
}
