package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"juntas/internal/logs/models"
	audit "juntas/pkg/platform/audit"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = pongWait * 9 / 10
	backlogSize = 50
	// Clients never send payloads; control frames are small.
	maxClientMessage = 512
)

// handleStream upgrades to a websocket, replays the recent backlog oldest
// first and then forwards live events until the client goes away.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request.
		h.logger.WarnContext(ctx, "logs websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub, backlog := h.hub.SubscribeWithBacklog(h.buffer, backlogSize)
	defer sub.Close()

	closed := make(chan struct{})
	go readPump(conn, closed)

	for i := len(backlog) - 1; i >= 0; i-- {
		if err := writeEvent(conn, "backlog", backlog[i]); err != nil {
			return
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	var reported int64
	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			if dropped := sub.Dropped(); dropped > reported {
				if err := writeFrame(conn, models.Frame{Type: "dropped", Dropped: dropped - reported}); err != nil {
					return
				}
				reported = dropped
			}
			if err := writeEvent(conn, "event", e); err != nil {
				h.logger.DebugContext(ctx, "logs websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames are processed.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(maxClientMessage)
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

func writeEvent(conn *websocket.Conn, kind string, e audit.Event) error {
	entry := models.FromEvent(e)
	return writeFrame(conn, models.Frame{Type: kind, Entry: &entry})
}

func writeFrame(conn *websocket.Conn, f models.Frame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(f)
}
