package v1

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/copaslink/copas/internal/domain"
	"github.com/copaslink/copas/internal/hub"
)

const (
	wsWriteTimeout   = 10 * time.Second
	wsReadTimeout    = 60 * time.Second
	wsPingInterval   = 30 * time.Second
	wsMaxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The share link itself is the credential; viewers may come from
		// any origin.
		return true
	},
}

// AttachViewer upgrades the request to a websocket and streams update
// events for one clipboard until the client disconnects. Viewers only
// listen; all mutations go through the JSON API.
// GET /v1/clipboards/:id/ws
func (h *Handler) AttachViewer(c echo.Context) error {
	id := c.Param("id")
	if !domain.ValidID(id) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "clipboard not found"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	conn := h.hub.NewConnection(ws, id)
	h.hub.Register(conn)

	ws.SetReadLimit(wsMaxMessageSize)

	go h.writePump(conn)
	go h.readPump(conn)

	return nil
}

// readPump drains the connection so control frames are processed and
// disconnects are noticed.
func (h *Handler) readPump(conn *hub.Connection) {
	defer func() {
		h.hub.Unregister(conn)
		conn.Close()
	}()

	conn.Conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump forwards hub events to the connection and keeps it alive with
// pings.
func (h *Handler) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				// Hub closed the channel.
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
