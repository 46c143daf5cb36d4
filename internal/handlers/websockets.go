package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"smarthouse/internal/notifier"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Observers connect from the local network app, not a browser origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Connect observer
// @Description  Upgrades to a websocket session that receives every state-change broadcast.
// @Tags         websocket
// @Param        userID  path  string  true  "User id"
// @Success      101  "Switching Protocols"
// @Router       /ws/{userID} [get]
func (h *Handler) wsConnect(c *gin.Context) {
	userID := c.Param("userID")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "user_id", userID, "err", err)
		return
	}

	session := notifier.NewWSSession(conn, userID)
	h.services.Notifier().Connect(session)

	go h.wsKeepAlive(session)
	go h.wsReadLoop(conn, session, userID)
}

// wsKeepAlive pings the peer so half-open connections are detected between
// broadcasts. A failed ping tears the session down.
func (h *Handler) wsKeepAlive(session *notifier.WSSession) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		if err := session.Ping(); err != nil {
			h.services.Notifier().Disconnect(session)
			return
		}
	}
}

// wsReadLoop drains inbound frames. Observers never send application
// messages; the loop exists to process control frames and notice closure.
func (h *Handler) wsReadLoop(conn *websocket.Conn, session *notifier.WSSession, userID string) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.services.Notifier().Disconnect(session)
	h.services.Notifier().Broadcast(notifier.Payload{
		Event:   notifier.EventUserLeft,
		UserID:  userID,
		Message: "A user disconnected.",
		Data:    gin.H{"userId": userID},
	})
	h.log.Infow("ws_session_closed", "user_id", userID)
}
