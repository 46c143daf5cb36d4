package notifier

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// WSSession adapts a gorilla websocket connection to the Session interface.
// Writes are serialized with a mutex because broadcasts and pings may race.
type WSSession struct {
	UserID string

	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func NewWSSession(conn *websocket.Conn, userID string) *WSSession {
	return &WSSession{conn: conn, UserID: userID}
}

func (s *WSSession) Send(msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, msg)
}

// Ping sends a control frame so dead peers are detected between broadcasts.
func (s *WSSession) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

func (s *WSSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.conn.Close()
}
