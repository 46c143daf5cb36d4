package notifier

import (
	"encoding/json"
	"sync"

	"smarthouse/internal/logger"
)

// Event kinds carried in broadcast payloads.
const (
	EventAddRoom         = "ADD_ROOM"
	EventRemoveRoom      = "REMOVE_ROOM"
	EventAddDevice       = "ADD_DEVICE"
	EventRemoveDevice    = "REMOVE_DEVICE"
	EventSwitchDevice    = "SWITCH_DEVICE"
	EventScheduledSwitch = "SCHEDULED_SWITCH_DEVICE"
	EventConfigureDevice = "CONFIGURE_DEVICE"
	EventUserLeft        = "USER_LEFT"
)

// Payload is the wire shape of one broadcast message.
type Payload struct {
	Event   string `json:"event"`
	UserID  string `json:"user_id"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Session is one connected observer. Send must be safe to call from the
// broadcasting goroutine; a failed send marks the session dead.
type Session interface {
	Send(msg []byte) error
	Close()
}

// Notifier fans state-change events out to every connected session.
// Delivery is best-effort: a session that fails to accept a message is
// dropped without affecting the others.
type Notifier struct {
	mu       sync.RWMutex
	sessions map[Session]struct{}
	log      *logger.Logger
}

func New(log *logger.Logger) *Notifier {
	return &Notifier{
		sessions: make(map[Session]struct{}),
		log:      log,
	}
}

// Connect registers a session for future broadcasts.
func (n *Notifier) Connect(s Session) {
	n.mu.Lock()
	n.sessions[s] = struct{}{}
	n.mu.Unlock()
	n.log.Infow("session_connected", "sessions", n.SessionCount())
}

// Disconnect deregisters a session; disconnecting twice is a no-op.
func (n *Notifier) Disconnect(s Session) {
	n.mu.Lock()
	_, existed := n.sessions[s]
	delete(n.sessions, s)
	n.mu.Unlock()
	if existed {
		s.Close()
		n.log.Infow("session_disconnected", "sessions", n.SessionCount())
	}
}

// Broadcast delivers the payload to every registered session. Sessions that
// fail mid-send are removed.
func (n *Notifier) Broadcast(p Payload) {
	msg, err := json.Marshal(p)
	if err != nil {
		n.log.Errorw("broadcast_marshal_failed", "event", p.Event, "err", err)
		return
	}

	n.mu.RLock()
	targets := make([]Session, 0, len(n.sessions))
	for s := range n.sessions {
		targets = append(targets, s)
	}
	n.mu.RUnlock()

	for _, s := range targets {
		if err := s.Send(msg); err != nil {
			n.log.Infow("broadcast_send_failed", "event", p.Event, "err", err)
			n.Disconnect(s)
		}
	}
}

// SessionCount reports the number of connected sessions.
func (n *Notifier) SessionCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.sessions)
}

// CloseAll disconnects every session, used at shutdown.
func (n *Notifier) CloseAll() {
	n.mu.Lock()
	sessions := n.sessions
	n.sessions = make(map[Session]struct{})
	n.mu.Unlock()
	for s := range sessions {
		s.Close()
	}
}
