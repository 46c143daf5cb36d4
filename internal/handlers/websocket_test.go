package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"smarthouse/internal/gpio"
	"smarthouse/internal/logger"
	"smarthouse/internal/models"
	"smarthouse/internal/notifier"
	"smarthouse/internal/registry"
	"smarthouse/internal/repository"
	"smarthouse/internal/service"
)

// ---- Minimal repo stubs: the websocket path never touches the store ----

type wsHouseRepo struct{}

func (wsHouseRepo) Get(ctx context.Context) (*models.House, error) { return nil, nil }
func (wsHouseRepo) Init(ctx context.Context, houseName, passwordHash string) (*models.House, error) {
	return nil, nil
}

type wsMemberRepo struct{}

func (wsMemberRepo) Get(ctx context.Context, userID string) (*models.HouseMember, error) {
	return nil, nil
}
func (wsMemberRepo) Upsert(ctx context.Context, houseID, userID string) error { return nil }
func (wsMemberRepo) Delete(ctx context.Context, userID string) (int64, error) { return 0, nil }

type wsRoomRepo struct{}

func (wsRoomRepo) Create(ctx context.Context, roomName, houseID string) (*models.Room, error) {
	return nil, nil
}
func (wsRoomRepo) Delete(ctx context.Context, roomID string) (int64, error) { return 0, nil }

type wsDeviceRepo struct{}

func (wsDeviceRepo) Create(ctx context.Context, deviceName string, pinNumber int, roomID string, wattage float64) (*models.Device, error) {
	return nil, nil
}
func (wsDeviceRepo) Switch(ctx context.Context, deviceID string, fromStatus, toStatus bool, userID string, wattage float64) (int64, error) {
	return 0, nil
}
func (wsDeviceRepo) Configure(ctx context.Context, p repository.ConfigureParams) (int64, bool, error) {
	return 0, false, nil
}
func (wsDeviceRepo) Delete(ctx context.Context, deviceID string) (int64, error) { return 0, nil }
func (wsDeviceRepo) Scheduled(ctx context.Context) ([]models.Device, error)     { return nil, nil }

type wsLogRepo struct{}

func (wsLogRepo) List(ctx context.Context, deviceID string, from, to time.Time) ([]models.DeviceControlLog, error) {
	return nil, nil
}

func wsTestServer(t *testing.T) (*httptest.Server, *service.Service) {
	t.Helper()
	log := logger.Get(logger.ErrorLevel)
	reg := registry.New(gpio.NewSimDriver(), log)
	notif := notifier.New(log)
	repos := &repository.Repository{
		House:   wsHouseRepo{},
		Members: wsMemberRepo{},
		Rooms:   wsRoomRepo{},
		Devices: wsDeviceRepo{},
		Logs:    wsLogRepo{},
	}
	s := service.NewService(repos, reg, notif, "test-key", time.Hour, log)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, log)
	r.GET("/ws/:userID", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	t.Cleanup(s.Schedule.Stop)
	return srv, s
}

func dialWS(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	u.Scheme = "ws"
	u.Path = "/ws/" + userID

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForSessions(t *testing.T, n *notifier.Notifier, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for n.SessionCount() != want && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n.SessionCount() != want {
		t.Fatalf("session count = %d, want %d", n.SessionCount(), want)
	}
}

func TestWebSocket_ReceivesBroadcast(t *testing.T) {
	srv, s := wsTestServer(t)

	conn := dialWS(t, srv, "user-1")
	waitForSessions(t, s.Notifier(), 1)

	s.Notifier().Broadcast(notifier.Payload{
		Event:   notifier.EventSwitchDevice,
		UserID:  "user-2",
		Message: "Bob turned on Lamp.",
		Data:    map[string]any{"deviceId": "dev-1", "state": true},
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var p notifier.Payload
	if err := conn.ReadJSON(&p); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if p.Event != notifier.EventSwitchDevice || p.UserID != "user-2" {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

func TestWebSocket_PeerCloseBroadcastsUserLeft(t *testing.T) {
	srv, s := wsTestServer(t)

	leaver := dialWS(t, srv, "user-1")
	stayer := dialWS(t, srv, "user-2")
	waitForSessions(t, s.Notifier(), 2)

	if err := leaver.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	waitForSessions(t, s.Notifier(), 1)

	_ = stayer.SetReadDeadline(time.Now().Add(2 * time.Second))
	var p notifier.Payload
	if err := stayer.ReadJSON(&p); err != nil {
		t.Fatalf("read user-left: %v", err)
	}
	if p.Event != notifier.EventUserLeft || p.UserID != "user-1" {
		t.Fatalf("unexpected payload: %+v", p)
	}

	var data struct {
		UserID string `json:"userId"`
	}
	raw, err := json.Marshal(p.Data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.UserID != "user-1" {
		t.Fatalf("data userId = %q, want user-1", data.UserID)
	}
}
