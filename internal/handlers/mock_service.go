package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smarthouse/internal/gpio"
	"smarthouse/internal/models"
	"smarthouse/internal/service"
)

// ---- Service Mocks ----

type mockHouse struct {
	loginToken string
	loginHouse models.House
	loginErr   error
	parseID    string
	parseErr   error
	snapshot   models.House
	member     *models.HouseMember
	memberErr  error
	removed    int64
	removeErr  error

	lastLoginUserID   string
	lastLoginPassword string
}

func (m *mockHouse) Bootstrap(ctx context.Context, houseName, password string) (*models.House, error) {
	return &m.loginHouse, nil
}

func (m *mockHouse) Login(ctx context.Context, userID, password string) (string, models.House, error) {
	m.lastLoginUserID = userID
	m.lastLoginPassword = password
	return m.loginToken, m.loginHouse, m.loginErr
}

func (m *mockHouse) ParseToken(accessToken string) (string, error) {
	return m.parseID, m.parseErr
}

func (m *mockHouse) Snapshot() models.House { return m.snapshot }

func (m *mockHouse) GetMember(ctx context.Context, userID string) (*models.HouseMember, error) {
	return m.member, m.memberErr
}

func (m *mockHouse) RemoveMember(ctx context.Context, userID string) (int64, error) {
	return m.removed, m.removeErr
}

type mockRooms struct {
	addResp   models.Room
	addErr    error
	removeErr error

	lastActor    service.Actor
	lastRoomName string
	lastRoomID   string
}

func (m *mockRooms) Add(ctx context.Context, actor service.Actor, roomName string) (models.Room, error) {
	m.lastActor = actor
	m.lastRoomName = roomName
	return m.addResp, m.addErr
}

func (m *mockRooms) Remove(ctx context.Context, actor service.Actor, roomID string) error {
	m.lastActor = actor
	m.lastRoomID = roomID
	return m.removeErr
}

type mockDevices struct {
	addResp       models.Device
	addErr        error
	switchResp    models.Device
	switchApplied bool
	switchErr     error
	confResp      models.Device
	confChanged   bool
	confErr       error
	removeErr     error
	pins          []gpio.HeaderPin
	logsResp      []models.DeviceControlLog
	logsErr       error

	lastActor     service.Actor
	lastDeviceID  string
	lastSwitchTo  bool
	lastConfigure service.ConfigureDeviceParams
	lastLogsFrom  time.Time
	lastLogsTo    time.Time
}

func (m *mockDevices) Add(ctx context.Context, actor service.Actor, roomID, deviceName string, pinNumber int, wattage float64) (models.Device, error) {
	m.lastActor = actor
	return m.addResp, m.addErr
}

func (m *mockDevices) Switch(ctx context.Context, actor service.Actor, deviceID string, toStatus bool) (models.Device, bool, error) {
	m.lastActor = actor
	m.lastDeviceID = deviceID
	m.lastSwitchTo = toStatus
	return m.switchResp, m.switchApplied, m.switchErr
}

func (m *mockDevices) Configure(ctx context.Context, actor service.Actor, p service.ConfigureDeviceParams) (models.Device, bool, error) {
	m.lastActor = actor
	m.lastConfigure = p
	return m.confResp, m.confChanged, m.confErr
}

func (m *mockDevices) Remove(ctx context.Context, actor service.Actor, roomID, deviceID string) error {
	m.lastActor = actor
	m.lastDeviceID = deviceID
	return m.removeErr
}

func (m *mockDevices) AvailablePins() []gpio.HeaderPin { return m.pins }

func (m *mockDevices) Logs(ctx context.Context, deviceID string, from, to time.Time) ([]models.DeviceControlLog, error) {
	m.lastDeviceID = deviceID
	m.lastLogsFrom = from
	m.lastLogsTo = to
	return m.logsResp, m.logsErr
}

type mockSchedule struct{}

func (m *mockSchedule) ScheduleDevice(d models.Device)        {}
func (m *mockSchedule) RemoveScheduledDevice(deviceID string) {}
func (m *mockSchedule) Running() bool                         { return false }
func (m *mockSchedule) Stop()                                 {}

type mockEnergy struct {
	resp service.EnergyReport
	err  error

	lastDeviceID string
	lastFrom     time.Time
	lastTo       time.Time
}

func (m *mockEnergy) Report(ctx context.Context, deviceID string, from, to time.Time) (service.EnergyReport, error) {
	m.lastDeviceID = deviceID
	m.lastFrom = from
	m.lastTo = to
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
