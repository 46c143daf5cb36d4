package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"smarthouse/internal/gpio"
	"smarthouse/internal/logger"
	"smarthouse/internal/models"
	"smarthouse/internal/notifier"
	"smarthouse/internal/registry"
	"smarthouse/internal/repository"
)

// ---- Test doubles ----

type deviceRepoStub struct {
	createResp *models.Device
	createErr  error

	switchCount int64
	switchErr   error
	switchCalls int
	lastSwitch  struct {
		deviceID string
		from, to bool
		userID   string
	}

	configureCount   int64
	configureChanged bool
	configureErr     error
	lastConfigure    repository.ConfigureParams

	deleteCount int64
	deleteErr   error
	deleted     []string
}

func (s *deviceRepoStub) Create(ctx context.Context, deviceName string, pinNumber int, roomID string, wattage float64) (*models.Device, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.createResp, nil
}

func (s *deviceRepoStub) Switch(ctx context.Context, deviceID string, fromStatus, toStatus bool, userID string, wattage float64) (int64, error) {
	s.switchCalls++
	s.lastSwitch.deviceID = deviceID
	s.lastSwitch.from = fromStatus
	s.lastSwitch.to = toStatus
	s.lastSwitch.userID = userID
	return s.switchCount, s.switchErr
}

func (s *deviceRepoStub) Configure(ctx context.Context, p repository.ConfigureParams) (int64, bool, error) {
	s.lastConfigure = p
	return s.configureCount, s.configureChanged, s.configureErr
}

func (s *deviceRepoStub) Delete(ctx context.Context, deviceID string) (int64, error) {
	s.deleted = append(s.deleted, deviceID)
	return s.deleteCount, s.deleteErr
}

func (s *deviceRepoStub) Scheduled(ctx context.Context) ([]models.Device, error) {
	return nil, nil
}

type logRepoStub struct {
	resp []models.DeviceControlLog
	err  error
}

func (s *logRepoStub) List(ctx context.Context, deviceID string, from, to time.Time) ([]models.DeviceControlLog, error) {
	return s.resp, s.err
}

type scheduleStub struct {
	scheduled []string
	removed   []string
}

func (s *scheduleStub) ScheduleDevice(d models.Device)        { s.scheduled = append(s.scheduled, d.DeviceID) }
func (s *scheduleStub) RemoveScheduledDevice(deviceID string) { s.removed = append(s.removed, deviceID) }
func (s *scheduleStub) Running() bool                         { return false }
func (s *scheduleStub) Stop()                                 {}

type recordingSession struct {
	sent [][]byte
}

func (s *recordingSession) Send(msg []byte) error {
	s.sent = append(s.sent, msg)
	return nil
}
func (s *recordingSession) Close() {}

func deviceFixture(t *testing.T) (*DeviceService, *deviceRepoStub, *scheduleStub, *registry.Registry, *gpio.SimDriver, *recordingSession) {
	t.Helper()
	driver := gpio.NewSimDriver()
	log := logger.Get(logger.ErrorLevel)
	reg := registry.New(driver, log)
	house := &models.House{
		HouseID: "house-1",
		Rooms: []models.Room{
			{RoomID: "room-1", HouseID: "house-1", Devices: []models.Device{
				{DeviceID: "dev-1", DeviceName: "Lamp", PinNumber: 17, RoomID: "room-1", Wattage: 60},
			}},
		},
	}
	if err := reg.Load(house); err != nil {
		t.Fatalf("Load(): %v", err)
	}

	repo := &deviceRepoStub{switchCount: 1, configureCount: 1, deleteCount: 1}
	schedule := &scheduleStub{}
	notif := notifier.New(log)
	session := &recordingSession{}
	notif.Connect(session)

	svc := NewDeviceService(repo, &logRepoStub{}, reg, notif, schedule, log)
	return svc, repo, schedule, reg, driver, session
}

var testActor = Actor{UserID: "user-1", UserName: "Alice"}

// ---- Switch ----

func TestDeviceSwitch_AppliesAndLogsActor(t *testing.T) {
	svc, repo, _, reg, driver, session := deviceFixture(t)

	updated, applied, err := svc.Switch(context.Background(), testActor, "dev-1", true)
	if err != nil {
		t.Fatalf("Switch(): %v", err)
	}
	if !applied || !updated.Status {
		t.Fatalf("expected applied transition, got applied=%v status=%v", applied, updated.Status)
	}
	if !driver.Level(17) {
		t.Fatalf("expected hardware on")
	}
	if repo.lastSwitch.userID != "user-1" || repo.lastSwitch.from || !repo.lastSwitch.to {
		t.Fatalf("unexpected persisted switch: %+v", repo.lastSwitch)
	}
	if d, _ := reg.GetDevice("dev-1"); !d.Status {
		t.Fatalf("registry record must carry the new status")
	}
	if len(session.sent) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(session.sent))
	}
}

func TestDeviceSwitch_NoOpSkipsLogAndBroadcast(t *testing.T) {
	svc, repo, _, _, _, session := deviceFixture(t)

	_, applied, err := svc.Switch(context.Background(), testActor, "dev-1", false)
	if err != nil {
		t.Fatalf("Switch(): %v", err)
	}
	if applied {
		t.Fatalf("matching status must not apply")
	}
	if repo.switchCalls != 0 {
		t.Fatalf("no-op must not hit the store")
	}
	if len(session.sent) != 0 {
		t.Fatalf("no-op must not broadcast")
	}
}

func TestDeviceSwitch_UnknownDevice(t *testing.T) {
	svc, _, _, _, _, _ := deviceFixture(t)
	_, _, err := svc.Switch(context.Background(), testActor, "ghost", true)
	if !errors.Is(err, registry.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

// ---- Add ----

func TestDeviceAdd_CompensatesStoreOnBindFailure(t *testing.T) {
	svc, repo, _, _, _, _ := deviceFixture(t)
	// Pin 17 is already bound, so the registry rejects the new device.
	repo.createResp = &models.Device{DeviceID: "dev-2", DeviceName: "Fan", PinNumber: 17, RoomID: "room-1"}

	_, err := svc.Add(context.Background(), testActor, "room-1", "Fan", 17, 45)
	if !errors.Is(err, registry.ErrPinConflict) {
		t.Fatalf("expected ErrPinConflict, got %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "dev-2" {
		t.Fatalf("expected compensating delete of dev-2, got %v", repo.deleted)
	}
}

func TestDeviceAdd_BindsAndBroadcasts(t *testing.T) {
	svc, repo, _, reg, _, session := deviceFixture(t)
	repo.createResp = &models.Device{DeviceID: "dev-2", DeviceName: "Fan", PinNumber: 22, RoomID: "room-1"}

	d, err := svc.Add(context.Background(), testActor, "room-1", "Fan", 22, 45)
	if err != nil {
		t.Fatalf("Add(): %v", err)
	}
	if d.DeviceID != "dev-2" {
		t.Fatalf("unexpected device: %+v", d)
	}
	if _, ok := reg.GetDevice("dev-2"); !ok {
		t.Fatalf("device must be live in the registry")
	}
	if len(session.sent) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(session.sent))
	}
}

// ---- Configure ----

func TestDeviceConfigure_ScheduledRecomputesStatus(t *testing.T) {
	svc, repo, schedule, reg, _, _ := deviceFixture(t)
	svc.now = func() time.Time { return time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC) } // Wednesday
	repo.configureChanged = true

	updated, statusChanged, err := svc.Configure(context.Background(), testActor, ConfigureDeviceParams{
		DeviceID:      "dev-1",
		DeviceName:    "Lamp",
		PinNumber:     17,
		Status:        false, // ignored: schedule wins
		IsScheduled:   true,
		DaysScheduled: "Mon,Wed,Fri",
		StartTime:     "08:00",
		OffTime:       "17:00",
		Wattage:       60,
	})
	if err != nil {
		t.Fatalf("Configure(): %v", err)
	}
	if !updated.Status || !statusChanged {
		t.Fatalf("expected on inside the window, got status=%v changed=%v", updated.Status, statusChanged)
	}
	if !repo.lastConfigure.Status {
		t.Fatalf("recomputed status must reach the store")
	}
	if len(schedule.scheduled) != 1 || schedule.scheduled[0] != "dev-1" {
		t.Fatalf("device must enter the evaluator working set, got %v", schedule.scheduled)
	}
	if d, _ := reg.GetDevice("dev-1"); !d.IsScheduled {
		t.Fatalf("registry record must carry the schedule fields")
	}
}

func TestDeviceConfigure_DayNotScheduledStaysOff(t *testing.T) {
	svc, repo, _, _, _, _ := deviceFixture(t)
	svc.now = func() time.Time { return time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC) } // Wednesday

	updated, _, err := svc.Configure(context.Background(), testActor, ConfigureDeviceParams{
		DeviceID:      "dev-1",
		DeviceName:    "Lamp",
		PinNumber:     17,
		IsScheduled:   true,
		DaysScheduled: "Tue,Thu",
		StartTime:     "08:00",
		OffTime:       "17:00",
	})
	if err != nil {
		t.Fatalf("Configure(): %v", err)
	}
	if updated.Status || repo.lastConfigure.Status {
		t.Fatalf("an off-day device must land off")
	}
}

func TestDeviceConfigure_MalformedTimeRejected(t *testing.T) {
	svc, _, _, _, _, _ := deviceFixture(t)

	_, _, err := svc.Configure(context.Background(), testActor, ConfigureDeviceParams{
		DeviceID:    "dev-1",
		DeviceName:  "Lamp",
		PinNumber:   17,
		IsScheduled: true,
		StartTime:   "8am",
		OffTime:     "17:00",
	})
	if !errors.Is(err, ErrMalformedTime) {
		t.Fatalf("expected ErrMalformedTime, got %v", err)
	}
}

func TestDeviceConfigure_UnschedulingClearsFieldsAndWorkingSet(t *testing.T) {
	svc, _, schedule, reg, _, _ := deviceFixture(t)

	updated, _, err := svc.Configure(context.Background(), testActor, ConfigureDeviceParams{
		DeviceID:      "dev-1",
		DeviceName:    "Lamp",
		PinNumber:     17,
		IsScheduled:   false,
		DaysScheduled: "Mon",
		StartTime:     "08:00",
		OffTime:       "17:00",
	})
	if err != nil {
		t.Fatalf("Configure(): %v", err)
	}
	if updated.DaysScheduled != "" || updated.StartTime != "" || updated.OffTime != "" {
		t.Fatalf("schedule fields must be cleared: %+v", updated)
	}
	if len(schedule.removed) != 1 || schedule.removed[0] != "dev-1" {
		t.Fatalf("device must leave the working set, got %v", schedule.removed)
	}
	if d, _ := reg.GetDevice("dev-1"); d.IsScheduled {
		t.Fatalf("registry record must be unscheduled")
	}
}

func TestDeviceConfigure_UnknownDevice(t *testing.T) {
	svc, _, _, _, _, _ := deviceFixture(t)
	_, _, err := svc.Configure(context.Background(), testActor, ConfigureDeviceParams{DeviceID: "ghost"})
	if !errors.Is(err, registry.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

// ---- Remove ----

func TestDeviceRemove_UnknownID(t *testing.T) {
	svc, repo, _, _, _, _ := deviceFixture(t)
	repo.deleteCount = 0

	err := svc.Remove(context.Background(), testActor, "room-1", "ghost")
	if !errors.Is(err, registry.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestDeviceRemove_ReleasesAndDropsFromWorkingSet(t *testing.T) {
	svc, _, schedule, reg, driver, session := deviceFixture(t)

	if err := svc.Remove(context.Background(), testActor, "room-1", "dev-1"); err != nil {
		t.Fatalf("Remove(): %v", err)
	}
	if _, ok := reg.GetDevice("dev-1"); ok {
		t.Fatalf("device must be gone from the registry")
	}
	if driver.Level(17) {
		t.Fatalf("released output must be low")
	}
	if len(schedule.removed) != 1 {
		t.Fatalf("device must leave the working set")
	}
	if len(session.sent) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(session.sent))
	}
}

// ---- Pins ----

func TestAvailablePins_FiltersBoundGPIO(t *testing.T) {
	svc, _, _, _, _, _ := deviceFixture(t)

	pins := svc.AvailablePins()
	if len(pins) != len(gpio.HeaderPins)-1 { // pin 17 is bound
		t.Fatalf("expected %d pins, got %d", len(gpio.HeaderPins)-1, len(pins))
	}
	for _, hp := range pins {
		if hp.Type == gpio.PinTypeGPIO && hp.GPIONumber == 17 {
			t.Fatalf("bound pin 17 must be filtered out")
		}
	}
}
