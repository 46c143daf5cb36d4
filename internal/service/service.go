package service

import (
	"context"
	"time"

	"smarthouse/internal/gpio"
	"smarthouse/internal/logger"
	"smarthouse/internal/models"
	"smarthouse/internal/notifier"
	"smarthouse/internal/registry"
	"smarthouse/internal/repository"
)

// House exposes house bootstrap, login and membership.
type House interface {
	Bootstrap(ctx context.Context, houseName, password string) (*models.House, error)
	Login(ctx context.Context, userID, password string) (string, models.House, error)
	ParseToken(accessToken string) (string, error)
	Snapshot() models.House
	GetMember(ctx context.Context, userID string) (*models.HouseMember, error)
	RemoveMember(ctx context.Context, userID string) (int64, error)
}

// Rooms exposes structural room operations.
type Rooms interface {
	Add(ctx context.Context, actor Actor, roomName string) (models.Room, error)
	Remove(ctx context.Context, actor Actor, roomID string) error
}

// Devices exposes device lifecycle, manual switching and log access.
type Devices interface {
	Add(ctx context.Context, actor Actor, roomID, deviceName string, pinNumber int, wattage float64) (models.Device, error)
	Switch(ctx context.Context, actor Actor, deviceID string, toStatus bool) (models.Device, bool, error)
	Configure(ctx context.Context, actor Actor, p ConfigureDeviceParams) (models.Device, bool, error)
	Remove(ctx context.Context, actor Actor, roomID, deviceID string) error
	AvailablePins() []gpio.HeaderPin
	Logs(ctx context.Context, deviceID string, from, to time.Time) ([]models.DeviceControlLog, error)
}

// Schedule is the evaluator that drives scheduled devices. Stop cancels the
// background loop and returns only after it has exited.
type Schedule interface {
	ScheduleDevice(d models.Device)
	RemoveScheduledDevice(deviceID string)
	Running() bool
	Stop()
}

// Energy turns control-log history into a consumption report.
type Energy interface {
	Report(ctx context.Context, deviceID string, from, to time.Time) (EnergyReport, error)
}

// Actor identifies the user behind a control-surface call.
type Actor struct {
	UserID   string
	UserName string
}

// ConfigureDeviceParams carries a full device reconfiguration.
type ConfigureDeviceParams struct {
	DeviceID      string
	DeviceName    string
	PinNumber     int
	Status        bool
	IsDefault     bool
	IsScheduled   bool
	DaysScheduled string
	StartTime     string
	OffTime       string
	Wattage       float64
}

// Service aggregates all sub-services.
type Service struct {
	House
	Rooms
	Devices
	Schedule
	Energy

	notif *notifier.Notifier
}

// Notifier exposes the broadcast hub so the transport layer can attach and
// detach observer sessions.
func (s *Service) Notifier() *notifier.Notifier {
	return s.notif
}

// NewService wires the repository layer, registry and notifier into the
// concrete services. The schedule evaluator is created first because room
// and device mutations feed its working set.
func NewService(repos *repository.Repository, reg *registry.Registry, notif *notifier.Notifier, signingKey string, tick time.Duration, log *logger.Logger) *Service {
	schedule := NewScheduleService(reg, repos.Devices, notif, tick, log)
	return &Service{
		House:    NewHouseService(repos.House, repos.Members, reg, signingKey, log),
		Rooms:    NewRoomService(repos.Rooms, repos.Devices, reg, notif, schedule, log),
		Devices:  NewDeviceService(repos.Devices, repos.Logs, reg, notif, schedule, log),
		Schedule: schedule,
		Energy:   NewEnergyService(repos.Logs),
		notif:    notif,
	}
}
