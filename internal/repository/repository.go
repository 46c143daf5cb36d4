package repository

import (
	"context"
	"database/sql"
	"time"

	"smarthouse/internal/models"
)

// HouseRepo loads and bootstraps the single house aggregate.
type HouseRepo interface {
	// Get returns the house with its full room/device tree, or (nil, nil)
	// when the house has not been initialized yet.
	Get(ctx context.Context) (*models.House, error)
	Init(ctx context.Context, houseName, passwordHash string) (*models.House, error)
}

// MemberRepo manages the users granted access to the house.
type MemberRepo interface {
	Get(ctx context.Context, userID string) (*models.HouseMember, error)
	Upsert(ctx context.Context, houseID, userID string) error
	Delete(ctx context.Context, userID string) (int64, error)
}

// RoomRepo persists room records.
type RoomRepo interface {
	Create(ctx context.Context, roomName, houseID string) (*models.Room, error)
	Delete(ctx context.Context, roomID string) (int64, error)
}

// ConfigureParams carries the full device reconfiguration payload.
type ConfigureParams struct {
	DeviceID      string
	DeviceName    string
	PinNumber     int
	Status        bool // desired status; recomputed by the caller when scheduled
	IsDefault     bool
	IsScheduled   bool
	DaysScheduled string
	StartTime     string
	OffTime       string
	Wattage       float64
	UserID        string
}

// DeviceRepo persists device records and their control log. Switch and
// Configure update the row and append the log entry in a single
// transaction, so a transition is one logical update.
type DeviceRepo interface {
	Create(ctx context.Context, deviceName string, pinNumber int, roomID string, wattage float64) (*models.Device, error)
	// Switch flips the persisted status and appends a control-log entry.
	// Returns the number of device rows updated (0 when the id is unknown).
	Switch(ctx context.Context, deviceID string, fromStatus, toStatus bool, userID string, wattage float64) (int64, error)
	// Configure rewrites the device row; a control-log entry is appended
	// only when the stored status actually changed. statusChanged reports
	// whether it did.
	Configure(ctx context.Context, p ConfigureParams) (count int64, statusChanged bool, err error)
	Delete(ctx context.Context, deviceID string) (int64, error)
	Scheduled(ctx context.Context) ([]models.Device, error)
}

// LogRepo reads the append-only control log.
type LogRepo interface {
	List(ctx context.Context, deviceID string, from, to time.Time) ([]models.DeviceControlLog, error)
}

type Repository struct {
	House   HouseRepo
	Members MemberRepo
	Rooms   RoomRepo
	Devices DeviceRepo
	Logs    LogRepo
}

func NewRepository(conn *sql.DB) *Repository {
	return &Repository{
		House:   NewHouseSQLite(conn),
		Members: NewMemberSQLite(conn),
		Rooms:   NewRoomSQLite(conn),
		Devices: NewDeviceSQLite(conn),
		Logs:    NewLogSQLite(conn),
	}
}
