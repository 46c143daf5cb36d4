package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"smarthouse/internal/models"
)

type HouseSQLite struct {
	conn *sql.DB
}

func NewHouseSQLite(conn *sql.DB) *HouseSQLite { return &HouseSQLite{conn: conn} }

var _ HouseRepo = (*HouseSQLite)(nil)

const (
	selectHouseSQL = `SELECT house_id, house_name, password_hash, created_at, updated_at FROM houses LIMIT 1`
	insertHouseSQL = `INSERT INTO houses (house_id, house_name, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`

	selectRoomsSQL = `
		SELECT room_id, room_name, house_id, created_at, updated_at
		FROM rooms WHERE house_id = ? ORDER BY created_at ASC
	`
	selectDevicesSQL = `
		SELECT device_id, device_name, pin_number, status, is_default, room_id,
		       is_scheduled, days_scheduled, start_time, off_time, scheduled_by, wattage,
		       created_at, updated_at
		FROM devices WHERE room_id = ? ORDER BY created_at ASC
	`
)

// Get loads the house snapshot with its full room/device tree.
// Returns (nil, nil) when no house row exists yet.
func (r *HouseSQLite) Get(ctx context.Context) (*models.House, error) {
	var h models.House
	row := r.conn.QueryRowContext(ctx, selectHouseSQL)
	if err := row.Scan(&h.HouseID, &h.HouseName, &h.PasswordHash, &h.CreatedAt, &h.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not initialized yet
		}
		return nil, fmt.Errorf("select house: %w", err)
	}

	rooms, err := r.loadRooms(ctx, h.HouseID)
	if err != nil {
		return nil, err
	}
	h.Rooms = rooms
	return &h, nil
}

// Init creates the single house row. Called once at first boot.
func (r *HouseSQLite) Init(ctx context.Context, houseName, passwordHash string) (*models.House, error) {
	now := time.Now().UTC()
	h := models.House{
		HouseID:      uuid.NewString(),
		HouseName:    houseName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.conn.ExecContext(ctx, insertHouseSQL,
		h.HouseID, h.HouseName, h.PasswordHash, h.CreatedAt, h.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert house: %w", err)
	}
	return &h, nil
}

func (r *HouseSQLite) loadRooms(ctx context.Context, houseID string) ([]models.Room, error) {
	rows, err := r.conn.QueryContext(ctx, selectRoomsSQL, houseID)
	if err != nil {
		return nil, fmt.Errorf("select rooms: %w", err)
	}
	defer rows.Close()

	out := make([]models.Room, 0, 8)
	for rows.Next() {
		var rm models.Room
		if err := rows.Scan(&rm.RoomID, &rm.RoomName, &rm.HouseID, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}

	for i := range out {
		devices, err := r.loadDevices(ctx, out[i].RoomID)
		if err != nil {
			return nil, err
		}
		out[i].Devices = devices
	}
	return out, nil
}

func (r *HouseSQLite) loadDevices(ctx context.Context, roomID string) ([]models.Device, error) {
	rows, err := r.conn.QueryContext(ctx, selectDevicesSQL, roomID)
	if err != nil {
		return nil, fmt.Errorf("select devices: %w", err)
	}
	defer rows.Close()

	out := make([]models.Device, 0, 8)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}
	return out, nil
}

// scanDevice reads one device row, normalizing nullable schedule columns
// to empty strings.
func scanDevice(rows *sql.Rows) (models.Device, error) {
	var (
		d             models.Device
		daysScheduled sql.NullString
		startTime     sql.NullString
		offTime       sql.NullString
		scheduledBy   sql.NullString
	)
	if err := rows.Scan(
		&d.DeviceID, &d.DeviceName, &d.PinNumber, &d.Status, &d.IsDefault, &d.RoomID,
		&d.IsScheduled, &daysScheduled, &startTime, &offTime, &scheduledBy, &d.Wattage,
		&d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return models.Device{}, fmt.Errorf("scan device: %w", err)
	}
	d.DaysScheduled = daysScheduled.String
	d.StartTime = startTime.String
	d.OffTime = offTime.String
	d.ScheduledBy = scheduledBy.String
	return d, nil
}
