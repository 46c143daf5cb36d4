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

type DeviceSQLite struct {
	conn *sql.DB
}

func NewDeviceSQLite(conn *sql.DB) *DeviceSQLite { return &DeviceSQLite{conn: conn} }

var _ DeviceRepo = (*DeviceSQLite)(nil)

const (
	insertDeviceSQL = `
		INSERT INTO devices (device_id, device_name, pin_number, status, is_default, room_id,
		                     is_scheduled, wattage, created_at, updated_at)
		VALUES (?, ?, ?, 0, 0, ?, 0, ?, ?, ?)
	`
	updateDeviceStatusSQL = `UPDATE devices SET status = ?, updated_at = ? WHERE device_id = ?`
	insertControlLogSQL   = `
		INSERT INTO device_control_logs (device_control_log_id, device_id, user_id,
		                                 status_changed_from, status_changed_to, device_wattage, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	selectDeviceStatusSQL = `SELECT status FROM devices WHERE device_id = ?`
	configureDeviceSQL    = `
		UPDATE devices SET device_name = ?, pin_number = ?, status = ?, is_default = ?,
		                   is_scheduled = ?, days_scheduled = ?, start_time = ?, off_time = ?,
		                   scheduled_by = ?, wattage = ?, updated_at = ?
		WHERE device_id = ?
	`
	clearRoomDefaultsSQL = `
		UPDATE devices SET is_default = 0, updated_at = ?
		WHERE room_id = (SELECT room_id FROM devices WHERE device_id = ?) AND device_id != ?
	`
	deleteDeviceSQL           = `DELETE FROM devices WHERE device_id = ?`
	selectScheduledDevicesSQL = `
		SELECT device_id, device_name, pin_number, status, is_default, room_id,
		       is_scheduled, days_scheduled, start_time, off_time, scheduled_by, wattage,
		       created_at, updated_at
		FROM devices WHERE is_scheduled = 1 ORDER BY created_at ASC
	`
)

// Create inserts a new device, off and unscheduled.
func (r *DeviceSQLite) Create(ctx context.Context, deviceName string, pinNumber int, roomID string, wattage float64) (*models.Device, error) {
	now := time.Now().UTC()
	d := models.Device{
		DeviceID:   uuid.NewString(),
		DeviceName: deviceName,
		PinNumber:  pinNumber,
		RoomID:     roomID,
		Wattage:    wattage,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := r.conn.ExecContext(ctx, insertDeviceSQL,
		d.DeviceID, d.DeviceName, d.PinNumber, d.RoomID, d.Wattage, d.CreatedAt, d.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert device %q: %w", deviceName, err)
	}
	return &d, nil
}

// Switch flips the stored status and appends the control-log entry in one
// transaction, so the log order always matches the status order.
func (r *DeviceSQLite) Switch(ctx context.Context, deviceID string, fromStatus, toStatus bool, userID string, wattage float64) (int64, error) {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin switch tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, updateDeviceStatusSQL, toStatus, now, deviceID)
	if err != nil {
		return 0, fmt.Errorf("update device status %q: %w", deviceID, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("switch rows affected: %w", err)
	}

	if count > 0 {
		if _, err := tx.ExecContext(ctx, insertControlLogSQL,
			uuid.NewString(), deviceID, userID, fromStatus, toStatus, wattage, now,
		); err != nil {
			return 0, fmt.Errorf("insert control log %q: %w", deviceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit switch tx: %w", err)
	}
	return count, nil
}

// Configure rewrites the device row. The control-log entry is appended only
// when the stored status actually changed, and is_default = true clears the
// flag on the room's other devices inside the same transaction.
func (r *DeviceSQLite) Configure(ctx context.Context, p ConfigureParams) (int64, bool, error) {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin configure tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var oldStatus bool
	if err := tx.QueryRowContext(ctx, selectDeviceStatusSQL, p.DeviceID).Scan(&oldStatus); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil // unknown device: zero rows, no failure
		}
		return 0, false, fmt.Errorf("select device status %q: %w", p.DeviceID, err)
	}

	// Schedule fields are stored only while scheduling is enabled.
	days, start, off := p.DaysScheduled, p.StartTime, p.OffTime
	if !p.IsScheduled {
		days, start, off = "", "", ""
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, configureDeviceSQL,
		p.DeviceName, p.PinNumber, p.Status, p.IsDefault,
		p.IsScheduled, days, start, off,
		p.UserID, p.Wattage, now, p.DeviceID,
	)
	if err != nil {
		return 0, false, fmt.Errorf("configure device %q: %w", p.DeviceID, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("configure rows affected: %w", err)
	}

	if p.IsDefault {
		if _, err := tx.ExecContext(ctx, clearRoomDefaultsSQL, now, p.DeviceID, p.DeviceID); err != nil {
			return 0, false, fmt.Errorf("clear room defaults %q: %w", p.DeviceID, err)
		}
	}

	statusChanged := count > 0 && oldStatus != p.Status
	if statusChanged {
		if _, err := tx.ExecContext(ctx, insertControlLogSQL,
			uuid.NewString(), p.DeviceID, p.UserID, oldStatus, p.Status, p.Wattage, now,
		); err != nil {
			return 0, false, fmt.Errorf("insert control log %q: %w", p.DeviceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit configure tx: %w", err)
	}
	return count, statusChanged, nil
}

// Delete removes the device row. Its control-log entries stay: the log is
// append-only and feeds energy reports after the device is gone.
func (r *DeviceSQLite) Delete(ctx context.Context, deviceID string) (int64, error) {
	res, err := r.conn.ExecContext(ctx, deleteDeviceSQL, deviceID)
	if err != nil {
		return 0, fmt.Errorf("delete device %q: %w", deviceID, err)
	}
	return res.RowsAffected()
}

// Scheduled returns all devices with is_scheduled set.
func (r *DeviceSQLite) Scheduled(ctx context.Context) ([]models.Device, error) {
	rows, err := r.conn.QueryContext(ctx, selectScheduledDevicesSQL)
	if err != nil {
		return nil, fmt.Errorf("select scheduled devices: %w", err)
	}
	defer rows.Close()

	out := make([]models.Device, 0, 16)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheduled devices: %w", err)
	}
	return out, nil
}
