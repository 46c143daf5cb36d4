package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"smarthouse/internal/models"
)

type LogSQLite struct {
	conn *sql.DB
}

func NewLogSQLite(conn *sql.DB) *LogSQLite { return &LogSQLite{conn: conn} }

var _ LogRepo = (*LogSQLite)(nil)

// List returns control-log entries filtered by device and/or [from, to]
// (inclusive), ordered ASC. Empty deviceID / zero times mean no filter.
func (r *LogSQLite) List(ctx context.Context, deviceID string, from, to time.Time) ([]models.DeviceControlLog, error) {
	var (
		conds []string
		args  []any
	)

	if deviceID != "" {
		conds = append(conds, "device_id = ?")
		args = append(args, deviceID)
	}
	if !from.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, to.UTC())
	}

	q := `SELECT device_control_log_id, device_id, user_id, status_changed_from, status_changed_to, device_wattage, created_at FROM device_control_logs`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at ASC"

	rows, err := r.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select control logs: %w", err)
	}
	defer rows.Close()

	out := make([]models.DeviceControlLog, 0, 64)
	for rows.Next() {
		var entry models.DeviceControlLog
		if err := rows.Scan(
			&entry.LogID, &entry.DeviceID, &entry.UserID,
			&entry.StatusChangedFrom, &entry.StatusChangedTo, &entry.DeviceWattage,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan control log: %w", err)
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate control logs: %w", err)
	}
	return out, nil
}
