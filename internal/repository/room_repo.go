package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"smarthouse/internal/models"
)

type RoomSQLite struct {
	conn *sql.DB
}

func NewRoomSQLite(conn *sql.DB) *RoomSQLite { return &RoomSQLite{conn: conn} }

var _ RoomRepo = (*RoomSQLite)(nil)

const (
	insertRoomSQL = `INSERT INTO rooms (room_id, room_name, house_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	deleteRoomSQL = `DELETE FROM rooms WHERE room_id = ?`
)

// Create inserts a new room and returns the persisted record.
func (r *RoomSQLite) Create(ctx context.Context, roomName, houseID string) (*models.Room, error) {
	now := time.Now().UTC()
	rm := models.Room{
		RoomID:    uuid.NewString(),
		RoomName:  roomName,
		HouseID:   houseID,
		Devices:   []models.Device{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.conn.ExecContext(ctx, insertRoomSQL,
		rm.RoomID, rm.RoomName, rm.HouseID, rm.CreatedAt, rm.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert room %q: %w", roomName, err)
	}
	return &rm, nil
}

// Delete removes the room; contained devices go with it (FK cascade).
// Returns the number of room rows deleted (0 when the id is unknown).
func (r *RoomSQLite) Delete(ctx context.Context, roomID string) (int64, error) {
	res, err := r.conn.ExecContext(ctx, deleteRoomSQL, roomID)
	if err != nil {
		return 0, fmt.Errorf("delete room %q: %w", roomID, err)
	}
	return res.RowsAffected()
}
