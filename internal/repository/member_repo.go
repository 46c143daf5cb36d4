package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smarthouse/internal/models"
)

type MemberSQLite struct {
	conn *sql.DB
}

func NewMemberSQLite(conn *sql.DB) *MemberSQLite { return &MemberSQLite{conn: conn} }

var _ MemberRepo = (*MemberSQLite)(nil)

const (
	selectMemberSQL = `SELECT user_id, house_id FROM house_members WHERE user_id = ?`
	upsertMemberSQL = `INSERT INTO house_members (user_id, house_id) VALUES (?, ?) ON CONFLICT(user_id, house_id) DO NOTHING`
	deleteMemberSQL = `DELETE FROM house_members WHERE user_id = ?`
)

// Get fetches a member by user id. Returns (nil, nil) if not found.
func (r *MemberSQLite) Get(ctx context.Context, userID string) (*models.HouseMember, error) {
	var m models.HouseMember
	err := r.conn.QueryRowContext(ctx, selectMemberSQL, userID).Scan(&m.UserID, &m.HouseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select member %q: %w", userID, err)
	}
	return &m, nil
}

// Upsert grants the user access to the house; granting twice is a no-op.
func (r *MemberSQLite) Upsert(ctx context.Context, houseID, userID string) error {
	if _, err := r.conn.ExecContext(ctx, upsertMemberSQL, userID, houseID); err != nil {
		return fmt.Errorf("upsert member %q: %w", userID, err)
	}
	return nil
}

// Delete revokes access and reports how many rows went away.
func (r *MemberSQLite) Delete(ctx context.Context, userID string) (int64, error) {
	res, err := r.conn.ExecContext(ctx, deleteMemberSQL, userID)
	if err != nil {
		return 0, fmt.Errorf("delete member %q: %w", userID, err)
	}
	return res.RowsAffected()
}
