package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	conn, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	conn.SetMaxOpenConns(1) // SQLite is not great with many writers
	conn.SetMaxIdleConns(1)

	// Pragmas to improve reliability
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return conn, nil
}

const sqliteDriverName = "sqlite"

const schemaHouses = `
CREATE TABLE IF NOT EXISTS houses (
    house_id TEXT PRIMARY KEY,
    house_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaHouseMembers = `
CREATE TABLE IF NOT EXISTS house_members (
    user_id TEXT NOT NULL,
    house_id TEXT NOT NULL REFERENCES houses(house_id) ON DELETE CASCADE,
    PRIMARY KEY (user_id, house_id)
);
`

const schemaRooms = `
CREATE TABLE IF NOT EXISTS rooms (
    room_id TEXT PRIMARY KEY,
    room_name TEXT,
    house_id TEXT NOT NULL REFERENCES houses(house_id) ON DELETE CASCADE,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaDevices = `
CREATE TABLE IF NOT EXISTS devices (
    device_id TEXT PRIMARY KEY,
    device_name TEXT NOT NULL,
    pin_number INTEGER NOT NULL UNIQUE,
    status BOOLEAN NOT NULL DEFAULT 0,
    is_default BOOLEAN NOT NULL DEFAULT 0,
    room_id TEXT NOT NULL REFERENCES rooms(room_id) ON DELETE CASCADE,
    is_scheduled BOOLEAN NOT NULL DEFAULT 0,
    days_scheduled VARCHAR(30),
    start_time VARCHAR(10),
    off_time VARCHAR(10),
    scheduled_by TEXT,
    wattage REAL NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaDeviceControlLogs = `
CREATE TABLE IF NOT EXISTS device_control_logs (
    device_control_log_id TEXT PRIMARY KEY,
    device_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    status_changed_from BOOLEAN NOT NULL,
    status_changed_to BOOLEAN NOT NULL,
    device_wattage REAL NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);
`

func ensureSchema(conn *sql.DB) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaHouses,
		schemaHouseMembers,
		schemaRooms,
		schemaDevices,
		schemaDeviceControlLogs,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
