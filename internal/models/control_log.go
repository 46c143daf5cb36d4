package models

import "time"

// DeviceControlLog is a single append-only status transition record.
// Never updated or deleted; the audit trail and input to energy reports.
type DeviceControlLog struct {
	LogID             string    `json:"device_control_log_id"`
	DeviceID          string    `json:"device_id"`
	UserID            string    `json:"user_id"` // acting user, or "<user>|-|Schedule Assistant"
	StatusChangedFrom bool      `json:"status_changed_from"`
	StatusChangedTo   bool      `json:"status_changed_to"`
	DeviceWattage     float64   `json:"device_wattage,omitempty"` // snapshot at transition time
	CreatedAt         time.Time `json:"created_at"`
}
