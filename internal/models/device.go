package models

import "time"

// Device is the persisted record of a switchable output. The live GPIO
// binding is not part of this struct; the registry owns it, keyed by
// DeviceID, so the persisted shape never carries hardware resources.
type Device struct {
	DeviceID      string    `json:"device_id"`
	DeviceName    string    `json:"device_name"`
	PinNumber     int       `json:"pin_number"` // BCM pin, unique across the house
	Status        bool      `json:"status"`     // current on/off
	IsDefault     bool      `json:"is_default"` // at most one per room
	RoomID        string    `json:"room_id"`
	IsScheduled   bool      `json:"is_scheduled"`
	DaysScheduled string    `json:"days_scheduled,omitempty"` // e.g. "Mon,Wed,Fri"
	StartTime     string    `json:"start_time,omitempty"`     // "HH:MM", 24-hour
	OffTime       string    `json:"off_time,omitempty"`       // "HH:MM", 24-hour
	ScheduledBy   string    `json:"scheduled_by,omitempty"`   // last actor to set the schedule
	Wattage       float64   `json:"wattage,omitempty"`        // watts, for energy accounting
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
