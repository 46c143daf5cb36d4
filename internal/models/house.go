package models

import "time"

// House is the root aggregate: one per deployment.
type House struct {
	HouseID      string    `json:"house_id"`
	HouseName    string    `json:"house_name"`
	PasswordHash string    `json:"-"` // don't expose hash
	Rooms        []Room    `json:"rooms"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Room groups devices inside a house.
type Room struct {
	RoomID    string    `json:"room_id"`
	RoomName  string    `json:"room_name"`
	HouseID   string    `json:"house_id"`
	Devices   []Device  `json:"devices"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HouseMember links an authenticated user to the house.
type HouseMember struct {
	HouseID string `json:"house_id"`
	UserID  string `json:"user_id"`
}
