package model

import "time"

// Room is an exam hall that can seat up to Capacity candidates.  RoomNumber
// is unique and its first character names the floor ("G12" is on floor G).
// IsAvailable means the room is open for allocation; runs skip it otherwise.
type Room struct {
	ID          uint64    // rooms.id
	RoomNumber  string    // rooms.room_number
	Capacity    uint32    // rooms.capacity, always > 0
	IsAvailable bool      // rooms.is_available
	CreatedAt   time.Time // rooms.created_at
	UpdatedAt   time.Time // rooms.updated_at
}

// Floor returns the floor key derived from the room number.
func (r Room) Floor() string {
	if r.RoomNumber == "" {
		return ""
	}
	return r.RoomNumber[:1]
}
