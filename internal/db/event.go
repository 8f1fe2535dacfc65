package db

import (
	"time"

	"gorm.io/datatypes"
)

// Event is the append-only audit log of room events.
type Event struct {
	ID        uint           `gorm:"primaryKey"`
	RoomID    string         `gorm:"size:36;index;not null"`
	Round     *int           `gorm:"index"`
	Username  *string        `gorm:"size:64"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

func (Event) TableName() string {
	return "room_events"
}
