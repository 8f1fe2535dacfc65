package db

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoomStatusActive    = "active"
	RoomStatusCompleted = "completed"
	RoomStatusCancelled = "cancelled"
	RoomStatusAbandoned = "abandoned"
)

// Room is the durable record of a room. Join codes are only unique among
// live rooms, so the column is indexed but not unique.
type Room struct {
	ID         string         `gorm:"primaryKey;size:36"`
	JoinCode   string         `gorm:"size:12;index;not null"`
	HostID     string         `gorm:"size:64;not null"`
	Status     string         `gorm:"size:16;index;not null"`
	Phase      string         `gorm:"size:16;not null"`
	MaxPlayers int            `gorm:"not null;default:0"`
	Config     datatypes.JSON `gorm:"not null"`
	Winner     string         `gorm:"size:64"`
	Ranking    datatypes.JSON
	StartedAt  *time.Time
	EndedAt    *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
	Players    []RoomPlayer
	Rounds     []RoundResult
	Events     []Event
}
