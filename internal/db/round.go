package db

import (
	"time"

	"gorm.io/datatypes"
)

// RoundResult is one player's outcome for one round.
type RoundResult struct {
	ID         uint           `gorm:"primaryKey"`
	RoomID     string         `gorm:"size:36;index;not null;uniqueIndex:idx_round_results_room_round_user"`
	Number     int            `gorm:"not null;uniqueIndex:idx_round_results_room_round_user"`
	Username   string         `gorm:"size:64;not null;uniqueIndex:idx_round_results_room_round_user"`
	Letter     string         `gorm:"size:1;not null"`
	Categories datatypes.JSON `gorm:"not null"`
	Answers    datatypes.JSON `gorm:"not null"`
	Submitted  bool           `gorm:"not null;default:false"`
	RoundScore int            `gorm:"not null;default:0"`
	TotalScore int            `gorm:"not null;default:0"`
	CreatedAt  time.Time      `gorm:"not null"`
	UpdatedAt  time.Time      `gorm:"not null"`
}
