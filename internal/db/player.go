package db

import "time"

type RoomPlayer struct {
	ID        uint       `gorm:"primaryKey"`
	RoomID    string     `gorm:"size:36;index;not null;uniqueIndex:idx_room_players_room_username"`
	Username  string     `gorm:"size:64;not null;uniqueIndex:idx_room_players_room_username"`
	Avatar    string     `gorm:"size:512"`
	Guest     bool       `gorm:"not null;default:false"`
	Role      string     `gorm:"size:16;not null"`
	Status    string     `gorm:"size:16;not null"`
	Score     int        `gorm:"not null;default:0"`
	JoinedAt  time.Time  `gorm:"not null"`
	LeftAt    *time.Time
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
