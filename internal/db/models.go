package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Room struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Code            string       `gorm:"size:8;uniqueIndex;not null"`
	State           string       `gorm:"size:16;not null"`
	CzarID          *uuid.UUID   `gorm:"type:uuid"`
	PromptCardID    *int
	WinnerID        *uuid.UUID   `gorm:"type:uuid"`
	WinningAnswerID *uuid.UUID   `gorm:"type:uuid"`
	CreatedAt       time.Time    `gorm:"not null"`
	UpdatedAt       time.Time    `gorm:"not null"`
	Players         []Player     `gorm:"foreignKey:RoomID"`
	Submissions     []Submission `gorm:"foreignKey:RoomID"`
	Events          []Event      `gorm:"foreignKey:RoomID"`
}

type Player struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomID    uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_players_room_name"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:idx_players_room_name"`
	Score     int       `gorm:"not null;default:0"`
	IsHost    bool      `gorm:"not null;default:false"`
	JoinedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Submission struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomID       uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_submissions_room_player"`
	PlayerID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_submissions_room_player"`
	AnswerCardID int       `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	RoomID    uuid.UUID      `gorm:"type:uuid;index;not null"`
	PlayerID  *uuid.UUID     `gorm:"type:uuid;index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
