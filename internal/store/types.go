package store

import (
	"time"

	"github.com/google/uuid"
)

// State is a room's phase in the round cycle.
type State string

const (
	StateLobby     State = "LOBBY"
	StateSelection State = "SELECTION"
	StateJudging   State = "JUDGING"
	StateReveal    State = "REVEAL"
	StateResults   State = "RESULTS"
)

// Room is one game instance, addressed by a short join code.
// CzarID and PromptCardID are both set exactly when State != LOBBY.
type Room struct {
	ID              uuid.UUID  `json:"id"`
	Code            string     `json:"code"`
	State           State      `json:"state"`
	CzarID          *uuid.UUID `json:"czar_id"`
	PromptCardID    *int       `json:"prompt_card_id"`
	WinnerID        *uuid.UUID `json:"winner_id"`
	WinningAnswerID *uuid.UUID `json:"winning_answer_id"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Player belongs to exactly one room for its lifetime. Exactly one
// player per non-empty room has IsHost set.
type Player struct {
	ID       uuid.UUID `json:"id"`
	RoomID   uuid.UUID `json:"room_id"`
	Name     string    `json:"name"`
	Score    int       `json:"score"`
	IsHost   bool      `json:"is_host"`
	JoinedAt time.Time `json:"joined_at"`
}

// Submission is one player's answer-card choice for the current round.
// At most one exists per (player, round); all of a room's submissions
// are deleted in bulk when a new round starts.
type Submission struct {
	ID           uuid.UUID `json:"id"`
	RoomID       uuid.UUID `json:"room_id"`
	PlayerID     uuid.UUID `json:"player_id"`
	AnswerCardID int       `json:"answer_card_id"`
	CreatedAt    time.Time `json:"created_at"`
}
