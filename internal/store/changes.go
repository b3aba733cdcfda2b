package store

import "github.com/google/uuid"

// RoomChanges is a declarative room mutation, applied only when the
// room's conditional-update guard holds. State is always set by a
// transition; pointer fields are applied when present; ClearWinner
// resets both winner fields for a new round.
type RoomChanges struct {
	State           State      `json:"state"`
	CzarID          *uuid.UUID `json:"czar_id,omitempty"`
	PromptCardID    *int       `json:"prompt_card_id,omitempty"`
	WinnerID        *uuid.UUID `json:"winner_id,omitempty"`
	WinningAnswerID *uuid.UUID `json:"winning_answer_id,omitempty"`
	ClearWinner     bool       `json:"clear_winner,omitempty"`
}

func (c RoomChanges) Apply(room *Room) {
	room.State = c.State
	if c.CzarID != nil {
		room.CzarID = c.CzarID
	}
	if c.PromptCardID != nil {
		room.PromptCardID = c.PromptCardID
	}
	if c.WinnerID != nil {
		room.WinnerID = c.WinnerID
	}
	if c.WinningAnswerID != nil {
		room.WinningAnswerID = c.WinningAnswerID
	}
	if c.ClearWinner {
		room.WinnerID = nil
		room.WinningAnswerID = nil
	}
}

// PlayerChanges mutates the writable player fields: score and host
// flag. Nil fields are left untouched.
type PlayerChanges struct {
	Score  *int  `json:"score,omitempty"`
	IsHost *bool `json:"is_host,omitempty"`
}

func (c PlayerChanges) Apply(player *Player) {
	if c.Score != nil {
		player.Score = *c.Score
	}
	if c.IsHost != nil {
		player.IsHost = *c.IsHost
	}
}
