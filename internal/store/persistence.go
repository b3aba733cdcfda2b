package store

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"sin-limites/internal/db"
)

// EventPayload is the JSONB body of one persisted lifecycle event.
type EventPayload struct {
	RoomCode     string `json:"room_code,omitempty"`
	PlayerName   string `json:"player,omitempty"`
	State        string `json:"state,omitempty"`
	AnswerCardID *int   `json:"answer_card_id,omitempty"`
	Count        int    `json:"count,omitempty"`
}

func (s *Store) persistRoom(room *Room) error {
	if s.db == nil {
		return nil
	}
	record := db.Room{
		ID:        room.ID,
		Code:      room.Code,
		State:     string(room.State),
		CreatedAt: room.CreatedAt,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	return s.persistEvent(room.ID, nil, "room_created", EventPayload{RoomCode: room.Code})
}

func (s *Store) persistRoomUpdate(room *Room) error {
	if s.db == nil {
		return nil
	}
	updates := map[string]any{
		"state":             string(room.State),
		"czar_id":           room.CzarID,
		"prompt_card_id":    room.PromptCardID,
		"winner_id":         room.WinnerID,
		"winning_answer_id": room.WinningAnswerID,
	}
	if err := s.db.Model(&db.Room{}).Where("id = ?", room.ID).Updates(updates).Error; err != nil {
		return err
	}
	return s.persistEvent(room.ID, nil, "room_updated", EventPayload{
		RoomCode: room.Code,
		State:    string(room.State),
	})
}

func (s *Store) persistPlayer(player *Player) error {
	if s.db == nil {
		return nil
	}
	record := db.Player{
		ID:       player.ID,
		RoomID:   player.RoomID,
		Name:     player.Name,
		Score:    player.Score,
		IsHost:   player.IsHost,
		JoinedAt: player.JoinedAt,
	}
	if err := s.db.Create(&record).Error; err != nil {
		// A concurrent join with the same name landed first; the
		// in-memory roster already attached to it.
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return s.persistEvent(player.RoomID, &player.ID, "player_joined", EventPayload{PlayerName: player.Name})
}

func (s *Store) persistPlayerUpdate(player *Player) error {
	if s.db == nil {
		return nil
	}
	updates := map[string]any{
		"score":   player.Score,
		"is_host": player.IsHost,
	}
	return s.db.Model(&db.Player{}).Where("id = ?", player.ID).Updates(updates).Error
}

func (s *Store) persistSubmission(submission *Submission) error {
	if s.db == nil {
		return nil
	}
	record := db.Submission{
		ID:           submission.ID,
		RoomID:       submission.RoomID,
		PlayerID:     submission.PlayerID,
		AnswerCardID: submission.AnswerCardID,
		CreatedAt:    submission.CreatedAt,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return err
	}
	cardID := submission.AnswerCardID
	return s.persistEvent(submission.RoomID, &submission.PlayerID, "answer_submitted", EventPayload{AnswerCardID: &cardID})
}

func (s *Store) persistDeleteSubmissions(roomID uuid.UUID) error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Where("room_id = ?", roomID).Delete(&db.Submission{}).Error; err != nil {
		return err
	}
	return s.persistEvent(roomID, nil, "submissions_cleared", EventPayload{})
}

func (s *Store) persistDeletePlayer(player *Player) error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Delete(&db.Player{}, "id = ?", player.ID).Error; err != nil {
		return err
	}
	return s.persistEvent(player.RoomID, nil, "player_left", EventPayload{PlayerName: player.Name})
}

func (s *Store) persistEvent(roomID uuid.UUID, playerID *uuid.UUID, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		RoomID:   roomID,
		PlayerID: playerID,
		Type:     eventType,
		Payload:  datatypes.JSON(data),
	}
	return s.db.Create(&event).Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
