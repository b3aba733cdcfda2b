package game

import (
	"context"

	"github.com/google/uuid"

	"sin-limites/internal/store"
)

// RoomStore is the room-store contract the game client consumes: point
// reads, point writes with store-side guard conditions, and a per-room
// change feed. Implemented in-process by Direct and over HTTP/WebSocket
// by the remote package.
type RoomStore interface {
	RoomByCode(ctx context.Context, code string) (store.Room, error)
	PlayersByRoom(ctx context.Context, roomID uuid.UUID) ([]store.Player, error)
	SubmissionsByRoom(ctx context.Context, roomID uuid.UUID) ([]store.Submission, error)

	JoinRoom(ctx context.Context, roomID uuid.UUID, name string) (store.Player, error)
	InsertSubmission(ctx context.Context, roomID, playerID uuid.UUID, answerCardID int) (store.Submission, error)
	UpdateRoom(ctx context.Context, roomID uuid.UUID, expect store.State, changes store.RoomChanges) (store.Room, error)
	UpdatePlayer(ctx context.Context, playerID uuid.UUID, changes store.PlayerChanges) (store.Player, error)
	DeleteSubmissions(ctx context.Context, roomID uuid.UUID) error

	Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan store.Event, func(), error)
}

// Direct adapts the in-process store to the RoomStore contract. Used by
// tests and by clients embedded in the server process.
type Direct struct {
	store *store.Store
}

func NewDirect(s *store.Store) *Direct {
	return &Direct{store: s}
}

func (d *Direct) RoomByCode(_ context.Context, code string) (store.Room, error) {
	room, ok := d.store.RoomByCode(code)
	if !ok {
		return store.Room{}, store.ErrRoomNotFound
	}
	return room, nil
}

func (d *Direct) PlayersByRoom(_ context.Context, roomID uuid.UUID) ([]store.Player, error) {
	return d.store.PlayersByRoom(roomID), nil
}

func (d *Direct) SubmissionsByRoom(_ context.Context, roomID uuid.UUID) ([]store.Submission, error) {
	return d.store.SubmissionsByRoom(roomID), nil
}

func (d *Direct) JoinRoom(_ context.Context, roomID uuid.UUID, name string) (store.Player, error) {
	player, _, err := d.store.JoinRoom(roomID, name)
	return player, err
}

func (d *Direct) InsertSubmission(_ context.Context, roomID, playerID uuid.UUID, answerCardID int) (store.Submission, error) {
	return d.store.InsertSubmission(roomID, playerID, answerCardID)
}

func (d *Direct) UpdateRoom(_ context.Context, roomID uuid.UUID, expect store.State, changes store.RoomChanges) (store.Room, error) {
	return d.store.UpdateRoom(roomID, expect, changes.Apply)
}

func (d *Direct) UpdatePlayer(_ context.Context, playerID uuid.UUID, changes store.PlayerChanges) (store.Player, error) {
	return d.store.UpdatePlayer(playerID, changes.Apply)
}

func (d *Direct) DeleteSubmissions(_ context.Context, roomID uuid.UUID) error {
	return d.store.DeleteSubmissions(roomID)
}

func (d *Direct) Subscribe(_ context.Context, roomID uuid.UUID) (<-chan store.Event, func(), error) {
	events, cancel := d.store.Subscribe(roomID)
	return events, cancel, nil
}
