// Package remote implements the game client's room-store contract over
// the server's HTTP API and websocket change feed.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"sin-limites/internal/store"
)

// Store talks to a running server. BaseURL is the http(s) origin, e.g.
// "http://localhost:8080".
type Store struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Store {
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Store) RoomByCode(ctx context.Context, code string) (store.Room, error) {
	var room store.Room
	err := s.do(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(code), nil, &room)
	return room, err
}

func (s *Store) PlayersByRoom(ctx context.Context, roomID uuid.UUID) ([]store.Player, error) {
	var players []store.Player
	err := s.do(ctx, http.MethodGet, "/api/rooms/"+roomID.String()+"/players", nil, &players)
	return players, err
}

func (s *Store) SubmissionsByRoom(ctx context.Context, roomID uuid.UUID) ([]store.Submission, error) {
	var submissions []store.Submission
	err := s.do(ctx, http.MethodGet, "/api/rooms/"+roomID.String()+"/submissions", nil, &submissions)
	return submissions, err
}

func (s *Store) CreateRoom(ctx context.Context) (store.Room, error) {
	var room store.Room
	err := s.do(ctx, http.MethodPost, "/api/rooms", struct{}{}, &room)
	return room, err
}

func (s *Store) JoinRoom(ctx context.Context, roomID uuid.UUID, name string) (store.Player, error) {
	var player store.Player
	payload := map[string]string{"name": name}
	err := s.do(ctx, http.MethodPost, "/api/rooms/"+roomID.String()+"/players", payload, &player)
	return player, err
}

func (s *Store) InsertSubmission(ctx context.Context, roomID, playerID uuid.UUID, answerCardID int) (store.Submission, error) {
	var submission store.Submission
	payload := map[string]any{
		"player_id":      playerID,
		"answer_card_id": answerCardID,
	}
	err := s.do(ctx, http.MethodPost, "/api/rooms/"+roomID.String()+"/submissions", payload, &submission)
	return submission, err
}

func (s *Store) UpdateRoom(ctx context.Context, roomID uuid.UUID, expect store.State, changes store.RoomChanges) (store.Room, error) {
	var room store.Room
	payload := map[string]any{
		"expect_state": expect,
		"changes":      changes,
	}
	err := s.do(ctx, http.MethodPost, "/api/rooms/"+roomID.String()+"/state", payload, &room)
	return room, err
}

func (s *Store) UpdatePlayer(ctx context.Context, playerID uuid.UUID, changes store.PlayerChanges) (store.Player, error) {
	var player store.Player
	err := s.do(ctx, http.MethodPost, "/api/players/"+playerID.String(), changes, &player)
	return player, err
}

func (s *Store) DeleteSubmissions(ctx context.Context, roomID uuid.UUID) error {
	return s.do(ctx, http.MethodDelete, "/api/rooms/"+roomID.String()+"/submissions", nil, nil)
}

func (s *Store) RemovePlayer(ctx context.Context, playerID uuid.UUID) error {
	return s.do(ctx, http.MethodDelete, "/api/players/"+playerID.String(), nil, nil)
}

func (s *Store) do(ctx context.Context, method, path string, payload, dest any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// statusError maps the server's error statuses back onto the store's
// sentinel errors so callers branch the same way as in-process.
func statusError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload)

	switch resp.StatusCode {
	case http.StatusNotFound:
		if strings.Contains(payload.Error, "player") {
			return store.ErrPlayerNotFound
		}
		return store.ErrRoomNotFound
	case http.StatusConflict:
		if strings.Contains(payload.Error, store.ErrAlreadySubmitted.Error()) {
			return store.ErrAlreadySubmitted
		}
		return store.ErrStaleGuard
	}
	if payload.Error != "" {
		return fmt.Errorf("server: %s", payload.Error)
	}
	return fmt.Errorf("server: unexpected status %d", resp.StatusCode)
}
