package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sin-limites/internal/db"
	"sin-limites/internal/store"
)

type joinRequest struct {
	Name string `json:"name"`
}

type submissionRequest struct {
	PlayerID     uuid.UUID `json:"player_id"`
	AnswerCardID int       `json:"answer_card_id"`
}

type roomUpdateRequest struct {
	ExpectState store.State       `json:"expect_state"`
	Changes     store.RoomChanges `json:"changes"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if !s.enforceRateLimit(w, r, "create") {
		return
	}
	room, err := s.store.CreateRoom()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}
	log.Info().Str("room_id", room.ID.String()).Str("room_code", room.Code).Msg("room created")
	writeJSON(w, http.StatusCreated, room)
}

func (s *Server) handleRoomSubroutes(w http.ResponseWriter, r *http.Request) {
	key, action, ok := parseRoomPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	room, found := s.resolveRoom(key)
	if !found {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		switch action {
		case "":
			writeJSON(w, http.StatusOK, room)
		case "players":
			writeJSON(w, http.StatusOK, s.store.PlayersByRoom(room.ID))
		case "submissions":
			writeJSON(w, http.StatusOK, s.store.SubmissionsByRoom(room.ID))
		case "events":
			s.handleRoomEvents(w, r, room)
		default:
			http.NotFound(w, r)
		}
	case http.MethodPost:
		switch action {
		case "players":
			s.handleJoinRoom(w, r, room)
		case "submissions":
			s.handleInsertSubmission(w, r, room)
		case "state":
			s.handleUpdateRoom(w, r, room)
		default:
			http.NotFound(w, r)
		}
	case http.MethodDelete:
		switch action {
		case "submissions":
			s.handleDeleteSubmissions(w, r, room)
		default:
			http.NotFound(w, r)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// resolveRoom accepts either a room id or a join code, mirroring how
// clients address rooms by the code they share.
func (s *Server) resolveRoom(key string) (store.Room, bool) {
	if id, err := uuid.Parse(key); err == nil {
		return s.store.RoomByID(id)
	}
	return s.store.RoomByCode(key)
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request, room store.Room) {
	if !s.enforceRateLimit(w, r, "join") {
		return
	}
	var req joinRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	player, created, err := s.store.JoinRoom(room.ID, name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to join room")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		log.Info().Str("room_code", room.Code).Str("player", name).Bool("is_host", player.IsHost).Msg("player joined")
	}
	writeJSON(w, status, player)
}

func (s *Server) handleInsertSubmission(w http.ResponseWriter, r *http.Request, room store.Room) {
	var req submissionRequest
	if err := readJSON(r.Body, &req); err != nil || req.PlayerID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "player_id and answer_card_id are required")
		return
	}
	submission, err := s.store.InsertSubmission(room.ID, req.PlayerID, req.AnswerCardID)
	switch {
	case errors.Is(err, store.ErrAlreadySubmitted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to submit answer")
	default:
		log.Info().Str("room_code", room.Code).Str("player_id", req.PlayerID.String()).Msg("answer submitted")
		writeJSON(w, http.StatusCreated, submission)
	}
}

func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request, room store.Room) {
	var req roomUpdateRequest
	if err := readJSON(r.Body, &req); err != nil || req.ExpectState == "" || req.Changes.State == "" {
		writeError(w, http.StatusBadRequest, "expect_state and changes are required")
		return
	}
	updated, err := s.store.UpdateRoom(room.ID, req.ExpectState, req.Changes.Apply)
	switch {
	case errors.Is(err, store.ErrStaleGuard):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to update room")
	default:
		log.Info().Str("room_code", room.Code).Str("state", string(updated.State)).Msg("room state updated")
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) handleDeleteSubmissions(w http.ResponseWriter, _ *http.Request, room store.Room) {
	if err := s.store.DeleteSubmissions(room.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete submissions")
		return
	}
	log.Info().Str("room_code", room.Code).Msg("submissions cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	key, ok := parsePlayerPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	playerID, err := uuid.Parse(key)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	var changes store.PlayerChanges
	if err := readJSON(r.Body, &changes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid player update")
		return
	}
	player, err := s.store.UpdatePlayer(playerID, changes.Apply)
	switch {
	case errors.Is(err, store.ErrPlayerNotFound):
		http.NotFound(w, r)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to update player")
	default:
		writeJSON(w, http.StatusOK, player)
	}
}

func (s *Server) handleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	key, ok := parsePlayerPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	playerID, err := uuid.Parse(key)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	player, err := s.store.RemovePlayer(playerID)
	switch {
	case errors.Is(err, store.ErrPlayerNotFound):
		http.NotFound(w, r)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to remove player")
	default:
		log.Info().Str("player", player.Name).Str("room_id", player.RoomID.String()).Msg("player left")
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleRoomEvents(w http.ResponseWriter, r *http.Request, room store.Room) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "events not available")
		return
	}
	var records []db.Event
	if err := s.db.Where("room_id = ?", room.ID).Order("created_at asc").Find(&records).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	events := make([]map[string]any, 0, len(records))
	for _, record := range records {
		events = append(events, map[string]any{
			"id":         record.ID,
			"type":       record.Type,
			"player_id":  record.PlayerID,
			"created_at": record.CreatedAt,
			"payload":    record.Payload,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id": room.ID,
		"events":  events,
	})
}
