package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"sin-limites/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// handleWebsocket streams a room's change feed to one subscriber. If
// the client passes player_id, closing the socket removes that player
// from the room, so tab closes count as leaving.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	key, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	room, found := s.resolveRoom(key)
	if !found {
		http.NotFound(w, r)
		return
	}

	var playerID uuid.UUID
	if raw := r.URL.Query().Get("player_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid player_id")
			return
		}
		playerID = id
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("room_code", room.Code).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	events, cancel := s.store.Subscribe(room.ID)
	defer cancel()

	go s.writeFeed(conn, events)

	// Block on reads until the peer goes away. Clients never send
	// application data on this socket.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	if playerID != uuid.Nil {
		if _, err := s.store.RemovePlayer(playerID); err != nil {
			log.Debug().Err(err).Str("player_id", playerID.String()).Msg("remove on disconnect skipped")
		}
	}
}

func (s *Server) writeFeed(conn *websocket.Conn, events <-chan store.Event) {
	for event := range events {
		if err := conn.WriteJSON(event); err != nil {
			conn.Close()
			return
		}
	}
	// Feed closed: either the subscriber fell behind or the server is
	// shutting the room down. Drop the socket so the client redials.
	conn.Close()
}
