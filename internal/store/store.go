package store

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"sin-limites/internal/config"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrAlreadySubmitted = errors.New("submission already exists for player")
	ErrStaleGuard       = errors.New("room no longer in expected state")
)

// Store is the authoritative row store for rooms, players and
// submissions. All mutations run under one mutex, so guard conditions
// are checked atomically with the write. The Postgres mirror is
// write-through best effort: a mirror failure is logged and the
// in-memory copy stays authoritative. Every accepted mutation is
// published on the room's change feed before the call returns.
type Store struct {
	mu          sync.Mutex
	cfg         config.Config
	db          *gorm.DB
	feed        *feed
	rooms       map[uuid.UUID]*Room
	byCode      map[string]uuid.UUID
	players     map[uuid.UUID][]*Player
	playerRooms map[uuid.UUID]uuid.UUID
	submissions map[uuid.UUID][]*Submission
}

func New(conn *gorm.DB, cfg config.Config) *Store {
	return &Store{
		cfg:         cfg,
		db:          conn,
		feed:        newFeed(cfg.FeedBufferSize),
		rooms:       make(map[uuid.UUID]*Room),
		byCode:      make(map[string]uuid.UUID),
		players:     make(map[uuid.UUID][]*Player),
		playerRooms: make(map[uuid.UUID]uuid.UUID),
		submissions: make(map[uuid.UUID][]*Submission),
	}
}

// Subscribe registers a change-feed listener for one room.
func (s *Store) Subscribe(roomID uuid.UUID) (<-chan Event, func()) {
	return s.feed.subscribe(roomID)
}

// CreateRoom inserts a new room in LOBBY with a fresh join code.
func (s *Store) CreateRoom() (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.newRoomCode()
	room := &Room{
		ID:        uuid.New(),
		Code:      code,
		State:     StateLobby,
		CreatedAt: time.Now().UTC(),
	}
	s.rooms[room.ID] = room
	s.byCode[code] = room.ID
	if err := s.persistRoom(room); err != nil {
		log.Warn().Err(err).Str("room_code", code).Msg("postgres mirror write failed")
	}
	return *room, nil
}

func (s *Store) RoomByCode(code string) (Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byCode[code]
	if !ok {
		return Room{}, false
	}
	return *s.rooms[id], true
}

func (s *Store) RoomByID(id uuid.UUID) (Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return Room{}, false
	}
	return *room, true
}

// PlayersByRoom returns the roster in join order.
func (s *Store) PlayersByRoom(roomID uuid.UUID) []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]Player, 0, len(s.players[roomID]))
	for _, player := range s.players[roomID] {
		list = append(list, *player)
	}
	return list
}

func (s *Store) SubmissionsByRoom(roomID uuid.UUID) []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]Submission, 0, len(s.submissions[roomID]))
	for _, submission := range s.submissions[roomID] {
		list = append(list, *submission)
	}
	return list
}

// JoinRoom attaches the session named name to the room's roster. A name
// already on the roster claims the existing player row (reconnect);
// otherwise a new player is inserted, hosting iff the roster was empty
// at insertion time. First-writer-wins under the store mutex.
func (s *Store) JoinRoom(roomID uuid.UUID, name string) (Player, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return Player{}, false, ErrRoomNotFound
	}
	for _, existing := range s.players[roomID] {
		if existing.Name == name {
			return *existing, false, nil
		}
	}

	player := &Player{
		ID:       uuid.New(),
		RoomID:   roomID,
		Name:     name,
		IsHost:   len(s.players[roomID]) == 0,
		JoinedAt: time.Now().UTC(),
	}
	s.players[roomID] = append(s.players[roomID], player)
	s.playerRooms[player.ID] = roomID
	if err := s.persistPlayer(player); err != nil {
		log.Warn().Err(err).Str("player", player.Name).Msg("postgres mirror write failed")
	}
	s.feed.publish(roomID, Event{Table: TablePlayers, Type: EventInsert, Player: copyPlayer(player)})
	return *player, true, nil
}

// InsertSubmission records one answer for the current round. A player
// may have at most one submission per round.
func (s *Store) InsertSubmission(roomID, playerID uuid.UUID, answerCardID int) (Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return Submission{}, ErrRoomNotFound
	}
	if s.playerRooms[playerID] != roomID {
		return Submission{}, ErrPlayerNotFound
	}
	for _, existing := range s.submissions[roomID] {
		if existing.PlayerID == playerID {
			return Submission{}, ErrAlreadySubmitted
		}
	}

	submission := &Submission{
		ID:           uuid.New(),
		RoomID:       roomID,
		PlayerID:     playerID,
		AnswerCardID: answerCardID,
		CreatedAt:    time.Now().UTC(),
	}
	s.submissions[roomID] = append(s.submissions[roomID], submission)
	if err := s.persistSubmission(submission); err != nil {
		log.Warn().Err(err).Str("player_id", playerID.String()).Msg("postgres mirror write failed")
	}
	s.feed.publish(roomID, Event{Table: TableSubmissions, Type: EventInsert, Submission: copySubmission(submission)})
	return *submission, nil
}

// UpdateRoom applies mutate only while the room is still observed in
// expect. A stale guard is reported as ErrStaleGuard and nothing is
// written; racing transition attempts collapse to one winner.
func (s *Store) UpdateRoom(roomID uuid.UUID, expect State, mutate func(*Room)) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return Room{}, ErrRoomNotFound
	}
	if room.State != expect {
		return *room, ErrStaleGuard
	}
	mutate(room)
	if err := s.persistRoomUpdate(room); err != nil {
		log.Warn().Err(err).Str("room_code", room.Code).Msg("postgres mirror write failed")
	}
	s.feed.publish(roomID, Event{Table: TableRooms, Type: EventUpdate, Room: copyRoom(room)})
	return *room, nil
}

func (s *Store) UpdatePlayer(playerID uuid.UUID, mutate func(*Player)) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.playerRooms[playerID]
	if !ok {
		return Player{}, ErrPlayerNotFound
	}
	var player *Player
	for _, candidate := range s.players[roomID] {
		if candidate.ID == playerID {
			player = candidate
			break
		}
	}
	if player == nil {
		return Player{}, ErrPlayerNotFound
	}
	mutate(player)
	if err := s.persistPlayerUpdate(player); err != nil {
		log.Warn().Err(err).Str("player", player.Name).Msg("postgres mirror write failed")
	}
	s.feed.publish(roomID, Event{Table: TablePlayers, Type: EventUpdate, Player: copyPlayer(player)})
	return *player, nil
}

// DeleteSubmissions removes every submission for the room, one DELETE
// event per removed row.
func (s *Store) DeleteSubmissions(roomID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return ErrRoomNotFound
	}
	removed := s.submissions[roomID]
	delete(s.submissions, roomID)
	if err := s.persistDeleteSubmissions(roomID); err != nil {
		log.Warn().Err(err).Str("room_id", roomID.String()).Msg("postgres mirror write failed")
	}
	for _, submission := range removed {
		s.feed.publish(roomID, Event{Table: TableSubmissions, Type: EventDelete, Submission: copySubmission(submission)})
	}
	return nil
}

// RemovePlayer deletes the player row. This is the only leave signal;
// there is no heartbeat.
func (s *Store) RemovePlayer(playerID uuid.UUID) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.playerRooms[playerID]
	if !ok {
		return Player{}, ErrPlayerNotFound
	}
	roster := s.players[roomID]
	for i, player := range roster {
		if player.ID == playerID {
			s.players[roomID] = append(roster[:i:i], roster[i+1:]...)
			delete(s.playerRooms, playerID)
			if err := s.persistDeletePlayer(player); err != nil {
				log.Warn().Err(err).Str("player", player.Name).Msg("postgres mirror write failed")
			}
			s.feed.publish(roomID, Event{Table: TablePlayers, Type: EventDelete, Player: copyPlayer(player)})
			return *player, nil
		}
	}
	return Player{}, ErrPlayerNotFound
}

func (s *Store) newRoomCode() string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for {
		buf := make([]byte, s.cfg.RoomCodeLength)
		if _, err := rand.Read(buf); err != nil {
			for i := range buf {
				buf[i] = 'A'
			}
		}
		for i := range buf {
			buf[i] = alphabet[int(buf[i])%len(alphabet)]
		}
		code := string(buf)
		if _, taken := s.byCode[code]; !taken {
			return code
		}
	}
}

func copyRoom(room *Room) *Room {
	clone := *room
	return &clone
}

func copyPlayer(player *Player) *Player {
	clone := *player
	return &clone
}

func copySubmission(submission *Submission) *Submission {
	clone := *submission
	return &clone
}
