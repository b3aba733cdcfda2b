package store

import (
	"sync"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

type Table string

const (
	TableRooms       Table = "rooms"
	TablePlayers     Table = "players"
	TableSubmissions Table = "submissions"
)

// Event is one row-level change notification. Exactly one of Room,
// Player, Submission is set, matching Table. For DELETE events the
// payload carries the old row.
type Event struct {
	Table      Table       `json:"table"`
	Type       EventType   `json:"type"`
	Room       *Room       `json:"room,omitempty"`
	Player     *Player     `json:"player,omitempty"`
	Submission *Submission `json:"submission,omitempty"`
}

type subscriber struct {
	ch     chan Event
	closed bool
}

// feed fans change events out to per-room subscribers. Subscribers that
// fall behind are dropped, matching the broadcast hub policy: a client
// that cannot keep up reconnects and refetches.
type feed struct {
	mu     sync.Mutex
	buffer int
	nextID int
	subs   map[uuid.UUID]map[int]*subscriber
}

func newFeed(buffer int) *feed {
	return &feed{
		buffer: buffer,
		subs:   make(map[uuid.UUID]map[int]*subscriber),
	}
}

// subscribe registers a listener for one room's events. The returned
// cancel func is idempotent and safe to call after a slow-subscriber
// drop.
func (f *feed) subscribe(roomID uuid.UUID) (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	group := f.subs[roomID]
	if group == nil {
		group = make(map[int]*subscriber)
		f.subs[roomID] = group
	}
	id := f.nextID
	f.nextID++
	sub := &subscriber{ch: make(chan Event, f.buffer)}
	group[id] = sub

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.drop(roomID, id)
	}
	return sub.ch, cancel
}

func (f *feed) publish(roomID uuid.UUID, event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, sub := range f.subs[roomID] {
		select {
		case sub.ch <- event:
		default:
			f.drop(roomID, id)
		}
	}
}

// drop must be called with f.mu held.
func (f *feed) drop(roomID uuid.UUID, id int) {
	group := f.subs[roomID]
	sub, ok := group[id]
	if !ok {
		return
	}
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
	delete(group, id)
	if len(group) == 0 {
		delete(f.subs, roomID)
	}
}
