package remote

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"sin-limites/internal/store"
)

// Subscribe dials the room's websocket feed and relays decoded events
// until cancel is called, the context ends, or the socket drops. The
// returned channel is closed on any of those, so consumers treat a
// close as a signal to resubscribe.
func (s *Store) Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan store.Event, func(), error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.feedURL(roomID), nil)
	if err != nil {
		return nil, nil, err
	}

	events := make(chan store.Event, 32)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			conn.Close()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	go func() {
		defer close(events)
		defer cancel()
		for {
			var event store.Event
			if err := conn.ReadJSON(&event); err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug().Err(err).Str("room_id", roomID.String()).Msg("feed closed")
				}
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, cancel, nil
}

func (s *Store) feedURL(roomID uuid.UUID) string {
	base := s.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws/rooms/" + roomID.String()
}
