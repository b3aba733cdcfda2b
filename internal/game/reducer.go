package game

import (
	"sin-limites/internal/deck"
	"sin-limites/internal/store"
)

// Reduce folds one change-feed event into a snapshot. Applies are
// keyed on entity id (replace-if-present-else-insert, remove-if-
// present), so replaying an event, or interleaving a stale full refetch
// with newer incremental updates, cannot corrupt the set; at worst the
// view is transiently stale until the next event.
func Reduce(snap Snapshot, event store.Event, catalog *deck.Deck) Snapshot {
	switch event.Table {
	case store.TableRooms:
		return reduceRoom(snap, event, catalog)
	case store.TablePlayers:
		return reducePlayers(snap, event)
	case store.TableSubmissions:
		return reduceSubmissions(snap, event)
	}
	return snap
}

func reduceRoom(snap Snapshot, event store.Event, catalog *deck.Deck) Snapshot {
	if event.Room == nil {
		return snap
	}
	switch event.Type {
	case store.EventInsert, store.EventUpdate:
		room := *event.Room
		prev := snap.Room
		snap.Room = &room
		snap.PromptCard = resolvePromptCard(&room, catalog)
		// Entering SELECTION starts a fresh round: drop the previous
		// round's submissions locally before the authoritative deletes
		// arrive, so stale answers never flash on screen.
		if room.State == store.StateSelection && (prev == nil || prev.State != store.StateSelection) {
			snap.Submissions = nil
		}
	case store.EventDelete:
		snap.Room = nil
		snap.PromptCard = nil
	}
	return snap
}

func reducePlayers(snap Snapshot, event store.Event) Snapshot {
	if event.Player == nil {
		return snap
	}
	switch event.Type {
	case store.EventInsert, store.EventUpdate:
		snap.Players = upsertPlayer(snap.Players, *event.Player)
		if snap.CurrentPlayer != nil && snap.CurrentPlayer.ID == event.Player.ID {
			row := *event.Player
			snap.CurrentPlayer = &row
		}
	case store.EventDelete:
		snap.Players = removePlayer(snap.Players, event.Player.ID)
		if snap.CurrentPlayer != nil && snap.CurrentPlayer.ID == event.Player.ID {
			snap.CurrentPlayer = nil
		}
	}
	return snap
}

func reduceSubmissions(snap Snapshot, event store.Event) Snapshot {
	if event.Submission == nil {
		return snap
	}
	switch event.Type {
	case store.EventInsert, store.EventUpdate:
		snap.Submissions = upsertSubmission(snap.Submissions, *event.Submission)
	case store.EventDelete:
		snap.Submissions = removeSubmission(snap.Submissions, event.Submission.ID)
	}
	return snap
}

func resolvePromptCard(room *store.Room, catalog *deck.Deck) *deck.PromptCard {
	if room == nil || room.PromptCardID == nil || catalog == nil {
		return nil
	}
	card, ok := catalog.PromptByID(*room.PromptCardID)
	if !ok {
		return nil
	}
	return &card
}
