package game

import (
	"github.com/google/uuid"

	"sin-limites/internal/store"
)

// Transition preconditions as pure predicates over snapshot data, so
// each is unit-testable without a store.

func canStart(snap Snapshot, minPlayers int) bool {
	if snap.Room == nil || snap.Room.State != store.StateLobby {
		return false
	}
	if snap.CurrentPlayer == nil || !snap.CurrentPlayer.IsHost {
		return false
	}
	return len(snap.Players) >= minPlayers
}

func isCzar(room *store.Room, playerID uuid.UUID) bool {
	return room != nil && room.CzarID != nil && *room.CzarID == playerID
}

func hasSubmitted(submissions []store.Submission, playerID uuid.UUID) bool {
	for _, submission := range submissions {
		if submission.PlayerID == playerID {
			return true
		}
	}
	return false
}

// SelectionComplete reports whether every non-czar player has
// submitted. Callers must pass counts fetched at submission time, not
// cached copies: the roster can change mid-round.
func SelectionComplete(players []store.Player, submissions []store.Submission) bool {
	return len(submissions) > 0 && len(submissions) == len(players)-1
}

// NextCzar picks the judge for the next round: round-robin over the
// current roster in join order, starting after the outgoing czar. If
// the outgoing czar is gone (or there was none), rotation restarts at
// index 0.
func NextCzar(players []store.Player, current *uuid.UUID) (uuid.UUID, bool) {
	if len(players) == 0 {
		return uuid.Nil, false
	}
	index := -1
	if current != nil {
		for i := range players {
			if players[i].ID == *current {
				index = i
				break
			}
		}
	}
	return players[(index+1)%len(players)].ID, true
}

// HostMissing reports a non-empty roster with no host, the condition
// that triggers best-effort host promotion.
func HostMissing(players []store.Player) bool {
	if len(players) == 0 {
		return false
	}
	for _, player := range players {
		if player.IsHost {
			return false
		}
	}
	return true
}

func firstPlayer(players []store.Player) (store.Player, bool) {
	if len(players) == 0 {
		return store.Player{}, false
	}
	return players[0], true
}
