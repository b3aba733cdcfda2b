package game

import (
	"github.com/google/uuid"

	"sin-limites/internal/deck"
	"sin-limites/internal/store"
)

// Snapshot is one client's locally consistent view of a room. It is
// what the presentation layer renders. Hand is private to this client
// and never synchronized.
type Snapshot struct {
	Room          *store.Room
	Players       []store.Player
	CurrentPlayer *store.Player
	Submissions   []store.Submission
	Hand          []int
	PromptCard    *deck.PromptCard
	Loading       bool
}

func upsertPlayer(players []store.Player, row store.Player) []store.Player {
	for i := range players {
		if players[i].ID == row.ID {
			out := make([]store.Player, len(players))
			copy(out, players)
			out[i] = row
			return out
		}
	}
	out := make([]store.Player, 0, len(players)+1)
	out = append(out, players...)
	return append(out, row)
}

func removePlayer(players []store.Player, id uuid.UUID) []store.Player {
	for i := range players {
		if players[i].ID == id {
			out := make([]store.Player, 0, len(players)-1)
			out = append(out, players[:i]...)
			return append(out, players[i+1:]...)
		}
	}
	return players
}

func upsertSubmission(submissions []store.Submission, row store.Submission) []store.Submission {
	for i := range submissions {
		if submissions[i].ID == row.ID {
			out := make([]store.Submission, len(submissions))
			copy(out, submissions)
			out[i] = row
			return out
		}
	}
	out := make([]store.Submission, 0, len(submissions)+1)
	out = append(out, submissions...)
	return append(out, row)
}

func removeSubmission(submissions []store.Submission, id uuid.UUID) []store.Submission {
	for i := range submissions {
		if submissions[i].ID == id {
			out := make([]store.Submission, 0, len(submissions)-1)
			out = append(out, submissions[:i]...)
			return append(out, submissions[i+1:]...)
		}
	}
	return submissions
}

func findPlayer(players []store.Player, id uuid.UUID) (store.Player, bool) {
	for _, player := range players {
		if player.ID == id {
			return player, true
		}
	}
	return store.Player{}, false
}

func findSubmission(submissions []store.Submission, id uuid.UUID) (store.Submission, bool) {
	for _, submission := range submissions {
		if submission.ID == id {
			return submission, true
		}
	}
	return store.Submission{}, false
}
