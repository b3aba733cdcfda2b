package game

import (
	"testing"

	"github.com/google/uuid"

	"sin-limites/internal/store"
)

func TestCanStart(t *testing.T) {
	host := store.Player{ID: uuid.New(), Name: "Ana", IsHost: true}
	guest := store.Player{ID: uuid.New(), Name: "Beto"}
	lobby := &store.Room{ID: uuid.New(), State: store.StateLobby}

	snap := Snapshot{Room: lobby, Players: []store.Player{host, guest}, CurrentPlayer: &host}
	if !canStart(snap, 2) {
		t.Fatal("expected host with two players to start")
	}

	snap.CurrentPlayer = &guest
	if canStart(snap, 2) {
		t.Fatal("expected non-host start to be refused")
	}

	snap.CurrentPlayer = &host
	snap.Players = []store.Player{host}
	if canStart(snap, 2) {
		t.Fatal("expected single-player start to be refused")
	}

	snap.Players = []store.Player{host, guest}
	snap.Room = &store.Room{ID: lobby.ID, State: store.StateSelection}
	if canStart(snap, 2) {
		t.Fatal("expected start outside LOBBY to be refused")
	}
}

func TestSelectionComplete(t *testing.T) {
	players := []store.Player{{ID: uuid.New()}, {ID: uuid.New()}, {ID: uuid.New()}}
	submissions := []store.Submission{{ID: uuid.New()}, {ID: uuid.New()}}

	if !SelectionComplete(players, submissions) {
		t.Fatal("expected two submissions from three players to complete")
	}
	if SelectionComplete(players, submissions[:1]) {
		t.Fatal("expected one submission from three players to be incomplete")
	}
	if SelectionComplete(players[:1], nil) {
		t.Fatal("expected zero submissions never to complete")
	}
}

func TestNextCzarRotatesJoinOrder(t *testing.T) {
	ana := store.Player{ID: uuid.New(), Name: "Ana"}
	beto := store.Player{ID: uuid.New(), Name: "Beto"}
	carla := store.Player{ID: uuid.New(), Name: "Carla"}
	players := []store.Player{ana, beto, carla}

	next, ok := NextCzar(players, &ana.ID)
	if !ok || next != beto.ID {
		t.Fatalf("expected Beto after Ana, got %s ok=%v", next, ok)
	}
	next, ok = NextCzar(players, &carla.ID)
	if !ok || next != ana.ID {
		t.Fatalf("expected wrap to Ana after Carla, got %s ok=%v", next, ok)
	}
}

func TestNextCzarDepartedCzarRestartsAtZero(t *testing.T) {
	ana := store.Player{ID: uuid.New(), Name: "Ana"}
	beto := store.Player{ID: uuid.New(), Name: "Beto"}
	gone := uuid.New()

	next, ok := NextCzar([]store.Player{ana, beto}, &gone)
	if !ok || next != ana.ID {
		t.Fatalf("expected rotation to restart at Ana, got %s ok=%v", next, ok)
	}
	next, ok = NextCzar([]store.Player{ana, beto}, nil)
	if !ok || next != ana.ID {
		t.Fatalf("expected nil czar to restart at Ana, got %s ok=%v", next, ok)
	}
	if _, ok := NextCzar(nil, &gone); ok {
		t.Fatal("expected empty roster to yield no czar")
	}
}

func TestHostMissing(t *testing.T) {
	if HostMissing(nil) {
		t.Fatal("expected empty roster not to trigger promotion")
	}
	if HostMissing([]store.Player{{IsHost: true}, {}}) {
		t.Fatal("expected roster with host not to trigger promotion")
	}
	if !HostMissing([]store.Player{{}, {}}) {
		t.Fatal("expected hostless roster to trigger promotion")
	}
}

func TestIsCzarAndHasSubmitted(t *testing.T) {
	czarID := uuid.New()
	room := &store.Room{CzarID: &czarID}
	if !isCzar(room, czarID) {
		t.Fatal("expected czar match")
	}
	if isCzar(room, uuid.New()) {
		t.Fatal("expected non-czar mismatch")
	}
	if isCzar(&store.Room{}, czarID) {
		t.Fatal("expected nil czar field to match nobody")
	}

	playerID := uuid.New()
	subs := []store.Submission{{PlayerID: playerID}}
	if !hasSubmitted(subs, playerID) {
		t.Fatal("expected submitted player to be detected")
	}
	if hasSubmitted(subs, uuid.New()) {
		t.Fatal("expected other player to be clean")
	}
}
