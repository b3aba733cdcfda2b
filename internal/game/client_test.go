package game

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"sin-limites/internal/config"
	"sin-limites/internal/store"
)

type fixture struct {
	store *store.Store
	rooms RoomStore
	room  store.Room
	cfg   config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	s := store.New(nil, cfg)
	room, err := s.CreateRoom()
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return &fixture{store: s, rooms: NewDirect(s), room: room, cfg: cfg}
}

func (f *fixture) client(t *testing.T, name string) *Client {
	t.Helper()
	c := NewClient(f.rooms, testDeck(t), f.cfg, f.room.Code, name)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return c
}

func refetchAll(t *testing.T, clients ...*Client) {
	t.Helper()
	for _, c := range clients {
		roomID := c.Snapshot().Room.ID
		if err := c.refetch(context.Background(), roomID); err != nil {
			t.Fatalf("refetch: %v", err)
		}
	}
}

// splitByCzar separates a two-player pair into the submitting client
// and the czar client.
func splitByCzar(t *testing.T, f *fixture, a, b *Client) (picker, czar *Client) {
	t.Helper()
	room, _ := f.store.RoomByID(f.room.ID)
	if room.CzarID == nil {
		t.Fatal("expected czar assigned")
	}
	if a.Snapshot().CurrentPlayer.ID == *room.CzarID {
		return b, a
	}
	return a, b
}

func TestLoadJoinsAndDealsHand(t *testing.T) {
	f := newFixture(t)
	ana := f.client(t, "Ana")

	snap := ana.Snapshot()
	if snap.Loading {
		t.Fatal("expected loading cleared")
	}
	if snap.CurrentPlayer == nil || snap.CurrentPlayer.Name != "Ana" {
		t.Fatalf("expected current player Ana, got %#v", snap.CurrentPlayer)
	}
	if !snap.CurrentPlayer.IsHost {
		t.Fatal("expected first joiner to host")
	}
	if len(snap.Hand) != f.cfg.HandSize {
		t.Fatalf("expected %d-card hand, got %d", f.cfg.HandSize, len(snap.Hand))
	}
	seen := make(map[int]struct{})
	for _, card := range snap.Hand {
		if _, dup := seen[card]; dup {
			t.Fatalf("duplicate card %d in dealt hand", card)
		}
		seen[card] = struct{}{}
	}
}

func TestLoadUnknownCodeFails(t *testing.T) {
	f := newFixture(t)
	c := NewClient(f.rooms, testDeck(t), f.cfg, "ZZZZZ", "Ana")
	if err := c.Load(context.Background()); err != store.ErrRoomNotFound {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestStartGameRequiresHostAndQuorum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.client(t, "Ana")

	// Alone in the lobby: refused locally, nothing written.
	if err := ana.StartGame(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	room, _ := f.store.RoomByID(f.room.ID)
	if room.State != store.StateLobby {
		t.Fatalf("expected LOBBY, got %s", room.State)
	}

	beto := f.client(t, "Beto")
	refetchAll(t, ana, beto)

	if err := beto.StartGame(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	room, _ = f.store.RoomByID(f.room.ID)
	if room.State != store.StateLobby {
		t.Fatal("expected non-host start to be refused")
	}

	if err := ana.StartGame(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	room, _ = f.store.RoomByID(f.room.ID)
	if room.State != store.StateSelection {
		t.Fatalf("expected SELECTION, got %s", room.State)
	}
	if room.CzarID == nil || room.PromptCardID == nil {
		t.Fatalf("expected czar and prompt assigned, got %#v", room)
	}
}

func TestStartGameDoubleFireIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.client(t, "Ana")
	f.client(t, "Beto")
	refetchAll(t, ana)

	if err := ana.StartGame(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	started, _ := f.store.RoomByID(f.room.ID)

	// Ana's snapshot is stale (still LOBBY); the guard on the store
	// side bounces the write silently.
	if err := ana.StartGame(ctx); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	after, _ := f.store.RoomByID(f.room.ID)
	if after.CzarID == nil || *after.CzarID != *started.CzarID || *after.PromptCardID != *started.PromptCardID {
		t.Fatalf("expected second start to change nothing, got %#v", after)
	}
}

func TestSubmitAnswerCompletesSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.client(t, "Ana")
	beto := f.client(t, "Beto")
	refetchAll(t, ana, beto)

	if err := ana.StartGame(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	refetchAll(t, ana, beto)
	picker, czar := splitByCzar(t, f, ana, beto)

	// The czar cannot submit.
	if err := czar.SubmitAnswer(ctx, 0); err != nil {
		t.Fatalf("czar submit: %v", err)
	}
	if subs := f.store.SubmissionsByRoom(f.room.ID); len(subs) != 0 {
		t.Fatalf("expected czar submit refused, got %d submissions", len(subs))
	}

	before := picker.Snapshot().Hand
	submitted := before[2]
	if err := picker.SubmitAnswer(ctx, 2); err != nil {
		t.Fatalf("submit: %v", err)
	}

	subs := f.store.SubmissionsByRoom(f.room.ID)
	if len(subs) != 1 || subs[0].AnswerCardID != submitted {
		t.Fatalf("expected one submission of card %d, got %#v", submitted, subs)
	}

	after := picker.Snapshot().Hand
	if len(after) != len(before) {
		t.Fatalf("expected hand size stable, got %d", len(after))
	}
	for i := range after {
		if i != 2 && after[i] != before[i] {
			t.Fatalf("expected slot %d untouched", i)
		}
	}

	// Last non-czar answer fires the JUDGING transition.
	room, _ := f.store.RoomByID(f.room.ID)
	if room.State != store.StateJudging {
		t.Fatalf("expected JUDGING, got %s", room.State)
	}
}

func TestSubmitAnswerSecondAttemptRefusedLocally(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.client(t, "Ana")
	beto := f.client(t, "Beto")
	carla := f.client(t, "Carla")
	refetchAll(t, ana, beto, carla)

	if err := ana.StartGame(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	refetchAll(t, ana, beto, carla)

	room, _ := f.store.RoomByID(f.room.ID)
	var picker *Client
	for _, c := range []*Client{ana, beto, carla} {
		if c.Snapshot().CurrentPlayer.ID != *room.CzarID {
			picker = c
			break
		}
	}

	if err := picker.SubmitAnswer(ctx, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	refetchAll(t, picker)
	if err := picker.SubmitAnswer(ctx, 1); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if subs := f.store.SubmissionsByRoom(f.room.ID); len(subs) != 1 {
		t.Fatalf("expected one submission, got %d", len(subs))
	}

	// Two of three players answered: not complete yet.
	current, _ := f.store.RoomByID(f.room.ID)
	if current.State != store.StateSelection {
		t.Fatalf("expected SELECTION with outstanding answers, got %s", current.State)
	}
}

func TestPickWinnerScoresOnceAndReveals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.client(t, "Ana")
	beto := f.client(t, "Beto")
	refetchAll(t, ana, beto)

	if err := ana.StartGame(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	refetchAll(t, ana, beto)
	picker, czar := splitByCzar(t, f, ana, beto)

	if err := picker.SubmitAnswer(ctx, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	refetchAll(t, ana, beto)

	subs := f.store.SubmissionsByRoom(f.room.ID)
	if err := czar.PickWinner(ctx, subs[0].ID); err != nil {
		t.Fatalf("pick winner: %v", err)
	}

	room, _ := f.store.RoomByID(f.room.ID)
	if room.State != store.StateReveal {
		t.Fatalf("expected REVEAL, got %s", room.State)
	}
	if room.WinnerID == nil || *room.WinnerID != subs[0].PlayerID {
		t.Fatalf("expected winner %s, got %#v", subs[0].PlayerID, room.WinnerID)
	}
	if room.WinningAnswerID == nil || *room.WinningAnswerID != subs[0].ID {
		t.Fatalf("expected winning answer %s, got %#v", subs[0].ID, room.WinningAnswerID)
	}

	score := func() int {
		for _, player := range f.store.PlayersByRoom(f.room.ID) {
			if player.ID == subs[0].PlayerID {
				return player.Score
			}
		}
		t.Fatal("winner missing from roster")
		return 0
	}
	if got := score(); got != 1 {
		t.Fatalf("expected winner score 1, got %d", got)
	}

	// Replaying the pick against the stale JUDGING snapshot bounces off
	// the guard before any score write.
	if err := czar.PickWinner(ctx, subs[0].ID); err != nil {
		t.Fatalf("second pick: %v", err)
	}
	if got := score(); got != 1 {
		t.Fatalf("expected score unchanged after double pick, got %d", got)
	}
}

func TestPickWinnerUnknownSubmissionAborts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.client(t, "Ana")
	beto := f.client(t, "Beto")
	refetchAll(t, ana, beto)

	if err := ana.StartGame(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	refetchAll(t, ana, beto)
	picker, czar := splitByCzar(t, f, ana, beto)
	if err := picker.SubmitAnswer(ctx, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	refetchAll(t, ana, beto)

	if err := czar.PickWinner(ctx, uuid.New()); err != nil {
		t.Fatalf("pick with unknown id: %v", err)
	}
	room, _ := f.store.RoomByID(f.room.ID)
	if room.State != store.StateJudging {
		t.Fatalf("expected JUDGING untouched, got %s", room.State)
	}
}

func TestFullRoundAndNextRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.client(t, "Ana")
	beto := f.client(t, "Beto")
	refetchAll(t, ana, beto)

	if err := ana.StartGame(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	refetchAll(t, ana, beto)
	picker, czar := splitByCzar(t, f, ana, beto)

	if err := picker.SubmitAnswer(ctx, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	refetchAll(t, ana, beto)
	subs := f.store.SubmissionsByRoom(f.room.ID)
	if err := czar.PickWinner(ctx, subs[0].ID); err != nil {
		t.Fatalf("pick winner: %v", err)
	}
	refetchAll(t, ana, beto)

	if err := czar.Advance(ctx); err != nil {
		t.Fatalf("advance: %v", err)
	}
	room, _ := f.store.RoomByID(f.room.ID)
	if room.State != store.StateResults {
		t.Fatalf("expected RESULTS, got %s", room.State)
	}
	firstCzar := *room.CzarID
	refetchAll(t, ana, beto)

	if err := czar.NextRound(ctx); err != nil {
		t.Fatalf("next round: %v", err)
	}
	room, _ = f.store.RoomByID(f.room.ID)
	if room.State != store.StateSelection {
		t.Fatalf("expected SELECTION, got %s", room.State)
	}
	if room.WinnerID != nil || room.WinningAnswerID != nil {
		t.Fatalf("expected winner fields cleared, got %#v", room)
	}
	if room.CzarID == nil || *room.CzarID == firstCzar {
		t.Fatal("expected czar to rotate to the other player")
	}
	if subs := f.store.SubmissionsByRoom(f.room.ID); len(subs) != 0 {
		t.Fatalf("expected submissions cleared, got %d", len(subs))
	}
}

func TestNextRoundAfterCzarLeft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.client(t, "Ana")
	beto := f.client(t, "Beto")
	carla := f.client(t, "Carla")
	refetchAll(t, ana, beto, carla)

	if err := ana.StartGame(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	refetchAll(t, ana, beto, carla)

	// Force RESULTS with a czar who then leaves the room.
	room, _ := f.store.RoomByID(f.room.ID)
	czarID := *room.CzarID
	if _, err := f.store.UpdateRoom(f.room.ID, store.StateSelection, store.RoomChanges{State: store.StateResults}.Apply); err != nil {
		t.Fatalf("force results: %v", err)
	}
	if _, err := f.store.RemovePlayer(czarID); err != nil {
		t.Fatalf("remove czar: %v", err)
	}

	var host *Client
	for _, c := range []*Client{ana, beto, carla} {
		if c.Snapshot().CurrentPlayer.ID == czarID {
			continue
		}
		refetchAll(t, c)
		if c.Snapshot().CurrentPlayer != nil && c.Snapshot().CurrentPlayer.IsHost {
			host = c
		}
	}
	if host == nil {
		// The host was the czar who left; promote manually and use the
		// first survivor.
		players := f.store.PlayersByRoom(f.room.ID)
		isHost := true
		if _, err := f.store.UpdatePlayer(players[0].ID, store.PlayerChanges{IsHost: &isHost}.Apply); err != nil {
			t.Fatalf("promote: %v", err)
		}
		for _, c := range []*Client{ana, beto, carla} {
			refetchAll(t, c)
			current := c.Snapshot().CurrentPlayer
			if current != nil && current.ID == players[0].ID {
				host = c
			}
		}
	}

	if err := host.NextRound(ctx); err != nil {
		t.Fatalf("next round: %v", err)
	}
	room, _ = f.store.RoomByID(f.room.ID)
	if room.State != store.StateSelection {
		t.Fatalf("expected SELECTION, got %s", room.State)
	}
	survivors := f.store.PlayersByRoom(f.room.ID)
	if room.CzarID == nil || *room.CzarID != survivors[0].ID {
		t.Fatalf("expected rotation to restart at first survivor, got %#v", room.CzarID)
	}
}

func TestHostPromotionOnHostLeave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.client(t, "Ana")
	beto := f.client(t, "Beto")
	refetchAll(t, ana, beto)

	host := ana.Snapshot().CurrentPlayer
	removed, err := f.store.RemovePlayer(host.ID)
	if err != nil {
		t.Fatalf("remove host: %v", err)
	}

	beto.apply(ctx, store.Event{Table: store.TablePlayers, Type: store.EventDelete, Player: &removed})

	players := f.store.PlayersByRoom(f.room.ID)
	if len(players) != 1 || !players[0].IsHost {
		t.Fatalf("expected surviving player promoted to host, got %#v", players)
	}
}

func TestApplyFoldsFeedEvents(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ana := f.client(t, "Ana")
	roomID := ana.Snapshot().Room.ID
	events, unsubscribe, err := f.rooms.Subscribe(ctx, roomID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()

	f.client(t, "Beto")
	event := <-events
	if event.Table != store.TablePlayers || event.Type != store.EventInsert {
		t.Fatalf("expected player INSERT, got %#v", event)
	}
	ana.apply(ctx, event)

	snap := ana.Snapshot()
	if len(snap.Players) != 2 {
		t.Fatalf("expected Beto folded into roster, got %d players", len(snap.Players))
	}
}
