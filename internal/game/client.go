package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sin-limites/internal/config"
	"sin-limites/internal/deck"
	"sin-limites/internal/store"
)

// ErrFeedClosed reports that the store dropped this client's change
// feed (slow consumer or shutdown). The client keeps its last
// known-good snapshot; callers decide whether to reconnect.
var ErrFeedClosed = errors.New("change feed closed")

// Client runs one player's side of the round state machine: it holds
// the local snapshot, folds change-feed events into it, and issues the
// store mutations behind each user intent. Intents are fire-and-forget
// from the presentation layer's perspective; a failed store round-trip
// is logged and aborted with no local state change, and a stale guard
// is a silent no-op.
type Client struct {
	rooms   RoomStore
	catalog *deck.Deck
	cfg     config.Config
	code    string
	name    string
	rng     *rand.Rand

	mu   sync.Mutex
	snap Snapshot
}

func NewClient(rooms RoomStore, catalog *deck.Deck, cfg config.Config, code, name string) *Client {
	return &Client{
		rooms:   rooms,
		catalog: catalog,
		cfg:     cfg,
		code:    code,
		name:    name,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		snap:    Snapshot{Loading: true},
	}
}

// Snapshot returns the current local view. Slices are replaced, never
// mutated in place, so the returned value is safe to read.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Load performs the initial full refetch, joins the roster under the
// client's name, and deals the private hand.
func (c *Client) Load(ctx context.Context) error {
	room, err := c.rooms.RoomByCode(ctx, c.code)
	if err != nil {
		return err
	}
	if c.name != "" {
		if _, err := c.rooms.JoinRoom(ctx, room.ID, c.name); err != nil {
			return err
		}
	}
	if err := c.refetch(ctx, room.ID); err != nil {
		return err
	}
	c.mu.Lock()
	if len(c.snap.Hand) == 0 {
		c.snap.Hand = dealHand(c.rng, c.catalog.NumAnswers(), c.cfg.HandSize)
	}
	c.snap.Loading = false
	c.mu.Unlock()
	return nil
}

// refetch replaces the room, roster and submission slices wholesale.
// The hand and current-player identity survive; both are client-local.
func (c *Client) refetch(ctx context.Context, roomID uuid.UUID) error {
	room, err := c.rooms.RoomByCode(ctx, c.code)
	if err != nil {
		return err
	}
	players, err := c.rooms.PlayersByRoom(ctx, roomID)
	if err != nil {
		return err
	}
	submissions, err := c.rooms.SubmissionsByRoom(ctx, roomID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var current *store.Player
	for i := range players {
		if players[i].Name == c.name && c.name != "" {
			row := players[i]
			current = &row
			break
		}
	}
	c.snap.Room = &room
	c.snap.Players = players
	c.snap.CurrentPlayer = current
	c.snap.Submissions = submissions
	c.snap.PromptCard = resolvePromptCard(&room, c.catalog)
	return nil
}

// Run drives the synchronization loop: initial load, then change-feed
// consumption until the context ends or the feed closes.
func (c *Client) Run(ctx context.Context) error {
	if err := c.Load(ctx); err != nil {
		return err
	}
	roomID := c.Snapshot().Room.ID
	events, cancel, err := c.rooms.Subscribe(ctx, roomID)
	if err != nil {
		return err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return ErrFeedClosed
			}
			c.apply(ctx, event)
		}
	}
}

func (c *Client) apply(ctx context.Context, event store.Event) {
	c.mu.Lock()
	c.snap = Reduce(c.snap, event, c.catalog)
	snap := c.snap
	c.mu.Unlock()

	// The room row changing is the highest-value consistency signal;
	// force a full refetch behind it.
	if event.Table == store.TableRooms && snap.Room != nil {
		if err := c.refetch(ctx, snap.Room.ID); err != nil {
			log.Error().Err(err).Str("room_code", c.code).Msg("refetch after room change failed")
		}
	}
	if event.Table == store.TablePlayers && event.Type == store.EventDelete {
		if HostMissing(snap.Players) {
			c.promoteHost(ctx, snap.Players)
		}
	}
}

// promoteHost is the best-effort, at-least-once host migration: promote
// the first remaining player by join order. Concurrent promotions by
// other clients are harmless for the same target; simultaneous
// multi-leaves may double-promote, an accepted race.
func (c *Client) promoteHost(ctx context.Context, players []store.Player) {
	first, ok := firstPlayer(players)
	if !ok {
		return
	}
	isHost := true
	if _, err := c.rooms.UpdatePlayer(ctx, first.ID, store.PlayerChanges{IsHost: &isHost}); err != nil {
		log.Warn().Err(err).Str("room_code", c.code).Str("player", first.Name).Msg("host promotion failed")
	}
}

// StartGame moves LOBBY to SELECTION with a random prompt card and a
// random czar. Host-only, two players minimum.
func (c *Client) StartGame(ctx context.Context) error {
	snap := c.Snapshot()
	if !canStart(snap, c.cfg.MinPlayers) {
		return nil
	}
	prompt := c.catalog.RandomPrompt(c.rng)
	czar := snap.Players[c.rng.Intn(len(snap.Players))]
	promptID := prompt.ID
	czarID := czar.ID

	_, err := c.rooms.UpdateRoom(ctx, snap.Room.ID, store.StateLobby, store.RoomChanges{
		State:        store.StateSelection,
		CzarID:       &czarID,
		PromptCardID: &promptID,
	})
	if errors.Is(err, store.ErrStaleGuard) {
		return nil
	}
	if err != nil {
		log.Error().Err(err).Str("room_code", c.code).Msg("start game failed")
		return err
	}
	return nil
}

// SubmitAnswer submits the card at the given hand slot and replaces
// the slot with a fresh draw. When the fresh roster and submission
// counts show every non-czar has answered, it also fires the
// SELECTION to JUDGING transition; the store guard collapses racing
// attempts into one.
func (c *Client) SubmitAnswer(ctx context.Context, handIndex int) error {
	snap := c.Snapshot()
	if snap.Room == nil || snap.Room.State != store.StateSelection || snap.CurrentPlayer == nil {
		return nil
	}
	if isCzar(snap.Room, snap.CurrentPlayer.ID) {
		return nil
	}
	if hasSubmitted(snap.Submissions, snap.CurrentPlayer.ID) {
		return nil
	}
	if handIndex < 0 || handIndex >= len(snap.Hand) {
		return nil
	}

	cardID := snap.Hand[handIndex]
	_, err := c.rooms.InsertSubmission(ctx, snap.Room.ID, snap.CurrentPlayer.ID, cardID)
	if errors.Is(err, store.ErrAlreadySubmitted) {
		return nil
	}
	if err != nil {
		log.Error().Err(err).Str("room_code", c.code).Msg("submit answer failed")
		return err
	}

	c.mu.Lock()
	c.snap.Hand = replaceSlot(c.snap.Hand, handIndex, c.rng, c.catalog.NumAnswers())
	c.mu.Unlock()

	// Completion must compare counts fetched now, not the cached
	// roster: players can join or leave mid-round.
	players, err := c.rooms.PlayersByRoom(ctx, snap.Room.ID)
	if err != nil {
		log.Error().Err(err).Str("room_code", c.code).Msg("completion check failed")
		return err
	}
	submissions, err := c.rooms.SubmissionsByRoom(ctx, snap.Room.ID)
	if err != nil {
		log.Error().Err(err).Str("room_code", c.code).Msg("completion check failed")
		return err
	}
	if SelectionComplete(players, submissions) {
		_, err := c.rooms.UpdateRoom(ctx, snap.Room.ID, store.StateSelection, store.RoomChanges{State: store.StateJudging})
		if err != nil && !errors.Is(err, store.ErrStaleGuard) {
			log.Error().Err(err).Str("room_code", c.code).Msg("judging transition failed")
			return err
		}
	}
	return nil
}

// PickWinner records the czar's choice: the room enters REVEAL with the
// winner and winning submission noted, and the submitter scores a
// point. The point is awarded only by the client whose transition was
// accepted, so a double pick cannot double-score.
func (c *Client) PickWinner(ctx context.Context, submissionID uuid.UUID) error {
	snap := c.Snapshot()
	if snap.Room == nil || snap.Room.State != store.StateJudging || snap.CurrentPlayer == nil {
		return nil
	}
	if !isCzar(snap.Room, snap.CurrentPlayer.ID) {
		return nil
	}
	winning, ok := findSubmission(snap.Submissions, submissionID)
	if !ok {
		log.Warn().Str("room_code", c.code).Str("submission_id", submissionID.String()).Msg("winner pick found no matching submission")
		return nil
	}

	winnerID := winning.PlayerID
	answerID := winning.ID
	_, err := c.rooms.UpdateRoom(ctx, snap.Room.ID, store.StateJudging, store.RoomChanges{
		State:           store.StateReveal,
		WinnerID:        &winnerID,
		WinningAnswerID: &answerID,
	})
	if errors.Is(err, store.ErrStaleGuard) {
		return nil
	}
	if err != nil {
		log.Error().Err(err).Str("room_code", c.code).Msg("pick winner failed")
		return err
	}

	players, err := c.rooms.PlayersByRoom(ctx, snap.Room.ID)
	if err != nil {
		log.Error().Err(err).Str("room_code", c.code).Msg("score lookup failed")
		return err
	}
	winner, ok := findPlayer(players, winning.PlayerID)
	if !ok {
		log.Warn().Str("room_code", c.code).Msg("winner left before scoring")
		return nil
	}
	score := winner.Score + 1
	if _, err := c.rooms.UpdatePlayer(ctx, winning.PlayerID, store.PlayerChanges{Score: &score}); err != nil {
		log.Error().Err(err).Str("room_code", c.code).Msg("score update failed")
		return err
	}
	return nil
}

// Advance moves REVEAL to RESULTS. Czar-only.
func (c *Client) Advance(ctx context.Context) error {
	snap := c.Snapshot()
	if snap.Room == nil || snap.Room.State != store.StateReveal || snap.CurrentPlayer == nil {
		return nil
	}
	if !isCzar(snap.Room, snap.CurrentPlayer.ID) {
		return nil
	}
	_, err := c.rooms.UpdateRoom(ctx, snap.Room.ID, store.StateReveal, store.RoomChanges{State: store.StateResults})
	if errors.Is(err, store.ErrStaleGuard) {
		return nil
	}
	if err != nil {
		log.Error().Err(err).Str("room_code", c.code).Msg("advance failed")
		return err
	}
	return nil
}

// NextRound starts a fresh round from RESULTS: submissions are cleared
// in bulk, the czar rotates through the current roster, a new prompt is
// drawn and the winner fields reset. Host or czar may trigger it.
func (c *Client) NextRound(ctx context.Context) error {
	snap := c.Snapshot()
	if snap.Room == nil || snap.Room.State != store.StateResults || snap.CurrentPlayer == nil {
		return nil
	}
	if !snap.CurrentPlayer.IsHost && !isCzar(snap.Room, snap.CurrentPlayer.ID) {
		return nil
	}

	if err := c.rooms.DeleteSubmissions(ctx, snap.Room.ID); err != nil {
		log.Error().Err(err).Str("room_code", c.code).Msg("clearing submissions failed")
		return err
	}
	players, err := c.rooms.PlayersByRoom(ctx, snap.Room.ID)
	if err != nil {
		log.Error().Err(err).Str("room_code", c.code).Msg("roster fetch failed")
		return err
	}
	czarID, ok := NextCzar(players, snap.Room.CzarID)
	if !ok {
		return nil
	}
	prompt := c.catalog.RandomPrompt(c.rng)
	promptID := prompt.ID

	_, err = c.rooms.UpdateRoom(ctx, snap.Room.ID, store.StateResults, store.RoomChanges{
		State:        store.StateSelection,
		CzarID:       &czarID,
		PromptCardID: &promptID,
		ClearWinner:  true,
	})
	if errors.Is(err, store.ErrStaleGuard) {
		return nil
	}
	if err != nil {
		log.Error().Err(err).Str("room_code", c.code).Msg("next round failed")
		return err
	}
	return nil
}
