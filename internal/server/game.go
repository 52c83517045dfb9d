package server

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/agent"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/game"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/history"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/protocol"
)

// Client is one attached spectator-free player connection. *Session
// implements it; tests substitute fakes.
type Client interface {
	SessionID() string
	Player() string
	Deliver(env protocol.Envelope)
	Fail(code, message string)
	Kick()
}

// Intents posted onto a game's serialization point.
type clientMsg struct {
	c Client
	m *protocol.ClientMessage
}

type attachReq struct {
	c Client
}

type detachReq struct {
	c Client
}

type aiDone struct {
	gen int
	dec agent.Decision
	err error
}

type ackKey struct {
	handID   int
	eventSeq int
}

// Game is one running game instance: a table, its connected clients, and
// the single goroutine that owns all state. Every mutation — client
// messages, AI completions, timer fires — arrives through the intents
// channel and is applied by that goroutine alone.
type Game struct {
	ID string

	logger   *log.Logger
	clock    quartz.Clock
	timing   Timing
	table    *game.Table
	decider  agent.Decider
	memory   agent.Memory
	recorder history.Recorder
	metrics  *Metrics
	seeds    *rand.Rand

	intents chan any
	stop    chan struct{}
	stopped chan struct{}

	// Loop-owned state; never touched off the loop goroutine.
	clients   map[string]Client // player id → connection
	hand      *game.Hand
	handStart time.Time
	seq       int
	acked     map[ackKey]bool
	lastGated *protocol.Envelope
	pending   *pendingTurn
	aiGen     int

	clientCount  atomic.Int32
	lastActivity atomic.Int64 // unix milli
}

// pendingTurn is the outstanding action_request, kept for reconnect
// replay and stale-input rejection.
type pendingTurn struct {
	handID   int
	seat     int
	playerID string
	actions  game.ValidActions
	seq      int // event_seq of the original action_request, reused on replay
	deadline time.Time
}

// GameDeps bundles the process-wide collaborators a game needs.
type GameDeps struct {
	Clock    quartz.Clock
	Logger   *log.Logger
	Decider  agent.Decider
	Memory   agent.Memory
	Recorder history.Recorder
	Metrics  *Metrics
	SeedSrc  rand.Source
}

// NewGame assembles a game around a table. Run must be called exactly
// once.
func NewGame(id string, table *game.Table, timing Timing, deps GameDeps) *Game {
	g := &Game{
		ID:       id,
		logger:   deps.Logger.WithPrefix("game").With("game_id", id),
		clock:    deps.Clock,
		timing:   timing,
		table:    table,
		decider:  deps.Decider,
		memory:   deps.Memory,
		recorder: deps.Recorder,
		metrics:  deps.Metrics,
		seeds:    rand.New(deps.SeedSrc),
		intents:  make(chan any, 128),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
		clients:  make(map[string]Client),
		acked:    make(map[ackKey]bool),
	}
	g.touch()
	return g
}

func (g *Game) touch() {
	g.lastActivity.Store(g.clock.Now().UnixMilli())
}

// IdleSince reports the last client activity, for the registry reaper.
func (g *Game) IdleSince() time.Time {
	return time.UnixMilli(g.lastActivity.Load())
}

// ClientCount reports attached connections.
func (g *Game) ClientCount() int {
	return int(g.clientCount.Load())
}

// Attach hands a connection to the game loop. The session starts
// receiving events once the loop registers it.
func (g *Game) Attach(c Client) {
	select {
	case g.intents <- attachReq{c: c}:
	case <-g.stop:
		c.Kick()
	}
}

// Detach notifies the loop that a connection died.
func (g *Game) Detach(c Client) {
	select {
	case g.intents <- detachReq{c: c}:
	case <-g.stop:
	}
}

// Inbound delivers one decoded client message to the loop.
func (g *Game) Inbound(c Client, m *protocol.ClientMessage) {
	select {
	case g.intents <- clientMsg{c: c, m: m}:
	case <-g.stop:
	}
}

// Stop shuts the loop down. Blocks until it has exited.
func (g *Game) Stop() {
	select {
	case <-g.stop:
	default:
		close(g.stop)
	}
	<-g.stopped
}

// Run is the game's serialization point: it alternates between idling on
// intents and playing hands, and is the only goroutine that mutates game
// state.
func (g *Game) Run() {
	defer close(g.stopped)
	g.logger.Info("game loop started")

	for {
		select {
		case <-g.stop:
			g.logger.Info("game loop stopped")
			return
		case in := <-g.intents:
			g.handleBackground(in)
		default:
		}

		if !g.readyToDeal() {
			select {
			case <-g.stop:
				g.logger.Info("game loop stopped")
				return
			case in := <-g.intents:
				g.handleBackground(in)
			}
			continue
		}

		g.playHand()
	}
}

// readyToDeal requires a connected human and a playable table.
func (g *Game) readyToDeal() bool {
	humanConnected := false
	for _, p := range g.table.Seats() {
		if p != nil && p.Human {
			if _, ok := g.clients[p.ID]; ok && p.Chips > 0 {
				humanConnected = true
			}
		}
	}
	if !humanConnected {
		return false
	}
	dealable := 0
	for _, p := range g.table.Seats() {
		if p != nil && p.Chips > 0 && p.Status != game.StatusSittingOut && p.Status != game.StatusAway {
			dealable++
		}
	}
	return dealable >= 2
}

// handleBackground processes an intent that arrives outside a turn or
// gate wait: attaches, detaches, and messages that cannot advance the
// hand right now.
func (g *Game) handleBackground(in any) {
	switch v := in.(type) {
	case attachReq:
		g.handleAttach(v.c)
	case detachReq:
		g.handleDetach(v.c)
	case clientMsg:
		g.touch()
		switch {
		case v.m.Action != nil:
			g.rejectAction(v.c, v.m.Action)
		case v.m.AnimationDone != nil:
			g.noteAck(v.m.AnimationDone)
		}
	case aiDone:
		// Stale AI completion from a canceled turn; discard.
	}
}

// rejectAction answers an action that arrived when no matching turn is
// open.
func (g *Game) rejectAction(c Client, m *protocol.ActionMsg) {
	if g.hand == nil || m.HandID != g.hand.ID {
		c.Fail(protocol.CodeStaleHandID, "no such hand")
		return
	}
	c.Fail(protocol.CodeNotYourTurn, "no action is expected from you")
}

// noteAck records an ack so a gate that has not started waiting yet (or
// already timed out) treats it as delivered. Idempotent; unknown keys are
// ignored as late or duplicate.
func (g *Game) noteAck(m *protocol.AnimationDoneMsg) {
	if g.hand == nil || m.HandID != g.hand.ID {
		return
	}
	g.acked[ackKey{handID: m.HandID, eventSeq: m.EventSeq}] = true
	if g.lastGated != nil && g.lastGated.HandID == m.HandID && g.lastGated.EventSeq == m.EventSeq {
		g.lastGated = nil
	}
}

// handleAttach registers (or replaces) the connection for a player and
// replays enough state to resume: the latest snapshot, the most recent
// unacked gated event, and the outstanding action_request if it is that
// player's turn.
func (g *Game) handleAttach(c Client) {
	p := g.table.PlayerByID(c.Player())
	if p == nil {
		c.Fail(protocol.CodeGameNotFound, "no seat for this player")
		c.Kick()
		return
	}

	if old, ok := g.clients[c.Player()]; ok && old.SessionID() != c.SessionID() {
		g.logger.Info("replacing session", "player_id", c.Player(), "old_session", old.SessionID())
		old.Kick()
	}
	g.clients[c.Player()] = c
	g.clientCount.Store(int32(len(g.clients)))
	g.touch()
	g.logger.Info("client attached", "player_id", c.Player(), "session_id", c.SessionID())

	g.sendSnapshot(c, p.Seat)
	if g.lastGated != nil {
		c.Deliver(*g.lastGated)
	}
	if g.pending != nil && g.pending.playerID == c.Player() {
		g.sendActionRequest(c, g.pending)
	}
}

func (g *Game) handleDetach(c Client) {
	cur, ok := g.clients[c.Player()]
	if !ok || cur.SessionID() != c.SessionID() {
		return
	}
	delete(g.clients, c.Player())
	g.clientCount.Store(int32(len(g.clients)))
	g.logger.Info("client detached", "player_id", c.Player(), "session_id", c.SessionID())
}

// sendSnapshot delivers a masked game_state to one client.
func (g *Game) sendSnapshot(c Client, seat int) {
	var snap game.Snapshot
	if g.hand != nil {
		snap = g.hand.Snapshot(seat, g.hand.Phase >= game.PhaseShowdown)
	} else {
		snap = g.waitingSnapshot()
	}
	env, err := protocol.NewEvent(protocol.EventGameState, snap.HandID, g.seq, g.now(), snap)
	if err != nil {
		g.logger.Error("marshal game_state", "err", err)
		return
	}
	c.Deliver(env)
}

// waitingSnapshot renders the table between hands.
func (g *Game) waitingSnapshot() game.Snapshot {
	cfg := g.table.Config()
	snap := game.Snapshot{
		Phase:      game.PhaseWaiting.String(),
		ActionOn:   -1,
		SmallBlind: cfg.SmallBlind,
		BigBlind:   cfg.BigBlind,
		Ante:       cfg.Ante,
	}
	for _, p := range g.table.Seats() {
		if p == nil {
			continue
		}
		snap.Players = append(snap.Players, game.PlayerView{
			ID:     p.ID,
			Name:   p.Name,
			Seat:   p.Seat,
			Chips:  p.Chips,
			Status: p.Status.String(),
			Human:  p.Human,
		})
	}
	return snap
}

func (g *Game) sendActionRequest(c Client, t *pendingTurn) {
	remaining := t.deadline.Sub(g.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	options := make([]string, 0, len(t.actions.Options))
	for _, o := range t.actions.Options {
		options = append(options, o.String())
	}
	env, err := protocol.NewEvent(protocol.EventActionRequest, t.handID, t.seq, g.now(), protocol.ActionRequest{
		HandID:      t.handID,
		Seat:        t.seat,
		Options:     options,
		CallAmount:  t.actions.CallAmount,
		MinRaise:    t.actions.MinRaise,
		MaxRaise:    t.actions.MaxRaise,
		TimeLimitMs: remaining.Milliseconds(),
	})
	if err != nil {
		g.logger.Error("marshal action_request", "err", err)
		return
	}
	c.Deliver(env)
}

func (g *Game) now() int64 {
	return g.clock.Now().UnixMilli()
}

// playHand runs one complete hand: deal, betting streets, settlement.
func (g *Game) playHand() {
	seed := g.seeds.Int63()
	h, err := g.table.StartHand(seed)
	if err != nil {
		g.logger.Warn("cannot start hand", "err", err)
		return
	}
	g.hand = h
	g.handStart = g.clock.Now()
	g.seq = 0
	g.acked = make(map[ackKey]bool)
	g.lastGated = nil
	g.logger.Info("hand started", "hand_id", h.ID, "button", h.Button, "seed", seed)

	g.broadcastSnapshots()
	for _, post := range h.Begin() {
		g.emitPlayerAction(post.Seat, post.Type, post.Amount, true)
	}
	// Hole cards were dealt after the opening snapshot; refresh.
	g.broadcastSnapshots()

	for {
		select {
		case <-g.stop:
			return
		default:
		}

		seat := g.hand.ActionOn
		if seat < 0 {
			// No one can act: either everyone is all-in or the street
			// checked around empty. Settle through the showdown sequence.
			g.settle()
			return
		}

		res, ok := g.takeTurn(seat)
		if !ok {
			return // stopping, or the hand was aborted
		}
		if res.HandComplete {
			g.settle()
			return
		}
		if !res.RoundComplete {
			continue
		}

		// Betting round over. If the hand cannot take another betting
		// round, the showdown sequence owns the rest of the choreography.
		if !g.hand.MoreStreets() || !g.hand.BettingOpen() {
			g.settle()
			return
		}

		rr := g.hand.FinalizeRound()
		if !g.emitRoundBetsFinalized(rr) {
			return
		}

		street, cards, err := g.hand.AdvanceStreet()
		if err != nil {
			g.abortHand(err)
			return
		}
		if !g.emitStreetDealt(street, cards) {
			return
		}
	}
}

// abortHand rolls the hand back after an invariant breach and tells every
// client. The game continues with a fresh hand.
func (g *Game) abortHand(cause error) {
	g.logger.Error("hand aborted", "hand_id", g.hand.ID, "err", cause, "state", dumpState(g.hand))
	g.metrics.HandsAborted.Inc()
	g.hand.Abort()

	g.emit(protocol.EventError, protocol.ErrorEvent{
		Code:    protocol.CodeInternal,
		Message: "hand aborted; stacks restored",
	}, false)
	g.recordHand(nil)
	g.broadcastSnapshots()
	g.hand = nil
	g.pending = nil
}

// recordHand writes the hand history record and feeds the memory port.
func (g *Game) recordHand(s *game.Settlement) {
	rec := history.Build(g.ID, g.hand, s, g.handStart)
	if err := g.recorder.Record(rec); err != nil {
		g.logger.Warn("hand history write failed", "hand_id", g.hand.ID, "err", err)
	}
	if err := g.memory.RecordHand(context.Background(), rec); err != nil {
		g.logger.Warn("memory record failed", "hand_id", g.hand.ID, "err", err)
	}
}
