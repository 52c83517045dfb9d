package server

import (
	"context"
	"errors"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/agent"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/game"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/protocol"
)

// This file is the turn scheduler: it waits on exactly one seat at a
// time, enforces the turn clock and the AI deadline, and substitutes a
// check-else-fold default whenever a seat cannot or will not act.

// takeTurn resolves one seat's action. Returns (nil, false) only when the
// game is stopping or the hand was aborted.
func (g *Game) takeTurn(seat int) (*game.ApplyResult, bool) {
	p := g.hand.Player(seat)
	va, err := g.hand.LegalActions(seat)
	if err != nil {
		g.abortHand(err)
		return nil, false
	}
	if p.Human {
		return g.humanTurn(p, va)
	}
	return g.aiTurn(p, va)
}

// humanTurn asks the player's client to act and waits out the turn clock.
// Illegal submissions are rejected without consuming the turn; expiry
// forces the default.
func (g *Game) humanTurn(p *game.Player, va game.ValidActions) (*game.ApplyResult, bool) {
	g.seq++
	g.pending = &pendingTurn{
		handID:   g.hand.ID,
		seat:     p.Seat,
		playerID: p.ID,
		actions:  va,
		seq:      g.seq,
		deadline: g.clock.Now().Add(g.timing.TurnClock),
	}
	defer func() { g.pending = nil }()

	timer := g.clock.NewTimer(g.timing.TurnClock, "turn")
	defer timer.Stop()

	if c, ok := g.clients[p.ID]; ok {
		g.sendActionRequest(c, g.pending)
	}
	g.metrics.EventsEmitted.WithLabelValues(protocol.EventActionRequest).Inc()

	for {
		select {
		case <-g.stop:
			return nil, false

		case <-timer.C:
			g.logger.Info("turn clock expired", "hand_id", g.hand.ID, "seat", p.Seat)
			return g.applyDefault(p.Seat, va, "turn_timeout")

		case in := <-g.intents:
			m, ok := in.(clientMsg)
			if !ok || m.m.Action == nil {
				g.handleBackground(in)
				continue
			}
			g.touch()

			am := m.m.Action
			if am.HandID != g.hand.ID {
				m.c.Fail(protocol.CodeStaleHandID, "that hand is over")
				continue
			}
			sender := g.table.PlayerByID(m.c.Player())
			if sender == nil || sender.Seat != p.Seat {
				m.c.Fail(protocol.CodeNotYourTurn, "action is not on you")
				continue
			}
			kind, known := game.ParseActionType(am.Action)
			if !known {
				m.c.Fail(protocol.CodeInvalidAction, "unknown action "+am.Action)
				continue
			}

			res, err := g.hand.Apply(p.Seat, game.Action{Type: kind, Amount: am.Amount}, false)
			if err != nil {
				var re *game.RuleError
				if errors.As(err, &re) {
					m.c.Fail(re.Code, re.Message)
				} else {
					m.c.Fail(protocol.CodeInternal, err.Error())
				}
				continue
			}
			return g.finishTurn(p.Seat, res, false)
		}
	}
}

// aiTurn dispatches the decider on its own goroutine and waits for the
// result under the AI deadline. Errors, timeouts, and illegal decisions
// all degrade to the default action; the hand never stalls on an agent.
func (g *Game) aiTurn(p *game.Player, va game.ValidActions) (*game.ApplyResult, bool) {
	g.aiGen++
	gen := g.aiGen

	req := agent.Request{
		GameID:     g.ID,
		Seat:       p.Seat,
		Archetype:  p.Archetype,
		View:       g.hand.Snapshot(p.Seat, false),
		Options:    va.Options,
		CallAmount: va.CallAmount,
		MinRaise:   va.MinRaise,
		MaxRaise:   va.MaxRaise,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		dec, err := g.decider.Decide(ctx, req)
		select {
		case g.intents <- aiDone{gen: gen, dec: dec, err: err}:
		case <-g.stop:
		}
	}()

	timer := g.clock.NewTimer(g.timing.AITimeout, "ai")
	defer timer.Stop()

	for {
		select {
		case <-g.stop:
			return nil, false

		case <-timer.C:
			g.logger.Warn("agent deadline expired", "hand_id", g.hand.ID, "seat", p.Seat)
			cancel()
			return g.applyDefault(p.Seat, va, "ai_timeout")

		case in := <-g.intents:
			d, ok := in.(aiDone)
			if !ok {
				g.handleBackground(in)
				continue
			}
			if d.gen != gen {
				continue // completion from an abandoned turn
			}
			if d.err != nil {
				g.logger.Warn("agent failed", "hand_id", g.hand.ID, "seat", p.Seat, "err", d.err)
				return g.applyDefault(p.Seat, va, "ai_error")
			}

			res, err := g.hand.Apply(p.Seat, d.dec.Action, false)
			if err != nil {
				g.logger.Warn("agent chose illegal action",
					"hand_id", g.hand.ID, "seat", p.Seat,
					"action", d.dec.Action.Type, "amount", d.dec.Action.Amount, "err", err)
				return g.applyDefault(p.Seat, va, "ai_illegal")
			}
			if d.dec.Reasoning != "" {
				g.logger.Debug("agent decision",
					"seat", p.Seat, "action", res.Action.Type, "reasoning", d.dec.Reasoning)
			}
			return g.finishTurn(p.Seat, res, false)
		}
	}
}

// applyDefault commits check when legal, fold otherwise, marked as forced.
func (g *Game) applyDefault(seat int, va game.ValidActions, reason string) (*game.ApplyResult, bool) {
	g.metrics.ForcedDefaults.WithLabelValues(reason).Inc()
	a := game.Action{Type: game.Fold}
	if va.CallAmount == 0 {
		a.Type = game.Check
	}
	res, err := g.hand.Apply(seat, a, true)
	if err != nil {
		g.abortHand(err)
		return nil, false
	}
	return g.finishTurn(seat, res, true)
}

// finishTurn broadcasts the applied action and verifies chip conservation.
func (g *Game) finishTurn(seat int, res *game.ApplyResult, forced bool) (*game.ApplyResult, bool) {
	g.emitPlayerAction(seat, res.Action.Type, res.Committed, forced)
	if err := g.hand.CheckConservation(); err != nil {
		g.abortHand(err)
		return nil, false
	}
	return res, true
}
