package server

import (
	"github.com/coder/quartz"
	"github.com/sanity-io/litter"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/deck"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/game"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/protocol"
)

// This file is the event orchestrator: it turns engine transitions into
// the wire event stream. Every emitted event gets the next per-hand
// sequence number; gated events additionally block hand progress until
// every attached client acks them or the ack window expires.

// emit broadcasts one event to all attached clients and, when gated,
// waits for acks. Returns false only when the game is stopping.
func (g *Game) emit(eventType string, payload any, gated bool) bool {
	g.seq++
	env, err := protocol.NewEvent(eventType, g.handID(), g.seq, g.now(), payload)
	if err != nil {
		g.logger.Error("marshal event", "type", eventType, "err", err)
		return true
	}
	g.metrics.EventsEmitted.WithLabelValues(eventType).Inc()

	// The ack timer is armed before delivery so a client (or test) that
	// reacts instantly to the event cannot beat it.
	var timer *quartz.Timer
	if gated {
		timer = g.clock.NewTimer(g.timing.AckTimeout, "ack")
	}
	for _, c := range g.clients {
		c.Deliver(env)
	}
	if !gated {
		return true
	}
	g.lastGated = &env
	ok := g.waitAck(env.HandID, env.EventSeq, timer)
	g.lastGated = nil
	return ok
}

func (g *Game) handID() int {
	if g.hand == nil {
		return 0
	}
	return g.hand.ID
}

// waitAck blocks until every attached client has acked (handID, seq), the
// ack window expires, or the game stops. Acks are idempotent; a client
// that acked before the wait started counts immediately.
func (g *Game) waitAck(handID, seq int, timer *quartz.Timer) bool {
	defer timer.Stop()

	key := ackKey{handID: handID, eventSeq: seq}
	if len(g.clients) == 0 || g.acked[key] {
		return true
	}

	for {
		select {
		case <-g.stop:
			return false
		case <-timer.C:
			g.logger.Warn("ack window expired, advancing", "hand_id", handID, "event_seq", seq)
			g.metrics.AckTimeouts.Inc()
			return true
		case in := <-g.intents:
			if m, ok := in.(clientMsg); ok && m.m.AnimationDone != nil {
				g.touch()
				g.noteAck(m.m.AnimationDone)
				if g.acked[key] {
					return true
				}
				continue
			}
			g.handleBackground(in)
			if len(g.clients) == 0 {
				return true
			}
		}
	}
}

// broadcastSnapshots sends each client its own masked game_state.
func (g *Game) broadcastSnapshots() {
	g.seq++
	revealAll := g.hand != nil && g.hand.Phase >= game.PhaseShowdown
	for playerID, c := range g.clients {
		p := g.table.PlayerByID(playerID)
		if p == nil {
			continue
		}
		var snap game.Snapshot
		if g.hand != nil {
			snap = g.hand.Snapshot(p.Seat, revealAll)
		} else {
			snap = g.waitingSnapshot()
		}
		env, err := protocol.NewEvent(protocol.EventGameState, g.handID(), g.seq, g.now(), snap)
		if err != nil {
			g.logger.Error("marshal game_state", "err", err)
			return
		}
		c.Deliver(env)
	}
	g.metrics.EventsEmitted.WithLabelValues(protocol.EventGameState).Inc()
}

// emitPlayerAction reports an applied action (or forced post) to everyone.
func (g *Game) emitPlayerAction(seat int, kind game.ActionType, amount int, forced bool) {
	g.metrics.Actions.WithLabelValues(kind.String()).Inc()
	g.emit(protocol.EventPlayerAction, protocol.PlayerAction{
		Seat:   seat,
		Action: kind.String(),
		Amount: amount,
		Forced: forced,
	}, false)
}

// emitRoundBetsFinalized is gated: clients animate chips sliding into the
// pot before the next street appears.
func (g *Game) emitRoundBetsFinalized(rr game.RoundResult) bool {
	payload := protocol.RoundBetsFinalized{PotTotal: rr.PotTotal}
	for _, b := range rr.PlayerBets {
		payload.PlayerBets = append(payload.PlayerBets, protocol.PlayerBet{Seat: b.Seat, Amount: b.Amount})
	}
	return g.emit(protocol.EventRoundBetsFinalized, payload, true)
}

// emitStreetDealt is gated: the board cards land before action resumes.
func (g *Game) emitStreetDealt(street game.Street, cards []deck.Card) bool {
	return g.emit(protocol.EventStreetDealt, protocol.StreetDealt{
		Street: street.String(),
		Cards:  cards,
	}, true)
}

// settle runs the hand-conclusion choreography: collect outstanding bets,
// run out any remaining streets, reveal hands when the pot was contested,
// then distribute. Fold-outs use the same sequence minus the reveal.
func (g *Game) settle() {
	h := g.hand

	if !g.emit(protocol.EventShowdownTransition, protocol.Empty{}, false) {
		return
	}

	if rr := h.FinalizeRound(); len(rr.PlayerBets) > 0 {
		if !g.emitRoundBetsFinalized(rr) {
			return
		}
	}

	for h.MoreStreets() && contested(h) > 1 {
		street, cards, err := h.AdvanceStreet()
		if err != nil {
			g.abortHand(err)
			return
		}
		if !g.emitStreetDealt(street, cards) {
			return
		}
	}

	h.EnterShowdown()
	s, err := h.Resolve()
	if err != nil {
		g.abortHand(err)
		return
	}

	if s.Showdown {
		if !g.emit(protocol.EventShowdownHandsRevealed, g.revealedHands(s), true) {
			return
		}
	}
	if !g.emit(protocol.EventPotWinnersDetermined, g.potResults(s), true) {
		return
	}
	if !g.emit(protocol.EventChipsDistributed, g.stacksAfterSettlement(), true) {
		return
	}
	g.emit(protocol.EventHandVisuallyConcluded, protocol.Empty{}, false)

	g.metrics.HandsCompleted.Inc()
	g.recordHand(s)
	g.logSummary(s)
	g.hand = nil
	g.pending = nil
}

func (g *Game) revealedHands(s *game.Settlement) protocol.ShowdownHandsRevealed {
	var out protocol.ShowdownHandsRevealed
	for _, p := range g.hand.Players() {
		if p == nil || !p.InHand() {
			continue
		}
		rank := s.Ranks[p.Seat]
		out.PlayerHands = append(out.PlayerHands, protocol.RevealedHand{
			Seat:      p.Seat,
			PlayerID:  p.ID,
			HoleCards: p.HoleCards,
			HandName:  rank.String(),
			BestFive:  rank.Best,
		})
	}
	return out
}

func (g *Game) potResults(s *game.Settlement) protocol.PotWinnersDetermined {
	var out protocol.PotWinnersDetermined
	for i, layer := range s.Layers {
		pr := protocol.PotResult{PotIndex: i, Amount: layer.Amount}
		for _, a := range s.Awards {
			if a.Layer != i {
				continue
			}
			w := protocol.PotWinner{Seat: a.Seat, Amount: a.Amount}
			if p := g.hand.Player(a.Seat); p != nil {
				w.PlayerID = p.ID
			}
			if s.Showdown {
				w.HandName = a.Rank.String()
			}
			pr.Winners = append(pr.Winners, w)
		}
		out.Pots = append(out.Pots, pr)
	}
	return out
}

func (g *Game) stacksAfterSettlement() protocol.ChipsDistributed {
	var out protocol.ChipsDistributed
	for _, p := range g.hand.Players() {
		if p == nil {
			continue
		}
		out.Players = append(out.Players, protocol.PlayerChips{
			PlayerID: p.ID,
			Seat:     p.Seat,
			Chips:    p.Chips,
		})
	}
	return out
}

// logSummary is the per-hand debug line: board, winners, rake.
func (g *Game) logSummary(s *game.Settlement) {
	h := g.hand
	g.logger.Debug("hand settled",
		"hand_id", h.ID,
		"board", h.Community,
		"wins", s.Wins,
		"rake", s.Rake,
		"showdown", s.Showdown,
		"pot_layers", len(s.Layers),
	)
}

// contested counts players still in the hand.
func contested(h *game.Hand) int {
	n := 0
	for _, p := range h.Players() {
		if p != nil && p.InHand() {
			n++
		}
	}
	return n
}

// dumpState renders the full hand for abort diagnostics.
func dumpState(h *game.Hand) string {
	return litter.Sdump(h.Snapshot(-1, true))
}
