package agent

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/deck"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/evaluator"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/game"
)

// archetypeTuning shapes the rule-based decider per persona. Looseness
// scales how weak a hand it will continue with; aggression scales how
// often it bets or raises instead of calling.
type archetypeTuning struct {
	looseness  float64
	aggression float64
}

var archetypes = map[string]archetypeTuning{
	"TAG":     {looseness: 0.9, aggression: 1.3},
	"LAG":     {looseness: 1.3, aggression: 1.5},
	"NIT":     {looseness: 0.6, aggression: 0.8},
	"STATION": {looseness: 1.4, aggression: 0.5},
}

// RuleBased is a deterministic-seed, heuristic decider. It stands in for
// the LLM provider in tests and in games configured without one, and its
// decisions are always legal for the request that produced them.
type RuleBased struct {
	mu     sync.Mutex
	rng    *rand.Rand
	logger *log.Logger
}

// NewRuleBased creates a decider with a seeded RNG.
func NewRuleBased(seed int64, logger *log.Logger) *RuleBased {
	return &RuleBased{
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger.WithPrefix("agent"),
	}
}

// Decide picks an action from hand strength, pot odds and archetype
// tuning.
func (d *RuleBased) Decide(ctx context.Context, req Request) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	var hole []deck.Card
	for _, pv := range req.View.Players {
		if pv.Seat == req.Seat {
			hole = pv.HoleCards
		}
	}
	if len(hole) != 2 {
		return Decision{}, fmt.Errorf("seat %d has no visible hole cards", req.Seat)
	}

	tuning, ok := archetypes[req.Archetype]
	if !ok {
		tuning = archetypeTuning{looseness: 1.0, aggression: 1.0}
	}

	strength := handStrength(hole, req.View.Community) * tuning.looseness

	d.mu.Lock()
	roll := d.rng.Float64()
	d.mu.Unlock()

	aggressive := roll < strength*tuning.aggression

	if req.CallAmount == 0 {
		if aggressive && strength > 0.45 && d.canRaise(req) {
			return d.aggress(req, strength)
		}
		return Decision{
			Action:    game.Action{Type: game.Check},
			Reasoning: fmt.Sprintf("checking with strength %.2f", strength),
		}, nil
	}

	// Facing a bet: weigh the price against hand strength.
	price := float64(req.CallAmount) / float64(req.CallAmount+max(req.View.PotTotal, 1))
	switch {
	case aggressive && strength > 0.6 && d.canRaise(req):
		return d.aggress(req, strength)
	case strength >= price*0.8:
		return Decision{
			Action:    game.Action{Type: game.Call},
			Reasoning: fmt.Sprintf("calling %d at price %.2f with strength %.2f", req.CallAmount, price, strength),
		}, nil
	default:
		return Decision{
			Action:    game.Action{Type: game.Fold},
			Reasoning: fmt.Sprintf("folding to %d at price %.2f with strength %.2f", req.CallAmount, price, strength),
		}, nil
	}
}

func (d *RuleBased) canRaise(req Request) bool {
	for _, o := range req.Options {
		if o == game.Bet || o == game.Raise {
			return true
		}
	}
	return false
}

// aggress sizes a bet or raise around two thirds of pot, clamped to the
// legal range.
func (d *RuleBased) aggress(req Request, strength float64) (Decision, error) {
	kind := game.Raise
	for _, o := range req.Options {
		if o == game.Bet {
			kind = game.Bet
		}
	}

	amount := req.View.CurrentBet + req.CallAmount + (req.View.PotTotal*2)/3
	if amount < req.MinRaise {
		amount = req.MinRaise
	}
	if amount > req.MaxRaise {
		amount = req.MaxRaise
	}
	return Decision{
		Action:    game.Action{Type: kind, Amount: amount},
		Reasoning: fmt.Sprintf("%s to %d with strength %.2f", kind, amount, strength),
	}, nil
}

// handStrength maps a holding to [0, 1]. Preflop uses a chart-style
// heuristic; postflop scales the evaluated hand category.
func handStrength(hole, community []deck.Card) float64 {
	if len(community) == 0 {
		return preflopStrength(hole)
	}
	rank := evaluator.Evaluate(hole, community)
	s := float64(rank.Category) / float64(evaluator.StraightFlush)
	if s < 0.15 && len(rank.Tiebreak) > 0 && rank.Tiebreak[0] >= int(deck.Queen) {
		s = 0.2 // high-card hands with big cards retain some value
	}
	return s
}

func preflopStrength(hole []deck.Card) float64 {
	hi, lo := hole[0].Rank, hole[1].Rank
	if lo > hi {
		hi, lo = lo, hi
	}

	s := float64(hi+lo) / float64(2*deck.Ace)
	if hi == lo {
		s += 0.35
	}
	if hole[0].Suit == hole[1].Suit {
		s += 0.05
	}
	if gap := int(hi - lo); gap == 1 {
		s += 0.03
	}
	if s > 1 {
		s = 1
	}
	return s
}
