// Package agent defines the ports through which the engine talks to
// opponent brains: a decision port (normally an LLM provider) and an
// optional opponent-memory port. The engine treats both as opaque; any
// failure or timeout is substituted with a safe default by the caller.
package agent

import (
	"context"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/game"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/history"
)

// Request is everything a decider may see: a hole-card-masked view of the
// table from the acting seat's perspective plus the legal action envelope.
type Request struct {
	GameID     string
	Seat       int
	Archetype  string
	View       game.Snapshot
	Options    []game.ActionType
	CallAmount int
	MinRaise   int
	MaxRaise   int
}

// Decision is a decider's canonical answer. Amount is the bet size or
// raise-to total where the action needs one. Reasoning is free text for
// logs and coaching surfaces; the engine ignores it.
type Decision struct {
	Action    game.Action
	Reasoning string
}

// Decider produces a decision for one seat. Implementations may block
// until ctx is done; the scheduler enforces the deadline and substitutes
// a default on error.
type Decider interface {
	Decide(ctx context.Context, req Request) (Decision, error)
}

// Memory is the opponent-memory port. Both operations are best-effort:
// failures are logged by the caller and never affect the hand.
type Memory interface {
	RecordHand(ctx context.Context, rec *history.Record) error
	Profile(ctx context.Context, playerID string) (Profile, error)
}

// Profile is an aggregate view of a player's tendencies.
type Profile struct {
	PlayerID   string  `json:"player_id"`
	HandsSeen  int     `json:"hands_seen"`
	VPIP       float64 `json:"vpip"`       // voluntarily put chips in preflop
	Aggression float64 `json:"aggression"` // bets+raises over calls
}

// NopMemory discards everything. Used when no memory backend is wired.
type NopMemory struct{}

func (NopMemory) RecordHand(context.Context, *history.Record) error {
	return nil
}

func (NopMemory) Profile(_ context.Context, playerID string) (Profile, error) {
	return Profile{PlayerID: playerID}, nil
}
