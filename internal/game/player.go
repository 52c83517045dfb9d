package game

import "github.com/MatthewPDingle/CSCPT-sub000/internal/deck"

// Status is a player's standing within the current hand.
type Status int

const (
	StatusActive Status = iota
	StatusFolded
	StatusAllIn
	StatusSittingOut
	StatusAway
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusFolded:
		return "folded"
	case StatusAllIn:
		return "all_in"
	case StatusSittingOut:
		return "sitting_out"
	case StatusAway:
		return "away"
	default:
		return "unknown"
	}
}

// Player is one seat's occupant. Chips, bets and status are mutated only on
// the owning game's serialization point.
type Player struct {
	ID        string
	Name      string
	Human     bool
	Archetype string
	Seat      int

	Chips      int
	CurrentBet int // chips committed this street
	TotalBet   int // chips committed this hand, antes included
	HoleCards  []deck.Card
	Status     Status
}

// InHand reports whether the player still has a claim on the pot.
func (p *Player) InHand() bool {
	return p.Status == StatusActive || p.Status == StatusAllIn
}

// CanAct reports whether the player can still make a voluntary action.
func (p *Player) CanAct() bool {
	return p.Status == StatusActive && p.Chips > 0
}

// commit moves up to amount chips from the stack into the current bet,
// returning the amount actually moved. Going to zero chips marks all-in.
func (p *Player) commit(amount int) int {
	if amount > p.Chips {
		amount = p.Chips
	}
	p.Chips -= amount
	p.CurrentBet += amount
	p.TotalBet += amount
	if p.Chips == 0 && p.Status == StatusActive {
		p.Status = StatusAllIn
	}
	return amount
}
