package game

import (
	"errors"
	"fmt"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/deck"
)

// ErrNotEnoughPlayers is returned when a hand cannot start.
var ErrNotEnoughPlayers = errors.New("need at least two players with chips")

// Table owns the seats of one game across hands: who sits where, where the
// button is, and the per-game hand counter. Sitting-out players keep their
// seat and stack but are dealt out; they post no blinds while away.
type Table struct {
	cfg     Config
	seats   []*Player
	button  int
	handSeq int
}

// NewTable creates an empty table for the given rule set.
func NewTable(cfg Config) *Table {
	return &Table{
		cfg:    cfg,
		seats:  make([]*Player, cfg.TableSize),
		button: -1,
	}
}

// Config returns the table's rule set.
func (t *Table) Config() Config {
	return t.cfg
}

// Seats returns the seat slice. Callers must not mutate it.
func (t *Table) Seats() []*Player {
	return t.seats
}

// AddPlayer seats a player in the first free seat and returns it.
func (t *Table) AddPlayer(p *Player) (int, error) {
	for seat, occupant := range t.seats {
		if occupant == nil {
			p.Seat = seat
			p.Status = StatusActive
			t.seats[seat] = p
			return seat, nil
		}
	}
	return -1, fmt.Errorf("table is full (%d seats)", len(t.seats))
}

// RemovePlayer vacates a player's seat.
func (t *Table) RemovePlayer(id string) bool {
	for seat, p := range t.seats {
		if p != nil && p.ID == id {
			t.seats[seat] = nil
			return true
		}
	}
	return false
}

// PlayerByID finds a seated player.
func (t *Table) PlayerByID(id string) *Player {
	for _, p := range t.seats {
		if p != nil && p.ID == id {
			return p
		}
	}
	return nil
}

// HandsPlayed returns the number of hands started so far.
func (t *Table) HandsPlayed() int {
	return t.handSeq
}

// dealable reports whether a seat takes part in the next hand.
func (t *Table) dealable(seat int) bool {
	p := t.seats[seat]
	return p != nil && p.Chips > 0 && p.Status != StatusSittingOut && p.Status != StatusAway
}

// StartHand deals the next hand with a deck shuffled from the given seed.
// The button moves to the next dealable seat; hand IDs are monotonic per
// game.
func (t *Table) StartHand(seed int64) (*Hand, error) {
	dealable := 0
	for seat := range t.seats {
		if t.dealable(seat) {
			dealable++
		}
	}
	if dealable < 2 {
		return nil, ErrNotEnoughPlayers
	}

	for seat, p := range t.seats {
		if p == nil {
			continue
		}
		p.CurrentBet = 0
		p.TotalBet = 0
		p.HoleCards = nil
		if t.dealable(seat) {
			p.Status = StatusActive
		} else if p.Status != StatusSittingOut && p.Status != StatusAway {
			// Busted players sit out until they rebuy.
			p.Status = StatusSittingOut
		}
	}

	t.advanceButton()
	t.handSeq++
	return NewHand(t.handSeq, t.cfg, t.seats, t.button, deck.New(seed)), nil
}

// advanceButton moves the button to the next dealable seat clockwise.
func (t *Table) advanceButton() {
	for _, seat := range clockwiseFrom(t.button+1, len(t.seats)) {
		if t.dealable(seat) {
			t.button = seat
			return
		}
	}
}
