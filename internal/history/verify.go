package history

import (
	"fmt"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/deck"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/evaluator"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/game"
)

// Verify checks a recorded hand for internal consistency: the board must
// fall out of the recorded seed, every chip wagered must come back out as
// pots plus rake, and for hands that reached showdown the recorded awards
// must match re-resolving the pot layers against the revealed hole cards.
func Verify(rec *Record) error {
	if err := verifyBoard(rec); err != nil {
		return err
	}
	if err := verifyChips(rec); err != nil {
		return err
	}
	return verifyAwards(rec)
}

// verifyBoard re-draws the deck: two hole cards per dealt-in player, then
// the streets in order. The recorded board must match the deck exactly.
func verifyBoard(rec *Record) error {
	d := deck.New(rec.Seed)
	d.DrawN(2 * len(rec.Players))

	for i, want := range rec.Board {
		card, ok := d.Draw()
		if !ok {
			return fmt.Errorf("deck exhausted at board card %d", i)
		}
		if card != want {
			return fmt.Errorf("board card %d: recorded %s, seed deals %s", i, want, card)
		}
	}
	return nil
}

// verifyChips checks conservation: everything wagered must come back out
// as pots plus rake, and every pot must be fully awarded.
func verifyChips(rec *Record) error {
	wagered := 0
	for _, a := range rec.Actions {
		wagered += a.Amount
	}

	potTotal := 0
	for i, pot := range rec.Pots {
		potTotal += pot.Amount
		awarded := 0
		for _, aw := range pot.Awards {
			awarded += aw.Amount
		}
		if awarded != pot.Amount {
			return fmt.Errorf("pot %d holds %d but awards %d", i, pot.Amount, awarded)
		}
	}

	if wagered != potTotal+rec.Rake {
		return fmt.Errorf("wagered %d but pots %d + rake %d", wagered, potTotal, rec.Rake)
	}
	return nil
}

// verifyAwards re-resolves showdown pots: the revealed hole cards are
// re-evaluated against the board and the pot layers re-awarded, and every
// seat must receive exactly what the record says it did. Hands that ended
// on a fold record no hole cards and have nothing to re-resolve.
func verifyAwards(rec *Record) error {
	ranks := make(map[int]evaluator.HandRank)
	for _, p := range rec.Players {
		if len(p.HoleCards) > 0 {
			ranks[p.Seat] = evaluator.Evaluate(p.HoleCards, rec.Board)
		}
	}
	if len(ranks) == 0 {
		return nil
	}

	layers := make([]game.Layer, len(rec.Pots))
	recorded := make(map[[2]int]int)
	count := 0
	for i, pot := range rec.Pots {
		layers[i] = game.Layer{Amount: pot.Amount, Eligible: pot.Eligible}
		for _, aw := range pot.Awards {
			recorded[[2]int{i, aw.Seat}] += aw.Amount
			count++
		}
	}

	resolved := game.AwardLayers(layers, ranks, rec.ButtonSeat, rec.tableSize())
	if len(resolved) != count {
		return fmt.Errorf("recorded %d awards, resolution yields %d", count, len(resolved))
	}
	for _, aw := range resolved {
		if got := recorded[[2]int{aw.Layer, aw.Seat}]; got != aw.Amount {
			return fmt.Errorf("pot %d seat %d: recorded %d, resolution awards %d",
				aw.Layer, aw.Seat, got, aw.Amount)
		}
	}
	return nil
}

// tableSize falls back to the highest occupied seat for records written
// before the field existed.
func (r *Record) tableSize() int {
	if r.TableSize > 0 {
		return r.TableSize
	}
	n := 0
	for _, p := range r.Players {
		if p.Seat >= n {
			n = p.Seat + 1
		}
	}
	return n
}
