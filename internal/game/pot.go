package game

import (
	"sort"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/evaluator"
)

// Layer is one segment of the pot with its own eligibility set. Layers are
// ordered; each successive eligible set is a subset of the prior one. Seats
// are kept sorted for deterministic output.
type Layer struct {
	Amount   int
	Eligible []int
}

func (l Layer) eligibleSet() map[int]bool {
	set := make(map[int]bool, len(l.Eligible))
	for _, s := range l.Eligible {
		set[s] = true
	}
	return set
}

// Pot is the contribution ledger for one hand. Bets are collected into it
// at the end of each street; layers are built lazily from total
// contributions when the hand resolves.
type Pot struct {
	contributions map[int]int
	folded        map[int]bool
	allIn         map[int]bool
	raked         int
	distributed   int
}

// NewPot creates an empty pot.
func NewPot() *Pot {
	return &Pot{
		contributions: make(map[int]int),
		folded:        make(map[int]bool),
		allIn:         make(map[int]bool),
	}
}

// Add records a contribution from a seat.
func (p *Pot) Add(seat, amount int) {
	p.contributions[seat] += amount
}

// MarkFolded removes a seat from all future eligibility. Its contributions
// stay in the pot.
func (p *Pot) MarkFolded(seat int) {
	p.folded[seat] = true
}

// MarkAllIn caps a seat's eligibility at its total contribution.
func (p *Pot) MarkAllIn(seat int) {
	p.allIn[seat] = true
}

// Total returns the chips currently held by the pot: contributions minus
// rake and anything already paid out.
func (p *Pot) Total() int {
	sum := 0
	for _, c := range p.contributions {
		sum += c
	}
	return sum - p.raked - p.distributed
}

// Distribute records chips paid out of the pot to winners.
func (p *Pot) Distribute(amount int) {
	p.distributed += amount
}

// Raked returns the rake withdrawn so far.
func (p *Pot) Raked() int {
	return p.raked
}

// Layers builds the ordered pot layers from total contributions. One layer
// per distinct all-in threshold, ascending, plus a final open layer for
// everything above the highest threshold. The open layer may be empty when
// the last bet was an uncalled all-in; it is kept so the layer count is
// deterministic, and awarding skips empty layers.
func (p *Pot) Layers() []Layer {
	thresholds := make([]int, 0, len(p.allIn))
	seen := make(map[int]bool)
	for seat := range p.allIn {
		if p.folded[seat] {
			continue
		}
		t := p.contributions[seat]
		if t > 0 && !seen[t] {
			seen[t] = true
			thresholds = append(thresholds, t)
		}
	}
	sort.Ints(thresholds)

	var layers []Layer
	prev := 0
	for _, t := range thresholds {
		layers = append(layers, p.layerBetween(prev, t))
		prev = t
	}

	// Open layer above the highest all-in threshold.
	open := Layer{}
	for seat, c := range p.contributions {
		if c > prev {
			open.Amount += c - prev
		}
		if !p.folded[seat] && !p.allIn[seat] {
			open.Eligible = append(open.Eligible, seat)
		}
	}
	sort.Ints(open.Eligible)
	if len(layers) == 0 || open.Amount > 0 || len(open.Eligible) > 0 {
		layers = append(layers, open)
	}

	p.applyRakeShares(layers)
	return layers
}

// layerBetween builds the layer covering contributions in (lo, hi].
func (p *Pot) layerBetween(lo, hi int) Layer {
	l := Layer{}
	for seat, c := range p.contributions {
		take := c
		if take > hi {
			take = hi
		}
		if take > lo {
			l.Amount += take - lo
		}
		if !p.folded[seat] && c >= hi {
			l.Eligible = append(l.Eligible, seat)
		}
	}
	sort.Ints(l.Eligible)
	return l
}

// RakeConfig controls the cash-game rake. Percentage of the pot, capped at
// CapBB big blinds, taken only when the flop was dealt and the pot reached
// MinPotBB big blinds ("no flop, no drop").
type RakeConfig struct {
	Percentage float64
	CapBB      int
	MinPotBB   int
}

// DefaultRake is the standard cash-game rake schedule.
var DefaultRake = RakeConfig{Percentage: 0.05, CapBB: 3, MinPotBB: 10}

// ComputeRake returns the rake owed on a pot total, or zero when the hand
// does not qualify.
func (c RakeConfig) ComputeRake(potTotal, bigBlind int, flopDealt bool) int {
	if c.Percentage <= 0 || !flopDealt {
		return 0
	}
	if potTotal < c.MinPotBB*bigBlind {
		return 0
	}
	rake := int(float64(potTotal) * c.Percentage)
	if cap := bigBlind * c.CapBB; rake > cap {
		rake = cap
	}
	return rake
}

// TakeRake withdraws the rake before layering, so Layers sees the post-rake
// amounts distributed proportionally across seat contributions.
func (p *Pot) TakeRake(amount int) {
	p.raked += amount
}

// applyRakeShares deducts the collected rake from the layers,
// proportionally by amount with the remainder against the largest layer.
func (p *Pot) applyRakeShares(layers []Layer) {
	if p.raked == 0 || len(layers) == 0 {
		return
	}
	gross := 0
	for _, l := range layers {
		gross += l.Amount
	}
	if gross == 0 {
		return
	}
	taken := 0
	largest := 0
	for i := range layers {
		share := p.raked * layers[i].Amount / gross
		layers[i].Amount -= share
		taken += share
		if layers[i].Amount > layers[largest].Amount {
			largest = i
		}
	}
	layers[largest].Amount -= p.raked - taken
}

// Award is one seat's share of one pot layer.
type Award struct {
	Layer  int
	Seat   int
	Amount int
	Rank   evaluator.HandRank
}

// AwardLayers resolves each non-empty layer to the best eligible hand(s).
// Chops split equally; an indivisible remainder goes chip by chip to
// eligible winners in clockwise order starting left of the button.
func AwardLayers(layers []Layer, ranks map[int]evaluator.HandRank, button, tableSize int) []Award {
	var awards []Award
	for i, layer := range layers {
		if layer.Amount == 0 {
			continue
		}
		winners := layerWinners(layer, ranks)
		if len(winners) == 0 {
			continue
		}
		share := layer.Amount / len(winners)
		remainder := layer.Amount % len(winners)

		byAmount := make(map[int]int, len(winners))
		for _, seat := range winners {
			byAmount[seat] = share
		}
		for _, seat := range clockwiseFrom(button+1, tableSize) {
			if remainder == 0 {
				break
			}
			if _, ok := byAmount[seat]; ok {
				byAmount[seat]++
				remainder--
			}
		}
		for _, seat := range winners {
			awards = append(awards, Award{Layer: i, Seat: seat, Amount: byAmount[seat], Rank: ranks[seat]})
		}
	}
	return awards
}

// layerWinners returns the eligible seats holding the best hand, sorted.
func layerWinners(layer Layer, ranks map[int]evaluator.HandRank) []int {
	var winners []int
	for _, seat := range layer.Eligible {
		rank, ok := ranks[seat]
		if !ok {
			continue
		}
		if len(winners) == 0 {
			winners = []int{seat}
			continue
		}
		switch rank.Compare(ranks[winners[0]]) {
		case 1:
			winners = []int{seat}
		case 0:
			winners = append(winners, seat)
		}
	}
	sort.Ints(winners)
	return winners
}

// clockwiseFrom lists all seats starting at the given seat, wrapping.
func clockwiseFrom(start, tableSize int) []int {
	seats := make([]int, tableSize)
	for i := 0; i < tableSize; i++ {
		seats[i] = (start + i) % tableSize
	}
	return seats
}
