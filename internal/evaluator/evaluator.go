// Package evaluator ranks hold'em hands: given two hole cards and up to five
// community cards, it finds the best five-card hand and a totally ordered
// rank for it. Deterministic and allocation-light; no lookup tables.
package evaluator

import (
	"sort"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/deck"
)

// Category is the hand class, ordered weakest to strongest.
type Category int

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns the display name of the category.
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// HandRank is a totally ordered hand strength: category first, then the
// tiebreak ranks compared lexicographically. Best holds the five cards that
// make the hand, for client display.
type HandRank struct {
	Category Category
	Tiebreak []int
	Best     []deck.Card
}

// String returns the display name of the made hand.
func (h HandRank) String() string {
	return h.Category.String()
}

// Compare returns 1 if h beats other, -1 if other beats h, 0 on a chop.
func (h HandRank) Compare(other HandRank) int {
	if h.Category != other.Category {
		if h.Category > other.Category {
			return 1
		}
		return -1
	}
	for i := 0; i < len(h.Tiebreak) && i < len(other.Tiebreak); i++ {
		if h.Tiebreak[i] != other.Tiebreak[i] {
			if h.Tiebreak[i] > other.Tiebreak[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// Evaluate finds the best five-card hand from two hole cards plus community
// cards. With fewer than five total cards available (preflop display) it
// ranks the partial hand on pairs and high cards only.
func Evaluate(hole []deck.Card, community []deck.Card) HandRank {
	all := make([]deck.Card, 0, 7)
	all = append(all, hole...)
	all = append(all, community...)

	if len(all) < 5 {
		return rankPartial(all)
	}

	var best HandRank
	first := true
	combo := make([]deck.Card, 5)
	pickFive(all, combo, 0, 0, func(hand []deck.Card) {
		r := rankFive(hand)
		if first || r.Compare(best) > 0 {
			best = r
			first = false
		}
	})
	return best
}

// pickFive enumerates all 5-card subsets of cards (at most C(7,5)=21).
func pickFive(cards, combo []deck.Card, start, depth int, visit func([]deck.Card)) {
	if depth == 5 {
		visit(combo)
		return
	}
	for i := start; i <= len(cards)-(5-depth); i++ {
		combo[depth] = cards[i]
		pickFive(cards, combo, i+1, depth+1, visit)
	}
}

// rankFive ranks exactly five cards.
func rankFive(hand []deck.Card) HandRank {
	cards := make([]deck.Card, 5)
	copy(cards, hand)
	sort.Slice(cards, func(i, j int) bool { return cards[j].Less(cards[i]) })

	flush := true
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			flush = false
			break
		}
	}

	straightHigh, isStraight := straightHighCard(cards)

	// Group ranks by multiplicity
	counts := make(map[deck.Rank]int)
	for _, c := range cards {
		counts[c.Rank]++
	}
	groups := make([]rankGroup, 0, 5)
	for r, n := range counts {
		groups = append(groups, rankGroup{rank: r, count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	switch {
	case flush && isStraight:
		return HandRank{Category: StraightFlush, Tiebreak: []int{straightHigh}, Best: orderStraight(cards, straightHigh)}
	case groups[0].count == 4:
		return HandRank{Category: FourOfAKind, Tiebreak: groupTiebreak(groups), Best: orderGroups(cards, groups)}
	case groups[0].count == 3 && groups[1].count == 2:
		return HandRank{Category: FullHouse, Tiebreak: groupTiebreak(groups), Best: orderGroups(cards, groups)}
	case flush:
		return HandRank{Category: Flush, Tiebreak: ranksOf(cards), Best: cards}
	case isStraight:
		return HandRank{Category: Straight, Tiebreak: []int{straightHigh}, Best: orderStraight(cards, straightHigh)}
	case groups[0].count == 3:
		return HandRank{Category: ThreeOfAKind, Tiebreak: groupTiebreak(groups), Best: orderGroups(cards, groups)}
	case groups[0].count == 2 && groups[1].count == 2:
		return HandRank{Category: TwoPair, Tiebreak: groupTiebreak(groups), Best: orderGroups(cards, groups)}
	case groups[0].count == 2:
		return HandRank{Category: OnePair, Tiebreak: groupTiebreak(groups), Best: orderGroups(cards, groups)}
	default:
		return HandRank{Category: HighCard, Tiebreak: ranksOf(cards), Best: cards}
	}
}

// straightHighCard reports whether five rank-descending cards form a
// straight and returns its high card. The wheel (A-5-4-3-2) has high card 5.
func straightHighCard(cards []deck.Card) (int, bool) {
	run := true
	for i := 1; i < 5; i++ {
		if cards[i].Rank != cards[i-1].Rank-1 {
			run = false
			break
		}
	}
	if run {
		return int(cards[0].Rank), true
	}

	// Wheel: A high plus 5-4-3-2
	if cards[0].Rank == deck.Ace &&
		cards[1].Rank == deck.Five &&
		cards[2].Rank == deck.Four &&
		cards[3].Rank == deck.Three &&
		cards[4].Rank == deck.Two {
		return int(deck.Five), true
	}
	return 0, false
}

// orderStraight arranges straight cards high-to-low for display, rotating
// the ace to the bottom of a wheel.
func orderStraight(cards []deck.Card, high int) []deck.Card {
	out := make([]deck.Card, 5)
	copy(out, cards)
	if high == int(deck.Five) && out[0].Rank == deck.Ace {
		ace := out[0]
		copy(out, out[1:])
		out[4] = ace
	}
	return out
}

// rankGroup is a rank with its multiplicity in a five-card hand.
type rankGroup struct {
	rank  deck.Rank
	count int
}

// orderGroups arranges paired hands for display: larger groups first,
// then kickers descending.
func orderGroups(cards []deck.Card, groups []rankGroup) []deck.Card {
	out := make([]deck.Card, 0, 5)
	for _, g := range groups {
		for _, c := range cards {
			if c.Rank == g.rank {
				out = append(out, c)
			}
		}
	}
	return out
}

// groupTiebreak flattens rank groups into the lexicographic tiebreak list.
func groupTiebreak(groups []rankGroup) []int {
	out := make([]int, 0, len(groups))
	for _, g := range groups {
		out = append(out, int(g.rank))
	}
	return out
}

func ranksOf(cards []deck.Card) []int {
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = int(c.Rank)
	}
	return out
}

// rankPartial ranks fewer than five cards (pair or high cards only).
// Only used for preflop display; never for pot resolution.
func rankPartial(cards []deck.Card) HandRank {
	sorted := make([]deck.Card, len(cards))
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool { return sorted[j].Less(sorted[i]) })

	if len(sorted) == 2 && sorted[0].Rank == sorted[1].Rank {
		return HandRank{Category: OnePair, Tiebreak: []int{int(sorted[0].Rank)}, Best: sorted}
	}
	return HandRank{Category: HighCard, Tiebreak: ranksOf(sorted), Best: sorted}
}
