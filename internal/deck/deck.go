package deck

import "math/rand"

// Deck is an ordered sequence of the 52 distinct cards. Shuffling is driven
// by an explicit seed so a hand can be replayed deterministically; the seed
// is recorded in the hand history.
type Deck struct {
	cards []Card
	seed  int64
}

// New creates a full 52-card deck shuffled with the given seed.
func New(seed int64) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		seed:  seed,
	}
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
	d.shuffle()
	return d
}

// NewOrdered creates an unshuffled deck. Test helper for rigged boards.
func NewOrdered(cards []Card) *Deck {
	return &Deck{cards: cards}
}

// Seed returns the seed the deck was shuffled with.
func (d *Deck) Seed() int64 {
	return d.seed
}

// shuffle applies a Fisher-Yates permutation seeded from d.seed.
func (d *Deck) shuffle() {
	rng := rand.New(rand.NewSource(d.seed))
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the top card. The second return is false when
// the deck is exhausted, which never happens in a legal hold'em hand.
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// DrawN draws n cards from the top of the deck.
func (d *Deck) DrawN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	cards := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		if card, ok := d.Draw(); ok {
			cards = append(cards, card)
		}
	}
	return cards
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.cards)
}
