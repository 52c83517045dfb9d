package deck

import "testing"

func TestNewDeckHas52DistinctCards(t *testing.T) {
	t.Parallel()

	d := New(42)
	if d.Remaining() != 52 {
		t.Fatalf("Expected 52 cards, got %d", d.Remaining())
	}

	seen := make(map[Card]bool)
	for {
		card, ok := d.Draw()
		if !ok {
			break
		}
		if seen[card] {
			t.Errorf("Duplicate card dealt: %s", card)
		}
		seen[card] = true
	}
	if len(seen) != 52 {
		t.Errorf("Expected 52 distinct cards, got %d", len(seen))
	}
}

func TestSameSeedSameOrder(t *testing.T) {
	t.Parallel()

	a := New(123456)
	b := New(123456)
	for i := 0; i < 52; i++ {
		ca, _ := a.Draw()
		cb, _ := b.Draw()
		if ca != cb {
			t.Fatalf("Card %d differs: %s vs %s", i, ca, cb)
		}
	}
}

func TestDifferentSeedsDiffer(t *testing.T) {
	t.Parallel()

	a := New(1)
	b := New(2)
	same := true
	for i := 0; i < 52; i++ {
		ca, _ := a.Draw()
		cb, _ := b.Draw()
		if ca != cb {
			same = false
			break
		}
	}
	if same {
		t.Error("Decks with different seeds produced identical order")
	}
}

func TestDrawExhaustion(t *testing.T) {
	t.Parallel()

	d := New(7)
	d.DrawN(52)
	if _, ok := d.Draw(); ok {
		t.Error("Draw from empty deck should fail")
	}
}

func TestCardStringRoundTrip(t *testing.T) {
	t.Parallel()

	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			card := NewCard(rank, suit)
			parsed, err := Parse(card.String())
			if err != nil {
				t.Fatalf("Parse(%q): %v", card.String(), err)
			}
			if parsed != card {
				t.Errorf("Round trip failed: %s -> %s", card, parsed)
			}
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "A", "Asx", "1s", "Ax", "zz"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) should fail", s)
		}
	}
}

func TestParseAll(t *testing.T) {
	t.Parallel()

	cards, err := ParseAll("As Kd 7h 2c 9s")
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 5 {
		t.Fatalf("Expected 5 cards, got %d", len(cards))
	}
	if cards[0] != MustParse("As") || cards[4] != MustParse("9s") {
		t.Errorf("Unexpected cards: %v", cards)
	}
}
