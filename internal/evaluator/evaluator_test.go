package evaluator

import (
	"testing"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/deck"
)

func eval(t *testing.T, hole, community string) HandRank {
	t.Helper()
	h, err := deck.ParseAll(hole)
	if err != nil {
		t.Fatal(err)
	}
	c, err := deck.ParseAll(community)
	if err != nil {
		t.Fatal(err)
	}
	return Evaluate(h, c)
}

func TestCategories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		hole      string
		community string
		want      Category
	}{
		{"high card", "As Kd", "9h 7c 5s 3d 2h", HighCard},
		{"one pair", "As Ad", "9h 7c 5s 3d 2h", OnePair},
		{"two pair", "As Ad", "9h 9c 5s 3d 2h", TwoPair},
		{"trips", "As Ad", "Ah 7c 5s 3d 2h", ThreeOfAKind},
		{"straight", "9s 8d", "7h 6c 5s Ad Kh", Straight},
		{"broadway", "As Kd", "Qh Jc Ts 3d 2h", Straight},
		{"wheel", "As 2d", "3h 4c 5s Kd Qh", Straight},
		{"flush", "As 9s", "Ks 7s 2s 3d 4h", Flush},
		{"full house", "As Ad", "Ah 9c 9s 3d 2h", FullHouse},
		{"quads", "As Ad", "Ah Ac 5s 3d 2h", FourOfAKind},
		{"straight flush", "9s 8s", "7s 6s 5s Ad Kh", StraightFlush},
		{"steel wheel", "As 2s", "3s 4s 5s Kd Qh", StraightFlush},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := eval(t, tt.hole, tt.community)
			if got.Category != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got.Category)
			}
		})
	}
}

func TestBestFiveOfSeven(t *testing.T) {
	t.Parallel()

	// Board pair plus pocket pair: best hand is two pair aces and nines
	// with a king kicker, not the board's deuce.
	r := eval(t, "As Ad", "9h 9c Ks 3d 2h")
	if r.Category != TwoPair {
		t.Fatalf("Expected two pair, got %s", r.Category)
	}
	if len(r.Best) != 5 {
		t.Fatalf("Expected 5 display cards, got %d", len(r.Best))
	}
	if r.Best[4].Rank != deck.King {
		t.Errorf("Expected king kicker, got %s", r.Best[4])
	}
}

func TestCompareWithinCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		holeA, holeB string
		community    string
		want         int
	}{
		{"higher pair wins", "As Ad", "Ks Kd", "9h 7c 5s 3d 2h", 1},
		{"kicker decides", "As Kd", "As Qd", "Ah 7c 5s 3d 2h", 1},
		{"same straight chops", "9s 8d", "9d 8c", "7h 6c 5s Ad Kh", 0},
		{"wheel loses to six high", "As 2d", "6s 2c", "3h 4c 5s Kd Qh", -1},
		{"board plays", "2s 3d", "2d 3c", "Ah Kh Qh Jh Th", 0},
		{"bigger full house", "Ac 9d", "As Ad", "Ah 9c 9s 3d 2h", -1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := eval(t, tt.holeA, tt.community)
			b := eval(t, tt.holeB, tt.community)
			if got := a.Compare(b); got != tt.want {
				t.Errorf("Compare = %d, want %d (%s vs %s)", got, tt.want, a, b)
			}
			if got := b.Compare(a); got != -tt.want {
				t.Errorf("Reverse compare = %d, want %d", got, -tt.want)
			}
		})
	}
}

func TestCrossCategoryOrdering(t *testing.T) {
	t.Parallel()

	// Each hand on its own board, ascending strength.
	hands := []HandRank{
		eval(t, "As Kd", "9h 7c 5s 3d 2h"),
		eval(t, "As Ad", "9h 7c 5s 3d 2h"),
		eval(t, "As Ad", "9h 9c 5s 3d 2h"),
		eval(t, "As Ad", "Ah 7c 5s 3d 2h"),
		eval(t, "9s 8d", "7h 6c 5s Ad Kh"),
		eval(t, "As 9s", "Ks 7s 2s 3d 4h"),
		eval(t, "As Ad", "Ah 9c 9s 3d 2h"),
		eval(t, "As Ad", "Ah Ac 5s 3d 2h"),
		eval(t, "9s 8s", "7s 6s 5s Ad Kh"),
	}
	for i := 1; i < len(hands); i++ {
		if hands[i].Compare(hands[i-1]) != 1 {
			t.Errorf("Hand %d (%s) should beat hand %d (%s)", i, hands[i], i-1, hands[i-1])
		}
	}
}

func TestWheelDisplayOrder(t *testing.T) {
	t.Parallel()

	r := eval(t, "As 2d", "3h 4c 5s Kd Qh")
	if r.Best[0].Rank != deck.Five {
		t.Errorf("Wheel should display five high, got %s first", r.Best[0])
	}
	if r.Best[4].Rank != deck.Ace {
		t.Errorf("Wheel should display ace last, got %s", r.Best[4])
	}
}

func TestHandRankDisplayName(t *testing.T) {
	t.Parallel()

	r := eval(t, "As Ad", "Ah 7c 7d 2s 9h")
	if got := r.String(); got != "Full House" {
		t.Errorf("HandRank.String() = %q, want %q", got, "Full House")
	}
}

func TestPartialPreflopRank(t *testing.T) {
	t.Parallel()

	pair := eval(t, "As Ad", "")
	high := eval(t, "As Kd", "")
	if pair.Category != OnePair {
		t.Errorf("Pocket pair should rank as one pair, got %s", pair.Category)
	}
	if high.Category != HighCard {
		t.Errorf("Unpaired hole cards should rank as high card, got %s", high.Category)
	}
	if pair.Compare(high) != 1 {
		t.Error("Pocket aces should beat ace king preflop")
	}
}
