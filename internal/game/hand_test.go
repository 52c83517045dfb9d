package game

import (
	"testing"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/deck"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/evaluator"
)

func testConfig(tableSize, sb, bb int) Config {
	return Config{
		TableSize:  tableSize,
		Mode:       Cash,
		Structure:  NoLimit,
		SmallBlind: sb,
		BigBlind:   bb,
	}
}

func seatPlayers(tableSize int, stacks map[int]int) []*Player {
	players := make([]*Player, tableSize)
	for seat, chips := range stacks {
		players[seat] = &Player{
			ID:     string(rune('a' + seat)),
			Name:   string(rune('A' + seat)),
			Seat:   seat,
			Chips:  chips,
			Status: StatusActive,
		}
	}
	return players
}

func riggedDeck(t *testing.T, cards string) *deck.Deck {
	t.Helper()
	parsed, err := deck.ParseAll(cards)
	if err != nil {
		t.Fatal(err)
	}
	return deck.NewOrdered(parsed)
}

func mustApply(t *testing.T, h *Hand, seat int, a Action) *ApplyResult {
	t.Helper()
	res, err := h.Apply(seat, a, false)
	if err != nil {
		t.Fatalf("Apply seat %d %s: %v", seat, a.Type, err)
	}
	return res
}

func checkConservation(t *testing.T, h *Hand) {
	t.Helper()
	if err := h.CheckConservation(); err != nil {
		t.Error(err)
	}
}

// Heads-up check-down: blinds 1/2, both check every street, better hand at
// showdown takes the 4-chip pot.
func TestHeadsUpCheckDownToRiver(t *testing.T) {
	t.Parallel()

	players := seatPlayers(2, map[int]int{0: 200, 1: 200})
	d := riggedDeck(t, "Qh Th Jh Ts As Kd 7h 2c 9s")
	h := NewHand(1, testConfig(2, 1, 2), players, 0, d)

	// Heads-up the button posts the small blind.
	if h.SBSeat != 0 || h.BBSeat != 1 {
		t.Fatalf("Blind seats wrong: SB=%d BB=%d", h.SBSeat, h.BBSeat)
	}

	posts := h.Begin()
	if len(posts) != 2 || posts[0].Amount != 1 || posts[1].Amount != 2 {
		t.Fatalf("Unexpected posts: %+v", posts)
	}
	if h.ActionOn != 0 {
		t.Fatalf("Button acts first preflop heads-up, got seat %d", h.ActionOn)
	}

	mustApply(t, h, 0, Action{Type: Call})
	res := mustApply(t, h, 1, Action{Type: Check})
	if !res.RoundComplete {
		t.Fatal("Preflop should be complete after the big blind checks")
	}

	rr := h.FinalizeRound()
	if rr.PotTotal != 4 {
		t.Fatalf("Pot after preflop = %d, want 4", rr.PotTotal)
	}

	for _, want := range []Street{Flop, Turn, River} {
		street, _, err := h.AdvanceStreet()
		if err != nil {
			t.Fatal(err)
		}
		if street != want {
			t.Fatalf("Expected %s, got %s", want, street)
		}
		if h.ActionOn != 1 {
			t.Fatalf("Big blind acts first postflop, got seat %d", h.ActionOn)
		}
		mustApply(t, h, 1, Action{Type: Check})
		res := mustApply(t, h, 0, Action{Type: Check})
		if !res.RoundComplete {
			t.Fatalf("%s should check through", street)
		}
		h.FinalizeRound()
		checkConservation(t, h)
	}

	h.EnterShowdown()
	s, err := h.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if !s.Showdown {
		t.Error("Expected a showdown settlement")
	}
	if s.Ranks[1].Category != evaluator.OnePair {
		t.Errorf("Seat 1 should show a pair of tens, got %s", s.Ranks[1])
	}
	if players[0].Chips != 198 || players[1].Chips != 202 {
		t.Errorf("Final stacks %d/%d, want 198/202", players[0].Chips, players[1].Chips)
	}
	checkConservation(t, h)
}

// Three-way preflop all-ins build two contested side-pot layers plus an
// empty top layer; each layer goes to its best eligible hand.
func TestAllInPreflopTwoSidePots(t *testing.T) {
	t.Parallel()

	players := seatPlayers(3, map[int]int{0: 50, 1: 150, 2: 300})
	d := riggedDeck(t, "Qh 7h Kh Qd 7d Kd Ah Ad 2c 3c 4d")
	h := NewHand(1, testConfig(3, 5, 10), players, 0, d)

	h.Begin()
	if h.ActionOn != 0 {
		t.Fatalf("Seat left of the big blind acts first, got %d", h.ActionOn)
	}

	res := mustApply(t, h, 0, Action{Type: AllIn})
	if res.Action.Type != Raise || res.Action.Amount != 50 {
		t.Fatalf("All-in should normalize to a raise to 50, got %+v", res.Action)
	}
	mustApply(t, h, 1, Action{Type: Call})
	mustApply(t, h, 2, Action{Type: Raise, Amount: 150})
	res = mustApply(t, h, 1, Action{Type: Call})
	if !res.AllIn {
		t.Fatal("Seat 1 calling 100 more should be all-in")
	}
	if !res.RoundComplete {
		t.Fatal("Round should be complete")
	}

	rr := h.FinalizeRound()
	if rr.PotTotal != 350 {
		t.Fatalf("Pot = %d, want 350", rr.PotTotal)
	}
	if h.BettingOpen() {
		t.Fatal("Only one player can act; remaining streets run out")
	}

	for h.MoreStreets() {
		if _, _, err := h.AdvanceStreet(); err != nil {
			t.Fatal(err)
		}
		if h.ActionOn != -1 {
			t.Fatal("No action pointer during a runout")
		}
	}

	h.EnterShowdown()
	s, err := h.Resolve()
	if err != nil {
		t.Fatal(err)
	}

	if len(s.Layers) != 3 {
		t.Fatalf("Expected 3 pot layers, got %d", len(s.Layers))
	}
	if s.Layers[0].Amount != 150 || s.Layers[1].Amount != 200 || s.Layers[2].Amount != 0 {
		t.Errorf("Layer amounts %d/%d/%d, want 150/200/0",
			s.Layers[0].Amount, s.Layers[1].Amount, s.Layers[2].Amount)
	}
	if players[0].Chips != 150 || players[1].Chips != 200 || players[2].Chips != 150 {
		t.Errorf("Final stacks %d/%d/%d, want 150/200/150",
			players[0].Chips, players[1].Chips, players[2].Chips)
	}
	checkConservation(t, h)
}

// A short all-in raise must not reopen the action for a player who already
// acted since the last full raise.
func TestShortAllInDoesNotReopenAction(t *testing.T) {
	t.Parallel()

	players := seatPlayers(3, map[int]int{0: 100, 1: 100, 2: 32})
	d := riggedDeck(t, "2h 3h 4h 2d 3d 4d 8s 9s Ts Js Qs")
	h := NewHand(1, testConfig(3, 1, 2), players, 2, d)

	h.Begin()
	mustApply(t, h, 2, Action{Type: Call})
	mustApply(t, h, 0, Action{Type: Call})
	res := mustApply(t, h, 1, Action{Type: Check})
	if !res.RoundComplete {
		t.Fatal("Limped preflop should be complete")
	}
	h.FinalizeRound()

	if _, _, err := h.AdvanceStreet(); err != nil {
		t.Fatal(err)
	}
	if h.ActionOn != 0 {
		t.Fatalf("Seat 0 acts first on the flop, got %d", h.ActionOn)
	}

	mustApply(t, h, 0, Action{Type: Bet, Amount: 10})
	mustApply(t, h, 1, Action{Type: Raise, Amount: 25})
	res = mustApply(t, h, 2, Action{Type: AllIn})
	if res.Action.Type != Raise || res.Action.Amount != 30 {
		t.Fatalf("Short all-in should normalize to a raise to 30, got %+v", res.Action)
	}

	// Seat 0 has not acted since the last full raise; it may raise or call.
	va, err := h.LegalActions(0)
	if err != nil {
		t.Fatal(err)
	}
	if !hasOption(va, Raise) {
		t.Error("Seat 0 should be entitled to raise")
	}
	mustApply(t, h, 0, Action{Type: Call})

	// Seat 1 already acted; the 5-chip short raise reopened nothing.
	before := players[1].Chips
	if _, err := h.Apply(1, Action{Type: Raise, Amount: 60}, false); err == nil {
		t.Fatal("Raise after a short all-in must be rejected")
	} else if re, ok := err.(*RuleError); !ok || re.Code != CodeInvalidAction {
		t.Fatalf("Expected invalid_action, got %v", err)
	}
	if players[1].Chips != before || players[1].CurrentBet != 25 {
		t.Error("Rejected action must not mutate state")
	}
	va, err = h.LegalActions(1)
	if err != nil {
		t.Fatal(err)
	}
	if hasOption(va, Raise) {
		t.Error("Seat 1 must not have a raise option")
	}
	if va.CallAmount != 5 {
		t.Errorf("Seat 1 owes 5 to call, got %d", va.CallAmount)
	}

	res = mustApply(t, h, 1, Action{Type: Call})
	if !res.RoundComplete {
		t.Fatal("Round should complete after the call")
	}
	checkConservation(t, h)
}

func hasOption(va ValidActions, want ActionType) bool {
	for _, o := range va.Options {
		if o == want {
			return true
		}
	}
	return false
}

// Everyone folds to a bet: the hand ends without a showdown and the pot
// goes to the last player standing.
func TestFoldToOneSettlesWithoutShowdown(t *testing.T) {
	t.Parallel()

	players := seatPlayers(3, map[int]int{0: 100, 1: 100, 2: 100})
	d := riggedDeck(t, "2h 3h 4h 2d 3d 4d 8s 9s Ts Js Qs")
	h := NewHand(1, testConfig(3, 1, 2), players, 0, d)

	h.Begin()
	mustApply(t, h, 0, Action{Type: Raise, Amount: 6})
	mustApply(t, h, 1, Action{Type: Fold})
	res := mustApply(t, h, 2, Action{Type: Fold})
	if !res.HandComplete {
		t.Fatal("Hand should end when one player remains")
	}

	h.FinalizeRound()
	s, err := h.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if s.Showdown {
		t.Error("No showdown when everyone folds")
	}
	if players[0].Chips != 103 {
		t.Errorf("Winner stack = %d, want 103", players[0].Chips)
	}
	if h.Phase != PhaseSettled {
		t.Errorf("Phase = %s, want settled", h.Phase)
	}
	checkConservation(t, h)
}

// The big blind keeps its option: a limped pot is not complete until the
// big blind has acted, and it may raise.
func TestBigBlindOption(t *testing.T) {
	t.Parallel()

	players := seatPlayers(3, map[int]int{0: 100, 1: 100, 2: 100})
	d := riggedDeck(t, "2h 3h 4h 2d 3d 4d 8s 9s Ts Js Qs")
	h := NewHand(1, testConfig(3, 1, 2), players, 0, d)

	h.Begin()
	mustApply(t, h, 0, Action{Type: Call})
	res := mustApply(t, h, 1, Action{Type: Call})
	if res.RoundComplete {
		t.Fatal("Big blind still has the option")
	}
	if res.NextSeat != 2 {
		t.Fatalf("Action should be on the big blind, got %d", res.NextSeat)
	}

	va, err := h.LegalActions(2)
	if err != nil {
		t.Fatal(err)
	}
	if !hasOption(va, Check) || !hasOption(va, Raise) {
		t.Errorf("Big blind should be able to check or raise, got %v", va.Options)
	}

	res = mustApply(t, h, 2, Action{Type: Raise, Amount: 6})
	if res.RoundComplete {
		t.Fatal("A raise reopens the action")
	}
}

// Out-of-turn and wrong-phase actions are rejected without mutation.
func TestOutOfTurnRejected(t *testing.T) {
	t.Parallel()

	players := seatPlayers(3, map[int]int{0: 100, 1: 100, 2: 100})
	d := riggedDeck(t, "2h 3h 4h 2d 3d 4d 8s 9s Ts Js Qs")
	h := NewHand(1, testConfig(3, 1, 2), players, 0, d)
	h.Begin()

	_, err := h.Apply(1, Action{Type: Call}, false)
	re, ok := err.(*RuleError)
	if !ok || re.Code != CodeNotYourTurn {
		t.Fatalf("Expected not_your_turn, got %v", err)
	}
	if players[1].CurrentBet != 1 {
		t.Error("Out-of-turn action must not mutate state")
	}
}

// Abort rolls every stack back to its pre-hand value.
func TestAbortRestoresStacks(t *testing.T) {
	t.Parallel()

	players := seatPlayers(2, map[int]int{0: 200, 1: 200})
	d := riggedDeck(t, "Qh Th Jh Ts As Kd 7h 2c 9s")
	h := NewHand(1, testConfig(2, 1, 2), players, 0, d)

	h.Begin()
	mustApply(t, h, 0, Action{Type: Raise, Amount: 50})
	h.Abort()

	if players[0].Chips != 200 || players[1].Chips != 200 {
		t.Errorf("Stacks after abort %d/%d, want 200/200", players[0].Chips, players[1].Chips)
	}
	if h.Phase != PhaseSettled || !h.Aborted() {
		t.Error("Aborted hand should be settled")
	}
}

// Antes come off every stack before the blinds and go straight to the pot.
func TestAntesCollected(t *testing.T) {
	t.Parallel()

	cfg := testConfig(3, 1, 2)
	cfg.Ante = 1
	players := seatPlayers(3, map[int]int{0: 100, 1: 100, 2: 100})
	d := riggedDeck(t, "2h 3h 4h 2d 3d 4d 8s 9s Ts Js Qs")
	h := NewHand(1, cfg, players, 0, d)

	posts := h.Begin()
	if len(posts) != 5 {
		t.Fatalf("Expected 3 antes + 2 blinds, got %d posts", len(posts))
	}
	if h.PotTotal() != 3+1+2 {
		t.Errorf("Pot after posts = %d, want 6", h.PotTotal())
	}
	checkConservation(t, h)
}

// Replaying the same seed and actions yields identical boards and results.
func TestSeedReplayDeterminism(t *testing.T) {
	t.Parallel()

	run := func() ([]deck.Card, int, int) {
		players := seatPlayers(2, map[int]int{0: 200, 1: 200})
		h := NewHand(1, testConfig(2, 1, 2), players, 0, deck.New(991))
		h.Begin()
		mustApply(t, h, 0, Action{Type: Call})
		mustApply(t, h, 1, Action{Type: Check})
		h.FinalizeRound()
		for h.MoreStreets() {
			if _, _, err := h.AdvanceStreet(); err != nil {
				t.Fatal(err)
			}
			mustApply(t, h, 1, Action{Type: Check})
			mustApply(t, h, 0, Action{Type: Check})
			h.FinalizeRound()
		}
		h.EnterShowdown()
		if _, err := h.Resolve(); err != nil {
			t.Fatal(err)
		}
		return h.Community, players[0].Chips, players[1].Chips
	}

	board1, a1, b1 := run()
	board2, a2, b2 := run()
	if len(board1) != 5 {
		t.Fatalf("Expected a full board, got %d cards", len(board1))
	}
	for i := range board1 {
		if board1[i] != board2[i] {
			t.Fatalf("Board differs at %d: %s vs %s", i, board1[i], board2[i])
		}
	}
	if a1 != a2 || b1 != b2 {
		t.Errorf("Stacks differ across replays: %d/%d vs %d/%d", a1, b1, a2, b2)
	}
}
