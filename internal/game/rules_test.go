package game

import (
	"errors"
	"testing"
)

func newStructureHand(t *testing.T, structure Structure, stacks map[int]int) *Hand {
	t.Helper()
	cfg := testConfig(3, 1, 2)
	cfg.Structure = structure
	players := seatPlayers(3, stacks)
	d := riggedDeck(t, "2h 3h 4h 2d 3d 4d 8s 9c Td Js Qs")
	h := NewHand(1, cfg, players, 0, d)
	h.Begin()
	return h
}

func TestPotLimitPreflopOpenRange(t *testing.T) {
	t.Parallel()

	h := newStructureHand(t, PotLimit, map[int]int{0: 100, 1: 100, 2: 100})

	// Blinds 1/2, pot 3 before seat 0 acts. Calling makes it 5, so the
	// maximum raise is to 7 (pot-sized raise over the blind).
	va, err := h.LegalActions(0)
	if err != nil {
		t.Fatal(err)
	}
	if va.MinRaise != 4 || va.MaxRaise != 7 {
		t.Errorf("Raise range [%d, %d], want [4, 7]", va.MinRaise, va.MaxRaise)
	}

	if _, err := h.Apply(0, Action{Type: Raise, Amount: 8}, false); err == nil {
		t.Fatal("Overpot raise must be rejected")
	}
	mustApply(t, h, 0, Action{Type: Raise, Amount: 7})
}

func TestPotLimitPostflopBetCappedAtPot(t *testing.T) {
	t.Parallel()

	h := newStructureHand(t, PotLimit, map[int]int{0: 100, 1: 100, 2: 100})
	mustApply(t, h, 0, Action{Type: Call})
	mustApply(t, h, 1, Action{Type: Call})
	mustApply(t, h, 2, Action{Type: Check})
	h.FinalizeRound()
	if _, _, err := h.AdvanceStreet(); err != nil {
		t.Fatal(err)
	}

	// Pot is 6; an opening bet may not exceed it.
	va, err := h.LegalActions(h.ActionOn)
	if err != nil {
		t.Fatal(err)
	}
	if va.MinRaise != 2 || va.MaxRaise != 6 {
		t.Errorf("Bet range [%d, %d], want [2, 6]", va.MinRaise, va.MaxRaise)
	}
	if _, err := h.Apply(h.ActionOn, Action{Type: Bet, Amount: 7}, false); err == nil {
		t.Fatal("Overpot bet must be rejected")
	}
}

func TestFixedLimitBetSizes(t *testing.T) {
	t.Parallel()

	h := newStructureHand(t, FixedLimit, map[int]int{0: 100, 1: 100, 2: 100})
	mustApply(t, h, 0, Action{Type: Call})
	mustApply(t, h, 1, Action{Type: Call})
	mustApply(t, h, 2, Action{Type: Check})
	h.FinalizeRound()

	// Small bet on the flop.
	if _, _, err := h.AdvanceStreet(); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Apply(h.ActionOn, Action{Type: Bet, Amount: 3}, false); err == nil {
		t.Fatal("Off-size bet must be rejected in fixed limit")
	}
	mustApply(t, h, h.ActionOn, Action{Type: Bet, Amount: 2})
	mustApply(t, h, h.ActionOn, Action{Type: Fold})
	mustApply(t, h, h.ActionOn, Action{Type: Call})
	h.FinalizeRound()

	// Big bet on the turn.
	if _, _, err := h.AdvanceStreet(); err != nil {
		t.Fatal(err)
	}
	va, err := h.LegalActions(h.ActionOn)
	if err != nil {
		t.Fatal(err)
	}
	if va.MinRaise != 4 || va.MaxRaise != 4 {
		t.Errorf("Turn bet must be exactly 4, got [%d, %d]", va.MinRaise, va.MaxRaise)
	}
}

func TestFixedLimitRaiseCap(t *testing.T) {
	t.Parallel()

	h := newStructureHand(t, FixedLimit, map[int]int{0: 100, 1: 100, 2: 100})

	// Preflop: the blind counts as the first bet; three raises cap it.
	mustApply(t, h, 0, Action{Type: Raise, Amount: 4})
	mustApply(t, h, 1, Action{Type: Raise, Amount: 6})
	mustApply(t, h, 2, Action{Type: Raise, Amount: 8})

	va, err := h.LegalActions(0)
	if err != nil {
		t.Fatal(err)
	}
	if hasOption(va, Raise) {
		t.Error("Betting is capped after one bet and three raises")
	}
	if _, err := h.Apply(0, Action{Type: Raise, Amount: 10}, false); err == nil {
		t.Fatal("Raise past the cap must be rejected")
	}
	mustApply(t, h, 0, Action{Type: Call})
}

func TestFixedLimitCapLiftedHeadsUp(t *testing.T) {
	t.Parallel()

	h := newStructureHand(t, FixedLimit, map[int]int{0: 100, 1: 100, 2: 100})

	mustApply(t, h, 0, Action{Type: Raise, Amount: 4})
	mustApply(t, h, 1, Action{Type: Fold})
	mustApply(t, h, 2, Action{Type: Raise, Amount: 6})
	mustApply(t, h, 0, Action{Type: Raise, Amount: 8})

	// Two players left: the cap no longer applies.
	va, err := h.LegalActions(2)
	if err != nil {
		t.Fatal(err)
	}
	if !hasOption(va, Raise) {
		t.Error("Heads-up fixed limit has no raise cap")
	}
	mustApply(t, h, 2, Action{Type: Raise, Amount: 10})
}

func TestNoLimitMinRaiseTracksLastFullRaise(t *testing.T) {
	t.Parallel()

	h := newStructureHand(t, NoLimit, map[int]int{0: 500, 1: 500, 2: 500})

	mustApply(t, h, 0, Action{Type: Raise, Amount: 10}) // raise of 8
	va, err := h.LegalActions(1)
	if err != nil {
		t.Fatal(err)
	}
	if va.MinRaise != 18 {
		t.Errorf("Min raise-to after a raise of 8 = %d, want 18", va.MinRaise)
	}

	mustApply(t, h, 1, Action{Type: Raise, Amount: 30}) // raise of 20
	va, err = h.LegalActions(2)
	if err != nil {
		t.Fatal(err)
	}
	if va.MinRaise != 50 {
		t.Errorf("Min raise-to after a raise of 20 = %d, want 50", va.MinRaise)
	}
}

func TestShortAllInBelowBetToMatchIsNotARaise(t *testing.T) {
	t.Parallel()

	h := newStructureHand(t, NoLimit, map[int]int{0: 500, 1: 500, 2: 52})

	mustApply(t, h, 0, Action{Type: Raise, Amount: 100})
	mustApply(t, h, 1, Action{Type: Call})

	// Seat 2 can move in for 52 total, but that does not get over the
	// top of the 100 to match: it is a call for less, never a raise.
	_, err := h.Apply(2, Action{Type: Raise, Amount: 52}, false)
	if err == nil {
		t.Fatal("Raise-to below the bet to match must be rejected")
	}
	var re *RuleError
	if !errors.As(err, &re) || re.Code != CodeInvalidAction {
		t.Fatalf("Expected %s, got %v", CodeInvalidAction, err)
	}
	if h.round.currentBet != 100 {
		t.Fatalf("Rejected raise moved the bet to match to %d", h.round.currentBet)
	}

	res := mustApply(t, h, 2, Action{Type: AllIn})
	if res.Action.Type != Call || !res.AllIn || res.Committed != 50 {
		t.Errorf("Expected an all-in call of 50, got %s committed=%d allIn=%v",
			res.Action.Type, res.Committed, res.AllIn)
	}
	if h.round.currentBet != 100 {
		t.Errorf("Bet to match after a call for less = %d, want 100", h.round.currentBet)
	}
}

func TestCallForLessIsAllIn(t *testing.T) {
	t.Parallel()

	h := newStructureHand(t, NoLimit, map[int]int{0: 500, 1: 500, 2: 10})

	mustApply(t, h, 0, Action{Type: Raise, Amount: 50})
	mustApply(t, h, 1, Action{Type: Fold})

	// Seat 2 has 8 behind after the blind; the call is for less.
	res := mustApply(t, h, 2, Action{Type: Call})
	if !res.AllIn || res.Committed != 8 {
		t.Errorf("Expected an all-in call of 8, got committed=%d allIn=%v", res.Committed, res.AllIn)
	}
}
