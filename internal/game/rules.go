package game

import "fmt"

// Structure is the betting structure of a game.
type Structure int

const (
	NoLimit Structure = iota
	PotLimit
	FixedLimit
)

// String returns the wire name of the structure.
func (s Structure) String() string {
	switch s {
	case NoLimit:
		return "no_limit"
	case PotLimit:
		return "pot_limit"
	case FixedLimit:
		return "fixed_limit"
	default:
		return "unknown"
	}
}

// ParseStructure converts a config string into a Structure.
func ParseStructure(s string) (Structure, error) {
	switch s {
	case "no_limit":
		return NoLimit, nil
	case "pot_limit":
		return PotLimit, nil
	case "fixed_limit":
		return FixedLimit, nil
	default:
		return 0, fmt.Errorf("unknown betting structure %q", s)
	}
}

// Error codes carried by RuleError onto the wire.
const (
	CodeInvalidAction = "invalid_action"
	CodeNotYourTurn   = "not_your_turn"
	CodeStaleHandID   = "stale_hand_id"
)

// RuleError is a rejected action. Code maps directly onto the wire error
// code; rule errors never mutate hand state.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func ruleErrorf(code, format string, args ...any) *RuleError {
	return &RuleError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ValidActions describes what the actor may legally do, in the shape the
// action_request event needs. CallAmount is the additional chips required
// to call. MinRaise and MaxRaise are raise-to totals (or bet sizes when
// there is no bet to match). Zero MaxRaise means no bet or raise is legal.
type ValidActions struct {
	Options    []ActionType
	CallAmount int
	MinRaise   int
	MaxRaise   int
}

// fixedBet returns the fixed bet size for the street: small bet preflop and
// on the flop, big bet (double) on turn and river.
func (h *Hand) fixedBet() int {
	if h.round.street >= Turn {
		return h.BigBlind * 2
	}
	return h.BigBlind
}

// raiseCapReached reports whether fixed-limit betting is capped this street.
// The conventional cap is one bet plus three raises, lifted heads-up.
func (h *Hand) raiseCapReached() bool {
	if h.Structure != FixedLimit {
		return false
	}
	if h.countInHand() <= 2 {
		return false
	}
	return h.round.raises >= 4
}

// potAfterCall returns the pot-limit maximum additional wager: the pot as
// it would stand after the actor called.
func (h *Hand) potAfterCall(callAmount int) int {
	potBefore := h.pot.Total()
	for _, p := range h.players {
		if p != nil {
			potBefore += p.CurrentBet
		}
	}
	return potBefore + callAmount
}

// LegalActions computes the legal actions for the given seat under the
// current round state and betting structure. It is pure with respect to
// hand state.
func (h *Hand) LegalActions(seat int) (ValidActions, error) {
	p := h.players[seat]
	if p == nil || !p.CanAct() {
		return ValidActions{}, ruleErrorf(CodeInvalidAction, "seat %d cannot act", seat)
	}

	var va ValidActions
	b := h.round.currentBet
	owed := b - p.CurrentBet

	va.Options = append(va.Options, Fold)

	if owed <= 0 {
		va.Options = append(va.Options, Check)
	} else {
		va.Options = append(va.Options, Call)
		va.CallAmount = owed
		if va.CallAmount > p.Chips {
			va.CallAmount = p.Chips
		}
	}

	// Aggression: a bet when nothing is in front, a raise otherwise.
	// Short stacks can always move in; full raises additionally require
	// the actor not to have acted since the last full raise.
	if b == 0 {
		if !h.raiseCapReached() {
			min, max := h.betBounds(p)
			if max > 0 {
				va.Options = append(va.Options, Bet)
				va.MinRaise = min
				va.MaxRaise = max
			}
		}
	} else {
		if !h.raiseCapReached() && !h.round.acted[seat] {
			min, max := h.raiseBounds(p, owed)
			if max > b {
				va.Options = append(va.Options, Raise)
				va.MinRaise = min
				va.MaxRaise = max
			}
		}
	}

	// Moving in is legal unless it would constitute a raise the actor is
	// not entitled to make.
	all := p.CurrentBet + p.Chips
	if all <= b || b == 0 || (!h.round.acted[seat] && !h.raiseCapReached()) {
		va.Options = append(va.Options, AllIn)
	}
	return va, nil
}

// betBounds returns the legal opening bet range for the structure.
func (h *Hand) betBounds(p *Player) (min, max int) {
	switch h.Structure {
	case FixedLimit:
		size := h.fixedBet()
		if p.Chips < size {
			return p.Chips, p.Chips
		}
		return size, size
	case PotLimit:
		min = h.BigBlind
		max = h.potAfterCall(0)
		if max < min {
			max = min
		}
	default:
		min = h.BigBlind
		max = p.Chips
	}
	if min > p.Chips {
		min = p.Chips
	}
	if max > p.Chips {
		max = p.Chips
	}
	return min, max
}

// raiseBounds returns the legal raise-to range for the structure.
func (h *Hand) raiseBounds(p *Player, owed int) (min, max int) {
	b := h.round.currentBet
	min = b + h.round.minRaise
	switch h.Structure {
	case FixedLimit:
		to := b + h.fixedBet()
		min, max = to, to
	case PotLimit:
		max = b + h.potAfterCall(owed)
	default:
		max = p.CurrentBet + p.Chips
	}
	if all := p.CurrentBet + p.Chips; min > all {
		min = all
	}
	if all := p.CurrentBet + p.Chips; max > all {
		max = all
	}
	return min, max
}

// validate checks an action against the round state without mutating
// anything. It returns the action normalized to its effective form (an
// all-in is reclassified as bet, call, or raise) and the chips to commit.
func (h *Hand) validate(seat int, a Action) (Action, int, error) {
	p := h.players[seat]
	b := h.round.currentBet
	owed := b - p.CurrentBet

	switch a.Type {
	case Fold:
		return a, 0, nil

	case Check:
		if owed > 0 {
			return a, 0, ruleErrorf(CodeInvalidAction, "cannot check facing a bet of %d", b)
		}
		return a, 0, nil

	case Call:
		if owed <= 0 {
			return a, 0, ruleErrorf(CodeInvalidAction, "nothing to call")
		}
		amount := owed
		if amount > p.Chips {
			amount = p.Chips
		}
		return a, amount, nil

	case Bet:
		if b != 0 {
			return a, 0, ruleErrorf(CodeInvalidAction, "cannot bet facing a bet; raise instead")
		}
		if h.raiseCapReached() {
			return a, 0, ruleErrorf(CodeInvalidAction, "betting is capped this street")
		}
		min, max := h.betBounds(p)
		if a.Amount < min || a.Amount > max {
			return a, 0, ruleErrorf(CodeInvalidAction, "bet %d outside legal range [%d, %d]", a.Amount, min, max)
		}
		return a, a.Amount, nil

	case Raise:
		if b == 0 {
			return a, 0, ruleErrorf(CodeInvalidAction, "nothing to raise; bet instead")
		}
		if h.raiseCapReached() {
			return a, 0, ruleErrorf(CodeInvalidAction, "raising is capped this street")
		}
		if h.round.acted[seat] {
			return a, 0, ruleErrorf(CodeInvalidAction, "action was not reopened; call or fold")
		}
		// A raise must exceed the bet to match, all-in or not; a short
		// stack that cannot get over the top calls for less instead.
		if a.Amount <= b {
			return a, 0, ruleErrorf(CodeInvalidAction, "raise to %d does not exceed the current bet %d", a.Amount, b)
		}
		all := p.CurrentBet + p.Chips
		min, max := h.raiseBounds(p, owed)
		if a.Amount != all && (a.Amount < min || a.Amount > max) {
			return a, 0, ruleErrorf(CodeInvalidAction, "raise to %d outside legal range [%d, %d]", a.Amount, min, max)
		}
		if a.Amount > max {
			return a, 0, ruleErrorf(CodeInvalidAction, "raise to %d exceeds maximum %d", a.Amount, max)
		}
		return a, a.Amount - p.CurrentBet, nil

	case AllIn:
		if p.Chips == 0 {
			return a, 0, ruleErrorf(CodeInvalidAction, "no chips to move in")
		}
		all := p.CurrentBet + p.Chips
		switch {
		case b == 0:
			return Action{Type: Bet, Amount: all}, p.Chips, nil
		case all <= b:
			return Action{Type: Call}, p.Chips, nil
		default:
			// A raise for less than the minimum is allowed all-in but a
			// player facing it without reopened action still cannot move
			// in over the top.
			if h.round.acted[seat] {
				return a, 0, ruleErrorf(CodeInvalidAction, "action was not reopened; call or fold")
			}
			if h.raiseCapReached() {
				return a, 0, ruleErrorf(CodeInvalidAction, "raising is capped this street")
			}
			return Action{Type: Raise, Amount: all}, p.Chips, nil
		}

	default:
		return a, 0, ruleErrorf(CodeInvalidAction, "unknown action %s", a.Type)
	}
}
