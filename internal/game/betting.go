package game

// Street is one community-card stage with its own betting round.
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
)

// String returns the wire name of the street.
func (s Street) String() string {
	switch s {
	case Preflop:
		return "PREFLOP"
	case Flop:
		return "FLOP"
	case Turn:
		return "TURN"
	case River:
		return "RIVER"
	default:
		return "UNKNOWN"
	}
}

// ActionType identifies a betting action. The blind/ante posts are forced
// actions that appear in event streams and hand histories but are never
// accepted from clients.
type ActionType int

const (
	Fold ActionType = iota
	Check
	Call
	Bet
	Raise
	AllIn
	PostSmallBlind
	PostBigBlind
	PostAnte
)

// String returns the wire name of the action.
func (a ActionType) String() string {
	switch a {
	case Fold:
		return "FOLD"
	case Check:
		return "CHECK"
	case Call:
		return "CALL"
	case Bet:
		return "BET"
	case Raise:
		return "RAISE"
	case AllIn:
		return "ALL_IN"
	case PostSmallBlind:
		return "POST_SMALL_BLIND"
	case PostBigBlind:
		return "POST_BIG_BLIND"
	case PostAnte:
		return "POST_ANTE"
	default:
		return "UNKNOWN"
	}
}

// ParseActionType converts a wire action name into an ActionType. Only the
// voluntary actions are accepted; posts are server-generated.
func ParseActionType(s string) (ActionType, bool) {
	switch s {
	case "FOLD":
		return Fold, true
	case "CHECK":
		return Check, true
	case "CALL":
		return Call, true
	case "BET":
		return Bet, true
	case "RAISE":
		return Raise, true
	case "ALL_IN":
		return AllIn, true
	default:
		return 0, false
	}
}

// Action is a player's intent. Amount is the bet size for Bet and the
// raise-to total for Raise; it is ignored for Fold, Check, Call and AllIn.
type Action struct {
	Type   ActionType
	Amount int
}

// bettingRound tracks the state of one street's betting. The acted flags
// record who has acted since the last full raise; a short all-in raise does
// not clear them, which is what keeps it from reopening the action.
type bettingRound struct {
	street        Street
	currentBet    int // bet to match
	minRaise      int // minimum raise increment
	lastAggressor int // seat, -1 if none
	acted         map[int]bool
	raises        int // completed bets+raises this street (fixed-limit cap)
}

func newBettingRound(street Street, bigBlind int) *bettingRound {
	return &bettingRound{
		street:        street,
		currentBet:    0,
		minRaise:      bigBlind,
		lastAggressor: -1,
		acted:         make(map[int]bool),
	}
}

// recordAggression registers a bet or raise to total. A full raise resets
// everyone else's acted flag, reopening the action; a short all-in leaves
// them set.
func (r *bettingRound) recordAggression(seat, to int, full bool) {
	if full {
		r.minRaise = to - r.currentBet
		for s := range r.acted {
			delete(r.acted, s)
		}
	}
	r.currentBet = to
	r.lastAggressor = seat
	r.acted[seat] = true
	r.raises++
}
