package game

import (
	"fmt"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/deck"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/evaluator"
)

// Phase is the hand lifecycle stage. Settled is terminal.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhasePreflop
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
	PhaseSettled
)

// String returns the wire name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhasePreflop:
		return "preflop"
	case PhaseFlop:
		return "flop"
	case PhaseTurn:
		return "turn"
	case PhaseRiver:
		return "river"
	case PhaseShowdown:
		return "showdown"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Mode distinguishes cash games (rake applies) from tournaments.
type Mode int

const (
	Cash Mode = iota
	Tournament
)

// Config is the per-game rule set a hand is dealt under.
type Config struct {
	TableSize  int
	Mode       Mode
	Structure  Structure
	SmallBlind int
	BigBlind   int
	Ante       int
	Rake       RakeConfig
}

// Post is a forced wager made before voluntary action.
type Post struct {
	Seat   int
	Type   ActionType
	Amount int
}

// ActionRecord is one applied action, kept in order for the hand history.
type ActionRecord struct {
	Street Street
	Seat   int
	Type   ActionType
	Amount int
	Forced bool
}

// ApplyResult describes what an accepted action did to the hand.
type ApplyResult struct {
	Action        Action // normalized form (an all-in becomes bet/call/raise)
	Committed     int    // chips moved this action
	AllIn         bool
	RoundComplete bool
	HandComplete  bool // only one player left in the hand
	NextSeat      int  // -1 when no further action this street
}

// SeatAmount pairs a seat with a chip amount for wire payloads.
type SeatAmount struct {
	Seat   int
	Amount int
}

// RoundResult is the outcome of collecting a street's bets.
type RoundResult struct {
	PlayerBets []SeatAmount
	PotTotal   int
}

// Settlement is the final resolution of a hand.
type Settlement struct {
	Layers  []Layer
	Awards  []Award
	Ranks   map[int]evaluator.HandRank
	Rake    int
	Wins     []SeatAmount // aggregated award per winning seat
	Showdown bool         // false when everyone else folded
}

// Hand is the per-hand state machine. All mutation happens on the owning
// game's serialization point; Hand itself is not safe for concurrent use.
type Hand struct {
	ID    int
	Phase Phase

	Config Config
	// Structure and blinds are denormalized from Config for the rules engine.
	Structure  Structure
	SmallBlind int
	BigBlind   int

	Button int
	SBSeat int
	BBSeat int

	players   []*Player
	deck      *deck.Deck
	Community []deck.Card

	round    *bettingRound
	ActionOn int

	pot         *Pot
	startStacks map[int]int
	actions     []ActionRecord
	aborted     bool
}

// NewHand deals a fresh hand. The players slice is indexed by seat and may
// contain nils; only Active players are dealt in. The deck carries the seed
// recorded for replay.
func NewHand(id int, cfg Config, players []*Player, button int, d *deck.Deck) *Hand {
	h := &Hand{
		ID:         id,
		Phase:      PhaseWaiting,
		Config:     cfg,
		Structure:  cfg.Structure,
		SmallBlind: cfg.SmallBlind,
		BigBlind:   cfg.BigBlind,
		Button:     button,
		players:    players,
		deck:       d,
		pot:        NewPot(),
		ActionOn:   -1,
	}
	// Only dealt-in seats are tracked; sitting-out players hold no stake
	// in the hand.
	h.startStacks = make(map[int]int)
	for _, p := range players {
		if p != nil && p.Status == StatusActive {
			h.startStacks[p.Seat] = p.Chips
		}
	}
	h.assignBlindSeats()
	return h
}

// Seed returns the deck seed recorded for replay.
func (h *Hand) Seed() int64 {
	return h.deck.Seed()
}

// StartingStacks returns each dealt-in seat's pre-hand stack.
func (h *Hand) StartingStacks() map[int]int {
	out := make(map[int]int, len(h.startStacks))
	for seat, chips := range h.startStacks {
		out[seat] = chips
	}
	return out
}

// Player returns the occupant of a seat, nil if empty.
func (h *Hand) Player(seat int) *Player {
	if seat < 0 || seat >= len(h.players) {
		return nil
	}
	return h.players[seat]
}

// Players returns the seat table. Callers must not mutate it.
func (h *Hand) Players() []*Player {
	return h.players
}

// Actions returns the ordered action log.
func (h *Hand) Actions() []ActionRecord {
	return h.actions
}

// Pot returns the live pot total including uncollected street bets.
func (h *Hand) PotTotal() int {
	total := h.pot.Total()
	for _, p := range h.players {
		if p != nil {
			total += p.CurrentBet
		}
	}
	return total
}

// Street returns the current betting street. Only meaningful during
// Preflop..River phases.
func (h *Hand) Street() Street {
	switch h.Phase {
	case PhaseFlop:
		return Flop
	case PhaseTurn:
		return Turn
	case PhaseRiver:
		return River
	default:
		return Preflop
	}
}

// assignBlindSeats places the blinds clockwise from the button. Heads-up
// the button posts the small blind.
func (h *Hand) assignBlindSeats() {
	if h.countInHand() == 2 {
		h.SBSeat = h.Button
		h.BBSeat = h.nextInHand(h.Button)
		return
	}
	h.SBSeat = h.nextInHand(h.Button)
	h.BBSeat = h.nextInHand(h.SBSeat)
}

// Begin posts antes and blinds, deals hole cards, and opens preflop
// betting. The returned posts are broadcast so clients can animate them.
func (h *Hand) Begin() []Post {
	h.Phase = PhasePreflop
	h.round = newBettingRound(Preflop, h.BigBlind)

	var posts []Post
	if h.Config.Ante > 0 {
		for _, seat := range clockwiseFrom(h.Button+1, len(h.players)) {
			p := h.players[seat]
			if p == nil || !p.InHand() {
				continue
			}
			posts = append(posts, h.postAnte(p))
		}
	}

	posts = append(posts, h.postBlind(h.SBSeat, PostSmallBlind, h.SmallBlind))
	posts = append(posts, h.postBlind(h.BBSeat, PostBigBlind, h.BigBlind))
	h.round.currentBet = h.BigBlind
	h.round.minRaise = h.BigBlind
	h.round.lastAggressor = h.BBSeat
	h.round.raises = 1 // the big blind counts as the first bet

	// Two cards each, clockwise from the small blind.
	for i := 0; i < 2; i++ {
		for _, seat := range clockwiseFrom(h.SBSeat, len(h.players)) {
			p := h.players[seat]
			if p == nil || !p.InHand() {
				continue
			}
			card, _ := h.deck.Draw()
			p.HoleCards = append(p.HoleCards, card)
		}
	}

	h.ActionOn = h.firstToAct(h.BBSeat + 1)
	return posts
}

// postAnte takes the ante straight into the pot; it is not a street bet.
func (h *Hand) postAnte(p *Player) Post {
	amount := h.Config.Ante
	if amount > p.Chips {
		amount = p.Chips
	}
	p.Chips -= amount
	p.TotalBet += amount
	if p.Chips == 0 {
		p.Status = StatusAllIn
		h.pot.MarkAllIn(p.Seat)
	}
	h.pot.Add(p.Seat, amount)
	h.record(p.Seat, PostAnte, amount, true)
	return Post{Seat: p.Seat, Type: PostAnte, Amount: amount}
}

func (h *Hand) postBlind(seat int, kind ActionType, amount int) Post {
	p := h.players[seat]
	committed := p.commit(amount)
	if p.Status == StatusAllIn {
		h.pot.MarkAllIn(seat)
	}
	h.record(seat, kind, committed, true)
	return Post{Seat: seat, Type: kind, Amount: committed}
}

func (h *Hand) record(seat int, kind ActionType, amount int, forced bool) {
	h.actions = append(h.actions, ActionRecord{
		Street: h.Street(),
		Seat:   seat,
		Type:   kind,
		Amount: amount,
		Forced: forced,
	})
}

// countInHand counts players still contesting the pot.
func (h *Hand) countInHand() int {
	n := 0
	for _, p := range h.players {
		if p != nil && p.InHand() {
			n++
		}
	}
	return n
}

// countCanAct counts players who can still make voluntary actions.
func (h *Hand) countCanAct() int {
	n := 0
	for _, p := range h.players {
		if p != nil && p.CanAct() {
			n++
		}
	}
	return n
}

// nextInHand returns the next seat clockwise from the given seat whose
// occupant is still in the hand.
func (h *Hand) nextInHand(from int) int {
	for _, seat := range clockwiseFrom(from+1, len(h.players)) {
		p := h.players[seat]
		if p != nil && p.InHand() {
			return seat
		}
	}
	return -1
}

// firstToAct returns the first seat at or after from that can act, -1 if
// none.
func (h *Hand) firstToAct(from int) int {
	for _, seat := range clockwiseFrom(from, len(h.players)) {
		p := h.players[seat]
		if p != nil && p.CanAct() {
			return seat
		}
	}
	return -1
}

// nextToAct returns the next seat after from that still owes action this
// street: a player who can act and has either not acted since the last
// full raise or has not matched the current bet. Returns -1 when the
// betting round is complete.
func (h *Hand) nextToAct(from int) int {
	for _, seat := range clockwiseFrom(from+1, len(h.players)) {
		p := h.players[seat]
		if p == nil || !p.CanAct() {
			continue
		}
		if !h.round.acted[seat] || p.CurrentBet < h.round.currentBet {
			return seat
		}
	}
	return -1
}

// Apply validates and applies one action for the seat currently on the
// action pointer. Rule errors leave the hand untouched. forced marks
// engine-substituted defaults (timeouts, AI failures) for the record.
func (h *Hand) Apply(seat int, a Action, forced bool) (*ApplyResult, error) {
	if h.Phase < PhasePreflop || h.Phase > PhaseRiver {
		return nil, ruleErrorf(CodeInvalidAction, "hand is not in a betting phase")
	}
	if seat != h.ActionOn {
		return nil, ruleErrorf(CodeNotYourTurn, "action is on seat %d", h.ActionOn)
	}
	p := h.players[seat]
	if p == nil || !p.CanAct() {
		return nil, ruleErrorf(CodeInvalidAction, "seat %d cannot act", seat)
	}

	norm, commit, err := h.validate(seat, a)
	if err != nil {
		return nil, err
	}

	res := &ApplyResult{Action: norm}
	switch norm.Type {
	case Fold:
		p.Status = StatusFolded
		p.HoleCards = nil
		h.pot.MarkFolded(seat)
		h.round.acted[seat] = true

	case Check:
		h.round.acted[seat] = true

	case Call:
		res.Committed = p.commit(commit)
		h.round.acted[seat] = true

	case Bet:
		res.Committed = p.commit(commit)
		h.round.recordAggression(seat, p.CurrentBet, p.CurrentBet >= h.round.minRaise)

	case Raise:
		before := h.round.currentBet
		res.Committed = p.commit(commit)
		h.round.recordAggression(seat, p.CurrentBet, p.CurrentBet-before >= h.round.minRaise)
	}

	if p.Status == StatusAllIn {
		res.AllIn = true
		h.pot.MarkAllIn(seat)
	}
	h.record(seat, norm.Type, res.Committed, forced)

	if h.countInHand() == 1 {
		res.HandComplete = true
		res.RoundComplete = true
		h.ActionOn = -1
		return res, nil
	}

	res.NextSeat = h.nextToAct(seat)
	h.ActionOn = res.NextSeat
	res.RoundComplete = res.NextSeat == -1
	return res, nil
}

// FinalizeRound collects each player's street bet into the pot and resets
// the per-street state. Emitted as round_bets_finalized.
func (h *Hand) FinalizeRound() RoundResult {
	var rr RoundResult
	for _, seat := range clockwiseFrom(h.Button+1, len(h.players)) {
		p := h.players[seat]
		if p == nil {
			continue
		}
		if p.CurrentBet > 0 {
			h.pot.Add(seat, p.CurrentBet)
			rr.PlayerBets = append(rr.PlayerBets, SeatAmount{Seat: seat, Amount: p.CurrentBet})
			p.CurrentBet = 0
		}
	}
	rr.PotTotal = h.pot.Total()
	return rr
}

// MoreStreets reports whether community cards remain to be dealt.
func (h *Hand) MoreStreets() bool {
	return h.Phase >= PhasePreflop && h.Phase < PhaseRiver
}

// BettingOpen reports whether the next street can have a betting round.
// With fewer than two players able to act, remaining streets run out
// automatically.
func (h *Hand) BettingOpen() bool {
	return h.countCanAct() >= 2
}

// AdvanceStreet deals the next street and opens its betting round. The
// action pointer lands on the first player able to act clockwise from the
// button, or -1 during a runout.
func (h *Hand) AdvanceStreet() (Street, []deck.Card, error) {
	var street Street
	var cards []deck.Card
	switch h.Phase {
	case PhasePreflop:
		street = Flop
		cards = h.deck.DrawN(3)
		h.Phase = PhaseFlop
	case PhaseFlop:
		street = Turn
		cards = h.deck.DrawN(1)
		h.Phase = PhaseTurn
	case PhaseTurn:
		street = River
		cards = h.deck.DrawN(1)
		h.Phase = PhaseRiver
	default:
		return 0, nil, fmt.Errorf("no street after %s", h.Phase)
	}
	h.Community = append(h.Community, cards...)

	h.round = newBettingRound(street, h.BigBlind)
	if h.Structure == FixedLimit {
		h.round.minRaise = h.fixedBet()
	}
	if h.BettingOpen() {
		h.ActionOn = h.firstToAct(h.Button + 1)
	} else {
		h.ActionOn = -1
	}
	return street, cards, nil
}

// EnterShowdown moves the hand into the showdown phase.
func (h *Hand) EnterShowdown() {
	h.Phase = PhaseShowdown
	h.ActionOn = -1
}

// Resolve settles the hand: rake, pot layers, awards, stack updates.
// All street bets must already be collected via FinalizeRound.
func (h *Hand) Resolve() (*Settlement, error) {
	for _, p := range h.players {
		if p != nil && p.CurrentBet != 0 {
			return nil, fmt.Errorf("uncollected bet on seat %d", p.Seat)
		}
	}

	s := &Settlement{Ranks: make(map[int]evaluator.HandRank)}
	s.Showdown = h.countInHand() > 1

	for _, p := range h.players {
		if p == nil || !p.InHand() {
			continue
		}
		if s.Showdown {
			s.Ranks[p.Seat] = evaluator.Evaluate(p.HoleCards, h.Community)
		} else {
			s.Ranks[p.Seat] = evaluator.HandRank{}
		}
	}

	if h.Config.Mode == Cash {
		flopDealt := len(h.Community) >= 3
		s.Rake = h.Config.Rake.ComputeRake(h.pot.Total(), h.BigBlind, flopDealt)
		h.pot.TakeRake(s.Rake)
	}

	s.Layers = h.pot.Layers()
	s.Awards = AwardLayers(s.Layers, s.Ranks, h.Button, len(h.players))

	wins := make(map[int]int)
	for _, a := range s.Awards {
		h.players[a.Seat].Chips += a.Amount
		h.pot.Distribute(a.Amount)
		wins[a.Seat] += a.Amount
	}
	for _, seat := range clockwiseFrom(h.Button+1, len(h.players)) {
		if amount, ok := wins[seat]; ok {
			s.Wins = append(s.Wins, SeatAmount{Seat: seat, Amount: amount})
		}
	}

	h.Phase = PhaseSettled
	if err := h.CheckConservation(); err != nil {
		return nil, err
	}
	return s, nil
}

// CheckConservation verifies that no chips were created or destroyed:
// stacks plus uncollected bets plus the pot plus rake must equal the
// starting stacks.
func (h *Hand) CheckConservation() error {
	have := h.pot.Total() + h.pot.Raked()
	want := 0
	for seat, start := range h.startStacks {
		want += start
		p := h.players[seat]
		if p != nil {
			have += p.Chips + p.CurrentBet
		}
	}
	if have != want {
		return fmt.Errorf("chip conservation violated: have %d, started with %d", have, want)
	}
	return nil
}

// Abort rolls every stack back to its pre-hand value and settles the hand.
// Used when an internal invariant breach is detected.
func (h *Hand) Abort() {
	for seat, start := range h.startStacks {
		if p := h.players[seat]; p != nil {
			p.Chips = start
			p.CurrentBet = 0
			p.TotalBet = 0
			if p.Status == StatusFolded || p.Status == StatusAllIn {
				p.Status = StatusActive
			}
		}
	}
	h.aborted = true
	h.Phase = PhaseSettled
	h.ActionOn = -1
}

// Aborted reports whether the hand was rolled back.
func (h *Hand) Aborted() bool {
	return h.aborted
}
