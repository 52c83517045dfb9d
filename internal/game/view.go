package game

import "github.com/MatthewPDingle/CSCPT-sub000/internal/deck"

// PlayerView is the public picture of one seat. HoleCards is populated only
// for the viewer's own seat, or for everyone at showdown.
type PlayerView struct {
	ID         string      `json:"player_id"`
	Name       string      `json:"name"`
	Seat       int         `json:"seat"`
	Chips      int         `json:"chips"`
	CurrentBet int         `json:"current_bet"`
	TotalBet   int         `json:"total_bet"`
	Status     string      `json:"status"`
	Human      bool        `json:"is_human"`
	HoleCards  []deck.Card `json:"hole_cards,omitempty"`
}

// LayerView is one pot layer for the wire.
type LayerView struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible_seats"`
}

// Snapshot is the full game_state picture as seen by one viewer. It
// reflects the state after the most recently emitted event of the hand.
type Snapshot struct {
	HandID     int         `json:"hand_id"`
	Phase      string      `json:"phase"`
	Community  []deck.Card `json:"community"`
	Players    []PlayerView `json:"players"`
	PotTotal   int         `json:"pot_total"`
	Layers     []LayerView `json:"pot_layers"`
	Button     int         `json:"button_seat"`
	SBSeat     int         `json:"small_blind_seat"`
	BBSeat     int         `json:"big_blind_seat"`
	ActionOn   int         `json:"action_on"`
	CurrentBet int         `json:"current_bet"`
	MinRaise   int         `json:"min_raise"`
	SmallBlind int         `json:"small_blind"`
	BigBlind   int         `json:"big_blind"`
	Ante       int         `json:"ante"`
}

// Snapshot renders the hand for one viewer, masking every other seat's hole
// cards. revealAll is set during showdown, when non-folded hands are
// public.
func (h *Hand) Snapshot(viewerSeat int, revealAll bool) Snapshot {
	s := Snapshot{
		HandID:     h.ID,
		Phase:      h.Phase.String(),
		Community:  append([]deck.Card(nil), h.Community...),
		Button:     h.Button,
		SBSeat:     h.SBSeat,
		BBSeat:     h.BBSeat,
		ActionOn:   h.ActionOn,
		PotTotal:   h.PotTotal(),
		SmallBlind: h.SmallBlind,
		BigBlind:   h.BigBlind,
		Ante:       h.Config.Ante,
	}
	if h.round != nil {
		s.CurrentBet = h.round.currentBet
		s.MinRaise = h.round.minRaise
	}
	for _, l := range h.pot.Layers() {
		s.Layers = append(s.Layers, LayerView{Amount: l.Amount, Eligible: l.Eligible})
	}
	for _, p := range h.players {
		if p == nil {
			continue
		}
		pv := PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			Seat:       p.Seat,
			Chips:      p.Chips,
			CurrentBet: p.CurrentBet,
			TotalBet:   p.TotalBet,
			Status:     p.Status.String(),
			Human:      p.Human,
		}
		if p.Seat == viewerSeat || (revealAll && p.InHand()) {
			pv.HoleCards = append([]deck.Card(nil), p.HoleCards...)
		}
		s.Players = append(s.Players, pv)
	}
	return s
}
