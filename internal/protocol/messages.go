// Package protocol defines the JSON wire format between server and
// clients: one envelope shape, a closed set of message types, and typed
// payloads per type. Decoding is strict; unknown types and unknown fields
// are rejected rather than ignored.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/deck"
)

// Client → server message types.
const (
	MsgAction        = "action"
	MsgAnimationDone = "animation_done"
	MsgPing          = "ping"
)

// Server → client event types.
const (
	EventGameState             = "game_state"
	EventActionRequest         = "action_request"
	EventPlayerAction          = "player_action"
	EventRoundBetsFinalized    = "round_bets_finalized"
	EventStreetDealt           = "street_dealt"
	EventShowdownTransition    = "showdown_transition"
	EventShowdownHandsRevealed = "showdown_hands_revealed"
	EventPotWinnersDetermined  = "pot_winners_determined"
	EventChipsDistributed      = "chips_distributed"
	EventHandVisuallyConcluded = "hand_visually_concluded"
	EventError                 = "error"
	EventPong                  = "pong"
)

// Wire error codes.
const (
	CodeInvalidMessage = "invalid_message"
	CodeInvalidAction  = "invalid_action"
	CodeNotYourTurn    = "not_your_turn"
	CodeStaleHandID    = "stale_hand_id"
	CodeGameNotFound   = "game_not_found"
	CodeRateLimited    = "rate_limited"
	CodeInternal       = "internal"
)

// Envelope frames every message in both directions. Server events carry
// the hand ID and a per-hand monotonic sequence number; client messages
// carry only type and data.
type Envelope struct {
	Type      string          `json:"type"`
	HandID    int             `json:"hand_id,omitempty"`
	EventSeq  int             `json:"event_seq,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ActionMsg is a client's betting intent.
type ActionMsg struct {
	HandID int    `json:"hand_id"`
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

// AnimationDoneMsg acknowledges a gated event.
type AnimationDoneMsg struct {
	HandID   int `json:"hand_id"`
	EventSeq int `json:"event_seq"`
}

// PingMsg is a client heartbeat.
type PingMsg struct {
	Timestamp int64 `json:"timestamp"`
}

// ClientMessage is a decoded inbound message: exactly one payload field is
// set, according to Type.
type ClientMessage struct {
	Type          string
	Action        *ActionMsg
	AnimationDone *AnimationDoneMsg
	Ping          *PingMsg
}

// strictUnmarshal decodes JSON rejecting unknown fields.
func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	// Trailing garbage after the value is also a protocol error.
	if dec.More() {
		return fmt.Errorf("trailing data after message")
	}
	return nil
}

// DecodeClientMessage parses one inbound frame. Any failure is a protocol
// error and maps to the invalid_message wire code.
func DecodeClientMessage(raw []byte) (*ClientMessage, error) {
	var env Envelope
	if err := strictUnmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	msg := &ClientMessage{Type: env.Type}
	data := env.Data
	if data == nil {
		data = []byte("{}")
	}

	switch env.Type {
	case MsgAction:
		var m ActionMsg
		if err := strictUnmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed action: %w", err)
		}
		msg.Action = &m
	case MsgAnimationDone:
		var m AnimationDoneMsg
		if err := strictUnmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed animation_done: %w", err)
		}
		msg.AnimationDone = &m
	case MsgPing:
		var m PingMsg
		if err := strictUnmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed ping: %w", err)
		}
		msg.Ping = &m
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
	return msg, nil
}

// NewEvent wraps a payload into an outbound envelope.
func NewEvent(eventType string, handID, eventSeq int, timestamp int64, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", eventType, err)
	}
	return Envelope{
		Type:      eventType,
		HandID:    handID,
		EventSeq:  eventSeq,
		Timestamp: timestamp,
		Data:      data,
	}, nil
}

// ActionRequest asks one player to act.
type ActionRequest struct {
	HandID      int      `json:"hand_id"`
	Seat        int      `json:"seat"`
	Options     []string `json:"options"`
	CallAmount  int      `json:"call_amount"`
	MinRaise    int      `json:"min_raise"`
	MaxRaise    int      `json:"max_raise"`
	TimeLimitMs int64    `json:"time_limit_ms"`
}

// PlayerAction reports an applied action to everyone. Forced marks
// engine-substituted defaults.
type PlayerAction struct {
	Seat   int    `json:"seat"`
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
	Forced bool   `json:"forced,omitempty"`
}

// PlayerBet is one seat's street total inside round_bets_finalized.
type PlayerBet struct {
	Seat   int `json:"seat"`
	Amount int `json:"amount"`
}

// RoundBetsFinalized closes a betting round: the per-player street bets
// and the pot after collection.
type RoundBetsFinalized struct {
	PlayerBets []PlayerBet `json:"player_bets"`
	PotTotal   int         `json:"pot_total"`
}

// StreetDealt reveals the next community cards.
type StreetDealt struct {
	Street string      `json:"street"`
	Cards  []deck.Card `json:"cards"`
}

// RevealedHand is one player's showdown holding.
type RevealedHand struct {
	Seat      int         `json:"seat"`
	PlayerID  string      `json:"player_id"`
	HoleCards []deck.Card `json:"hole_cards"`
	HandName  string      `json:"hand_name"`
	BestFive  []deck.Card `json:"best_five"`
}

// ShowdownHandsRevealed shows every non-folded hand.
type ShowdownHandsRevealed struct {
	PlayerHands []RevealedHand `json:"player_hands"`
}

// PotWinner is one winner of one pot layer.
type PotWinner struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"player_id"`
	Amount   int    `json:"amount"`
	HandName string `json:"hand_name,omitempty"`
}

// PotResult resolves one pot layer.
type PotResult struct {
	PotIndex int         `json:"pot_index"`
	Amount   int         `json:"amount"`
	Winners  []PotWinner `json:"winners"`
}

// PotWinnersDetermined resolves all pot layers.
type PotWinnersDetermined struct {
	Pots []PotResult `json:"pots"`
}

// PlayerChips is one player's authoritative post-settlement stack.
type PlayerChips struct {
	PlayerID string `json:"player_id"`
	Seat     int    `json:"seat"`
	Chips    int    `json:"chips"`
}

// ChipsDistributed carries every stack after settlement.
type ChipsDistributed struct {
	Players []PlayerChips `json:"players"`
}

// ErrorEvent reports a rejected message or an internal failure.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Empty is the payload of events that carry no data.
type Empty struct{}
