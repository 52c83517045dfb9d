// Package history records completed hands as append-only JSON, one record
// per line. The schema is stable: Verify re-deals the board from a record's
// seed and re-resolves its showdown pots, and both must match the record.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/deck"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/game"
)

// Blinds is the blind schedule a hand was dealt at.
type Blinds struct {
	Small int `json:"small"`
	Big   int `json:"big"`
}

// SeatRecord is one dealt-in player.
type SeatRecord struct {
	Seat          int         `json:"seat"`
	PlayerID      string      `json:"player_id"`
	Name          string      `json:"name"`
	Archetype     string      `json:"archetype,omitempty"`
	StartingStack int         `json:"starting_stack"`
	HoleCards     []deck.Card `json:"hole_cards,omitempty"` // revealed hands only
}

// ActionRecord is one action in hand order.
type ActionRecord struct {
	Street string `json:"street"`
	Seat   int    `json:"seat"`
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
	Forced bool   `json:"forced,omitempty"`
}

// AwardRecord is one seat's share of one pot.
type AwardRecord struct {
	Seat     int    `json:"seat"`
	Amount   int    `json:"amount"`
	HandName string `json:"hand_name,omitempty"`
}

// PotRecord is one pot layer and its resolution.
type PotRecord struct {
	Amount   int           `json:"amount"`
	Eligible []int         `json:"eligible_seats"`
	Awards   []AwardRecord `json:"awards,omitempty"`
}

// Record is the export schema for one completed hand.
type Record struct {
	GameID     string         `json:"game_id"`
	HandID     int            `json:"hand_id"`
	StartedAt  time.Time      `json:"started_at"`
	Seed       int64          `json:"seed"`
	Blinds     Blinds         `json:"blinds"`
	Ante       int            `json:"ante,omitempty"`
	ButtonSeat int            `json:"button_seat"`
	TableSize  int            `json:"table_size"`
	Players    []SeatRecord   `json:"players"`
	Actions    []ActionRecord `json:"actions"`
	Board      []deck.Card    `json:"board"`
	Pots       []PotRecord    `json:"pots"`
	Rake       int            `json:"rake,omitempty"`
	Aborted    bool           `json:"aborted,omitempty"`
}

// Build assembles a Record from a settled hand. Hole cards are included
// only for players whose hands were revealed at showdown.
func Build(gameID string, h *game.Hand, s *game.Settlement, startedAt time.Time) *Record {
	rec := &Record{
		GameID:     gameID,
		HandID:     h.ID,
		StartedAt:  startedAt,
		Seed:       h.Seed(),
		Blinds:     Blinds{Small: h.SmallBlind, Big: h.BigBlind},
		Ante:       h.Config.Ante,
		ButtonSeat: h.Button,
		TableSize:  len(h.Players()),
		Board:      append([]deck.Card(nil), h.Community...),
		Aborted:    h.Aborted(),
	}

	starts := h.StartingStacks()
	for _, p := range h.Players() {
		if p == nil {
			continue
		}
		start, dealt := starts[p.Seat]
		if !dealt {
			continue
		}
		sr := SeatRecord{
			Seat:          p.Seat,
			PlayerID:      p.ID,
			Name:          p.Name,
			Archetype:     p.Archetype,
			StartingStack: start,
		}
		if s != nil && s.Showdown && p.InHand() {
			sr.HoleCards = append([]deck.Card(nil), p.HoleCards...)
		}
		rec.Players = append(rec.Players, sr)
	}

	for _, a := range h.Actions() {
		rec.Actions = append(rec.Actions, ActionRecord{
			Street: a.Street.String(),
			Seat:   a.Seat,
			Action: a.Type.String(),
			Amount: a.Amount,
			Forced: a.Forced,
		})
	}

	if s != nil {
		rec.Rake = s.Rake
		for i, layer := range s.Layers {
			pr := PotRecord{Amount: layer.Amount, Eligible: layer.Eligible}
			for _, a := range s.Awards {
				if a.Layer != i {
					continue
				}
				ar := AwardRecord{Seat: a.Seat, Amount: a.Amount}
				if s.Showdown {
					ar.HandName = a.Rank.String()
				}
				pr.Awards = append(pr.Awards, ar)
			}
			rec.Pots = append(rec.Pots, pr)
		}
	}
	return rec
}

// Recorder persists completed hand records. Failures are non-fatal to the
// game; callers log and continue.
type Recorder interface {
	Record(rec *Record) error
	Close() error
}

// FileRecorder appends records to one JSON-lines file per game.
type FileRecorder struct {
	mu     sync.Mutex
	file   *os.File
	logger *log.Logger
}

// NewFileRecorder opens (creating if needed) the history file for a game
// under dir.
func NewFileRecorder(dir, gameID string, logger *log.Logger) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	path := filepath.Join(dir, gameID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}
	logger.Debug("hand history file opened", "path", path)
	return &FileRecorder{file: f, logger: logger}, nil
}

// Record appends one hand as a JSON line.
func (r *FileRecorder) Record(rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal hand %d: %w", rec.HandID, err)
	}
	data = append(data, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.file.Write(data); err != nil {
		return fmt.Errorf("write hand %d: %w", rec.HandID, err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

// MemoryRecorder keeps records in memory. Test double.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []*Record
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record stores the record.
func (r *MemoryRecorder) Record(rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

// Close is a no-op.
func (r *MemoryRecorder) Close() error {
	return nil
}

// Records returns everything recorded so far.
func (r *MemoryRecorder) Records() []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Record(nil), r.records...)
}

// Load reads a JSON-lines history file back into records.
func Load(path string) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []*Record
	dec := json.NewDecoder(f)
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", len(records), err)
		}
		records = append(records, &rec)
	}
	return records, nil
}
