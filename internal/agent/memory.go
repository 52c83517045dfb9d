package agent

import (
	"context"
	"sync"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/history"
)

// MemoryStore is an in-process Memory backend: it folds completed hand
// records into per-player tendency counters.
type MemoryStore struct {
	mu      sync.Mutex
	players map[string]*counters
}

type counters struct {
	hands      int
	vpip       int
	aggressive int // bets + raises
	passive    int // calls
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{players: make(map[string]*counters)}
}

// RecordHand folds one hand record into the counters.
func (m *MemoryStore) RecordHand(_ context.Context, rec *history.Record) error {
	bySeat := make(map[int]string, len(rec.Players))
	for _, p := range rec.Players {
		bySeat[p.Seat] = p.PlayerID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	voluntary := make(map[string]bool)
	for _, p := range rec.Players {
		c := m.counter(p.PlayerID)
		c.hands++
	}
	for _, a := range rec.Actions {
		id, ok := bySeat[a.Seat]
		if !ok {
			continue
		}
		c := m.counter(id)
		switch a.Action {
		case "BET", "RAISE":
			c.aggressive++
			if a.Street == "PREFLOP" {
				voluntary[id] = true
			}
		case "CALL":
			c.passive++
			if a.Street == "PREFLOP" {
				voluntary[id] = true
			}
		}
	}
	for id := range voluntary {
		m.counter(id).vpip++
	}
	return nil
}

func (m *MemoryStore) counter(id string) *counters {
	c, ok := m.players[id]
	if !ok {
		c = &counters{}
		m.players[id] = c
	}
	return c
}

// Profile returns the aggregate tendencies observed for a player.
func (m *MemoryStore) Profile(_ context.Context, playerID string) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := Profile{PlayerID: playerID}
	c, ok := m.players[playerID]
	if !ok {
		return p, nil
	}
	p.HandsSeen = c.hands
	if c.hands > 0 {
		p.VPIP = float64(c.vpip) / float64(c.hands)
	}
	if c.passive > 0 {
		p.Aggression = float64(c.aggressive) / float64(c.passive)
	} else if c.aggressive > 0 {
		p.Aggression = float64(c.aggressive)
	}
	return p, nil
}
