package server

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/agent"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/game"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/history"
)

const reapInterval = time.Minute

// Registry owns the set of live games: creation, lookup, teardown, and
// reaping of games every client has abandoned.
type Registry struct {
	cfg     *Config
	clock   quartz.Clock
	logger  *log.Logger
	metrics *Metrics
	decider agent.Decider
	memory  agent.Memory

	// NewRecorder and SeedSource are swappable for tests.
	NewRecorder func(gameID string) (history.Recorder, error)
	SeedSource  func() rand.Source

	mu    sync.Mutex
	games map[string]*entry
}

type entry struct {
	game *Game
	rec  history.Recorder
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg *Config, clock quartz.Clock, logger *log.Logger, metrics *Metrics, decider agent.Decider, memory agent.Memory) *Registry {
	r := &Registry{
		cfg:     cfg,
		clock:   clock,
		logger:  logger.WithPrefix("registry"),
		metrics: metrics,
		decider: decider,
		memory:  memory,
		games:   make(map[string]*entry),
	}
	r.NewRecorder = func(gameID string) (history.Recorder, error) {
		return history.NewFileRecorder(cfg.Server.HistoryDir, gameID, logger)
	}
	r.SeedSource = func() rand.Source {
		return rand.NewSource(time.Now().UnixNano())
	}
	return r
}

// CreateGame seats the hero and the configured opponents at a fresh table
// and starts its loop.
func (r *Registry) CreateGame() (*Game, error) {
	rules, err := r.cfg.Rules()
	if err != nil {
		return nil, err
	}

	table := game.NewTable(rules)
	hero := &game.Player{
		ID:    r.cfg.Server.HumanPlayerID,
		Name:  r.cfg.Server.HumanName,
		Human: true,
		Chips: r.cfg.Game.BuyIn,
	}
	if _, err := table.AddPlayer(hero); err != nil {
		return nil, fmt.Errorf("seat hero: %w", err)
	}
	for i, opp := range r.cfg.Opponents {
		p := &game.Player{
			ID:        fmt.Sprintf("ai-%d", i+1),
			Name:      opp.Name,
			Archetype: opp.Archetype,
			Chips:     opp.BuyIn,
		}
		if _, err := table.AddPlayer(p); err != nil {
			return nil, fmt.Errorf("seat %s: %w", opp.Name, err)
		}
	}

	id := uuid.NewString()
	rec, err := r.NewRecorder(id)
	if err != nil {
		return nil, fmt.Errorf("hand history for game %s: %w", id, err)
	}

	g := NewGame(id, table, r.cfg.Timing(), GameDeps{
		Clock:    r.clock,
		Logger:   r.logger,
		Decider:  r.decider,
		Memory:   r.memory,
		Recorder: rec,
		Metrics:  r.metrics,
		SeedSrc:  r.SeedSource(),
	})

	r.mu.Lock()
	r.games[id] = &entry{game: g, rec: rec}
	r.mu.Unlock()
	r.metrics.GamesActive.Inc()

	go g.Run()
	r.logger.Info("game created", "game_id", id, "players", len(r.cfg.Opponents)+1)
	return g, nil
}

// Lookup finds a live game.
func (r *Registry) Lookup(id string) (*Game, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.games[id]
	if !ok {
		return nil, false
	}
	return e.game, true
}

// Destroy stops a game and releases its resources.
func (r *Registry) Destroy(id string) {
	r.mu.Lock()
	e, ok := r.games[id]
	delete(r.games, id)
	r.mu.Unlock()
	if !ok {
		return
	}

	e.game.Stop()
	if err := e.rec.Close(); err != nil {
		r.logger.Warn("close hand history", "game_id", id, "err", err)
	}
	r.metrics.GamesActive.Dec()
	r.logger.Info("game destroyed", "game_id", id)
}

// Reap destroys games with no clients that have been idle past the
// configured timeout. Blocks until ctx is done.
func (r *Registry) Reap(ctx context.Context) {
	idle := time.Duration(r.cfg.Server.IdleGameTimeout) * time.Second
	ticker := r.clock.NewTicker(reapInterval, "reap")
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cutoff := r.clock.Now().Add(-idle)
		r.mu.Lock()
		var stale []string
		for id, e := range r.games {
			if e.game.ClientCount() == 0 && e.game.IdleSince().Before(cutoff) {
				stale = append(stale, id)
			}
		}
		r.mu.Unlock()

		for _, id := range stale {
			r.logger.Info("reaping idle game", "game_id", id)
			r.Destroy(id)
		}
	}
}

// CloseAll tears every game down, for shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.games))
	for id := range r.games {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Destroy(id)
	}
}
