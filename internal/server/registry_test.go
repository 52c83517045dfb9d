package server

import (
	"io"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/agent"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/history"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	cfg := DefaultConfig()
	r := NewRegistry(cfg, quartz.NewMock(t), log.New(io.Discard),
		NewMetrics(prometheus.NewRegistry()), checkCallDecider{}, agent.NopMemory{})
	r.NewRecorder = func(string) (history.Recorder, error) {
		return history.NewMemoryRecorder(), nil
	}
	r.SeedSource = func() rand.Source {
		return rand.NewSource(1)
	}
	t.Cleanup(r.CloseAll)
	return r
}

func TestRegistryLifecycle(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	g, err := r.CreateGame()
	require.NoError(t, err)
	require.NotEmpty(t, g.ID)

	found, ok := r.Lookup(g.ID)
	require.True(t, ok)
	assert.Same(t, g, found)

	_, ok = r.Lookup("no-such-game")
	assert.False(t, ok)

	r.Destroy(g.ID)
	_, ok = r.Lookup(g.ID)
	assert.False(t, ok)

	// Destroying twice is harmless.
	r.Destroy(g.ID)
}

func TestRegistrySeatsConfiguredOpponents(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	g, err := r.CreateGame()
	require.NoError(t, err)

	seats := 0
	humans := 0
	for _, p := range g.table.Seats() {
		if p == nil {
			continue
		}
		seats++
		if p.Human {
			humans++
			assert.Equal(t, "hero", p.ID)
		} else {
			assert.NotEmpty(t, p.Archetype)
		}
		assert.Equal(t, 400, p.Chips, "everyone buys in for the configured amount")
	}
	assert.Equal(t, 4, seats, "hero plus three default opponents")
	assert.Equal(t, 1, humans)
}
