package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/agent"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/protocol"
)

// Server is the HTTP front: game creation, websocket attachment, health,
// metrics, and opponent profiles.
type Server struct {
	cfg      *Config
	logger   *log.Logger
	clock    quartz.Clock
	registry *Registry
	metrics  *Metrics
	memory   agent.Memory
	upgrader websocket.Upgrader
	http     *http.Server
}

// New wires the server together.
func New(cfg *Config, clock quartz.Clock, logger *log.Logger, decider agent.Decider, memory agent.Memory, reg *prometheus.Registry) *Server {
	metrics := NewMetrics(reg)
	s := &Server{
		cfg:     cfg,
		logger:  logger.WithPrefix("http"),
		clock:   clock,
		metrics: metrics,
		memory:  memory,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The trainer runs locally; browser clients connect from any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.registry = NewRegistry(cfg, clock, logger, metrics, decider, memory)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/games", s.handleCreateGame)
	mux.HandleFunc("GET /api/games/{game_id}/profiles/{player_id}", s.handleProfile)
	mux.HandleFunc("GET /ws/game/{game_id}", s.handleWebsocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.http = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Registry exposes the game registry, mainly for tests and tooling.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Run serves until ctx is canceled, then drains games and shuts down.
func (s *Server) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		s.logger.Info("listening", "addr", s.cfg.Server.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		s.registry.Reap(ctx)
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down")
		s.registry.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

type createGameResponse struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	g, err := s.registry.CreateGame()
	if err != nil {
		s.logger.Error("create game failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, createGameResponse{
		GameID:   g.ID,
		PlayerID: s.cfg.Server.HumanPlayerID,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.registry.Lookup(r.PathValue("game_id")); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "game not found"})
		return
	}
	profile, err := s.memory.Profile(r.Context(), r.PathValue("player_id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("game_id")
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}
	g, ok := s.registry.Lookup(gameID)
	if !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	sess := NewSession(conn, gameID, playerID, s.clock, s.cfg.Timing().RatePerMin, s.logger, s.metrics)
	sess.Bind(
		func(sender *Session, msg *protocol.ClientMessage) { g.Inbound(sender, msg) },
		func(sender *Session) { g.Detach(sender) },
	)
	g.Attach(sess)
	sess.Run()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; nothing useful left to do.
		return
	}
}
