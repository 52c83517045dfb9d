package server

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/game"
)

// Config is the top-level HCL configuration for the training server.
type Config struct {
	Server    ServerConfig     `hcl:"server,block"`
	Game      GameConfig       `hcl:"game,block"`
	Opponents []OpponentConfig `hcl:"opponent,block"`
}

// ServerConfig covers the listener and process-wide concerns.
type ServerConfig struct {
	Addr            string `hcl:"addr,optional"`
	HistoryDir      string `hcl:"history_dir,optional"`
	HumanPlayerID   string `hcl:"human_player_id,optional"`
	HumanName       string `hcl:"human_name,optional"`
	IdleGameTimeout int    `hcl:"idle_game_timeout_sec,optional"`
	LogLevel        string `hcl:"log_level,optional"`
}

// GameConfig is the rule set and timing for created games.
type GameConfig struct {
	TableSize     int     `hcl:"table_size,optional"`
	Mode          string  `hcl:"mode,optional"`
	Structure     string  `hcl:"structure,optional"`
	SmallBlind    int     `hcl:"small_blind,optional"`
	BigBlind      int     `hcl:"big_blind,optional"`
	Ante          int     `hcl:"ante,optional"`
	BuyIn         int     `hcl:"buy_in,optional"`
	RakePercent   float64 `hcl:"rake_percent,optional"`
	RakeCapBB     int     `hcl:"rake_cap_bb,optional"`
	RakeMinPotBB  int     `hcl:"rake_min_pot_bb,optional"`
	TurnClockSec  int     `hcl:"turn_clock_sec,optional"`
	AckTimeoutMs  int     `hcl:"ack_timeout_ms,optional"`
	AITimeoutSec  int     `hcl:"ai_timeout_sec,optional"`
	RatePerMinute int     `hcl:"rate_limit_per_min,optional"`
	AgentSeed     int64   `hcl:"agent_seed,optional"`
}

// OpponentConfig is one AI seat.
type OpponentConfig struct {
	Name      string `hcl:"name,label"`
	Archetype string `hcl:"archetype,optional"`
	BuyIn     int    `hcl:"buy_in,optional"`
}

// DefaultConfig returns the config used when no file is given: a six-max
// no-limit cash table with three scripted opponents.
func DefaultConfig() *Config {
	cfg := &Config{
		Opponents: []OpponentConfig{
			{Name: "Dealer Dan", Archetype: "TAG"},
			{Name: "Loose Lucy", Archetype: "LAG"},
			{Name: "Rock Rita", Archetype: "NIT"},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads and validates an HCL config file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.HistoryDir == "" {
		c.Server.HistoryDir = "hand_history"
	}
	if c.Server.HumanPlayerID == "" {
		c.Server.HumanPlayerID = "hero"
	}
	if c.Server.HumanName == "" {
		c.Server.HumanName = "Hero"
	}
	if c.Server.IdleGameTimeout == 0 {
		c.Server.IdleGameTimeout = 600
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if c.Game.TableSize == 0 {
		c.Game.TableSize = 6
	}
	if c.Game.Mode == "" {
		c.Game.Mode = "cash"
	}
	if c.Game.Structure == "" {
		c.Game.Structure = "no_limit"
	}
	if c.Game.SmallBlind == 0 {
		c.Game.SmallBlind = 1
	}
	if c.Game.BigBlind == 0 {
		c.Game.BigBlind = 2
	}
	if c.Game.BuyIn == 0 {
		c.Game.BuyIn = 200 * c.Game.BigBlind
	}
	if c.Game.RakePercent == 0 {
		c.Game.RakePercent = 0.05
	}
	if c.Game.RakeCapBB == 0 {
		c.Game.RakeCapBB = 3
	}
	if c.Game.RakeMinPotBB == 0 {
		c.Game.RakeMinPotBB = 10
	}
	if c.Game.TurnClockSec == 0 {
		c.Game.TurnClockSec = 30
	}
	if c.Game.AckTimeoutMs == 0 {
		c.Game.AckTimeoutMs = 3000
	}
	if c.Game.AITimeoutSec == 0 {
		c.Game.AITimeoutSec = 15
	}
	if c.Game.RatePerMinute == 0 {
		c.Game.RatePerMinute = 60
	}
	if c.Game.AgentSeed == 0 {
		c.Game.AgentSeed = time.Now().UnixNano()
	}

	for i := range c.Opponents {
		if c.Opponents[i].Archetype == "" {
			c.Opponents[i].Archetype = "TAG"
		}
		if c.Opponents[i].BuyIn == 0 {
			c.Opponents[i].BuyIn = c.Game.BuyIn
		}
	}
}

// Validate rejects configurations the engine cannot run.
func (c *Config) Validate() error {
	if c.Game.TableSize < 2 || c.Game.TableSize > 10 {
		return fmt.Errorf("table_size %d outside [2, 10]", c.Game.TableSize)
	}
	if c.Game.Mode != "cash" && c.Game.Mode != "tournament" {
		return fmt.Errorf("mode must be cash or tournament, got %q", c.Game.Mode)
	}
	if _, err := game.ParseStructure(c.Game.Structure); err != nil {
		return err
	}
	if c.Game.SmallBlind <= 0 || c.Game.BigBlind <= 0 {
		return fmt.Errorf("blinds must be positive")
	}
	if c.Game.SmallBlind > c.Game.BigBlind {
		return fmt.Errorf("small blind %d exceeds big blind %d", c.Game.SmallBlind, c.Game.BigBlind)
	}
	if c.Game.Ante < 0 {
		return fmt.Errorf("ante cannot be negative")
	}
	if c.Game.BuyIn < c.Game.BigBlind {
		return fmt.Errorf("buy_in %d below one big blind", c.Game.BuyIn)
	}
	if len(c.Opponents)+1 > c.Game.TableSize {
		return fmt.Errorf("%d opponents plus the hero exceed %d seats", len(c.Opponents), c.Game.TableSize)
	}
	if c.Game.RakePercent < 0 || c.Game.RakePercent >= 1 {
		return fmt.Errorf("rake_percent %v outside [0, 1)", c.Game.RakePercent)
	}
	return nil
}

// Rules converts the config into the engine's rule set.
func (c *Config) Rules() (game.Config, error) {
	structure, err := game.ParseStructure(c.Game.Structure)
	if err != nil {
		return game.Config{}, err
	}
	mode := game.Cash
	if c.Game.Mode == "tournament" {
		mode = game.Tournament
	}
	return game.Config{
		TableSize:  c.Game.TableSize,
		Mode:       mode,
		Structure:  structure,
		SmallBlind: c.Game.SmallBlind,
		BigBlind:   c.Game.BigBlind,
		Ante:       c.Game.Ante,
		Rake: game.RakeConfig{
			Percentage: c.Game.RakePercent,
			CapBB:      c.Game.RakeCapBB,
			MinPotBB:   c.Game.RakeMinPotBB,
		},
	}, nil
}

// Timing bundles the wait bounds used by one game.
type Timing struct {
	TurnClock  time.Duration
	AckTimeout time.Duration
	AITimeout  time.Duration
	RatePerMin int
}

// Timing returns the configured wait bounds.
func (c *Config) Timing() Timing {
	return Timing{
		TurnClock:  time.Duration(c.Game.TurnClockSec) * time.Second,
		AckTimeout: time.Duration(c.Game.AckTimeoutMs) * time.Millisecond,
		AITimeout:  time.Duration(c.Game.AITimeoutSec) * time.Second,
		RatePerMin: c.Game.RatePerMinute,
	}
}
