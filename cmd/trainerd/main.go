package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/agent"
	"github.com/MatthewPDingle/CSCPT-sub000/internal/server"
)

var CLI struct {
	Config    string `short:"c" long:"config" help:"Path to HCL configuration file"`
	Addr      string `short:"a" long:"addr" help:"Listen address (overrides config)"`
	LogLevel  string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	AgentSeed int64  `long:"agent-seed" help:"Seed for the rule-based opponents (overrides config)"`
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg := server.DefaultConfig()
	if CLI.Config != "" {
		loaded, err := server.LoadConfig(CLI.Config)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			ctx.Exit(1)
		}
		cfg = loaded
	}
	if CLI.Addr != "" {
		cfg.Server.Addr = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.AgentSeed != 0 {
		cfg.Game.AgentSeed = CLI.AgentSeed
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	logger.Info("Starting training server",
		"addr", cfg.Server.Addr,
		"structure", cfg.Game.Structure,
		"stakes", fmt.Sprintf("%d/%d", cfg.Game.SmallBlind, cfg.Game.BigBlind),
		"opponents", len(cfg.Opponents))

	decider := agent.NewRuleBased(cfg.Game.AgentSeed, logger)
	memory := agent.NewMemoryStore()

	srv := server.New(cfg, quartz.NewReal(), logger, decider, memory, prometheus.NewRegistry())

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(runCtx); err != nil {
		logger.Error("Server exited with error", "error", err)
		ctx.Exit(1)
	}
	logger.Info("Server stopped")
}
