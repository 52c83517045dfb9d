package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/sanity-io/litter"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/history"
)

var CLI struct {
	File    string `arg:"" help:"Hand history file (JSON lines)"`
	Hand    int    `short:"n" long:"hand" help:"Verify a single hand ID"`
	Verbose bool   `short:"v" long:"verbose" help:"Dump each record as it is verified"`
}

func main() {
	ctx := kong.Parse(&CLI)
	logger := log.New(os.Stderr)

	records, err := history.Load(CLI.File)
	if err != nil {
		logger.Error("Cannot load history", "file", CLI.File, "error", err)
		ctx.Exit(1)
	}

	failures := 0
	verified := 0
	for _, rec := range records {
		if CLI.Hand != 0 && rec.HandID != CLI.Hand {
			continue
		}
		if rec.Aborted {
			logger.Warn("Skipping aborted hand", "hand_id", rec.HandID)
			continue
		}
		verified++
		if CLI.Verbose {
			fmt.Println(litter.Sdump(rec))
		}
		if err := history.Verify(rec); err != nil {
			failures++
			logger.Error("Hand failed verification", "hand_id", rec.HandID, "error", err)
		}
	}

	if failures > 0 {
		logger.Error("Verification failed", "hands", verified, "failures", failures)
		ctx.Exit(1)
	}
	logger.Info("All hands verified", "hands", verified)
}
