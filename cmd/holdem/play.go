package main

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/casinoholdem/analysis"
	"github.com/lox/casinoholdem/internal/game"
	"github.com/lox/casinoholdem/internal/randutil"
	"github.com/lox/casinoholdem/internal/tui"
)

// PlayCmd plays a local session in the terminal.
type PlayCmd struct {
	Chips       int    `help:"Starting chips (overrides config)"`
	Ante        int    `help:"Ante per round (overrides config)"`
	Simulations int    `help:"Equity trials per reveal (overrides config)"`
	LogFile     string `help:"Write debug logs to this file while playing"`
}

func (c *PlayCmd) Run(globals *Globals) error {
	cfg, err := loadConfig(globals)
	if err != nil {
		return err
	}
	if c.Chips > 0 {
		cfg.Game.StartingChips = c.Chips
	}
	if c.Ante > 0 {
		cfg.Game.Ante = c.Ante
	}
	if c.Simulations > 0 {
		cfg.Game.Simulations = c.Simulations
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The alt screen owns the terminal, so logs go to a file or nowhere.
	logger := log.New(io.Discard)
	if c.LogFile != "" {
		f, err := tea.LogToFile(c.LogFile, "holdem")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger = newLoggerTo(f, cfg.Server.LogLevel)
	}

	seed := randutil.Seed(globals.Seed)
	logger.Info("Starting session", "seed", seed)

	session := game.NewSession(
		game.WithRules(game.RulesFromConfig(cfg.Game)),
		game.WithRNG(randutil.New(seed)),
		game.WithLogger(logger),
		game.WithEstimator(analysis.NewEstimator(analysis.WithLogger(logger))),
	)

	ctx, cancel := signalContext(logger)
	defer cancel()
	return tui.Run(ctx, session, logger)
}
