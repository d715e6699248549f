package main

import (
	"fmt"

	"github.com/lox/casinoholdem/internal/config"
	"github.com/lox/casinoholdem/internal/server"
)

// ServeCmd runs the HTTP API.
type ServeCmd struct {
	Addr string `short:"a" help:"Address to bind to (overrides config)"`
	Port int    `short:"p" help:"Port to listen on (overrides config)"`
}

func (c *ServeCmd) Run(globals *Globals) error {
	cfg, err := loadConfig(globals)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Server.LogLevel)

	var opts []server.Option
	if globals.Seed != nil {
		logger.Info("Using deterministic seed", "seed", *globals.Seed)
		opts = append(opts, server.WithSeed(*globals.Seed))
	}

	srv, err := server.NewServer(cfg, logger, opts...)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	logger.Info("Starting Casino Hold'em server",
		"addr", cfg.Address(),
		"ante", cfg.Game.Ante,
		"starting_chips", cfg.Game.StartingChips,
		"simulations", cfg.Game.Simulations,
		"idle_timeout", cfg.IdleTimeout(),
		"max_sessions", cfg.Session.MaxSessions)

	ctx, cancel := signalContext(logger)
	defer cancel()
	return srv.Run(ctx)
}

// loadConfig reads the configuration file and applies global overrides.
func loadConfig(globals *Globals) (*config.Config, error) {
	cfg, err := config.Load(globals.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if globals.LogLevel != "" {
		cfg.Server.LogLevel = globals.LogLevel
	}
	return cfg, nil
}
