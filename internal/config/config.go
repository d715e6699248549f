// Package config loads the HCL configuration shared by the server and the
// interactive table.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the complete configuration
type Config struct {
	Server  ServerSettings
	Game    GameSettings
	Session SessionSettings
}

// ServerSettings contains HTTP listener configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings contains the Casino Hold'em table rules
type GameSettings struct {
	StartingChips  int `hcl:"starting_chips,optional"`
	Ante           int `hcl:"ante,optional"`
	Simulations    int `hcl:"simulations,optional"`
	HistorySize    int `hcl:"history_size,optional"`
	QualifyingPair int `hcl:"qualifying_pair,optional"`
}

// SessionSettings bounds the in-memory session store
type SessionSettings struct {
	IdleTimeoutSeconds int `hcl:"idle_timeout_seconds,optional"`
	MaxSessions        int `hcl:"max_sessions,optional"`
}

// fileConfig mirrors Config with optional blocks.
type fileConfig struct {
	Server  *ServerSettings  `hcl:"server,block"`
	Game    *GameSettings    `hcl:"game,block"`
	Session *SessionSettings `hcl:"session,block"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: GameSettings{
			StartingChips:  1000,
			Ante:           10,
			Simulations:    500,
			HistorySize:    5,
			QualifyingPair: 4,
		},
		Session: SessionSettings{
			IdleTimeoutSeconds: 1800,
			MaxSessions:        1000,
		},
	}
}

// Load loads configuration from an HCL file. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source and fills unset values with defaults.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config := Default()
	if fc.Server != nil {
		config.Server = *fc.Server
	}
	if fc.Game != nil {
		config.Game = *fc.Game
	}
	if fc.Session != nil {
		config.Session = *fc.Session
	}
	config.applyDefaults()

	return config, nil
}

// applyDefaults fills zero values left by a partially specified block.
func (c *Config) applyDefaults() {
	d := Default()

	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = d.Server.LogLevel
	}

	if c.Game.StartingChips == 0 {
		c.Game.StartingChips = d.Game.StartingChips
	}
	if c.Game.Ante == 0 {
		c.Game.Ante = d.Game.Ante
	}
	if c.Game.Simulations == 0 {
		c.Game.Simulations = d.Game.Simulations
	}
	if c.Game.HistorySize == 0 {
		c.Game.HistorySize = d.Game.HistorySize
	}
	if c.Game.QualifyingPair == 0 {
		c.Game.QualifyingPair = d.Game.QualifyingPair
	}

	if c.Session.IdleTimeoutSeconds == 0 {
		c.Session.IdleTimeoutSeconds = d.Session.IdleTimeoutSeconds
	}
	if c.Session.MaxSessions == 0 {
		c.Session.MaxSessions = d.Session.MaxSessions
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Server.Port)
	}

	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Server.LogLevel)
	}

	if c.Game.Ante <= 0 {
		return fmt.Errorf("%w: ante must be positive", ErrInvalidConfig)
	}
	if c.Game.StartingChips < 2*c.Game.Ante {
		return fmt.Errorf("%w: starting chips must cover an ante and a call", ErrInvalidConfig)
	}
	if c.Game.Simulations < 0 {
		return fmt.Errorf("%w: simulations must not be negative", ErrInvalidConfig)
	}
	if c.Game.HistorySize < 1 {
		return fmt.Errorf("%w: history size must be at least 1", ErrInvalidConfig)
	}
	if c.Game.QualifyingPair < 2 || c.Game.QualifyingPair > 14 {
		return fmt.Errorf("%w: qualifying pair must be a rank between 2 and 14", ErrInvalidConfig)
	}

	if c.Session.IdleTimeoutSeconds < 1 {
		return fmt.Errorf("%w: idle timeout must be positive", ErrInvalidConfig)
	}
	if c.Session.MaxSessions < 1 {
		return fmt.Errorf("%w: max sessions must be at least 1", ErrInvalidConfig)
	}

	return nil
}

// Address returns the full listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// IdleTimeout returns the session idle timeout as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Session.IdleTimeoutSeconds) * time.Second
}
