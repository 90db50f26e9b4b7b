// Package config loads server settings from an optional YAML file plus
// environment overrides. Defaults are complete: the server runs without any
// config file present.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Timing holds the hardware timing contract in milliseconds. The arm
// requires a settle delay after opening the port, a gap between the two
// disconnect commands, and a hold between pen-down and pen-up.
type Timing struct {
	SettleMs       int `yaml:"settle_ms"`
	InterCommandMs int `yaml:"inter_command_ms"`
	ClickHoldMs    int `yaml:"click_hold_ms"`
	CaptureMs      int `yaml:"capture_ms"`
	HTTPTimeoutMs  int `yaml:"http_timeout_ms"`
}

// Config is the full server configuration.
type Config struct {
	Listen        string `yaml:"listen"`
	LogLevel      string `yaml:"log_level"`
	ArmAddress    string `yaml:"arm_address"`
	ArmPort       string `yaml:"arm_port"`
	MaxFrameWidth int    `yaml:"max_frame_width"`
	Timing        Timing `yaml:"timing"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:        ":3777",
		LogLevel:      "info",
		ArmAddress:    "192.168.4.1",
		ArmPort:       "COM3",
		MaxFrameWidth: 1280,
		Timing: Timing{
			SettleMs:       3000,
			InterCommandMs: 500,
			ClickHoldMs:    250,
			CaptureMs:      5000,
			HTTPTimeoutMs:  5000,
		},
	}
}

// Load reads the config file at path when it exists, then applies
// environment overrides. An empty path means defaults plus environment.
// A path that was explicitly supplied but cannot be read is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STYLUS_MCP_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("STYLUS_MCP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("STYLUS_MCP_ARM_ADDRESS"); v != "" {
		c.ArmAddress = v
	}
	if v := os.Getenv("STYLUS_MCP_ARM_PORT"); v != "" {
		c.ArmPort = v
	}
}

// SettleDelay returns the post-connect settle delay.
func (t Timing) SettleDelay() time.Duration { return time.Duration(t.SettleMs) * time.Millisecond }

// InterCommandDelay returns the delay between disconnect sub-commands.
func (t Timing) InterCommandDelay() time.Duration {
	return time.Duration(t.InterCommandMs) * time.Millisecond
}

// ClickHold returns the pen-down hold duration.
func (t Timing) ClickHold() time.Duration { return time.Duration(t.ClickHoldMs) * time.Millisecond }

// CaptureTimeout returns the frame-capture deadline.
func (t Timing) CaptureTimeout() time.Duration { return time.Duration(t.CaptureMs) * time.Millisecond }

// HTTPTimeout returns the legacy API request timeout.
func (t Timing) HTTPTimeout() time.Duration {
	return time.Duration(t.HTTPTimeoutMs) * time.Millisecond
}
