package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Listen != ":3777" {
		t.Errorf("Listen: got %s", cfg.Listen)
	}
	if cfg.ArmAddress != "192.168.4.1" {
		t.Errorf("ArmAddress: got %s", cfg.ArmAddress)
	}
	if cfg.ArmPort != "COM3" {
		t.Errorf("ArmPort: got %s", cfg.ArmPort)
	}
	if got := cfg.Timing.SettleDelay(); got != 3*time.Second {
		t.Errorf("SettleDelay: got %v, want 3s", got)
	}
	if got := cfg.Timing.CaptureTimeout(); got != 5*time.Second {
		t.Errorf("CaptureTimeout: got %v, want 5s", got)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stylus-mcp.yaml")
	data := `
listen: "127.0.0.1:9000"
arm_port: "COM7"
timing:
  settle_ms: 100
  click_hold_ms: 10
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:9000" {
		t.Errorf("Listen: got %s", cfg.Listen)
	}
	if cfg.ArmPort != "COM7" {
		t.Errorf("ArmPort: got %s", cfg.ArmPort)
	}
	if cfg.Timing.SettleMs != 100 {
		t.Errorf("SettleMs: got %d, want 100", cfg.Timing.SettleMs)
	}
	// Timing fields absent from the file keep their defaults.
	if cfg.Timing.CaptureMs != 5000 {
		t.Errorf("CaptureMs: got %d, want 5000", cfg.Timing.CaptureMs)
	}
	// Non-timing defaults untouched by the file survive.
	if cfg.ArmAddress != "192.168.4.1" {
		t.Errorf("ArmAddress: got %s", cfg.ArmAddress)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("STYLUS_MCP_LISTEN", ":4000")
	t.Setenv("STYLUS_MCP_ARM_PORT", "COM9")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":4000" {
		t.Errorf("Listen: got %s, want :4000", cfg.Listen)
	}
	if cfg.ArmPort != "COM9" {
		t.Errorf("ArmPort: got %s, want COM9", cfg.ArmPort)
	}
}
