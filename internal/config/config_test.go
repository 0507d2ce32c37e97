package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMustLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	raw := `env: dev
storage_path: "postgres://localhost/halaqa?sslmode=disable"
http_server:
  address: "0.0.0.0:8081"
  timeout: 5s
scheduling:
  working_hours_start: "09:00"
  slot_step_minutes: 15
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg := MustLoad()

	if cfg.Env != "dev" {
		t.Errorf("env = %s, want dev", cfg.Env)
	}
	if cfg.Address != "0.0.0.0:8081" {
		t.Errorf("address = %s, want 0.0.0.0:8081", cfg.Address)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("timeout = %s, want 5s", cfg.Timeout)
	}

	// Explicit values win, the rest falls back to defaults.
	if cfg.Scheduling.WorkingHoursStart != "09:00" {
		t.Errorf("working_hours_start = %s, want 09:00", cfg.Scheduling.WorkingHoursStart)
	}
	if cfg.Scheduling.SlotStepMinutes != 15 {
		t.Errorf("slot_step_minutes = %d, want 15", cfg.Scheduling.SlotStepMinutes)
	}
	if cfg.Scheduling.WorkingHoursEnd != "22:00" {
		t.Errorf("working_hours_end default = %s, want 22:00", cfg.Scheduling.WorkingHoursEnd)
	}
	if cfg.Scheduling.GenerateAheadDays != 30 {
		t.Errorf("generate_ahead_days default = %d, want 30", cfg.Scheduling.GenerateAheadDays)
	}
	if cfg.Scheduling.LockTTL != 10*time.Second {
		t.Errorf("lock_ttl default = %s, want 10s", cfg.Scheduling.LockTTL)
	}
}
