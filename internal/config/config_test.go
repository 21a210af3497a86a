package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emkit/wdog/internal/wdt"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wdogsim.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
watchdog:
  windowMax: 65537
  windowMin: 8193
  flags: none
  earlyWarning: true
  pauseInSleep: true
sim:
  cycle: 500us
  feedEvery: 30000
  stopFeedingAfter: 3
  runCycles: 200000
logLevel: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Watchdog.WindowMax != 65537 {
		t.Errorf("WindowMax = %d, want 65537", cfg.Watchdog.WindowMax)
	}
	if cfg.Watchdog.WindowMin != 8193 {
		t.Errorf("WindowMin = %d, want 8193", cfg.Watchdog.WindowMin)
	}

	flag, err := cfg.Watchdog.Flag()
	if err != nil {
		t.Fatalf("Flag: %v", err)
	}
	if flag != wdt.FlagResetNone {
		t.Errorf("Flag = %d, want FlagResetNone", flag)
	}

	if got := cfg.Watchdog.Options(); got != wdt.OptPauseInSleep {
		t.Errorf("Options = %#x, want OptPauseInSleep", got)
	}

	if cfg.Sim.Cycle.Std() != 500*time.Microsecond {
		t.Errorf("Cycle = %v, want 500us", cfg.Sim.Cycle.Std())
	}
	if cfg.Sim.FeedEvery != 30000 {
		t.Errorf("FeedEvery = %d, want 30000", cfg.Sim.FeedEvery)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
watchdog:
  windowMax: 4000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	flag, err := cfg.Watchdog.Flag()
	if err != nil {
		t.Fatalf("Flag: %v", err)
	}
	if flag != wdt.FlagResetSoC {
		t.Errorf("default flag = %d, want FlagResetSoC", flag)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("default logLevel = %q, want info", cfg.LogLevel)
	}
	if got := cfg.Watchdog.Options(); got != 0 {
		t.Errorf("default Options = %#x, want 0", got)
	}
}

func TestLoadRejectsMissingTimeout(t *testing.T) {
	path := writeConfig(t, `
watchdog:
  flags: reset-soc
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted a config without windowMax")
	}
}

func TestLoadRejectsUnknownFlag(t *testing.T) {
	path := writeConfig(t, `
watchdog:
  windowMax: 4000
  flags: reboot-everything
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted an unknown flags value")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
}
