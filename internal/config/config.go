// Package config loads simulator configuration for cmd/wdogsim.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emkit/wdog/internal/wdt"
)

// Config describes one simulator run: the timeout to install, the runtime
// options, and how the feed loop should behave.
type Config struct {
	Watchdog WatchdogConfig `yaml:"watchdog"`
	Sim      SimConfig      `yaml:"sim"`

	LogLevel string `yaml:"logLevel,omitempty"`
}

// WatchdogConfig maps onto a wdt.TimeoutConfig plus the Setup options.
type WatchdogConfig struct {
	// WindowMax is the timeout period in cycles (nominally milliseconds).
	WindowMax uint32 `yaml:"windowMax"`
	// WindowMin enables window mode when nonzero.
	WindowMin uint32 `yaml:"windowMin,omitempty"`
	// Flags is one of "reset-soc", "reset-core", "none".
	Flags string `yaml:"flags,omitempty"`
	// EarlyWarning registers a callback so the early-warning interrupt
	// is enabled and reported.
	EarlyWarning bool `yaml:"earlyWarning,omitempty"`

	PauseInSleep    bool `yaml:"pauseInSleep,omitempty"`
	PauseWhenHalted bool `yaml:"pauseWhenHalted,omitempty"`
}

// Duration decodes either a Go duration string ("500us") or an integer
// nanosecond count; yaml.v3 only handles the latter natively.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// SimConfig controls the simulated run itself.
type SimConfig struct {
	// Cycle is the wall-clock duration of one watchdog cycle. Shorter
	// values speed the simulation up; zero selects the nominal 1ms.
	Cycle Duration `yaml:"cycle,omitempty"`

	// FeedEvery is the feed interval in cycles. Zero never feeds.
	FeedEvery uint32 `yaml:"feedEvery,omitempty"`

	// StopFeedingAfter halts the feed loop after this many feeds, to
	// demonstrate the warning and reset path. Zero keeps feeding.
	StopFeedingAfter int `yaml:"stopFeedingAfter,omitempty"`

	// RunCycles is the total simulated length. Zero defaults to ten
	// timeout periods.
	RunCycles uint32 `yaml:"runCycles,omitempty"`
}

func (c *Config) normalize() {
	if c.Watchdog.Flags == "" {
		c.Watchdog.Flags = "reset-soc"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if c.Watchdog.WindowMax == 0 {
		return fmt.Errorf("watchdog.windowMax is required")
	}
	if _, err := c.Watchdog.Flag(); err != nil {
		return err
	}
	return nil
}

// Flag translates the configured flags string.
func (w *WatchdogConfig) Flag() (wdt.Flag, error) {
	switch w.Flags {
	case "reset-soc", "":
		return wdt.FlagResetSoC, nil
	case "reset-core":
		return wdt.FlagResetCPUCore, nil
	case "none":
		return wdt.FlagResetNone, nil
	}
	return 0, fmt.Errorf("watchdog.flags: unknown value %q", w.Flags)
}

// Options translates the pause settings into the Setup bitset.
func (w *WatchdogConfig) Options() wdt.Options {
	var opts wdt.Options
	if w.PauseInSleep {
		opts |= wdt.OptPauseInSleep
	}
	if w.PauseWhenHalted {
		opts |= wdt.OptPauseHaltedByDebugger
	}
	return opts
}

// Load reads and validates a simulator config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
