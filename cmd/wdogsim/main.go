// Command wdogsim runs the Gecko watchdog driver against the simulated
// WDOG peripheral: it installs a timeout from a config file, starts the
// countdown, feeds on a schedule, and reports early-warning interrupts and
// reset events. Stopping the feed schedule partway is the way to watch the
// watchdog bite.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/emkit/wdog"
	"github.com/emkit/wdog/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wdogsim: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfig() config.Config {
	return config.Config{
		Watchdog: config.WatchdogConfig{
			WindowMax:    8000,
			Flags:        "reset-soc",
			EarlyWarning: true,
		},
		Sim: config.SimConfig{
			FeedEvery:        4000,
			StopFeedingAfter: 4,
			RunCycles:        40000,
		},
		LogLevel: "info",
	}
}

func run() error {
	configPath := flag.String("config", "", "simulator config file (YAML); defaults are used when empty")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return err
		}
	}

	level := slog.LevelInfo
	switch {
	case *verbose || cfg.LogLevel == "debug":
		level = slog.LevelDebug
	case cfg.LogLevel == "warn":
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(
		os.Stderr,
		&slog.HandlerOptions{Level: level},
	)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctrl, dev, err := wdog.NewSimulated(slog.Default())
	if err != nil {
		return err
	}

	flagValue, err := cfg.Watchdog.Flag()
	if err != nil {
		return err
	}

	// The callback runs in the device's interrupt dispatch; hand the
	// event to the main loop instead of doing work here.
	warnings := make(chan int, 8)
	var callback wdog.Callback
	if cfg.Watchdog.EarlyWarning {
		callback = func(channel int) {
			select {
			case warnings <- channel:
			default:
			}
		}
	}

	if err := ctrl.InstallTimeout(wdog.TimeoutConfig{
		WindowMax: cfg.Watchdog.WindowMax,
		WindowMin: cfg.Watchdog.WindowMin,
		Flags:     flagValue,
		Callback:  callback,
	}); err != nil {
		return fmt.Errorf("install timeout: %w", err)
	}
	if err := ctrl.Setup(cfg.Watchdog.Options()); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	runCycles := cfg.Sim.RunCycles
	if runCycles == 0 {
		runCycles = 10 * cfg.Watchdog.WindowMax
	}

	var bar *progressbar.ProgressBar
	if term.IsTerminal(int(os.Stderr.Fd())) {
		bar = progressbar.Default(int64(runCycles), "simulating")
		defer bar.Close()
	}

	slog.Info("watchdog armed",
		"windowMax", cfg.Watchdog.WindowMax,
		"windowMin", cfg.Watchdog.WindowMin,
		"feedEvery", cfg.Sim.FeedEvery)

	feeds := 0
	starved := false
	for cycle := uint32(1); cycle <= runCycles; cycle++ {
		if err := ctx.Err(); err != nil {
			slog.Info("interrupted", "cycle", cycle)
			break
		}

		dev.AdvanceCycles(1)
		if bar != nil {
			_ = bar.Add(1)
		}

		select {
		case channel := <-warnings:
			slog.Warn("early warning interrupt", "channel", channel, "cycle", cycle)
		default:
		}

		if cfg.Sim.FeedEvery > 0 && cycle%cfg.Sim.FeedEvery == 0 {
			if cfg.Sim.StopFeedingAfter == 0 || feeds < cfg.Sim.StopFeedingAfter {
				if err := ctrl.Feed(0); err != nil {
					return fmt.Errorf("feed: %w", err)
				}
				feeds++
			} else if !starved {
				slog.Info("feed schedule exhausted, letting the watchdog run out", "feeds", feeds)
				starved = true
			}
		}

		if n := dev.ResetCount(); n > 0 {
			slog.Error("watchdog reset fired", "cycle", cycle, "resets", n)
			break
		}

		if cycleTime := cfg.Sim.Cycle.Std(); cycleTime > 0 {
			time.Sleep(cycleTime)
		}
	}

	if err := ctrl.Disable(); err != nil {
		return fmt.Errorf("disable: %w", err)
	}

	slog.Info("simulation finished", "feeds", feeds, "resets", dev.ResetCount())
	return nil
}
