//go:build ignore

// This file demonstrates the public API of the wdog package.
// It is excluded from the build and serves as a reference and compile-time check.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/emkit/wdog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// =========================================================================
	// NewSimulated - driver wired to a simulated WDOG peripheral
	// =========================================================================
	ctrl, dev, err := wdog.NewSimulated(slog.Default())
	if err != nil {
		return fmt.Errorf("new simulated watchdog: %w", err)
	}

	// =========================================================================
	// InstallTimeout - stage a timeout request (cycles, ~1ms each)
	// =========================================================================
	err = ctrl.InstallTimeout(wdog.TimeoutConfig{
		WindowMax: 8000, // quantized up to the next supported period
		WindowMin: 0,    // 0 = normal mode, nonzero enables window mode
		Flags:     wdog.FlagResetSoC,
		Callback: func(channel int) {
			// Runs in interrupt context: do not block, do not call
			// InstallTimeout or Setup from here. Feeding is allowed.
			fmt.Println("early warning on channel", channel)
		},
	})
	if errors.Is(err, wdog.ErrOutOfRange) {
		return fmt.Errorf("timeout outside supported periods: %w", err)
	}
	if err != nil {
		return err
	}

	// =========================================================================
	// Setup - commit to hardware and start counting
	// =========================================================================
	if err := ctrl.Setup(wdog.OptPauseHaltedByDebugger); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	// =========================================================================
	// Feed - reset the countdown; channel must be 0
	// =========================================================================
	dev.AdvanceCycles(4000)
	if err := ctrl.Feed(0); err != nil {
		return fmt.Errorf("feed: %w", err)
	}

	// =========================================================================
	// Registry - boards hand out drivers by name
	// =========================================================================
	builder := wdog.NewBuilder()
	builder.DisableAtBoot(true) // best-effort disable of bootloader leftovers
	if err := builder.Register("wdog0", ctrl); err != nil {
		return err
	}
	registry, err := builder.Build()
	if err != nil {
		return err
	}
	if _, err := registry.Lookup("wdog0"); err != nil {
		return err
	}

	// =========================================================================
	// Disable - stop counting and free the timeout slot
	// =========================================================================
	if err := ctrl.Disable(); err != nil {
		return fmt.Errorf("disable: %w", err)
	}

	return nil
}
