package wdog_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emkit/wdog"
)

func newSimulated(t *testing.T) (*wdog.Controller, *wdog.Device) {
	t.Helper()
	ctrl, dev, err := wdog.NewSimulated(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewSimulated: %v", err)
	}
	return ctrl, dev
}

func TestLifecycle(t *testing.T) {
	ctrl, dev := newSimulated(t)

	var warns []int
	if err := ctrl.InstallTimeout(wdog.TimeoutConfig{
		WindowMax: 65537,
		Flags:     wdog.FlagResetSoC,
		Callback:  func(channel int) { warns = append(warns, channel) },
	}); err != nil {
		t.Fatalf("InstallTimeout: %v", err)
	}
	if err := ctrl.Setup(0); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	// The early warning arrives at 75% of the period.
	dev.AdvanceCycles(49152)
	if len(warns) != 1 || warns[0] != 0 {
		t.Fatalf("warns = %v after reaching the warn point, want [0]", warns)
	}
	if got := dev.ResetCount(); got != 0 {
		t.Fatalf("resets = %d before expiry, want 0", got)
	}

	// Feeding restarts the full period; kept fed, the watchdog never bites.
	if err := ctrl.Feed(0); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if got := dev.CycleCount(); got != 0 {
		t.Fatalf("counter = %d after feed, want 0", got)
	}
	for i := 0; i < 4; i++ {
		dev.AdvanceCycles(40000)
		if err := ctrl.Feed(0); err != nil {
			t.Fatalf("Feed: %v", err)
		}
	}
	if got := dev.ResetCount(); got != 0 {
		t.Fatalf("resets = %d while fed, want 0", got)
	}

	// Starved, it resets once per elapsed period.
	dev.AdvanceCycles(2 * 65537)
	if got := dev.ResetCount(); got != 2 {
		t.Fatalf("resets = %d after starving two periods, want 2", got)
	}
}

func TestSingleTimeoutSlot(t *testing.T) {
	ctrl, _ := newSimulated(t)

	if err := ctrl.InstallTimeout(wdog.TimeoutConfig{WindowMax: 5000}); err != nil {
		t.Fatalf("InstallTimeout: %v", err)
	}
	err := ctrl.InstallTimeout(wdog.TimeoutConfig{WindowMax: 5000})
	if !errors.Is(err, wdog.ErrAlreadyConfigured) {
		t.Fatalf("second InstallTimeout = %v, want ErrAlreadyConfigured", err)
	}
}

func TestDisableAndReinstall(t *testing.T) {
	ctrl, dev := newSimulated(t)

	if err := ctrl.InstallTimeout(wdog.TimeoutConfig{WindowMax: 5000}); err != nil {
		t.Fatalf("InstallTimeout: %v", err)
	}
	if err := ctrl.Setup(0); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := ctrl.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if dev.Enabled() {
		t.Fatal("device still counting after Disable")
	}
	dev.AdvanceCycles(100000)
	if got := dev.ResetCount(); got != 0 {
		t.Fatalf("resets = %d after Disable, want 0", got)
	}

	if err := ctrl.InstallTimeout(wdog.TimeoutConfig{WindowMax: 129}); err != nil {
		t.Fatalf("InstallTimeout after Disable: %v", err)
	}
	if err := ctrl.Setup(0); err != nil {
		t.Fatalf("Setup after Disable: %v", err)
	}
	dev.AdvanceCycles(129)
	if got := dev.ResetCount(); got != 1 {
		t.Fatalf("resets = %d with fresh config, want 1", got)
	}
}

func TestResetNone(t *testing.T) {
	ctrl, dev := newSimulated(t)

	fired := 0
	if err := ctrl.InstallTimeout(wdog.TimeoutConfig{
		WindowMax: 129,
		Flags:     wdog.FlagResetNone,
		Callback:  func(channel int) { fired++ },
	}); err != nil {
		t.Fatalf("InstallTimeout: %v", err)
	}
	if err := ctrl.Setup(0); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	dev.AdvanceCycles(129)
	if got := dev.ResetCount(); got != 0 {
		t.Fatalf("resets = %d with FlagResetNone, want 0", got)
	}
	if fired == 0 {
		t.Fatal("callback never fired across warn and timeout")
	}
}

func TestWindowModeRejectsEarlyFeed(t *testing.T) {
	ctrl, dev := newSimulated(t)

	if err := ctrl.InstallTimeout(wdog.TimeoutConfig{
		WindowMax: 65537,
		WindowMin: 16384,
	}); err != nil {
		t.Fatalf("InstallTimeout: %v", err)
	}
	if err := ctrl.Setup(0); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	dev.AdvanceCycles(100)
	if err := ctrl.Feed(0); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if got := dev.ResetCount(); got != 1 {
		t.Fatalf("resets = %d after feeding before the window, want 1", got)
	}

	// Waiting for the window makes the same feed legal.
	dev.AdvanceCycles(16384)
	if err := ctrl.Feed(0); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if got := dev.ResetCount(); got != 1 {
		t.Fatalf("resets = %d after feeding inside the window, want 1", got)
	}
}

func TestPauseInSleep(t *testing.T) {
	ctrl, dev := newSimulated(t)

	if err := ctrl.InstallTimeout(wdog.TimeoutConfig{WindowMax: 129}); err != nil {
		t.Fatalf("InstallTimeout: %v", err)
	}
	if err := ctrl.Setup(wdog.OptPauseInSleep); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	dev.SetSleeping(true)
	dev.AdvanceCycles(100000)
	if got := dev.ResetCount(); got != 0 {
		t.Fatalf("resets = %d while paused in sleep, want 0", got)
	}

	dev.SetSleeping(false)
	dev.AdvanceCycles(129)
	if got := dev.ResetCount(); got != 1 {
		t.Fatalf("resets = %d after waking, want 1", got)
	}
}

func TestRegistry(t *testing.T) {
	ctrl, _ := newSimulated(t)

	b := wdog.NewBuilder()
	if err := b.Register("wdog0", ctrl); err != nil {
		t.Fatalf("Register: %v", err)
	}
	reg, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	drv, err := reg.Lookup("wdog0")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if err := drv.InstallTimeout(wdog.TimeoutConfig{WindowMax: 5000}); err != nil {
		t.Fatalf("InstallTimeout through registry: %v", err)
	}

	if _, err := reg.Lookup("wdog9"); !errors.Is(err, wdog.ErrUnknownDevice) {
		t.Fatalf("Lookup(wdog9) = %v, want ErrUnknownDevice", err)
	}
}

func TestWallClockRun(t *testing.T) {
	if testing.Short() {
		t.Skip("wall-clock simulation")
	}

	ctrl, dev := newSimulated(t)

	var warns atomic.Int32
	if err := ctrl.InstallTimeout(wdog.TimeoutConfig{
		WindowMax: 100, // rounds up to 129 cycles
		Callback:  func(channel int) { warns.Add(1) },
	}); err != nil {
		t.Fatalf("InstallTimeout: %v", err)
	}
	if err := ctrl.Setup(0); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// 50us per cycle: one 129-cycle period lasts ~6.5ms.
		_ = dev.Run(ctx, 50*time.Microsecond)
	}()

	deadline := time.After(5 * time.Second)
	for dev.ResetCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("watchdog never fired under the wall clock")
		case <-time.After(time.Millisecond):
		}
	}
	if warns.Load() == 0 {
		t.Error("early warning never delivered under the wall clock")
	}

	cancel()
	<-done
}
