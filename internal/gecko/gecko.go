// Package gecko implements the watchdog driver for the Silicon Labs Gecko
// (EFM32/EFR32) WDOG peripheral.
//
// The peripheral has a single timeout channel. A timeout request in cycles
// is quantized onto the sixteen hardware-supported periods, an optional
// minimum feed window onto eighths of the resolved period, and the
// early-warning interrupt is fixed at 75% of the period. The driver itself
// is register-file agnostic: it runs against anything implementing
// platform.RegisterBlock, including the simulated peripheral in
// internal/devices/wdog.
package gecko

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/emkit/wdog/internal/platform"
	"github.com/emkit/wdog/internal/wdt"
)

type state int

const (
	stateUninitialized state = iota
	stateConfigInstalled
	stateRunning
)

// resolvedConfig is the hardware-ready form of a timeout request: selector
// values ready to be packed into CTRL.
type resolvedConfig struct {
	perSel       int
	winSel       int
	warnSel      int
	resetDisable bool

	// Filled in at Setup time from the options bitset, not from the
	// timeout request.
	debugRun bool
	em2Run   bool
	em3Run   bool
}

// Controller drives one WDOG instance. All public operations serialize on
// an internal mutex; HandleInterrupt may run concurrently from the
// platform's interrupt dispatch.
type Controller struct {
	log   *slog.Logger
	regs  platform.RegisterBlock
	clock platform.ClockSource

	mu       sync.Mutex
	state    state
	cfg      resolvedConfig
	callback wdt.Callback
}

// New returns a Controller bound to the given register block and clock
// source. Call Init before use.
func New(regs platform.RegisterBlock, clock platform.ClockSource, log *slog.Logger) *Controller {
	if clock == nil {
		clock = platform.NopClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		log:   log,
		regs:  regs,
		clock: clock,
	}
}

// Init enables the low-frequency oscillator the watchdog counts against.
// Interrupt routing is the platform's job: wire HandleInterrupt to the
// WDOG interrupt line, e.g. via platform.LineInterruptFromFunc.
func (c *Controller) Init() error {
	c.clock.EnableOscillator()
	c.log.Info("watchdog controller initialized")
	return nil
}

// InstallTimeout stages a timeout configuration. The WDOG has no channel
// table, just the one countdown, so a second install without an intervening
// Disable fails with wdt.ErrAlreadyConfigured.
func (c *Controller) InstallTimeout(cfg wdt.TimeoutConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateUninitialized {
		return fmt.Errorf("gecko: %w", wdt.ErrAlreadyConfigured)
	}

	// The range check must precede the table search: convertTimeout
	// reports one past the table for oversized requests.
	last := len(timeoutCycles) - 1
	if cfg.WindowMax < timeoutCycles[0] || cfg.WindowMax > timeoutCycles[last] {
		return fmt.Errorf("gecko: upper limit %d cycles: %w", cfg.WindowMax, wdt.ErrOutOfRange)
	}

	resolved := resolvedConfig{
		perSel:  convertTimeout(cfg.WindowMax),
		winSel:  winSelDisabled,
		warnSel: warnSel75,
	}

	if cfg.WindowMin > 0 {
		// Window mode. The minimum window is quantized against the
		// rounded-up period, not the requested one.
		resolved.winSel = convertWindow(cfg.WindowMin, timeoutCycles[resolved.perSel])
	}

	switch cfg.Flags {
	case wdt.FlagResetSoC, wdt.FlagResetCPUCore:
		resolved.resetDisable = false
	case wdt.FlagResetNone:
		resolved.resetDisable = true
	default:
		return fmt.Errorf("gecko: flag %d: %w", cfg.Flags, wdt.ErrUnsupportedFlag)
	}

	c.cfg = resolved
	c.callback = cfg.Callback
	c.state = stateConfigInstalled

	c.log.Debug("installed timeout",
		"perSel", resolved.perSel,
		"winSel", resolved.winSel,
		"resetDisable", resolved.resetDisable)
	return nil
}

// Setup commits the staged configuration and starts the countdown. The
// callback registration decides whether the timeout and early-warning
// interrupt sources are enabled.
func (c *Controller) Setup(opts wdt.Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateUninitialized {
		return fmt.Errorf("gecko: %w", wdt.ErrNoValidConfig)
	}

	c.cfg.em2Run = opts&wdt.OptPauseInSleep == 0
	c.cfg.em3Run = opts&wdt.OptPauseInSleep == 0
	c.cfg.debugRun = opts&wdt.OptPauseHaltedByDebugger == 0

	ien := c.regs.Read32(regIEN)
	if c.callback != nil {
		ien |= intTimeout | intWarn
	} else {
		ien &^= intTimeout | intWarn
	}
	c.regs.Write32(regIEN, ien)

	// Writing EN together with the selectors starts the counter.
	c.regs.Write32(regCtrl, c.ctrlWordLocked())
	c.state = stateRunning

	c.log.Debug("setup the watchdog")
	return nil
}

// ctrlWordLocked packs the resolved configuration into a CTRL value.
// Caller holds c.mu.
func (c *Controller) ctrlWordLocked() uint32 {
	ctrl := uint32(ctrlEnable)
	ctrl |= uint32(c.cfg.perSel) << ctrlPerSelShift & ctrlPerSelMask
	ctrl |= uint32(c.cfg.warnSel) << ctrlWarnSelShift & ctrlWarnSelMask
	ctrl |= uint32(c.cfg.winSel) << ctrlWinSelShift & ctrlWinSelMask
	if c.cfg.resetDisable {
		ctrl |= ctrlResetDisable
	}
	if c.cfg.debugRun {
		ctrl |= ctrlDebugRun
	}
	if c.cfg.em2Run {
		ctrl |= ctrlEM2Run
	}
	if c.cfg.em3Run {
		ctrl |= ctrlEM3Run
	}
	return ctrl
}

// Feed reloads the countdown. The WDOG exposes exactly one channel, id 0.
// Feeding faster than necessary is harmless; in window mode a feed before
// the minimum window raises the window interrupt instead of reloading.
func (c *Controller) Feed(channel int) error {
	if channel != 0 {
		return fmt.Errorf("gecko: channel %d: %w", channel, wdt.ErrInvalidChannel)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.regs.Write32(regCmd, cmdClear)
	c.log.Debug("fed the watchdog")
	return nil
}

// Disable stops the countdown and discards the staged configuration. The
// interrupt sources are masked before the callback is dropped so an
// interrupt arriving mid-disable cannot observe a half-cleared registration.
func (c *Controller) Disable() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.regs.Write32(regIEN, 0)

	ctrl := c.regs.Read32(regCtrl)
	c.regs.Write32(regCtrl, ctrl&^uint32(ctrlEnable))

	c.callback = nil
	c.state = stateUninitialized

	c.log.Debug("disabled the watchdog")
	return nil
}

// HandleInterrupt is the WDOG interrupt entry point. It clears exactly the
// flags it observed, then invokes the registered callback with channel 0.
// The callback runs outside the controller mutex so it may legally call
// Feed, but it must not block and must not call InstallTimeout or Setup.
func (c *Controller) HandleInterrupt() {
	c.mu.Lock()
	flags := c.regs.Read32(regIF)
	c.regs.Write32(regIFC, flags)
	callback := c.callback
	c.mu.Unlock()

	if callback != nil {
		callback(0)
	}
}

// InterruptLine adapts HandleInterrupt to the platform's line-interrupt
// plumbing; the handler fires on the rising edge.
func (c *Controller) InterruptLine() platform.LineInterrupt {
	return platform.LineInterruptFromFunc(func(high bool) {
		if high {
			c.HandleInterrupt()
		}
	})
}

var _ wdt.Driver = (*Controller)(nil)
