// Package wdog provides a driver for the Silicon Labs Gecko watchdog
// peripheral together with a register-accurate simulated device. The
// driver quantizes a requested timeout/window onto the hardware-supported
// periods, programs the device, and must then be fed periodically to avoid
// a reset; an optional callback fires on the early-warning interrupt
// before expiry.
package wdog

import (
	"log/slog"

	simdev "github.com/emkit/wdog/internal/devices/wdog"
	"github.com/emkit/wdog/internal/gecko"
	"github.com/emkit/wdog/internal/platform"
	"github.com/emkit/wdog/internal/wdt"
)

// -----------------------------------------------------------------------------
// Type Aliases - These re-export types from internal packages
// -----------------------------------------------------------------------------

// Driver is the watchdog operation surface: InstallTimeout, Setup, Feed,
// Disable.
type Driver = wdt.Driver

// TimeoutConfig describes a timeout request in watchdog cycles.
type TimeoutConfig = wdt.TimeoutConfig

// Callback is invoked from interrupt context on early warning or timeout.
type Callback = wdt.Callback

// Flag selects the reset behavior on expiry.
type Flag = wdt.Flag

// Options is the Setup-time bitset of pause behaviors.
type Options = wdt.Options

// Controller is the Gecko WDOG driver.
type Controller = gecko.Controller

// Device is the simulated WDOG peripheral.
type Device = simdev.Device

// RegisterBlock is the 32-bit register access a driver consumes.
type RegisterBlock = platform.RegisterBlock

// ClockSource enables the oscillator the watchdog counts against.
type ClockSource = platform.ClockSource

// LineInterrupt is an interrupt line between a device and a handler.
type LineInterrupt = platform.LineInterrupt

// Builder collects named drivers before building a Registry.
type Builder = platform.Builder

// Registry owns the watchdog drivers for a board.
type Registry = platform.Registry

// Reset flag constants.
const (
	FlagResetSoC     = wdt.FlagResetSoC
	FlagResetCPUCore = wdt.FlagResetCPUCore
	FlagResetNone    = wdt.FlagResetNone
)

// Setup option constants.
const (
	OptPauseInSleep          = wdt.OptPauseInSleep
	OptPauseHaltedByDebugger = wdt.OptPauseHaltedByDebugger
)

// Common sentinel errors. Match with errors.Is.
var (
	ErrAlreadyConfigured = wdt.ErrAlreadyConfigured
	ErrOutOfRange        = wdt.ErrOutOfRange
	ErrUnsupportedFlag   = wdt.ErrUnsupportedFlag
	ErrNoValidConfig     = wdt.ErrNoValidConfig
	ErrInvalidChannel    = wdt.ErrInvalidChannel
	ErrUnknownDevice     = wdt.ErrUnknownDevice
)

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

// New binds a Gecko watchdog driver to caller-supplied platform primitives:
// the peripheral's register block, its clock source, and optionally a nil
// logger to use slog's default. The caller is responsible for routing the
// WDOG interrupt line to (*Controller).HandleInterrupt, typically via
// (*Controller).InterruptLine.
func New(regs RegisterBlock, clock ClockSource, log *slog.Logger) (*Controller, error) {
	c := gecko.New(regs, clock, log)
	if err := c.Init(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewSimulated builds a driver wired to a simulated WDOG peripheral, with
// the device's interrupt output routed back into the driver. The returned
// Device is the clock master: drive it with AdvanceCycles or Run.
func NewSimulated(log *slog.Logger) (*Controller, *Device, error) {
	dev := simdev.New(nil)
	c := gecko.New(dev, platform.NopClock{}, log)
	dev.SetIRQLine(c.InterruptLine())
	if err := c.Init(); err != nil {
		return nil, nil, err
	}
	return c, dev, nil
}

// NewBuilder returns an empty driver registry builder.
func NewBuilder() *Builder {
	return platform.NewBuilder()
}
