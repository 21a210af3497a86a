// Package wdt defines the watchdog driver contract shared by device
// implementations and the callers that arm, feed, and disarm them.
//
// A Driver manages a single hardware watchdog instance. The expected call
// sequence is InstallTimeout, Setup, then periodic Feed calls until Disable.
// Installing a timeout only stages a configuration; nothing is written to
// hardware until Setup commits it and starts the countdown.
package wdt

import "errors"

// Callback is invoked from interrupt context when the watchdog raises its
// early-warning or timeout interrupt. It must not block and must not call
// back into InstallTimeout or Setup.
type Callback func(channel int)

// Flag selects what the watchdog does when the timeout expires.
type Flag uint8

const (
	// FlagResetSoC resets the whole SoC on expiry.
	FlagResetSoC Flag = iota
	// FlagResetCPUCore resets only the CPU core on expiry.
	FlagResetCPUCore
	// FlagResetNone leaves reset generation disabled; only the timeout
	// interrupt fires.
	FlagResetNone
)

// Options is a bitset of runtime behaviors applied at Setup time.
type Options uint8

const (
	// OptPauseInSleep suspends the countdown while the core is in a
	// low-power sleep state.
	OptPauseInSleep Options = 1 << iota
	// OptPauseHaltedByDebugger suspends the countdown while a debugger
	// has the core halted.
	OptPauseHaltedByDebugger
)

// TimeoutConfig describes one watchdog timeout request.
//
// WindowMax and WindowMin are expressed in watchdog cycles. On the low
// frequency oscillator one cycle is nominally 1 ms with roughly 12%
// tolerance, so these are not wall-clock milliseconds.
type TimeoutConfig struct {
	// WindowMax is the upper bound of the feed window: the countdown
	// period. It is quantized up to the nearest hardware-supported period.
	WindowMax uint32

	// WindowMin is the lower bound of the feed window. Zero selects
	// normal (non-windowed) mode. Nonzero selects window mode, where
	// feeding earlier than the window raises a window interrupt.
	WindowMin uint32

	// Flags selects the reset behavior on expiry.
	Flags Flag

	// Callback, when non-nil, is invoked on the early-warning and timeout
	// interrupts. Registering a callback causes Setup to enable the
	// corresponding interrupt sources.
	Callback Callback
}

// Driver is the operation surface a watchdog device exposes to the rest of
// the system. A single concrete implementation exists per device family;
// test doubles implement the same interface against a simulated register
// file.
type Driver interface {
	// InstallTimeout stages a timeout configuration. The driver has a
	// single timeout slot: installing while a configuration is already
	// staged or running fails with ErrAlreadyConfigured.
	InstallTimeout(cfg TimeoutConfig) error

	// Setup commits the staged configuration to hardware and starts the
	// countdown. Fails with ErrNoValidConfig if nothing is staged.
	Setup(opts Options) error

	// Feed resets the countdown on the given channel. The hardware has a
	// single channel, 0; any other id fails with ErrInvalidChannel.
	Feed(channel int) error

	// Disable stops the countdown and discards the staged configuration.
	// Safe to call in any state.
	Disable() error
}

// Sentinel errors returned by Driver implementations. Implementations wrap
// these with context; match with errors.Is.
var (
	// ErrAlreadyConfigured is returned by InstallTimeout when the single
	// timeout slot is already occupied.
	ErrAlreadyConfigured = errors.New("wdt: timeout already installed")

	// ErrOutOfRange is returned when a requested timeout lies outside the
	// hardware-supported period range.
	ErrOutOfRange = errors.New("wdt: timeout out of range")

	// ErrUnsupportedFlag is returned for an unrecognized reset flag.
	ErrUnsupportedFlag = errors.New("wdt: unsupported flag")

	// ErrNoValidConfig is returned by Setup when no timeout is staged.
	ErrNoValidConfig = errors.New("wdt: no valid timeout installed")

	// ErrInvalidChannel is returned by Feed for a channel other than 0.
	ErrInvalidChannel = errors.New("wdt: invalid channel id")

	// ErrUnknownDevice is returned by the registry for an unregistered
	// device name.
	ErrUnknownDevice = errors.New("wdt: unknown device")
)
