// Package platform holds the register, clock, and interrupt primitives a
// watchdog driver consumes. Drivers never touch a bus directly; they are
// handed a RegisterBlock for their peripheral and an interrupt line wiring,
// so the same driver runs against real hardware or a simulated register file.
package platform

// RegisterBlock provides 32-bit access to a peripheral's register window,
// addressed by byte offset from the peripheral base. Accesses are synchronous
// and assumed not to fail; address decoding errors are a programming bug in
// the caller, not a runtime condition.
type RegisterBlock interface {
	Read32(offset uint32) uint32
	Write32(offset uint32, value uint32)
}

// ClockSource enables the oscillator a peripheral counts against.
type ClockSource interface {
	// EnableOscillator turns the clock source on. Enabling an already
	// running oscillator is a no-op.
	EnableOscillator()
}

// NopClock is a ClockSource for environments where the clock tree is managed
// elsewhere.
type NopClock struct{}

func (NopClock) EnableOscillator() {}

// LineInterrupt models an interrupt line that supports level and edge
// semantics. Devices assert it; the platform routes it to a handler.
type LineInterrupt interface {
	SetLevel(high bool)
	PulseInterrupt()
}

type noopLineInterrupt struct{}

func (noopLineInterrupt) SetLevel(bool)   {}
func (noopLineInterrupt) PulseInterrupt() {}

// LineInterruptDetached returns a LineInterrupt that drops all signals.
func LineInterruptDetached() LineInterrupt {
	return noopLineInterrupt{}
}

// LineInterruptFromFunc adapts a handler function to LineInterrupt. The
// function is called with the line level; a pulse calls it with true then
// false. This is how a device model's interrupt output is wired to a
// driver's interrupt entry point.
func LineInterruptFromFunc(fn func(high bool)) LineInterrupt {
	return lineInterruptFunc(fn)
}

type lineInterruptFunc func(bool)

func (f lineInterruptFunc) SetLevel(high bool) {
	if f != nil {
		f(high)
	}
}

func (f lineInterruptFunc) PulseInterrupt() {
	if f != nil {
		f(true)
		f(false)
	}
}
