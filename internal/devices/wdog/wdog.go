// Package wdog implements a register-accurate model of the Silicon Labs
// Gecko WDOG watchdog peripheral. The gecko driver runs against it
// unmodified, which is how the driver's full lifecycle is exercised
// without hardware.
package wdog

import (
	"context"
	"sync"
	"time"

	"github.com/emkit/wdog/internal/platform"
)

// WDOG register offsets
const (
	WDOG_CTRL     = 0x000 // Control Register (RW)
	WDOG_CMD      = 0x004 // Command Register (WO)
	WDOG_SYNCBUSY = 0x008 // Synchronization Busy (RO)
	WDOG_IF       = 0x00C // Interrupt Flag Register (RO)
	WDOG_IFS      = 0x010 // Interrupt Flag Set (WO)
	WDOG_IFC      = 0x014 // Interrupt Flag Clear (WO)
	WDOG_IEN      = 0x018 // Interrupt Enable Register (RW)
)

// WDOG_CTRL bits
const (
	CTRL_EN       = 1 << 0
	CTRL_DEBUGRUN = 1 << 1
	CTRL_EM2RUN   = 1 << 2
	CTRL_EM3RUN   = 1 << 3
	CTRL_RSTDIS   = 1 << 4

	CTRL_PERSEL_SHIFT  = 8
	CTRL_PERSEL_MASK   = 0xF << CTRL_PERSEL_SHIFT
	CTRL_WARNSEL_SHIFT = 16
	CTRL_WARNSEL_MASK  = 0x3 << CTRL_WARNSEL_SHIFT
	CTRL_WINSEL_SHIFT  = 20
	CTRL_WINSEL_MASK   = 0x7 << CTRL_WINSEL_SHIFT
)

// WDOG_CMD bits
const (
	CMD_CLEAR = 1 << 0
)

// Interrupt bits, shared layout across IF/IFS/IFC/IEN.
const (
	IF_TOUT = 1 << 0
	IF_WARN = 1 << 1
	IF_WIN  = 1 << 2
)

// periodCycles mirrors the PERSEL encoding from the reference manual.
var periodCycles = [16]uint32{
	9, 17, 33, 65, 129, 257, 513, 1025, 2049, 4097,
	8193, 16385, 32769, 65537, 131073, 262145,
}

// DefaultCycle is the nominal cycle duration when counting off the ULFRCO.
const DefaultCycle = time.Millisecond

// Device models one WDOG instance. The countdown is driven explicitly by
// AdvanceCycles (deterministic, for tests) or by Run (wall clock, for the
// simulator).
type Device struct {
	mu sync.Mutex

	ctrl    uint32
	ien     uint32
	intFlag uint32

	// counter counts cycles since the last reload, up to the period.
	counter   uint32
	warnFired bool

	// pendingPulse latches an enabled interrupt event until the next
	// clock edge. Register writes never assert the line directly: the
	// flags cross a synchronization domain in hardware, and delivering
	// inline would re-enter the driver while it holds its own lock.
	pendingPulse bool

	sleeping    bool
	debugHalted bool

	resetCount int

	line platform.LineInterrupt
}

// New creates a WDOG model asserting interrupts on line.
func New(line platform.LineInterrupt) *Device {
	if line == nil {
		line = platform.LineInterruptDetached()
	}
	return &Device{line: line}
}

// Start implements the device lifecycle; the model is passive until its
// clock is driven.
func (d *Device) Start() error { return nil }

// Stop implements the device lifecycle.
func (d *Device) Stop() error { return nil }

// Reset returns all registers to their power-on values.
func (d *Device) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ctrl = 0
	d.ien = 0
	d.intFlag = 0
	d.counter = 0
	d.warnFired = false
	d.pendingPulse = false
	d.resetCount = 0
	return nil
}

// Read32 implements platform.RegisterBlock.
func (d *Device) Read32(offset uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch offset {
	case WDOG_CTRL:
		return d.ctrl
	case WDOG_SYNCBUSY:
		return 0 // register writes complete synchronously in the model
	case WDOG_IF:
		return d.intFlag
	case WDOG_IEN:
		return d.ien
	}
	return 0 // write-only and unmapped registers read as 0
}

// Write32 implements platform.RegisterBlock.
func (d *Device) Write32(offset uint32, value uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch offset {
	case WDOG_CTRL:
		wasEnabled := d.ctrl&CTRL_EN != 0
		d.ctrl = value
		if !wasEnabled && value&CTRL_EN != 0 {
			// Counting starts from a full period on enable.
			d.counter = 0
			d.warnFired = false
		}
	case WDOG_CMD:
		if value&CMD_CLEAR != 0 {
			d.feedLocked()
		}
	case WDOG_IFS:
		d.raiseLocked(value & (IF_TOUT | IF_WARN | IF_WIN))
	case WDOG_IFC:
		d.intFlag &^= value
	case WDOG_IEN:
		d.ien = value & (IF_TOUT | IF_WARN | IF_WIN)
	}
}

// feedLocked handles a CMD.CLEAR write. In window mode a feed arriving
// before the minimum window opens is a violation: the window flag raises
// and, unless reset generation is disabled, the device resets instead of
// reloading.
func (d *Device) feedLocked() {
	if d.ctrl&CTRL_EN == 0 {
		return
	}

	winSel := (d.ctrl & CTRL_WINSEL_MASK) >> CTRL_WINSEL_SHIFT
	if winSel != 0 {
		minWindow := d.periodLocked() / 8 * winSel
		if d.counter < minWindow {
			d.raiseLocked(IF_WIN)
			if d.ctrl&CTRL_RSTDIS == 0 {
				d.resetCount++
			}
			d.counter = 0
			d.warnFired = false
			return
		}
	}

	d.counter = 0
	d.warnFired = false
}

// raiseLocked sets interrupt flags and latches a line pulse when any of
// them is enabled. Events that fire before the previous pulse was
// delivered coalesce into a single assertion, as they do on hardware when
// the CPU is slow to service the IRQ.
func (d *Device) raiseLocked(flags uint32) {
	d.intFlag |= flags
	if d.ien&flags != 0 {
		d.pendingPulse = true
	}
}

func (d *Device) periodLocked() uint32 {
	perSel := (d.ctrl & CTRL_PERSEL_MASK) >> CTRL_PERSEL_SHIFT
	return periodCycles[perSel]
}

// warnAtLocked returns the cycle count at which the early-warning flag
// raises, or 0 when WARNSEL is disabled. WARNSEL selects quarters of the
// period: 1=25%, 2=50%, 3=75%.
func (d *Device) warnAtLocked() uint32 {
	warnSel := (d.ctrl & CTRL_WARNSEL_MASK) >> CTRL_WARNSEL_SHIFT
	if warnSel == 0 {
		return 0
	}
	return d.periodLocked() / 4 * warnSel
}

// runningLocked reports whether the counter advances: the device must be
// enabled and not paused by a low-power or debug state the CTRL run bits
// exclude.
func (d *Device) runningLocked() bool {
	if d.ctrl&CTRL_EN == 0 {
		return false
	}
	if d.sleeping && d.ctrl&(CTRL_EM2RUN|CTRL_EM3RUN) == 0 {
		return false
	}
	if d.debugHalted && d.ctrl&CTRL_DEBUGRUN == 0 {
		return false
	}
	return true
}

// AdvanceCycles moves the countdown forward by n cycles, raising the
// early-warning flag at the WARNSEL point and the timeout flag (plus a
// reset event unless RSTDIS) at period expiry. The counter wraps and keeps
// counting after expiry, as the hardware does when reset is disabled.
// Pending interrupt pulses are delivered on the way out, after the device
// mutex is released, so the handler is free to read and clear the flag
// registers.
func (d *Device) AdvanceCycles(n uint32) {
	d.mu.Lock()

	for n > 0 && d.runningLocked() {
		period := d.periodLocked()
		toExpiry := period - d.counter

		step := toExpiry
		if warnAt := d.warnAtLocked(); warnAt > d.counter && !d.warnFired {
			if toWarn := warnAt - d.counter; toWarn < step {
				step = toWarn
			}
		}
		if n < step {
			step = n
		}

		d.counter += step
		n -= step

		if warnAt := d.warnAtLocked(); warnAt != 0 && !d.warnFired && d.counter >= warnAt {
			d.warnFired = true
			d.raiseLocked(IF_WARN)
		}

		if d.counter >= period {
			d.raiseLocked(IF_TOUT)
			if d.ctrl&CTRL_RSTDIS == 0 {
				d.resetCount++
			}
			d.counter = 0
			d.warnFired = false
		}
	}

	pulse := d.pendingPulse
	d.pendingPulse = false
	d.mu.Unlock()

	if pulse {
		d.line.PulseInterrupt()
	}
}

// Run drives the countdown off the wall clock, one cycle per tick, until
// the context is canceled. cycle <= 0 selects the nominal ULFRCO rate.
func (d *Device) Run(ctx context.Context, cycle time.Duration) error {
	if cycle <= 0 {
		cycle = DefaultCycle
	}
	ticker := time.NewTicker(cycle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.AdvanceCycles(1)
		}
	}
}

// SetSleeping marks the core as being in a low-power sleep state. The
// counter pauses unless CTRL allows counting in EM2/EM3.
func (d *Device) SetSleeping(sleeping bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sleeping = sleeping
}

// SetDebugHalted marks the core as halted by a debugger.
func (d *Device) SetDebugHalted(halted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.debugHalted = halted
}

// Enabled reports whether the countdown is armed.
func (d *Device) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctrl&CTRL_EN != 0
}

// CycleCount returns the cycles elapsed since the last reload.
func (d *Device) CycleCount() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counter
}

// ResetCount returns how many times the watchdog fired a reset.
func (d *Device) ResetCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resetCount
}

// SetIRQLine rewires the interrupt line.
func (d *Device) SetIRQLine(line platform.LineInterrupt) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if line == nil {
		line = platform.LineInterruptDetached()
	}
	d.line = line
}

var _ platform.RegisterBlock = (*Device)(nil)
