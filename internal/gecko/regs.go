package gecko

// WDOG register offsets
const (
	regCtrl     = 0x000 // Control Register (RW)
	regCmd      = 0x004 // Command Register (WO)
	regSyncBusy = 0x008 // Synchronization Busy (RO)
	regIF       = 0x00C // Interrupt Flag Register (RO)
	regIFS      = 0x010 // Interrupt Flag Set (WO)
	regIFC      = 0x014 // Interrupt Flag Clear (WO)
	regIEN      = 0x018 // Interrupt Enable Register (RW)

	// RegisterWindowSize is the size of the WDOG register window.
	RegisterWindowSize = 0x400
)

// CTRL bits
const (
	ctrlEnable       = 1 << 0 // EN: start counting
	ctrlDebugRun     = 1 << 1 // DEBUGRUN: keep counting while debugger halts the core
	ctrlEM2Run       = 1 << 2 // EM2RUN: keep counting in EM2 sleep
	ctrlEM3Run       = 1 << 3 // EM3RUN: keep counting in EM3 sleep
	ctrlResetDisable = 1 << 4 // WDOGRSTDIS: suppress reset generation on timeout

	ctrlPerSelShift  = 8 // PERSEL: timeout period selector, index into the cycle table
	ctrlPerSelMask   = 0xF << ctrlPerSelShift
	ctrlWarnSelShift = 16 // WARNSEL: early-warning point in quarters of the period
	ctrlWarnSelMask  = 0x3 << ctrlWarnSelShift
	ctrlWinSelShift  = 20 // WINSEL: minimum window in eighths of the period
	ctrlWinSelMask   = 0x7 << ctrlWinSelShift
)

// CMD bits
const (
	cmdClear = 1 << 0 // CLEAR: reload the counter (feed)
)

// Interrupt flag and enable bits, shared layout across IF/IFS/IFC/IEN.
const (
	intTimeout = 1 << 0 // TOUT: period expired
	intWarn    = 1 << 1 // WARN: early-warning point reached
	intWindow  = 1 << 2 // WIN: feed arrived before the minimum window opened
)

// WARNSEL encodings. The driver always programs the 75% point so window
// settings have a fixed early-warning margin above them.
const (
	warnSelDisabled = 0
	warnSel25       = 1
	warnSel50       = 2
	warnSel75       = 3
)

// WINSEL encoding 0 disables window checking (normal mode); 1..7 select a
// minimum window of that many eighths of the period.
const winSelDisabled = 0
