package gecko

// timeoutCycles lists the timeout periods the WDOG supports, in cycles of
// the selected oscillator. The index into this table is the PERSEL value.
// On the ULFRCO one cycle is 1 ms +/- 12%.
var timeoutCycles = [16]uint32{
	9, 17, 33, 65, 129, 257, 513, 1025, 2049, 4097,
	8193, 16385, 32769, 65537, 131073, 262145,
}

// convertTimeout returns the smallest period selector whose cycle count
// covers the requested timeout. A request above the last table entry yields
// len(timeoutCycles); callers must range-check the request before indexing
// the table with the result.
func convertTimeout(timeout uint32) int {
	idx := 0
	for idx < len(timeoutCycles) {
		if timeout > timeoutCycles[idx] {
			idx++
			continue
		}
		break
	}
	return idx
}

// convertWindow returns the WINSEL value for the requested minimum window,
// given the resolved timeout period in cycles. The window is quantized up
// to the next eighth of the period. With the early-warning point fixed at
// 75%, only settings up to 62.5% (five eighths) are offered; larger
// requests saturate there rather than failing.
func convertWindow(window, period uint32) int {
	idx := 0
	incr := period / 8
	comp := uint32(0)

	for idx < 5 {
		if window > comp {
			comp += incr
			idx++
			continue
		}
		break
	}

	return idx
}
