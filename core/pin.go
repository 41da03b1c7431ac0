// Package core provides the platform-independent abstractions the
// leadscrew controller is built on: the pin I/O capability, the lead-axis
// sensor capability, compile-time configuration, the global motion state,
// and a small debug/timing facility. None of it drives real hardware —
// that is left to backend packages (hw/rp2040, hw/rpi, simulator,
// serialbridge) that implement these interfaces.
package core

// PinIO is the capability interface the leadscrew controller uses to
// touch hardware. Implementations are expected to be cheap and
// non-blocking; Update() calls these once or twice per tick.
type PinIO interface {
	// ReadStepPin returns the last level written to the step pin.
	ReadStepPin() uint8

	// WriteStepPin sets the step pin to the given level (0 or 1).
	WriteStepPin(level uint8)

	// WriteDirPin sets the direction pin to the given level.
	// 1 = RIGHT (advance), 0 = LEFT, per the wire protocol in spec §6.
	WriteDirPin(level uint8)

	// Micros returns a free-running microsecond counter. Wraparound is
	// allowed; callers only ever take differences.
	Micros() uint32
}
