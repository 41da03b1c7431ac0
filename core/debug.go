package core

// DebugWriter is a function type for writing debug/log messages. The
// default is a no-op so the hot Update() path never pays for formatting
// or I/O unless a caller opts in.
type DebugWriter func(string)

// Event type codes for the timing ring buffer.
const (
	EvtPulseStart   = 1 // step pin driven high
	EvtPulseEnd     = 2 // step pin driven low, pulse counted
	EvtRamp         = 3 // currentPulseDelay adjusted
	EvtScheduleMiss = 4 // lastPulseMicros exceeded schedule, decelerated
	EvtModeChange   = 5 // motion mode transition
)

// TimingEvent captures a timing-critical event for post-mortem analysis,
// adapted from the teacher's core/debug.go TimingEvent.
type TimingEvent struct {
	EventType uint8
	Clock     uint32
	Value1    int32
	Value2    int32
}

const timingRingSize = 32

var (
	debugPrintln  DebugWriter = func(string) {}
	debugEnabled  bool
	timingRing    [timingRingSize]TimingEvent
	timingHead    uint8
	timingEnabled = true
)

// SetDebugWriter installs the platform-specific debug sink (UART, stdout,
// a logger — whatever the host wires up).
func SetDebugWriter(w DebugWriter) {
	debugPrintln = w
}

// SetDebugEnabled toggles debug output. Disabled by default so benchmarks
// and the real-time tick path are not slowed by string building.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled reports whether debug output is currently active.
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes msg through the installed writer, if debug output
// is enabled.
func DebugPrintln(msg string) {
	if debugEnabled {
		debugPrintln(msg)
	}
}

// RecordTiming appends an event to the timing ring buffer. Always
// non-blocking and cheap enough to call unconditionally from Update().
func RecordTiming(eventType uint8, clock uint32, value1, value2 int32) {
	if !timingEnabled {
		return
	}
	timingRing[timingHead] = TimingEvent{
		EventType: eventType,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	timingHead = (timingHead + 1) % timingRingSize
}

// DumpTimingRing renders the ring buffer through the installed writer,
// oldest entry first. Intended for post-mortem inspection after a
// schedule-miss storm, not for routine use.
func DumpTimingRing() {
	debugPrintln("[timing] === ring dump ===")
	start := timingHead
	for i := uint8(0); i < timingRingSize; i++ {
		evt := &timingRing[(start+i)%timingRingSize]
		if evt.EventType == 0 {
			continue
		}
		debugPrintln("[timing] " + eventName(evt.EventType) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + itoa(int(evt.Value1)) +
			" v2=" + itoa(int(evt.Value2)))
	}
	debugPrintln("[timing] === end dump ===")
}

func eventName(t uint8) string {
	switch t {
	case EvtPulseStart:
		return "PULSE_START"
	case EvtPulseEnd:
		return "PULSE_END"
	case EvtRamp:
		return "RAMP"
	case EvtScheduleMiss:
		return "SCHEDULE_MISS"
	case EvtModeChange:
		return "MODE_CHANGE"
	default:
		return "UNKNOWN"
	}
}

// ClearTimingRing empties the ring buffer, e.g. between test cases.
func ClearTimingRing() {
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingHead = 0
}
