package simulator

import "sync/atomic"

// Spindle is a manually or rate-driven core.LeadAxisSensor double standing
// in for a real spindle encoder. Demos either call Set directly to script
// an exact position sequence, or call Advance each tick to free-run it at
// a constant rate.
type Spindle struct {
	position      atomic.Int64
	countsPerTick int64
}

// NewSpindle returns a Spindle parked at position 0.
func NewSpindle() *Spindle {
	return &Spindle{}
}

func (s *Spindle) GetCurrentPosition() int32 {
	return int32(s.position.Load())
}

// Set pins the simulated spindle to an exact position, for scripting test
// scenarios.
func (s *Spindle) Set(pos int32) {
	s.position.Store(int64(pos))
}

// SetRate configures how many encoder counts Advance adds per call, e.g. to
// model a constant spindle RPM against a known tick period.
func (s *Spindle) SetRate(countsPerTick int64) {
	s.countsPerTick = countsPerTick
}

// Advance applies the configured rate, simulating one tick's worth of
// spindle rotation.
func (s *Spindle) Advance() {
	s.position.Add(s.countsPerTick)
}
