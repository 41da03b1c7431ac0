// Package simulator provides deterministic, software-only implementations
// of core.PinIO and core.LeadAxisSensor for demos and for exercising the
// leadscrew controller without any hardware attached, in the spirit of the
// teacher's mock ADCSample/ADCSetup function-variable swaps in
// core/adc_test.go, generalized into standalone types usable from
// cmd/els-host.
package simulator

import "sync/atomic"

// Pins is a software step/direction pin pair with a free-running
// microsecond clock. Advance must be called by the owner once per simulated
// timer period; it is the only mutator of the clock.
type Pins struct {
	stepLevel uint32
	dirLevel  uint32
	micros    atomic.Uint32

	// OnStep, if set, is invoked on every edge written to the step pin
	// (level 0 or 1), letting a caller (e.g. a CLI printer) observe motion
	// without polling.
	OnStep func(level uint8)
}

// NewPins returns a Pins with both pins low and the clock at zero.
func NewPins() *Pins {
	return &Pins{}
}

func (p *Pins) ReadStepPin() uint8 {
	return uint8(atomic.LoadUint32(&p.stepLevel))
}

func (p *Pins) WriteStepPin(level uint8) {
	atomic.StoreUint32(&p.stepLevel, uint32(level))
	if p.OnStep != nil {
		p.OnStep(level)
	}
}

func (p *Pins) WriteDirPin(level uint8) {
	atomic.StoreUint32(&p.dirLevel, uint32(level))
}

// DirLevel reports the last level written to the direction pin, for tests
// and CLI status printing.
func (p *Pins) DirLevel() uint8 {
	return uint8(atomic.LoadUint32(&p.dirLevel))
}

func (p *Pins) Micros() uint32 {
	return p.micros.Load()
}

// Advance moves the simulated clock forward by us microseconds. Called by
// the host loop once per tick instead of sleeping on a real timer.
func (p *Pins) Advance(us uint32) {
	p.micros.Add(us)
}
