// Package leadscrew implements the step-generation controller: the part
// of an electronic lead screw that, once enabled, drives a stepper so its
// commanded position tracks a scaled copy of a sensed lead axis (typically
// a lathe spindle encoder), with trapezoidal ramping, direction management
// and soft travel limits. It is deliberately hardware-agnostic — it talks
// to core.PinIO and core.LeadAxisSensor, never to a register or a machine
// package directly — so the same Controller runs against a simulator in
// tests and against real GPIO in hw/rp2040 or hw/rpi.
package leadscrew

import (
	"math"

	"github.com/EmperorArthur/TeensyELS/core"
)

// Controller is the tick-driven step generator. It owns no goroutines and
// blocks on nothing: Update() is meant to be called once per timer period
// from a single cooperative loop (an ISR on a microcontroller, a ticker on
// a host), the way the teacher's core/stepper.go stepperEventHandler is
// meant to be called from the scheduler — except here the caller drives
// the cadence directly instead of Controller re-arming itself.
type Controller struct {
	pins   core.PinIO
	lead   core.LeadAxisSensor
	global *core.GlobalState
	cfg    core.Config

	ratio           float32
	currentPosition int32
	accumulator     float32

	currentPulseDelay           uint32
	lastPulseEdgeMicros         uint32
	lastPulseMicros             uint32
	lastFullPulseDurationMicros uint32

	currentDirection Direction
	leftStop         stopPosition
	rightStop        stopPosition
}

// New constructs a Controller at rest (DirUnknown, currentPulseDelay at its
// slowest/initial value, ratio 1.0), wired to the given capabilities. It is
// meant to be constructed once at boot, per the single-owner discipline
// documented on core.GlobalState.
func New(pins core.PinIO, lead core.LeadAxisSensor, global *core.GlobalState, cfg core.Config) *Controller {
	return &Controller{
		pins:              pins,
		lead:              lead,
		global:            global,
		cfg:               cfg,
		ratio:             1.0,
		currentPulseDelay: cfg.LeadscrewInitialPulseDelayUS,
		currentDirection:  DirUnknown,
	}
}

// Update advances the controller by one tick. It samples core.PinIO.Micros()
// exactly once, at the top, so every decision this tick sees a consistent
// notion of "now" (see SPEC_FULL.md §9, item 3).
func (c *Controller) Update() {
	now := c.pins.Micros()
	c.lastPulseMicros = wrappingElapsed(now, c.lastPulseEdgeMicros)

	positionError := c.GetExpectedPosition() - c.currentPosition

	switch c.global.MotionMode() {
	case core.MotionDisabled:
		c.currentPosition = c.GetExpectedPosition()
	case core.MotionJog:
		c.updateJog(now, positionError)
	case core.MotionEnabled:
		c.updateEnabled(now, positionError)
	}
}

// updateJog drives fixed-rate motion at JogPulseDelayUS with no ramping:
// the target is the lead axis itself, so jogging stops the instant the
// position error closes.
func (c *Controller) updateJog(now uint32, positionError int32) {
	if c.lastPulseMicros < c.cfg.JogPulseDelayUS {
		return
	}
	if positionError == 0 {
		c.global.SetMotionMode(core.MotionDisabled)
		return
	}

	nextDir := directionFromError(positionError)
	if c.currentDirection != nextDir {
		c.latchDirection(nextDir, now)
		return
	}

	if !c.sendPulse() {
		core.RecordTiming(core.EvtPulseStart, now, 0, 0)
		return
	}

	core.RecordTiming(core.EvtPulseEnd, now, c.currentPosition, 0)
	c.currentPosition += int32(c.currentDirection)
	c.lastFullPulseDurationMicros = c.lastPulseMicros
	c.resetPulseClock(now)
}

// updateEnabled implements the tracking/ramping state machine: latch
// direction when leaving rest, ramp currentPulseDelay toward or away from
// its slowest value depending on whether the remaining distance demands
// deceleration, and fold the ratio's fractional remainder into
// currentPosition through the accumulator.
func (c *Controller) updateEnabled(now uint32, positionError int32) {
	nextDir := directionFromError(positionError)

	if positionError == 0 {
		c.currentDirection = DirUnknown
		c.global.SetThreadSyncState(core.ThreadSync)
		return
	}

	// Latch only once the ramp has decelerated to its slowest rate, so a
	// reversal requested while still cruising forces deceleration to rest
	// first (shouldStop below) instead of flipping the dir pin mid-pulse.
	// The DirUnknown case is the one exception: leaving rest (or a
	// reversal that jumped straight over zero position error without ever
	// re-entering DirUnknown) must still latch immediately, since nothing
	// will otherwise drive currentPulseDelay back down to Initial to
	// satisfy the first condition.
	if nextDir != c.currentDirection &&
		(c.currentPulseDelay == c.cfg.LeadscrewInitialPulseDelayUS || c.currentDirection == DirUnknown) {
		c.latchDirection(nextDir, now)
	}

	accelChange := c.cfg.LeadscrewPulseDelayStepUS * c.lastPulseMicros
	if c.lastPulseMicros == 0 {
		accelChange = c.cfg.LeadscrewPulseDelayStepUS
	}

	if c.lastPulseMicros > c.currentPulseDelay+c.cfg.LeadscrewPulseDelayStepUS &&
		c.currentPulseDelay+accelChange < c.cfg.LeadscrewInitialPulseDelayUS {
		c.currentPulseDelay += accelChange
		core.RecordTiming(core.EvtScheduleMiss, now, int32(c.currentPulseDelay), 0)
	}

	if c.lastPulseMicros < c.currentPulseDelay {
		return
	}

	if !c.sendPulse() {
		core.RecordTiming(core.EvtPulseStart, now, 0, 0)
		return
	}

	core.RecordTiming(core.EvtPulseEnd, now, c.currentPosition, 0)
	c.currentPosition += int32(c.currentDirection)
	c.lastFullPulseDurationMicros = c.lastPulseMicros
	c.resetPulseClock(now)

	accumulatorUnit := (c.cfg.StepsPerMM * c.ratio) / float32(c.cfg.StepperPPR)
	c.accumulator += float32(c.currentDirection) * accumulatorUnit

	stoppingDistance := float32(c.cfg.LeadscrewInitialPulseDelayUS-c.currentPulseDelay) / float32(accelChange)
	shouldStop := float32(absInt32(positionError))-stoppingDistance <= 0 || nextDir != c.currentDirection

	if c.cfg.StopsGateDeceleration {
		if dist, ok := c.distanceToStop(nextDir); ok && float32(dist) <= stoppingDistance {
			shouldStop = true
		}
	}

	delay := int64(c.currentPulseDelay)
	if shouldStop {
		delay += int64(accelChange)
	} else {
		delay -= int64(accelChange)
	}
	c.currentPulseDelay = clampDelay(delay, c.cfg.LeadscrewInitialPulseDelayUS)
	core.RecordTiming(core.EvtRamp, now, int32(c.currentPulseDelay), 0)

	// Sub-step compensation: a non-integer ratio leaves a fractional
	// remainder in accumulator every pulse; once it has built past one
	// whole step, consume it as an extra commanded step. This is in
	// addition to the currentPosition advance every completed pulse
	// already made above. Consuming the step moves the accumulator back
	// toward zero, so |accumulator| never exceeds 1 for long.
	if absFloat32(c.accumulator) > 1 {
		c.accumulator -= float32(c.currentDirection)
		c.currentPosition += int32(c.currentDirection)
	}
}

// sendPulse toggles the step pin. A pulse completes (the falling edge) on
// the call that drives it back low; the rising edge alone reports
// incomplete so the caller knows not to count it yet.
func (c *Controller) sendPulse() bool {
	if c.pins.ReadStepPin() == 1 {
		c.pins.WriteStepPin(0)
		return true
	}
	c.pins.WriteStepPin(1)
	return false
}

func (c *Controller) latchDirection(dir Direction, now uint32) {
	c.pins.WriteDirPin(dirPinLevel(dir))
	c.currentDirection = dir
	c.resetPulseClock(now)
}

func (c *Controller) resetPulseClock(now uint32) {
	c.lastPulseEdgeMicros = now
	c.lastPulseMicros = 0
}

// GetExpectedPosition returns the lead axis position scaled by ratio,
// truncated toward zero.
func (c *Controller) GetExpectedPosition() int32 {
	return int32(float32(c.lead.GetCurrentPosition()) * c.ratio)
}

// GetPositionError returns GetExpectedPosition() - GetCurrentPosition().
func (c *Controller) GetPositionError() int32 {
	return c.GetExpectedPosition() - c.currentPosition
}

// GetCurrentPosition returns the controller's belief of how many steps it
// has commanded.
func (c *Controller) GetCurrentPosition() int32 {
	return c.currentPosition
}

// SetRatio changes the tracking ratio and immediately re-synchronizes
// currentPosition to the lead axis at the new ratio, so the change takes
// effect without a sudden jump in position error on the next tick. The pair
// of writes is masked against interrupts since it is wider than one word.
func (c *Controller) SetRatio(ratio float32) {
	state := core.DisableInterrupts()
	defer core.RestoreInterrupts(state)
	c.ratio = ratio
	c.currentPosition = int32(float32(c.lead.GetCurrentPosition()) * ratio)
	c.accumulator = 0
}

// GetRatio returns the current tracking ratio.
func (c *Controller) GetRatio() float32 {
	return c.ratio
}

// GetCurrentDirection returns the direction the controller last latched,
// or DirUnknown if it is at rest.
func (c *Controller) GetCurrentDirection() Direction {
	return c.currentDirection
}

// GetEstimatedVelocityInMillimetersPerSecond derives a speed estimate from
// the duration of the most recently completed pulse; zero if no pulse has
// completed yet.
func (c *Controller) GetEstimatedVelocityInMillimetersPerSecond() float32 {
	if c.lastFullPulseDurationMicros == 0 || c.cfg.StepsPerMM == 0 {
		return 0
	}
	pulsesPerSecond := 1000000.0 / float32(c.lastFullPulseDurationMicros)
	return pulsesPerSecond / c.cfg.StepsPerMM
}

// wrappingElapsed returns the elapsed time between now and prev, correct
// even across a wraparound of the underlying free-running counter, using
// the same signed-difference trick as the teacher's timer/scheduler code.
func wrappingElapsed(now, prev uint32) uint32 {
	return uint32(int32(now - prev))
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func absFloat32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

func clampDelay(delay int64, max uint32) uint32 {
	if delay < 0 {
		return 0
	}
	if delay > int64(max) {
		return max
	}
	return uint32(delay)
}
