package leadscrew

import (
	"testing"

	"github.com/EmperorArthur/TeensyELS/core"
)

// mockPins is a deterministic, in-memory core.PinIO double: it tracks pin
// levels and a free-running microsecond clock the test advances by hand,
// the way the teacher's core/adc_test.go swaps in mock ADCSample/ADCSetup
// funcs instead of talking to real hardware.
type mockPins struct {
	stepLevel  uint8
	dirLevel   uint8
	micros     uint32
	fallingCnt int
	dirLog     []uint8
}

func (m *mockPins) ReadStepPin() uint8 { return m.stepLevel }

func (m *mockPins) WriteStepPin(level uint8) {
	if m.stepLevel == 1 && level == 0 {
		m.fallingCnt++
	}
	m.stepLevel = level
}

func (m *mockPins) WriteDirPin(level uint8) {
	m.dirLevel = level
	m.dirLog = append(m.dirLog, level)
}

func (m *mockPins) Micros() uint32 { return m.micros }

func (m *mockPins) advance(us uint32) { m.micros += us }

// mockLead is a directly-settable core.LeadAxisSensor double.
type mockLead struct{ pos int32 }

func (m *mockLead) GetCurrentPosition() int32 { return m.pos }

func newTestController() (*Controller, *mockPins, *mockLead) {
	cfg := core.DefaultConfig()
	pins := &mockPins{}
	lead := &mockLead{}
	global := core.NewGlobalState()
	global.SetMotionMode(core.MotionEnabled)
	c := New(pins, lead, global, cfg)
	return c, pins, lead
}

// tick advances the mock clock by the configured timer period and runs one
// Update(), checking the invariants that must hold after every tick.
func tick(t *testing.T, c *Controller, pins *mockPins, cfg core.Config) {
	t.Helper()
	pins.advance(cfg.LeadscrewTimerUS)
	c.Update()
	if c.currentPulseDelay > cfg.LeadscrewInitialPulseDelayUS {
		t.Fatalf("currentPulseDelay %d exceeds initial %d", c.currentPulseDelay, cfg.LeadscrewInitialPulseDelayUS)
	}
}

func runUntil(t *testing.T, c *Controller, pins *mockPins, cfg core.Config, maxTicks int, done func() bool) int {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		if done() {
			return i
		}
		tick(t, c, pins, cfg)
	}
	t.Fatalf("condition not reached within %d ticks", maxTicks)
	return maxTicks
}

func TestColdStartRatioOneTracksLeadAxis(t *testing.T) {
	c, pins, lead := newTestController()
	cfg := core.DefaultConfig()
	lead.pos = 100

	runUntil(t, c, pins, cfg, 2_000_000, func() bool {
		return c.GetCurrentPosition() == 100
	})
	// One more tick lets the controller observe the zero error and come
	// to rest.
	tick(t, c, pins, cfg)

	if got := c.GetCurrentPosition(); got != 100 {
		t.Fatalf("currentPosition = %d, want 100", got)
	}
	if c.GetPositionError() != 0 {
		t.Fatalf("positionError = %d, want 0", c.GetPositionError())
	}
	if c.GetCurrentDirection() != DirUnknown {
		t.Fatalf("currentDirection = %v, want DirUnknown at rest", c.GetCurrentDirection())
	}
	for _, level := range pins.dirLog {
		if level != 1 {
			t.Fatalf("dir pin went low during a rightward-only move: log=%v", pins.dirLog)
		}
	}
}

func TestFractionalRatioAccumulatesSubSteps(t *testing.T) {
	c, pins, lead := newTestController()
	cfg := core.DefaultConfig()
	c.SetRatio(0.5)
	lead.pos = 10

	runUntil(t, c, pins, cfg, 2_000_000, func() bool {
		return c.GetExpectedPosition() == c.GetCurrentPosition()
	})

	if got := c.GetCurrentPosition(); got != 5 {
		t.Fatalf("currentPosition = %d, want 5 (trunc(10*0.5))", got)
	}
}

func TestDirectionReversalNeverPulsesOnLatchTick(t *testing.T) {
	c, pins, lead := newTestController()
	cfg := core.DefaultConfig()
	lead.pos = 20

	runUntil(t, c, pins, cfg, 2_000_000, func() bool {
		return c.GetCurrentPosition() == 20
	})

	lead.pos = -20
	fallingBefore := pins.fallingCnt
	latched := false
	for i := 0; i < 2_000_000; i++ {
		dirBefore := c.currentDirection
		fallingPre := pins.fallingCnt
		tick(t, c, pins, cfg)
		if c.currentDirection != dirBefore && c.currentDirection == DirLeft {
			latched = true
			if pins.fallingCnt != fallingPre {
				t.Fatalf("tick both latched a new direction and completed a pulse")
			}
		}
		if c.GetCurrentPosition() == -20 {
			break
		}
	}
	if !latched {
		t.Fatalf("never observed the direction latch to LEFT")
	}
	if pins.fallingCnt <= fallingBefore {
		t.Fatalf("no pulses observed during reversal leg")
	}
	if c.GetCurrentPosition() != -20 {
		t.Fatalf("currentPosition = %d, want -20", c.GetCurrentPosition())
	}
}

func TestJogModeStopsAtTargetAndDisables(t *testing.T) {
	c, pins, lead := newTestController()
	cfg := core.DefaultConfig()
	global := core.NewGlobalState()
	global.SetMotionMode(core.MotionJog)
	c.global = global
	lead.pos = 20

	lastPulseTick := -1
	tickIdx := 0
	for global.MotionMode() == core.MotionJog {
		pins.advance(cfg.LeadscrewTimerUS)
		before := pins.fallingCnt
		c.Update()
		if pins.fallingCnt != before {
			if lastPulseTick >= 0 && tickIdx-lastPulseTick < int(cfg.JogPulseDelayUS/cfg.LeadscrewTimerUS) {
				t.Fatalf("jog pulses arrived faster than JogPulseDelayUS")
			}
			lastPulseTick = tickIdx
		}
		tickIdx++
		if tickIdx > 2_000_000 {
			t.Fatalf("jog never reached target and disabled")
		}
	}

	if c.GetCurrentPosition() != 20 {
		t.Fatalf("currentPosition = %d, want 20 after jog", c.GetCurrentPosition())
	}
	if global.MotionMode() != core.MotionDisabled {
		t.Fatalf("motion mode = %v, want DISABLED after jog target reached", global.MotionMode())
	}
}

func TestScheduleMissDoesNotSpeedUpOrCorruptState(t *testing.T) {
	c, pins, lead := newTestController()
	cfg := core.DefaultConfig()
	lead.pos = 5000

	// Run long enough to reach full ramp speed.
	for i := 0; i < 5000; i++ {
		tick(t, c, pins, cfg)
	}
	fastDelay := c.currentPulseDelay

	// Simulate a scheduling gap: the host skips calling Update() for a
	// long stretch, then resumes — lastPulseMicros should read as a large
	// overdue interval rather than corrupting state.
	pins.advance(50_000)
	c.Update()

	if c.currentPulseDelay < fastDelay {
		t.Fatalf("currentPulseDelay decreased after a missed schedule; want no speed-up")
	}
	if c.currentPulseDelay > cfg.LeadscrewInitialPulseDelayUS {
		t.Fatalf("currentPulseDelay %d exceeds initial %d after miss", c.currentPulseDelay, cfg.LeadscrewInitialPulseDelayUS)
	}

	runUntil(t, c, pins, cfg, 2_000_000, func() bool {
		return c.GetCurrentPosition() == 5000
	})
}

func TestMidRunRatioChangeResyncsWithoutPanic(t *testing.T) {
	c, pins, lead := newTestController()
	cfg := core.DefaultConfig()
	lead.pos = 1000

	for i := 0; i < 2000; i++ {
		tick(t, c, pins, cfg)
	}

	c.SetRatio(2.0)
	if got := c.GetPositionError(); got != 0 {
		t.Fatalf("positionError = %d immediately after SetRatio, want 0 (re-synced)", got)
	}

	lead.pos = 1500
	runUntil(t, c, pins, cfg, 2_000_000, func() bool {
		return c.GetCurrentPosition() == c.GetExpectedPosition()
	})

	if got := c.GetCurrentPosition(); got != 3000 {
		t.Fatalf("currentPosition = %d, want 3000 (1500*2.0)", got)
	}
}

func TestStopPositionSentinelsWhenUnset(t *testing.T) {
	c, _, _ := newTestController()

	if got := c.GetStopPosition(SideLeft); got != -2147483648 {
		t.Fatalf("unset left stop = %d, want math.MinInt32", got)
	}
	if got := c.GetStopPosition(SideRight); got != 2147483647 {
		t.Fatalf("unset right stop = %d, want math.MaxInt32", got)
	}

	c.SetStopPosition(SideRight, 500)
	if got := c.GetStopPosition(SideRight); got != 500 {
		t.Fatalf("right stop = %d, want 500", got)
	}
	c.UnsetStopPosition(SideRight)
	if got := c.GetStopPosition(SideRight); got != 2147483647 {
		t.Fatalf("right stop after unset = %d, want sentinel", got)
	}
}

func TestDisabledModeTracksWithoutPulsing(t *testing.T) {
	cfg := core.DefaultConfig()
	pins := &mockPins{}
	lead := &mockLead{pos: 42}
	global := core.NewGlobalState() // boots DISABLED
	c := New(pins, lead, global, cfg)

	for i := 0; i < 10; i++ {
		tick(t, c, pins, cfg)
	}

	if c.GetCurrentPosition() != 42 {
		t.Fatalf("currentPosition = %d, want 42 (DISABLED tracks expected position)", c.GetCurrentPosition())
	}
	if pins.fallingCnt != 0 {
		t.Fatalf("DISABLED mode emitted %d pulses, want 0", pins.fallingCnt)
	}
}

func TestVelocityEstimateZeroUntilFirstPulse(t *testing.T) {
	c, _, _ := newTestController()
	if v := c.GetEstimatedVelocityInMillimetersPerSecond(); v != 0 {
		t.Fatalf("velocity estimate = %v before any pulse, want 0", v)
	}
}
