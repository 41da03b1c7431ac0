package core

import "sync/atomic"

// MotionMode is the top-level mode gating the leadscrew controller's
// behavior (spec.md §3, §4.D).
type MotionMode uint32

const (
	MotionDisabled MotionMode = iota
	MotionJog
	MotionEnabled
)

func (m MotionMode) String() string {
	switch m {
	case MotionDisabled:
		return "DISABLED"
	case MotionJog:
		return "JOG"
	case MotionEnabled:
		return "ENABLED"
	default:
		return "UNKNOWN"
	}
}

// ThreadSyncState reports whether the leadscrew has caught up with the lead
// axis. The controller publishes ThreadSync when ENABLED tracking observes
// zero position error; nothing sets ThreadUnsync again after boot, so
// ThreadSync stays reported once reached.
type ThreadSyncState uint32

const (
	ThreadUnsync ThreadSyncState = iota
	ThreadSync
)

func (s ThreadSyncState) String() string {
	if s == ThreadSync {
		return "SYNC"
	}
	return "UNSYNC"
}

// GlobalState is the process-wide motion/sync state plus the user-facing
// ratio presets, surfaced to the UI/CLI (spec.md §4.C). Fields are
// single-word and are read/written with sync/atomic rather than a lock —
// the discipline spec.md §5 calls for: "no locks are used — the
// platform's integer-store atomicity is the discipline". This mirrors the
// teacher's core/timer_tinygo.go atomic pattern for the system clock.
//
// Unlike the teacher's CommandRegistry/Dictionary singletons, this is not
// forced into a single package-level global: NewGlobalState constructs an
// independent value so the tick loop can own one instance and hand a
// reference to the controller, per spec.md §9's guidance to avoid true
// global mutable state in a memory-safe reimplementation.
type GlobalState struct {
	motionMode      atomic.Uint32
	threadSyncState atomic.Uint32
	ratioPresets    map[string]float32
}

// NewGlobalState returns a GlobalState initialized to DISABLED/UNSYNC, the
// documented boot state (spec.md §4.D state machine diagram).
func NewGlobalState() *GlobalState {
	g := &GlobalState{
		ratioPresets: make(map[string]float32),
	}
	g.motionMode.Store(uint32(MotionDisabled))
	g.threadSyncState.Store(uint32(ThreadUnsync))
	return g
}

// MotionMode returns the current motion mode. Safe to call from any
// context; UI writes become visible no later than the next tick.
func (g *GlobalState) MotionMode() MotionMode {
	return MotionMode(g.motionMode.Load())
}

// SetMotionMode is called by the UI/CLI (or by the controller itself, for
// the controller-initiated transitions in spec.md §4.D's state diagram).
func (g *GlobalState) SetMotionMode(m MotionMode) {
	g.motionMode.Store(uint32(m))
}

// ThreadSyncState returns the current sync report.
func (g *GlobalState) ThreadSyncState() ThreadSyncState {
	return ThreadSyncState(g.threadSyncState.Load())
}

// SetThreadSyncState is called by the controller when position error
// reaches zero under ENABLED tracking.
func (g *GlobalState) SetThreadSyncState(s ThreadSyncState) {
	g.threadSyncState.Store(uint32(s))
}

// SetRatioPreset records a named ratio (e.g. "20TPI", "1.5mm") for the
// UI to offer as a quick-select. Presets are not consulted by the
// controller itself; they are a pass-through convenience for the CLI
// layer, guarded by a brief interrupt mask since the map write is wider
// than a single word (spec.md §5: "wider reads are guarded by briefly
// masking interrupts").
func (g *GlobalState) SetRatioPreset(name string, ratio float32) {
	state := DisableInterrupts()
	g.ratioPresets[name] = ratio
	RestoreInterrupts(state)
}

// RatioPreset looks up a named ratio preset. The second return reports
// whether the name was found.
func (g *GlobalState) RatioPreset(name string) (float32, bool) {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)
	r, ok := g.ratioPresets[name]
	return r, ok
}

// RatioPresetNames returns the configured preset names, for listing in a
// UI. Order is unspecified.
func (g *GlobalState) RatioPresetNames() []string {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)
	names := make([]string, 0, len(g.ratioPresets))
	for name := range g.ratioPresets {
		names = append(names, name)
	}
	return names
}
