package leadscrew

import (
	"math"

	"github.com/EmperorArthur/TeensyELS/core"
)

// stopPosition is a single soft-limit slot: either unset (travel in that
// direction is unbounded) or pinned to a position recorded by the UI/CLI.
type stopPosition struct {
	set      bool
	position int32
}

// get returns the stop's position, or the sentinel for "unset" on the given
// side: math.MinInt32 for the left stop, math.MaxInt32 for the right stop,
// so that a caller comparing positions against an unset stop never
// mistakenly treats it as reached.
func (sp stopPosition) get(side Side) int32 {
	if !sp.set {
		if side == SideLeft {
			return math.MinInt32
		}
		return math.MaxInt32
	}
	return sp.position
}

// SetStopPosition pins the given side's soft limit to pos.
func (c *Controller) SetStopPosition(side Side, pos int32) {
	state := core.DisableInterrupts()
	defer core.RestoreInterrupts(state)
	switch side {
	case SideLeft:
		c.leftStop = stopPosition{set: true, position: pos}
	case SideRight:
		c.rightStop = stopPosition{set: true, position: pos}
	}
}

// UnsetStopPosition releases the given side's soft limit.
func (c *Controller) UnsetStopPosition(side Side) {
	state := core.DisableInterrupts()
	defer core.RestoreInterrupts(state)
	switch side {
	case SideLeft:
		c.leftStop = stopPosition{}
	case SideRight:
		c.rightStop = stopPosition{}
	}
}

// GetStopPosition reports the given side's soft limit, or the side's
// sentinel (math.MinInt32 / math.MaxInt32) if it is not set.
func (c *Controller) GetStopPosition(side Side) int32 {
	state := core.DisableInterrupts()
	defer core.RestoreInterrupts(state)
	if side == SideLeft {
		return c.leftStop.get(SideLeft)
	}
	return c.rightStop.get(SideRight)
}

// distanceToStop returns the number of steps remaining before currentPosition
// reaches the stop guarding travel in dir, and whether that stop is set.
// Only consulted when Config.StopsGateDeceleration is true.
func (c *Controller) distanceToStop(dir Direction) (int32, bool) {
	switch dir {
	case DirRight:
		if !c.rightStop.set {
			return 0, false
		}
		return c.rightStop.position - c.currentPosition, true
	case DirLeft:
		if !c.leftStop.set {
			return 0, false
		}
		return c.currentPosition - c.leftStop.position, true
	default:
		return 0, false
	}
}
