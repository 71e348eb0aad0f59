package rules

import (
	"github.com/trafficmind/violation-core/internal/roiconfig"
	"github.com/trafficmind/violation-core/internal/vehicle"
)

// motionAxis is which pair of opposing approaches a vehicle's observed
// motion could belong to.
type motionAxis int

const (
	axisNone motionAxis = iota
	axisNS
	axisEW
)

// motionVector returns the displacement between the first and last
// trajectory samples, plus whether at least 3 points exist and the
// displacement exceeds minPx ("motion-sufficient").
func motionVector(traj []vehicle.TrajectoryPoint, minPx int) (dx, dy int, sufficient bool) {
	if len(traj) < 3 {
		return 0, 0, false
	}
	first, last := traj[0], traj[len(traj)-1]
	dx = last.X - first.X
	dy = last.Y - first.Y
	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}
	sufficient = abs(dx)+abs(dy) > minPx
	return dx, dy, sufficient
}

// classifyAxis implements rotated-view-dependent axis table.
func classifyAxis(rotatedView bool, dx, dy int) motionAxis {
	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}
	adx, ady := abs(dx), abs(dy)
	if adx == ady {
		return axisNone
	}
	verticalDominant := ady > adx
	if !rotatedView {
		if verticalDominant {
			return axisNS
		}
		return axisEW
	}
	if verticalDominant {
		return axisEW
	}
	return axisNS
}

func axisDirections(axis motionAxis) []roiconfig.Direction {
	switch axis {
	case axisNS:
		return []roiconfig.Direction{roiconfig.North, roiconfig.South}
	case axisEW:
		return []roiconfig.Direction{roiconfig.East, roiconfig.West}
	default:
		return nil
	}
}
