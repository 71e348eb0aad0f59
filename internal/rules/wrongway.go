package rules

import (
	"github.com/trafficmind/violation-core/internal/roiconfig"
	"github.com/trafficmind/violation-core/internal/vehicle"
)

// expectedSign is the "correct" sign of motion along an axis for a given
// direction and lane kind-rotated table. +1 means
// the correct motion increases the coordinate, -1 means it decreases it.
func expectedSign(d roiconfig.Direction, kind roiconfig.LaneKind) int {
	correct := map[roiconfig.Direction]map[roiconfig.LaneKind]int{
		roiconfig.North: {roiconfig.LaneIn: 1, roiconfig.LaneOut: -1},
		roiconfig.South: {roiconfig.LaneIn: -1, roiconfig.LaneOut: 1},
		roiconfig.West:  {roiconfig.LaneIn: 1, roiconfig.LaneOut: -1},
		roiconfig.East:  {roiconfig.LaneIn: -1, roiconfig.LaneOut: 1},
	}
	return correct[d][kind]
}

// motionComponent returns the signed displacement along the axis that
// direction d's expected-motion table is defined over: vertical (dy) for
// NORTH/SOUTH, horizontal (dx) for EAST/WEST. DetectWrongWay passes dx and
// dy swapped for a rotated view, so there the axes trade places.
func motionComponent(d roiconfig.Direction, dx, dy int) int {
	switch d {
	case roiconfig.North, roiconfig.South:
		return dy
	default:
		return dx
	}
}

// DetectWrongWay implements . It requires no persistent state
// beyond the trajectory already kept by the vehicle store.
func DetectWrongWay(geo Geometry, st *vehicle.State, track vehicle.Track, th Thresholds) *Violation {
	dx, dy, sufficient := motionVector(st.Trajectory, th.MotionMinPx)
	if !sufficient {
		return nil
	}
	axis := classifyAxis(geo.RotatedView(), dx, dy)
	candidates := axisDirections(axis)
	if candidates == nil {
		return nil
	}

	mx, my := dx, dy
	if geo.RotatedView() {
		mx, my = dy, dx
	}

	point := track.BBox.BottomCenter()
	for _, d := range candidates {
		for _, kind := range []roiconfig.LaneKind{roiconfig.LaneIn, roiconfig.LaneOut} {
			if !roiconfig.PointInAny(geo.Lanes(d, kind), point) {
				continue
			}
			threshold := th.WrongWayInThresholdPx
			if kind == roiconfig.LaneOut {
				threshold = th.WrongWayOutThresholdPx
			}
			component := motionComponent(d, mx, my)
			expected := expectedSign(d, kind)

			wrongSign := (expected > 0 && component < 0) || (expected < 0 && component > 0)
			if wrongSign && abs(component) > threshold {
				return &Violation{
					Kind:        WrongWay,
					TrackID:     track.TrackID,
					Direction:   d,
					TurnType:    Straight,
					TimestampMs: st.LastSeenMs,
					BBox:        track.BBox,
					Location:    point,
					Class:       track.Class,
					Confidence:  track.Confidence,
					Extra:       string(kind),
				}
			}
			// Lane membership found for this direction; spec says to stop
			// checking further lanes for this vehicle once a match is
			// found, whether or not it turned out wrong-way.
			return nil
		}
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
