package rules

import (
	"github.com/trafficmind/violation-core/internal/roiconfig"
	"github.com/trafficmind/violation-core/internal/vehicle"
)

// DetectSolidLineCrossing implements . The vehicle must first be
// located inside a lane on its motion axis; inside the junction box (no
// lane match) the rule does not fire. Unlike wrong-way, two trajectory
// points are enough to classify the motion axis here.
func DetectSolidLineCrossing(geo Geometry, st *vehicle.State, track vehicle.Track, th Thresholds) *Violation {
	traj := st.Trajectory
	if len(traj) < 2 {
		return nil
	}
	dx := traj[len(traj)-1].X - traj[0].X
	dy := traj[len(traj)-1].Y - traj[0].Y
	if abs(dx)+abs(dy) <= th.MotionMinPx {
		return nil
	}
	axis := classifyAxis(geo.RotatedView(), dx, dy)
	candidates := axisDirections(axis)
	if candidates == nil {
		return nil
	}

	point := track.BBox.BottomCenter()
	loc, ok := locateInDirections(geo, point, candidates)
	if !ok {
		return nil
	}

	for _, line := range geo.SolidLines(loc.Direction) {
		distance, side := roiconfig.SignedDistanceToSegment(point, line.P1, line.P2)
		if distance >= float64(th.SolidLineProximityPx) {
			continue
		}

		lineState := st.SolidLineFor(line.Name)
		prevSide, seen := lineState.Side, lineState.Seen

		var violation *Violation
		if seen && prevSide != roiconfig.SideOn && side != roiconfig.SideOn && prevSide != side {
			violation = &Violation{
				Kind:        SolidLineCrossing,
				TrackID:     track.TrackID,
				Direction:   loc.Direction,
				TurnType:    Straight,
				TimestampMs: st.LastSeenMs,
				BBox:        track.BBox,
				Location:    point,
				Class:       track.Class,
				Confidence:  track.Confidence,
				Extra:       line.Name,
			}
		}
		lineState.Side = side
		lineState.LastPos = point
		lineState.Seen = true
		if violation != nil {
			return violation
		}
	}
	return nil
}

// locateInDirections mirrors roiconfig.Model.LocateLaneIn but is expressed
// against the Geometry interface so the rule package doesn't depend on the
// concrete *roiconfig.Model type.
func locateInDirections(geo Geometry, p roiconfig.Point, candidates []roiconfig.Direction) (roiconfig.LaneLocation, bool) {
	for _, d := range candidates {
		for idx, poly := range geo.Lanes(d, roiconfig.LaneIn) {
			if roiconfig.PointInPolygon(p, poly) {
				return roiconfig.LaneLocation{Direction: d, Kind: roiconfig.LaneIn, Index: idx}, true
			}
		}
	}
	for _, d := range candidates {
		for idx, poly := range geo.Lanes(d, roiconfig.LaneOut) {
			if roiconfig.PointInPolygon(p, poly) {
				return roiconfig.LaneLocation{Direction: d, Kind: roiconfig.LaneOut, Index: idx}, true
			}
		}
	}
	return roiconfig.LaneLocation{}, false
}
