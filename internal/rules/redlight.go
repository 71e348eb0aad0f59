package rules

import (
	"math"

	"github.com/trafficmind/violation-core/internal/roiconfig"
	"github.com/trafficmind/violation-core/internal/signal"
	"github.com/trafficmind/violation-core/internal/vehicle"
)

// noseInsetRatio is how far the "nose" point sits inside the bbox from its
// leading edge
const noseInsetRatio = 0.2

// nosePoint computes the vehicle's leading point for direction d's stop-line
// test: the leading edge for NORTH-approach traffic is the top of the bbox,
// and by the same convention SOUTH/EAST/WEST use bottom/right/left.
func nosePoint(d roiconfig.Direction, b vehicle.BBox) roiconfig.Point {
	cx := (b.X1 + b.X2) / 2
	cy := (b.Y1 + b.Y2) / 2
	h := b.Y2 - b.Y1
	w := b.X2 - b.X1
	switch d {
	case roiconfig.North:
		return roiconfig.Point{X: cx, Y: b.Y1 + int(float64(h)*noseInsetRatio)}
	case roiconfig.South:
		return roiconfig.Point{X: cx, Y: b.Y2 - int(float64(h)*noseInsetRatio)}
	case roiconfig.West:
		return roiconfig.Point{X: b.X1 + int(float64(w)*noseInsetRatio), Y: cy}
	case roiconfig.East:
		return roiconfig.Point{X: b.X2 - int(float64(w)*noseInsetRatio), Y: cy}
	default:
		return roiconfig.Point{X: cx, Y: cy}
	}
}

func euclidean(a, b roiconfig.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// positionAtLookback returns the trajectory position at least lookbackMs old
// relative to nowMs, scanning from the newest sample backward so the result
// is the closest approximation to "exactly lookbackMs ago". Falls back to
// the oldest retained point if none is old enough.
func positionAtLookback(traj []vehicle.TrajectoryPoint, nowMs, lookbackMs int64) roiconfig.Point {
	if len(traj) == 0 {
		return roiconfig.Point{}
	}
	for i := len(traj) - 1; i >= 0; i-- {
		if nowMs-traj[i].TimestampMs >= lookbackMs {
			return roiconfig.Point{X: traj[i].X, Y: traj[i].Y}
		}
	}
	return roiconfig.Point{X: traj[0].X, Y: traj[0].Y}
}

// DetectRedLight detects a stop-line entry during RED. It mutates st's
// per-direction StopLineState and returns a violation if the vehicle
// entered its stop line while that direction's through phase was RED.
func DetectRedLight(geo Geometry, sig Signals, st *vehicle.State, track vehicle.Track, nowMs int64, lookbackMs int64) *Violation {
	var out *Violation
	for _, d := range roiconfig.Directions {
		head := nosePoint(d, track.BBox)
		inside := roiconfig.PointInAny(geo.StopLines(d), head)
		slState := st.StopLineFor(d)

		if !inside {
			slState.Crossed = false
			continue
		}
		if slState.Crossed {
			continue
		}

		var entering bool
		if len(st.Trajectory) < 2 {
			// Too little history to tell approach from departure; assume the
			// vehicle is entering rather than silently drop a violation for a
			// track first observed already on the stop line.
			entering = true
		} else {
			center := geo.IntersectionCenter()
			currDist := euclidean(head, center)
			priorPos := positionAtLookback(st.Trajectory, nowMs, lookbackMs)
			priorDist := euclidean(priorPos, center)
			entering = currDist < priorDist
		}

		if entering && sig.Get(d).Through == signal.Red {
			if out == nil {
				out = &Violation{
					Kind:        RedLight,
					TrackID:     track.TrackID,
					Direction:   d,
					TurnType:    Straight,
					TimestampMs: nowMs,
					BBox:        track.BBox,
					Location:    head,
					Class:       track.Class,
					Confidence:  track.Confidence,
				}
			}
		}
		slState.Crossed = true
	}
	return out
}
