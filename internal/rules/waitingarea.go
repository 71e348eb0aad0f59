package rules

import (
	"github.com/trafficmind/violation-core/internal/roiconfig"
	"github.com/trafficmind/violation-core/internal/signal"
	"github.com/trafficmind/violation-core/internal/vehicle"
)

// waitingAreaSamplePoints returns the 5 bottom-edge sample points used to
// test left-turn waiting-area occupancy: the two bottom corners, the
// bottom-center, and the two bottom quarter points.
func waitingAreaSamplePoints(b vehicle.BBox) [5]roiconfig.Point {
	w := b.X2 - b.X1
	return [5]roiconfig.Point{
		{X: b.X1, Y: b.Y2},
		{X: b.X1 + w/4, Y: b.Y2},
		{X: (b.X1 + b.X2) / 2, Y: b.Y2},
		{X: b.X1 + 3*w/4, Y: b.Y2},
		{X: b.X2, Y: b.Y2},
	}
}

// inWaitingArea reports membership≥4 of 5" rule.
func inWaitingArea(polys []roiconfig.Polygon, b vehicle.BBox) bool {
	if len(polys) == 0 {
		return false
	}
	count := 0
	for _, p := range waitingAreaSamplePoints(b) {
		if roiconfig.PointInAny(polys, p) {
			count++
		}
	}
	return count >= 4
}

// DetectWaitingArea implements two violation kinds. Only one
// violation (the first found, scanning directions in fixed order) is
// returned per frame per track, matching the other three rule modules'
// single-candidate-per-frame behavior.
func DetectWaitingArea(geo Geometry, sig Signals, st *vehicle.State, track vehicle.Track, nowMs int64) *Violation {
	var out *Violation
	point := track.BBox.BottomCenter()

	for _, d := range roiconfig.Directions {
		isInside := inWaitingArea(geo.WaitingArea(d), track.BBox)
		wa := st.WaitingAreaFor(d)

		switch {
		case !wa.IsInside && isInside:
			if wa.WasOutside && sig.Get(d).Through == signal.Red {
				if out == nil {
					out = &Violation{
						Kind:        WaitingAreaEntry,
						TrackID:     track.TrackID,
						Direction:   d,
						TurnType:    Straight,
						TimestampMs: nowMs,
						BBox:        track.BBox,
						Location:    point,
						Class:       track.Class,
						Confidence:  track.Confidence,
					}
				}
			}
			wa.IsInside = true
			ts := nowMs
			wa.EnterTimestamp = &ts

		case wa.IsInside && !isInside:
			if sig.Get(d).LeftTurn != signal.Green {
				if out == nil {
					out = &Violation{
						Kind:        WaitingAreaExit,
						TrackID:     track.TrackID,
						Direction:   d,
						TurnType:    Straight,
						TimestampMs: nowMs,
						BBox:        track.BBox,
						Location:    point,
						Class:       track.Class,
						Confidence:  track.Confidence,
					}
				}
			}
			wa.IsInside = false
			wa.EnterTimestamp = nil

		case !wa.IsInside && !isInside:
			wa.WasOutside = true

		default: // both inside: no change
		}
	}
	return out
}
