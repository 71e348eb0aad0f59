package rules

import "github.com/trafficmind/violation-core/internal/vehicle"

// Engine runs the four rule modules, in the fixed order requires,
// against one track per frame.
type Engine struct {
	Geometry   Geometry
	Thresholds Thresholds
}

// NewEngine builds an Engine bound to one stream's geometry and thresholds.
func NewEngine(geo Geometry, th Thresholds) *Engine {
	return &Engine{Geometry: geo, Thresholds: th}
}

// Evaluate runs red-light, wrong-way, solid-line, and waiting-area checks
// against track in order, returning every candidate violation surfaced this
// frame. Each module mutates st regardless of whether it emits.
func (e *Engine) Evaluate(sig Signals, st *vehicle.State, track vehicle.Track, nowMs int64) []*Violation {
	var out []*Violation

	if v := DetectRedLight(e.Geometry, sig, st, track, nowMs, e.Thresholds.EnteringLookbackMs); v != nil {
		out = append(out, v)
	}
	if v := DetectWrongWay(e.Geometry, st, track, e.Thresholds); v != nil {
		out = append(out, v)
	}
	if v := DetectSolidLineCrossing(e.Geometry, st, track, e.Thresholds); v != nil {
		out = append(out, v)
	}
	if v := DetectWaitingArea(e.Geometry, sig, st, track, nowMs); v != nil {
		out = append(out, v)
	}

	return out
}
