// Package rules implements the four violation state machines of :
// red-light running, wrong-way driving, solid-line crossing, and left-turn
// waiting-area entry/exit, run in a fixed order against one track per frame.
package rules

import (
	"github.com/trafficmind/violation-core/internal/roiconfig"
	"github.com/trafficmind/violation-core/internal/signal"
	"github.com/trafficmind/violation-core/internal/vehicle"
)

// Kind identifies a violation type.
type Kind string

const (
	RedLight          Kind = "RED_LIGHT_RUNNING"
	WrongWay          Kind = "WRONG_WAY_DRIVING"
	SolidLineCrossing Kind = "SOLID_LINE_CROSSING"
	WaitingAreaEntry  Kind = "WAITING_AREA_RED_ENTRY"
	WaitingAreaExit   Kind = "WAITING_AREA_ILLEGAL_EXIT"
)

// TurnType is always STRAIGHT in this port; see 
type TurnType string

const Straight TurnType = "STRAIGHT"

// Violation is one candidate infraction surfaced by a rule module, before
// dedup/evidence/report processing.
type Violation struct {
	Kind        Kind
	TrackID     uint64
	Direction   roiconfig.Direction
	TurnType    TurnType
	TimestampMs int64
	BBox        vehicle.BBox
	Location    roiconfig.Point
	Class       vehicle.Class
	Confidence  float32
	Extra       string
}

// Thresholds bundles every tunable constant the rule modules read, sourced
// from config.Thresholds.
type Thresholds struct {
	MotionMinPx           int
	EnteringLookbackMs    int64
	WrongWayInThresholdPx int
	WrongWayOutThresholdPx int
	SolidLineProximityPx  int
}

// Geometry is the read-only surface the rule modules query; satisfied by
// *roiconfig.Model.
type Geometry interface {
	RotatedView() bool
	IntersectionCenter() roiconfig.Point
	StopLines(d roiconfig.Direction) []roiconfig.Polygon
	Lanes(d roiconfig.Direction, kind roiconfig.LaneKind) []roiconfig.Polygon
	WaitingArea(d roiconfig.Direction) []roiconfig.Polygon
	SolidLines(d roiconfig.Direction) []roiconfig.SolidLine
}

// Signals is the read-only surface the rule modules query for phase state;
// satisfied by signal.Table.
type Signals interface {
	Get(d roiconfig.Direction) signal.DirectionPhase
}
