// Package vehicle implements the per-vehicle positional history and
// per-rule state store of , keyed by track_id and garbage
// collected by a periodic idle sweep.
package vehicle

import (
	"sync"

	"github.com/trafficmind/violation-core/internal/roiconfig"
)

// Class is the detector's coarse vehicle classification.
type Class string

const (
	Car        Class = "car"
	Motorcycle Class = "motorcycle"
	Bus        Class = "bus"
	Truck      Class = "truck"
)

// BBox is an axis-aligned bounding box in frame pixel coordinates.
type BBox struct {
	X1, Y1, X2, Y2 int
}

// BottomCenter approximates the vehicle's ground-contact point.
func (b BBox) BottomCenter() roiconfig.Point {
	return roiconfig.Point{X: (b.X1 + b.X2) / 2, Y: b.Y2}
}

// Track is one per-frame tracker output for a single vehicle.
type Track struct {
	TrackID    uint64
	BBox       BBox
	Confidence float32
	Class      Class
}

// TrajectoryPoint is one sample of a vehicle's bottom-center ground position.
type TrajectoryPoint struct {
	X, Y      int
	TimestampMs int64
}

// StopLineState is "has this vehicle already been judged for this
// approach's stop line during its current entry?"
type StopLineState struct {
	Crossed bool
}

// SolidLineState is the signed side of a directed line segment the vehicle
// was last observed on.
type SolidLineState struct {
	Side    roiconfig.Side
	LastPos roiconfig.Point
	Seen    bool
}

// WaitingAreaState tracks a vehicle's occupancy of a left-turn waiting
// pocket for one approach direction.
type WaitingAreaState struct {
	WasOutside     bool
	IsInside       bool
	EnterTimestamp *int64
}

// State is the full per-vehicle record owned by the Store, keyed by TrackID.
// mu guards LastSeenMs against the concurrent idle-sweep goroutine; the
// rule engine itself only ever touches a State from the single-threaded
// frame path, but the sweep reads LastSeenMs from a different goroutine.
type State struct {
	mu              sync.Mutex
	TrackID         uint64
	LastSeenMs      int64
	LastClass       Class
	LastConfidence  float32
	LastBBox        BBox
	Trajectory      []TrajectoryPoint
	StopLine        map[roiconfig.Direction]*StopLineState
	SolidLine       map[string]*SolidLineState
	WaitingArea     map[roiconfig.Direction]*WaitingAreaState
}

// touchSeen records the timestamp of the most recent sighting.
func (s *State) touchSeen(ts int64) {
	s.mu.Lock()
	s.LastSeenMs = ts
	s.mu.Unlock()
}

// idleSince reports whether the vehicle has not been seen since before cutoff.
func (s *State) idleSince(cutoff int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastSeenMs < cutoff
}

// NewState constructs an empty per-vehicle record. Exposed primarily for
// tests in other packages that need a *State without going through a Store.
func NewState(trackID uint64) *State {
	return &State{
		TrackID:     trackID,
		StopLine:    make(map[roiconfig.Direction]*StopLineState),
		SolidLine:   make(map[string]*SolidLineState),
		WaitingArea: make(map[roiconfig.Direction]*WaitingAreaState),
	}
}

// StopLineFor returns (creating if absent) the per-direction stop-line state.
func (s *State) StopLineFor(d roiconfig.Direction) *StopLineState {
	st, ok := s.StopLine[d]
	if !ok {
		st = &StopLineState{}
		s.StopLine[d] = st
	}
	return st
}

// SolidLineFor returns (creating if absent) the per-line crossing state.
func (s *State) SolidLineFor(name string) *SolidLineState {
	st, ok := s.SolidLine[name]
	if !ok {
		st = &SolidLineState{}
		s.SolidLine[name] = st
	}
	return st
}

// WaitingAreaFor returns (creating if absent) the per-direction waiting-area state.
func (s *State) WaitingAreaFor(d roiconfig.Direction) *WaitingAreaState {
	st, ok := s.WaitingArea[d]
	if !ok {
		st = &WaitingAreaState{}
		s.WaitingArea[d] = st
	}
	return st
}
