package vehicle

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/trafficmind/violation-core/internal/logging"
)

// Store owns one intersection stream's per-vehicle state, keyed by
// track_id. Reads and writes from the frame path are unsynchronized (the
// frame path is single-threaded); the concurrent map exists so
// the background idle sweep can run without taking a
// lock over the whole store.
type Store struct {
	states *xsync.MapOf[uint64, *State]
}

// NewStore creates an empty vehicle state store for one stream.
func NewStore() *Store {
	return &Store{states: xsync.NewMapOf[uint64, *State]()}
}

// GetOrCreate returns the existing state for trackID, creating one lazily
// on first appearance.
func (s *Store) GetOrCreate(trackID uint64) *State {
	st, _ := s.states.LoadOrCompute(trackID, func() *State { return NewState(trackID) })
	return st
}

// Get returns the state for trackID if present.
func (s *Store) Get(trackID uint64) (*State, bool) {
	return s.states.Load(trackID)
}

// Len reports the number of tracked vehicles.
func (s *Store) Len() int {
	return s.states.Size()
}

// Ingest appends this frame's tracks into their trajectories and trims
// entries older than the trajectory window.
func (s *Store) Ingest(tracks []Track, timestampMs int64, windowMs int64) {
	for _, t := range tracks {
		st := s.GetOrCreate(t.TrackID)
		st.touchSeen(timestampMs)
		st.LastBBox = t.BBox
		st.LastClass = t.Class
		st.LastConfidence = t.Confidence

		bc := t.BBox.BottomCenter()
		st.Trajectory = append(st.Trajectory, TrajectoryPoint{X: bc.X, Y: bc.Y, TimestampMs: timestampMs})

		cutoff := timestampMs - windowMs
		kept := st.Trajectory[:0]
		for _, p := range st.Trajectory {
			if p.TimestampMs >= cutoff {
				kept = append(kept, p)
			}
		}
		st.Trajectory = kept
	}
}

// SweepIdle runs in the background (see stream.Stream) and evicts any
// vehicle not seen for longer than idleTimeout, relative to nowMs.
func (s *Store) SweepIdle(nowMs int64, idleTimeoutMs int64) {
	cutoff := nowMs - idleTimeoutMs
	var toDelete []uint64
	s.states.Range(func(trackID uint64, st *State) bool {
		if st.idleSince(cutoff) {
			toDelete = append(toDelete, trackID)
		}
		return true
	})
	for _, id := range toDelete {
		s.states.Delete(id)
	}
}

// RunIdleSweep starts a ticker-driven background goroutine that periodically
// calls SweepIdle, using a caller-provided clock so tests don't depend on
// wall-clock time. It returns once ctx is cancelled.
func (s *Store) RunIdleSweep(ctx context.Context, nowMsFn func() int64, idleTimeoutMs int64, interval time.Duration) {
	log := logging.For("vehicle-store")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug("idle sweep stopping")
			return
		case <-ticker.C:
			before := s.Len()
			s.SweepIdle(nowMsFn(), idleTimeoutMs)
			if after := s.Len(); after != before {
				log.WithField("evicted", before-after).Debug("swept idle vehicles")
			}
		}
	}
}
