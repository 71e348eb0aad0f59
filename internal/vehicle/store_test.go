package vehicle

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIngestAppendsAndTrimsTrajectory(t *testing.T) {
	s := NewStore()
	track := Track{TrackID: 1, BBox: BBox{X1: 100, Y1: 100, X2: 120, Y2: 140}, Class: Car, Confidence: 0.9}

	s.Ingest([]Track{track}, 1000, 2000)
	s.Ingest([]Track{track}, 2500, 2000)
	s.Ingest([]Track{track}, 3200, 2000)

	st, ok := s.Get(1)
	require.True(t, ok)
	// cutoff at ts=3200 is 1200, so the t=1000 sample must have been trimmed.
	require.Len(t, st.Trajectory, 2)
	require.Equal(t, int64(2500), st.Trajectory[0].TimestampMs)
	require.Equal(t, int64(3200), st.Trajectory[1].TimestampMs)
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	s := NewStore()
	a := s.GetOrCreate(7)
	b := s.GetOrCreate(7)
	require.Same(t, a, b)
	require.Equal(t, 1, s.Len())
}

func TestSweepIdleEvictsStaleVehicles(t *testing.T) {
	s := NewStore()
	s.Ingest([]Track{{TrackID: 1, BBox: BBox{X2: 10, Y2: 10}}}, 0, 2000)
	s.Ingest([]Track{{TrackID: 2, BBox: BBox{X2: 10, Y2: 10}}}, 9000, 2000)

	s.SweepIdle(10000, 5000)

	_, ok1 := s.Get(1)
	require.False(t, ok1, "vehicle idle for 10s with a 5s timeout must be evicted")
	_, ok2 := s.Get(2)
	require.True(t, ok2, "vehicle seen 1s ago must survive")
}

func TestRunIdleSweepStopsOnContextCancel(t *testing.T) {
	s := NewStore()
	s.Ingest([]Track{{TrackID: 1, BBox: BBox{X2: 10, Y2: 10}}}, 0, 2000)

	var now atomic.Int64
	now.Store(100000)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunIdleSweep(ctx, func() int64 { return now.Load() }, 5000, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunIdleSweep did not stop after context cancellation")
	}

	_, ok := s.Get(1)
	require.False(t, ok, "vehicle idle beyond timeout should have been swept before shutdown")
}
