package stream

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trafficmind/violation-core/internal/config"
	"github.com/trafficmind/violation-core/internal/report"
	"github.com/trafficmind/violation-core/internal/roiconfig"
	"github.com/trafficmind/violation-core/internal/signal"
	"github.com/trafficmind/violation-core/internal/vehicle"
)

const testROI = `{
  "rotated_view": false,
  "NORTH": {
    "stop_line": [[[100,180],[300,180],[300,220],[100,220]]],
    "lanes": {"in": [[[100,220],[300,220],[300,500],[100,500]]], "out": []},
    "left_turn_waiting_area": [[[150,150],[250,150],[250,250],[150,250]]]
  },
  "SOUTH": {
    "stop_line": [[[100,580],[300,580],[300,620],[100,620]]],
    "lanes": {"in": [], "out": []},
    "left_turn_waiting_area": []
  },
  "EAST": {
    "stop_line": [[[580,280],[620,280],[620,420],[580,420]]],
    "lanes": {"in": [], "out": []},
    "left_turn_waiting_area": []
  },
  "WEST": {
    "stop_line": [[[0,280],[40,280],[40,420],[0,420]]],
    "lanes": {"in": [], "out": []},
    "left_turn_waiting_area": []
  },
  "solid_lines": []
}`

func loadTestModel(t *testing.T) *roiconfig.Model {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "roi.json")
	require.NoError(t, os.WriteFile(path, []byte(testROI), 0o644))
	model, err := roiconfig.Load(path)
	require.NoError(t, err)
	return model
}

type fakeReporter struct {
	mu      sync.Mutex
	records []report.Record
}

func (f *fakeReporter) Enqueue(rec report.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeReporter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func newTestStream(t *testing.T) (*Stream, *fakeReporter) {
	t.Helper()
	model := loadTestModel(t)
	sup := signal.NewSupervisor(signal.Manual, "", time.Second)

	cfg := config.Config{
		IntersectionID: 1,
		Thresholds:     config.DefaultThresholds(),
		Evidence: config.Evidence{
			ScreenshotDir: t.TempDir(),
			ExpandRatio:   0.2,
			MinCanvasSide: 64,
		},
	}
	rep := &fakeReporter{}
	return New(cfg, model, sup, rep), rep
}

func TestProcessFrameDetectsRedLightRunning(t *testing.T) {
	s, rep := newTestStream(t)

	track := vehicle.Track{TrackID: 1, Class: vehicle.Car, BBox: vehicle.BBox{X1: 180, Y1: 100, X2: 220, Y2: 160}}
	s.ProcessFrame([]vehicle.Track{track}, nil, 0)

	track.BBox = vehicle.BBox{X1: 180, Y1: 160, X2: 220, Y2: 220}
	s.ProcessFrame([]vehicle.Track{track}, nil, 200)

	track.BBox = vehicle.BBox{X1: 180, Y1: 200, X2: 220, Y2: 260}
	out := s.ProcessFrame([]vehicle.Track{track}, nil, 400)

	// The track starts inside the NORTH waiting area and leaves it on this
	// frame under a RED left-turn phase, so an illegal exit follows the
	// red-light violation in rule order.
	require.Len(t, out, 2)
	require.Equal(t, "RED_LIGHT_RUNNING", string(out[0].Kind))
	require.Equal(t, "WAITING_AREA_ILLEGAL_EXIT", string(out[1].Kind))
	require.Equal(t, 2, rep.count())
}

func TestProcessFrameRespectsCooldown(t *testing.T) {
	s, rep := newTestStream(t)

	track := vehicle.Track{TrackID: 1, BBox: vehicle.BBox{X1: 0, Y1: 0, X2: 20, Y2: 20}}
	s.ProcessFrame([]vehicle.Track{track}, nil, 0) // outside, sets was_outside

	track.BBox = vehicle.BBox{X1: 170, Y1: 170, X2: 230, Y2: 230}
	first := s.ProcessFrame([]vehicle.Track{track}, nil, 100)
	require.NotEmpty(t, first, "entry during red must be reported")

	s.signals.SetLeftTurn(roiconfig.North, signal.Green) // legal exit, must not add a record
	track.BBox = vehicle.BBox{X1: 0, Y1: 0, X2: 20, Y2: 20}
	s.ProcessFrame([]vehicle.Track{track}, nil, 200)

	track.BBox = vehicle.BBox{X1: 170, Y1: 170, X2: 230, Y2: 230}
	second := s.ProcessFrame([]vehicle.Track{track}, nil, 300)

	require.Empty(t, second, "re-entry within the cooldown window must be suppressed")
	// Only the first entry's records: the nose also crossed the NORTH stop
	// line during RED on that frame, so red-light plus waiting-area entry.
	require.Equal(t, 2, rep.count())
}

func TestProcessFrameWithNoTracksReportsNothing(t *testing.T) {
	s, rep := newTestStream(t)
	out := s.ProcessFrame(nil, nil, 0)
	require.Empty(t, out)
	require.Equal(t, 0, rep.count())
}
