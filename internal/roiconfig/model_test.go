package roiconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeROIFile(t *testing.T, name string, content map[string]interface{}) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	data, err := json.Marshal(content)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func sampleROI() map[string]interface{} {
	empty := map[string]interface{}{
		"stop_line": [][][]int{},
		"lanes":     map[string]interface{}{"in": [][][]int{}, "out": [][][]int{}},
	}
	north := map[string]interface{}{
		"stop_line": [][][]int{{{100, 180}, {300, 180}, {300, 220}, {100, 220}}},
		"lanes": map[string]interface{}{
			"in":  [][][]int{{{100, 220}, {300, 220}, {300, 500}, {100, 500}}},
			"out": [][][]int{{{310, 180}, {360, 180}, {360, 500}, {310, 500}}},
		},
	}
	return map[string]interface{}{
		"solid_lines": []interface{}{
			map[string]interface{}{"name": "ns_div", "direction": "NORTH", "coordinates": [][]int{{200, 300}, {200, 500}}},
		},
		"NORTH": north,
		"SOUTH": empty,
		"EAST":  empty,
		"WEST":  empty,
	}
}

func TestLoadAndQuery(t *testing.T) {
	path := writeROIFile(t, "rois.json", sampleROI())
	m, err := Load(path)
	require.NoError(t, err)
	require.False(t, m.RotatedView())

	require.True(t, PointInPolygon(Point{X: 150, Y: 200}, m.StopLines(North)[0]))
	require.True(t, PointInPolygon(Point{X: 100, Y: 180}, m.StopLines(North)[0]), "boundary point counts as inside")
	require.False(t, PointInPolygon(Point{X: 50, Y: 50}, m.StopLines(North)[0]))

	loc, ok := m.LocateLane(Point{X: 150, Y: 300})
	require.True(t, ok)
	require.Equal(t, North, loc.Direction)
	require.Equal(t, LaneIn, loc.Kind)
}

func TestRotatedViewFromFilename(t *testing.T) {
	path := writeROIFile(t, "rois2.json", sampleROI())
	m, err := Load(path)
	require.NoError(t, err)
	require.True(t, m.RotatedView())
}

func TestBadGeometryTooFewPoints(t *testing.T) {
	bad := sampleROI()
	bad["NORTH"].(map[string]interface{})["stop_line"] = [][][]int{{{1, 1}, {2, 2}}}
	path := writeROIFile(t, "rois.json", bad)
	_, err := Load(path)
	require.Error(t, err)
	var bge *BadGeometryError
	require.ErrorAs(t, err, &bge)
}

func TestBadGeometrySolidLineEndpoints(t *testing.T) {
	bad := sampleROI()
	bad["solid_lines"] = []interface{}{
		map[string]interface{}{"name": "x", "direction": "NORTH", "coordinates": [][]int{{1, 1}}},
	}
	path := writeROIFile(t, "rois.json", bad)
	_, err := Load(path)
	require.Error(t, err)
}

func TestSignedDistanceToSegment(t *testing.T) {
	dist, side := SignedDistanceToSegment(Point{X: 200, Y: 400}, Point{X: 200, Y: 300}, Point{X: 200, Y: 500})
	require.Equal(t, 0.0, dist)
	require.Equal(t, SideOn, side)

	dist, side = SignedDistanceToSegment(Point{X: 210, Y: 400}, Point{X: 200, Y: 300}, Point{X: 200, Y: 500})
	require.Equal(t, 10.0, dist)
	require.NotEqual(t, SideOn, side)
}
