package roiconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// wireSolidLine / wireDirection / wireFile mirror the on-disk ROI JSON shape
// exactly, then are converted into the immutable Model.
type wireSolidLine struct {
	Name        string      `json:"name"`
	Direction   string      `json:"direction"`
	Coordinates [][2]int    `json:"coordinates"`
}

type wireLanes struct {
	In  [][][2]int `json:"in"`
	Out [][][2]int `json:"out"`
}

type wireDirection struct {
	StopLine            [][][2]int `json:"stop_line"`
	Lanes               wireLanes  `json:"lanes"`
	LeftTurnWaitingArea [][][2]int `json:"left_turn_waiting_area"`
}

type wireFile struct {
	SolidLines  []wireSolidLine          `json:"solid_lines"`
	RotatedView *bool                    `json:"rotated_view"`
	North       *wireDirection           `json:"NORTH"`
	South       *wireDirection           `json:"SOUTH"`
	East        *wireDirection           `json:"EAST"`
	West        *wireDirection           `json:"WEST"`
}

// Model is the immutable, loaded ROI spatial model of one intersection.
type Model struct {
	directions          map[Direction]directionROI
	solidLines          []SolidLine
	rotatedView         bool
	intersectionCenter  Point
}

// Load deserializes an ROI JSON file and validates its geometry, failing
// with a *BadGeometryError on any violation. path's basename is consulted
// for the "rois2"-style rotated-view heuristic only when the file itself
// carries no explicit rotated_view flag.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wf wireFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, badGeometry("invalid JSON: %v", err)
	}

	m := &Model{directions: make(map[Direction]directionROI)}

	byName := map[Direction]*wireDirection{North: wf.North, South: wf.South, East: wf.East, West: wf.West}
	for _, d := range Directions {
		wd := byName[d]
		if wd == nil {
			return nil, badGeometry("missing direction block %q", d)
		}
		dr, err := convertDirection(*wd)
		if err != nil {
			return nil, err
		}
		m.directions[d] = dr
	}

	for _, wsl := range wf.SolidLines {
		if len(wsl.Coordinates) != 2 {
			return nil, badGeometry("solid line %q must have exactly 2 endpoints, got %d", wsl.Name, len(wsl.Coordinates))
		}
		dir := Direction(strings.ToUpper(wsl.Direction))
		m.solidLines = append(m.solidLines, SolidLine{
			Name:      wsl.Name,
			Direction: dir,
			P1:        Point{X: wsl.Coordinates[0][0], Y: wsl.Coordinates[0][1]},
			P2:        Point{X: wsl.Coordinates[1][0], Y: wsl.Coordinates[1][1]},
		})
	}

	if err := m.checkNonOverlapInvariant(); err != nil {
		return nil, err
	}

	if wf.RotatedView != nil {
		m.rotatedView = *wf.RotatedView
	} else {
		m.rotatedView = strings.Contains(strings.ToLower(filepath.Base(path)), "rois2")
	}

	m.intersectionCenter = m.computeIntersectionCenter()
	return m, nil
}

func convertDirection(wd wireDirection) (directionROI, error) {
	var dr directionROI
	var err error
	if dr.StopLine, err = convertPolygons(wd.StopLine); err != nil {
		return dr, err
	}
	if dr.LanesIn, err = convertPolygons(wd.Lanes.In); err != nil {
		return dr, err
	}
	if dr.LanesOut, err = convertPolygons(wd.Lanes.Out); err != nil {
		return dr, err
	}
	if dr.LeftTurnWaitingArea, err = convertPolygons(wd.LeftTurnWaitingArea); err != nil {
		return dr, err
	}
	return dr, nil
}

func convertPolygons(raw [][][2]int) ([]Polygon, error) {
	polys := make([]Polygon, 0, len(raw))
	for _, p := range raw {
		if len(p) < 3 {
			return nil, badGeometry("polygon has fewer than 3 points: %v", p)
		}
		poly := make(Polygon, 0, len(p))
		for _, xy := range p {
			poly = append(poly, Point{X: xy[0], Y: xy[1]})
		}
		polys = append(polys, poly)
	}
	return polys, nil
}

// checkNonOverlapInvariant enforces : stop-line polygons of opposite
// directions must not overlap, and a direction's lanes.in/lanes.out must
// not overlap each other. Overlap is approximated by centroid containment,
// which is sufficient for the convex, well-separated polygons the ROI file
// is expected to describe.
func (m *Model) checkNonOverlapInvariant() error {
	opposite := map[Direction]Direction{North: South, South: North, East: West, West: East}
	for d, dr := range m.directions {
		od := opposite[d]
		odr, ok := m.directions[od]
		if !ok {
			continue
		}
		for _, poly := range dr.StopLine {
			cx, cy := polygonCentroid(poly)
			c := Point{X: int(cx), Y: int(cy)}
			if PointInAny(odr.StopLine, c) {
				return badGeometry("stop_line for %s overlaps stop_line for %s", d, od)
			}
		}
		for _, poly := range dr.LanesIn {
			cx, cy := polygonCentroid(poly)
			c := Point{X: int(cx), Y: int(cy)}
			if PointInAny(dr.LanesOut, c) {
				return badGeometry("lanes.in overlaps lanes.out for direction %s", d)
			}
		}
	}
	return nil
}

func (m *Model) computeIntersectionCenter() Point {
	var xs, ys []float64
	for _, dr := range m.directions {
		for _, poly := range dr.StopLine {
			cx, cy := polygonCentroid(poly)
			xs = append(xs, cx)
			ys = append(ys, cy)
		}
	}
	if len(xs) == 0 {
		return Point{X: 640, Y: 360}
	}
	sumX := lo.Sum(xs)
	sumY := lo.Sum(ys)
	return Point{X: int(sumX / float64(len(xs))), Y: int(sumY / float64(len(ys)))}
}

// RotatedView reports whether the camera is mounted 90 degrees relative to
// the canonical orientation, swapping the NS/EW axis used by motion
// heuristics.
func (m *Model) RotatedView() bool { return m.rotatedView }

// IntersectionCenter returns the derived centroid-of-centroids constant
// used by the red-light rule's entering/leaving test.
func (m *Model) IntersectionCenter() Point { return m.intersectionCenter }

// StopLines returns the stop-line polygons for a direction.
func (m *Model) StopLines(d Direction) []Polygon { return m.directions[d].StopLine }

// Lanes returns the in/out lane polygons for a direction.
func (m *Model) Lanes(d Direction, kind LaneKind) []Polygon {
	if kind == LaneIn {
		return m.directions[d].LanesIn
	}
	return m.directions[d].LanesOut
}

// WaitingArea returns the left-turn waiting-area polygons for a direction,
// which may be empty if the direction has none configured.
func (m *Model) WaitingArea(d Direction) []Polygon {
	return m.directions[d].LeftTurnWaitingArea
}

// SolidLines returns every solid lane-divider declared for a direction.
func (m *Model) SolidLines(d Direction) []SolidLine {
	var out []SolidLine
	for _, sl := range m.solidLines {
		if sl.Direction == d {
			out = append(out, sl)
		}
	}
	return out
}

// LocateLane tests lanes.in then lanes.out for each direction and returns
// the first match; undefined if polygons overlap.
func (m *Model) LocateLane(p Point) (LaneLocation, bool) {
	for _, d := range Directions {
		dr := m.directions[d]
		for idx, poly := range dr.LanesIn {
			if PointInPolygon(p, poly) {
				return LaneLocation{Direction: d, Kind: LaneIn, Index: idx}, true
			}
		}
	}
	for _, d := range Directions {
		dr := m.directions[d]
		for idx, poly := range dr.LanesOut {
			if PointInPolygon(p, poly) {
				return LaneLocation{Direction: d, Kind: LaneOut, Index: idx}, true
			}
		}
	}
	return LaneLocation{}, false
}

// LocateLaneIn restricts LocateLane to a subset of candidate directions, so
// a vehicle moving north/south is never matched against an east/west lane.
// The rule engine does not call it; internal/rules carries its own copy
// (locateInDirections) written against the rules.Geometry interface.
func (m *Model) LocateLaneIn(p Point, candidates []Direction) (LaneLocation, bool) {
	for _, d := range candidates {
		dr := m.directions[d]
		for idx, poly := range dr.LanesIn {
			if PointInPolygon(p, poly) {
				return LaneLocation{Direction: d, Kind: LaneIn, Index: idx}, true
			}
		}
	}
	for _, d := range candidates {
		dr := m.directions[d]
		for idx, poly := range dr.LanesOut {
			if PointInPolygon(p, poly) {
				return LaneLocation{Direction: d, Kind: LaneOut, Index: idx}, true
			}
		}
	}
	return LaneLocation{}, false
}

// LocateAll censuses every track's lane occupancy in one pass.
func (m *Model) LocateAll(tracks []TrackPosition) []LaneOccupancy {
	var out []LaneOccupancy
	for _, t := range tracks {
		if loc, ok := m.LocateLane(t.Position); ok {
			out = append(out, LaneOccupancy{
				TrackID:   t.TrackID,
				Direction: loc.Direction,
				Kind:      loc.Kind,
				Index:     loc.Index,
				Position:  t.Position,
			})
		}
	}
	return out
}

// TrackPosition is the minimal input LocateAll needs: an id and a ground
// point (typically the bbox bottom-center).
type TrackPosition struct {
	TrackID  uint64
	Position Point
}
