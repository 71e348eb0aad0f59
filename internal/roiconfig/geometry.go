package roiconfig

import "math"

// PointInPolygon reports whether p lies inside polygon, using a ray-cast
// (PNPoly) test. Points exactly on the boundary count as inside.
func PointInPolygon(p Point, polygon Polygon) bool {
	if onBoundary(p, polygon) {
		return true
	}
	inside := false
	n := len(polygon)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := polygon[i], polygon[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) {
			xIntersect := float64(vj.X-vi.X)*float64(p.Y-vi.Y)/float64(vj.Y-vi.Y) + float64(vi.X)
			if float64(p.X) < xIntersect {
				inside = !inside
			}
		}
	}
	return inside
}

func onBoundary(p Point, polygon Polygon) bool {
	n := len(polygon)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if pointOnSegment(p, polygon[j], polygon[i]) {
			return true
		}
	}
	return false
}

func pointOnSegment(p, a, b Point) bool {
	cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
	if cross != 0 {
		return false
	}
	minX, maxX := a.X, b.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := a.Y, b.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY
}

// PointInAny reports whether p lies inside any of the given polygons.
func PointInAny(polygons []Polygon, p Point) bool {
	for _, poly := range polygons {
		if PointInPolygon(p, poly) {
			return true
		}
	}
	return false
}

// SignedDistanceToSegment returns the perpendicular distance from p to
// segment ab and the sign of the 2D cross product (b-a) x (p-a): +1, -1, or
// 0 exactly on the line through ab.
func SignedDistanceToSegment(p, a, b Point) (distance float64, side Side) {
	cross := float64(b.X-a.X)*float64(p.Y-a.Y) - float64(b.Y-a.Y)*float64(p.X-a.X)

	lenSq := float64(b.X-a.X)*float64(b.X-a.X) + float64(b.Y-a.Y)*float64(b.Y-a.Y)
	if lenSq == 0 {
		dx, dy := float64(p.X-a.X), float64(p.Y-a.Y)
		return math.Sqrt(dx*dx + dy*dy), SideOn
	}
	dist := math.Abs(cross) / math.Sqrt(lenSq)

	switch {
	case cross > 0:
		side = SidePositive
	case cross < 0:
		side = SideNegative
	default:
		side = SideOn
	}
	return dist, side
}

func polygonCentroid(poly Polygon) (cx, cy float64) {
	for _, pt := range poly {
		cx += float64(pt.X)
		cy += float64(pt.Y)
	}
	n := float64(len(poly))
	if n == 0 {
		return 0, 0
	}
	return cx / n, cy / n
}
