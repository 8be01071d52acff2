package geometry

import "math"

// PointInPolygon tests if a point is inside a polygon using ray casting
// (even-odd rule). The polygon is implicitly closed.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// PointOnPolygonEdge reports whether p lies within eps of any edge of the
// implicitly closed polygon.
func PointOnPolygonEdge(p Point2D, polygon []Point2D, eps float64) bool {
	n := len(polygon)
	for i := 0; i < n; i++ {
		if PointOnSegment(p, polygon[i], polygon[(i+1)%n], eps) {
			return true
		}
	}
	return false
}

// PointOnSegment reports whether p lies on the segment a-b within eps.
func PointOnSegment(p, a, b Point2D, eps float64) bool {
	if math.Abs(crossProduct(a, b, p)) > eps*math.Max(1, a.Distance(b)) {
		return false
	}
	return p.X >= math.Min(a.X, b.X)-eps && p.X <= math.Max(a.X, b.X)+eps &&
		p.Y >= math.Min(a.Y, b.Y)-eps && p.Y <= math.Max(a.Y, b.Y)+eps
}

// PolygonArea returns the signed area of the implicitly closed polygon
// (shoelace formula). Counter-clockwise in a y-up frame is positive.
func PolygonArea(polygon []Point2D) float64 {
	if len(polygon) < 3 {
		return 0
	}
	var sum float64
	n := len(polygon)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return sum / 2
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
