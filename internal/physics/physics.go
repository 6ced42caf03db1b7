// Package physics provides collision detection and distance utilities.
package physics

import "math"

// Distance calculates the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSquared calculates the squared distance between two points.
// Use this when comparing distances to avoid the sqrt cost.
func DistanceSquared(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx + dy*dy
}

// PointInCircle reports whether a point lies strictly inside the circle.
func PointInCircle(px, py, cx, cy, radius float64) bool {
	return DistanceSquared(px, py, cx, cy) < radius*radius
}

// CirclesOverlap checks if two circles overlap.
func CirclesOverlap(x1, y1, r1, x2, y2, r2 float64) bool {
	minDist := r1 + r2
	return DistanceSquared(x1, y1, x2, y2) < minDist*minDist
}

// BoxesOverlap reports whether two axis-aligned boxes given by center and
// half extents intersect. Touching edges do not count.
func BoxesOverlap(x1, y1, hw1, hh1, x2, y2, hw2, hh2 float64) bool {
	return x1+hw1 > x2-hw2 && x1-hw1 < x2+hw2 &&
		y1+hh1 > y2-hh2 && y1-hh1 < y2+hh2
}

// Normalize returns the unit vector of (x, y). The zero vector is returned unchanged.
func Normalize(x, y float64) (float64, float64) {
	l := math.Sqrt(x*x + y*y)
	if l == 0 {
		return 0, 0
	}
	return x / l, y / l
}

// Heading returns the unit vector pointing from (x1, y1) toward (x2, y2).
// Coincident points yield (1, 0), the direction of a zero angle.
func Heading(x1, y1, x2, y2 float64) (float64, float64) {
	angle := math.Atan2(y2-y1, x2-x1)
	return math.Cos(angle), math.Sin(angle)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
