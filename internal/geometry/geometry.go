// Package geometry provides the 2D rotation and rectangle math shared by
// all ROI operations.
//
// Angles are radians, counter-clockwise in image coordinates. Because y
// grows downward in images, a positive rotation appears clockwise on
// screen. This handedness matches the annotation files and must not be
// "corrected".
package geometry

import "math"

// Point is a pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rotate rotates (px, py) about (ox, oy) by angle radians and returns the
// exact floating-point result.
func Rotate(ox, oy, px, py, angle float64) (qx, qy float64) {
	sin, cos := math.Sincos(angle)
	qx = ox + cos*(px-ox) - sin*(py-oy)
	qy = oy + sin*(px-ox) + cos*(py-oy)
	return qx, qy
}

// RotatePoint rotates p about origin and truncates the result to the pixel
// grid. Truncation (not rounding) keeps masks and crops aligned with the
// rasterizer.
func RotatePoint(origin, p Point, angle float64) Point {
	qx, qy := Rotate(float64(origin.X), float64(origin.Y), float64(p.X), float64(p.Y), angle)
	return Point{X: int(qx), Y: int(qy)}
}

// RectCorners returns the four corners of a w×h rectangle centered at
// (cx, cy) and rotated by angle radians, in bottom-right, top-right,
// top-left, bottom-left order. Corner coordinates are truncated to ints.
func RectCorners(cx, cy float64, w, h int, angle float64) [4]Point {
	hw := float64(w) / 2
	hh := float64(h) / 2
	base := [4][2]float64{
		{cx + hw, cy + hh}, // bottom-right
		{cx + hw, cy - hh}, // top-right
		{cx - hw, cy - hh}, // top-left
		{cx - hw, cy + hh}, // bottom-left
	}
	var corners [4]Point
	for i, b := range base {
		qx, qy := Rotate(cx, cy, b[0], b[1], angle)
		corners[i] = Point{X: int(qx), Y: int(qy)}
	}
	return corners
}

// BoundingBox returns the axis-aligned bounds of the corner set as
// inclusive min and max points.
func BoundingBox(pts [4]Point) (min, max Point) {
	min = pts[0]
	max = pts[0]
	for _, p := range pts[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}
