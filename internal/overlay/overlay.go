// Package overlay renders annotation rectangles onto scan images for
// visual QA.
package overlay

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/osteoimaging/xrayqa/internal/geometry"
	"github.com/osteoimaging/xrayqa/internal/roi"
)

// Options control overlay rendering.
type Options struct {
	// Contrast adjusts the base image before drawing, in percent
	// (-100..100); 0 leaves it unchanged.
	Contrast float64
	// Markers draws the rotation axis of each ROI in addition to its
	// outline.
	Markers bool
}

// Palette returns n visually distinct, stable colors, one per landmark.
func Palette(n int) []color.NRGBA {
	out := make([]color.NRGBA, n)
	for i := range out {
		hue := 360 * float64(i) / float64(n)
		c := colorful.Hsv(hue, 0.85, 0.95)
		r, g, b := c.RGB255()
		out[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// Render draws each joint's rotated rectangle onto a copy of img, colored
// by landmark position. The source image is never modified.
func Render(img image.Image, ann *roi.Annotation, opts Options) *image.NRGBA {
	base := imaging.Clone(img)
	if opts.Contrast != 0 {
		base = imaging.AdjustContrast(base, opts.Contrast)
	}

	palette := Palette(len(ann.Joints))
	for i, joint := range ann.Joints {
		c := palette[i]
		corners := joint.Corners()
		for e := 0; e < 4; e++ {
			drawLine(base, corners[e], corners[(e+1)%4], c)
		}
		if opts.Markers {
			drawAxis(base, joint, c)
		}
	}
	return base
}

// drawAxis draws the horizontal centerline of the ROI rotated to its
// angle, marking the joint orientation.
func drawAxis(dst *image.NRGBA, d roi.Descriptor, c color.NRGBA) {
	half := float64(d.W) / 2
	x1, y1 := geometry.Rotate(d.X, d.Y, d.X-half, d.Y, d.Angle)
	x2, y2 := geometry.Rotate(d.X, d.Y, d.X+half, d.Y, d.Angle)
	drawLine(dst, geometry.Point{X: int(x1), Y: int(y1)}, geometry.Point{X: int(x2), Y: int(y2)}, c)
}

// drawLine is an integer Bresenham segment clipped to the image bounds.
func drawLine(dst *image.NRGBA, a, b geometry.Point, c color.NRGBA) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx := 1
	if a.X > b.X {
		sx = -1
	}
	sy := 1
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy

	x, y := a.X, a.Y
	bounds := dst.Bounds()
	for {
		if (image.Point{X: x, Y: y}).In(bounds) {
			dst.SetNRGBA(x, y, c)
		}
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
