package roi

import "github.com/osteoimaging/xrayqa/internal/geometry"

// Mask is a binary occupancy raster. Pix holds one byte per pixel in
// row-major order: the buffer shape is H rows by W columns while ROI
// corner coordinates stay in (x, y) order.
type Mask struct {
	W   int
	H   int
	Pix []uint8
}

// At reports the mask value at (x, y). Out-of-canvas coordinates are 0.
func (m Mask) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return 0
	}
	return m.Pix[y*m.W+x]
}

// Area is the number of set pixels.
func (m Mask) Area() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// BuildMask rasterizes the descriptor's rotated rectangle as a filled
// polygon of value 1 on a zero canvas of canvasW×canvasH pixels. A pixel
// is either fully in or out; there is no anti-aliasing. Regions outside
// the canvas are clipped.
func BuildMask(d Descriptor, canvasW, canvasH int) Mask {
	m := Mask{W: canvasW, H: canvasH, Pix: make([]uint8, canvasW*canvasH)}
	if canvasW <= 0 || canvasH <= 0 {
		return m
	}

	corners := d.Corners()
	min, max := geometry.BoundingBox(corners)
	if min.X < 0 {
		min.X = 0
	}
	if min.Y < 0 {
		min.Y = 0
	}
	if max.X > canvasW-1 {
		max.X = canvasW - 1
	}
	if max.Y > canvasH-1 {
		max.Y = canvasH - 1
	}

	for y := min.Y; y <= max.Y; y++ {
		for x := min.X; x <= max.X; x++ {
			if inConvexQuad(corners, x, y) {
				m.Pix[y*canvasW+x] = 1
			}
		}
	}
	return m
}

// inConvexQuad tests point containment by edge cross products. The corner
// order from RectCorners is a consistent cycle, so all interior points see
// every edge on the same side; boundary pixels count as inside.
func inConvexQuad(q [4]geometry.Point, x, y int) bool {
	var pos, neg bool
	for i := 0; i < 4; i++ {
		a := q[i]
		b := q[(i+1)%4]
		cross := (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
		if cross > 0 {
			pos = true
		} else if cross < 0 {
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return true
}
