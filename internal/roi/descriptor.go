package roi

import "github.com/osteoimaging/xrayqa/internal/geometry"

// Labels is the canonical landmark order: metacarpophalangeal, proximal
// and distal interphalangeal joints for the index through pinky fingers.
// Annotation files list landmarks in exactly this order.
var Labels = []string{
	"mcp2", "pip2", "dip2",
	"mcp3", "pip3", "dip3",
	"mcp4", "pip4", "dip4",
	"mcp5", "pip5", "dip5",
}

// Size is the ROI extent in pixels, loaded from configuration once at
// startup and threaded explicitly into every component that needs it.
type Size struct {
	W int `yaml:"width"`
	H int `yaml:"height"`
}

// Descriptor is a single landmark annotation: an oriented rectangle
// centered on (X, Y), rotated by Angle radians. Angle is unrestricted;
// interactive editing may accumulate deltas beyond ±2π.
//
// W and H must be positive. Descriptors are plain data: mutate freely,
// masks and crops are recomputed on demand rather than cached.
type Descriptor struct {
	X     float64
	Y     float64
	Angle float64
	W     int
	H     int
	Label string
}

// Corners returns the descriptor's rotated rectangle corners in
// bottom-right, top-right, top-left, bottom-left order.
func (d Descriptor) Corners() [4]geometry.Point {
	return geometry.RectCorners(d.X, d.Y, d.W, d.H, d.Angle)
}

// Translate moves the ROI center by (dx, dy).
func (d *Descriptor) Translate(dx, dy float64) {
	d.X += dx
	d.Y += dy
}

// RotateBy adds delta radians to the ROI angle.
func (d *Descriptor) RotateBy(delta float64) {
	d.Angle += delta
}
