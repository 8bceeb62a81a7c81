package roi

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/osteoimaging/xrayqa/internal/geometry"
)

// ErrOutOfBounds is returned when a ROI's rotated bounding box extends
// past the source image. Callers get a defined failure instead of a
// truncated patch.
var ErrOutOfBounds = errors.New("roi bounding box outside image")

// AngledCrop extracts an upright W×H patch for the descriptor's rotated
// rectangle.
//
// The rotated corners define an axis-aligned bounding region which is
// cropped from the source, rotated back by the ROI angle on an expanded
// canvas, and center-cropped to exactly W×H.
func AngledCrop(img image.Image, d Descriptor) (*image.NRGBA, error) {
	if d.W <= 0 || d.H <= 0 {
		return nil, fmt.Errorf("invalid ROI size %dx%d", d.W, d.H)
	}
	min, max := geometry.BoundingBox(d.Corners())
	b := img.Bounds()
	if min.X < b.Min.X || min.Y < b.Min.Y || max.X > b.Max.X || max.Y > b.Max.Y {
		return nil, fmt.Errorf("%w: roi %q bbox (%d,%d)-(%d,%d), image (%d,%d)-(%d,%d)",
			ErrOutOfBounds, d.Label, min.X, min.Y, max.X, max.Y,
			b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
	}

	sub := imaging.Crop(img, image.Rect(min.X, min.Y, max.X, max.Y))
	rotated := imaging.Rotate(sub, d.Angle*180/math.Pi, color.NRGBA{})
	return imaging.CropCenter(rotated, d.W, d.H), nil
}

// PatchName is the output file stem for a cropped joint patch.
func PatchName(patient, visit, label string) string {
	return fmt.Sprintf("%s_%s_%s", patient, visit, label)
}
