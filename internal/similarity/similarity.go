// Package similarity quantifies agreement between two landmark
// annotations of the same scan using geometric distance and region
// overlap.
package similarity

import (
	"errors"
	"fmt"
	"math"

	"github.com/osteoimaging/xrayqa/internal/roi"
)

// ErrShapeMismatch is returned when two annotation sets do not have the
// same landmark count. Comparison never silently truncates.
var ErrShapeMismatch = errors.New("annotation sets differ in landmark count")

// Distance is the Euclidean norm of the (x, y, angle) difference between
// two descriptors. The units are mixed (pixels and radians) on purpose:
// this is a coarse agreement signal, not a physical distance.
func Distance(a, b roi.Descriptor) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	da := a.Angle - b.Angle
	return math.Sqrt(dx*dx + dy*dy + da*da)
}

// SetDistance sums the per-landmark distances of two index-aligned
// annotation sets.
func SetDistance(a, b []roi.Descriptor) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrShapeMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += Distance(a[i], b[i])
	}
	return sum, nil
}

// DiceMasks computes the Sørensen–Dice coefficient 2|A∩B| / (|A|+|B|)
// over two binary masks. Two empty masks agree perfectly on "nothing
// present" and score 1.0 rather than 0/0.
func DiceMasks(a, b roi.Mask) float64 {
	n := len(a.Pix)
	if len(b.Pix) < n {
		n = len(b.Pix)
	}
	var inter, total int
	for i := 0; i < n; i++ {
		av := a.Pix[i]
		bv := b.Pix[i]
		if av != 0 && bv != 0 {
			inter++
		}
		if av != 0 {
			total++
		}
		if bv != 0 {
			total++
		}
	}
	if total == 0 {
		return 1.0
	}
	return 2 * float64(inter) / float64(total)
}

// Dice rasterizes both descriptors on a canvasW×canvasH canvas and
// computes their mask overlap.
func Dice(a, b roi.Descriptor, canvasW, canvasH int) float64 {
	return DiceMasks(roi.BuildMask(a, canvasW, canvasH), roi.BuildMask(b, canvasW, canvasH))
}

// SetDice is the mean of per-landmark Dice scores across two
// index-aligned annotation sets.
func SetDice(a, b []roi.Descriptor, canvasW, canvasH int) (float64, error) {
	mean, _, err := SetDiceWithThreshold(a, b, canvasW, canvasH, math.Inf(1))
	return mean, err
}

// SetDiceWithThreshold additionally counts the landmarks whose Dice score
// meets or exceeds threshold, for true-positive-rate accounting.
func SetDiceWithThreshold(a, b []roi.Descriptor, canvasW, canvasH int, threshold float64) (float64, int, error) {
	if len(a) != len(b) {
		return 0, 0, fmt.Errorf("%w: %d vs %d", ErrShapeMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, 0, fmt.Errorf("cannot compare empty annotation sets")
	}
	var sum float64
	hits := 0
	for i := range a {
		d := Dice(a[i], b[i], canvasW, canvasH)
		sum += d
		if d >= threshold {
			hits++
		}
	}
	return sum / float64(len(a)), hits, nil
}
