// Package gap estimates the joint-space width in a cropped joint patch
// from pixel intensity gradients.
//
// The measurement runs in two stages. Stage one locates the horizontal
// extent of the bone by fitting a low-degree polynomial to the averaged
// top/bottom row profile and finding the gradient maxima on each side.
// Stage two restricts to that column range, averages per-column gradients
// into a row profile, and finds the contiguous row run most likely to be
// the joint space.
package gap

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Params are the tunable constants of the measurement. They are data
// calibration knobs, not derived quantities.
type Params struct {
	// TopBottomRows is the number of rows averaged from the top and the
	// bottom edge of the patch into the representative row profile.
	TopBottomRows int `yaml:"top_bottom_rows"`
	// PolyDegree is the degree of the polynomial fitted to the profile.
	PolyDegree int `yaml:"poly_degree"`
	// EdgeMargin is the number of columns ignored at each side; they are
	// dominated by patch-boundary artifacts, not the bone edge.
	EdgeMargin int `yaml:"edge_margin"`
	// ThresholdFrac is the fraction of the gradient-profile peak used as
	// the row threshold in stage two.
	ThresholdFrac float64 `yaml:"threshold_frac"`
	// Tolerance is the number of below-threshold rows allowed inside a
	// run before it breaks.
	Tolerance int `yaml:"tolerance"`
}

// Defaults fills zero values with the calibrated defaults.
func (p *Params) Defaults() {
	if p.TopBottomRows <= 0 {
		p.TopBottomRows = 5
	}
	if p.PolyDegree <= 0 {
		p.PolyDegree = 6
	}
	if p.EdgeMargin <= 0 {
		p.EdgeMargin = 25
	}
	if p.ThresholdFrac <= 0 {
		p.ThresholdFrac = 0.6
	}
	if p.Tolerance <= 0 {
		p.Tolerance = 5
	}
}

// Range is an inclusive-exclusive index interval.
type Range struct {
	Start int
	End   int
}

// Contains reports whether i falls inside the range.
func (r Range) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

// FindHorizontalRange locates the approximate start and end columns of
// the bone in a joint patch.
func FindHorizontalRange(m *mat.Dense, p Params) (Range, error) {
	p.Defaults()
	if m == nil {
		return Range{}, fmt.Errorf("nil patch")
	}
	rows, cols := m.Dims()
	if rows < 2*p.TopBottomRows || cols < 2*p.EdgeMargin+2 {
		return Range{}, fmt.Errorf("patch %dx%d too small for margins (%d rows, %d cols)",
			cols, rows, p.TopBottomRows, p.EdgeMargin)
	}

	// Average the top and bottom rows into one representative profile.
	profile := make([]float64, cols)
	for x := 0; x < cols; x++ {
		var sum float64
		for y := 0; y < p.TopBottomRows; y++ {
			sum += m.At(y, x) + m.At(rows-1-y, x)
		}
		profile[x] = sum / float64(2*p.TopBottomRows)
	}

	coeffs, err := polyfit(profile, p.PolyDegree)
	if err != nil {
		return Range{}, fmt.Errorf("fit row profile: %w", err)
	}
	fitted := make([]float64, cols)
	for x := range fitted {
		fitted[x] = polyval(coeffs, float64(x))
	}
	prime := absGradient(fitted, 1)

	// The maxima at the very edges are cropping artifacts; the bone edges
	// are the strongest inflections in each interior half.
	interior := prime[p.EdgeMargin : cols-p.EdgeMargin]
	half := len(interior) / 2
	start := argmax(interior[:half]) + p.EdgeMargin
	end := argmax(interior[half:]) + p.EdgeMargin + half
	return Range{Start: start, End: end}, nil
}

// MeasureGaps finds the row range most likely to be the joint space
// within the given column range. The boolean is false when no row shows a
// measurable gradient; absence is an expected outcome on noisy patches,
// not an error.
func MeasureGaps(m *mat.Dense, hr Range, p Params) (Range, bool) {
	p.Defaults()
	if m == nil {
		return Range{}, false
	}
	rows, cols := m.Dims()
	if rows < 2 || hr.Start < 0 || hr.End > cols || hr.End-hr.Start < 1 {
		return Range{}, false
	}

	// Average the per-column absolute gradients into one profile over
	// rows.
	profile := make([]float64, rows)
	col := make([]float64, rows)
	for x := hr.Start; x < hr.End; x++ {
		for y := 0; y < rows; y++ {
			col[y] = m.At(y, x)
		}
		grad := absGradient(col, 1)
		for y, g := range grad {
			profile[y] += g
		}
	}
	n := float64(hr.End - hr.Start)
	peak := 0.0
	for y := range profile {
		profile[y] /= n
		if profile[y] > peak {
			peak = profile[y]
		}
	}
	if peak <= 0 {
		return Range{}, false
	}

	threshold := peak * p.ThresholdFrac
	var indices []int
	for y, v := range profile {
		if v >= threshold {
			indices = append(indices, y)
		}
	}
	if len(indices) == 0 {
		return Range{}, false
	}

	runs := mergeRuns(indices, p.Tolerance)

	// The joint gap should be centered after ROI alignment, so prefer the
	// run containing the vertical midpoint; otherwise take the first.
	mid := rows / 2
	for _, r := range runs {
		if r.Contains(mid) {
			return r, true
		}
	}
	return runs[0], true
}

// Measure runs both stages on a patch.
func Measure(m *mat.Dense, p Params) (Range, bool, error) {
	hr, err := FindHorizontalRange(m, p)
	if err != nil {
		return Range{}, false, err
	}
	r, ok := MeasureGaps(m, hr, p)
	return r, ok, nil
}

// mergeRuns groups sorted indices into runs, merging neighbors separated
// by at most tolerance. The final run is flushed after the loop.
func mergeRuns(indices []int, tolerance int) []Range {
	var runs []Range
	start := indices[0]
	prev := indices[0]
	for _, idx := range indices[1:] {
		if idx-prev > tolerance {
			runs = append(runs, Range{Start: start, End: prev + 1})
			start = idx
		}
		prev = idx
	}
	runs = append(runs, Range{Start: start, End: prev + 1})
	return runs
}

func argmax(xs []float64) int {
	best := 0
	for i, v := range xs {
		if v > xs[best] {
			best = i
		}
	}
	return best
}
