package gap

import (
	"image"
	"image/color"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// bonePatch builds a synthetic joint patch: a bright bone band occupying
// columns [c1, c2), with intensity ramping down over rows [r1, r2] to
// simulate the joint space transition.
func bonePatch(rows, cols, c1, c2, r1, r2 int) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for y := 0; y < rows; y++ {
		v := 200.0
		switch {
		case y < r1:
			v = 200.0
		case y <= r2:
			v = 200.0 - float64(y-r1)*150.0/float64(r2-r1)
		default:
			v = 50.0
		}
		for x := c1; x < c2; x++ {
			m.Set(y, x, v)
		}
	}
	return m
}

func TestFindHorizontalRange_StepEdges(t *testing.T) {
	m := bonePatch(120, 200, 60, 140, 50, 70)

	hr, err := FindHorizontalRange(m, Params{})
	if err != nil {
		t.Fatalf("FindHorizontalRange failed: %v", err)
	}
	if hr.Start >= hr.End {
		t.Fatalf("degenerate range %+v", hr)
	}
	// The polynomial fit smooths the step, shifting the gradient maxima a
	// few columns inward; anything within the edge margin is acceptable.
	if d := abs(float64(hr.Start - 60)); d > 25 {
		t.Errorf("start: got %d, want within 25 of 60", hr.Start)
	}
	if d := abs(float64(hr.End - 140)); d > 25 {
		t.Errorf("end: got %d, want within 25 of 140", hr.End)
	}
}

func TestFindHorizontalRange_TooSmall(t *testing.T) {
	m := mat.NewDense(4, 10, nil)
	if _, err := FindHorizontalRange(m, Params{}); err == nil {
		t.Fatal("want error for undersized patch")
	}
}

func TestMeasureGaps_CenteredBand(t *testing.T) {
	m := bonePatch(120, 200, 60, 140, 50, 70)

	run, ok := MeasureGaps(m, Range{Start: 60, End: 140}, Params{})
	if !ok {
		t.Fatal("want a measurable gap")
	}
	if !run.Contains(60) {
		t.Errorf("run %+v should contain the vertical midpoint 60", run)
	}
	// The gradient band spans the ramp rows, smeared one row by the
	// central difference.
	if run.Start < 48 || run.Start > 53 {
		t.Errorf("run start: got %d, want near 50", run.Start)
	}
	if run.End < 67 || run.End > 72 {
		t.Errorf("run end: got %d, want near 70", run.End)
	}
}

func TestMeasureGaps_NoSignal(t *testing.T) {
	// Constant intensity has zero gradient everywhere: no measurement,
	// not an error.
	m := mat.NewDense(100, 100, nil)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			m.Set(y, x, 128)
		}
	}
	if _, ok := MeasureGaps(m, Range{Start: 10, End: 90}, Params{}); ok {
		t.Error("constant patch must yield no measurement")
	}
}

func TestMeasureGaps_InvalidRange(t *testing.T) {
	m := bonePatch(50, 80, 10, 70, 20, 30)
	tests := []Range{
		{Start: -1, End: 10},
		{Start: 10, End: 90},
		{Start: 40, End: 40},
	}
	for _, hr := range tests {
		if _, ok := MeasureGaps(m, hr, Params{}); ok {
			t.Errorf("range %+v should yield no measurement", hr)
		}
	}
}

func TestMeasure_EndToEnd(t *testing.T) {
	m := bonePatch(120, 200, 60, 140, 50, 70)

	run, ok, err := Measure(m, Params{})
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	if !ok {
		t.Fatal("want a measurable gap")
	}
	if !run.Contains(60) {
		t.Errorf("run %+v should contain the midpoint", run)
	}
}

func TestMergeRuns(t *testing.T) {
	tests := []struct {
		name      string
		indices   []int
		tolerance int
		want      []Range
	}{
		{
			name:      "single run",
			indices:   []int{3, 4, 5},
			tolerance: 5,
			want:      []Range{{3, 6}},
		},
		{
			name:      "gap below tolerance merges",
			indices:   []int{3, 4, 8, 9},
			tolerance: 5,
			want:      []Range{{3, 10}},
		},
		{
			name:      "gap above tolerance splits",
			indices:   []int{3, 4, 5, 20, 21},
			tolerance: 5,
			want:      []Range{{3, 6}, {20, 22}},
		},
		{
			name:      "single index",
			indices:   []int{7},
			tolerance: 5,
			want:      []Range{{7, 8}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeRuns(tt.indices, tt.tolerance)
			if len(got) != len(tt.want) {
				t.Fatalf("runs: got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("run %d: got %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPolyfit_RecoversQuadratic(t *testing.T) {
	// y = 2 + 3x + 0.5x^2 sampled exactly.
	ys := make([]float64, 50)
	for i := range ys {
		x := float64(i)
		ys[i] = 2 + 3*x + 0.5*x*x
	}
	c, err := polyfit(ys, 2)
	if err != nil {
		t.Fatalf("polyfit failed: %v", err)
	}
	want := []float64{2, 3, 0.5}
	for j := range want {
		if math.Abs(c[j]-want[j]) > 1e-6 {
			t.Errorf("coefficient %d: got %v, want %v", j, c[j], want[j])
		}
	}
	if got := polyval(c, 10); math.Abs(got-82) > 1e-6 {
		t.Errorf("polyval(10): got %v, want 82", got)
	}
}

func TestPolyfit_TooFewSamples(t *testing.T) {
	if _, err := polyfit([]float64{1, 2}, 5); err == nil {
		t.Fatal("want error for underdetermined fit")
	}
}

func TestAbsGradient(t *testing.T) {
	// Linear ramp: constant slope everywhere.
	ys := []float64{0, 2, 4, 6, 8}
	g := absGradient(ys, 1)
	for i, v := range g {
		if math.Abs(v-2) > 1e-12 {
			t.Errorf("gradient[%d]: got %v, want 2", i, v)
		}
	}

	// Descending ramp has the same absolute gradient.
	g = absGradient([]float64{8, 6, 4}, 1)
	for i, v := range g {
		if math.Abs(v-2) > 1e-12 {
			t.Errorf("descending gradient[%d]: got %v, want 2", i, v)
		}
	}

	// Spacing scales the result.
	g = absGradient([]float64{0, 6}, 3)
	if math.Abs(g[0]-2) > 1e-12 {
		t.Errorf("spaced gradient: got %v, want 2", g[0])
	}
}

func TestMatrix(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.Gray{Y: uint8(10 * (y*4 + x))})
		}
	}
	m := Matrix(img)
	rows, cols := m.Dims()
	if rows != 3 || cols != 4 {
		t.Fatalf("dims: got %dx%d, want 3x4", rows, cols)
	}
	if got := m.At(2, 3); math.Abs(got-110) > 2 {
		t.Errorf("intensity at (2,3): got %v, want about 110", got)
	}
}
