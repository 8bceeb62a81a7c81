package similarity

import (
	"errors"
	"math"
	"testing"

	"github.com/osteoimaging/xrayqa/internal/roi"
)

func desc(x, y, angle float64) roi.Descriptor {
	return roi.Descriptor{X: x, Y: y, Angle: angle, W: 20, H: 10}
}

func TestDistance_Symmetry(t *testing.T) {
	a := desc(10, 20, 0.5)
	b := desc(13, 24, -0.5)
	if Distance(a, b) != Distance(b, a) {
		t.Error("distance must be symmetric")
	}
}

func TestDistance_ZeroIffEqual(t *testing.T) {
	a := desc(10, 20, 0.5)
	if Distance(a, a) != 0 {
		t.Error("self distance must be 0")
	}
	b := desc(10, 20, 0.5000001)
	if Distance(a, b) == 0 {
		t.Error("distinct descriptors must have nonzero distance")
	}
}

func TestDistance_Value(t *testing.T) {
	a := desc(0, 0, 0)
	b := desc(3, 4, 0)
	if got := Distance(a, b); math.Abs(got-5) > 1e-12 {
		t.Errorf("distance: got %v, want 5", got)
	}
}

func TestSetDistance_Sums(t *testing.T) {
	a := []roi.Descriptor{desc(0, 0, 0), desc(10, 10, 0)}
	b := []roi.Descriptor{desc(3, 4, 0), desc(10, 10, 2)}
	got, err := SetDistance(a, b)
	if err != nil {
		t.Fatalf("SetDistance failed: %v", err)
	}
	if math.Abs(got-7) > 1e-12 {
		t.Errorf("set distance: got %v, want 7", got)
	}
}

func TestSetDistance_ShapeMismatch(t *testing.T) {
	a := []roi.Descriptor{desc(0, 0, 0)}
	b := []roi.Descriptor{desc(0, 0, 0), desc(1, 1, 0)}
	_, err := SetDistance(a, b)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("got %v, want ErrShapeMismatch", err)
	}
}

func TestDice_Identity(t *testing.T) {
	d := roi.Descriptor{X: 50, Y: 50, Angle: 0.3, W: 20, H: 14}
	if got := Dice(d, d, 100, 100); got != 1.0 {
		t.Errorf("self Dice: got %v, want 1.0", got)
	}
}

func TestDice_Disjoint(t *testing.T) {
	a := roi.Descriptor{X: 20, Y: 20, W: 10, H: 10}
	b := roi.Descriptor{X: 80, Y: 80, W: 10, H: 10}
	if got := Dice(a, b, 100, 100); got != 0.0 {
		t.Errorf("disjoint Dice: got %v, want 0.0", got)
	}
}

func TestDice_BothEmpty(t *testing.T) {
	// Both ROIs fall entirely outside the canvas, so both masks are empty:
	// perfect agreement on "nothing present".
	a := roi.Descriptor{X: 500, Y: 500, W: 10, H: 10}
	b := roi.Descriptor{X: 700, Y: 700, W: 10, H: 10}
	if got := Dice(a, b, 100, 100); got != 1.0 {
		t.Errorf("empty-vs-empty Dice: got %v, want 1.0", got)
	}
}

func TestDice_PartialOverlap(t *testing.T) {
	a := roi.Descriptor{X: 50, Y: 50, W: 20, H: 10}
	b := roi.Descriptor{X: 55, Y: 50, W: 20, H: 10}
	got := Dice(a, b, 100, 100)
	if got <= 0 || got >= 1 {
		t.Errorf("partial overlap Dice: got %v, want in (0, 1)", got)
	}
}

func TestSetDice_MeanAndThreshold(t *testing.T) {
	a := []roi.Descriptor{
		{X: 30, Y: 30, W: 10, H: 10},
		{X: 70, Y: 70, W: 10, H: 10},
	}
	b := []roi.Descriptor{
		{X: 30, Y: 30, W: 10, H: 10}, // perfect
		{X: 20, Y: 20, W: 10, H: 10}, // disjoint
	}
	mean, hits, err := SetDiceWithThreshold(a, b, 100, 100, 0.9)
	if err != nil {
		t.Fatalf("SetDiceWithThreshold failed: %v", err)
	}
	if math.Abs(mean-0.5) > 1e-12 {
		t.Errorf("mean: got %v, want 0.5", mean)
	}
	if hits != 1 {
		t.Errorf("hits: got %d, want 1", hits)
	}

	mean2, err := SetDice(a, b, 100, 100)
	if err != nil {
		t.Fatalf("SetDice failed: %v", err)
	}
	if mean2 != mean {
		t.Errorf("SetDice mean: got %v, want %v", mean2, mean)
	}
}

func TestSetDice_ShapeMismatch(t *testing.T) {
	_, err := SetDice([]roi.Descriptor{desc(1, 1, 0)}, nil, 50, 50)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("got %v, want ErrShapeMismatch", err)
	}
}

func TestSetDice_Empty(t *testing.T) {
	_, err := SetDice(nil, nil, 50, 50)
	if err == nil {
		t.Fatal("want error for empty sets")
	}
}
