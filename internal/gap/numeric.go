package gap

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// polyfit computes the least-squares polynomial of the given degree
// through the points (0, ys[0]), (1, ys[1]), ... by QR-solving the
// Vandermonde system. Coefficients are returned lowest order first.
func polyfit(ys []float64, degree int) ([]float64, error) {
	n := len(ys)
	if n <= degree {
		return nil, fmt.Errorf("need more than %d samples for a degree-%d fit, got %d", degree, degree, n)
	}

	a := mat.NewDense(n, degree+1, nil)
	for i := 0; i < n; i++ {
		v := 1.0
		x := float64(i)
		for j := 0; j <= degree; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), ys...))

	var qr mat.QR
	qr.Factorize(a)
	var coeffs mat.VecDense
	if err := qr.SolveVecTo(&coeffs, false, b); err != nil {
		return nil, fmt.Errorf("solve polynomial system: %w", err)
	}

	out := make([]float64, degree+1)
	for j := range out {
		out[j] = coeffs.AtVec(j)
	}
	return out, nil
}

// polyval evaluates a polynomial with coefficients lowest order first.
func polyval(coeffs []float64, x float64) float64 {
	var y float64
	for j := len(coeffs) - 1; j >= 0; j-- {
		y = y*x + coeffs[j]
	}
	return y
}

// absGradient is the absolute central-difference gradient with one-sided
// differences at the ends, over uniform sample spacing.
func absGradient(ys []float64, spacing float64) []float64 {
	n := len(ys)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	out[0] = abs((ys[1] - ys[0]) / spacing)
	out[n-1] = abs((ys[n-1] - ys[n-2]) / spacing)
	for i := 1; i < n-1; i++ {
		out[i] = abs((ys[i+1] - ys[i-1]) / (2 * spacing))
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
