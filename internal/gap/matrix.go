package gap

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"gonum.org/v1/gonum/mat"
)

// Matrix converts a cropped joint patch to a rows×cols intensity matrix
// with values in [0, 255]. Color inputs are reduced to luminance first.
// Returns nil for an empty image.
func Matrix(img image.Image) *mat.Dense {
	gray := effect.Grayscale(img)
	b := gray.Bounds()
	rows, cols := b.Dy(), b.Dx()
	if rows == 0 || cols == 0 {
		return nil
	}
	m := mat.NewDense(rows, cols, nil)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			m.Set(y, x, float64(gray.RGBAAt(b.Min.X+x, b.Min.Y+y).R))
		}
	}
	return m
}
