// Package batch orchestrates pairwise annotation comparison over a scan
// corpus and aggregates the resulting metric arrays.
//
// Pairs are independent and the metric functions are pure, so the corpus
// may be fanned out to a fixed-size worker pool; results are collected in
// input order and single-threaded execution produces bit-identical
// aggregates to parallel execution.
package batch

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/osteoimaging/xrayqa/internal/roi"
	"github.com/osteoimaging/xrayqa/internal/similarity"
)

// Pair is one scan annotated twice: typically once by a human reviewer
// and once by an automated landmark detector. The canvas dimensions come
// from the underlying image and size the Dice masks.
type Pair struct {
	A       *roi.Annotation
	B       *roi.Annotation
	CanvasW int
	CanvasH int
}

// Metric computes one scalar agreement value for a pair.
type Metric func(Pair) (float64, error)

// Euclidean is the summed per-landmark Euclidean distance metric.
func Euclidean(p Pair) (float64, error) {
	return similarity.SetDistance(p.A.Joints, p.B.Joints)
}

// Dice is the mean per-landmark Dice overlap metric.
func Dice(p Pair) (float64, error) {
	return similarity.SetDice(p.A.Joints, p.B.Joints, p.CanvasW, p.CanvasH)
}

// DefaultWorkers is the pool size for parallel comparison: available
// parallelism minus one, never below one.
func DefaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// Map computes the metric for every pair using the given number of
// workers. Results are indexed by input position regardless of completion
// order. The first error (by input order) aborts the result.
func Map(pairs []Pair, workers int, metric Metric) ([]float64, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]float64, len(pairs))
	errs := make([]error, len(pairs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = metric(pairs[i])
			}
		}()
	}
	for i := range pairs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("pair %d (%s_%s): %w", i, pairs[i].A.Patient, pairs[i].A.Visit, err)
		}
	}
	return results, nil
}
