package batch

import (
	"fmt"
	"sync"

	"github.com/osteoimaging/xrayqa/internal/similarity"
)

// LandmarkReport tallies detection quality per landmark across a corpus.
type LandmarkReport struct {
	// Threshold is the Dice score a landmark must meet to count as found.
	Threshold float64
	// Pairs is the number of scan pairs examined.
	Pairs int
	// Landmarks is the total landmark comparisons examined.
	Landmarks int
	// Misses counts, per label, the landmarks scoring below the
	// threshold.
	Misses map[string]int
	// HandTPR is the fraction of pairs in which every landmark met the
	// threshold.
	HandTPR float64
	// JointTPR is the fraction of all landmarks meeting the threshold.
	JointTPR float64
}

// CompareLandmarks computes per-landmark Dice scores for every pair and
// aggregates miss counts and true-positive rates.
func CompareLandmarks(pairs []Pair, threshold float64, workers int) (*LandmarkReport, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no pairs to compare")
	}
	if workers < 1 {
		workers = 1
	}

	scores := make([][]float64, len(pairs))
	errs := make([]error, len(pairs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scores[i], errs[i] = pairLandmarkDice(pairs[i])
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

	report := &LandmarkReport{
		Threshold: threshold,
		Pairs:     len(pairs),
		Misses:    make(map[string]int),
	}
	handHits := 0
	jointHits := 0
	for i, pairScores := range scores {
		allFound := true
		for j, score := range pairScores {
			report.Landmarks++
			if score >= threshold {
				jointHits++
			} else {
				allFound = false
				report.Misses[pairs[i].A.Joints[j].Label]++
			}
		}
		if allFound {
			handHits++
		}
	}
	if report.Landmarks == 0 {
		return nil, fmt.Errorf("pairs contain no landmarks")
	}
	report.HandTPR = float64(handHits) / float64(report.Pairs)
	report.JointTPR = float64(jointHits) / float64(report.Landmarks)
	return report, nil
}

func pairLandmarkDice(p Pair) ([]float64, error) {
	a, b := p.A.Joints, p.B.Joints
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d vs %d", similarity.ErrShapeMismatch, len(a), len(b))
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = similarity.Dice(a[i], b[i], p.CanvasW, p.CanvasH)
	}
	return out, nil
}
