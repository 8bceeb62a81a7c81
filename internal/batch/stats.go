package batch

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the aggregate statistics of one metric array.
type Summary struct {
	N      int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// Summarize computes mean, median, min and max. An empty input is an
// explicit error: silently returning zeros would corrupt downstream
// reports.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, fmt.Errorf("no values to summarize")
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return Summary{
		N:      len(values),
		Mean:   stat.Mean(values, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
	}, nil
}

// Correlation is the Pearson correlation coefficient between two metric
// arrays computed on the same pairs.
func Correlation(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("metric arrays differ in length: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("no values to correlate")
	}
	return stat.Correlation(a, b, nil), nil
}

// Ranked pairs a metric value with its input position.
type Ranked struct {
	Index int
	Value float64
}

// TopN returns up to n entries ranked by value: descending picks the
// farthest pairs (Euclidean), ascending the most dissimilar (Dice). Ties
// keep input order.
func TopN(values []float64, n int, descending bool) []Ranked {
	ranked := make([]Ranked, len(values))
	for i, v := range values {
		ranked[i] = Ranked{Index: i, Value: v}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if descending {
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].Value < ranked[j].Value
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}
