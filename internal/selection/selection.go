// Package selection picks the best of several candidate automated
// annotations per scan using an externally computed quality score.
package selection

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// ErrNonContiguousGroup is returned when a scan key reappears after its
// group has closed. Contiguous grouping is a validated precondition, not
// an assumption: accepting out-of-order input would silently select the
// wrong candidate.
var ErrNonContiguousGroup = errors.New("scan key reappears after its group closed")

// CandidateRecord is one row of the quality-score table: a candidate
// annotation file for a scan and its score. Records for the same scan are
// contiguous in the table.
type CandidateRecord struct {
	ScanKey    string
	SourceFile string
	Score      float64
}

// ParseTable reads a whitespace-delimited quality-score table. Column 0
// is "<relativePath>:<suffix>"; the candidate file name is the path base
// and the scan key is the "<patient>_<visit>" prefix of its stem. Column
// 1 is the numeric quality score — parsed as a number, never compared as
// a string, so "10" outranks "9".
func ParseTable(r io.Reader) ([]CandidateRecord, error) {
	sc := bufio.NewScanner(r)
	var records []CandidateRecord
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("table line %d: want 2 columns, got %d", line, len(fields))
		}
		rel := fields[0]
		if i := strings.LastIndex(rel, ":"); i >= 0 {
			rel = rel[:i]
		}
		score, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("table line %d: score: %w", line, err)
		}
		source := path.Base(rel)
		records = append(records, CandidateRecord{
			ScanKey:    scanKey(source),
			SourceFile: source,
			Score:      score,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	return records, nil
}

// scanKey normalizes a candidate file name to its scan identifier: the
// "<patient>_<visit>" prefix of the stem.
func scanKey(name string) string {
	stem := strings.TrimSuffix(name, path.Ext(name))
	parts := strings.SplitN(stem, "_", 3)
	if len(parts) >= 2 {
		return parts[0] + "_" + parts[1]
	}
	return parts[0]
}

// SelectBest scans the records once and keeps, per scan key, the
// candidate with the strictly highest score; ties keep the first-seen
// candidate. The final group is flushed after the loop. Returns the
// selection keyed by scan and the keys in input order.
func SelectBest(records []CandidateRecord) (map[string]CandidateRecord, []string, error) {
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("no candidate records")
	}

	best := make(map[string]CandidateRecord, len(records))
	var order []string
	closed := make(map[string]bool, len(records))

	current := records[0]
	for _, rec := range records[1:] {
		if rec.ScanKey == current.ScanKey {
			if rec.Score > current.Score {
				current = rec
			}
			continue
		}
		if closed[rec.ScanKey] {
			return nil, nil, fmt.Errorf("%w: %q", ErrNonContiguousGroup, rec.ScanKey)
		}
		best[current.ScanKey] = current
		order = append(order, current.ScanKey)
		closed[current.ScanKey] = true
		current = rec
	}
	best[current.ScanKey] = current
	order = append(order, current.ScanKey)
	return best, order, nil
}
