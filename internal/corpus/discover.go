package corpus

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/osteoimaging/xrayqa/internal/batch"
	"github.com/osteoimaging/xrayqa/internal/roi"
)

// Scan couples an annotation with its image on disk.
type Scan struct {
	Annotation *roi.Annotation
	ImagePath  string
	ImageW     int
	ImageH     int
}

// LoadScans reads every annotation in dir that has a matching image in
// imageDir (same file stem), sorted by patient then visit.
func LoadScans(dir, imageDir string, size roi.Size, logger *slog.Logger) ([]*Scan, error) {
	if logger == nil {
		logger = slog.Default()
	}
	infos, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("glob annotations: %w", err)
	}
	images, err := globImages(imageDir)
	if err != nil {
		return nil, err
	}

	byStem := make(map[string]string, len(images))
	for _, img := range images {
		byStem[stem(img)] = img
	}

	var scans []*Scan
	for _, info := range infos {
		imgPath, ok := byStem[stem(info)]
		if !ok {
			logger.Warn("annotation has no matching image", "annotation", info)
			continue
		}
		ann, err := roi.LoadAnnotation(info, size)
		if err != nil {
			return nil, err
		}
		ann.ImagePath = imgPath
		w, h, err := Dimensions(imgPath)
		if err != nil {
			return nil, err
		}
		scans = append(scans, &Scan{Annotation: ann, ImagePath: imgPath, ImageW: w, ImageH: h})
	}
	sortScans(scans)
	logger.Info("loaded scans", "dir", dir, "count", len(scans))
	return scans, nil
}

// DiscoverPairs intersects two annotation directories and an image
// directory by file stem and returns aligned comparison pairs. With
// ignoreVisit set, stems match on the patient identifier alone.
func DiscoverPairs(dirA, dirB, imageDir string, size roi.Size, ignoreVisit bool, logger *slog.Logger) ([]batch.Pair, error) {
	if logger == nil {
		logger = slog.Default()
	}
	key := func(path string) string {
		s := stem(path)
		if ignoreVisit {
			s = strings.SplitN(s, "_", 2)[0]
		}
		return s
	}

	aInfos, err := filepath.Glob(filepath.Join(dirA, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dirA, err)
	}
	bInfos, err := filepath.Glob(filepath.Join(dirB, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dirB, err)
	}
	images, err := globImages(imageDir)
	if err != nil {
		return nil, err
	}

	bByKey := make(map[string]string, len(bInfos))
	for _, p := range bInfos {
		bByKey[key(p)] = p
	}
	imgByKey := make(map[string]string, len(images))
	for _, p := range images {
		imgByKey[key(p)] = p
	}

	var pairs []batch.Pair
	for _, aPath := range aInfos {
		k := key(aPath)
		bPath, okB := bByKey[k]
		imgPath, okI := imgByKey[k]
		if !okB || !okI {
			continue
		}
		a, err := roi.LoadAnnotation(aPath, size)
		if err != nil {
			return nil, err
		}
		b, err := roi.LoadAnnotation(bPath, size)
		if err != nil {
			return nil, err
		}
		a.ImagePath = imgPath
		b.ImagePath = imgPath
		w, h, err := Dimensions(imgPath)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, batch.Pair{A: a, B: b, CanvasW: w, CanvasH: h})
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].A.Patient != pairs[j].A.Patient {
			return pairs[i].A.Patient < pairs[j].A.Patient
		}
		return pairs[i].A.Visit < pairs[j].A.Visit
	})
	logger.Info("aligned scan pairs", "a", dirA, "b", dirB, "pairs", len(pairs))
	return pairs, nil
}

func globImages(dir string) ([]string, error) {
	var out []string
	for _, pattern := range []string{"*.png", "*.jpg", "*.jpeg"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob images: %w", err)
		}
		out = append(out, matches...)
	}
	sort.Strings(out)
	return out, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func sortScans(scans []*Scan) {
	sort.SliceStable(scans, func(i, j int) bool {
		a, b := scans[i].Annotation, scans[j].Annotation
		if a.Patient != b.Patient {
			return a.Patient < b.Patient
		}
		return a.Visit < b.Visit
	})
}
