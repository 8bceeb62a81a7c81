package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/osteoimaging/xrayqa/internal/batch"
	"github.com/osteoimaging/xrayqa/internal/config"
	"github.com/osteoimaging/xrayqa/internal/corpus"
	"github.com/osteoimaging/xrayqa/internal/gap"
	"github.com/osteoimaging/xrayqa/internal/overlay"
	"github.com/osteoimaging/xrayqa/internal/roi"
	"github.com/osteoimaging/xrayqa/internal/selection"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const usage = `xrayqa - quality assessment for hand X-ray joint annotations

Usage: xrayqa <command> [options]

Commands:
  crop      Extract rotated joint patches from annotated scans
  compare   Compare two annotation sets over a scan corpus
  pick      Select the best-scoring candidate annotation per scan
  measure   Measure the joint-space width of joint patches
  convert   Convert BoneFinder .pts output into annotation files
  overlay   Render annotation rectangles onto a scan image

Options:
  --version, -v    Print version information
  --help, -h       Print this help message

Run "xrayqa <command> -h" for command options.`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Printf("xrayqa %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		fmt.Println(usage)
		return
	}

	// Logging goes to stderr; stdout carries the report output.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	var err error
	switch cmd := os.Args[1]; cmd {
	case "crop":
		err = runCrop(os.Args[2:], logger)
	case "compare":
		err = runCompare(os.Args[2:], logger)
	case "pick":
		err = runPick(os.Args[2:])
	case "measure":
		err = runMeasure(os.Args[2:], logger)
	case "convert":
		err = runConvert(os.Args[2:])
	case "overlay":
		err = runOverlay(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runCrop(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("crop", flag.ExitOnError)
	annotations := fs.String("annotations", "", "directory of annotation .txt files")
	images := fs.String("images", "", "directory of scan images")
	out := fs.String("out", "patches", "output directory for joint patches")
	cfgPath := fs.String("config", "", "path to YAML config")
	fs.Parse(args)

	if *annotations == "" || *images == "" {
		return fmt.Errorf("crop: -annotations and -images are required")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	scans, err := corpus.LoadScans(*annotations, *images, cfg.ROI, logger)
	if err != nil {
		return err
	}

	cache := corpus.NewImageCache()
	written := 0
	for _, scan := range scans {
		img, err := cache.Load(scan.ImagePath)
		if err != nil {
			return err
		}
		ann := scan.Annotation
		for _, joint := range ann.Joints {
			patch, err := roi.AngledCrop(img, joint)
			if err != nil {
				if errors.Is(err, roi.ErrOutOfBounds) {
					logger.Warn("joint outside scan, skipped",
						"patient", ann.Patient, "visit", ann.Visit, "label", joint.Label)
					continue
				}
				return err
			}
			name := roi.PatchName(ann.Patient, ann.Visit, joint.Label) + ".png"
			if err := imaging.Save(patch, filepath.Join(*out, name)); err != nil {
				return fmt.Errorf("save patch %s: %w", name, err)
			}
			written++
		}
		cache.Evict(scan.ImagePath)
	}
	logger.Info("patches written", "count", written, "dir", *out)
	return nil
}

func runCompare(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	dirA := fs.String("a", "", "first annotation directory (reference)")
	dirB := fs.String("b", "", "second annotation directory (candidate)")
	images := fs.String("images", "", "directory of scan images")
	ignoreVisit := fs.Bool("ignore-visit", false, "match scans on the patient identifier alone")
	workers := fs.Int("workers", 0, "comparison workers (0 = one per CPU minus one)")
	topN := fs.Int("top", 0, "worst pairs to list (0 = config default)")
	threshold := fs.Float64("threshold", 0, "per-landmark Dice agreement threshold (0 = config default)")
	cfgPath := fs.String("config", "", "path to YAML config")
	fs.Parse(args)

	if *dirA == "" || *dirB == "" || *images == "" {
		return fmt.Errorf("compare: -a, -b and -images are required")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *workers == 0 {
		if cfg.Batch.Workers > 0 {
			*workers = cfg.Batch.Workers
		} else {
			*workers = batch.DefaultWorkers()
		}
	}
	if *topN == 0 {
		*topN = cfg.Batch.TopN
	}
	if *threshold == 0 {
		*threshold = cfg.Batch.DiceThreshold
	}

	pairs, err := corpus.DiscoverPairs(*dirA, *dirB, *images, cfg.ROI, *ignoreVisit, logger)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("no matching scan pairs between %s and %s", *dirA, *dirB)
	}

	distances, err := batch.Map(pairs, *workers, batch.Euclidean)
	if err != nil {
		return fmt.Errorf("euclidean pass: %w", err)
	}
	dices, err := batch.Map(pairs, *workers, batch.Dice)
	if err != nil {
		return fmt.Errorf("dice pass: %w", err)
	}

	printMetric(os.Stdout, "Euclidean distance (higher = worse)", pairs, distances, *topN, true)
	printMetric(os.Stdout, "Dice overlap (lower = worse)", pairs, dices, *topN, false)

	corr, err := batch.Correlation(distances, dices)
	if err != nil {
		return err
	}
	fmt.Printf("Distance/Dice correlation: %.4f\n\n", corr)

	report, err := batch.CompareLandmarks(pairs, *threshold, *workers)
	if err != nil {
		return err
	}
	printLandmarkReport(os.Stdout, report)
	return nil
}

func printMetric(w io.Writer, title string, pairs []batch.Pair, values []float64, topN int, descending bool) {
	summary, err := batch.Summarize(values)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "%s\n", title)
	fmt.Fprintf(w, "  pairs=%d mean=%.4f median=%.4f min=%.4f max=%.4f\n",
		summary.N, summary.Mean, summary.Median, summary.Min, summary.Max)
	if topN > 0 {
		fmt.Fprintf(w, "  worst %d:\n", topN)
		for _, r := range batch.TopN(values, topN, descending) {
			p := pairs[r.Index]
			fmt.Fprintf(w, "    %s_%s  %.4f\n", p.A.Patient, p.A.Visit, r.Value)
		}
	}
	fmt.Fprintln(w)
}

func printLandmarkReport(w io.Writer, report *batch.LandmarkReport) {
	fmt.Fprintf(w, "Landmark agreement at Dice >= %.2f\n", report.Threshold)
	fmt.Fprintf(w, "  hand TPR:  %.4f (%d pairs)\n", report.HandTPR, report.Pairs)
	fmt.Fprintf(w, "  joint TPR: %.4f (%d landmarks)\n", report.JointTPR, report.Landmarks)
	if len(report.Misses) > 0 {
		labels := make([]string, 0, len(report.Misses))
		for label := range report.Misses {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		fmt.Fprintln(w, "  misses per landmark:")
		for _, label := range labels {
			fmt.Fprintf(w, "    %-6s %d\n", label, report.Misses[label])
		}
	}
}

func runPick(args []string) error {
	fs := flag.NewFlagSet("pick", flag.ExitOnError)
	table := fs.String("table", "-", "quality-score table file (- for stdin)")
	fs.Parse(args)

	var r io.Reader = os.Stdin
	if *table != "-" {
		f, err := os.Open(*table)
		if err != nil {
			return fmt.Errorf("open table: %w", err)
		}
		defer f.Close()
		r = f
	}

	records, err := selection.ParseTable(r)
	if err != nil {
		return err
	}
	best, order, err := selection.SelectBest(records)
	if err != nil {
		return err
	}
	for _, key := range order {
		rec := best[key]
		fmt.Printf("%s %s %v\n", key, rec.SourceFile, rec.Score)
	}
	return nil
}

func runMeasure(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("measure", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to YAML config")
	fs.Parse(args)

	patches, err := expandImageArgs(fs.Args())
	if err != nil {
		return err
	}
	if len(patches) == 0 {
		return fmt.Errorf("measure: at least one patch image or directory is required")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}

	for _, path := range patches {
		img, err := imaging.Open(path)
		if err != nil {
			return fmt.Errorf("open patch: %w", err)
		}
		m := gap.Matrix(img)
		r, ok, err := gap.Measure(m, cfg.Gap)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if !ok {
			logger.Warn("no measurable joint space", "patch", path)
			fmt.Printf("%s -\n", path)
			continue
		}
		fmt.Printf("%s rows %d..%d width %d\n", path, r.Start, r.End-1, r.End-r.Start)
	}
	return nil
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	out := fs.String("out", "", "output directory (default: alongside each .pts file)")
	cfgPath := fs.String("config", "", "path to YAML config")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("convert: exactly one .pts file or directory is required")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}

	files := []string{fs.Arg(0)}
	if info, err := os.Stat(fs.Arg(0)); err == nil && info.IsDir() {
		files, err = filepath.Glob(filepath.Join(fs.Arg(0), "*.pts"))
		if err != nil {
			return fmt.Errorf("glob pts: %w", err)
		}
		if len(files) == 0 {
			return fmt.Errorf("no .pts files in %s", fs.Arg(0))
		}
	}
	if *out != "" {
		if err := os.MkdirAll(*out, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	for _, ptsPath := range files {
		if err := convertPts(ptsPath, *out, cfg.ROI); err != nil {
			return err
		}
	}
	return nil
}

func convertPts(ptsPath, outDir string, size roi.Size) error {
	f, err := os.Open(ptsPath)
	if err != nil {
		return fmt.Errorf("open pts: %w", err)
	}
	pts, err := roi.ParsePts(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", ptsPath, err)
	}

	joints, err := roi.FromBoneFinder(pts, size)
	if err != nil {
		return fmt.Errorf("%s: %w", ptsPath, err)
	}

	ann := &roi.Annotation{
		Attribs: string(roi.FlagBoneFinder),
		Joints:  joints,
	}
	ann.Patient, ann.Visit = roi.SplitStem(ptsPath)

	base := filepath.Base(ptsPath)
	name := base[:len(base)-len(filepath.Ext(base))] + ".txt"
	if outDir == "" {
		ann.InfoPath = filepath.Join(filepath.Dir(ptsPath), name)
	} else {
		ann.InfoPath = filepath.Join(outDir, name)
	}
	return ann.Save()
}

// expandImageArgs replaces directory arguments with the image files they
// contain.
func expandImageArgs(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		for _, pattern := range []string{"*.png", "*.jpg", "*.jpeg"} {
			matches, err := filepath.Glob(filepath.Join(arg, pattern))
			if err != nil {
				return nil, fmt.Errorf("glob %s: %w", arg, err)
			}
			out = append(out, matches...)
		}
	}
	sort.Strings(out)
	return out, nil
}

func runOverlay(args []string) error {
	fs := flag.NewFlagSet("overlay", flag.ExitOnError)
	annPath := fs.String("annotation", "", "annotation .txt file")
	imgPath := fs.String("image", "", "scan image")
	out := fs.String("out", "overlay.png", "output image")
	markers := fs.Bool("markers", false, "draw ROI orientation axes")
	contrast := fs.Float64("contrast", 0, "contrast adjustment in percent (-100..100)")
	cfgPath := fs.String("config", "", "path to YAML config")
	fs.Parse(args)

	if *annPath == "" || *imgPath == "" {
		return fmt.Errorf("overlay: -annotation and -image are required")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}

	ann, err := roi.LoadAnnotation(*annPath, cfg.ROI)
	if err != nil {
		return err
	}
	img, err := imaging.Open(*imgPath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}

	rendered := overlay.Render(img, ann, overlay.Options{
		Contrast: *contrast,
		Markers:  *markers,
	})
	if err := imaging.Save(rendered, *out); err != nil {
		return fmt.Errorf("save overlay: %w", err)
	}
	return nil
}
