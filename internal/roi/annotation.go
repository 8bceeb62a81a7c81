package roi

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Attribute flags carried on the first line of an annotation file.
const (
	// FlagQA marks a scan whose annotations were reviewed and modified.
	FlagQA = 'q'
	// FlagBoneFinder marks annotations converted from BoneFinder output.
	FlagBoneFinder = 'b'
)

// Annotation is the ordered landmark set for one scan. Joints are aligned
// positionally with the canonical label order; two annotations are
// comparable only when they have the same length.
type Annotation struct {
	Patient string
	Visit   string
	Attribs string
	Joints  []Descriptor

	// ImagePath and InfoPath reference the source files; the annotation
	// does not own the image.
	ImagePath string
	InfoPath  string

	// Modified is set by editing operations; saving a modified annotation
	// appends the QA flag.
	Modified bool
}

// HasFlag reports whether the attribute string carries the given flag.
func (a *Annotation) HasFlag(flag byte) bool {
	return strings.IndexByte(a.Attribs, flag) >= 0
}

// SetFlag adds a single-character attribute flag if not already present.
func (a *Annotation) SetFlag(flag byte) {
	if !a.HasFlag(flag) {
		a.Attribs += string(flag)
	}
}

// ParseAnnotation reads the annotation text format: one attribute line,
// then one "<label> <x> <y> <angle>" line per landmark in canonical order.
// The ROI size is not stored in the file and is supplied by the caller.
func ParseAnnotation(r io.Reader, size Size) (*Annotation, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read annotation: %w", err)
		}
		return nil, fmt.Errorf("annotation is empty")
	}
	ann := &Annotation{Attribs: strings.TrimSpace(sc.Text())}

	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 4 {
			return nil, fmt.Errorf("line %d: want 4 fields, got %d", line, len(fields))
		}
		x, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: x: %w", line, err)
		}
		y, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: y: %w", line, err)
		}
		angle, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: angle: %w", line, err)
		}
		ann.Joints = append(ann.Joints, Descriptor{
			X:     float64(x),
			Y:     float64(y),
			Angle: angle,
			W:     size.W,
			H:     size.H,
			Label: fields[0],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read annotation: %w", err)
	}
	return ann, nil
}

// LoadAnnotation reads an annotation file and derives the patient and
// visit identifiers from the file stem ("<patient>_<visit>").
func LoadAnnotation(path string, size Size) (*Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotation: %w", err)
	}
	defer f.Close()

	ann, err := ParseAnnotation(f, size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ann.InfoPath = path
	ann.Patient, ann.Visit = SplitStem(path)
	return ann, nil
}

// SplitStem splits a file name into the patient and visit identifiers.
// The visit is empty when the stem has no underscore.
func SplitStem(path string) (patient, visit string) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.SplitN(stem, "_", 3)
	patient = parts[0]
	if len(parts) > 1 {
		visit = parts[1]
	}
	return patient, visit
}

// WriteTo serializes the annotation in the text format. X and Y are
// written as integers, the angle in its shortest float representation.
func (a *Annotation) WriteTo(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s\n", a.Attribs); err != nil {
		return err
	}
	for _, j := range a.Joints {
		if _, err := fmt.Fprintf(w, "%s %d %d %v\n", j.Label, int(j.X), int(j.Y), j.Angle); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the annotation back to InfoPath, marking it as reviewed if
// it was modified. A missing InfoPath is derived from the image path.
func (a *Annotation) Save() error {
	if a.Modified {
		a.SetFlag(FlagQA)
	}
	if a.InfoPath == "" {
		if a.ImagePath == "" {
			return fmt.Errorf("annotation has no info or image path")
		}
		stem := strings.TrimSuffix(a.ImagePath, filepath.Ext(a.ImagePath))
		a.InfoPath = stem + ".txt"
	}
	f, err := os.Create(a.InfoPath)
	if err != nil {
		return fmt.Errorf("save annotation: %w", err)
	}
	if err := a.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("save annotation: %w", err)
	}
	return f.Close()
}
