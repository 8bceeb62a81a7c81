package roi

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/osteoimaging/xrayqa/internal/geometry"
)

// BoneFinder emits 37 landmark points per hand; the joints of interest are
// a fixed subset of them.
const boneFinderPoints = 37

// JointPoints is the 12-landmark extraction from a BoneFinder point set:
// one point per joint, in canonical label order.
type JointPoints [12]geometry.Point

// ExtendedPoints adds the fingertip point of each finger, required for
// angle computation: four points per finger, MCP to tip.
type ExtendedPoints [16]geometry.Point

// BoneFinder point indices per finger, MCP..tip, index through pinky.
var fingerIndices = [4][4]int{
	{18, 19, 20, 21},
	{13, 14, 15, 16},
	{8, 9, 10, 11},
	{3, 4, 5, 6},
}

// ParsePts reads a BoneFinder .pts file: a version line, a point count
// line, and x-y pairs inside a braced block. Coordinates are truncated to
// the pixel grid.
func ParsePts(r io.Reader) ([]geometry.Point, error) {
	sc := bufio.NewScanner(r)
	var pts []geometry.Point
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if line <= 2 || text == "{" || text == "}" || text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("pts line %d: want 2 coordinates, got %d", line, len(fields))
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("pts line %d: x: %w", line, err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("pts line %d: y: %w", line, err)
		}
		pts = append(pts, geometry.Point{X: int(x), Y: int(y)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read pts: %w", err)
	}
	return pts, nil
}

// SelectJoints extracts the 12 joint centers from a full BoneFinder point
// set.
func SelectJoints(pts []geometry.Point) (JointPoints, error) {
	var out JointPoints
	if len(pts) < boneFinderPoints {
		return out, fmt.Errorf("want %d bonefinder points, got %d", boneFinderPoints, len(pts))
	}
	i := 0
	for _, finger := range fingerIndices {
		for _, idx := range finger[:3] {
			out[i] = pts[idx]
			i++
		}
	}
	return out, nil
}

// SelectExtended extracts the 16-point variant including fingertips.
func SelectExtended(pts []geometry.Point) (ExtendedPoints, error) {
	var out ExtendedPoints
	if len(pts) < boneFinderPoints {
		return out, fmt.Errorf("want %d bonefinder points, got %d", boneFinderPoints, len(pts))
	}
	i := 0
	for _, finger := range fingerIndices {
		for _, idx := range finger {
			out[i] = pts[idx]
			i++
		}
	}
	return out, nil
}

// Angles derives the ROI angle of each joint as the direction from the
// joint to the next point up the finger.
func (e ExtendedPoints) Angles() [12]float64 {
	var angles [12]float64
	n := 0
	for finger := 0; finger < 4; finger++ {
		base := finger * 4
		for j := base; j < base+3; j++ {
			this := e[j]
			next := e[j+1]
			angles[n] = math.Atan2(float64(next.Y-this.Y), float64(next.X-this.X))
			n++
		}
	}
	return angles
}

// FromBoneFinder converts a parsed BoneFinder point set into landmark
// descriptors in canonical label order.
func FromBoneFinder(pts []geometry.Point, size Size) ([]Descriptor, error) {
	joints, err := SelectJoints(pts)
	if err != nil {
		return nil, err
	}
	extended, err := SelectExtended(pts)
	if err != nil {
		return nil, err
	}
	angles := extended.Angles()

	out := make([]Descriptor, len(joints))
	for i, p := range joints {
		out[i] = Descriptor{
			X:     float64(p.X),
			Y:     float64(p.Y),
			Angle: angles[i],
			W:     size.W,
			H:     size.H,
			Label: Labels[i],
		}
	}
	return out, nil
}
