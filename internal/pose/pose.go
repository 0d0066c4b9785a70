package pose

import (
	"context"
	"fmt"
	"image"

	"formcheck/internal/frame"
)

// Point is a pixel coordinate.
type Point struct {
	X float64
	Y float64
}

// ImagePoint rounds p to the nearest pixel.
func (p Point) ImagePoint() image.Point {
	return image.Pt(int(p.X+0.5), int(p.Y+0.5))
}

// Keypoint is one skeleton landmark with the model's visibility confidence.
type Keypoint struct {
	Point
	Confidence float64
}

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	X1, Y1, X2, Y2 float64
}

// Area returns the box area; degenerate boxes have zero area.
func (b Box) Area() float64 {
	w := b.X2 - b.X1
	h := b.Y2 - b.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU returns the intersection-over-union of two boxes.
func (b Box) IoU(other Box) float64 {
	inter := Box{
		X1: max(b.X1, other.X1),
		Y1: max(b.Y1, other.Y1),
		X2: min(b.X2, other.X2),
		Y2: min(b.Y2, other.Y2),
	}.Area()
	if inter == 0 {
		return 0
	}
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Detection is one tracked person in a frame.
type Detection struct {
	TrackID   int
	Box       Box
	Score     float64
	Keypoints []Keypoint
}

// Tracker locates people in successive frames of one video and keeps their
// identities across frames. Implementations are stateful and must not be
// shared between concurrent scans.
type Tracker interface {
	Track(ctx context.Context, f frame.Frame) ([]Detection, error)
	Close() error
}

// TrackerFactory creates a fresh tracker for a single scan.
type TrackerFactory func() (Tracker, error)

// Triple names the three landmarks that form a joint angle; the middle index is
// the vertex.
type Triple [3]int

// Vertex returns the landmark index at which the angle is measured.
func (t Triple) Vertex() int { return t[1] }

// Extract returns the triple's three points from kps. It fails when kps is too
// short to contain any of the indices.
func (t Triple) Extract(kps []Keypoint) (a, b, c Point, err error) {
	for _, idx := range t {
		if idx < 0 || idx >= len(kps) {
			return Point{}, Point{}, Point{}, fmt.Errorf("keypoint %d missing (have %d)", idx, len(kps))
		}
	}
	return kps[t[0]].Point, kps[t[1]].Point, kps[t[2]].Point, nil
}

// NewTriple converts configuration values into a Triple.
func NewTriple(indices []int) (Triple, error) {
	if len(indices) != 3 {
		return Triple{}, fmt.Errorf("keypoint triple needs 3 indices, got %d", len(indices))
	}
	return Triple{indices[0], indices[1], indices[2]}, nil
}
