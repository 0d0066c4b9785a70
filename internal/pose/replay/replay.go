package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"formcheck/internal/frame"
	"formcheck/internal/pose"
)

// File is the on-disk form of recorded detections.
type File struct {
	Frames []Frame `json:"frames"`
}

// Frame holds the people detected in one frame index.
type Frame struct {
	Index  int      `json:"index"`
	People []Person `json:"people"`
}

// Person is one detection; Keypoints are [x, y, confidence] triples.
type Person struct {
	TrackID   int          `json:"track_id"`
	Score     float64      `json:"score"`
	Box       []float64    `json:"box,omitempty"`
	Keypoints [][3]float64 `json:"keypoints"`
}

// Recording is a parsed replay file indexed by frame.
type Recording struct {
	byFrame map[int][]pose.Detection
}

// Load reads a replay file from disk.
func Load(path string) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read replay file: %w", err)
	}
	return Parse(data)
}

// Parse decodes replay JSON.
func Parse(data []byte) (*Recording, error) {
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode replay file: %w", err)
	}
	rec := &Recording{byFrame: make(map[int][]pose.Detection, len(file.Frames))}
	for _, fr := range file.Frames {
		if fr.Index < 0 {
			return nil, fmt.Errorf("replay frame index %d is negative", fr.Index)
		}
		for i, p := range fr.People {
			det, err := p.detection()
			if err != nil {
				return nil, fmt.Errorf("replay frame %d person %d: %w", fr.Index, i, err)
			}
			rec.byFrame[fr.Index] = append(rec.byFrame[fr.Index], det)
		}
	}
	return rec, nil
}

// Frames returns how many frame indices carry detections.
func (r *Recording) Frames() int { return len(r.byFrame) }

// Tracker returns a tracker that replays this recording. Recordings are
// read-only, so trackers from the same recording may run concurrently.
func (r *Recording) Tracker() pose.Tracker {
	return &tracker{rec: r}
}

// Factory adapts a recording into a pose.TrackerFactory.
func (r *Recording) Factory() pose.TrackerFactory {
	return func() (pose.Tracker, error) { return r.Tracker(), nil }
}

type tracker struct {
	rec *Recording
}

func (t *tracker) Track(ctx context.Context, f frame.Frame) ([]pose.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dets := t.rec.byFrame[f.Index()]
	out := make([]pose.Detection, len(dets))
	for i, d := range dets {
		d.Keypoints = append([]pose.Keypoint(nil), d.Keypoints...)
		out[i] = d
	}
	return out, nil
}

func (t *tracker) Close() error { return nil }

func (p Person) detection() (pose.Detection, error) {
	kps := make([]pose.Keypoint, len(p.Keypoints))
	for i, k := range p.Keypoints {
		kps[i] = pose.Keypoint{Point: pose.Point{X: k[0], Y: k[1]}, Confidence: k[2]}
	}
	det := pose.Detection{TrackID: p.TrackID, Score: p.Score, Keypoints: kps}
	switch len(p.Box) {
	case 0:
		det.Box = boundingBox(kps)
	case 4:
		det.Box = pose.Box{X1: p.Box[0], Y1: p.Box[1], X2: p.Box[2], Y2: p.Box[3]}
	default:
		return pose.Detection{}, fmt.Errorf("box needs 4 values, got %d", len(p.Box))
	}
	return det, nil
}

func boundingBox(kps []pose.Keypoint) pose.Box {
	if len(kps) == 0 {
		return pose.Box{}
	}
	box := pose.Box{X1: math.Inf(1), Y1: math.Inf(1), X2: math.Inf(-1), Y2: math.Inf(-1)}
	for _, k := range kps {
		box.X1 = min(box.X1, k.X)
		box.Y1 = min(box.Y1, k.Y)
		box.X2 = max(box.X2, k.X)
		box.Y2 = max(box.Y2, k.Y)
	}
	return box
}
