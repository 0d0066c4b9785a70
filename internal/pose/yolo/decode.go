package yolo

import (
	"fmt"
	"sort"

	"formcheck/internal/pose"
)

const (
	// KeypointCount is the COCO skeleton size produced by YOLO pose models.
	KeypointCount = 17
	// Channels is the per-anchor row width: box(4) + score(1) + 17*(x, y, conf).
	Channels = 5 + KeypointCount*3
)

var strides = []int{8, 16, 32}

// Anchors returns the number of prediction anchors for a square input of the
// given size.
func Anchors(inputSize int) int {
	total := 0
	for _, s := range strides {
		n := inputSize / s
		total += n * n
	}
	return total
}

// Scale maps model-space coordinates back to the source frame.
type Scale struct {
	X float64
	Y float64
}

// Decode turns a channel-major [Channels, anchors] output into detections above
// threshold, in source-frame pixels.
func Decode(output []float32, anchors int, threshold float64, scale Scale) ([]pose.Detection, error) {
	if anchors <= 0 {
		return nil, fmt.Errorf("decode: invalid anchor count %d", anchors)
	}
	if len(output) < Channels*anchors {
		return nil, fmt.Errorf("decode: output has %d values, want %d", len(output), Channels*anchors)
	}
	at := func(ch, i int) float64 { return float64(output[ch*anchors+i]) }

	var dets []pose.Detection
	for i := 0; i < anchors; i++ {
		score := at(4, i)
		if score < threshold {
			continue
		}
		cx, cy, w, h := at(0, i), at(1, i), at(2, i), at(3, i)
		det := pose.Detection{
			Score: score,
			Box: pose.Box{
				X1: (cx - w/2) * scale.X,
				Y1: (cy - h/2) * scale.Y,
				X2: (cx + w/2) * scale.X,
				Y2: (cy + h/2) * scale.Y,
			},
			Keypoints: make([]pose.Keypoint, KeypointCount),
		}
		for k := 0; k < KeypointCount; k++ {
			base := 5 + k*3
			det.Keypoints[k] = pose.Keypoint{
				Point:      pose.Point{X: at(base, i) * scale.X, Y: at(base+1, i) * scale.Y},
				Confidence: at(base+2, i),
			}
		}
		dets = append(dets, det)
	}
	return dets, nil
}

// Suppress applies greedy non-maximum suppression and returns the kept
// detections ordered by descending score.
func Suppress(dets []pose.Detection, iouThreshold float64) []pose.Detection {
	sorted := append([]pose.Detection(nil), dets...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	kept := make([]pose.Detection, 0, len(sorted))
	for _, cand := range sorted {
		overlaps := false
		for _, k := range kept {
			if cand.Box.IoU(k.Box) > iouThreshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, cand)
		}
	}
	return kept
}
