package yolo

import "formcheck/internal/pose"

type trackedBox struct {
	id     int
	box    pose.Box
	missed int
}

// Identity assigns persistent track IDs to per-frame detections by greedy
// box overlap with the previous frame's tracks.
type Identity struct {
	minIoU    float64
	maxMissed int
	nextID    int
	active    []trackedBox
}

// NewIdentity returns an empty identity assigner. Tracks unmatched for more
// than maxMissed frames are forgotten.
func NewIdentity(minIoU float64, maxMissed int) *Identity {
	return &Identity{minIoU: minIoU, maxMissed: maxMissed, nextID: 1}
}

// Assign sets TrackID on each detection in place, preserving order.
func (t *Identity) Assign(dets []pose.Detection) {
	matched := make([]bool, len(t.active))
	for i := range dets {
		bestIdx, bestIoU := -1, t.minIoU
		for j, tr := range t.active {
			if matched[j] {
				continue
			}
			if iou := dets[i].Box.IoU(tr.box); iou >= bestIoU {
				bestIdx, bestIoU = j, iou
			}
		}
		if bestIdx >= 0 {
			matched[bestIdx] = true
			t.active[bestIdx].box = dets[i].Box
			t.active[bestIdx].missed = 0
			dets[i].TrackID = t.active[bestIdx].id
			continue
		}
		dets[i].TrackID = t.nextID
		t.active = append(t.active, trackedBox{id: t.nextID, box: dets[i].Box})
		matched = append(matched, true)
		t.nextID++
	}

	kept := t.active[:0]
	for j, tr := range t.active {
		if !matched[j] {
			tr.missed++
		}
		if tr.missed <= t.maxMissed {
			kept = append(kept, tr)
		}
	}
	t.active = kept
}

// Active returns the number of remembered tracks.
func (t *Identity) Active() int { return len(t.active) }
