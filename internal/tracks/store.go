package tracks

import "fmt"

// Stage classifies a track's most recent angle.
type Stage string

const (
	StageUnset  Stage = "-"
	StageNormal Stage = "normal"
	StageDanger Stage = "danger"
)

// Track is the per-slot state of one tracked person.
type Track struct {
	Index int
	Angle float64
	Stage Stage
	// Count is how many times the track has entered the danger stage.
	Count int
}

// Store holds per-slot track state for one scan. Slots are created on demand,
// never removed, and never reordered.
type Store struct {
	threshold float64
	tracks    []Track
}

// NewStore creates an empty store classifying angles below threshold as danger.
func NewStore(threshold float64) *Store {
	return &Store{threshold: threshold}
}

// EnsureCapacity appends default tracks until the store holds at least n.
// It never shrinks.
func (s *Store) EnsureCapacity(n int) {
	for len(s.tracks) < n {
		s.tracks = append(s.tracks, Track{Index: len(s.tracks), Stage: StageUnset})
	}
}

// Update records angle for the slot at index and reclassifies it. It returns
// the new stage.
func (s *Store) Update(index int, angle float64) (Stage, error) {
	if index < 0 || index >= len(s.tracks) {
		return StageUnset, fmt.Errorf("track slot %d out of range (have %d)", index, len(s.tracks))
	}
	t := &s.tracks[index]
	t.Angle = angle
	next := s.classify(angle)
	if next == StageDanger && t.Stage != StageDanger {
		t.Count++
	}
	t.Stage = next
	return next, nil
}

// Len returns the number of slots.
func (s *Store) Len() int { return len(s.tracks) }

// Track returns a copy of the slot at index.
func (s *Store) Track(index int) (Track, bool) {
	if index < 0 || index >= len(s.tracks) {
		return Track{}, false
	}
	return s.tracks[index], true
}

// Snapshot returns a copy of every slot in index order.
func (s *Store) Snapshot() []Track {
	out := make([]Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// Threshold returns the danger threshold in degrees.
func (s *Store) Threshold() float64 { return s.threshold }

func (s *Store) classify(angle float64) Stage {
	if angle < s.threshold {
		return StageDanger
	}
	return StageNormal
}
