package tracks_test

import (
	"testing"

	"formcheck/internal/tracks"
)

func TestEnsureCapacityGrowsWithDefaults(t *testing.T) {
	store := tracks.NewStore(60)
	store.EnsureCapacity(3)
	if store.Len() != 3 {
		t.Fatalf("expected 3 tracks, got %d", store.Len())
	}
	for i, tr := range store.Snapshot() {
		if tr.Index != i || tr.Angle != 0 || tr.Stage != tracks.StageUnset || tr.Count != 0 {
			t.Fatalf("unexpected default track %d: %+v", i, tr)
		}
	}
}

func TestEnsureCapacityNeverShrinks(t *testing.T) {
	store := tracks.NewStore(60)
	sizes := []int{2, 5, 1, 0, 4, 7, 3}
	prev := 0
	for _, n := range sizes {
		store.EnsureCapacity(n)
		if store.Len() < prev {
			t.Fatalf("store shrank from %d to %d", prev, store.Len())
		}
		if store.Len() < n {
			t.Fatalf("store has %d tracks, expected at least %d", store.Len(), n)
		}
		prev = store.Len()
	}
	if store.Len() != 7 {
		t.Fatalf("expected final size 7, got %d", store.Len())
	}
}

func TestUpdateClassifiesAgainstThreshold(t *testing.T) {
	store := tracks.NewStore(60)
	store.EnsureCapacity(2)

	cases := []struct {
		angle float64
		want  tracks.Stage
	}{
		{59.9, tracks.StageDanger},
		{60, tracks.StageNormal},
		{120, tracks.StageNormal},
		{0, tracks.StageDanger},
	}
	for _, tc := range cases {
		got, err := store.Update(1, tc.angle)
		if err != nil {
			t.Fatalf("Update(%v): %v", tc.angle, err)
		}
		if got != tc.want {
			t.Fatalf("Update(%v) stage = %s, want %s", tc.angle, got, tc.want)
		}
	}
	tr, ok := store.Track(1)
	if !ok || tr.Angle != 0 {
		t.Fatalf("unexpected track state: %+v ok=%v", tr, ok)
	}
	untouched, _ := store.Track(0)
	if untouched.Stage != tracks.StageUnset {
		t.Fatalf("slot 0 should be untouched, got %+v", untouched)
	}
}

func TestUpdateCountsDangerEntries(t *testing.T) {
	store := tracks.NewStore(60)
	store.EnsureCapacity(1)
	for _, angle := range []float64{90, 50, 40, 100, 30, 170} {
		if _, err := store.Update(0, angle); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	tr, _ := store.Track(0)
	if tr.Count != 2 {
		t.Fatalf("expected 2 danger entries, got %d", tr.Count)
	}
}

func TestUpdateOutOfRange(t *testing.T) {
	store := tracks.NewStore(60)
	if _, err := store.Update(0, 10); err == nil {
		t.Fatal("expected error updating empty store")
	}
	store.EnsureCapacity(1)
	if _, err := store.Update(-1, 10); err == nil {
		t.Fatal("expected error for negative index")
	}
	if _, ok := store.Track(5); ok {
		t.Fatal("expected missing track")
	}
}
