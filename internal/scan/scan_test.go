package scan_test

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"formcheck/internal/config"
	"formcheck/internal/pose"
	"formcheck/internal/scan"
	"formcheck/internal/services"
	"formcheck/internal/testsupport"
	"formcheck/internal/tracks"
)

func defaultSettings(t *testing.T) scan.Settings {
	t.Helper()
	cfg := config.Default()
	settings, err := scan.SettingsFromConfig(&cfg)
	if err != nil {
		t.Fatalf("SettingsFromConfig: %v", err)
	}
	return settings
}

func newScanner(t *testing.T) *scan.Scanner {
	t.Helper()
	return scan.NewScanner(defaultSettings(t), scan.Bounds{Min: 1, Max: 30}, nil)
}

func TestScanPicksLowestAngleFrame(t *testing.T) {
	tracker := testsupport.NewTracker(map[int][]pose.Detection{
		0:  {testsupport.Person(1, 200, 300, 120)},
		10: {testsupport.Person(1, 200, 300, 45)},
		20: {testsupport.Person(1, 200, 300, 90)},
	})
	src := testsupport.NewSource(25)

	best, err := newScanner(t).Scan(context.Background(), src, tracker, 10, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	defer best.Close()

	if best.FrameIndex != 10 {
		t.Fatalf("expected best frame 10, got %d", best.FrameIndex)
	}
	if math.Abs(best.MinAngle-45) > 1e-6 {
		t.Fatalf("expected min angle 45, got %f", best.MinAngle)
	}
	if best.ProcessedFrames != 3 {
		t.Fatalf("expected 3 processed frames, got %d", best.ProcessedFrames)
	}
	if best.TotalFrames != 25 {
		t.Fatalf("expected 25 total frames, got %d", best.TotalFrames)
	}
	calls := tracker.Calls()
	if len(calls) != 3 || calls[0] != 0 || calls[1] != 10 || calls[2] != 20 {
		t.Fatalf("unexpected sampled frames %v", calls)
	}
}

func TestScanKeepsEarliestFrameOnTie(t *testing.T) {
	tracker := testsupport.NewTracker(map[int][]pose.Detection{
		0: {testsupport.Person(1, 200, 300, 70)},
		2: {testsupport.Person(1, 200, 300, 70)},
	})
	best, err := newScanner(t).Scan(context.Background(), testsupport.NewSource(4), tracker, 2, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	defer best.Close()
	if best.FrameIndex != 0 {
		t.Fatalf("expected tie to keep frame 0, got %d", best.FrameIndex)
	}
}

func TestScanWithoutPeopleReturnsFirstFrame(t *testing.T) {
	tracker := testsupport.NewTracker(nil)
	best, err := newScanner(t).Scan(context.Background(), testsupport.NewSource(5), tracker, 1, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	defer best.Close()
	if best.FrameIndex != 0 || best.MinAngle != pose.NoAngle {
		t.Fatalf("expected frame 0 at %v, got frame %d at %v", pose.NoAngle, best.FrameIndex, best.MinAngle)
	}
	if best.ProcessedFrames != 5 {
		t.Fatalf("expected 5 processed frames, got %d", best.ProcessedFrames)
	}
}

func TestScanEmptySource(t *testing.T) {
	_, err := newScanner(t).Scan(context.Background(), testsupport.NewSource(0), testsupport.NewTracker(nil), 1, nil)
	if !errors.Is(err, services.ErrNoFramesFound) {
		t.Fatalf("expected ErrNoFramesFound, got %v", err)
	}
	if got := services.Cause(err); got != "No valid frames found in video" {
		t.Fatalf("unexpected cause %q", got)
	}
	if services.HTTPStatus(err) != 400 {
		t.Fatalf("expected 400, got %d", services.HTTPStatus(err))
	}
}

func TestScanRejectsFrameSkipOutOfRange(t *testing.T) {
	scanner := newScanner(t)
	for _, skip := range []int{0, 31, -1} {
		_, err := scanner.Scan(context.Background(), testsupport.NewSource(3), testsupport.NewTracker(nil), skip, nil)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("skip %d: expected ErrValidation, got %v", skip, err)
		}
		if services.HTTPStatus(err) != 422 {
			t.Fatalf("skip %d: expected 422, got %d", skip, services.HTTPStatus(err))
		}
	}
}

func TestScanBestFrameIsIndependentCopy(t *testing.T) {
	tracker := testsupport.NewTracker(map[int][]pose.Detection{
		0: {testsupport.Person(1, 200, 300, 30)},
		1: {testsupport.Person(1, 200, 300, 90)},
	})
	best, err := newScanner(t).Scan(context.Background(), testsupport.NewSource(2), tracker, 1, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	defer best.Close()
	f, ok := best.Frame.(*testsupport.Frame)
	if !ok {
		t.Fatalf("unexpected frame type %T", best.Frame)
	}
	marks := f.Marks()
	if len(marks) != 1 {
		t.Fatalf("expected exactly the best frame's own mark, got %d", len(marks))
	}
}

func TestScanReportsProgress(t *testing.T) {
	var seen []scan.Progress
	best, err := newScanner(t).Scan(context.Background(), testsupport.NewSource(9), testsupport.NewTracker(nil), 3, func(p scan.Progress) {
		seen = append(seen, p)
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	defer best.Close()
	if len(seen) != 3 {
		t.Fatalf("expected 3 progress events, got %d", len(seen))
	}
	if last := seen[len(seen)-1]; last.FrameIndex != 6 || last.Processed != 3 || last.Total != 9 {
		t.Fatalf("unexpected final progress %+v", last)
	}
}

func TestScanIsDeterministic(t *testing.T) {
	detections := map[int][]pose.Detection{
		0:  {testsupport.Person(1, 200, 300, 110)},
		4:  {testsupport.Person(1, 200, 300, 52), testsupport.Person(2, 400, 300, 75)},
		8:  {testsupport.Person(1, 200, 300, 52)},
		12: {testsupport.Person(1, 200, 300, 88)},
	}
	scanner := newScanner(t)
	run := func() (*scan.BestFrame, []testsupport.Mark) {
		best, err := scanner.Scan(context.Background(), testsupport.NewSource(15), testsupport.NewTracker(detections), 4, nil)
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		t.Cleanup(func() { _ = best.Close() })
		f, ok := best.Frame.(*testsupport.Frame)
		if !ok {
			t.Fatalf("unexpected frame type %T", best.Frame)
		}
		return best, f.Marks()
	}

	first, firstMarks := run()
	second, secondMarks := run()

	if first.FrameIndex != 4 || second.FrameIndex != first.FrameIndex {
		t.Fatalf("best frame differs between runs: %d vs %d", first.FrameIndex, second.FrameIndex)
	}
	if first.MinAngle != second.MinAngle {
		t.Fatalf("min angle differs between runs: %v vs %v", first.MinAngle, second.MinAngle)
	}
	if first.ProcessedFrames != second.ProcessedFrames || first.TotalFrames != second.TotalFrames {
		t.Fatalf("counters differ between runs: %+v vs %+v", first, second)
	}
	if len(firstMarks) != 2 || !slices.Equal(firstMarks, secondMarks) {
		t.Fatalf("overlay differs between runs: %+v vs %+v", firstMarks, secondMarks)
	}
}

func TestScanSourceFailure(t *testing.T) {
	src := testsupport.NewSource(5)
	src.FailAt = 2
	_, err := newScanner(t).Scan(context.Background(), src, testsupport.NewTracker(nil), 1, nil)
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestScanTrackerFailure(t *testing.T) {
	tracker := testsupport.NewTracker(nil)
	tracker.Err = errors.New("inference failed")
	_, err := newScanner(t).Scan(context.Background(), testsupport.NewSource(2), tracker, 1, nil)
	if err == nil || services.HTTPStatus(err) != 500 {
		t.Fatalf("expected 500-class error, got %v", err)
	}
	if got := services.Cause(err); got != "track frame 0: inference failed" {
		t.Fatalf("expected frame context in cause, got %q", got)
	}
}

func TestScanFallsBackToReadCountWhenUnreported(t *testing.T) {
	src := testsupport.NewSource(4)
	src.Reported = 0
	best, err := newScanner(t).Scan(context.Background(), src, testsupport.NewTracker(nil), 1, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	defer best.Close()
	if best.TotalFrames != 4 {
		t.Fatalf("expected total 4, got %d", best.TotalFrames)
	}
}

func TestScorerSlotsFollowReversedOrder(t *testing.T) {
	store := tracks.NewStore(60)
	tracker := testsupport.NewTracker(map[int][]pose.Detection{
		0: {
			testsupport.Person(7, 100, 300, 30),
			testsupport.Person(9, 300, 300, 150),
		},
	})
	scorer := scan.NewScorer(tracker, store, defaultSettings(t), nil)

	f := testsupport.NewFrame(0, 640, 480)
	_, angle, err := scorer.Score(context.Background(), f)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.Abs(angle-30) > 1e-6 {
		t.Fatalf("expected frame angle 30, got %f", angle)
	}

	slot0, _ := store.Track(0)
	slot1, _ := store.Track(1)
	if slot0.Stage != tracks.StageNormal || math.Abs(slot0.Angle-150) > 1e-6 {
		t.Fatalf("slot 0 should hold the last detection, got %+v", slot0)
	}
	if slot1.Stage != tracks.StageDanger || slot1.Count != 1 {
		t.Fatalf("slot 1 should hold the first detection in danger, got %+v", slot1)
	}
}

func TestScorerDrawsCircleWithStageColor(t *testing.T) {
	settings := defaultSettings(t)
	tracker := testsupport.NewTracker(map[int][]pose.Detection{
		0: {testsupport.Person(1, 200.7, 300.2, 40)},
		1: {testsupport.Person(1, 200, 300, 100)},
	})
	scorer := scan.NewScorer(tracker, tracks.NewStore(settings.DangerAngle), settings, nil)

	danger := testsupport.NewFrame(0, 640, 480)
	if _, _, err := scorer.Score(context.Background(), danger); err != nil {
		t.Fatalf("Score: %v", err)
	}
	marks := danger.Marks()
	if len(marks) != 1 || marks[0].Kind != "circle" {
		t.Fatalf("expected one circle, got %+v", marks)
	}
	if marks[0].From.X != 200+settings.Overlay.OffsetX || marks[0].From.Y != 300 {
		t.Fatalf("unexpected circle center %v", marks[0].From)
	}
	if marks[0].Color != settings.Overlay.Danger || marks[0].Radius != settings.Overlay.Radius {
		t.Fatalf("unexpected circle style %+v", marks[0])
	}

	normal := testsupport.NewFrame(1, 640, 480)
	if _, _, err := scorer.Score(context.Background(), normal); err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got := normal.Marks()[0].Color; got != settings.Overlay.Normal {
		t.Fatalf("expected normal color, got %v", got)
	}
}

func TestScorerLineStyle(t *testing.T) {
	settings := defaultSettings(t)
	settings.Overlay.Style = scan.OverlayLines
	tracker := testsupport.NewTracker(map[int][]pose.Detection{0: {testsupport.Person(1, 200, 300, 90)}})
	scorer := scan.NewScorer(tracker, tracks.NewStore(settings.DangerAngle), settings, nil)

	f := testsupport.NewFrame(0, 640, 480)
	if _, _, err := scorer.Score(context.Background(), f); err != nil {
		t.Fatalf("Score: %v", err)
	}
	marks := f.Marks()
	if len(marks) != 2 || marks[0].Kind != "line" || marks[1].Kind != "line" {
		t.Fatalf("expected two lines, got %+v", marks)
	}
	if marks[0].Thickness != settings.Overlay.LineWidth {
		t.Fatalf("expected line width %d, got %d", settings.Overlay.LineWidth, marks[0].Thickness)
	}
}

func TestScorerSkipsDetectionsMissingKeypoints(t *testing.T) {
	short := pose.Detection{TrackID: 3, Keypoints: make([]pose.Keypoint, 5)}
	tracker := testsupport.NewTracker(map[int][]pose.Detection{0: {short}})
	store := tracks.NewStore(60)
	scorer := scan.NewScorer(tracker, store, defaultSettings(t), nil)

	f := testsupport.NewFrame(0, 640, 480)
	_, angle, err := scorer.Score(context.Background(), f)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if angle != pose.NoAngle {
		t.Fatalf("expected %v, got %v", pose.NoAngle, angle)
	}
	if len(f.Marks()) != 0 {
		t.Fatalf("expected no marks")
	}
	if store.Len() != 1 {
		t.Fatalf("expected slot to exist, got %d", store.Len())
	}
}
