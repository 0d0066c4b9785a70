package scan

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"formcheck/internal/config"
	"formcheck/internal/frame"
	"formcheck/internal/logging"
	"formcheck/internal/pose"
	"formcheck/internal/tracks"
)

const (
	OverlayCircle = "circle"
	OverlayLines  = "lines"
)

// Overlay describes the indicator drawn for every measured person.
type Overlay struct {
	Style     string
	OffsetX   int
	Radius    int
	Thickness int
	LineWidth int
	Danger    color.RGBA
	Normal    color.RGBA
}

// Settings holds everything a Scorer needs besides its collaborators.
type Settings struct {
	Triple      pose.Triple
	DangerAngle float64
	Overlay     Overlay
}

// SettingsFromConfig derives scoring settings from configuration.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	triple, err := pose.NewTriple(cfg.Scan.Keypoints)
	if err != nil {
		return Settings{}, fmt.Errorf("scan settings: %w", err)
	}
	return Settings{
		Triple:      triple,
		DangerAngle: cfg.Scan.DangerAngle,
		Overlay: Overlay{
			Style:     cfg.Overlay.Style,
			OffsetX:   cfg.Overlay.CircleOffsetX,
			Radius:    cfg.Overlay.CircleRadius,
			Thickness: cfg.Overlay.CircleThickness,
			LineWidth: cfg.Overlay.LineWidth,
			Danger:    frame.RGB(cfg.Overlay.DangerColor),
			Normal:    frame.RGB(cfg.Overlay.NormalColor),
		},
	}, nil
}

// Scorer measures the configured joint angle of every tracked person in a
// frame, records it in the track store, and draws the indicator.
type Scorer struct {
	tracker  pose.Tracker
	store    *tracks.Store
	settings Settings
	logger   *slog.Logger
}

// NewScorer wires a scorer to its per-scan tracker and store.
func NewScorer(tracker pose.Tracker, store *tracks.Store, settings Settings, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scorer{tracker: tracker, store: store, settings: settings, logger: logger}
}

// Score annotates f in place and returns it with the smallest angle measured
// in it. A frame without people, or whose people all lack the required
// keypoints, scores pose.NoAngle.
//
// Detections are walked in reverse tracker order and each one is stored in the
// slot equal to its position in that reversed walk, not its tracker identity.
// Slot state therefore follows the person's rank within the frame.
func (s *Scorer) Score(ctx context.Context, f frame.Frame) (frame.Frame, float64, error) {
	detections, err := s.tracker.Track(ctx, f)
	if err != nil {
		return f, pose.NoAngle, fmt.Errorf("track frame %d: %w", f.Index(), err)
	}
	if len(detections) == 0 {
		return f, pose.NoAngle, nil
	}

	s.store.EnsureCapacity(len(detections))
	minAngle := math.Inf(1)

	for slot := 0; slot < len(detections); slot++ {
		det := detections[len(detections)-1-slot]
		a, b, c, err := s.settings.Triple.Extract(det.Keypoints)
		if err != nil {
			s.logger.Debug("detection skipped",
				logging.Int("frame", f.Index()),
				logging.Int("track_id", det.TrackID),
				logging.Error(err),
			)
			continue
		}
		angle := pose.EstimateAngle(a, b, c)
		stage, err := s.store.Update(slot, angle)
		if err != nil {
			return f, pose.NoAngle, fmt.Errorf("update track slot: %w", err)
		}
		minAngle = min(minAngle, angle)
		s.draw(f, a, b, c, stage)
	}

	if math.IsInf(minAngle, 1) {
		return f, pose.NoAngle, nil
	}
	return f, minAngle, nil
}

func (s *Scorer) draw(f frame.Frame, a, b, c pose.Point, stage tracks.Stage) {
	ov := s.settings.Overlay
	col := ov.Normal
	if stage == tracks.StageDanger {
		col = ov.Danger
	}
	switch ov.Style {
	case OverlayLines:
		f.Line(truncate(a), truncate(b), col, ov.LineWidth)
		f.Line(truncate(b), truncate(c), col, ov.LineWidth)
	default:
		center := truncate(b)
		center.X += ov.OffsetX
		f.Circle(center, ov.Radius, col, ov.Thickness)
	}
}

func truncate(p pose.Point) image.Point {
	return image.Pt(int(p.X), int(p.Y))
}
