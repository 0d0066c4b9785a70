package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"formcheck/internal/frame"
	"formcheck/internal/logging"
	"formcheck/internal/pose"
	"formcheck/internal/services"
	"formcheck/internal/tracks"
)

// Source yields decoded frames in order and reports io.EOF when exhausted.
type Source interface {
	Read(ctx context.Context) (frame.Frame, error)
	FrameCount() int
}

// BestFrame is the annotated frame with the lowest angle seen during a scan.
// The caller owns Frame and must Close the BestFrame.
type BestFrame struct {
	Frame           frame.Frame
	MinAngle        float64
	FrameIndex      int
	TotalFrames     int
	ProcessedFrames int
}

// Close releases the frame buffer.
func (b *BestFrame) Close() error {
	if b == nil || b.Frame == nil {
		return nil
	}
	err := b.Frame.Close()
	b.Frame = nil
	return err
}

// Progress is reported after every scored frame.
type Progress struct {
	FrameIndex int
	Processed  int
	Total      int
	MinAngle   float64
}

// ProgressFunc receives scan progress; it runs on the scanning goroutine.
type ProgressFunc func(Progress)

// Bounds limits the accepted frame skip.
type Bounds struct {
	Min int
	Max int
}

// Scanner runs the sampling loop over a video.
type Scanner struct {
	settings Settings
	bounds   Bounds
	logger   *slog.Logger
}

// NewScanner constructs a scanner.
func NewScanner(settings Settings, bounds Bounds, logger *slog.Logger) *Scanner {
	return &Scanner{
		settings: settings,
		bounds:   bounds,
		logger:   logging.NewComponentLogger(logger, "scan"),
	}
}

// ValidateFrameSkip checks frameSkip against the configured bounds.
func (s *Scanner) ValidateFrameSkip(frameSkip int) error {
	if frameSkip < s.bounds.Min || frameSkip > s.bounds.Max {
		return services.Wrap(services.ErrValidation, "scan", "frame_skip", "",
			fmt.Errorf("frame_skip must be between %d and %d", s.bounds.Min, s.bounds.Max))
	}
	return nil
}

// Scan scores every frame whose absolute index is a multiple of frameSkip and
// returns a deep copy of the annotated frame with the strictly lowest angle.
// Ties keep the earliest frame. Each call uses a fresh track store; tracker
// must not be shared with another scan.
func (s *Scanner) Scan(ctx context.Context, src Source, tracker pose.Tracker, frameSkip int, progress ProgressFunc) (*BestFrame, error) {
	if err := s.ValidateFrameSkip(frameSkip); err != nil {
		return nil, err
	}

	logger := logging.WithContext(ctx, s.logger)
	scorer := NewScorer(tracker, tracks.NewStore(s.settings.DangerAngle), s.settings, logger)
	sampler := logging.NewProgressSampler(20)

	total := src.FrameCount()
	best := &BestFrame{MinAngle: math.Inf(1), TotalFrames: total}
	started := time.Now()
	index := 0

	logger.Info("scan started",
		logging.Int("total_frames", total),
		logging.Int("frame_skip", frameSkip),
	)

	for ; ; index++ {
		f, err := src.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = best.Close()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, services.Wrap(services.ErrSourceUnavailable, "scan", "read frame", "", err)
		}
		if index%frameSkip != 0 {
			continue
		}

		scored, angle, err := scorer.Score(ctx, f)
		if err != nil {
			_ = best.Close()
			return nil, services.Wrap(services.ErrTransient, "scan", "score", "", err)
		}
		best.ProcessedFrames++

		if angle < best.MinAngle {
			_ = best.Close()
			best.Frame = scored.Clone()
			best.MinAngle = angle
			best.FrameIndex = index
		}

		if progress != nil {
			progress(Progress{FrameIndex: index, Processed: best.ProcessedFrames, Total: total, MinAngle: best.MinAngle})
		}
		if sampler.ShouldLog(best.ProcessedFrames) {
			logger.Info("scan progress",
				logging.Int("processed", best.ProcessedFrames),
				logging.Int("frame", index),
				logging.Int("total_frames", total),
				logging.Angle("min_angle", best.MinAngle),
			)
		}
	}

	if best.TotalFrames <= 0 {
		best.TotalFrames = index
	}
	if best.Frame == nil {
		return nil, services.Wrap(services.ErrNoFramesFound, "scan", "", "",
			errors.New("No valid frames found in video"))
	}

	logger.Info("scan complete",
		logging.Int("processed", best.ProcessedFrames),
		logging.Int("best_frame", best.FrameIndex),
		logging.Angle("min_angle", best.MinAngle),
		logging.Duration("elapsed", time.Since(started)),
	)
	return best, nil
}
