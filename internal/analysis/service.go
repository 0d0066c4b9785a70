package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"formcheck/internal/fetch"
	"formcheck/internal/logging"
	"formcheck/internal/pose"
	"formcheck/internal/scan"
	"formcheck/internal/services"
)

// Source is a decoded video that must be closed after scanning.
type Source interface {
	scan.Source
	Close() error
}

// SourceOpener opens a local video file for decoding.
type SourceOpener func(path string) (Source, error)

// Fetcher validates and downloads remote videos.
type Fetcher interface {
	ValidateURL(videoURL string) error
	Fetch(ctx context.Context, videoURL string) (*fetch.Download, error)
}

// Recorder persists completed analyses.
type Recorder interface {
	Save(ctx context.Context, record Record) error
}

// Deps are the collaborators of a Service.
type Deps struct {
	Fetcher   Fetcher
	Open      SourceOpener
	Trackers  pose.TrackerFactory
	Scanner   *scan.Scanner
	Assembler *Assembler
	// Recorder is optional.
	Recorder Recorder
	// MaxConcurrent bounds simultaneous scans; values below 1 mean 1.
	MaxConcurrent int
	Logger        *slog.Logger
}

// Service runs the full analysis flow for one request at a time per slot.
type Service struct {
	fetcher   Fetcher
	open      SourceOpener
	trackers  pose.TrackerFactory
	scanner   *scan.Scanner
	assembler *Assembler
	recorder  Recorder
	slots     chan struct{}
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(deps Deps) *Service {
	slots := max(deps.MaxConcurrent, 1)
	return &Service{
		fetcher:   deps.Fetcher,
		open:      deps.Open,
		trackers:  deps.Trackers,
		scanner:   deps.Scanner,
		assembler: deps.Assembler,
		recorder:  deps.Recorder,
		slots:     make(chan struct{}, slots),
		logger:    logging.NewComponentLogger(deps.Logger, "analysis"),
	}
}

// Analyze downloads req.VideoURL, finds its deepest-flexion frame and returns
// the assembled record. Input problems are rejected before any download.
func (s *Service) Analyze(ctx context.Context, req Request, progress scan.ProgressFunc) (*Record, error) {
	if err := s.scanner.ValidateFrameSkip(req.FrameSkip); err != nil {
		return nil, err
	}
	if err := s.fetcher.ValidateURL(req.VideoURL); err != nil {
		return nil, err
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldVideoURL, req.VideoURL))
	started := time.Now()

	dl, err := s.fetcher.Fetch(ctx, req.VideoURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := dl.Cleanup(); err != nil {
			logging.WarnWithContext(logger, "failed to remove scratch video", "scratch_cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check temp_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
	}()

	// Once the video is local the scan runs to completion even if the caller
	// goes away.
	work := context.WithoutCancel(ctx)
	record, err := s.analyzePath(work, dl.Path, req.FrameSkip, progress)
	if err != nil {
		logger.Error("analysis failed", logging.Error(err), logging.Duration("elapsed", time.Since(started)))
		return nil, err
	}
	record.VideoURL = req.VideoURL
	s.save(work, logger, record)
	logger.Info("analysis complete",
		logging.String(logging.FieldAnalysisID, record.ID),
		logging.Angle("min_knee_angle", record.MinKneeAngle),
		logging.Bool("narrative_fallback", record.NarrativeFallback),
		logging.Duration("elapsed", time.Since(started)),
	)
	return record, nil
}

// AnalyzeFile runs the flow on a local video without downloading it.
func (s *Service) AnalyzeFile(ctx context.Context, path string, frameSkip int, progress scan.ProgressFunc) (*Record, error) {
	if err := s.scanner.ValidateFrameSkip(frameSkip); err != nil {
		return nil, err
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	work := context.WithoutCancel(ctx)
	record, err := s.analyzePath(work, path, frameSkip, progress)
	if err != nil {
		return nil, err
	}
	record.VideoURL = "file://" + path
	s.save(work, logging.WithContext(work, s.logger), record)
	return record, nil
}

func (s *Service) analyzePath(ctx context.Context, path string, frameSkip int, progress scan.ProgressFunc) (*Record, error) {
	src, err := s.open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	tracker, err := s.trackers()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "analysis", "create tracker", "", err)
	}
	defer tracker.Close()

	best, err := s.scanner.Scan(ctx, src, tracker, frameSkip, progress)
	if err != nil {
		return nil, err
	}
	defer best.Close()

	record, err := s.assembler.Assemble(ctx, best)
	if err != nil {
		return nil, err
	}
	record.ID = uuid.NewString()
	record.FrameSkip = frameSkip
	record.CreatedAt = time.Now().UTC()
	return &record, nil
}

func (s *Service) save(ctx context.Context, logger *slog.Logger, record *Record) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Save(ctx, *record); err != nil {
		logging.WarnWithContext(logger, "failed to record analysis history", "history_save_failed",
			logging.String(logging.FieldAnalysisID, record.ID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history database connectivity"),
			logging.String(logging.FieldImpact, "analysis missing from history"),
		)
	}
}

// acquire waits for a scan slot or for ctx to end.
func (s *Service) acquire(ctx context.Context) (func(), error) {
	select {
	case s.slots <- struct{}{}:
		return func() { <-s.slots }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for analysis slot: %w", ctx.Err())
	}
}

// ErrMessage formats err the way API clients see it.
func ErrMessage(err error) string {
	if err == nil {
		return ""
	}
	if services.HTTPStatus(err) >= 500 && !errors.Is(err, context.Canceled) {
		return "An error occurred during video analysis: " + services.Cause(err)
	}
	return services.Cause(err)
}
