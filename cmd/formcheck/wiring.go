package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"formcheck/internal/analysis"
	"formcheck/internal/blobstore"
	"formcheck/internal/config"
	"formcheck/internal/fetch"
	"formcheck/internal/history"
	"formcheck/internal/narrative"
	"formcheck/internal/pose"
	"formcheck/internal/pose/onnx"
	"formcheck/internal/pose/replay"
	"formcheck/internal/scan"
	"formcheck/internal/speech"
	"formcheck/internal/video"
)

// app holds the collaborators shared by serve and analyze.
type app struct {
	blobs   *blobstore.Store
	history history.Store
	service *analysis.Service
	closers []func() error
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	rt := &app{}

	trackers, err := rt.trackerFactory(cfg, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}

	settings, err := scan.SettingsFromConfig(cfg)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("scan settings: %w", err)
	}
	scanner := scan.NewScanner(settings, scan.Bounds{Min: cfg.Scan.MinFrameSkip, Max: cfg.Scan.MaxFrameSkip}, logger)

	rt.blobs = blobstore.New(cfg, logger)
	assembler := analysis.NewAssembler(
		rt.blobs,
		narrative.NewClient(cfg.OpenAI, logger),
		speech.NewClient(cfg.OpenAI, logger),
		logger,
	)

	deps := analysis.Deps{
		Fetcher:       fetch.New(cfg, logger),
		Open:          openVideo,
		Trackers:      trackers,
		Scanner:       scanner,
		Assembler:     assembler,
		MaxConcurrent: cfg.Server.MaxConcurrentAnalyses,
		Logger:        logger,
	}
	if cfg.History.Enabled {
		store, err := history.Open(ctx, cfg, logger)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		rt.history = store
		rt.closers = append(rt.closers, store.Close)
		deps.Recorder = store
	}
	rt.service = analysis.NewService(deps)
	return rt, nil
}

func (rt *app) trackerFactory(cfg *config.Config, logger *slog.Logger) (pose.TrackerFactory, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Pose.Backend)) {
	case "replay":
		recording, err := replay.Load(cfg.Pose.ReplayPath)
		if err != nil {
			return nil, fmt.Errorf("load pose replay: %w", err)
		}
		return recording.Factory(), nil
	case "onnx", "":
		model, err := onnx.Load(cfg.Pose, logger)
		if err != nil {
			return nil, fmt.Errorf("load pose model: %w", err)
		}
		rt.closers = append(rt.closers, model.Close)
		return model.Factory(), nil
	default:
		return nil, fmt.Errorf("unsupported pose backend %q", cfg.Pose.Backend)
	}
}

// Close releases the model and history connections.
func (rt *app) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func openVideo(path string) (analysis.Source, error) {
	file, err := video.Open(path)
	if err != nil {
		return nil, err
	}
	return file, nil
}
