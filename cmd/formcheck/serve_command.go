package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"formcheck/internal/api"
	"formcheck/internal/logging"
	"formcheck/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx)
		},
	}
}

func runServe(cmdCtx context.Context, ctx *commandContext) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, "*.log", logging.LogFileName, cfg.Logging.RetentionDays)

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another formcheck server is already using " + cfg.Paths.DataDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release data dir lock", logging.Error(err))
		}
	}()

	for _, check := range preflight.RunAll(cfg) {
		if !check.Passed {
			logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
				logging.String("check", check.Name),
				logging.String("detail", check.Detail),
				logging.String(logging.FieldImpact, "GET /health reports degraded"),
			)
		}
	}

	application, err := buildApp(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", logging.Error(err))
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("shutdown cleanup failed", logging.Error(err))
		}
	}()

	opts := api.Options{
		Analyzer: application.service,
		Blobs:    application.blobs,
		Health: func(context.Context) preflight.Report {
			return preflight.Summarize(preflight.RunAll(cfg))
		},
		Logger: logger,
	}
	if application.history != nil {
		opts.History = application.history
	}
	server := api.NewServer(cfg, opts)
	if err := server.Start(signalCtx); err != nil {
		return err
	}
	go application.blobs.RunJanitor(signalCtx, cfg.RetentionPeriod(), cfg.CleanupInterval())

	logger.Info("formcheck server started",
		logging.String("address", server.Addr()),
		logging.String("pose_backend", cfg.Pose.Backend),
		logging.Bool("history", application.history != nil),
	)
	<-signalCtx.Done()
	server.Stop()
	logger.Info("formcheck server shutting down")
	return nil
}
