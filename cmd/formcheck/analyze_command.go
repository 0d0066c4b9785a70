package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"formcheck/internal/analysis"
	"formcheck/internal/config"
	"formcheck/internal/scan"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var (
		filePath   string
		frameSkip  int
		asJSON     bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [video-url]",
		Short: "Analyze a video and print the deepest knee flexion",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			videoURL := ""
			if len(args) == 1 {
				videoURL = strings.TrimSpace(args[0])
			}
			filePath = strings.TrimSpace(filePath)
			switch {
			case videoURL == "" && filePath == "":
				return errors.New("provide a video URL or --file")
			case videoURL != "" && filePath != "":
				return errors.New("provide either a video URL or --file, not both")
			}
			if !cmd.Flags().Changed("frame-skip") {
				frameSkip = cfg.Scan.DefaultFrameSkip
			}

			logger, err := ctx.cliLogger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			application, err := buildApp(commandCtx(cmd), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			stderr := cmd.ErrOrStderr()
			progress, finish := newProgressBar(stderr, !noProgress && !asJSON && shouldColorize(stderr))

			var record *analysis.Record
			if filePath != "" {
				path, expandErr := config.ExpandPath(filePath)
				if expandErr != nil {
					return expandErr
				}
				record, err = application.service.AnalyzeFile(commandCtx(cmd), path, frameSkip, progress)
			} else {
				record, err = application.service.Analyze(commandCtx(cmd), analysis.Request{VideoURL: videoURL, FrameSkip: frameSkip}, progress)
			}
			finish()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				return fmt.Errorf("analysis failed: %s", analysis.ErrMessage(err))
			}

			if asJSON {
				return writeJSON(cmd, record)
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderRecord(*record, cfg.Scan.DangerAngle, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Analyze a local video file instead of a URL")
	cmd.Flags().IntVar(&frameSkip, "frame-skip", 0, "Process every Nth frame (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full record as JSON")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newProgressBar returns a scan progress callback and a finish func. The bar
// is created lazily so its total comes from the first report.
func newProgressBar(w io.Writer, enabled bool) (scan.ProgressFunc, func()) {
	if !enabled {
		return nil, func() {}
	}
	var bar *pb.ProgressBar
	update := func(p scan.Progress) {
		if bar == nil {
			bar = pb.New(p.Total)
			bar.SetWriter(w)
			bar.Start()
		}
		if p.Total > 0 {
			bar.SetTotal(int64(p.Total))
		}
		bar.SetCurrent(int64(p.FrameIndex + 1))
	}
	finish := func() {
		if bar != nil {
			bar.Finish()
		}
	}
	return update, finish
}
