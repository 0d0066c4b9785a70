package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"formcheck/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var (
		offline bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration and readiness checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cfg)
			if !offline {
				results = append(results, preflight.CheckOpenAI(commandCtx(cmd), cfg.OpenAI))
			}
			report := preflight.Summarize(results)
			if asJSON {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Configuration", colorize)
			configPath := ctx.configPath
			if configPath == "" {
				configPath = "(defaults)"
			}
			lines = append(lines,
				renderStatusLine("Config file", statusInfo, configPath, colorize),
				renderStatusLine("Bind", statusInfo, cfg.Server.Bind, colorize),
				renderStatusLine("Pose backend", statusInfo, cfg.Pose.Backend, colorize),
				renderStatusLine("History", statusInfo, historyBackend(cfg.History.Enabled, cfg.History.PostgresURL), colorize),
				"",
			)
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			for _, check := range report.Checks {
				kind := statusOK
				if !check.Passed {
					kind = statusError
					if strings.HasPrefix(check.Name, "OpenAI") {
						kind = statusWarn
					}
				}
				lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
			}
			summary := renderStatusLine("Ready", statusOK, "all checks passed", colorize)
			if !report.Ready {
				summary = renderStatusLine("Ready", statusError, fmt.Sprintf("%d check(s) failing", len(report.Failed())), colorize)
			}
			lines = append(lines, "", summary)
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the live OpenAI probe")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func historyBackend(enabled bool, postgresURL string) string {
	switch {
	case !enabled:
		return "disabled"
	case strings.TrimSpace(postgresURL) != "":
		return "postgres"
	default:
		return "sqlite"
	}
}
