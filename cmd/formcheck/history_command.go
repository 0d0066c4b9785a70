package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"formcheck/internal/history"
	"formcheck/internal/logging"
	"formcheck/internal/narrative"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history [analysis-id]",
		Short: "List stored analyses or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("history is disabled in the configuration")
			}
			store, err := history.Open(commandCtx(cmd), cfg, logging.NewNop())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				record, err := store.Get(commandCtx(cmd), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, record)
				}
				fmt.Fprint(out, renderRecord(record, cfg.Scan.DangerAngle, shouldColorize(out)))
				return nil
			}

			records, err := store.List(commandCtx(cmd), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No analyses recorded yet")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					r.CreatedAt.Local().Format(time.DateTime),
					r.ID,
					narrative.FormatAngle(r.MinKneeAngle),
					yesNo(r.AudioURL != nil),
					yesNo(r.NarrativeFallback),
					r.VideoURL,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Created", "ID", "Angle", "Audio", "Fallback", "Video"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Maximum analyses to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
