package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"batterylog/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded extraction runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("history is disabled (set history.enabled = true)")
			}
			store, err := history.Open(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			latest, ok, err := store.LatestValue(cmd.Context())
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(out, "Latest value: %s (%s, %s)\n", latest.Value, latest.Category, latest.CreatedAt.Local().Format(time.DateTime))
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.CreatedAt.Local().Format(time.DateTime),
					string(run.Mode),
					valueOrDash(run.Value),
					valueOrDash(run.Category),
					formatCount(run.FilesVisited),
					yesNo(run.Found),
					run.FinalState,
					shortDigest(run.TraceDigest),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"When", "Mode", "Value", "Category", "Files", "Found", "State", "Digest"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func shortDigest(digest string) string {
	digest = strings.TrimSpace(digest)
	if digest == "" {
		return "-"
	}
	const keep = len("blake3:") + 12
	if len(digest) > keep {
		return digest[:keep]
	}
	return digest
}
