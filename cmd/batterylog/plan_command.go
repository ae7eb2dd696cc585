package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"batterylog/internal/logging"
	"batterylog/internal/pipeline"
)

func newPlanCommand(ctx *commandContext, opts *extractOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the anchor offset and the order trace files would be searched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			src, err := opts.source(cfg)
			if err != nil {
				return err
			}

			plan, err := pipeline.New(src, pipeline.WithLogger(logger)).Plan(cmd.Context())
			if err != nil {
				return err
			}
			for _, listErr := range plan.ListErrors {
				logging.WarnWithContext(logger, "trace category listing failed", "category_list_failed",
					logging.Error(listErr),
				)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source: %s\n", plan.Source)
			if plan.Anchor.Found() {
				fmt.Fprintf(out, "Anchor: %#x (%s, %d matches)\n", plan.Anchor.Offset, plan.Anchor.Library, plan.Anchor.Matches)
			} else {
				fmt.Fprintln(out, "Anchor: none (all records are reconstructed)")
			}
			if len(plan.Candidates) == 0 {
				fmt.Fprintln(out, "No trace files found")
				return nil
			}
			fmt.Fprintf(out, "Trace files: %s\n", formatCount(len(plan.Candidates)))

			rows := make([][]string, 0, len(plan.Candidates))
			for i, c := range plan.Candidates {
				rows = append(rows, []string{
					formatCount(i + 1),
					c.Category.String(),
					formatCount(c.Order),
					c.Path,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"#", "Category", "Order", "Path"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
