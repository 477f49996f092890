package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"submerge/internal/batch"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var pattern string
	var recursive bool
	var dryRun bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "batch <path>...",
		Short: "Pair videos with subtitles and archive the originals",
		Long: "Pair every matching video with its sister subtitle file, then move both\n" +
			"into the archive directory with verified transfers. Videos without a\n" +
			"subtitle are reported and left in place.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(cmd, func(runner *batch.Runner) error {
				report, err := runner.Run(cmd.Context(), batch.Request{
					Inputs:    args,
					Pattern:   pattern,
					Recursive: recursive,
					DryRun:    dryRun,
				})
				if report.BatchID == "" {
					return err
				}

				if jsonOut {
					items := make([]pairJSON, 0, len(report.Pairs))
					for _, pr := range report.Pairs {
						item := toPairJSON(pr.Pair)
						item.Merged = pr.Merged
						item.Archived = pr.Archived
						items = append(items, item)
					}
					if encErr := printJSON(cmd.OutOrStdout(), map[string]any{
						"batch_id": report.BatchID,
						"log_path": report.LogPath,
						"dry_run":  dryRun,
						"pairs":    items,
						"summary":  toSummaryJSON(report.Summary),
					}); encErr != nil {
						return encErr
					}
					return err
				}

				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(report.Pairs))
				for _, pr := range report.Pairs {
					rows = append(rows, []string{
						pr.Pair.Primary.Base(),
						pr.Pair.Sister.Base(),
						pr.Pair.Match.Tier.String(),
						yesNo(pr.Archived),
					})
				}
				if len(rows) > 0 {
					writeTable(out, []string{"Video", "Sister", "Tier", "Archived"}, rows, nil)
				}
				label := fmt.Sprintf("Batch %s", report.BatchID)
				if dryRun {
					label += " (dry run)"
				}
				printSummary(out, label, report.Summary)
				if report.LogPath != "" {
					fmt.Fprintf(out, "Log: %s\n", report.LogPath)
				}
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", batch.DefaultPattern, "Glob selecting video files inside directories")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Resolve pairs without moving anything")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}
