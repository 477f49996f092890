package main

import (
	"github.com/spf13/cobra"

	"submerge/internal/batch"
	"submerge/internal/ledger"
)

type pairJSON struct {
	Primary    string   `json:"primary"`
	Sister     string   `json:"sister"`
	Companions []string `json:"companions,omitempty"`
	Tier       string   `json:"tier"`
	Score      *int     `json:"score,omitempty"`
	Merged     bool     `json:"merged"`
	Archived   bool     `json:"archived"`
}

func toPairJSON(p batch.Pair) pairJSON {
	out := pairJSON{
		Primary: p.Primary.String(),
		Sister:  p.Sister.String(),
		Tier:    p.Match.Tier.String(),
	}
	for _, c := range p.Companions {
		out.Companions = append(out.Companions, c.String())
	}
	if p.Match.HasScore {
		score := p.Match.Score
		out.Score = &score
	}
	return out
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var pattern string
	var recursive bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "match <path>...",
		Short: "Show which subtitle file each video would be paired with",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(cmd, func(runner *batch.Runner) error {
				videos, err := runner.Discover(args, pattern, recursive)
				if err != nil {
					return err
				}
				led := ledger.New("match", nil)
				pairs := runner.Resolve(videos, led)
				summary := led.Summary()

				if jsonOut {
					items := make([]pairJSON, 0, len(pairs))
					for _, p := range pairs {
						items = append(items, toPairJSON(p))
					}
					return printJSON(cmd.OutOrStdout(), map[string]any{"pairs": items, "unmatched": toSummaryJSON(summary).Entries})
				}

				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(pairs))
				for _, p := range pairs {
					rows = append(rows, []string{p.Primary.Base(), p.Sister.Base(), p.Match.Tier.String(), scoreLabel(p.Match)})
				}
				writeTable(out, []string{"Video", "Sister", "Tier", "Score"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight})
				summary.Successes = len(pairs)
				printSummary(out, "Matched", summary)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", batch.DefaultPattern, "Glob selecting video files inside directories")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}
