package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"submerge/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var raw bool

	cmd := &cobra.Command{
		Use:   "logs [batch-id]",
		Short: "Show the log of a batch (newest when no id is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var prefix string
			if len(args) == 1 {
				prefix = args[0]
			}
			path, err := logs.Find(cfg.Paths.LogDir, prefix)
			if err != nil {
				return err
			}
			entries, err := logs.Tail(path, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range entries {
				if raw {
					fmt.Fprintln(out, line)
					continue
				}
				rec, err := logs.Parse(line)
				if err != nil {
					fmt.Fprintln(out, line)
					continue
				}
				fmt.Fprintln(out, rec.String())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines (0 for all)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON lines unchanged")
	return cmd
}
