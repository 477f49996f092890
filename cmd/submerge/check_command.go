package main

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"submerge/internal/preflight"
)

var errChecksFailed = errors.New("one or more checks failed")

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify configured directories are usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			fmt.Fprintf(out, "Config: %s\n", ctx.configPath)

			failed := false
			for _, result := range preflight.RunAll(cfg) {
				fmt.Fprintln(out, renderCheckLine(result, colorize))
				if !result.Passed {
					failed = true
				}
			}
			if failed {
				return errChecksFailed
			}
			return nil
		},
	}
}

func renderCheckLine(result preflight.Result, colorize bool) string {
	status, color := "[OK]", text.FgGreen
	if !result.Passed {
		status, color = "[ERROR]", text.FgRed
	}
	if colorize {
		status = color.Sprint(status)
	}
	return fmt.Sprintf("  %-28s %s %s", result.Name+":", status, result.Detail)
}
