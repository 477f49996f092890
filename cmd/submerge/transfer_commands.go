package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"submerge/internal/transfer"
)

type transferFunc func(t *transfer.Transfer, ctx context.Context, src, dst string, attempts int) (transfer.Outcome, error)

func newCopyCommand(ctx *commandContext) *cobra.Command {
	return newTransferCommand(ctx, "copy", "Copied", "Copy a file or tree and verify it by digest", (*transfer.Transfer).CopyVerified)
}

func newMoveCommand(ctx *commandContext) *cobra.Command {
	return newTransferCommand(ctx, "move", "Moved", "Move a file or tree, removing the source only after verification", (*transfer.Transfer).MoveVerified)
}

func newTransferCommand(ctx *commandContext, use, verb, short string, run transferFunc) *cobra.Command {
	var attempts int
	var overwrite bool

	cmd := &cobra.Command{
		Use:   use + " <source> <destination>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			t := ctx.transfer(logger, overwrite)
			outcome, err := run(t, cmd.Context(), args[0], args[1], attempts)
			if err != nil {
				return err
			}
			if !outcome.OK() {
				return fmt.Errorf("%s %s: %s after %d attempts", use, args[0], outcome.Kind, outcome.Attempts)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s (%s, %d attempt(s))\n",
				verb, outcome.Source, outcome.Destination, outcome.Digest, outcome.Attempts)
			return nil
		},
	}

	cmd.Flags().IntVar(&attempts, "attempts", 0, "Maximum copy attempts (default transfer.max_attempts)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing destination")
	return cmd
}
