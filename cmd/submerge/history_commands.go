package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"submerge/internal/history"
)

var errHistoryDisabled = errors.New("history is disabled (paths.history_db is empty)")

func (c *commandContext) withHistory(cmd *cobra.Command, fn func(*history.Store) error) error {
	store, err := c.openHistory(cmd.Context())
	if err != nil {
		return err
	}
	if store == nil {
		return errHistoryDisabled
	}
	defer store.Close()
	return fn(store)
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded batches",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(cmd, func(store *history.Store) error {
				batches, err := store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					type batchJSON struct {
						ID         string    `json:"id"`
						Role       string    `json:"role"`
						Source     string    `json:"source"`
						StartedAt  time.Time `json:"started_at"`
						FinishedAt time.Time `json:"finished_at"`
						Successes  int       `json:"successes"`
						Failures   int       `json:"failures"`
					}
					items := make([]batchJSON, 0, len(batches))
					for _, b := range batches {
						items = append(items, batchJSON{b.ID, b.Role, b.Source, b.StartedAt, b.FinishedAt, b.Successes, b.Failures})
					}
					return printJSON(cmd.OutOrStdout(), items)
				}
				out := cmd.OutOrStdout()
				if len(batches) == 0 {
					fmt.Fprintln(out, "No batches recorded")
					return nil
				}
				rows := make([][]string, 0, len(batches))
				for _, b := range batches {
					rows = append(rows, []string{
						shortID(b.ID),
						b.Role,
						humanize.Time(b.StartedAt),
						b.Duration().Round(time.Millisecond).String(),
						strconv.Itoa(b.Successes),
						strconv.Itoa(b.Failures),
						b.Source,
					})
				}
				writeTable(out,
					[]string{"ID", "Role", "Started", "Duration", "OK", "Failed", "Source"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of batches to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <batch-id>",
		Short: "Show one batch with its failures and pairs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(cmd, func(store *history.Store) error {
				b, err := store.Batch(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Batch:    %s\n", b.ID)
				fmt.Fprintf(out, "Role:     %s\n", b.Role)
				fmt.Fprintf(out, "Source:   %s\n", b.Source)
				fmt.Fprintf(out, "Started:  %s\n", b.StartedAt.Local().Format(time.DateTime))
				fmt.Fprintf(out, "Duration: %s\n", b.Duration().Round(time.Millisecond))
				fmt.Fprintf(out, "Result:   %d succeeded, %d failed\n", b.Successes, b.Failures)

				if len(b.Pairs) > 0 {
					fmt.Fprintln(out)
					rows := make([][]string, 0, len(b.Pairs))
					for _, p := range b.Pairs {
						score := "-"
						if p.Score != nil {
							score = strconv.Itoa(*p.Score)
						}
						rows = append(rows, []string{p.Primary, p.Sister, p.Tier, score, yesNo(p.Archived)})
					}
					writeTable(out, []string{"Video", "Sister", "Tier", "Score", "Archived"}, rows, nil)
				}
				if len(b.Entries) > 0 {
					fmt.Fprintln(out)
					rows := make([][]string, 0, len(b.Entries))
					for _, e := range b.Entries {
						rows = append(rows, []string{e.Name, e.Kind, e.Detail})
					}
					writeTable(out, []string{"File", "Kind", "Detail"}, rows, nil)
				}
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete batches older than the given number of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("--days must be zero or positive")
			}
			return ctx.withHistory(cmd, func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().AddDate(0, 0, -days))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d batch(es)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 90, "Keep batches newer than this many days")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
