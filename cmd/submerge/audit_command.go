package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"submerge/internal/batch"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var pattern string
	var recursive bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "audit <path>...",
		Short: "Hash files in parallel and report duplicates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(cmd, func(runner *batch.Runner) error {
				report, err := runner.Audit(cmd.Context(), batch.AuditRequest{
					Inputs:    args,
					Pattern:   pattern,
					Recursive: recursive,
				})
				if report.BatchID == "" {
					return err
				}

				if jsonOut {
					type fileJSON struct {
						Path   string `json:"path"`
						Size   int64  `json:"size"`
						Digest string `json:"digest"`
					}
					files := make([]fileJSON, 0, len(report.Files))
					for _, f := range report.Files {
						files = append(files, fileJSON{Path: f.Path.String(), Size: f.Size, Digest: f.Digest.String()})
					}
					dups := make([][]string, 0, len(report.Duplicates))
					for _, group := range report.Duplicates {
						paths := make([]string, 0, len(group))
						for _, p := range group {
							paths = append(paths, p.String())
						}
						dups = append(dups, paths)
					}
					if encErr := printJSON(cmd.OutOrStdout(), map[string]any{
						"batch_id":   report.BatchID,
						"files":      files,
						"duplicates": dups,
						"summary":    toSummaryJSON(report.Summary),
					}); encErr != nil {
						return encErr
					}
					return err
				}

				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(report.Files))
				for _, f := range report.Files {
					rows = append(rows, []string{f.Path.String(), humanize.IBytes(uint64(f.Size)), f.Digest.Hex()})
				}
				writeTable(out, []string{"File", "Size", "Digest"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft})
				for i, group := range report.Duplicates {
					names := make([]string, 0, len(group))
					for _, p := range group {
						names = append(names, p.String())
					}
					fmt.Fprintf(out, "Duplicate group %d: %s\n", i+1, strings.Join(names, ", "))
				}
				printSummary(out, fmt.Sprintf("Audit %s", report.BatchID), report.Summary)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", "*", "Glob selecting files inside directories")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}
