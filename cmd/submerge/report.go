package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"submerge/internal/ledger"
	"submerge/internal/sister"
)

// printJSON writes v as one indented JSON document, the --json form of every
// report.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type entryJSON struct {
	Subject string `json:"subject"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Detail  string `json:"detail"`
}

type summaryJSON struct {
	Role      string      `json:"role"`
	Successes int         `json:"successes"`
	Failures  int         `json:"failures"`
	Entries   []entryJSON `json:"entries"`
}

func toSummaryJSON(s ledger.Summary) summaryJSON {
	out := summaryJSON{
		Role:      s.Role,
		Successes: s.Successes,
		Failures:  s.Failures,
		Entries:   make([]entryJSON, 0, len(s.Entries)),
	}
	for _, e := range s.Entries {
		out.Entries = append(out.Entries, entryJSON{
			Subject: e.Subject.String(),
			Name:    e.Name,
			Kind:    e.Kind.String(),
			Detail:  e.Detail,
		})
	}
	return out
}

// printSummary writes the end-of-run report: counts, then one row per failed
// file with its cause.
func printSummary(out io.Writer, label string, s ledger.Summary) {
	fmt.Fprintf(out, "%s: %d succeeded, %d failed\n", label, s.Successes, s.Failures)
	if len(s.Entries) == 0 {
		return
	}
	rows := make([][]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		rows = append(rows, []string{e.Name, e.Kind.String(), e.Detail})
	}
	writeTable(out, []string{"File", "Kind", "Detail"}, rows, nil)
}

func scoreLabel(m sister.Match) string {
	if !m.HasScore {
		return "-"
	}
	return strconv.Itoa(m.Score)
}
