package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/hledger-clear/internal/application/reconcile"
	"github.com/eshaffer321/hledger-clear/internal/infrastructure/storage"
)

// PrintHeader prints the command header
func PrintHeader(w io.Writer, ledgerPath, csvPath string, dryRun bool) {
	mode := "WRITE"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Fprintf(w, "%s %s <- %s %s\n",
		titleStyle.Render("hledger-clear:"),
		ledgerPath, csvPath,
		mutedStyle.Render("("+mode+" mode)"))
}

// PrintSummary prints the reconcile summary and the rows that need attention
func PrintSummary(w io.Writer, report *reconcile.Report) {
	s := report.Summary
	fmt.Fprintln(w, mutedStyle.Render(strings.Repeat("-", 60)))
	fmt.Fprintf(w, "%s rows=%d %s %s %s %s\n",
		labelStyle.Render("Summary:"),
		s.Rows,
		okStyle.Render(fmt.Sprintf("matched=%d", s.Matched)),
		okStyle.Render(fmt.Sprintf("chosen=%d", s.AmbiguousResolved)),
		warnStyle.Render(fmt.Sprintf("unmatched=%d", s.Unmatched)),
		warnStyle.Render(fmt.Sprintf("skipped=%d", s.Skipped)),
	)
	if s.MalformedRows > 0 {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("Malformed rows: %d", s.MalformedRows)))
		for _, m := range s.Malformed {
			fmt.Fprintf(w, "  - %s\n", m)
		}
	}

	if len(s.Unresolved) > 0 {
		fmt.Fprintln(w, "\n"+labelStyle.Render("Needs attention:"))
		for _, d := range s.Unresolved {
			fmt.Fprintf(w, "  line %-4d %s %12s  %-30s %s\n",
				d.Line, d.Date, d.Amount, truncate(d.Description, 30), statusLabel(d))
		}
	}

	fmt.Fprintf(w, "\nCleared %d transaction(s). Run %s\n", s.Cleared(), mutedStyle.Render(report.RunKey))
}

func statusLabel(d reconcile.RowDetail) string {
	if d.Candidates == 0 {
		return warnStyle.Render("no match")
	}
	return warnStyle.Render(fmt.Sprintf("%s (%d candidates)", d.Status, d.Candidates))
}

// PrintRuns prints the run history table
func PrintRuns(w io.Writer, runs []storage.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	fmt.Fprintln(w, labelStyle.Render(fmt.Sprintf("%-5s %-19s %-10s %-11s %5s %7s %6s %9s %7s  %s",
		"ID", "STARTED", "STATUS", "POLICY", "ROWS", "MATCHED", "CHOSEN", "UNMATCHED", "SKIPPED", "STATEMENT")))
	for _, r := range runs {
		status := string(r.Status)
		if r.DryRun {
			status += "*"
		}
		fmt.Fprintf(w, "%-5d %-19s %-10s %-11s %5d %7d %6d %9d %7d  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), status, r.Policy,
			r.Rows, r.Matched, r.Chosen, r.Unmatched, r.Skipped, r.StatementName)
	}
	fmt.Fprintln(w, mutedStyle.Render("* dry run"))
}

// PrintRunRows prints the stored row outcomes of one run
func PrintRunRows(w io.Writer, run *storage.Run, rows []storage.RowOutcome) {
	fmt.Fprintf(w, "%s %d %s (%s, %s <- %s)\n",
		titleStyle.Render("Run"), run.ID, mutedStyle.Render(run.RunKey),
		run.Status, run.LedgerName, run.StatementName)
	if run.ErrorMessage != "" {
		fmt.Fprintln(w, errorStyle.Render("Error: "+run.ErrorMessage))
	}
	for _, o := range rows {
		target := "-"
		if o.TransactionID != nil {
			target = fmt.Sprintf("ledger line %d", o.LedgerLine)
		}
		fmt.Fprintf(w, "  line %-4d %s %12s  %-30s %-9s %s\n",
			o.Line, o.Date, o.Amount, truncate(o.Description, 30), o.Status, target)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
