package batch

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"

	"guardian/internal/harness"
)

var (
	okColor      = color.New(color.FgGreen, color.Bold)
	abstainColor = color.New(color.FgYellow, color.Bold)
	vetoColor    = color.New(color.FgRed, color.Bold)
	failColor    = color.New(color.FgMagenta, color.Bold)
)

// WriteSummary renders a human-readable batch summary. Colors degrade to
// plain text on non-TTY writers.
func WriteSummary(w io.Writer, report *Report) {
	ok, abstain, veto, failed := report.Counts()

	fmt.Fprintf(w, "\nBatch %s: %d tasks in %v\n", report.BatchID, len(report.Tasks), report.Elapsed.Round(10*time.Millisecond))
	fmt.Fprintf(w, "  %s %d   %s %d   %s %d",
		okColor.Sprint("OK"), ok,
		abstainColor.Sprint("ABSTAIN"), abstain,
		vetoColor.Sprint("VETO"), veto)
	if failed > 0 {
		fmt.Fprintf(w, "   %s %d", failColor.Sprint("ERROR"), failed)
	}
	fmt.Fprintln(w)

	tasks := append([]TaskReport(nil), report.Tasks...)
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].TaskID < tasks[j].TaskID })

	for _, t := range tasks {
		switch {
		case t.Err != nil:
			fmt.Fprintf(w, "  %-24s %s  %v\n", t.TaskID, failColor.Sprint("ERROR"), t.Err)
		default:
			fmt.Fprintf(w, "  %-24s %s  rounds=%d  %v\n",
				t.TaskID, verdictLabel(t.Verdict), t.Rounds, t.Elapsed.Round(10*time.Millisecond))
		}
	}
}

func verdictLabel(v harness.Verdict) string {
	switch v {
	case harness.VerdictOK:
		return okColor.Sprint("OK")
	case harness.VerdictAbstain:
		return abstainColor.Sprint("ABSTAIN")
	case harness.VerdictVeto:
		return vetoColor.Sprint("VETO")
	default:
		return string(v)
	}
}
