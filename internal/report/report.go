// Package report turns a reconciliation state into the end-of-run summary.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/limit-importer/backend/internal/reconcile"
)

// Status classifies one summary line.
type Status string

const (
	StatusPaired   Status = "paired"
	StatusPartial  Status = "partial"
	StatusUnpaired Status = "unpaired"
)

// DefaultRepairHint points the user at the reconciliation flow.
const DefaultRepairHint = "Pair the remaining items with `limitctl reconcile`, or POST events to /api/imports/<id>/reconcile."

// Line is one row of the summary.
type Line struct {
	Key     string   `json:"key" msgpack:"key"`
	Display string   `json:"display" msgpack:"display"`
	Status  Status   `json:"status" msgpack:"status"`
	Detail  string   `json:"detail,omitempty" msgpack:"detail,omitempty"`
	Issues  []string `json:"issues,omitempty" msgpack:"issues,omitempty"`
}

// Summary is the report shown at the end of every run.
type Summary struct {
	Paired          []Line    `json:"paired" msgpack:"paired"`
	UnpairedLimits  []Line    `json:"unpairedLimits" msgpack:"unpairedLimits"`
	UnpairedResults []Line    `json:"unpairedResults" msgpack:"unpairedResults"`
	AllPaired       bool      `json:"allPaired" msgpack:"allPaired"`
	PartialCount    int       `json:"partialCount" msgpack:"partialCount"`
	RepairHint      string    `json:"repairHint,omitempty" msgpack:"repairHint,omitempty"`
	GeneratedAt     time.Time `json:"generatedAt" msgpack:"generatedAt"`
}

// Build summarises s.
func Build(s reconcile.State) *Summary {
	sum := &Summary{
		Paired:          make([]Line, 0, len(s.Paired)),
		UnpairedLimits:  make([]Line, 0, len(s.UnpairedLimits)),
		UnpairedResults: make([]Line, 0, len(s.UnpairedResults)),
		GeneratedAt:     time.Now(),
	}

	for _, p := range s.Paired {
		line := Line{Key: p.Key.String(), Display: p.Display, Status: StatusPaired, Detail: p.Report.String()}
		if p.Report.Partial() {
			line.Status = StatusPartial
			line.Issues = p.Report.Problems()
			sum.PartialCount++
		}
		sum.Paired = append(sum.Paired, line)
	}
	for _, l := range s.UnpairedLimits {
		key := l.Entry.Key().String()
		sum.UnpairedLimits = append(sum.UnpairedLimits, Line{
			Key:     key,
			Display: key,
			Status:  StatusUnpaired,
			Detail:  l.Reason,
			Issues:  l.Report.Problems(),
		})
	}
	for _, k := range s.UnpairedResults {
		sum.UnpairedResults = append(sum.UnpairedResults, Line{Key: k.String(), Display: k.String(), Status: StatusUnpaired})
	}

	sum.AllPaired = len(sum.UnpairedLimits) == 0 && len(sum.UnpairedResults) == 0
	if !sum.AllPaired {
		sum.RepairHint = DefaultRepairHint
	}
	return sum
}

// Render writes the summary as plain text.
func Render(w io.Writer, s *Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if s.AllPaired {
		fmt.Fprintf(tw, "All %d limits paired.\n", len(s.Paired))
		writeLines(tw, s.Paired)
		return tw.Flush()
	}

	fmt.Fprintf(tw, "Paired (%d", len(s.Paired))
	if s.PartialCount > 0 {
		fmt.Fprintf(tw, ", %d partial", s.PartialCount)
	}
	fmt.Fprintln(tw, "):")
	writeLines(tw, s.Paired)

	fmt.Fprintf(tw, "\nUnpaired limits (%d):\n", len(s.UnpairedLimits))
	writeLines(tw, s.UnpairedLimits)

	fmt.Fprintf(tw, "\nUnpaired results (%d):\n", len(s.UnpairedResults))
	writeLines(tw, s.UnpairedResults)

	if s.RepairHint != "" {
		fmt.Fprintf(tw, "\n%s\n", s.RepairHint)
	}
	return tw.Flush()
}

func writeLines(w io.Writer, lines []Line) {
	if len(lines) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, l := range lines {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", marker(l.Status), l.Display, l.Detail)
		for _, issue := range l.Issues {
			fmt.Fprintf(w, "      %s\n", strings.TrimSpace(issue))
		}
	}
}

func marker(s Status) string {
	switch s {
	case StatusPaired:
		return "[ok]"
	case StatusPartial:
		return "[partial]"
	}
	return "[--]"
}
