package correction

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
)

func joinOrNone(keys []string) string {
	if len(keys) == 0 {
		return "None"
	}
	return strings.Join(keys, ", ")
}

// WriteText renders the human readable summary: a count table followed by
// the keys of every category.
func WriteText(w io.Writer, s Summary) error {
	counts := s.Counts()

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Outcome", "Tasks"})
	t.AppendRows([]table.Row{
		{"Updated", counts.Updated},
		{"Skipped (no rows)", counts.SkippedNoRows},
		{"Skipped (precondition mismatch)", counts.SkippedPreconditionMismatch},
		{"Skipped (no reference row)", counts.SkippedNoReferenceRow},
		{"Dry run", counts.DryRun},
		{"Errors", counts.Errors},
	})

	mismatched := make([]string, len(s.SkippedPreconditionMismatch))
	for i, m := range s.SkippedPreconditionMismatch {
		mismatched[i] = fmt.Sprintf("%s (%s != %s)", m.Key, m.Actual, m.Expected)
	}
	dryRun := make([]string, len(s.DryRun))
	for i, d := range s.DryRun {
		dryRun[i] = fmt.Sprintf("%s (%d rows)", d.Key, d.Matched)
	}

	var out strings.Builder
	out.WriteString("=== FINAL SUMMARY ===\n")
	out.WriteString(t.Render())
	out.WriteString("\n")
	fmt.Fprintf(&out, "Updated: %s\n", joinOrNone(s.UpdatedKeys()))
	fmt.Fprintf(&out, "Skipped - No Rows: %s\n", joinOrNone(s.SkippedNoRows))
	fmt.Fprintf(&out, "Skipped - Precondition Mismatch: %s\n", joinOrNone(mismatched))
	fmt.Fprintf(&out, "Skipped - No Reference Row: %s\n", joinOrNone(s.SkippedNoReferenceRow))
	if len(s.DryRun) > 0 {
		fmt.Fprintf(&out, "Dry Run: %s\n", joinOrNone(dryRun))
	}
	if len(s.Errors) == 0 {
		out.WriteString("Errors: None\n")
	} else {
		out.WriteString("Errors:\n")
		for _, e := range s.Errors {
			fmt.Fprintf(&out, "  %s: %s\n", e.Key, e.Error)
		}
	}
	out.WriteString("=====================\n")

	_, err := io.WriteString(w, out.String())
	return err
}

const ReportSchemaVersion = "1"

// Report is the machine readable form of a Summary.
type Report struct {
	SchemaVersion string `json:"schema_version"`
	RunID         string `json:"run_id"`
	Profile       string `json:"profile"`
	DryRun        bool   `json:"dry_run"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at"`
	Counts        Counts `json:"counts"`

	Updated                     []UpdatedEntry  `json:"updated"`
	SkippedNoRows               []string        `json:"skipped_no_rows"`
	SkippedPreconditionMismatch []MismatchEntry `json:"skipped_precondition_mismatch"`
	SkippedNoReferenceRow       []string        `json:"skipped_no_reference_row"`
	DryRunTasks                 []DryRunEntry   `json:"dry_run_tasks"`
	Errors                      []ErrorEntry    `json:"errors"`
}

type RunInfo struct {
	// generated when empty
	RunID   string
	Profile string
	DryRun  bool
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}

func NewReport(s Summary, info RunInfo) Report {
	runID := info.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	return Report{
		SchemaVersion: ReportSchemaVersion,
		RunID:         runID,
		Profile:       info.Profile,
		DryRun:        info.DryRun,
		StartedAt:     s.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:    s.FinishedAt.UTC().Format(time.RFC3339),
		Counts:        s.Counts(),

		Updated:                     nonNil(s.Updated),
		SkippedNoRows:               nonNil(s.SkippedNoRows),
		SkippedPreconditionMismatch: nonNil(s.SkippedPreconditionMismatch),
		SkippedNoReferenceRow:       nonNil(s.SkippedNoReferenceRow),
		DryRunTasks:                 nonNil(s.DryRun),
		Errors:                      nonNil(s.Errors),
	}
}

func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// ExitCode is 2 when the run finished with errors and 0 otherwise.
func ExitCode(s Summary) int {
	if s.HasErrors() {
		return 2
	}
	return 0
}

func (c Counts) String() string {
	return "updated=" + strconv.Itoa(c.Updated) +
		" skipped_no_rows=" + strconv.Itoa(c.SkippedNoRows) +
		" skipped_precondition_mismatch=" + strconv.Itoa(c.SkippedPreconditionMismatch) +
		" skipped_no_reference_row=" + strconv.Itoa(c.SkippedNoReferenceRow) +
		" dry_run=" + strconv.Itoa(c.DryRun) +
		" errors=" + strconv.Itoa(c.Errors)
}
