package correction

import "time"

type UpdatedEntry struct {
	Key          string `json:"key"`
	RowsAffected int64  `json:"rows_affected"`
}

type MismatchEntry struct {
	Key      string `json:"key"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

type DryRunEntry struct {
	Key     string `json:"key"`
	Matched int    `json:"matched"`
}

type ErrorEntry struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

// Summary is folded from the results of a run once every task settled.
type Summary struct {
	StartedAt  time.Time
	FinishedAt time.Time

	Updated                     []UpdatedEntry
	SkippedNoRows               []string
	SkippedPreconditionMismatch []MismatchEntry
	SkippedNoReferenceRow       []string
	DryRun                      []DryRunEntry
	Errors                      []ErrorEntry

	Results []Result
}

// Fold builds a summary from per-task results in task order.
func Fold(results []Result) Summary {
	s := Summary{Results: results}
	for _, r := range results {
		key := r.Task.Key
		switch r.Outcome {
		case OutcomeUpdated:
			s.Updated = append(s.Updated, UpdatedEntry{Key: key, RowsAffected: r.Exec.RowsAffected})
		case OutcomeSkippedNoRows:
			s.SkippedNoRows = append(s.SkippedNoRows, key)
		case OutcomeSkippedPreconditionMismatch:
			s.SkippedPreconditionMismatch = append(s.SkippedPreconditionMismatch, MismatchEntry{
				Key:      key,
				Expected: r.Task.Expected,
				Actual:   r.Actual,
			})
		case OutcomeSkippedNoReferenceRow:
			s.SkippedNoReferenceRow = append(s.SkippedNoReferenceRow, key)
		case OutcomeDryRun:
			s.DryRun = append(s.DryRun, DryRunEntry{Key: key, Matched: r.Matched})
		case OutcomeErrored:
			msg := "unknown error"
			if r.Err != nil {
				msg = r.Err.Error()
			}
			s.Errors = append(s.Errors, ErrorEntry{Key: key, Error: msg})
		}
		if r.ConfirmErr != nil {
			s.Errors = append(s.Errors, ErrorEntry{Key: key, Error: r.ConfirmErr.Error()})
		}
	}
	return s
}

func (s Summary) HasErrors() bool {
	return len(s.Errors) > 0
}

func (s Summary) UpdatedKeys() []string {
	out := make([]string, len(s.Updated))
	for i, u := range s.Updated {
		out[i] = u.Key
	}
	return out
}

type Counts struct {
	Updated                     int `json:"updated"`
	SkippedNoRows               int `json:"skipped_no_rows"`
	SkippedPreconditionMismatch int `json:"skipped_precondition_mismatch"`
	SkippedNoReferenceRow       int `json:"skipped_no_reference_row"`
	DryRun                      int `json:"dry_run"`
	Errors                      int `json:"errors"`
}

func (s Summary) Counts() Counts {
	return Counts{
		Updated:                     len(s.Updated),
		SkippedNoRows:               len(s.SkippedNoRows),
		SkippedPreconditionMismatch: len(s.SkippedPreconditionMismatch),
		SkippedNoReferenceRow:       len(s.SkippedNoReferenceRow),
		DryRun:                      len(s.DryRun),
		Errors:                      len(s.Errors),
	}
}
