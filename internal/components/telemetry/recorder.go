package telemetry

import (
	"strings"
	"sync"
)

type ReportKind int

const (
	KindBroken ReportKind = iota
	KindWarning
	KindDebug
	KindCount
)

type Report struct {
	Kind   ReportKind
	ID     string
	Params []any
	Count  int64
}

// RecorderAPI keeps every report in memory so tests can assert on them.
// It is safe for concurrent use.
type RecorderAPI struct {
	mu      sync.Mutex
	reports []Report
}

func NewRecorderAPI() *RecorderAPI {
	return &RecorderAPI{}
}

func (r *RecorderAPI) push(report Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
}

func (r *RecorderAPI) ReportBroken(id string, params ...any) {
	r.push(Report{Kind: KindBroken, ID: id, Params: params})
}

func (r *RecorderAPI) ReportWarning(id string, params ...any) {
	r.push(Report{Kind: KindWarning, ID: id, Params: params})
}

func (r *RecorderAPI) ReportDebug(msg string, params ...any) {
	r.push(Report{Kind: KindDebug, ID: msg, Params: params})
}

func (r *RecorderAPI) ReportCount(id string, count int64) {
	r.push(Report{Kind: KindCount, ID: id, Count: count})
}

// Reports returns the recorded reports of a given kind whose id ends with `suffix`,
// suffix matching lets tests ignore the namespaces added by ScopedAPI.
func (r *RecorderAPI) Reports(kind ReportKind, suffix string) []Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Report
	for _, report := range r.reports {
		if report.Kind != kind {
			continue
		}
		if !strings.HasSuffix(report.ID, suffix) {
			continue
		}
		out = append(out, report)
	}
	return out
}
