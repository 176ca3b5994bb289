package dbexec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	devenv "wastenot-e2e/dev/env"
	"wastenot-e2e/internal/components/telemetry"
)

const report_artifacts_write = "artifacts.write"

const DefaultArtifactDir = "<workspace>/test-results"

type CSVStyle string

const (
	// values joined with commas as-is
	CSVRaw CSVStyle = "raw"
	// every value quoted with embedded quotes doubled
	CSVQuoted CSVStyle = "quoted"
)

func ParseCSVStyle(s string) (CSVStyle, error) {
	switch CSVStyle(s) {
	case CSVRaw, "":
		return CSVRaw, nil
	case CSVQuoted:
		return CSVQuoted, nil
	default:
		return "", fmt.Errorf("unknown csv style %q (want raw or quoted)", s)
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// EncodeCSV renders a header line of column names followed by one line per
// row. An empty result encodes to nothing.
func EncodeCSV(rows Rows, style CSVStyle) []byte {
	if rows.Len() == 0 {
		return nil
	}
	lines := make([]string, 0, rows.Len()+1)
	lines = append(lines, strings.Join(rows.Columns, ","))
	for _, row := range rows.Data {
		cells := make([]string, len(row))
		for i, v := range row {
			cell := formatCell(v)
			if style == CSVQuoted {
				cell = quote(cell)
			}
			cells[i] = cell
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return []byte(strings.Join(lines, "\n"))
}

// ArtifactName returns <stem>_<timestamp>.csv.
func ArtifactName(stem, timestamp string) string {
	return fmt.Sprintf("%s_%s.csv", stem, timestamp)
}

// ArtifactWriter persists result sets as CSV files for audit.
//
// note: fault injection point
type ArtifactWriter interface {
	Write(stem, timestamp string, rows Rows) (string, error)
}

type DirArtifacts struct {
	dir   string
	style CSVStyle
	tel   telemetry.API
}

func NewDirArtifacts(dir string, style CSVStyle, tel telemetry.API) (DirArtifacts, error) {
	if dir == "" {
		dir = DefaultArtifactDir
	}
	resolved, err := devenv.ResolvePath(dir)
	if err != nil {
		return DirArtifacts{}, fmt.Errorf("resolve artifact dir %s: %w", dir, err)
	}
	if style == "" {
		style = CSVRaw
	}
	return DirArtifacts{
		dir:   resolved,
		style: style,
		tel:   telemetry.NewScopedAPI("dbexec", tel),
	}, nil
}

func (a DirArtifacts) Dir() string {
	return a.dir
}

func (a DirArtifacts) Write(stem, timestamp string, rows Rows) (string, error) {
	err := os.MkdirAll(a.dir, 0777)
	if err != nil {
		a.tel.ReportBroken(report_artifacts_write, err, a.dir)
		return "", err
	}
	path := filepath.Join(a.dir, ArtifactName(stem, timestamp))
	err = os.WriteFile(path, EncodeCSV(rows, a.style), 0644)
	if err != nil {
		a.tel.ReportBroken(report_artifacts_write, err, path)
		return "", err
	}
	a.tel.ReportDebug("artifact written", path, rows.Len())
	return path, nil
}
