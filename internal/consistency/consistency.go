// Package consistency holds read-only checks of the kitchen/campus
// assignments in the tablet profile table. Database errors are returned as-is.
package consistency

import (
	"context"
	"fmt"
	"strings"
	"wastenot-e2e/internal/components/assert"
	"wastenot-e2e/internal/components/chrono"
	"wastenot-e2e/internal/components/telemetry"
	"wastenot-e2e/internal/correction"
	"wastenot-e2e/internal/dbexec"
)

const (
	report_checker_kitchen_campus = "checker.kitchen-campus"
	report_checker_campus         = "checker.campus"
)

type CampusMismatchError struct {
	Kitchen  string
	Expected string
	// every mismatching value in result order, duplicates included
	Found []string
}

func (e CampusMismatchError) Error() string {
	return fmt.Sprintf(
		"kitchen_id=%s: expected campus_id %s, mismatched campus_id values: %s",
		e.Kitchen, e.Expected, strings.Join(e.Found, ", "),
	)
}

type NoCampusDataError struct {
	Campus string
}

func (e NoCampusDataError) Error() string {
	return fmt.Sprintf("no data found for campus_id=%s", e.Campus)
}

type UnexpectedCampusDataError struct {
	Campus string
	Rows   int
}

func (e UnexpectedCampusDataError) Error() string {
	return fmt.Sprintf("unexpected data found for campus_id=%s, rows=%d", e.Campus, e.Rows)
}

// KitchenResult describes a passing kitchen check, Artifact is empty when the
// kitchen had no rows.
type KitchenResult struct {
	Kitchen  string
	Rows     int
	Artifact string
}

type Checker struct {
	exec      dbexec.Executor
	artifacts dbexec.ArtifactWriter
	clock     chrono.API
	tables    correction.Tables
	tel       telemetry.API
}

type CheckerParams struct {
	Executor  dbexec.Executor
	Artifacts dbexec.ArtifactWriter
	Clock     chrono.API
	Tables    correction.Tables
	Tel       telemetry.API
}

func NewChecker(params CheckerParams) (Checker, error) {
	assert.NotNil(params.Executor, "executor")
	assert.NotNil(params.Artifacts, "artifacts")
	assert.NotNil(params.Clock, "clock")
	assert.NotNil(params.Tel, "tel")

	tables := params.Tables.WithDefaults()
	err := tables.Validate()
	if err != nil {
		return Checker{}, err
	}
	return Checker{
		exec:      params.Executor,
		artifacts: params.Artifacts,
		clock:     params.Clock,
		tables:    tables,
		tel:       telemetry.NewScopedAPI("consistency", params.Tel),
	}, nil
}

func (c Checker) target() string {
	if c.tables.Schema == "" {
		return c.tables.Target
	}
	return c.tables.Schema + "." + c.tables.Target
}

func (c Checker) selectBy(ctx context.Context, column, value string) (dbexec.Rows, error) {
	return c.exec.Query(
		ctx,
		fmt.Sprintf(
			"SELECT * FROM %s WHERE %s = ? ORDER BY %s DESC",
			c.target(), column, c.tables.TargetOrder,
		),
		value,
	)
}

// KitchenCampus requires every row of the kitchen to carry the expected
// campus. Passing rows are written to query_result_kitchen_<id>_<ts>.csv.
func (c Checker) KitchenCampus(ctx context.Context, kitchen, expectedCampus string) (KitchenResult, error) {
	rows, err := c.selectBy(ctx, c.tables.TargetKey, kitchen)
	if err != nil {
		return KitchenResult{}, err
	}
	out := KitchenResult{Kitchen: kitchen, Rows: rows.Len()}
	if rows.Len() == 0 {
		c.tel.ReportDebug("no data for kitchen, no csv written", kitchen)
		return out, nil
	}

	var found []string
	for _, campus := range rows.Strings(c.tables.TargetValue) {
		if campus != expectedCampus {
			found = append(found, campus)
		}
	}
	if len(found) > 0 {
		err = CampusMismatchError{Kitchen: kitchen, Expected: expectedCampus, Found: found}
		c.tel.ReportWarning(report_checker_kitchen_campus, err)
		return out, err
	}

	out.Artifact, err = c.artifacts.Write(
		fmt.Sprintf("query_result_kitchen_%s", kitchen),
		chrono.FileTimestamp(c.clock.Now()),
		rows,
	)
	if err != nil {
		return out, err
	}
	return out, nil
}

// CampusHasData fails with NoCampusDataError when the campus has no rows.
func (c Checker) CampusHasData(ctx context.Context, campus string) (int, error) {
	rows, err := c.selectBy(ctx, c.tables.TargetValue, campus)
	if err != nil {
		return 0, err
	}
	if rows.Len() == 0 {
		err = NoCampusDataError{Campus: campus}
		c.tel.ReportWarning(report_checker_campus, err)
		return 0, err
	}
	return rows.Len(), nil
}

// CampusIsEmpty fails with UnexpectedCampusDataError when the campus has rows.
func (c Checker) CampusIsEmpty(ctx context.Context, campus string) error {
	rows, err := c.selectBy(ctx, c.tables.TargetValue, campus)
	if err != nil {
		return err
	}
	if rows.Len() > 0 {
		err = UnexpectedCampusDataError{Campus: campus, Rows: rows.Len()}
		c.tel.ReportWarning(report_checker_campus, err)
		return err
	}
	return nil
}

// Suite is one group of checks run together.
type Suite struct {
	Name string
	// kitchen -> expected campus
	Kitchens map[string]string
	// also require the expected campus of each kitchen to have data
	RequireCampusData bool
	// campuses that must have no rows
	EmptyCampuses []string
}

type CheckResult struct {
	Name string
	Err  error
}

// RunSuite runs every check of the suite, a failing check does not stop the
// others. Kitchens are checked in key order.
func (c Checker) RunSuite(ctx context.Context, suite Suite) []CheckResult {
	var out []CheckResult
	for _, kitchen := range sortedKeys(suite.Kitchens) {
		campus := suite.Kitchens[kitchen]
		if suite.RequireCampusData {
			_, err := c.CampusHasData(ctx, campus)
			if err != nil {
				out = append(out, CheckResult{Name: fmt.Sprintf("kitchen %s campus %s has data", kitchen, campus), Err: err})
				continue
			}
		}
		_, err := c.KitchenCampus(ctx, kitchen, campus)
		out = append(out, CheckResult{Name: fmt.Sprintf("kitchen %s has only campus %s", kitchen, campus), Err: err})
	}
	for _, campus := range suite.EmptyCampuses {
		err := c.CampusIsEmpty(ctx, campus)
		out = append(out, CheckResult{Name: fmt.Sprintf("campus %s has no data", campus), Err: err})
	}
	return out
}
