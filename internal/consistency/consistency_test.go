package consistency

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"wastenot-e2e/internal/components/chrono"
	"wastenot-e2e/internal/components/telemetry"
	"wastenot-e2e/internal/dbexec"
	"wastenot-e2e/lib/testutil"

	"github.com/stretchr/testify/require"
)

func setup(t testing.TB) (Checker, testutil.DBResult, string) {
	db := testutil.SetupDB(t, testutil.DBParams{})
	tel := telemetry.NewRecorderAPI()
	dir := t.TempDir()
	artifacts, err := dbexec.NewDirArtifacts(dir, dbexec.CSVRaw, tel)
	if err != nil {
		t.Fatal(err)
	}
	checker, err := NewChecker(CheckerParams{
		Executor:  dbexec.NewPoolFromDB(db.DB, tel),
		Artifacts: artifacts,
		Clock:     chrono.FixedImpl{At: time.Date(2025, time.May, 4, 13, 5, 9, 0, time.UTC)},
		Tel:       tel,
	})
	if err != nil {
		t.Fatal(err)
	}
	return checker, db, dir
}

func TestKitchenCampusPasses(t *testing.T) {
	checker, db, dir := setup(t)
	testutil.InsertTabletProfiles(t, db.DB,
		testutil.TabletProfile{KitchenID: "1730", CampusID: "C-40575"},
		testutil.TabletProfile{KitchenID: "1730", CampusID: "C-40575"},
	)

	res, err := checker.KitchenCampus(context.Background(), "1730", "C-40575")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 2, res.Rows)
	require.Equal(t, filepath.Join(dir, "query_result_kitchen_1730_2025-05-04T13-05-09.000Z.csv"), res.Artifact)

	contents, err := os.ReadFile(res.Artifact)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(string(contents), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "id,kitchen_id,campus_id,app_date,created_at", lines[0])
}

func TestKitchenCampusNoData(t *testing.T) {
	checker, _, dir := setup(t)

	res, err := checker.KitchenCampus(context.Background(), "7712", "C-58217")
	require.NoError(t, err)
	require.Equal(t, 0, res.Rows)
	require.Empty(t, res.Artifact)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	require.Empty(t, entries)
}

func TestKitchenCampusMismatch(t *testing.T) {
	checker, db, _ := setup(t)
	testutil.InsertTabletProfiles(t, db.DB,
		testutil.TabletProfile{KitchenID: "7735", CampusID: "C-7967"},
		testutil.TabletProfile{KitchenID: "7735", CampusID: "C-1", CreatedAt: "2024-02-01 00:00:00"},
	)

	_, err := checker.KitchenCampus(context.Background(), "7735", "C-7967")
	var mismatch CampusMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, []string{"C-1"}, mismatch.Found)
	require.Contains(t, err.Error(), "mismatched campus_id values: C-1")
}

func TestCampusChecks(t *testing.T) {
	checker, db, _ := setup(t)
	testutil.InsertTabletProfiles(t, db.DB,
		testutil.TabletProfile{KitchenID: "5046", CampusID: "C-58410"},
		testutil.TabletProfile{KitchenID: "9", CampusID: "C-50209"},
	)
	ctx := context.Background()

	n, err := checker.CampusHasData(ctx, "C-58410")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = checker.CampusHasData(ctx, "C-7967")
	require.ErrorAs(t, err, &NoCampusDataError{})

	require.NoError(t, checker.CampusIsEmpty(ctx, "C-50211"))
	err = checker.CampusIsEmpty(ctx, "C-50209")
	var unexpected UnexpectedCampusDataError
	require.ErrorAs(t, err, &unexpected)
	require.Equal(t, 1, unexpected.Rows)
}

func TestRunSuite(t *testing.T) {
	checker, db, _ := setup(t)
	testutil.InsertTabletProfiles(t, db.DB,
		testutil.TabletProfile{KitchenID: "5046", CampusID: "C-58410"},
		testutil.TabletProfile{KitchenID: "7735", CampusID: "C-7967"},
	)

	results := checker.RunSuite(context.Background(), Suite{
		Name: "test",
		Kitchens: map[string]string{
			"5046": "C-58410",
			"7735": "C-7967",
			"7218": "C-0000",
		},
		RequireCampusData: true,
		EmptyCampuses:     []string{"C-50209"},
	})

	require.Len(t, results, 4)
	require.NoError(t, results[0].Err)
	require.ErrorAs(t, results[1].Err, &NoCampusDataError{})
	require.NoError(t, results[2].Err)
	require.NoError(t, results[3].Err)
}
