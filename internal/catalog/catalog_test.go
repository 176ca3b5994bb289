package catalog

import (
	"testing"
	"time"
	"wastenot-e2e/internal/correction"
	"wastenot-e2e/internal/snapshot"
	"wastenot-e2e/internal/wastenotapi"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.March, 1, 9, 30, 0, 0, time.UTC)

func TestBamcoQueries(t *testing.T) {
	queries := BamcoQueries(now)
	require.Len(t, queries, 7)

	require.Equal(t, "bamco_non_entry_id", queries[0].Name)
	require.Equal(t,
		wastenotapi.DefaultBaseURL+"?sector=A0000&start=2024-02-28&end=2025-02-28&limit=1000&bamco=1",
		queries[0].URL(wastenotapi.DefaultBaseURL),
	)
	require.Equal(t,
		wastenotapi.DefaultBaseURL+"?campus=141&start=2024-02-28&end=2025-02-28&limit=1000&bamco=1&page=2",
		queries[2].URL(wastenotapi.DefaultBaseURL),
	)
	require.Equal(t, "2024-02-28", queries[0].Start)
	require.Equal(t, "2025-02-28", queries[0].End)
}

func TestCompassQueries(t *testing.T) {
	queries := CompassQueries(now)
	require.Len(t, queries, 6)

	require.Equal(t, "compass", queries[0].Name)
	require.Equal(t,
		wastenotapi.DefaultBaseURL+"?compass&start=2024-02-29&limit=1000&end=2025-02-28",
		queries[0].URL(wastenotapi.DefaultBaseURL),
	)
	require.Equal(t,
		wastenotapi.DefaultBaseURL+"?sector=F00000%2CL00000&start=2024-02-29&limit=1000&end=2025-02-28",
		queries[5].URL(wastenotapi.DefaultBaseURL),
	)
}

func TestAPISuites(t *testing.T) {
	suites := APISuites(now)
	require.Len(t, suites, 4)

	bamco := suites["bamco"]
	require.Equal(t, snapshot.CompareExact, bamco.Compare)
	require.Len(t, bamco.RequiredFields, 23)
	require.Equal(t, "all", bamco.Options(nil).Sampler.String())

	compass := suites["compass"]
	require.Len(t, compass.RequiredFields, 20)
	require.Equal(t, []int{0, 1, 2, 3, 4}, compass.Options(nil).Sampler.Pick(10))

	seed := int64(7)
	random := suites["compass-random"].Options(snapshot.NewRandomSource(&seed))
	require.Len(t, random.Sampler.Pick(10), 5)

	_, ok := compass.Query("district")
	require.True(t, ok)

	_, err := LookupAPISuite("nope", now)
	require.ErrorContains(t, err, "available: [bamco bamco-random compass compass-random]")
}

func TestWNUG438Tasks(t *testing.T) {
	tasks := WNUG438Tasks()
	require.Len(t, tasks, 25)
	require.NoError(t, correction.ValidateTasks(tasks))

	noOld := 0
	for _, task := range tasks {
		if task.Old == "" {
			noOld++
			require.Equal(t, "7542", task.Key)
		}
	}
	require.Equal(t, 1, noOld)
}

func TestWNUG438Divergences(t *testing.T) {
	require.Equal(t, []correction.Divergence{
		{Key: "3683", Kind: correction.OnlyInA, A: "C-12967"},
		{Key: "7712", Kind: correction.OnlyInB, B: "C-58217"},
	}, WNUG438Divergences())
}

func TestConsistencySuites(t *testing.T) {
	suite, err := LookupConsistency("wnug-550")
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, suite.RequireCampusData)
	require.Len(t, suite.Kitchens, 9)
	require.Equal(t, []string{"C-50209", "C-50211"}, suite.EmptyCampuses)

	suite, err = LookupConsistency("wnug-438")
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, suite.Kitchens, 25)
	require.False(t, suite.RequireCampusData)

	_, err = LookupCorrection("wnug-438")
	require.NoError(t, err)
	_, err = LookupCorrection("wnug-1")
	require.Error(t, err)
}
