// Package catalog holds the fixed sets of remote resources, correction
// mappings and consistency suites that the CLI and the e2e suite run.
package catalog

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"
	"wastenot-e2e/internal/components/chrono"
	"wastenot-e2e/internal/snapshot"
	"wastenot-e2e/internal/wastenotapi"
)

const (
	// records sampled per resource by the sampled suites
	DefaultSampleSize = 5
	apiLimit          = "1000"
)

// APISuite is a group of resources verified with the same options.
type APISuite struct {
	Name           string
	Queries        []wastenotapi.Query
	RequiredFields []string
	Compare        snapshot.CompareMode
	// 0 checks every record
	SampleSize   int
	RandomSample bool
}

// Options returns verifier options for the suite, rng is only used by
// randomly sampled suites.
func (s APISuite) Options(rng *rand.Rand) snapshot.Options {
	opts := snapshot.Options{
		RecordsKey:     snapshot.DefaultRecordsKey,
		RequiredFields: s.RequiredFields,
		Compare:        s.Compare,
		Sampler:        snapshot.SampleAll(),
	}
	switch {
	case s.SampleSize > 0 && s.RandomSample:
		opts.Sampler = snapshot.SampleRandom(s.SampleSize, rng)
	case s.SampleSize > 0:
		opts.Sampler = snapshot.SampleFirst(s.SampleSize)
	}
	return opts
}

// Query returns the suite's query named `name`.
func (s APISuite) Query(name string) (wastenotapi.Query, bool) {
	for _, q := range s.Queries {
		if q.Name == name {
			return q, true
		}
	}
	return wastenotapi.Query{}, false
}

var BamcoRequiredFields = []string{
	"id", "division_name", "tablet_id", "profile_id", "profile_name",
	"kitchen_id", "kitchen_name", "region_id", "region_name",
	"district_id", "district_name", "account_id", "account_name",
	"campus_id", "campus_name", "costcenter", "costcenter_name",
	"created_at", "kind_of_waste", "lbs_waste", "waste_destination",
	"sector_id", "sector_name",
}

var CompassRequiredFields = []string{
	"id", "tablet_id", "profile_id", "profile_name",
	"kitchen_id", "kitchen_name", "sector_id", "sector_name",
	"division_id", "division_name", "region_id", "region_name",
	"district_id", "district_name", "complex_id", "costcenter",
	"created_at", "kind_of_waste", "lbs_waste", "waste_destination",
}

func bamcoQuery(name string, r chrono.DateRange, selector wastenotapi.Param, extra ...wastenotapi.Param) wastenotapi.Query {
	params := []wastenotapi.Param{
		selector,
		{Key: "start", Value: r.Start},
		{Key: "end", Value: r.End},
		{Key: "limit", Value: apiLimit},
		{Key: "bamco", Value: "1"},
	}
	return wastenotapi.Query{
		Name:   "bamco_" + name,
		Params: append(params, extra...),
		Start:  r.Start,
		End:    r.End,
	}
}

// BamcoQueries covers one calendar year ending yesterday.
func BamcoQueries(now time.Time) []wastenotapi.Query {
	r := chrono.TrailingYear(now)
	return []wastenotapi.Query{
		bamcoQuery("non_entry_id", r, wastenotapi.Param{Key: "sector", Value: "A0000"}),
		bamcoQuery("app_date", r, wastenotapi.Param{Key: "sector", Value: "A0000"}, wastenotapi.Param{Key: "app_date", Value: "1"}),
		bamcoQuery("pagination", r, wastenotapi.Param{Key: "campus", Value: "141"}, wastenotapi.Param{Key: "page", Value: "2"}),
		bamcoQuery("campus", r, wastenotapi.Param{Key: "campus", Value: "141"}),
		bamcoQuery("district", r, wastenotapi.Param{Key: "district", Value: "70"}),
		bamcoQuery("region", r, wastenotapi.Param{Key: "region", Value: "11"}),
		bamcoQuery("account", r, wastenotapi.Param{Key: "account", Value: "531"}),
	}
}

func compassQuery(r chrono.DateRange, selector wastenotapi.Param) wastenotapi.Query {
	return wastenotapi.Query{
		Name: selector.Key,
		Params: []wastenotapi.Param{
			selector,
			{Key: "start", Value: r.Start},
			{Key: "limit", Value: apiLimit},
			{Key: "end", Value: r.End},
		},
		Start: r.Start,
		End:   r.End,
	}
}

// CompassQueries covers the 365 days ending yesterday.
func CompassQueries(now time.Time) []wastenotapi.Query {
	r := chrono.TrailingDays(now, 365)
	return []wastenotapi.Query{
		compassQuery(r, wastenotapi.Param{Key: "compass"}),
		compassQuery(r, wastenotapi.Param{Key: "complex", Value: "C-39043"}),
		compassQuery(r, wastenotapi.Param{Key: "district", Value: "FAJ07"}),
		compassQuery(r, wastenotapi.Param{Key: "region", Value: "VCS000"}),
		compassQuery(r, wastenotapi.Param{Key: "division", Value: "VS0000"}),
		compassQuery(r, wastenotapi.Param{Key: "sector", Value: "F00000,L00000"}),
	}
}

// APISuites returns every API suite keyed by name, dates are relative to `now`.
func APISuites(now time.Time) map[string]APISuite {
	bamco := BamcoQueries(now)
	compass := CompassQueries(now)
	return map[string]APISuite{
		"bamco": {
			Name:           "bamco",
			Queries:        bamco,
			RequiredFields: BamcoRequiredFields,
			Compare:        snapshot.CompareExact,
		},
		"bamco-random": {
			Name:           "bamco-random",
			Queries:        bamco,
			RequiredFields: BamcoRequiredFields,
			Compare:        snapshot.CompareFields,
			SampleSize:     DefaultSampleSize,
			RandomSample:   true,
		},
		"compass": {
			Name:           "compass",
			Queries:        compass,
			RequiredFields: CompassRequiredFields,
			Compare:        snapshot.CompareFields,
			SampleSize:     DefaultSampleSize,
		},
		"compass-random": {
			Name:           "compass-random",
			Queries:        compass,
			RequiredFields: CompassRequiredFields,
			Compare:        snapshot.CompareFields,
			SampleSize:     DefaultSampleSize,
			RandomSample:   true,
		},
	}
}

func LookupAPISuite(name string, now time.Time) (APISuite, error) {
	suites := APISuites(now)
	suite, ok := suites[name]
	if !ok {
		return APISuite{}, fmt.Errorf("unknown api suite %q (available: %v)", name, names(suites))
	}
	return suite, nil
}

func names[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
