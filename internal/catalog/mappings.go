package catalog

import (
	"fmt"
	"wastenot-e2e/internal/consistency"
	"wastenot-e2e/internal/correction"
)

// WNUG438Tasks moves 25 kitchens to their new campus. Kitchen 7542 has no
// known old campus so every row not already on the expected one is in scope.
func WNUG438Tasks() []correction.Task {
	return []correction.Task{
		{Key: "1730", Expected: "C-40575", Old: "C-31715"},
		{Key: "2320", Expected: "C-66795", Old: "C-53021"},
		{Key: "2775", Expected: "C-56365", Old: "C-55523"},
		{Key: "3320", Expected: "C-30452", Old: "C-30841"},
		{Key: "3324", Expected: "C-30452", Old: "C-30817"},
		{Key: "3555", Expected: "C-1295", Old: "C-1296"},
		{Key: "4181", Expected: "C-19325", Old: "C-25389"},
		{Key: "4849", Expected: "C-63572", Old: "C-61823"},
		{Key: "4790", Expected: "C-68977", Old: "C-30247"},
		{Key: "5093", Expected: "C-61177", Old: "C-61176"},
		{Key: "5112", Expected: "C-61177", Old: "C-1815"},
		{Key: "5114", Expected: "C-61177", Old: "C-61176"},
		{Key: "5522", Expected: "C-68977", Old: "C-18500"},
		{Key: "5770", Expected: "C-57454", Old: "C-57455"},
		{Key: "6732", Expected: "C-65066", Old: "C-65071"},
		{Key: "6890", Expected: "C-64819", Old: "C-46181"},
		{Key: "7027", Expected: "C-65066", Old: "C-65069"},
		{Key: "7164", Expected: "C-57454", Old: "C-57455"},
		{Key: "7404", Expected: "C-65066", Old: "C-65067"},
		{Key: "7480", Expected: "C-65066", Old: "C-65068"},
		{Key: "7540", Expected: "C-65066", Old: "C-65070"},
		{Key: "7542", Expected: "C-61177"},
		{Key: "3683", Expected: "C-12967", Old: "C-55323"},
		{Key: "3786", Expected: "C-12967", Old: "C-40346"},
		{Key: "4852", Expected: "C-63572", Old: "C-61823"},
	}
}

// WNUG438ReadMapping is the kitchen -> campus map used by the read-only
// WNUG-438 checks. It drifted from WNUG438Tasks, see Divergences.
func WNUG438ReadMapping() map[string]string {
	out := correction.ExpectedByKey(WNUG438Tasks())
	delete(out, "3683")
	out["7712"] = "C-58217"
	return out
}

// WNUG438Divergences lists where the write and read mappings disagree.
func WNUG438Divergences() []correction.Divergence {
	return correction.Divergences(correction.ExpectedByKey(WNUG438Tasks()), WNUG438ReadMapping())
}

func WNUG550Mapping() map[string]string {
	return map[string]string{
		"7735": "C-7967",
		"7218": "C-7967",
		"7858": "C-7967",
		"7713": "C-7967",
		"7840": "C-7967",
		"5046": "C-58410",
		"5376": "C-58410",
		"6251": "C-58410",
		"6285": "C-58410",
	}
}

// WNUG550EmptyCampuses must hold no tablet profiles at all.
func WNUG550EmptyCampuses() []string {
	return []string{"C-50209", "C-50211"}
}

var correctionSets = map[string]func() []correction.Task{
	"wnug-438": WNUG438Tasks,
}

func LookupCorrection(name string) ([]correction.Task, error) {
	fn, ok := correctionSets[name]
	if !ok {
		return nil, fmt.Errorf("unknown correction set %q (available: %v)", name, names(correctionSets))
	}
	return fn(), nil
}

func ConsistencySuites() map[string]consistency.Suite {
	return map[string]consistency.Suite{
		"wnug-438": {
			Name:     "wnug-438",
			Kitchens: WNUG438ReadMapping(),
		},
		"wnug-550": {
			Name:              "wnug-550",
			Kitchens:          WNUG550Mapping(),
			RequireCampusData: true,
			EmptyCampuses:     WNUG550EmptyCampuses(),
		},
	}
}

func LookupConsistency(name string) (consistency.Suite, error) {
	suites := ConsistencySuites()
	suite, ok := suites[name]
	if !ok {
		return consistency.Suite{}, fmt.Errorf("unknown consistency suite %q (available: %v)", name, names(suites))
	}
	return suite, nil
}
