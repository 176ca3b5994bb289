package globals

import (
	"wastenot-e2e/internal/correction"
	"wastenot-e2e/internal/dbexec"
	"wastenot-e2e/internal/notify"
	"wastenot-e2e/internal/snapshot"
	"wastenot-e2e/internal/uicheck"
	"wastenot-e2e/internal/wastenotapi"
	"wastenot-e2e/lib/telemetry"
)

type SnapshotConfig struct {
	// defaults to <workspace>/tests/downloads
	Dir string `json:"dir"`
	// exact or fields, overrides the suite when set
	Compare string `json:"compare"`
	// all, first or random, overrides the suite when set
	Sampler    string `json:"sampler"`
	SampleSize int    `json:"sample_size"`
	// fixes the random sampler for reproducible runs
	Seed    *int64               `json:"seed"`
	Archive snapshot.MinioConfig `json:"archive"`
}

type CorrectionConfig struct {
	Profile string `json:"profile"`
	// catalog set name, ignored when Mapping is set
	Set string `json:"set"`
	// yaml mapping file
	Mapping     string            `json:"mapping"`
	Tables      correction.Tables `json:"tables"`
	DaysAhead   int               `json:"days_ahead"`
	TimeOfDay   string            `json:"time_of_day"`
	Concurrency int               `json:"concurrency"`
	ArtifactDir string            `json:"artifact_dir"`
	CSVStyle    string            `json:"csv_style"`
	ReportPath  string            `json:"report_path"`
}

type ConsistencyConfig struct {
	Profile     string            `json:"profile"`
	Tables      correction.Tables `json:"tables"`
	ArtifactDir string            `json:"artifact_dir"`
	CSVStyle    string            `json:"csv_style"`
}

type UIConfig struct {
	// rod or static, defaults to rod
	Driver   string            `json:"driver"`
	LoginURL string            `json:"login_url"`
	Rod      uicheck.RodConfig `json:"rod"`
}

// Config is the layout of wastenot.json5.
type Config struct {
	// IANA zone used for forward-dated timestamps
	Timezone    string             `json:"timezone"`
	API         wastenotapi.Config `json:"api"`
	Snapshots   SnapshotConfig     `json:"snapshots"`
	Databases   dbexec.Profiles    `json:"databases"`
	Correction  CorrectionConfig   `json:"correction"`
	Consistency ConsistencyConfig  `json:"consistency"`
	UI          UIConfig           `json:"ui"`
	Notify      notify.Config      `json:"notify"`
	Telemetry   telemetry.Config   `json:"telemetry"`
}

// TablesOrDefault returns the production tables when none are configured.
func TablesOrDefault(t correction.Tables) correction.Tables {
	if t == (correction.Tables{}) {
		return correction.DefaultTables()
	}
	return t
}
