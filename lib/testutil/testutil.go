package testutil

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed wastenot_schema.sql
var WasteNotSchema string

type DBParams struct {
	// if unspecified, WasteNotSchema is used
	Schema string
	// if true, the database lives in a file under t.TempDir() so that
	// separate connections see the same data
	File bool
}

type DBResult struct {
	DB  *sql.DB
	DSN string
}

// SetupDB opens a sqlite database seeded with the schema, it is closed when
// the test ends.
func SetupDB(t testing.TB, params DBParams) DBResult {
	t.Helper()

	schema := params.Schema
	if schema == "" {
		schema = WasteNotSchema
	}

	dsn := ":memory:"
	if params.File {
		dsn = filepath.Join(t.TempDir(), "wastenot.db")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatal(err)
	}
	if dsn == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	t.Cleanup(func() {
		db.Close()
	})

	_, err = db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		t.Fatal(err)
	}

	return DBResult{DB: db, DSN: dsn}
}

type TabletProfile struct {
	KitchenID string
	CampusID  string
	AppDate   string
	CreatedAt string
}

func InsertTabletProfiles(t testing.TB, db *sql.DB, profiles ...TabletProfile) {
	t.Helper()
	for i, p := range profiles {
		createdAt := p.CreatedAt
		if createdAt == "" {
			createdAt = fmt.Sprintf("2024-01-01 00:00:%02d", i)
		}
		_, err := db.Exec(
			"insert into ot_tablet_profile (kitchen_id, campus_id, app_date, created_at) values (?, ?, ?, ?)",
			p.KitchenID, p.CampusID, p.AppDate, createdAt,
		)
		if err != nil {
			t.Fatal(err)
		}
	}
}

func InsertKitchen(t testing.TB, db *sql.DB, id, complexID string) {
	t.Helper()
	_, err := db.Exec("insert into ot_kitchen (id, complex_id) values (?, ?)", id, complexID)
	if err != nil {
		t.Fatal(err)
	}
}

// CampusOf returns every campus_id stored for a kitchen.
func CampusOf(t testing.TB, db *sql.DB, kitchenID string) []string {
	t.Helper()
	rows, err := db.Query("select campus_id from ot_tablet_profile where kitchen_id = ? order by id", kitchenID)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var campus sql.NullString
		err = rows.Scan(&campus)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, campus.String)
	}
	if rows.Err() != nil {
		t.Fatal(rows.Err())
	}
	return out
}
