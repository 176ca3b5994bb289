package correction

import (
	"fmt"
	"regexp"
	"strings"
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Tables names the identifiers the workflow writes into its SQL. They cannot
// be bound as parameters so every one of them is validated.
type Tables struct {
	// optional, ex. "cafebonappetit"
	Schema string `json:"schema"`

	Target          string `json:"target"`
	TargetKey       string `json:"target_key"`
	TargetValue     string `json:"target_value"`
	TargetTimestamp string `json:"target_timestamp"`
	TargetOrder     string `json:"target_order"`

	Reference      string `json:"reference"`
	ReferenceKey   string `json:"reference_key"`
	ReferenceValue string `json:"reference_value"`
}

func DefaultTables() Tables {
	return Tables{
		Schema:          "cafebonappetit",
		Target:          "ot_tablet_profile",
		TargetKey:       "kitchen_id",
		TargetValue:     "campus_id",
		TargetTimestamp: "app_date",
		TargetOrder:     "created_at",
		Reference:       "ot_kitchen",
		ReferenceKey:    "id",
		ReferenceValue:  "complex_id",
	}
}

// WithDefaults fills every empty identifier except Schema from DefaultTables.
func (t Tables) WithDefaults() Tables {
	d := DefaultTables()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&t.Target, d.Target)
	fill(&t.TargetKey, d.TargetKey)
	fill(&t.TargetValue, d.TargetValue)
	fill(&t.TargetTimestamp, d.TargetTimestamp)
	fill(&t.TargetOrder, d.TargetOrder)
	fill(&t.Reference, d.Reference)
	fill(&t.ReferenceKey, d.ReferenceKey)
	fill(&t.ReferenceValue, d.ReferenceValue)
	return t
}

func (t Tables) Validate() error {
	named := []struct {
		name  string
		value string
	}{
		{"target", t.Target},
		{"target_key", t.TargetKey},
		{"target_value", t.TargetValue},
		{"target_timestamp", t.TargetTimestamp},
		{"target_order", t.TargetOrder},
		{"reference", t.Reference},
		{"reference_key", t.ReferenceKey},
		{"reference_value", t.ReferenceValue},
	}
	if t.Schema != "" {
		named = append(named, struct {
			name  string
			value string
		}{"schema", t.Schema})
	}
	for _, n := range named {
		if !identifierRegex.MatchString(n.value) {
			return fmt.Errorf("invalid identifier for %s: %q", n.name, n.value)
		}
	}
	return nil
}

func (t Tables) qualify(table string) string {
	if t.Schema == "" {
		return table
	}
	return t.Schema + "." + table
}

// statement is a SQL string with its bound arguments.
type statement struct {
	sql  string
	args []any
}

// scope is the WHERE clause shared by the scoped read and the update.
func (t Tables) scope(task Task) statement {
	if task.Old == "" {
		return statement{
			sql:  fmt.Sprintf("%s = ? AND %s != ?", t.TargetKey, t.TargetValue),
			args: []any{task.Key, task.Expected},
		}
	}
	return statement{
		sql:  fmt.Sprintf("%s = ? AND %s = ?", t.TargetValue, t.TargetKey),
		args: []any{task.Old, task.Key},
	}
}

func (t Tables) scopedSelect(task Task) statement {
	where := t.scope(task)
	return statement{
		sql: fmt.Sprintf(
			"SELECT * FROM %s WHERE %s ORDER BY %s DESC",
			t.qualify(t.Target), where.sql, t.TargetOrder,
		),
		args: where.args,
	}
}

func (t Tables) referenceSelect(task Task) statement {
	return statement{
		sql:  fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", t.qualify(t.Reference), t.ReferenceKey),
		args: []any{task.Key},
	}
}

func (t Tables) update(task Task, timestamp string) statement {
	where := t.scope(task)
	args := append([]any{task.Expected, timestamp}, where.args...)
	return statement{
		sql: fmt.Sprintf(
			"UPDATE %s SET %s = ?, %s = ? WHERE %s",
			t.qualify(t.Target), t.TargetValue, t.TargetTimestamp, where.sql,
		),
		args: args,
	}
}

func (t Tables) confirmSelect(task Task) statement {
	return statement{
		sql: fmt.Sprintf(
			"SELECT * FROM %s WHERE %s = ? AND %s = ? ORDER BY %s DESC",
			t.qualify(t.Target), t.TargetValue, t.TargetKey, t.TargetOrder,
		),
		args: []any{task.Expected, task.Key},
	}
}

func (s statement) String() string {
	return strings.Join(strings.Fields(s.sql), " ")
}
