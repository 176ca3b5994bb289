package snapshot

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/google/go-cmp/cmp"
)

// numbers are compared by value so 13 and 13.0 are equal, the literal text is
// kept for messages.
func numbersEqual(a, b json.Number) bool {
	if a == b {
		return true
	}
	ra, ok := new(big.Rat).SetString(string(a))
	if !ok {
		return false
	}
	rb, ok := new(big.Rat).SetString(string(b))
	if !ok {
		return false
	}
	return ra.Cmp(rb) == 0
}

var numberComparer = cmp.Comparer(numbersEqual)

func valuesEqual(a, b any) bool {
	return cmp.Equal(a, b, numberComparer)
}

func diffValues(saved, live any) string {
	return cmp.Diff(saved, live, numberComparer)
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case json.Number:
		return string(t)
	case string:
		return fmt.Sprintf("%q", t)
	default:
		encoded, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(encoded)
	}
}

// idString renders a record id for error messages and lookups.
func idString(v any) string {
	switch t := v.(type) {
	case json.Number:
		return string(t)
	case string:
		return t
	default:
		return formatValue(t)
	}
}

func recordsOf(payload any, key string) ([]any, bool) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, false
	}
	records, ok := obj[key].([]any)
	return records, ok
}

func findByID(records []any, id any) (map[string]any, bool) {
	for _, r := range records {
		record, ok := r.(map[string]any)
		if !ok {
			continue
		}
		candidate, ok := record["id"]
		if !ok {
			continue
		}
		if valuesEqual(candidate, id) {
			return record, true
		}
	}
	return nil, false
}
