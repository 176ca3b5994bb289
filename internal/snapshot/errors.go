package snapshot

import (
	"fmt"
	"strings"
)

type UnexpectedStatusError struct {
	URL    string
	Status int
}

func (e UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s (want 200)", e.Status, e.URL)
}

type MalformedPayloadError struct {
	// Source is either a URL or a snapshot path.
	Source string
	Err    error
}

func (e MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload from %s: %s", e.Source, e.Err)
}

func (e MalformedPayloadError) Unwrap() error {
	return e.Err
}

// MissingFieldError names a required field absent from the record at Index
// of the record collection.
type MissingFieldError struct {
	Field string
	Index int
	// set when the record was matched by id during validation
	ID string
}

func (e MissingFieldError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("missing field %q in live record %s (sample %d)", e.Field, e.ID, e.Index)
	}
	return fmt.Sprintf("missing field %q in record[%d]", e.Field, e.Index)
}

type SnapshotNotFoundError struct {
	Path string
}

func (e SnapshotNotFoundError) Error() string {
	return fmt.Sprintf("no snapshot at %s, run save first", e.Path)
}

type RecordNotFoundError struct {
	ID string
}

func (e RecordNotFoundError) Error() string {
	return fmt.Sprintf("record with id %s not found in live data", e.ID)
}

type FieldMismatchError struct {
	Field string
	ID    string
	Saved any
	Live  any
}

func (e FieldMismatchError) Error() string {
	return fmt.Sprintf(
		"mismatch for field %q in record %s: saved %s, live %s",
		e.Field, e.ID, formatValue(e.Saved), formatValue(e.Live),
	)
}

// PayloadMismatchError is returned by exact comparison, Diff is a go-cmp
// diff from saved (-) to live (+).
type PayloadMismatchError struct {
	Path string
	Diff string
}

func (e PayloadMismatchError) Error() string {
	return fmt.Sprintf("live payload differs from snapshot %s:\n%s", e.Path, strings.TrimSpace(e.Diff))
}
