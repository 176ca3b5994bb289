package snapshot

import (
	"context"
	"fmt"
	"net/http"
	"wastenot-e2e/internal/components/assert"
	"wastenot-e2e/internal/components/telemetry"
	"wastenot-e2e/internal/wastenotapi"
)

const (
	report_verifier_save     = "verifier.save"
	report_verifier_validate = "verifier.validate"
	report_verifier_archive  = "verifier.archive"
)

const DefaultRecordsKey = "wastes"

type CompareMode int

const (
	// CompareExact requires the live payload to deep-equal the snapshot.
	CompareExact CompareMode = iota
	// CompareFields compares the required fields of sampled records matched by id.
	CompareFields
)

func (m CompareMode) String() string {
	switch m {
	case CompareExact:
		return "exact"
	case CompareFields:
		return "fields"
	default:
		return fmt.Sprintf("CompareMode(%d)", int(m))
	}
}

func ParseCompareMode(s string) (CompareMode, error) {
	switch s {
	case "exact":
		return CompareExact, nil
	case "fields", "":
		return CompareFields, nil
	default:
		return 0, fmt.Errorf("unknown compare mode %q (want exact or fields)", s)
	}
}

type Options struct {
	// defaults to "wastes"
	RecordsKey     string
	RequiredFields []string
	// defaults to SampleAll
	Sampler Sampler
	Compare CompareMode
}

// Snapshot describes a payload that was written by Save.
type Snapshot struct {
	Query   wastenotapi.Query
	Path    string
	Payload any
	// -1 when the payload has no record collection
	Records int
	Checked []int
}

type Verifier struct {
	fetcher wastenotapi.Fetcher
	store   Store
	archive Archive
	baseURL string
	opts    Options
	tel     telemetry.API
}

type VerifierParams struct {
	Fetcher wastenotapi.Fetcher
	Store   Store
	// optional
	Archive Archive
	BaseURL string
	Tel     telemetry.API
}

func NewVerifier(params VerifierParams, opts Options) Verifier {
	assert.NotNil(params.Fetcher, "fetcher")
	assert.NotNil(params.Tel, "tel")

	if opts.RecordsKey == "" {
		opts.RecordsKey = DefaultRecordsKey
	}
	if opts.Sampler == nil {
		opts.Sampler = SampleAll()
	}
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = wastenotapi.DefaultBaseURL
	}

	return Verifier{
		fetcher: params.Fetcher,
		store:   params.Store,
		archive: params.Archive,
		baseURL: baseURL,
		opts:    opts,
		tel:     telemetry.NewScopedAPI("snapshot", params.Tel),
	}
}

func (v Verifier) fetch(ctx context.Context, q wastenotapi.Query) (any, []byte, error) {
	url := q.URL(v.baseURL)
	res, err := v.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	if res.Status != http.StatusOK {
		return nil, nil, UnexpectedStatusError{URL: url, Status: res.Status}
	}
	payload, err := decode(res.Body)
	if err != nil {
		return nil, nil, MalformedPayloadError{Source: url, Err: err}
	}
	return payload, res.Body, nil
}

func requireFields(record any, fields []string, index int, id string) error {
	obj, ok := record.(map[string]any)
	if !ok {
		if len(fields) == 0 {
			return nil
		}
		return MissingFieldError{Field: fields[0], Index: index, ID: id}
	}
	for _, f := range fields {
		_, ok := obj[f]
		if !ok {
			return MissingFieldError{Field: f, Index: index, ID: id}
		}
	}
	return nil
}

// Save fetches q, checks the required fields of the sampled records and
// overwrites the snapshot file. Nothing is written when the fetch or the
// field check fails.
func (v Verifier) Save(ctx context.Context, q wastenotapi.Query) (Snapshot, error) {
	payload, body, err := v.fetch(ctx, q)
	if err != nil {
		v.tel.ReportBroken(report_verifier_save, err, q.Name)
		return Snapshot{}, err
	}

	out := Snapshot{
		Query:   q,
		Path:    v.store.Path(q),
		Payload: payload,
		Records: -1,
	}

	records, ok := recordsOf(payload, v.opts.RecordsKey)
	if ok {
		out.Records = len(records)
		out.Checked = v.opts.Sampler.Pick(len(records))
		for _, idx := range out.Checked {
			err = requireFields(records[idx], v.opts.RequiredFields, idx, "")
			if err != nil {
				v.tel.ReportBroken(report_verifier_save, err, q.Name)
				return Snapshot{}, err
			}
		}
	} else {
		v.tel.ReportDebug("payload has no record collection", q.Name, v.opts.RecordsKey)
	}

	written, err := v.store.Write(q, body)
	if err != nil {
		v.tel.ReportBroken(report_verifier_save, err, out.Path)
		return Snapshot{}, fmt.Errorf("write snapshot %s: %w", out.Path, err)
	}
	v.tel.ReportDebug("snapshot saved", out.Path, out.Records, len(out.Checked))

	if v.archive != nil {
		err = v.archive.Put(ctx, FileName(q), written)
		if err != nil {
			v.tel.ReportWarning(report_verifier_archive, err, FileName(q))
		}
	}

	return out, nil
}

// Validate refetches q and compares it with the saved snapshot.
func (v Verifier) Validate(ctx context.Context, q wastenotapi.Query) error {
	saved, err := v.store.Read(q)
	if err != nil {
		v.tel.ReportBroken(report_verifier_validate, err, q.Name)
		return err
	}
	live, _, err := v.fetch(ctx, q)
	if err != nil {
		v.tel.ReportBroken(report_verifier_validate, err, q.Name)
		return err
	}

	switch v.opts.Compare {
	case CompareExact:
		err = v.compareExact(q, saved, live)
	default:
		err = v.compareFields(q, saved, live)
	}
	if err != nil {
		v.tel.ReportBroken(report_verifier_validate, err, q.Name)
		return err
	}
	return nil
}

func (v Verifier) compareExact(q wastenotapi.Query, saved, live any) error {
	if valuesEqual(saved, live) {
		return nil
	}
	return PayloadMismatchError{
		Path: v.store.Path(q),
		Diff: diffValues(saved, live),
	}
}

func (v Verifier) compareFields(q wastenotapi.Query, saved, live any) error {
	savedRecords, ok := recordsOf(saved, v.opts.RecordsKey)
	if !ok {
		v.tel.ReportWarning(report_verifier_validate, "snapshot has no record collection", q.Name)
		return nil
	}
	sample := v.opts.Sampler.Pick(len(savedRecords))
	if len(sample) == 0 {
		return nil
	}

	liveRecords, ok := recordsOf(live, v.opts.RecordsKey)
	if !ok {
		return MalformedPayloadError{
			Source: q.URL(v.baseURL),
			Err:    fmt.Errorf("live payload has no %q collection", v.opts.RecordsKey),
		}
	}

	for _, idx := range sample {
		savedRecord, ok := savedRecords[idx].(map[string]any)
		if !ok {
			return MissingFieldError{Field: "id", Index: idx}
		}
		id, ok := savedRecord["id"]
		if !ok {
			return MissingFieldError{Field: "id", Index: idx}
		}
		idStr := idString(id)

		liveRecord, ok := findByID(liveRecords, id)
		if !ok {
			return RecordNotFoundError{ID: idStr}
		}
		for _, field := range v.opts.RequiredFields {
			liveValue, ok := liveRecord[field]
			if !ok {
				return MissingFieldError{Field: field, Index: idx, ID: idStr}
			}
			savedValue := savedRecord[field]
			if !valuesEqual(savedValue, liveValue) {
				return FieldMismatchError{
					Field: field,
					ID:    idStr,
					Saved: savedValue,
					Live:  liveValue,
				}
			}
		}
	}
	return nil
}
