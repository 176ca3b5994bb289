package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"testing"
	"wastenot-e2e/internal/components/telemetry"
	"wastenot-e2e/internal/wastenotapi"

	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://wastenot.test/api/wastenot"

// fakeFetcher serves a fixed response per URL, responses can be swapped
// between save and validate.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]wastenotapi.Response
	calls     []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: map[string]wastenotapi.Response{}}
}

func (f *fakeFetcher) set(url string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[url] = wastenotapi.Response{Status: status, Body: []byte(body)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (wastenotapi.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	res, ok := f.responses[url]
	if !ok {
		return wastenotapi.Response{}, fmt.Errorf("no response for %s", url)
	}
	return res, nil
}

type memoryArchive struct {
	objects map[string][]byte
	err     error
}

func (a *memoryArchive) Put(ctx context.Context, name string, contents []byte) error {
	if a.err != nil {
		return a.err
	}
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[name] = contents
	return nil
}

var campusQuery = wastenotapi.Query{
	Name: "campus",
	Params: []wastenotapi.Param{
		{Key: "campus", Value: "141"},
		{Key: "start", Value: "2024-01-01"},
		{Key: "end", Value: "2024-01-02"},
		{Key: "limit", Value: "1000"},
	},
	Start: "2024-01-01",
	End:   "2024-01-02",
}

type fixture struct {
	fetcher *fakeFetcher
	store   Store
	tel     *telemetry.RecorderAPI
	archive *memoryArchive
}

func setup(t testing.TB) fixture {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return fixture{
		fetcher: newFakeFetcher(),
		store:   store,
		tel:     telemetry.NewRecorderAPI(),
		archive: &memoryArchive{},
	}
}

func (f fixture) verifier(opts Options) Verifier {
	return NewVerifier(VerifierParams{
		Fetcher: f.fetcher,
		Store:   f.store,
		Archive: f.archive,
		BaseURL: testBaseURL,
		Tel:     f.tel,
	}, opts)
}

func TestSaveThenValidateUnchanged(t *testing.T) {
	f := setup(t)
	url := campusQuery.URL(testBaseURL)
	body := `{"wastes":[{"id":1,"campus_id":"141","lbs_waste":2.5}]}`
	f.fetcher.set(url, http.StatusOK, body)

	for _, mode := range []CompareMode{CompareExact, CompareFields} {
		v := f.verifier(Options{
			RequiredFields: []string{"id", "campus_id"},
			Compare:        mode,
		})

		snap, err := v.Save(context.Background(), campusQuery)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, 1, snap.Records)
		require.Equal(t, []int{0}, snap.Checked)
		require.Equal(t, f.store.Path(campusQuery), snap.Path)

		written, err := os.ReadFile(snap.Path)
		if err != nil {
			t.Fatal(err)
		}
		require.JSONEq(t, body, string(written))
		require.Contains(t, string(written), "\n  \"wastes\": [")

		err = v.Validate(context.Background(), campusQuery)
		require.NoError(t, err, mode.String())
	}

	require.Contains(t, f.archive.objects, "campus_2024-01-01_2024-01-02.json")
}

func TestValidateFieldMismatch(t *testing.T) {
	f := setup(t)
	url := campusQuery.URL(testBaseURL)
	v := f.verifier(Options{
		RequiredFields: []string{"id", "lbs_waste"},
		Compare:        CompareFields,
	})

	f.fetcher.set(url, http.StatusOK, `{"wastes":[{"id":7,"lbs_waste":12.5}]}`)
	_, err := v.Save(context.Background(), campusQuery)
	if err != nil {
		t.Fatal(err)
	}

	f.fetcher.set(url, http.StatusOK, `{"wastes":[{"id":7,"lbs_waste":13.0}]}`)
	err = v.Validate(context.Background(), campusQuery)

	var mismatch FieldMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "lbs_waste", mismatch.Field)
	require.Equal(t, "7", mismatch.ID)
	require.Equal(t, json.Number("12.5"), mismatch.Saved)
	require.Equal(t, json.Number("13.0"), mismatch.Live)
	require.Contains(t, err.Error(), "saved 12.5, live 13.0")
	require.NotEmpty(t, f.tel.Reports(telemetry.KindBroken, report_verifier_validate))
}

func TestValidateNumericLiteralsEqualByValue(t *testing.T) {
	f := setup(t)
	url := campusQuery.URL(testBaseURL)
	v := f.verifier(Options{RequiredFields: []string{"id", "lbs_waste"}, Compare: CompareFields})

	f.fetcher.set(url, http.StatusOK, `{"wastes":[{"id":7,"lbs_waste":13}]}`)
	_, err := v.Save(context.Background(), campusQuery)
	if err != nil {
		t.Fatal(err)
	}
	f.fetcher.set(url, http.StatusOK, `{"wastes":[{"id":7,"lbs_waste":13.0}]}`)
	require.NoError(t, v.Validate(context.Background(), campusQuery))
}

func TestValidateMatchesByIDNotPosition(t *testing.T) {
	f := setup(t)
	url := campusQuery.URL(testBaseURL)
	v := f.verifier(Options{
		RequiredFields: []string{"id", "kitchen_id"},
		Sampler:        SampleFirst(5),
		Compare:        CompareFields,
	})

	f.fetcher.set(url, http.StatusOK, `{"wastes":[{"id":1,"kitchen_id":"a"},{"id":2,"kitchen_id":"b"}]}`)
	_, err := v.Save(context.Background(), campusQuery)
	if err != nil {
		t.Fatal(err)
	}
	f.fetcher.set(url, http.StatusOK, `{"wastes":[{"id":2,"kitchen_id":"b"},{"id":3,"kitchen_id":"c"},{"id":1,"kitchen_id":"a"}]}`)
	require.NoError(t, v.Validate(context.Background(), campusQuery))
}

func TestValidateRecordNotFound(t *testing.T) {
	f := setup(t)
	url := campusQuery.URL(testBaseURL)
	v := f.verifier(Options{RequiredFields: []string{"id"}, Compare: CompareFields})

	f.fetcher.set(url, http.StatusOK, `{"wastes":[{"id":"w-1"}]}`)
	_, err := v.Save(context.Background(), campusQuery)
	if err != nil {
		t.Fatal(err)
	}
	f.fetcher.set(url, http.StatusOK, `{"wastes":[{"id":"w-2"}]}`)

	err = v.Validate(context.Background(), campusQuery)
	var notFound RecordNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "w-1", notFound.ID)
}

func TestValidateLiveRecordMissingField(t *testing.T) {
	f := setup(t)
	url := campusQuery.URL(testBaseURL)
	v := f.verifier(Options{RequiredFields: []string{"id", "campus_id"}, Compare: CompareFields})

	f.fetcher.set(url, http.StatusOK, `{"wastes":[{"id":1,"campus_id":"141"}]}`)
	_, err := v.Save(context.Background(), campusQuery)
	if err != nil {
		t.Fatal(err)
	}
	f.fetcher.set(url, http.StatusOK, `{"wastes":[{"id":1}]}`)

	err = v.Validate(context.Background(), campusQuery)
	var missing MissingFieldError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "campus_id", missing.Field)
	require.Equal(t, "1", missing.ID)
}

func TestSaveMissingField(t *testing.T) {
	f := setup(t)
	url := campusQuery.URL(testBaseURL)
	v := f.verifier(Options{RequiredFields: []string{"id", "campus_id", "lbs_waste"}})

	f.fetcher.set(url, http.StatusOK, `{"wastes":[{"id":1,"campus_id":"141","lbs_waste":1},{"id":2,"campus_id":"141"}]}`)
	_, err := v.Save(context.Background(), campusQuery)

	var missing MissingFieldError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "lbs_waste", missing.Field)
	require.Equal(t, 1, missing.Index)

	_, statErr := os.Stat(f.store.Path(campusQuery))
	require.True(t, os.IsNotExist(statErr), "no snapshot is written when validation fails")
}

func TestSaveUnexpectedStatus(t *testing.T) {
	f := setup(t)
	url := campusQuery.URL(testBaseURL)
	v := f.verifier(Options{})

	f.fetcher.set(url, http.StatusUnauthorized, `{"error":"nope"}`)
	_, err := v.Save(context.Background(), campusQuery)

	var status UnexpectedStatusError
	require.ErrorAs(t, err, &status)
	require.Equal(t, http.StatusUnauthorized, status.Status)

	_, statErr := os.Stat(f.store.Path(campusQuery))
	require.True(t, os.IsNotExist(statErr))
}

func TestSaveMalformedPayload(t *testing.T) {
	f := setup(t)
	url := campusQuery.URL(testBaseURL)
	v := f.verifier(Options{})

	f.fetcher.set(url, http.StatusOK, `<html>maintenance</html>`)
	_, err := v.Save(context.Background(), campusQuery)

	var malformed MalformedPayloadError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, url, malformed.Source)
}

func TestSaveTrailingDelimiterIsMalformed(t *testing.T) {
	url := campusQuery.URL(testBaseURL)
	for _, body := range []string{`{"wastes":[{"id":1}]}}`, `{"wastes":[{"id":1}]}]`} {
		f := setup(t)
		v := f.verifier(Options{RequiredFields: []string{"id"}})

		f.fetcher.set(url, http.StatusOK, body)
		_, err := v.Save(context.Background(), campusQuery)

		var malformed MalformedPayloadError
		require.ErrorAs(t, err, &malformed, body)
		require.Equal(t, url, malformed.Source)

		_, statErr := os.Stat(f.store.Path(campusQuery))
		require.True(t, os.IsNotExist(statErr), body)
	}
}

func TestSaveWithoutCollection(t *testing.T) {
	f := setup(t)
	url := campusQuery.URL(testBaseURL)
	v := f.verifier(Options{RequiredFields: []string{"id"}})

	f.fetcher.set(url, http.StatusOK, `{"total":0}`)
	snap, err := v.Save(context.Background(), campusQuery)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, -1, snap.Records)
	require.Empty(t, snap.Checked)
}

func TestSaveOverwritesExisting(t *testing.T) {
	f := setup(t)
	url := campusQuery.URL(testBaseURL)
	v := f.verifier(Options{})

	f.fetcher.set(url, http.StatusOK, `{"wastes":[{"id":1}]}`)
	_, err := v.Save(context.Background(), campusQuery)
	if err != nil {
		t.Fatal(err)
	}
	f.fetcher.set(url, http.StatusOK, `{"wastes":[]}`)
	_, err = v.Save(context.Background(), campusQuery)
	if err != nil {
		t.Fatal(err)
	}

	written, err := os.ReadFile(f.store.Path(campusQuery))
	if err != nil {
		t.Fatal(err)
	}
	require.JSONEq(t, `{"wastes":[]}`, string(written))
}

func TestSaveArchiveFailureIsWarning(t *testing.T) {
	f := setup(t)
	f.archive.err = errors.New("bucket unreachable")
	url := campusQuery.URL(testBaseURL)
	v := f.verifier(Options{})

	f.fetcher.set(url, http.StatusOK, `{"wastes":[]}`)
	_, err := v.Save(context.Background(), campusQuery)
	require.NoError(t, err)
	require.Len(t, f.tel.Reports(telemetry.KindWarning, report_verifier_archive), 1)
}

func TestValidateSnapshotNotFound(t *testing.T) {
	f := setup(t)
	v := f.verifier(Options{})

	err := v.Validate(context.Background(), campusQuery)
	var notFound SnapshotNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, f.store.Path(campusQuery), notFound.Path)
	require.Empty(t, f.fetcher.calls, "no fetch without a snapshot")
}

func TestValidateUnexpectedStatus(t *testing.T) {
	f := setup(t)
	url := campusQuery.URL(testBaseURL)
	v := f.verifier(Options{})

	f.fetcher.set(url, http.StatusOK, `{"wastes":[]}`)
	_, err := v.Save(context.Background(), campusQuery)
	if err != nil {
		t.Fatal(err)
	}
	f.fetcher.set(url, http.StatusBadGateway, ``)

	err = v.Validate(context.Background(), campusQuery)
	var status UnexpectedStatusError
	require.ErrorAs(t, err, &status)
	require.Equal(t, http.StatusBadGateway, status.Status)
}

func TestValidateCorruptSnapshot(t *testing.T) {
	f := setup(t)
	err := os.WriteFile(f.store.Path(campusQuery), []byte("{not json"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	v := f.verifier(Options{})

	err = v.Validate(context.Background(), campusQuery)
	var malformed MalformedPayloadError
	require.ErrorAs(t, err, &malformed)
}

func TestValidateExactMismatch(t *testing.T) {
	f := setup(t)
	url := campusQuery.URL(testBaseURL)
	v := f.verifier(Options{Compare: CompareExact})

	f.fetcher.set(url, http.StatusOK, `{"wastes":[{"id":1,"kind_of_waste":"trim"}]}`)
	_, err := v.Save(context.Background(), campusQuery)
	if err != nil {
		t.Fatal(err)
	}
	f.fetcher.set(url, http.StatusOK, `{"wastes":[{"id":1,"kind_of_waste":"plate"}]}`)

	err = v.Validate(context.Background(), campusQuery)
	var mismatch PayloadMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Contains(t, mismatch.Diff, "trim")
	require.Contains(t, mismatch.Diff, "plate")
}

func TestValidateTrailingDelimiterIsMalformed(t *testing.T) {
	url := campusQuery.URL(testBaseURL)
	for _, mode := range []CompareMode{CompareExact, CompareFields} {
		for _, body := range []string{`{"wastes":[{"id":1}]}}`, `{"wastes":[{"id":1}]}]`} {
			f := setup(t)
			v := f.verifier(Options{RequiredFields: []string{"id"}, Compare: mode})

			f.fetcher.set(url, http.StatusOK, `{"wastes":[{"id":1}]}`)
			_, err := v.Save(context.Background(), campusQuery)
			if err != nil {
				t.Fatal(err)
			}
			f.fetcher.set(url, http.StatusOK, body)

			err = v.Validate(context.Background(), campusQuery)
			var malformed MalformedPayloadError
			require.ErrorAs(t, err, &malformed, "%s %s", mode, body)
			require.Equal(t, url, malformed.Source)
		}
	}
}

func TestValidateSnapshotWithTrailingData(t *testing.T) {
	f := setup(t)
	err := os.WriteFile(f.store.Path(campusQuery), []byte(`{"wastes":[]}}`), 0644)
	if err != nil {
		t.Fatal(err)
	}
	v := f.verifier(Options{})

	err = v.Validate(context.Background(), campusQuery)
	var malformed MalformedPayloadError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, f.store.Path(campusQuery), malformed.Source)
	require.Empty(t, f.fetcher.calls)
}
