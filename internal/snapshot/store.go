package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	devenv "wastenot-e2e/dev/env"
	"wastenot-e2e/internal/wastenotapi"
)

const DefaultDir = "<workspace>/tests/downloads"

// Store keeps one pretty-printed JSON file per resource and date range.
type Store struct {
	dir string
}

func NewStore(dir string) (Store, error) {
	if dir == "" {
		dir = DefaultDir
	}
	resolved, err := devenv.ResolvePath(dir)
	if err != nil {
		return Store{}, fmt.Errorf("resolve snapshot dir %s: %w", dir, err)
	}
	return Store{dir: resolved}, nil
}

func (s Store) Dir() string {
	return s.dir
}

func FileName(q wastenotapi.Query) string {
	return fmt.Sprintf("%s_%s_%s.json", q.Name, q.Start, q.End)
}

func (s Store) Path(q wastenotapi.Query) string {
	return filepath.Join(s.dir, FileName(q))
}

// Write indents body and overwrites the snapshot for q, it returns the bytes
// that were written.
func (s Store) Write(q wastenotapi.Query, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := json.Indent(&buf, body, "", "  ")
	if err != nil {
		return nil, err
	}
	buf.WriteByte('\n')

	err = os.MkdirAll(s.dir, 0777)
	if err != nil {
		return nil, err
	}
	err = os.WriteFile(s.Path(q), buf.Bytes(), 0644)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read decodes the snapshot for q keeping numeric literals as json.Number.
func (s Store) Read(q wastenotapi.Query) (any, error) {
	path := s.Path(q)
	contents, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, SnapshotNotFoundError{Path: path}
	}
	if err != nil {
		return nil, err
	}
	payload, err := decode(contents)
	if err != nil {
		return nil, MalformedPayloadError{Source: path, Err: err}
	}
	return payload, nil
}

type Entry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// List returns every snapshot file in the store sorted by name.
func (s Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, e := range dirEntries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{
			Name:    e.Name(),
			Path:    filepath.Join(s.dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	err := dec.Decode(&payload)
	if err != nil {
		return nil, err
	}
	// a stray "}" or "]" after the value is invisible to dec.More
	_, err = dec.Token()
	if err != io.EOF {
		return nil, errors.New("trailing data after JSON value")
	}
	return payload, nil
}
