package wastenotapi

import (
	"net/url"
	"strings"
)

// DefaultBaseURL is the production WasteNot report endpoint.
const DefaultBaseURL = "https://cafemanager-api.cafebonappetit.com/api/wastenot"

// Param is a single query string parameter, an empty Value renders as a bare
// flag (ex. "?compass&start=...").
type Param struct {
	Key   string
	Value string
}

// Query selects one remote WasteNot resource. It is a value type, builders
// return copies.
type Query struct {
	Name   string
	Params []Param
	// RawURL, when set, is used verbatim instead of encoding Params.
	RawURL string
	Start  string
	End    string
}

// Encode renders the params in declaration order.
func (q Query) Encode() string {
	var out strings.Builder
	for i, p := range q.Params {
		if i > 0 {
			out.WriteByte('&')
		}
		out.WriteString(url.QueryEscape(p.Key))
		if p.Value == "" {
			continue
		}
		out.WriteByte('=')
		out.WriteString(url.QueryEscape(p.Value))
	}
	return out.String()
}

// URL returns the absolute URL for the query against `base`.
func (q Query) URL(base string) string {
	if q.RawURL != "" {
		return q.RawURL
	}
	encoded := q.Encode()
	if encoded == "" {
		return base
	}
	return base + "?" + encoded
}

// Param returns the value of the first param named `key`.
func (q Query) Param(key string) (string, bool) {
	for _, p := range q.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// With returns a copy of the query with `key` set to `value`, replacing an
// existing param in place or appending a new one.
func (q Query) With(key, value string) Query {
	params := make([]Param, len(q.Params), len(q.Params)+1)
	copy(params, q.Params)
	for i, p := range params {
		if p.Key == key {
			params[i].Value = value
			q.Params = params
			return q
		}
	}
	q.Params = append(params, Param{Key: key, Value: value})
	return q
}
