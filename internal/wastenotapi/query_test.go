package wastenotapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryURL(t *testing.T) {
	cases := []struct {
		name   string
		query  Query
		expect string
	}{
		{
			name: "ordered params",
			query: Query{Params: []Param{
				{"campus", "141"}, {"start", "2024-01-01"}, {"end", "2024-01-02"}, {"limit", "1000"},
			}},
			expect: "https://api.test/wastenot?campus=141&start=2024-01-01&end=2024-01-02&limit=1000",
		},
		{
			name:   "bare flag",
			query:  Query{Params: []Param{{"compass", ""}, {"limit", "1000"}}},
			expect: "https://api.test/wastenot?compass&limit=1000",
		},
		{
			name:   "escaped value",
			query:  Query{Params: []Param{{"sector", "F00000,L00000"}}},
			expect: "https://api.test/wastenot?sector=F00000%2CL00000",
		},
		{
			name:   "raw url wins",
			query:  Query{RawURL: "https://other.test/x?y", Params: []Param{{"a", "b"}}},
			expect: "https://other.test/x?y",
		},
		{
			name:   "no params",
			query:  Query{},
			expect: "https://api.test/wastenot",
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expect, test.query.URL("https://api.test/wastenot"))
		})
	}
}

func TestQueryWithCopies(t *testing.T) {
	base := Query{Name: "campus", Params: []Param{{"campus", "141"}, {"limit", "1000"}}}

	paged := base.With("page", "2")
	limited := base.With("limit", "10")

	require.Equal(t, "campus=141&limit=1000", base.Encode())
	require.Equal(t, "campus=141&limit=1000&page=2", paged.Encode())
	require.Equal(t, "campus=141&limit=10", limited.Encode())

	v, ok := paged.Param("page")
	require.True(t, ok)
	require.Equal(t, "2", v)
	_, ok = base.Param("page")
	require.False(t, ok)
}
