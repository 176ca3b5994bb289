package correction

import (
	"fmt"
	"sort"
)

type DivergenceKind string

const (
	DivergentValue DivergenceKind = "divergent_value"
	OnlyInA        DivergenceKind = "only_in_a"
	OnlyInB        DivergenceKind = "only_in_b"
)

// Divergence is a key on which two mappings disagree.
type Divergence struct {
	Key  string
	Kind DivergenceKind
	A    string
	B    string
}

func (d Divergence) String() string {
	switch d.Kind {
	case OnlyInA:
		return fmt.Sprintf("%s: only in first mapping (%s)", d.Key, d.A)
	case OnlyInB:
		return fmt.Sprintf("%s: only in second mapping (%s)", d.Key, d.B)
	default:
		return fmt.Sprintf("%s: %s != %s", d.Key, d.A, d.B)
	}
}

// Divergences lists keys whose expected values differ between two mappings
// or that only one of them has, sorted by key. It never picks a winner.
func Divergences(a, b map[string]string) []Divergence {
	var out []Divergence
	for key, av := range a {
		bv, ok := b[key]
		switch {
		case !ok:
			out = append(out, Divergence{Key: key, Kind: OnlyInA, A: av})
		case av != bv:
			out = append(out, Divergence{Key: key, Kind: DivergentValue, A: av, B: bv})
		}
	}
	for key, bv := range b {
		_, ok := a[key]
		if !ok {
			out = append(out, Divergence{Key: key, Kind: OnlyInB, B: bv})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	return out
}
