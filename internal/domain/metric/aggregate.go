package metric

import (
	"encoding/json"
	"slices"
)

// Totals maps a slug to the sum of its values.
type Totals map[string]float64

// NewTotals returns totals with every slug set to zero.
func NewTotals(slugs []string) Totals {
	t := make(Totals, len(slugs))
	for _, s := range slugs {
		t[s] = 0
	}
	return t
}

// Add increments slug by v. Slugs that are not tracked are ignored.
func (t Totals) Add(slug string, v float64) bool {
	if _, ok := t[slug]; !ok {
		return false
	}
	t[slug] += v
	return true
}

// Merge adds every tracked slug of other into t.
func (t Totals) Merge(other Totals) {
	for slug, v := range other {
		t.Add(slug, v)
	}
}

func (t Totals) Sum() float64 {
	var sum float64
	for _, v := range t {
		sum += v
	}
	return sum
}

// Aggregate sums events per known slug. Events of unknown types contribute nothing.
func Aggregate(events []*Event, slugs []string) Totals {
	return AggregateFunc(events, slugs, func(*Event) bool { return true })
}

// AggregateWithin sums only events whose timestamp falls into w.
func AggregateWithin(events []*Event, slugs []string, w Window) Totals {
	return AggregateFunc(events, slugs, func(e *Event) bool { return w.Contains(e.CreatedAt) })
}

func AggregateFunc(events []*Event, slugs []string, keep func(*Event) bool) Totals {
	totals := NewTotals(slugs)
	for _, e := range events {
		if keep(e) {
			totals.Add(e.Type, e.Value)
		}
	}
	return totals
}

func marshalOrdered(prefix []byte, slugs []string, values Totals) ([]byte, error) {
	buf := append([]byte{'{'}, prefix...)
	for i, slug := range slugs {
		if i > 0 || len(prefix) > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(slug)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(values[slug])
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

// Recent returns at most n events ordered newest first.
func Recent(events []*Event, n int) []*Event {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b *Event) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
