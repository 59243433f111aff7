package metric

import (
	"encoding/json"
	"fmt"
	"time"
)

type Granularity int

const (
	Hourly Granularity = iota
	Daily
)

const (
	HourlyBuckets = 24
	DailyBuckets  = 7

	hourLabel = "15:04"
	dayLabel  = "2006-01-02"
)

func (g Granularity) String() string {
	switch g {
	case Hourly:
		return "hourly"
	case Daily:
		return "daily"
	default:
		return fmt.Sprintf("Granularity(%d)", int(g))
	}
}

// Window is the closed interval [Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Point is one timeline bucket.
type Point struct {
	Label  string
	Start  time.Time
	Slugs  []string
	Values Totals
}

// MarshalJSON flattens the point to {"date": label, "<SLUG>": value, ...}.
func (p Point) MarshalJSON() ([]byte, error) {
	label, err := json.Marshal(p.Label)
	if err != nil {
		return nil, err
	}
	prefix := append([]byte(`"date":`), label...)
	return marshalOrdered(prefix, p.Slugs, p.Values)
}

type Timeline struct {
	Granularity Granularity
	Window      Window
	Points      []Point
}

// BuildTimeline buckets events into n hours or days ending at now, oldest
// first. Bucket boundaries and labels follow loc. Every bucket is present
// even when empty, and an event is counted iff Window contains it, so the
// sum over buckets always equals AggregateWithin for the same window.
func BuildTimeline(events []*Event, slugs []string, g Granularity, n int, now time.Time, loc *time.Location) *Timeline {
	if loc == nil {
		loc = time.UTC
	}
	if n < 1 {
		n = 1
	}
	now = now.In(loc)

	t := &Timeline{
		Granularity: g,
		Points:      make([]Point, n),
	}

	switch g {
	case Daily:
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		index := make(map[string]int, n)
		for i := range n {
			start := today.AddDate(0, 0, i-(n-1))
			label := start.Format(dayLabel)
			t.Points[i] = Point{Label: label, Start: start, Slugs: slugs, Values: NewTotals(slugs)}
			index[label] = i
		}
		t.Window = Window{Start: t.Points[0].Start, End: now}
		for _, e := range events {
			if !t.Window.Contains(e.CreatedAt) {
				continue
			}
			if i, ok := index[e.CreatedAt.In(loc).Format(dayLabel)]; ok {
				t.Points[i].Values.Add(e.Type, e.Value)
			}
		}
	default:
		current := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, loc)
		first := current.Add(-time.Duration(n-1) * time.Hour)
		for i := range n {
			start := first.Add(time.Duration(i) * time.Hour)
			t.Points[i] = Point{Label: start.In(loc).Format(hourLabel), Start: start, Slugs: slugs, Values: NewTotals(slugs)}
		}
		t.Window = Window{Start: first, End: now}
		for _, e := range events {
			if !t.Window.Contains(e.CreatedAt) {
				continue
			}
			i := int(e.CreatedAt.Sub(first) / time.Hour)
			if i >= n {
				i = n - 1
			}
			t.Points[i].Values.Add(e.Type, e.Value)
		}
	}

	return t
}
