package leaderboard

import (
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"sort"
)

// Subject is anything that can be placed on a board.
type Subject struct {
	ID    string
	Name  string
	Color string
}

type Entry struct {
	Subject
	Metrics metric.Totals
	Score   float64
}

// Rank sorts entries by score, highest first. Entries with equal score keep
// their input order.
func Rank(entries []Entry) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

// Users scores every subject over its own events and ranks the result.
// eventsOf returns the events that belong to a subject.
func Users(
	subjects []Subject,
	eventsOf func(Subject) []*metric.Event,
	slugs []string,
	policy Policy,
) []Entry {
	entries := make([]Entry, 0, len(subjects))
	for _, s := range subjects {
		totals := metric.Aggregate(eventsOf(s), slugs)
		entries = append(entries, Entry{
			Subject: s,
			Metrics: totals,
			Score:   policy.Score(totals, slugs),
		})
	}
	return Rank(entries)
}

// GroupByUser indexes events by author.
func GroupByUser(events []*metric.Event) map[string][]*metric.Event {
	byUser := make(map[string][]*metric.Event)
	for _, e := range events {
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}
	return byUser
}
