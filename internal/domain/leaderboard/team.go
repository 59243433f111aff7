package leaderboard

import (
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/team"
	"sort"
)

type Member struct {
	Subject
	IsAdmin bool
}

type Team struct {
	Subject
	Members []Member
}

// FromRosters turns team rosters into board teams keeping their order.
func FromRosters(rosters []team.Roster) []Team {
	teams := make([]Team, 0, len(rosters))
	for _, r := range rosters {
		members := make([]Member, 0, len(r.Members))
		for _, m := range r.Members {
			members = append(members, Member{
				Subject: Subject{ID: m.UserID, Name: m.Name, Color: m.Color},
				IsAdmin: m.IsAdmin,
			})
		}
		teams = append(teams, Team{
			Subject: Subject{ID: r.Team.TeamID, Name: r.Team.Name, Color: r.Team.Color},
			Members: members,
		})
	}
	return teams
}

// Subjects flattens the members of every team.
func Subjects(teams []Team) []Subject {
	var subjects []Subject
	for _, t := range teams {
		for _, m := range t.Members {
			subjects = append(subjects, m.Subject)
		}
	}
	return subjects
}

type MemberEntry struct {
	Entry
	IsAdmin bool
}

type TeamEntry struct {
	Entry
	Members []MemberEntry
}

// Teams rolls member totals up into team totals. A member contributes only
// the events that were attributed to that team when they were logged. Teams
// and the members inside each team are ranked with the same rule as Rank.
func Teams(teams []Team, events []*metric.Event, slugs []string, policy Policy) []TeamEntry {
	byUser := GroupByUser(events)

	result := make([]TeamEntry, 0, len(teams))
	for _, t := range teams {
		teamTotals := metric.NewTotals(slugs)
		members := make([]Entry, 0, len(t.Members))
		admins := make(map[string]bool, len(t.Members))

		for _, m := range t.Members {
			totals := metric.AggregateFunc(byUser[m.ID], slugs, func(e *metric.Event) bool {
				return e.AttributedTo(t.ID)
			})
			teamTotals.Merge(totals)
			admins[m.ID] = m.IsAdmin
			members = append(members, Entry{
				Subject: m.Subject,
				Metrics: totals,
				Score:   policy.Score(totals, slugs),
			})
		}

		ranked := Rank(members)
		memberEntries := make([]MemberEntry, 0, len(ranked))
		for _, e := range ranked {
			memberEntries = append(memberEntries, MemberEntry{Entry: e, IsAdmin: admins[e.ID]})
		}

		result = append(result, TeamEntry{
			Entry: Entry{
				Subject: t.Subject,
				Metrics: teamTotals,
				Score:   policy.Score(teamTotals, slugs),
			},
			Members: memberEntries,
		})
	}

	rankTeams(result)
	return result
}

func rankTeams(teams []TeamEntry) {
	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].Score > teams[j].Score
	})
}
