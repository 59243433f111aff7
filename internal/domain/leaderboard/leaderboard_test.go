package leaderboard

import (
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/team"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func ev(user string, team *string, slug string, v float64) *metric.Event {
	return &metric.Event{UserID: user, TeamID: team, Type: slug, Value: v, CreatedAt: time.Now()}
}

func ptr(s string) *string {
	return &s
}

func TestPolicies(t *testing.T) {
	slugs := []string{"RED_BULL", "COFFEE"}
	events := []*metric.Event{
		ev("u", nil, "RED_BULL", 1),
		ev("u", nil, "COFFEE", 2),
		ev("u", nil, "RED_BULL", 1),
	}
	totals := metric.Aggregate(events, slugs)

	assert.Equal(t, 6.0, Weighted{}.Score(totals, slugs))
	assert.Equal(t, 4.0, Uniform{}.Score(totals, slugs))
}

func TestWeightedIgnoresOtherSlugs(t *testing.T) {
	slugs := []string{"RED_BULL", "COFFEE", "SLEEP"}
	totals := metric.Totals{"RED_BULL": 3, "COFFEE": 1, "SLEEP": 8}

	assert.Equal(t, 7.0, Weighted{}.Score(totals, slugs))
	assert.Equal(t, 12.0, Uniform{}.Score(totals, slugs))
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "", want: PolicyUniform},
		{name: "uniform", want: PolicyUniform},
		{name: " Weighted ", want: PolicyWeighted},
		{name: "fancy", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePolicy(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownPolicy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}

func TestRankIsStable(t *testing.T) {
	entries := []Entry{
		{Subject: Subject{ID: "A"}, Score: 10},
		{Subject: Subject{ID: "C"}, Score: 3},
		{Subject: Subject{ID: "B"}, Score: 10},
		{Subject: Subject{ID: "D"}, Score: 12},
	}

	ranked := Rank(entries)

	ids := make([]string, 0, len(ranked))
	for _, e := range ranked {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"D", "A", "B", "C"}, ids)
}

func TestUsers(t *testing.T) {
	slugs := []string{"RED_BULL", "COFFEE"}
	events := []*metric.Event{
		ev("a", nil, "COFFEE", 5),
		ev("a", nil, "RED_BULL", 5),
		ev("b", nil, "COFFEE", 10),
		ev("c", nil, "UNKNOWN_X", 100),
	}
	byUser := GroupByUser(events)
	subjects := []Subject{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	entries := Users(subjects, func(s Subject) []*metric.Event { return byUser[s.ID] }, slugs, Uniform{})

	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)
	assert.Equal(t, "c", entries[2].ID)
	assert.Equal(t, metric.Totals{"RED_BULL": 0, "COFFEE": 0}, entries[2].Metrics)
	assert.Zero(t, entries[2].Score)
}

func TestTeamsRollup(t *testing.T) {
	slugs := []string{"RED_BULL", "COFFEE"}
	alpha, beta := ptr("alpha"), ptr("beta")

	events := []*metric.Event{
		ev("u1", alpha, "COFFEE", 2),
		ev("u1", beta, "COFFEE", 50),
		ev("u1", nil, "COFFEE", 70),
		ev("u2", alpha, "RED_BULL", 3),
		ev("u3", beta, "COFFEE", 1),
		ev("gone", alpha, "COFFEE", 40),
	}

	teams := []Team{
		{
			Subject: Subject{ID: "alpha", Name: "ALPHA"},
			Members: []Member{{Subject: Subject{ID: "u1"}}, {Subject: Subject{ID: "u2"}, IsAdmin: true}},
		},
		{
			Subject: Subject{ID: "beta", Name: "BETA"},
			Members: []Member{{Subject: Subject{ID: "u3"}}},
		},
	}

	got := Teams(teams, events, slugs, Uniform{})

	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].ID)
	assert.Equal(t, metric.Totals{"RED_BULL": 3, "COFFEE": 2}, got[0].Metrics)
	assert.Equal(t, 5.0, got[0].Score)

	require.Len(t, got[0].Members, 2)
	assert.Equal(t, "u2", got[0].Members[0].ID)
	assert.True(t, got[0].Members[0].IsAdmin)
	assert.Equal(t, "u1", got[0].Members[1].ID)
	assert.Equal(t, 2.0, got[0].Members[1].Score)

	assert.Equal(t, "beta", got[1].ID)
	assert.Equal(t, metric.Totals{"RED_BULL": 0, "COFFEE": 1}, got[1].Metrics)

	for _, team := range got {
		sum := metric.NewTotals(slugs)
		for _, m := range team.Members {
			sum.Merge(m.Metrics)
		}
		assert.Equal(t, sum, team.Metrics, team.ID)
	}
}

func TestTeamsWeighted(t *testing.T) {
	slugs := []string{"RED_BULL", "COFFEE", "SLEEP"}
	x, y := ptr("x"), ptr("y")
	events := []*metric.Event{
		ev("u1", x, "RED_BULL", 2),
		ev("u2", y, "COFFEE", 3),
		ev("u2", y, "SLEEP", 8),
	}
	teams := []Team{
		{Subject: Subject{ID: "y"}, Members: []Member{{Subject: Subject{ID: "u2"}}}},
		{Subject: Subject{ID: "x"}, Members: []Member{{Subject: Subject{ID: "u1"}}}},
	}

	got := Teams(teams, events, slugs, Weighted{})

	require.Len(t, got, 2)
	assert.Equal(t, "x", got[0].ID)
	assert.Equal(t, 4.0, got[0].Score)
	assert.Equal(t, "y", got[1].ID)
	assert.Equal(t, 3.0, got[1].Score)
}

func TestTeamsEmpty(t *testing.T) {
	got := Teams([]Team{{Subject: Subject{ID: "t"}}}, nil, []string{"COFFEE"}, Uniform{})

	require.Len(t, got, 1)
	assert.Empty(t, got[0].Members)
	assert.Equal(t, metric.Totals{"COFFEE": 0}, got[0].Metrics)
}

func TestFromRosters(t *testing.T) {
	rosters := []team.Roster{
		{
			Team: &team.Team{TeamID: "t1", Name: "NULL", Color: "#00ffff"},
			Members: []team.Member{
				{UserID: "u1", Name: "NEO", Color: "#00ff41", IsAdmin: true},
				{UserID: "u2", Name: "TRINITY", Color: "#ff00ff"},
			},
		},
		{Team: &team.Team{TeamID: "t2", Name: "VOID"}},
	}

	teams := FromRosters(rosters)
	require.Len(t, teams, 2)
	assert.Equal(t, Subject{ID: "t1", Name: "NULL", Color: "#00ffff"}, teams[0].Subject)
	require.Len(t, teams[0].Members, 2)
	assert.True(t, teams[0].Members[0].IsAdmin)
	assert.Equal(t, "TRINITY", teams[0].Members[1].Name)
	assert.Empty(t, teams[1].Members)

	subjects := Subjects(teams)
	assert.Equal(t, []string{"u1", "u2"}, []string{subjects[0].ID, subjects[1].ID})
}
