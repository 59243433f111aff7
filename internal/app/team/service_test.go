package teamservice

import (
	"context"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	"github.com/burenotti/hacktrack/internal/app/apptest"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/burenotti/hacktrack/internal/domain/leaderboard"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/team"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type fakeTeams struct {
	teams       map[string]*team.Team
	memberships []team.Membership
	names       map[string]string
	seen        []domain.EventSource
}

func (f *fakeTeams) GetByInviteCode(_ context.Context, code string) (*team.Summary, error) {
	for _, t := range f.teams {
		if t.InviteCode == code {
			f.seen = append(f.seen, t)
			return &team.Summary{Team: t}, nil
		}
	}
	return nil, team.ErrInvalidInviteCode
}

func (f *fakeTeams) ListMemberships(_ context.Context, userID, hackathonID string) ([]team.Membership, error) {
	var res []team.Membership
	for _, m := range f.memberships {
		if m.UserID == userID && f.teams[m.TeamID].HackathonID == hackathonID {
			res = append(res, m)
		}
	}
	return res, nil
}

func (f *fakeTeams) AddMembership(_ context.Context, m *team.Membership) error {
	f.memberships = append(f.memberships, *m)
	return nil
}

func (f *fakeTeams) Rosters(_ context.Context, hackathonID string) ([]team.Roster, error) {
	var res []team.Roster
	for _, id := range []string{"t1", "t2"} {
		t, ok := f.teams[id]
		if !ok || t.HackathonID != hackathonID {
			continue
		}
		r := team.Roster{Team: t}
		for _, m := range f.memberships {
			if m.TeamID == id {
				r.Members = append(r.Members, team.Member{UserID: m.UserID, Name: f.names[m.UserID]})
			}
		}
		res = append(res, r)
	}
	return res, nil
}

func (f *fakeTeams) CollectEvents() []domain.Event {
	var events []domain.Event
	for _, s := range f.seen {
		events = append(events, s.PopEvents()...)
	}
	f.seen = nil
	return events
}

func (f *fakeTeams) Close() error { return nil }

type fakeHackathons map[string]*hackathon.Hackathon

func (f fakeHackathons) GetByID(_ context.Context, id string) (*hackathon.Hackathon, error) {
	if h, ok := f[id]; ok {
		return h, nil
	}
	return nil, hackathon.ErrHackathonNotFound
}

func (f fakeHackathons) Close() error { return nil }

type fakeMetrics struct {
	defs   []*metric.Definition
	events []*metric.Event
}

func (f *fakeMetrics) ListDefinitions(context.Context, *string) ([]*metric.Definition, error) {
	return f.defs, nil
}

func (f *fakeMetrics) ListByHackathon(context.Context, string) ([]*metric.Event, error) {
	return f.events, nil
}

func (f *fakeMetrics) Close() error { return nil }

type fixture struct {
	teams   *fakeTeams
	metrics *fakeMetrics
	bus     *apptest.Bus
	uow     *unitofwork.UnitOfWork[*AtomicContext]
	service *Service
}

func newFixture(status hackathon.Status) *fixture {
	f := &fixture{
		teams: &fakeTeams{
			teams: map[string]*team.Team{
				"t1": {TeamID: "t1", HackathonID: "h1", Name: "NULL", InviteCode: "ABCD"},
				"t2": {TeamID: "t2", HackathonID: "h1", Name: "VOID", InviteCode: "WXYZ"},
			},
			names: map[string]string{"u1": "NEO", "u2": "TRINITY"},
		},
		metrics: &fakeMetrics{},
		bus:     &apptest.Bus{},
	}
	hackathons := fakeHackathons{"h1": {HackathonID: "h1", Name: "H1", Status: status}}

	f.uow = unitofwork.New(&apptest.DB{}, func(ctx context.Context, tx storage.DBContext) (*AtomicContext, error) {
		return &AtomicContext{
			ctx:              ctx,
			DBContext:        tx,
			TeamStorage:      f.teams,
			HackathonStorage: hackathons,
			MetricStorage:    f.metrics,
		}, nil
	}, f.bus, apptest.Logger())
	f.service = New(leaderboard.Uniform{}, apptest.Logger())
	return f
}

func ptr(s string) *string {
	return &s
}

func TestService_InvitePreview(t *testing.T) {
	f := newFixture(hackathon.StatusActive)

	p, err := f.service.InvitePreview(context.Background(), f.uow, " abcd ")
	require.NoError(t, err)
	assert.Equal(t, "NULL", p.Team.Team.Name)
	assert.Equal(t, "H1", p.Hackathon.Name)

	_, err = f.service.InvitePreview(context.Background(), f.uow, "QQQQ")
	assert.ErrorIs(t, err, team.ErrInvalidInviteCode)
}

func TestService_Join(t *testing.T) {
	f := newFixture(hackathon.StatusActive)
	ctx := context.Background()

	p, err := f.service.Join(ctx, f.uow, "u1", nil, "abcd")
	require.NoError(t, err)
	assert.Equal(t, "t1", p.Team.Team.TeamID)
	assert.Equal(t, 1, p.Team.MemberCount)
	assert.Equal(t, []string{team.EventMemberJoined}, f.bus.Events)

	_, err = f.service.Join(ctx, f.uow, "u1", ptr("t1"), "ABCD")
	assert.ErrorIs(t, err, team.ErrAlreadyMember)

	_, err = f.service.Join(ctx, f.uow, "u1", ptr("t1"), "WXYZ")
	assert.ErrorIs(t, err, team.ErrAlreadyInHackathon)
	assert.Len(t, f.teams.memberships, 1)
}

func TestService_JoinInactive(t *testing.T) {
	f := newFixture(hackathon.StatusDraft)

	_, err := f.service.Join(context.Background(), f.uow, "u1", nil, "ABCD")
	assert.ErrorIs(t, err, hackathon.ErrNotActive)
	assert.Empty(t, f.teams.memberships)
}

func TestService_Leaderboard(t *testing.T) {
	f := newFixture(hackathon.StatusActive)
	ctx := context.Background()

	f.teams.memberships = []team.Membership{
		{UserID: "u1", TeamID: "t1", JoinedAt: time.Now()},
		{UserID: "u2", TeamID: "t2", JoinedAt: time.Now()},
	}
	f.metrics.defs = []*metric.Definition{{Slug: "COFFEE"}, {Slug: "RED_BULL"}}
	f.metrics.events = []*metric.Event{
		{UserID: "u1", Type: "COFFEE", Value: 2},
		{UserID: "u2", Type: "RED_BULL", Value: 3},
		{UserID: "u2", Type: "UNKNOWN", Value: 100},
	}

	entries, defs, err := f.service.Leaderboard(ctx, f.uow, ptr("h1"))
	require.NoError(t, err)
	assert.Len(t, defs, 2)
	require.Len(t, entries, 2)
	assert.Equal(t, "TRINITY", entries[0].Name)
	assert.Equal(t, 3.0, entries[0].Score)
	assert.Equal(t, 2.0, entries[1].Score)
	assert.Equal(t, 0.0, entries[1].Metrics["RED_BULL"])

	_, _, err = f.service.Leaderboard(ctx, f.uow, nil)
	assert.ErrorIs(t, err, ErrNoHackathon)
}
