package hackathonservice

import (
	"context"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	"github.com/burenotti/hacktrack/internal/app/apptest"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/team"
	"github.com/burenotti/hacktrack/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type memory struct {
	hackathons  map[string]*hackathon.Hackathon
	teams       []*team.Team
	definitions []*metric.Definition
	users       map[string]*user.User
	members     map[string][]string
	seen        []domain.EventSource
}

func newMemory() *memory {
	return &memory{
		hackathons: make(map[string]*hackathon.Hackathon),
		users:      make(map[string]*user.User),
		members:    make(map[string][]string),
	}
}

func (m *memory) collect() []domain.Event {
	var events []domain.Event
	for _, s := range m.seen {
		events = append(events, s.PopEvents()...)
	}
	m.seen = nil
	return events
}

type hackathons struct{ *memory }

func (s hackathons) Add(_ context.Context, h *hackathon.Hackathon) error {
	s.hackathons[h.HackathonID] = h
	s.seen = append(s.seen, h)
	return nil
}

func (s hackathons) GetByID(_ context.Context, id string) (*hackathon.Hackathon, error) {
	h, ok := s.hackathons[id]
	if !ok {
		return nil, hackathon.ErrHackathonNotFound
	}
	return h, nil
}

func (s hackathons) GetActive(_ context.Context) (*hackathon.Hackathon, error) {
	for _, h := range s.hackathons {
		if h.IsActive() {
			return h, nil
		}
	}
	return nil, hackathon.ErrHackathonNotFound
}

func (s hackathons) ListAll(_ context.Context) ([]hackathon.Summary, error) {
	var res []hackathon.Summary
	for _, h := range s.hackathons {
		res = append(res, hackathon.Summary{Hackathon: h})
	}
	return res, nil
}

func (s hackathons) ListByMember(_ context.Context, userID string) ([]hackathon.Summary, error) {
	var res []hackathon.Summary
	for _, id := range s.members[userID] {
		res = append(res, hackathon.Summary{Hackathon: s.hackathons[id]})
	}
	return res, nil
}

func (s hackathons) Persist(_ context.Context, h *hackathon.Hackathon) error {
	s.hackathons[h.HackathonID] = h
	s.seen = append(s.seen, h)
	return nil
}

func (s hackathons) CollectEvents() []domain.Event { return s.collect() }
func (s hackathons) Close() error                  { return nil }

type teams struct {
	*memory
	taken map[string]bool
}

func (s teams) Add(_ context.Context, t *team.Team) error {
	s.memory.teams = append(s.memory.teams, t)
	return nil
}

func (s teams) InviteCodeExists(_ context.Context, code string) (bool, error) {
	return s.taken[code], nil
}

func (s teams) ListByHackathon(_ context.Context, hackathonID string) ([]team.Summary, error) {
	var res []team.Summary
	for _, t := range s.memory.teams {
		if t.HackathonID == hackathonID {
			res = append(res, team.Summary{Team: t})
		}
	}
	return res, nil
}

func (s teams) CollectEvents() []domain.Event { return nil }
func (s teams) Close() error                  { return nil }

type definitions struct{ *memory }

func (s definitions) AddDefinition(_ context.Context, d *metric.Definition) error {
	s.memory.definitions = append(s.memory.definitions, d)
	return nil
}

func (s definitions) ListDefinitions(_ context.Context, hackathonID *string) ([]*metric.Definition, error) {
	var res []*metric.Definition
	for _, d := range s.memory.definitions {
		if d.HackathonID != nil && hackathonID != nil && *d.HackathonID == *hackathonID {
			res = append(res, d)
		}
	}
	return res, nil
}

func (s definitions) CountDefinitions(ctx context.Context, hackathonID string) (int, error) {
	defs, err := s.ListDefinitions(ctx, &hackathonID)
	return len(defs), err
}

func (s definitions) CollectEvents() []domain.Event { return nil }
func (s definitions) Close() error                  { return nil }

type users struct{ *memory }

func (s users) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (s users) Close() error { return nil }

func setup(mem *memory, taken map[string]bool) (*unitofwork.UnitOfWork[*AtomicContext], *apptest.Bus) {
	bus := &apptest.Bus{}
	uow := unitofwork.New(&apptest.DB{}, func(ctx context.Context, tx storage.DBContext) (*AtomicContext, error) {
		return &AtomicContext{
			ctx:               ctx,
			DBContext:         tx,
			HackathonStorage:  hackathons{mem},
			TeamStorage:       teams{mem, taken},
			DefinitionStorage: definitions{mem},
			UserStorage:       users{mem},
		}, nil
	}, bus, apptest.Logger())
	return uow, bus
}

var (
	organizer = Actor{UserID: "org", Role: user.RoleOrganizer}
	start     = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	end       = start.Add(48 * time.Hour)
)

func status(s hackathon.Status) hackathon.Update {
	return hackathon.Update{Status: &s}
}

func TestService_CreateAndActivate(t *testing.T) {
	mem := newMemory()
	uow, bus := setup(mem, nil)
	s := New(apptest.Logger())
	ctx := context.Background()

	h, err := s.Create(ctx, uow, organizer, "h1", "  neon nights ", nil, start, end)
	require.NoError(t, err)
	assert.Equal(t, "NEON NIGHTS", h.Name)
	assert.Equal(t, hackathon.StatusDraft, h.Status)

	h, err = s.Update(ctx, uow, organizer, "h1", status(hackathon.StatusActive))
	require.NoError(t, err)
	assert.True(t, h.IsActive())

	require.Len(t, mem.definitions, len(metric.DefaultTemplates))
	for i, d := range mem.definitions {
		assert.Equal(t, metric.DefaultTemplates[i].Slug, d.Slug)
		assert.True(t, d.IsDefault)
	}
	assert.Contains(t, bus.Events, hackathon.EventCreated)
	assert.Contains(t, bus.Events, hackathon.EventActivated)

	active, err := s.Active(ctx, uow)
	require.NoError(t, err)
	assert.Equal(t, "h1", active.HackathonID)
}

func TestService_ActivateDoesNotReseed(t *testing.T) {
	mem := newMemory()
	uow, _ := setup(mem, nil)
	s := New(apptest.Logger())
	ctx := context.Background()

	_, err := s.Create(ctx, uow, organizer, "h1", "first", nil, start, end)
	require.NoError(t, err)
	hID := "h1"
	mem.definitions = append(mem.definitions, &metric.Definition{HackathonID: &hID, Slug: "PIZZA"})

	_, err = s.Update(ctx, uow, organizer, "h1", status(hackathon.StatusActive))
	require.NoError(t, err)
	assert.Len(t, mem.definitions, 1)
}

func TestService_SingleActive(t *testing.T) {
	mem := newMemory()
	uow, _ := setup(mem, nil)
	s := New(apptest.Logger())
	ctx := context.Background()

	for _, id := range []string{"h1", "h2"} {
		_, err := s.Create(ctx, uow, organizer, id, id, nil, start, end)
		require.NoError(t, err)
	}

	_, err := s.Update(ctx, uow, organizer, "h1", status(hackathon.StatusActive))
	require.NoError(t, err)

	_, err = s.Update(ctx, uow, organizer, "h2", status(hackathon.StatusActive))
	assert.ErrorIs(t, err, hackathon.ErrAlreadyActive)
	assert.Equal(t, hackathon.StatusDraft, mem.hackathons["h2"].Status)

	_, err = s.Update(ctx, uow, organizer, "h1", status(hackathon.StatusActive))
	assert.NoError(t, err, "re-activating the active hackathon is a no-op")
}

func TestService_UpdatePermissions(t *testing.T) {
	mem := newMemory()
	uow, _ := setup(mem, nil)
	s := New(apptest.Logger())
	ctx := context.Background()

	_, err := s.Create(ctx, uow, organizer, "h1", "first", nil, start, end)
	require.NoError(t, err)

	name := "renamed"
	other := Actor{UserID: "other", Role: user.RoleOrganizer}
	_, err = s.Update(ctx, uow, other, "h1", hackathon.Update{Name: &name})
	assert.ErrorIs(t, err, hackathon.ErrForbidden)

	admin := Actor{UserID: "root", Role: user.RoleSuperadmin}
	h, err := s.Update(ctx, uow, admin, "h1", hackathon.Update{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "RENAMED", h.Name)

	_, err = s.Create(ctx, uow, Actor{UserID: "m", Role: user.RoleMember}, "h2", "x", nil, start, end)
	assert.ErrorIs(t, err, user.ErrForbidden)
}

func TestService_InvalidTransition(t *testing.T) {
	mem := newMemory()
	uow, _ := setup(mem, nil)
	s := New(apptest.Logger())
	ctx := context.Background()

	_, err := s.Create(ctx, uow, organizer, "h1", "first", nil, start, end)
	require.NoError(t, err)
	_, err = s.Update(ctx, uow, organizer, "h1", status(hackathon.StatusEnded))
	require.NoError(t, err)

	_, err = s.Update(ctx, uow, organizer, "h1", status(hackathon.StatusActive))
	assert.ErrorIs(t, err, hackathon.ErrInvalidTransition)
}

func TestService_CreateTeamRetriesInviteCode(t *testing.T) {
	mem := newMemory()
	uow, _ := setup(mem, map[string]bool{"AAAA": true})
	s := New(apptest.Logger())
	ctx := context.Background()

	codes := []string{"AAAA", "AAAA", "BCDE"}
	s.InviteCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	_, err := s.Create(ctx, uow, organizer, "h1", "first", nil, start, end)
	require.NoError(t, err)

	tm, err := s.CreateTeam(ctx, uow, organizer, "h1", "t1", " null pointers ", "")
	require.NoError(t, err)
	assert.Equal(t, "BCDE", tm.InviteCode)
	assert.Equal(t, "NULL POINTERS", tm.Name)
	assert.Equal(t, team.DefaultColor, tm.Color)

	d, err := s.Detail(ctx, uow, "h1")
	require.NoError(t, err)
	assert.Len(t, d.Teams, 1)
	assert.Nil(t, d.Organizer)
}

func TestService_CreateTeamExhausted(t *testing.T) {
	mem := newMemory()
	uow, _ := setup(mem, map[string]bool{"AAAA": true})
	s := New(apptest.Logger())
	ctx := context.Background()

	calls := 0
	s.InviteCode = func() (string, error) {
		calls++
		return "AAAA", nil
	}

	_, err := s.Create(ctx, uow, organizer, "h1", "first", nil, start, end)
	require.NoError(t, err)

	_, err = s.CreateTeam(ctx, uow, organizer, "h1", "t1", "team", "")
	assert.ErrorIs(t, err, team.ErrInviteCodeExhausted)
	assert.Equal(t, team.InviteCodeMaxAttempts, calls)
	assert.Empty(t, mem.teams)
}

func TestService_List(t *testing.T) {
	mem := newMemory()
	uow, _ := setup(mem, nil)
	s := New(apptest.Logger())
	ctx := context.Background()

	for _, id := range []string{"h1", "h2"} {
		_, err := s.Create(ctx, uow, organizer, id, id, nil, start, end)
		require.NoError(t, err)
	}
	mem.members["member"] = []string{"h2"}

	all, err := s.List(ctx, uow, organizer)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := s.List(ctx, uow, Actor{UserID: "member", Role: user.RoleMember})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "h2", mine[0].Hackathon.HackathonID)
}
