package proposalservice

import (
	"context"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	proposalstorage "github.com/burenotti/hacktrack/internal/adapter/storage/proposals"
	"github.com/burenotti/hacktrack/internal/app/apptest"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/proposal"
	"github.com/burenotti/hacktrack/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

type fakeProposals struct {
	items []*proposal.Proposal
	seen  []domain.EventSource
}

func (f *fakeProposals) Add(_ context.Context, p *proposal.Proposal) error {
	f.items = append(f.items, p)
	f.seen = append(f.seen, p)
	return nil
}

func (f *fakeProposals) GetByID(_ context.Context, id string) (*proposal.Proposal, error) {
	for _, p := range f.items {
		if p.ProposalID == id {
			return p, nil
		}
	}
	return nil, proposal.ErrProposalNotFound
}

func (f *fakeProposals) List(_ context.Context, hackathonID string, flt proposalstorage.Filter) ([]proposalstorage.Listed, error) {
	var res []proposalstorage.Listed
	for _, p := range f.items {
		if p.HackathonID != hackathonID {
			continue
		}
		if flt.ProposedBy != nil && p.ProposedBy != *flt.ProposedBy {
			continue
		}
		if flt.Status != nil && p.Status != *flt.Status {
			continue
		}
		res = append(res, proposalstorage.Listed{Proposal: p})
	}
	return res, nil
}

func (f *fakeProposals) HasPending(_ context.Context, hackathonID, userID, slug string) (bool, error) {
	for _, p := range f.items {
		if p.HackathonID == hackathonID && p.ProposedBy == userID && p.Slug == slug && p.Status == proposal.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProposals) Persist(_ context.Context, p *proposal.Proposal) error {
	f.seen = append(f.seen, p)
	return nil
}

func (f *fakeProposals) CollectEvents() []domain.Event {
	var events []domain.Event
	for _, s := range f.seen {
		events = append(events, s.PopEvents()...)
	}
	f.seen = nil
	return events
}

func (f *fakeProposals) Close() error { return nil }

type fakeDefinitions struct {
	defs []*metric.Definition
}

func (f *fakeDefinitions) AddDefinition(_ context.Context, d *metric.Definition) error {
	for _, existing := range f.defs {
		if existing.Slug == d.Slug {
			return metric.ErrDefinitionExists
		}
	}
	f.defs = append(f.defs, d)
	return nil
}

func (f *fakeDefinitions) GetDefinitionBySlug(_ context.Context, _ *string, slug string) (*metric.Definition, error) {
	for _, d := range f.defs {
		if d.Slug == slug {
			return d, nil
		}
	}
	return nil, metric.ErrDefinitionNotFound
}

func (f *fakeDefinitions) CollectEvents() []domain.Event { return nil }
func (f *fakeDefinitions) Close() error                  { return nil }

type fakeHackathons struct {
	active *hackathon.Hackathon
}

func (f fakeHackathons) GetActive(context.Context) (*hackathon.Hackathon, error) {
	if f.active == nil {
		return nil, hackathon.ErrHackathonNotFound
	}
	return f.active, nil
}

func (f fakeHackathons) Close() error { return nil }

func setup(active *hackathon.Hackathon) (*fakeProposals, *fakeDefinitions, *apptest.Bus, *unitofwork.UnitOfWork[*AtomicContext]) {
	proposals := &fakeProposals{}
	defs := &fakeDefinitions{defs: []*metric.Definition{{Slug: "COFFEE"}}}
	bus := &apptest.Bus{}
	uow := unitofwork.New(&apptest.DB{}, func(ctx context.Context, tx storage.DBContext) (*AtomicContext, error) {
		return &AtomicContext{
			ctx:               ctx,
			DBContext:         tx,
			ProposalStorage:   proposals,
			DefinitionStorage: defs,
			HackathonStorage:  fakeHackathons{active},
		}, nil
	}, bus, apptest.Logger())
	return proposals, defs, bus, uow
}

func ptr(s string) *string {
	return &s
}

func TestService_Propose(t *testing.T) {
	proposals, _, _, uow := setup(nil)
	s := New(apptest.Logger())
	ctx := context.Background()

	_, err := s.Propose(ctx, uow, "u1", nil, "p0", Input{Name: "pizza"})
	assert.ErrorIs(t, err, proposal.ErrNoHackathon)

	p, err := s.Propose(ctx, uow, "u1", ptr("h1"), "p1", Input{Name: " mate tea ", Unit: "cups"})
	require.NoError(t, err)
	assert.Equal(t, "MATE_TEA", p.Slug)
	assert.Equal(t, proposal.StatusPending, p.Status)

	_, err = s.Propose(ctx, uow, "u1", ptr("h1"), "p2", Input{Name: "mate tea"})
	assert.ErrorIs(t, err, proposal.ErrDuplicatePending)

	_, err = s.Propose(ctx, uow, "u2", ptr("h1"), "p3", Input{Name: "mate tea"})
	assert.NoError(t, err, "another user may propose the same metric")

	_, err = s.Propose(ctx, uow, "u1", ptr("h1"), "p4", Input{Name: "coffee"})
	assert.ErrorIs(t, err, proposal.ErrDefinitionExists)
	assert.Len(t, proposals.items, 2)
}

func TestService_Resolve(t *testing.T) {
	_, defs, bus, uow := setup(nil)
	s := New(apptest.Logger())
	ctx := context.Background()

	_, err := s.Propose(ctx, uow, "u1", ptr("h1"), "p1", Input{Name: "mate", InputType: metric.InputNumber})
	require.NoError(t, err)
	_, err = s.Propose(ctx, uow, "u1", ptr("h1"), "p2", Input{Name: "pizza"})
	require.NoError(t, err)

	_, err = s.Resolve(ctx, uow, user.RoleMember, "u1", "p1", proposal.StatusApproved, "")
	assert.ErrorIs(t, err, user.ErrForbidden)

	p, err := s.Resolve(ctx, uow, user.RoleOrganizer, "org", "p1", proposal.StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, proposal.StatusApproved, p.Status)
	require.NotNil(t, p.DefinitionID)
	require.Len(t, defs.defs, 2)
	created := defs.defs[1]
	assert.Equal(t, "MATE", created.Slug)
	assert.Equal(t, metric.InputNumber, created.InputType)
	assert.Equal(t, *p.DefinitionID, created.DefinitionID)
	assert.False(t, created.IsDefault)

	_, err = s.Resolve(ctx, uow, user.RoleOrganizer, "org", "p1", proposal.StatusRejected, "late")
	assert.ErrorIs(t, err, proposal.ErrAlreadyResolved)

	p, err = s.Resolve(ctx, uow, user.RoleOrganizer, "org", "p2", proposal.StatusRejected, " too greasy ")
	require.NoError(t, err)
	require.NotNil(t, p.Reason)
	assert.Equal(t, "too greasy", *p.Reason)

	assert.Equal(t, []string{proposal.EventResolved, proposal.EventResolved}, bus.Events)
}

func TestService_List(t *testing.T) {
	active := &hackathon.Hackathon{HackathonID: "h1", Status: hackathon.StatusActive}
	_, _, _, uow := setup(active)
	s := New(apptest.Logger())
	ctx := context.Background()

	_, err := s.Propose(ctx, uow, "u1", ptr("h1"), "p1", Input{Name: "mate"})
	require.NoError(t, err)
	_, err = s.Propose(ctx, uow, "u2", ptr("h1"), "p2", Input{Name: "pizza"})
	require.NoError(t, err)

	mine, err := s.List(ctx, uow, user.RoleMember, "u1", ptr("h1"), nil)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "p1", mine[0].Proposal.ProposalID)

	all, err := s.List(ctx, uow, user.RoleOrganizer, "org", nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	approved := proposal.StatusApproved
	none, err := s.List(ctx, uow, user.RoleOrganizer, "org", nil, &approved)
	require.NoError(t, err)
	assert.Empty(t, none)

	orphan, err := s.List(ctx, uow, user.RoleMember, "u3", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, orphan)
}
