package proposal

import (
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNew(t *testing.T) {
	p, err := New("p1", "h1", "u1", " club-mate ", "", metric.InputType("SLIDER"), " bottles and more ")
	require.NoError(t, err)

	assert.Equal(t, "CLUB-MATE", p.Name)
	assert.Equal(t, "CLUB_MATE", p.Slug)
	assert.Equal(t, metric.DefaultIcon, p.Icon)
	assert.Equal(t, metric.InputCounter, p.InputType)
	assert.Equal(t, "bottles an", p.Unit)
	assert.Equal(t, StatusPending, p.Status)

	_, err = New("p2", "", "u1", "mate", "", metric.InputCounter, "")
	assert.ErrorIs(t, err, ErrNoHackathon)
}

func TestApprove(t *testing.T) {
	p, err := New("p1", "h1", "u1", "mate", "", metric.InputNumber, "l")
	require.NoError(t, err)

	def, err := p.Approve("d1", "org")
	require.NoError(t, err)

	assert.Equal(t, "MATE", def.Slug)
	assert.Equal(t, metric.DefaultColor, def.Color)
	assert.Equal(t, metric.InputNumber, def.InputType)
	assert.False(t, def.IsDefault)
	require.NotNil(t, def.HackathonID)
	assert.Equal(t, "h1", *def.HackathonID)

	assert.Equal(t, StatusApproved, p.Status)
	require.NotNil(t, p.DefinitionID)
	assert.Equal(t, "d1", *p.DefinitionID)
	assert.NotNil(t, p.ResolvedAt)

	_, err = p.Approve("d2", "org")
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	assert.ErrorIs(t, p.Reject("late"), ErrAlreadyResolved)
}

func TestReject(t *testing.T) {
	p, err := New("p1", "h1", "u1", "mate", "", metric.InputCounter, "")
	require.NoError(t, err)

	require.NoError(t, p.Reject("  "))
	assert.Equal(t, StatusRejected, p.Status)
	assert.Nil(t, p.Reason)
	assert.NotNil(t, p.ResolvedAt)
	assert.Len(t, p.PopEvents(), 1)
}

func TestParseResolution(t *testing.T) {
	st, err := ParseResolution("approved")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, st)

	_, err = ParseResolution("PENDING")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
