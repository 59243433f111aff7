package team

import (
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestGenerateInviteCode(t *testing.T) {
	for range 100 {
		code, err := GenerateInviteCode()
		require.NoError(t, err)
		require.Len(t, code, InviteCodeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(InviteCodeAlphabet, c), "unexpected %q in %s", c, code)
		}
	}
}

func TestNew(t *testing.T) {
	tm, err := New("t1", "h1", "  the  null pointers ", "", "ABCD")
	require.NoError(t, err)
	assert.Equal(t, "THE  NULL POINTERS", tm.Name)
	assert.Equal(t, DefaultColor, tm.Color)

	_, err = New("t2", "h1", "   ", "", "ABCD")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestAdmit(t *testing.T) {
	tm := &Team{TeamID: "t1", HackathonID: "h1"}

	tests := []struct {
		name     string
		current  string
		status   hackathon.Status
		existing []Membership
		err      error
	}{
		{name: "ok", status: hackathon.StatusActive},
		{name: "draft hackathon", status: hackathon.StatusDraft, err: hackathon.ErrNotActive},
		{name: "same team in session", current: "t1", status: hackathon.StatusActive, err: ErrAlreadyMember},
		{
			name:     "same team in storage",
			status:   hackathon.StatusActive,
			existing: []Membership{{UserID: "u", TeamID: "t1"}},
			err:      ErrAlreadyMember,
		},
		{
			name:     "other team of hackathon",
			status:   hackathon.StatusActive,
			existing: []Membership{{UserID: "u", TeamID: "t2"}},
			err:      ErrAlreadyInHackathon,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tm.Admit("u", tt.current, tt.status, tt.existing)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "t1", m.TeamID)
			assert.False(t, m.IsAdmin)
			events := tm.PopEvents()
			require.Len(t, events, 1)
			assert.Equal(t, EventMemberJoined, events[0].Type())
		})
	}
}

func TestNormalizeInviteCode(t *testing.T) {
	assert.Equal(t, "AB2C", NormalizeInviteCode(" ab2c "))
}
