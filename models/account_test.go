package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"parent", "coach", "manager"} {
		r, err := ParseRole(s)
		assert.NoError(t, err)
		assert.Equal(t, Role(s), r)
	}
	_, err := ParseRole("admin")
	assert.Error(t, err)
}

func TestRoleHomePath(t *testing.T) {
	assert.Equal(t, "/parent", RoleParent.HomePath())
	assert.Equal(t, "/coach", RoleCoach.HomePath())
	assert.Equal(t, "/manager", RoleManager.HomePath())
	assert.Equal(t, "/", Role("").HomePath())
}

func TestPlayerOwnership(t *testing.T) {
	parent, coach := uuid.New(), uuid.New()
	p := Player{ParentID: &parent, CoachID: &coach}

	assert.True(t, p.IsChildOf(parent))
	assert.False(t, p.IsChildOf(coach))
	assert.True(t, p.IsCoachedBy(coach))
	assert.False(t, Player{}.IsCoachedBy(coach))

	assert.Equal(t, DefaultTournamentLimit, Player{}.EffectiveLimit())
	assert.Equal(t, 10, Player{LimitTurnaju: 10}.EffectiveLimit())
}

func TestParseEntryStatus(t *testing.T) {
	st, err := ParseEntryStatus("played")
	assert.NoError(t, err)
	assert.Equal(t, EntryPlayed, st)

	_, err = ParseEntryStatus("odehrano")
	assert.Error(t, err)
}
