package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Dosada05/tennis-planner/repositories"
	"github.com/stretchr/testify/assert"
)

func TestHandleRepositoryError(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"player missing", repositories.ErrPlayerNotFound, ErrPlayerNotFound},
		{"tournament missing", repositories.ErrTournamentNotFound, ErrTournamentNotFound},
		{"entry missing", repositories.ErrEntryNotFound, ErrEntryNotFound},
		{"stale tournament", repositories.ErrTournamentVersionConflict, ErrVersionConflict},
		{"stale entry", repositories.ErrEntryVersionConflict, ErrVersionConflict},
		{"tournament gained an entry", repositories.ErrTournamentInUse, ErrVersionConflict},
		{"unknown creator", repositories.ErrTournamentInvalidCreator, ErrValidationFailed},
		{"entry check constraint", repositories.ErrEntryConstraintFailure, ErrValidationFailed},
		{"wrapped sentinel", fmt.Errorf("delete: %w", repositories.ErrTournamentInUse), ErrVersionConflict},
		{"anything else", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, handleRepositoryError(tt.in), tt.want)
		})
	}
	assert.NoError(t, handleRepositoryError(nil))
}
