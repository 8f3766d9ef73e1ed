package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/tennis-planner/repositories"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationError flattens validator output into one ErrValidationFailed.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(fields, ", "))
}

// handleRepositoryError translates repository sentinels into service errors.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrEntryNotFound):
		return ErrEntryNotFound
	case errors.Is(err, repositories.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, repositories.ErrTournamentVersionConflict),
		errors.Is(err, repositories.ErrEntryVersionConflict):
		return fmt.Errorf("%w: %v", ErrVersionConflict, err)
	case errors.Is(err, repositories.ErrTournamentInUse):
		return fmt.Errorf("%w: %v", ErrVersionConflict, err)
	case errors.Is(err, repositories.ErrEntryConstraintFailure),
		errors.Is(err, repositories.ErrEntryInvalidReference),
		errors.Is(err, repositories.ErrTournamentInvalidCreator):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	default:
		return err
	}
}
