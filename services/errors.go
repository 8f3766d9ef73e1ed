package services

import (
	"errors"
	"fmt"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ошибки валидации и бизнес-правил
	ErrValidationFailed      = errors.New("validation failed")
	ErrPasswordTooShort      = errors.New("heslo musí mít alespoň 6 znaků")
	ErrPasswordMismatch      = errors.New("hesla se neshodují")
	ErrConfirmationRequired  = errors.New("deletion must be confirmed with confirm=true")
	ErrTournamentRequired    = errors.New("either tournament_id or tournament must be given")
	ErrInvalidStatus         = errors.New("status must be planned, registered, withdrawn or played")
	ErrInvalidRequestedWeek  = errors.New("week must be between 1 and 54")
	ErrMissingTournamentData = errors.New("tournament name, category, place and date are required")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials   = errors.New("Nesprávný email nebo heslo")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNoRoleAssigned       = errors.New("no role assigned")
	ErrDuplicateAccount     = errors.New("V databázi je více záznamů se stejným emailem.")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrReadOnly             = errors.New("the planner is running in read-only mode")

	// Ошибки конфликтов
	ErrVersionConflict = errors.New("the record was changed by someone else, reload and try again")

	// Ошибки, специфичные для сущностей
	ErrPlayerNotFound     = errors.New("player not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrEntryNotFound      = errors.New("entry not found")
	ErrAccountNotFound    = errors.New("account not found")

	ErrStorageNotConfigured = errors.New("export storage is not configured")
)

// NoRoleError is returned when an authenticated email has no app_user row.
type NoRoleError struct {
	Email string
}

func (e *NoRoleError) Error() string {
	return fmt.Sprintf("Uživatel s emailem %s nemá přiřazenou roli v databázi.", e.Email)
}

func (e *NoRoleError) Unwrap() error {
	return ErrNoRoleAssigned
}
