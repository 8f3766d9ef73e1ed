package services

import (
	"github.com/Dosada05/tennis-planner/models"
	"github.com/Dosada05/tennis-planner/repositories"
	"github.com/google/uuid"
)

// Scope decides which players an account may see. The set of scopes is
// closed: one implementation per role, built only by ScopeFor.
type Scope interface {
	// Sees reports whether the player belongs to the account's view.
	Sees(p models.Player) bool
	// PlayerFilter is the repository filter selecting exactly Sees.
	PlayerFilter() repositories.PlayerFilter
	// Complete reports whether the scope covers the whole club.
	Complete() bool
	role() models.Role
}

type parentScope struct{ accountID uuid.UUID }

func (s parentScope) Sees(p models.Player) bool { return p.IsChildOf(s.accountID) }
func (s parentScope) PlayerFilter() repositories.PlayerFilter {
	id := s.accountID
	return repositories.PlayerFilter{ParentID: &id}
}
func (parentScope) Complete() bool     { return false }
func (parentScope) role() models.Role { return models.RoleParent }

type coachScope struct{ accountID uuid.UUID }

func (s coachScope) Sees(p models.Player) bool { return p.IsCoachedBy(s.accountID) }
func (s coachScope) PlayerFilter() repositories.PlayerFilter {
	id := s.accountID
	return repositories.PlayerFilter{CoachID: &id}
}
func (coachScope) Complete() bool     { return false }
func (coachScope) role() models.Role { return models.RoleCoach }

type managerScope struct{}

func (managerScope) Sees(models.Player) bool                  { return true }
func (managerScope) PlayerFilter() repositories.PlayerFilter { return repositories.PlayerFilter{} }
func (managerScope) Complete() bool                           { return true }
func (managerScope) role() models.Role                        { return models.RoleManager }

// ScopeFor maps an account to its role's scope.
func ScopeFor(account models.Account) (Scope, error) {
	switch account.Role {
	case models.RoleParent:
		return parentScope{accountID: account.ID}, nil
	case models.RoleCoach:
		return coachScope{accountID: account.ID}, nil
	case models.RoleManager:
		return managerScope{}, nil
	default:
		return nil, &NoRoleError{Email: account.Email}
	}
}

// idsOrSentinel keeps an empty membership filter from turning into "no
// filter": uuid.Nil never matches a stored row.
func idsOrSentinel(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return []uuid.UUID{uuid.Nil}
	}
	return ids
}
