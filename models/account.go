package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is one of the three club roles stored in app_user.role.
type Role string

const (
	RoleParent  Role = "parent"
	RoleCoach   Role = "coach"
	RoleManager Role = "manager"
)

// ParseRole rejects anything outside the three known roles.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleParent, RoleCoach, RoleManager:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// HomePath is the dashboard path a signed-in account is sent to.
func (r Role) HomePath() string {
	switch r {
	case RoleParent:
		return "/parent"
	case RoleCoach:
		return "/coach"
	case RoleManager:
		return "/manager"
	default:
		return "/"
	}
}

// Account представляет строку app_user: одна запись на аутентифицированный email.
type Account struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Coach is the manager's view of a coach account.
type Coach struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}
