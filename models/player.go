package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTournamentLimit is the season cap shown when a player has none set.
const DefaultTournamentLimit = 16

type Player struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	BirthDate    Date       `json:"birth_date" db:"birth_date"`
	Rocnik       int        `json:"rocnik" db:"rocnik"`
	Category     *string    `json:"category" db:"category"`
	CoachID      *uuid.UUID `json:"coach_id" db:"coach_id"`
	ParentID     *uuid.UUID `json:"parent_id" db:"parent_id"`
	LimitTurnaju int        `json:"limit_turnaju" db:"limit_turnaju"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// EffectiveLimit returns the season cap, falling back to the club default.
func (p Player) EffectiveLimit() int {
	if p.LimitTurnaju <= 0 {
		return DefaultTournamentLimit
	}
	return p.LimitTurnaju
}

// IsCoachedBy reports whether coachID is the player's coach.
func (p Player) IsCoachedBy(coachID uuid.UUID) bool {
	return p.CoachID != nil && *p.CoachID == coachID
}

// IsChildOf reports whether parentID owns the player.
func (p Player) IsChildOf(parentID uuid.UUID) bool {
	return p.ParentID != nil && *p.ParentID == parentID
}
