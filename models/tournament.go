package models

import (
	"time"

	"github.com/google/uuid"
)

// Tournament is shared by every entry that references it.
type Tournament struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Name             string     `json:"nazev" db:"nazev"`
	Category         string     `json:"kategorie" db:"kategorie"`
	Place            string     `json:"misto" db:"misto"`
	Date             Date       `json:"datum" db:"datum"`
	EntryDeadline    *Date      `json:"entry_deadline" db:"entry_deadline"`
	WithdrawDeadline *Date      `json:"withdraw_deadline" db:"withdraw_deadline"`
	Note             *string    `json:"poznamka" db:"poznamka"`
	CreatedBy        *uuid.UUID `json:"created_by" db:"created_by"`
	Version          int        `json:"version" db:"version"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}
