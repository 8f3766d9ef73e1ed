package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryStatus соответствует CHECK-ограничению entry.status в БД.
type EntryStatus string

const (
	EntryPlanned    EntryStatus = "planned"
	EntryRegistered EntryStatus = "registered"
	EntryWithdrawn  EntryStatus = "withdrawn"
	EntryPlayed     EntryStatus = "played"
)

func ParseEntryStatus(s string) (EntryStatus, error) {
	switch st := EntryStatus(s); st {
	case EntryPlanned, EntryRegistered, EntryWithdrawn, EntryPlayed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown entry status %q", s)
	}
}

const (
	MinPriority = 1
	MaxPriority = 3
)

// Entry links exactly one player to exactly one tournament.
type Entry struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	PlayerID     uuid.UUID   `json:"player_id" db:"player_id"`
	TournamentID uuid.UUID   `json:"tournament_id" db:"tournament_id"`
	Priority     int         `json:"priority" db:"priority"`
	Status       EntryStatus `json:"status" db:"status"`
	ParentNote   *string     `json:"poznamka_rodic" db:"poznamka_rodic"`
	Version      int         `json:"version" db:"version"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// EntryDetail is an entry joined with its tournament and player.
type EntryDetail struct {
	Entry
	Tournament Tournament `json:"tournament"`
	Player     Player     `json:"player"`
}

// DeadlineReminder is a planned entry whose entry deadline is close,
// together with the email of the player's parent account.
type DeadlineReminder struct {
	EntryDetail
	ParentEmail string `json:"parent_email"`
}
