package models

import "github.com/google/uuid"

type ChangeAction string

const (
	ChangeCreated ChangeAction = "created"
	ChangeUpdated ChangeAction = "updated"
	ChangeDeleted ChangeAction = "deleted"
)

// ChangeEvent tells connected dashboards that entries changed and they
// should reload. It carries ids only, never row data.
type ChangeEvent struct {
	Type              string       `json:"type"`
	Action            ChangeAction `json:"action"`
	EntryID           uuid.UUID    `json:"entry_id"`
	TournamentID      uuid.UUID    `json:"tournament_id"`
	PlayerID          uuid.UUID    `json:"player_id"`
	TournamentDeleted bool         `json:"tournament_deleted,omitempty"`
}

const EntriesChangedEvent = "entries_changed"

// Audience lists who receives an event: individual accounts and whole roles.
type Audience struct {
	AccountIDs []uuid.UUID
	Roles      []Role
}
