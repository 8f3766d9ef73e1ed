package planner

import (
	"sort"

	"github.com/Dosada05/tennis-planner/models"
	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// PlayerColumn is one matrix column with the player's season tally.
type PlayerColumn struct {
	Player      models.Player `json:"player"`
	PlayedCount int           `json:"played_count"`
	Limit       int           `json:"limit"`
}

// Row is one tournament; Cells[j] is the entry of column j or nil.
type Row struct {
	Tournament models.Tournament `json:"tournament"`
	Week       int               `json:"week"`
	Cells      []*models.Entry   `json:"cells"`
}

// Matrix is the tournaments × players grid rendered on coach and manager
// dashboards.
type Matrix struct {
	Columns []PlayerColumn `json:"columns"`
	Rows    []Row          `json:"rows"`
}

type cellKey struct {
	tournamentID uuid.UUID
	playerID     uuid.UUID
}

// Assemble builds the matrix. Rows are ordered by tournament date and
// columns by player name, both stable, so equal keys keep input order.
// When several entries join the same pair the first one wins. Played counts
// include every entry of the player, not only the ones on visible rows.
// Inputs are not modified.
func Assemble(players []models.Player, tournaments []models.Tournament, entries []models.Entry) Matrix {
	cols := SortPlayersByName(players)
	rows := SortTournamentsByDate(tournaments)

	cells := make(map[cellKey]int, len(entries))
	played := make(map[uuid.UUID]int)
	for i, e := range entries {
		k := cellKey{tournamentID: e.TournamentID, playerID: e.PlayerID}
		if _, ok := cells[k]; !ok {
			cells[k] = i
		}
		if e.Status == models.EntryPlayed {
			played[e.PlayerID]++
		}
	}

	m := Matrix{
		Columns: make([]PlayerColumn, len(cols)),
		Rows:    make([]Row, len(rows)),
	}
	for j, p := range cols {
		m.Columns[j] = PlayerColumn{Player: p, PlayedCount: played[p.ID], Limit: p.EffectiveLimit()}
	}
	for i, t := range rows {
		row := Row{Tournament: t, Week: WeekNumber(t.Date), Cells: make([]*models.Entry, len(cols))}
		for j, p := range cols {
			if idx, ok := cells[cellKey{tournamentID: t.ID, playerID: p.ID}]; ok {
				e := entries[idx]
				row.Cells[j] = &e
			}
		}
		m.Rows[i] = row
	}
	return m
}

// PlayedCount counts the player's entries with status played.
func PlayedCount(entries []models.EntryDetail, playerID uuid.UUID) int {
	n := 0
	for _, e := range entries {
		if e.PlayerID == playerID && e.Status == models.EntryPlayed {
			n++
		}
	}
	return n
}

// SortPlayersByName returns a copy ordered with Czech collation.
func SortPlayersByName(players []models.Player) []models.Player {
	out := append([]models.Player(nil), players...)
	c := collate.New(language.Czech)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}

// SortTournamentsByDate returns a copy ordered by date ascending.
func SortTournamentsByDate(tournaments []models.Tournament) []models.Tournament {
	out := append([]models.Tournament(nil), tournaments...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// FilterByCoach keeps the players of one coach; a nil coach keeps everyone.
func FilterByCoach(players []models.Player, coachID *uuid.UUID) []models.Player {
	if coachID == nil {
		return players
	}
	out := make([]models.Player, 0, len(players))
	for _, p := range players {
		if p.IsCoachedBy(*coachID) {
			out = append(out, p)
		}
	}
	return out
}

// FilterByWeek keeps tournaments of one week number; week 0 keeps all.
func FilterByWeek(tournaments []models.Tournament, week int) []models.Tournament {
	if week == 0 {
		return tournaments
	}
	out := make([]models.Tournament, 0, len(tournaments))
	for _, t := range tournaments {
		if WeekNumber(t.Date) == week {
			out = append(out, t)
		}
	}
	return out
}

// Entries strips the joined tournament and player from entry details.
func Entries(details []models.EntryDetail) []models.Entry {
	out := make([]models.Entry, len(details))
	for i, d := range details {
		out[i] = d.Entry
	}
	return out
}
