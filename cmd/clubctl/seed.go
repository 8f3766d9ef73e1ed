package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Dosada05/tennis-planner/models"
	"github.com/Dosada05/tennis-planner/repositories"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Accounts    []seedAccount    `yaml:"accounts"`
	Players     []seedPlayer     `yaml:"players"`
	Tournaments []seedTournament `yaml:"tournaments"`
	Entries     []seedEntry      `yaml:"entries"`
}

type seedAccount struct {
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
}

type seedPlayer struct {
	Name      string `yaml:"name"`
	BirthDate string `yaml:"birth_date"`
	Rocnik    int    `yaml:"rocnik"`
	Category  string `yaml:"category"`
	Coach     string `yaml:"coach"`
	Parent    string `yaml:"parent"`
	Limit     int    `yaml:"limit"`
}

type seedTournament struct {
	Name             string `yaml:"name"`
	Category         string `yaml:"category"`
	Place            string `yaml:"place"`
	Date             string `yaml:"date"`
	EntryDeadline    string `yaml:"entry_deadline"`
	WithdrawDeadline string `yaml:"withdraw_deadline"`
	Note             string `yaml:"note"`
}

type seedEntry struct {
	Player     string `yaml:"player"`
	Tournament string `yaml:"tournament"`
	Priority   int    `yaml:"priority"`
	Status     string `yaml:"status"`
	Note       string `yaml:"note"`
}

// seedPlan is a validated seed file. Players and entries refer to accounts,
// players and tournaments by position in the corresponding slice.
type seedPlan struct {
	accounts    []models.Account
	passwords   map[string]string
	players     []plannedPlayer
	tournaments []models.Tournament
	entries     []plannedEntry
}

type plannedPlayer struct {
	player models.Player
	coach  int
	parent int
}

type plannedEntry struct {
	entry      models.Entry
	player     int
	tournament int
}

func loadSeed(r io.Reader) (*seedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f seedFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("seed file is empty")
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// plan resolves every reference in the file and fails on the first
// unknown email, player or tournament name.
func (f *seedFile) plan() (*seedPlan, error) {
	p := &seedPlan{passwords: make(map[string]string)}

	accountIdx := make(map[string]int, len(f.Accounts))
	for i, a := range f.Accounts {
		email := strings.ToLower(strings.TrimSpace(a.Email))
		if email == "" {
			return nil, fmt.Errorf("accounts[%d]: email is required", i)
		}
		if _, dup := accountIdx[email]; dup {
			return nil, fmt.Errorf("accounts[%d]: duplicate email %s", i, email)
		}
		role, err := models.ParseRole(a.Role)
		if err != nil {
			return nil, fmt.Errorf("accounts[%d]: %w", i, err)
		}
		accountIdx[email] = i
		p.accounts = append(p.accounts, models.Account{Email: email, Role: role})
		if a.Password != "" {
			p.passwords[email] = a.Password
		}
	}

	lookupAccount := func(email string, want models.Role) (int, error) {
		if strings.TrimSpace(email) == "" {
			return -1, nil
		}
		idx, ok := accountIdx[strings.ToLower(strings.TrimSpace(email))]
		if !ok {
			return 0, fmt.Errorf("unknown account %s", email)
		}
		if p.accounts[idx].Role != want {
			return 0, fmt.Errorf("account %s is a %s, expected %s", email, p.accounts[idx].Role, want)
		}
		return idx, nil
	}

	playerIdx := make(map[string]int, len(f.Players))
	for i, sp := range f.Players {
		if sp.Name == "" {
			return nil, fmt.Errorf("players[%d]: name is required", i)
		}
		if _, dup := playerIdx[sp.Name]; dup {
			return nil, fmt.Errorf("players[%d]: duplicate player %s", i, sp.Name)
		}
		birth, err := models.ParseDate(sp.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("players[%d]: %w", i, err)
		}
		coach, err := lookupAccount(sp.Coach, models.RoleCoach)
		if err != nil {
			return nil, fmt.Errorf("players[%d]: %w", i, err)
		}
		parent, err := lookupAccount(sp.Parent, models.RoleParent)
		if err != nil {
			return nil, fmt.Errorf("players[%d]: %w", i, err)
		}

		rocnik := sp.Rocnik
		if rocnik == 0 {
			rocnik = birth.Year
		}
		player := models.Player{Name: sp.Name, BirthDate: birth, Rocnik: rocnik, LimitTurnaju: sp.Limit}
		if sp.Category != "" {
			player.Category = &sp.Category
		}
		playerIdx[sp.Name] = i
		p.players = append(p.players, plannedPlayer{player: player, coach: coach, parent: parent})
	}

	tournamentIdx := make(map[string]int, len(f.Tournaments))
	for i, st := range f.Tournaments {
		if st.Name == "" {
			return nil, fmt.Errorf("tournaments[%d]: name is required", i)
		}
		if _, dup := tournamentIdx[st.Name]; dup {
			return nil, fmt.Errorf("tournaments[%d]: duplicate tournament %s", i, st.Name)
		}
		date, err := models.ParseDate(st.Date)
		if err != nil {
			return nil, fmt.Errorf("tournaments[%d]: %w", i, err)
		}
		t := models.Tournament{Name: st.Name, Category: st.Category, Place: st.Place, Date: date}
		if t.EntryDeadline, err = optionalDate(st.EntryDeadline); err != nil {
			return nil, fmt.Errorf("tournaments[%d]: %w", i, err)
		}
		if t.WithdrawDeadline, err = optionalDate(st.WithdrawDeadline); err != nil {
			return nil, fmt.Errorf("tournaments[%d]: %w", i, err)
		}
		if st.Note != "" {
			t.Note = &st.Note
		}
		tournamentIdx[st.Name] = i
		p.tournaments = append(p.tournaments, t)
	}

	for i, se := range f.Entries {
		pi, ok := playerIdx[se.Player]
		if !ok {
			return nil, fmt.Errorf("entries[%d]: unknown player %s", i, se.Player)
		}
		ti, ok := tournamentIdx[se.Tournament]
		if !ok {
			return nil, fmt.Errorf("entries[%d]: unknown tournament %s", i, se.Tournament)
		}
		priority := se.Priority
		if priority == 0 {
			priority = models.MinPriority
		}
		if priority < models.MinPriority || priority > models.MaxPriority {
			return nil, fmt.Errorf("entries[%d]: priority must be between %d and %d", i, models.MinPriority, models.MaxPriority)
		}
		status := models.EntryPlanned
		if se.Status != "" {
			var err error
			if status, err = models.ParseEntryStatus(se.Status); err != nil {
				return nil, fmt.Errorf("entries[%d]: %w", i, err)
			}
		}
		e := models.Entry{Priority: priority, Status: status}
		if se.Note != "" {
			e.ParentNote = &se.Note
		}
		p.entries = append(p.entries, plannedEntry{entry: e, player: pi, tournament: ti})
	}

	return p, nil
}

func optionalDate(s string) (*models.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type seedRepos struct {
	tx          repositories.Transactor
	accounts    repositories.AccountRepository
	players     repositories.PlayerRepository
	tournaments repositories.TournamentRepository
	entries     repositories.EntryRepository
}

// apply inserts the plan in one transaction. Passwords are stored
// afterwards by the caller because the identity store is separate.
func (p *seedPlan) apply(ctx context.Context, r seedRepos) error {
	return r.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for i := range p.accounts {
			if err := r.accounts.Create(ctx, exec, &p.accounts[i]); err != nil {
				return fmt.Errorf("failed to create account %s: %w", p.accounts[i].Email, err)
			}
		}
		accountID := func(idx int) *uuid.UUID {
			if idx < 0 {
				return nil
			}
			id := p.accounts[idx].ID
			return &id
		}
		for i := range p.players {
			pp := &p.players[i]
			pp.player.CoachID = accountID(pp.coach)
			pp.player.ParentID = accountID(pp.parent)
			if err := r.players.Create(ctx, exec, &pp.player); err != nil {
				return fmt.Errorf("failed to create player %s: %w", pp.player.Name, err)
			}
		}
		for i := range p.tournaments {
			if err := r.tournaments.Create(ctx, exec, &p.tournaments[i]); err != nil {
				return fmt.Errorf("failed to create tournament %s: %w", p.tournaments[i].Name, err)
			}
		}
		for i := range p.entries {
			pe := &p.entries[i]
			pe.entry.PlayerID = p.players[pe.player].player.ID
			pe.entry.TournamentID = p.tournaments[pe.tournament].ID
			if err := r.entries.Create(ctx, exec, &pe.entry); err != nil {
				return fmt.Errorf("failed to create entry %d: %w", i, err)
			}
		}
		return nil
	})
}
