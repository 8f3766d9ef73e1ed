package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/tennis-planner/models"
	"github.com/Dosada05/tennis-planner/repositories"
	"github.com/google/uuid"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// memStore is an in-memory stand-in for the club database. WithinTx
// snapshots the tables and restores them when fn fails.
type memStore struct {
	mu          sync.Mutex
	accounts    []models.Account
	players     []models.Player
	tournaments map[uuid.UUID]models.Tournament
	entries     []models.Entry

	failOn                map[string]error
	entryFilters          []repositories.EntryFilter
	tournamentFilters     []repositories.TournamentFilter
	lockedTournamentIDs   []uuid.UUID
	committed, rolledBack int
}

func newMemStore() *memStore {
	return &memStore{tournaments: make(map[uuid.UUID]models.Tournament), failOn: make(map[string]error)}
}

func (s *memStore) fail(op string) error {
	return s.failOn[op]
}

func (s *memStore) addAccount(email string, role models.Role) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := models.Account{ID: uuid.New(), Email: email, Role: role, CreatedAt: time.Now()}
	s.accounts = append(s.accounts, a)
	return a
}

func (s *memStore) addPlayer(name string, parent, coach *models.Account) models.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.Player{ID: uuid.New(), Name: name, Rocnik: 2014, BirthDate: models.NewDate(2014, time.May, 1)}
	if parent != nil {
		p.ParentID = &parent.ID
	}
	if coach != nil {
		p.CoachID = &coach.ID
	}
	s.players = append(s.players, p)
	return p
}

func (s *memStore) addTournament(name string, d models.Date) models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := models.Tournament{ID: uuid.New(), Name: name, Category: "U12", Place: "Praha", Date: d, Version: 1}
	s.tournaments[t.ID] = t
	return t
}

func (s *memStore) addTournamentBy(name string, d models.Date, creator models.Account) models.Tournament {
	t := s.addTournament(name, d)
	s.mu.Lock()
	defer s.mu.Unlock()
	t.CreatedBy = &creator.ID
	s.tournaments[t.ID] = t
	return t
}

func (s *memStore) addEntry(p models.Player, t models.Tournament, status models.EntryStatus) models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := models.Entry{ID: uuid.New(), PlayerID: p.ID, TournamentID: t.ID, Priority: 1, Status: status, Version: 1}
	s.entries = append(s.entries, e)
	return e
}

func (s *memStore) tournament(id uuid.UUID) (models.Tournament, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tournaments[id]
	return t, ok
}

func (s *memStore) entryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *memStore) playerByID(id uuid.UUID) (models.Player, bool) {
	for _, p := range s.players {
		if p.ID == id {
			return p, true
		}
	}
	return models.Player{}, false
}

func (s *memStore) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	s.mu.Lock()
	players := append([]models.Player(nil), s.players...)
	entries := append([]models.Entry(nil), s.entries...)
	tournaments := make(map[uuid.UUID]models.Tournament, len(s.tournaments))
	for k, v := range s.tournaments {
		tournaments[k] = v
	}
	s.mu.Unlock()

	if err := fn(nil); err != nil {
		s.mu.Lock()
		s.players, s.entries, s.tournaments = players, entries, tournaments
		s.rolledBack++
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.committed++
	s.mu.Unlock()
	return nil
}

type memAccounts struct{ *memStore }

func (r memAccounts) ListByEmail(_ context.Context, email string) ([]models.Account, error) {
	if err := r.fail("accounts.ListByEmail"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Account, 0)
	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, email) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAccounts) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, repositories.ErrAccountNotFound
}

func (r memAccounts) ListByRole(_ context.Context, role models.Role) ([]models.Account, error) {
	if err := r.fail("accounts.ListByRole"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Account, 0)
	for _, a := range r.accounts {
		if a.Role == role {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAccounts) Create(_ context.Context, _ repositories.SQLExecutor, a *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.New()
	r.accounts = append(r.accounts, *a)
	return nil
}

func (r memAccounts) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts), nil
}

type memPlayers struct{ *memStore }

func (r memPlayers) List(_ context.Context, f repositories.PlayerFilter) ([]models.Player, error) {
	if err := r.fail("players.List"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Player, 0)
	for _, p := range r.players {
		if f.ParentID != nil && !p.IsChildOf(*f.ParentID) {
			continue
		}
		if f.CoachID != nil && !p.IsCoachedBy(*f.CoachID) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memPlayers) GetByID(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.playerByID(id)
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	return &p, nil
}

func (r memPlayers) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uuid.New()
	r.players = append(r.players, *p)
	return nil
}

func (r memPlayers) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players), nil
}

type memTournaments struct{ *memStore }

func (r memTournaments) List(_ context.Context, f repositories.TournamentFilter) ([]models.Tournament, error) {
	if err := r.fail("tournaments.List"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tournamentFilters = append(r.tournamentFilters, f)
	want := make(map[uuid.UUID]bool, len(f.IDs))
	for _, id := range f.IDs {
		want[id] = true
	}
	out := make([]models.Tournament, 0)
	for _, t := range r.tournaments {
		if f.IDs != nil && !want[t.ID] {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r memTournaments) GetByID(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return &t, nil
}

func (r memTournaments) LockByID(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	r.mu.Lock()
	r.lockedTournamentIDs = append(r.lockedTournamentIDs, id)
	r.mu.Unlock()
	return r.GetByID(ctx, exec, id)
}

func (r memTournaments) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	if err := r.fail("tournaments.Create"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = uuid.New()
	t.Version = 1
	r.tournaments[t.ID] = *t
	return nil
}

func (r memTournaments) Update(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tournaments[t.ID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if stored.Version != expectedVersion {
		return repositories.ErrTournamentVersionConflict
	}
	t.Version = stored.Version + 1
	r.tournaments[t.ID] = *t
	return nil
}

func (r memTournaments) Delete(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	for _, e := range r.entries {
		if e.TournamentID == id {
			return repositories.ErrTournamentInUse
		}
	}
	delete(r.tournaments, id)
	return nil
}

func (r memTournaments) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tournaments), nil
}

type memEntries struct{ *memStore }

func (r memEntries) detail(e models.Entry) models.EntryDetail {
	p, _ := r.playerByID(e.PlayerID)
	return models.EntryDetail{Entry: e, Tournament: r.tournaments[e.TournamentID], Player: p}
}

func (r memEntries) List(_ context.Context, f repositories.EntryFilter) ([]models.EntryDetail, error) {
	if err := r.fail("entries.List"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entryFilters = append(r.entryFilters, f)
	want := make(map[uuid.UUID]bool, len(f.PlayerIDs))
	for _, id := range f.PlayerIDs {
		want[id] = true
	}
	out := make([]models.EntryDetail, 0)
	for _, e := range r.entries {
		if f.PlayerIDs != nil && !want[e.PlayerID] {
			continue
		}
		out = append(out, r.detail(e))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tournament.Date.Before(out[j].Tournament.Date) })
	return out, nil
}

func (r memEntries) ListUpcomingDeadlines(_ context.Context, from, to models.Date) ([]models.DeadlineReminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.DeadlineReminder, 0)
	for _, e := range r.entries {
		d := r.detail(e)
		dl := d.Tournament.EntryDeadline
		if e.Status != models.EntryPlanned || dl == nil || dl.Before(from) || dl.After(to) || d.Player.ParentID == nil {
			continue
		}
		for _, a := range r.accounts {
			if a.ID == *d.Player.ParentID {
				out = append(out, models.DeadlineReminder{EntryDetail: d, ParentEmail: a.Email})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ParentEmail < out[j].ParentEmail })
	return out, nil
}

func (r memEntries) GetByID(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, repositories.ErrEntryNotFound
}

func (r memEntries) Create(_ context.Context, _ repositories.SQLExecutor, e *models.Entry) error {
	if err := r.fail("entries.Create"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = uuid.New()
	e.Version = 1
	r.entries = append(r.entries, *e)
	return nil
}

func (r memEntries) Update(_ context.Context, _ repositories.SQLExecutor, e *models.Entry, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, stored := range r.entries {
		if stored.ID != e.ID {
			continue
		}
		if stored.Version != expectedVersion {
			return repositories.ErrEntryVersionConflict
		}
		e.Version = stored.Version + 1
		r.entries[i] = *e
		return nil
	}
	return repositories.ErrEntryNotFound
}

func (r memEntries) Delete(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return repositories.ErrEntryNotFound
}

func (r memEntries) CountByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.TournamentID == tournamentID {
			n++
		}
	}
	return n, nil
}

func (r memEntries) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries), nil
}

type recordedNotification struct {
	audience models.Audience
	event    models.ChangeEvent
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []recordedNotification
}

func (n *recordingNotifier) Notify(audience models.Audience, event models.ChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, recordedNotification{audience: audience, event: event})
}

var errBackendDown = errors.New("connection refused")
