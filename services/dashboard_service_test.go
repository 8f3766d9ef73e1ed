package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/tennis-planner/models"
	"github.com/Dosada05/tennis-planner/repositories"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *memStore
	notifier  *recordingNotifier
	dashboard DashboardService
	entries   EntryService
}

func newFixture(readOnly bool) *fixture {
	store := newMemStore()
	notifier := &recordingNotifier{}
	return &fixture{
		store:     store,
		notifier:  notifier,
		dashboard: NewDashboardService(memAccounts{store}, memPlayers{store}, memTournaments{store}, memEntries{store}, discardLogger),
		entries:   NewEntryService(store, memPlayers{store}, memTournaments{store}, memEntries{store}, notifier, readOnly, discardLogger),
	}
}

func playerIDs(players []models.Player) []uuid.UUID {
	ids := make([]uuid.UUID, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}

func TestScopeFor(t *testing.T) {
	parent := models.Account{ID: uuid.New(), Role: models.RoleParent}
	coach := models.Account{ID: uuid.New(), Role: models.RoleCoach}
	manager := models.Account{ID: uuid.New(), Role: models.RoleManager}

	child := models.Player{ID: uuid.New(), ParentID: &parent.ID, CoachID: &coach.ID}
	stranger := models.Player{ID: uuid.New()}

	ps, err := ScopeFor(parent)
	require.NoError(t, err)
	assert.True(t, ps.Sees(child))
	assert.False(t, ps.Sees(stranger))
	assert.Equal(t, &parent.ID, ps.PlayerFilter().ParentID)
	assert.Nil(t, ps.PlayerFilter().CoachID)

	cs, err := ScopeFor(coach)
	require.NoError(t, err)
	assert.True(t, cs.Sees(child))
	assert.False(t, cs.Sees(stranger))
	assert.Equal(t, &coach.ID, cs.PlayerFilter().CoachID)

	ms, err := ScopeFor(manager)
	require.NoError(t, err)
	assert.True(t, ms.Sees(stranger))
	assert.True(t, ms.Complete())
	assert.Equal(t, repositories.PlayerFilter{}, ms.PlayerFilter())

	_, err = ScopeFor(models.Account{Email: "x@example.cz", Role: "admin"})
	assert.ErrorIs(t, err, ErrNoRoleAssigned)
}

func TestLoadReturnsExactlyTheScopedPlayers(t *testing.T) {
	f := newFixture(false)
	faker := gofakeit.New(7)

	parents := []models.Account{
		f.store.addAccount(faker.Email(), models.RoleParent),
		f.store.addAccount(faker.Email(), models.RoleParent),
	}
	coaches := []models.Account{
		f.store.addAccount(faker.Email(), models.RoleCoach),
		f.store.addAccount(faker.Email(), models.RoleCoach),
	}
	for i := 0; i < 20; i++ {
		var parent, coach *models.Account
		if n := faker.Number(0, 2); n < 2 {
			parent = &parents[n]
		}
		if n := faker.Number(0, 2); n < 2 {
			coach = &coaches[n]
		}
		f.store.addPlayer(faker.Name(), parent, coach)
	}

	for _, account := range append(append([]models.Account{}, parents...), coaches...) {
		scope, err := ScopeFor(account)
		require.NoError(t, err)

		var want []uuid.UUID
		for _, p := range f.store.players {
			if scope.Sees(p) {
				want = append(want, p.ID)
			}
		}

		data, err := f.dashboard.Load(context.Background(), account)
		require.NoError(t, err)
		assert.ElementsMatch(t, want, playerIDs(data.Players), account.Role)
	}
}

func TestLoadParentWithoutPlayersUsesSentinel(t *testing.T) {
	f := newFixture(false)
	parent := f.store.addAccount("rodic@example.cz", models.RoleParent)
	other := f.store.addAccount("jiny@example.cz", models.RoleParent)
	p := f.store.addPlayer("Cizí dítě", &other, nil)
	f.store.addEntry(p, f.store.addTournament("Turnaj", models.NewDate(2024, time.May, 4)), models.EntryPlanned)

	data, err := f.dashboard.Load(context.Background(), parent)
	require.NoError(t, err)

	assert.Empty(t, data.Players)
	assert.Empty(t, data.Entries)
	assert.Empty(t, data.Tournaments)

	require.Len(t, f.store.entryFilters, 1)
	assert.Equal(t, []uuid.UUID{uuid.Nil}, f.store.entryFilters[0].PlayerIDs)
	require.Len(t, f.store.tournamentFilters, 1)
	assert.Equal(t, []uuid.UUID{uuid.Nil}, f.store.tournamentFilters[0].IDs)
}

func TestParentViewWithOnePlayerAndNoEntries(t *testing.T) {
	f := newFixture(false)
	parent := f.store.addAccount("rodic@example.cz", models.RoleParent)
	p := f.store.addPlayer("Eliška", &parent, nil)
	f.store.mu.Lock()
	f.store.players[0].LimitTurnaju = 12
	f.store.mu.Unlock()

	view, err := f.dashboard.ParentView(context.Background(), parent)
	require.NoError(t, err)

	require.Len(t, view.Summaries, 1)
	s := view.Summaries[0]
	assert.Equal(t, p.ID, s.Player.ID)
	assert.Zero(t, s.PlayedCount)
	assert.Equal(t, 12, s.Limit)
	assert.Empty(t, s.Weeks)
	assert.Empty(t, view.Entries)
}

func TestParentViewSummaries(t *testing.T) {
	f := newFixture(false)
	parent := f.store.addAccount("rodic@example.cz", models.RoleParent)
	anna := f.store.addPlayer("Anna", &parent, nil)
	ben := f.store.addPlayer("Ben", &parent, nil)
	march := f.store.addTournament("Jaro", models.NewDate(2024, time.March, 15))
	may := f.store.addTournament("Květen", models.NewDate(2024, time.May, 20))
	f.store.addEntry(anna, march, models.EntryPlayed)
	f.store.addEntry(anna, may, models.EntryPlanned)
	f.store.addEntry(ben, may, models.EntryPlayed)

	view, err := f.dashboard.ParentView(context.Background(), parent)
	require.NoError(t, err)
	require.Len(t, view.Summaries, 2)

	a := view.Summaries[0]
	assert.Equal(t, "Anna", a.Player.Name)
	assert.Equal(t, 1, a.PlayedCount)
	assert.Equal(t, models.DefaultTournamentLimit, a.Limit)
	require.Len(t, a.Weeks, 2)
	assert.Equal(t, 11, a.Weeks[0].Week)
	assert.Equal(t, models.NewDate(2024, time.March, 11), a.Weeks[0].Range.Start)

	b := view.Summaries[1]
	require.Len(t, b.Weeks, 1)
	assert.Len(t, b.Weeks[0].Entries, 1)
	assert.Len(t, view.Tournaments, 2)
}

func TestCoachViewBuildsMatrix(t *testing.T) {
	f := newFixture(false)
	coach := f.store.addAccount("trener@example.cz", models.RoleCoach)
	mine := f.store.addPlayer("Mirek", nil, &coach)
	f.store.addPlayer("Někdo jiný", nil, nil)
	tr := f.store.addTournament("Turnaj", models.NewDate(2024, time.April, 6))
	entry := f.store.addEntry(mine, tr, models.EntryRegistered)

	view, err := f.dashboard.CoachView(context.Background(), coach)
	require.NoError(t, err)

	require.Len(t, view.Matrix.Columns, 1)
	require.Len(t, view.Matrix.Rows, 1)
	require.NotNil(t, view.Matrix.Rows[0].Cells[0])
	assert.Equal(t, entry.ID, view.Matrix.Rows[0].Cells[0].ID)

	_, err = f.dashboard.CoachView(context.Background(), models.Account{ID: uuid.New(), Role: models.RoleParent})
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestManagerViewFiltersAndStats(t *testing.T) {
	f := newFixture(false)
	manager := f.store.addAccount("manazer@example.cz", models.RoleManager)
	coachA := f.store.addAccount("a@example.cz", models.RoleCoach)
	coachB := f.store.addAccount("b@example.cz", models.RoleCoach)
	p1 := f.store.addPlayer("Adam", nil, &coachA)
	p2 := f.store.addPlayer("Bára", nil, &coachB)
	t11 := f.store.addTournament("Týden 11", models.NewDate(2024, time.March, 15))
	t21 := f.store.addTournament("Týden 21", models.NewDate(2024, time.May, 20))
	t2 := f.store.addTournament("Týden 2", models.NewDate(2024, time.January, 10))
	f.store.addEntry(p1, t11, models.EntryPlayed)
	f.store.addEntry(p1, t21, models.EntryPlanned)
	f.store.addEntry(p2, t2, models.EntryPlanned)

	view, err := f.dashboard.ManagerView(context.Background(), manager, ManagerFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 11, 21}, view.AvailableWeeks)
	assert.Equal(t, models.SummaryStats{Players: 2, Tournaments: 3, Entries: 3}, view.Stats)
	assert.Len(t, view.Coaches, 2)

	view, err = f.dashboard.ManagerView(context.Background(), manager, ManagerFilter{CoachID: &coachA.ID, Week: 11})
	require.NoError(t, err)
	assert.Equal(t, models.SummaryStats{Players: 1, Tournaments: 1, Entries: 2}, view.Stats)
	require.Len(t, view.Matrix.Columns, 1)
	assert.Equal(t, p1.ID, view.Matrix.Columns[0].Player.ID)
	assert.Equal(t, 1, view.Matrix.Columns[0].PlayedCount)
	require.Len(t, view.Matrix.Rows, 1)
	assert.Equal(t, t11.ID, view.Matrix.Rows[0].Tournament.ID)

	_, err = f.dashboard.ManagerView(context.Background(), manager, ManagerFilter{Week: 60})
	assert.ErrorIs(t, err, ErrInvalidRequestedWeek)
}

func TestLoadAbortsOnReadFailure(t *testing.T) {
	for _, op := range []string{"players.List", "entries.List", "tournaments.List", "accounts.ListByRole"} {
		t.Run(op, func(t *testing.T) {
			f := newFixture(false)
			manager := f.store.addAccount("manazer@example.cz", models.RoleManager)
			f.store.failOn[op] = errBackendDown

			data, err := f.dashboard.Load(context.Background(), manager)
			assert.Nil(t, data)
			assert.True(t, errors.Is(err, errBackendDown))
		})
	}

	f := newFixture(false)
	parent := f.store.addAccount("rodic@example.cz", models.RoleParent)
	f.store.failOn["entries.List"] = errBackendDown
	_, err := f.dashboard.Load(context.Background(), parent)
	assert.ErrorIs(t, err, errBackendDown)
}

func TestCounts(t *testing.T) {
	f := newFixture(false)
	parent := f.store.addAccount("rodic@example.cz", models.RoleParent)
	p := f.store.addPlayer("Anna", &parent, nil)
	f.store.addEntry(p, f.store.addTournament("T", models.NewDate(2024, time.June, 1)), models.EntryPlanned)

	counts, err := f.dashboard.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.TableCounts{Accounts: 1, Players: 1, Tournaments: 1, Entries: 1}, counts)
}
