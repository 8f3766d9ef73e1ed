package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tennis-planner/models"
	"github.com/Dosada05/tennis-planner/planner"
	"github.com/Dosada05/tennis-planner/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// PlayerSummary is one child's card on the parent dashboard.
type PlayerSummary struct {
	Player      models.Player        `json:"player"`
	PlayedCount int                  `json:"played_count"`
	Limit       int                  `json:"limit"`
	Weeks       []planner.WeekBucket `json:"weeks"`
}

type ParentDashboard struct {
	models.DashboardData
	Summaries []PlayerSummary `json:"summaries"`
}

type CoachDashboard struct {
	models.DashboardData
	Matrix planner.Matrix `json:"matrix"`
}

// ManagerFilter narrows the manager matrix; zero values keep everything.
type ManagerFilter struct {
	CoachID *uuid.UUID `json:"coach_id"`
	Week    int        `json:"week"`
}

type ManagerDashboard struct {
	models.DashboardData
	Filter         ManagerFilter       `json:"filter"`
	Matrix         planner.Matrix      `json:"matrix"`
	AvailableWeeks []int               `json:"available_weeks"`
	Stats          models.SummaryStats `json:"stats"`
}

type DashboardService interface {
	// Load reads everything the account's role may see. Any failed read
	// aborts the whole load.
	Load(ctx context.Context, account models.Account) (*models.DashboardData, error)
	ParentView(ctx context.Context, account models.Account) (*ParentDashboard, error)
	CoachView(ctx context.Context, account models.Account) (*CoachDashboard, error)
	ManagerView(ctx context.Context, account models.Account, filter ManagerFilter) (*ManagerDashboard, error)
	Counts(ctx context.Context) (models.TableCounts, error)
}

type dashboardService struct {
	accountRepo    repositories.AccountRepository
	playerRepo     repositories.PlayerRepository
	tournamentRepo repositories.TournamentRepository
	entryRepo      repositories.EntryRepository
	logger         *slog.Logger
}

func NewDashboardService(
	accountRepo repositories.AccountRepository,
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
	entryRepo repositories.EntryRepository,
	logger *slog.Logger,
) DashboardService {
	return &dashboardService{
		accountRepo:    accountRepo,
		playerRepo:     playerRepo,
		tournamentRepo: tournamentRepo,
		entryRepo:      entryRepo,
		logger:         logger,
	}
}

func (s *dashboardService) Load(ctx context.Context, account models.Account) (*models.DashboardData, error) {
	scope, err := ScopeFor(account)
	if err != nil {
		return nil, err
	}
	if scope.Complete() {
		return s.loadAll(ctx)
	}
	return s.loadScoped(ctx, scope)
}

// loadScoped runs the three dependent reads of a parent or coach.
func (s *dashboardService) loadScoped(ctx context.Context, scope Scope) (*models.DashboardData, error) {
	players, err := s.playerRepo.List(ctx, scope.PlayerFilter())
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}

	playerIDs := make([]uuid.UUID, len(players))
	for i, p := range players {
		playerIDs[i] = p.ID
	}
	entries, err := s.entryRepo.List(ctx, repositories.EntryFilter{PlayerIDs: idsOrSentinel(playerIDs)})
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(entries))
	tournamentIDs := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.TournamentID]; ok {
			continue
		}
		seen[e.TournamentID] = struct{}{}
		tournamentIDs = append(tournamentIDs, e.TournamentID)
	}
	tournaments, err := s.tournamentRepo.List(ctx, repositories.TournamentFilter{IDs: idsOrSentinel(tournamentIDs)})
	if err != nil {
		return nil, fmt.Errorf("failed to load tournaments: %w", err)
	}

	return &models.DashboardData{Players: players, Entries: entries, Tournaments: tournaments}, nil
}

// loadAll runs the manager's four independent reads concurrently.
func (s *dashboardService) loadAll(ctx context.Context) (*models.DashboardData, error) {
	var (
		data     models.DashboardData
		accounts []models.Account
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		players, err := s.playerRepo.List(gctx, repositories.PlayerFilter{})
		if err != nil {
			return fmt.Errorf("failed to load players: %w", err)
		}
		data.Players = players
		return nil
	})
	g.Go(func() error {
		entries, err := s.entryRepo.List(gctx, repositories.EntryFilter{})
		if err != nil {
			return fmt.Errorf("failed to load entries: %w", err)
		}
		data.Entries = entries
		return nil
	})
	g.Go(func() error {
		tournaments, err := s.tournamentRepo.List(gctx, repositories.TournamentFilter{})
		if err != nil {
			return fmt.Errorf("failed to load tournaments: %w", err)
		}
		data.Tournaments = tournaments
		return nil
	})
	g.Go(func() error {
		coaches, err := s.accountRepo.ListByRole(gctx, models.RoleCoach)
		if err != nil {
			return fmt.Errorf("failed to load coaches: %w", err)
		}
		accounts = coaches
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	data.Coaches = make([]models.Coach, len(accounts))
	for i, a := range accounts {
		data.Coaches[i] = models.Coach{ID: a.ID, Email: a.Email}
	}
	return &data, nil
}

func (s *dashboardService) ParentView(ctx context.Context, account models.Account) (*ParentDashboard, error) {
	if account.Role != models.RoleParent {
		return nil, ErrForbiddenOperation
	}
	data, err := s.Load(ctx, account)
	if err != nil {
		return nil, err
	}

	buckets := planner.GroupByWeek(data.Entries)
	summaries := make([]PlayerSummary, len(data.Players))
	for i, p := range data.Players {
		summaries[i] = PlayerSummary{
			Player:      p,
			PlayedCount: planner.PlayedCount(data.Entries, p.ID),
			Limit:       p.EffectiveLimit(),
			Weeks:       planner.ForPlayer(buckets, p.ID),
		}
	}
	return &ParentDashboard{DashboardData: *data, Summaries: summaries}, nil
}

func (s *dashboardService) CoachView(ctx context.Context, account models.Account) (*CoachDashboard, error) {
	if account.Role != models.RoleCoach {
		return nil, ErrForbiddenOperation
	}
	data, err := s.Load(ctx, account)
	if err != nil {
		return nil, err
	}
	return &CoachDashboard{
		DashboardData: *data,
		Matrix:        planner.Assemble(data.Players, data.Tournaments, planner.Entries(data.Entries)),
	}, nil
}

func (s *dashboardService) ManagerView(ctx context.Context, account models.Account, filter ManagerFilter) (*ManagerDashboard, error) {
	if account.Role != models.RoleManager {
		return nil, ErrForbiddenOperation
	}
	if filter.Week < 0 || filter.Week > 54 {
		return nil, ErrInvalidRequestedWeek
	}
	data, err := s.Load(ctx, account)
	if err != nil {
		return nil, err
	}

	players := planner.FilterByCoach(data.Players, filter.CoachID)
	tournaments := planner.FilterByWeek(data.Tournaments, filter.Week)

	visible := make(map[uuid.UUID]struct{}, len(players))
	for _, p := range players {
		visible[p.ID] = struct{}{}
	}
	entryCount := 0
	for _, e := range data.Entries {
		if _, ok := visible[e.PlayerID]; ok {
			entryCount++
		}
	}

	return &ManagerDashboard{
		DashboardData:  *data,
		Filter:         filter,
		Matrix:         planner.Assemble(players, tournaments, planner.Entries(data.Entries)),
		AvailableWeeks: planner.AvailableWeeks(data.Tournaments),
		Stats: models.SummaryStats{
			Players:     len(players),
			Tournaments: len(tournaments),
			Entries:     entryCount,
		},
	}, nil
}

// Counts is the operator overview printed by clubctl check-db.
func (s *dashboardService) Counts(ctx context.Context) (models.TableCounts, error) {
	var counts models.TableCounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { counts.Accounts, err = s.accountRepo.Count(gctx); return })
	g.Go(func() (err error) { counts.Players, err = s.playerRepo.Count(gctx); return })
	g.Go(func() (err error) { counts.Tournaments, err = s.tournamentRepo.Count(gctx); return })
	g.Go(func() (err error) { counts.Entries, err = s.entryRepo.Count(gctx); return })
	if err := g.Wait(); err != nil {
		return models.TableCounts{}, err
	}
	return counts, nil
}
