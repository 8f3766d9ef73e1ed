package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/tennis-planner/models"
	"github.com/Dosada05/tennis-planner/repositories"
	"github.com/google/uuid"
)

// Notifier pushes change events to connected clients.
type Notifier interface {
	Notify(audience models.Audience, event models.ChangeEvent)
}

type TournamentInput struct {
	Name             string       `json:"nazev" validate:"required,max=200"`
	Category         string       `json:"kategorie" validate:"required,max=100"`
	Place            string       `json:"misto" validate:"required,max=200"`
	Date             models.Date  `json:"datum"`
	EntryDeadline    *models.Date `json:"entry_deadline"`
	WithdrawDeadline *models.Date `json:"withdraw_deadline"`
	Note             *string      `json:"poznamka" validate:"omitempty,max=2000"`
}

func (in TournamentInput) apply(t *models.Tournament) {
	t.Name = strings.TrimSpace(in.Name)
	t.Category = strings.TrimSpace(in.Category)
	t.Place = strings.TrimSpace(in.Place)
	t.Date = in.Date
	t.EntryDeadline = in.EntryDeadline
	t.WithdrawDeadline = in.WithdrawDeadline
	t.Note = in.Note
}

type CreateEntryInput struct {
	PlayerID     uuid.UUID        `json:"player_id"`
	TournamentID *uuid.UUID       `json:"tournament_id"`
	Tournament   *TournamentInput `json:"tournament"`
	Priority     int              `json:"priority" validate:"min=1,max=3"`
	ParentNote   *string          `json:"poznamka_rodic" validate:"omitempty,max=2000"`
}

// UpdateEntryInput edits an entry and its tournament. The tournament row is
// shared, so the change is visible through every entry referencing it. Only
// the parent who created the tournament may change its fields; others send
// them back unchanged and edit the entry alone.
type UpdateEntryInput struct {
	Tournament        TournamentInput     `json:"tournament"`
	TournamentVersion int                 `json:"tournament_version" validate:"min=1"`
	Priority          int                 `json:"priority" validate:"min=1,max=3"`
	ParentNote        *string             `json:"poznamka_rodic" validate:"omitempty,max=2000"`
	Status            *models.EntryStatus `json:"status"`
	EntryVersion      int                 `json:"entry_version" validate:"min=1"`
}

type DeleteEntryResult struct {
	EntryID           uuid.UUID `json:"entry_id"`
	TournamentID      uuid.UUID `json:"tournament_id"`
	TournamentDeleted bool      `json:"tournament_deleted"`
}

type EntryService interface {
	CreateEntry(ctx context.Context, account models.Account, input CreateEntryInput) (*models.EntryDetail, error)
	UpdateEntry(ctx context.Context, account models.Account, entryID uuid.UUID, input UpdateEntryInput) (*models.EntryDetail, error)
	// DeleteEntry removes the entry and, when it was the last one, its tournament.
	DeleteEntry(ctx context.Context, account models.Account, entryID uuid.UUID, confirmed bool) (*DeleteEntryResult, error)
}

type entryService struct {
	tx             repositories.Transactor
	playerRepo     repositories.PlayerRepository
	tournamentRepo repositories.TournamentRepository
	entryRepo      repositories.EntryRepository
	notifier       Notifier
	readOnly       bool
	logger         *slog.Logger
}

func NewEntryService(
	tx repositories.Transactor,
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
	entryRepo repositories.EntryRepository,
	notifier Notifier,
	readOnly bool,
	logger *slog.Logger,
) EntryService {
	return &entryService{
		tx:             tx,
		playerRepo:     playerRepo,
		tournamentRepo: tournamentRepo,
		entryRepo:      entryRepo,
		notifier:       notifier,
		readOnly:       readOnly,
		logger:         logger,
	}
}

func (s *entryService) checkWritable(account models.Account) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if account.Role != models.RoleParent {
		return ErrForbiddenOperation
	}
	return nil
}

func validateTournamentInput(in TournamentInput) error {
	if err := validate.Struct(in); err != nil {
		return validationError(err)
	}
	if in.Date.IsZero() {
		return ErrMissingTournamentData
	}
	return nil
}

// ownedPlayer loads the player and checks the parent owns it.
func (s *entryService) ownedPlayer(ctx context.Context, exec repositories.SQLExecutor, account models.Account, playerID uuid.UUID) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, exec, playerID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if !player.IsChildOf(account.ID) {
		return nil, ErrForbiddenOperation
	}
	return player, nil
}

func createdBy(t models.Tournament, account models.Account) bool {
	return t.CreatedBy != nil && *t.CreatedBy == account.ID
}

// tournamentChanged reports whether applying in would alter any stored field.
func tournamentChanged(t models.Tournament, in TournamentInput) bool {
	edited := t
	in.apply(&edited)
	return edited.Name != t.Name ||
		edited.Category != t.Category ||
		edited.Place != t.Place ||
		edited.Date != t.Date ||
		!sameDate(edited.EntryDeadline, t.EntryDeadline) ||
		!sameDate(edited.WithdrawDeadline, t.WithdrawDeadline) ||
		!sameNote(edited.Note, t.Note)
}

func sameDate(a, b *models.Date) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameNote(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// parentSeesTournament reports whether the tournament is on the parent's
// dashboard: created by the parent or entered by one of their children.
func (s *entryService) parentSeesTournament(ctx context.Context, account models.Account, t *models.Tournament) (bool, error) {
	if createdBy(*t, account) {
		return true, nil
	}
	players, err := s.playerRepo.List(ctx, repositories.PlayerFilter{ParentID: &account.ID})
	if err != nil {
		return false, fmt.Errorf("failed to list players: %w", err)
	}
	if len(players) == 0 {
		return false, nil
	}
	ids := make([]uuid.UUID, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	entries, err := s.entryRepo.List(ctx, repositories.EntryFilter{PlayerIDs: ids})
	if err != nil {
		return false, fmt.Errorf("failed to list entries: %w", err)
	}
	for _, e := range entries {
		if e.TournamentID == t.ID {
			return true, nil
		}
	}
	return false, nil
}

func (s *entryService) CreateEntry(ctx context.Context, account models.Account, input CreateEntryInput) (*models.EntryDetail, error) {
	if err := s.checkWritable(account); err != nil {
		return nil, err
	}
	if input.PlayerID == uuid.Nil {
		return nil, fmt.Errorf("%w: player_id is required", ErrValidationFailed)
	}
	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	switch {
	case input.TournamentID != nil && input.Tournament != nil:
		return nil, fmt.Errorf("%w: give tournament_id or tournament, not both", ErrValidationFailed)
	case input.TournamentID == nil && input.Tournament == nil:
		return nil, ErrTournamentRequired
	case input.Tournament != nil:
		if err := validateTournamentInput(*input.Tournament); err != nil {
			return nil, err
		}
	}

	var detail models.EntryDetail
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		player, err := s.ownedPlayer(ctx, exec, account, input.PlayerID)
		if err != nil {
			return err
		}

		var tournament *models.Tournament
		if input.TournamentID != nil {
			tournament, err = s.tournamentRepo.GetByID(ctx, exec, *input.TournamentID)
			if err != nil {
				return handleRepositoryError(err)
			}
			visible, err := s.parentSeesTournament(ctx, account, tournament)
			if err != nil {
				return err
			}
			if !visible {
				return ErrForbiddenOperation
			}
		} else {
			tournament = &models.Tournament{CreatedBy: &account.ID}
			input.Tournament.apply(tournament)
			if err := s.tournamentRepo.Create(ctx, exec, tournament); err != nil {
				return fmt.Errorf("failed to create tournament: %w", handleRepositoryError(err))
			}
		}

		entry := &models.Entry{
			PlayerID:     player.ID,
			TournamentID: tournament.ID,
			Priority:     input.Priority,
			Status:       models.EntryPlanned,
			ParentNote:   input.ParentNote,
		}
		if err := s.entryRepo.Create(ctx, exec, entry); err != nil {
			return handleRepositoryError(err)
		}

		detail = models.EntryDetail{Entry: *entry, Tournament: *tournament, Player: *player}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "entry created",
		slog.String("entry_id", detail.ID.String()),
		slog.String("tournament_id", detail.TournamentID.String()),
		slog.String("account_id", account.ID.String()))
	s.notify(account, detail.Player, models.ChangeEvent{
		Action: models.ChangeCreated, EntryID: detail.ID, TournamentID: detail.TournamentID, PlayerID: detail.PlayerID,
	})
	return &detail, nil
}

func (s *entryService) UpdateEntry(ctx context.Context, account models.Account, entryID uuid.UUID, input UpdateEntryInput) (*models.EntryDetail, error) {
	if err := s.checkWritable(account); err != nil {
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if err := validateTournamentInput(input.Tournament); err != nil {
		return nil, err
	}
	if input.Status != nil {
		if _, err := models.ParseEntryStatus(string(*input.Status)); err != nil {
			return nil, ErrInvalidStatus
		}
	}

	var detail models.EntryDetail
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		entry, err := s.entryRepo.GetByID(ctx, exec, entryID)
		if err != nil {
			return handleRepositoryError(err)
		}
		player, err := s.ownedPlayer(ctx, exec, account, entry.PlayerID)
		if err != nil {
			return err
		}

		tournament, err := s.tournamentRepo.GetByID(ctx, exec, entry.TournamentID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if tournamentChanged(*tournament, input.Tournament) {
			if !createdBy(*tournament, account) {
				return ErrForbiddenOperation
			}
			input.Tournament.apply(tournament)
			if err := s.tournamentRepo.Update(ctx, exec, tournament, input.TournamentVersion); err != nil {
				return handleRepositoryError(err)
			}
		}

		entry.Priority = input.Priority
		entry.ParentNote = input.ParentNote
		if input.Status != nil {
			entry.Status = *input.Status
		}
		if err := s.entryRepo.Update(ctx, exec, entry, input.EntryVersion); err != nil {
			return handleRepositoryError(err)
		}

		detail = models.EntryDetail{Entry: *entry, Tournament: *tournament, Player: *player}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "entry updated", slog.String("entry_id", entryID.String()))
	s.notify(account, detail.Player, models.ChangeEvent{
		Action: models.ChangeUpdated, EntryID: detail.ID, TournamentID: detail.TournamentID, PlayerID: detail.PlayerID,
	})
	return &detail, nil
}

func (s *entryService) DeleteEntry(ctx context.Context, account models.Account, entryID uuid.UUID, confirmed bool) (*DeleteEntryResult, error) {
	if err := s.checkWritable(account); err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, ErrConfirmationRequired
	}

	var (
		result DeleteEntryResult
		player *models.Player
	)
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		entry, err := s.entryRepo.GetByID(ctx, exec, entryID)
		if err != nil {
			return handleRepositoryError(err)
		}
		player, err = s.ownedPlayer(ctx, exec, account, entry.PlayerID)
		if err != nil {
			return err
		}

		// Lock first so a concurrent create cannot attach to a tournament
		// that is about to disappear.
		if _, err := s.tournamentRepo.LockByID(ctx, exec, entry.TournamentID); err != nil {
			return handleRepositoryError(err)
		}
		if err := s.entryRepo.Delete(ctx, exec, entry.ID); err != nil {
			return handleRepositoryError(err)
		}

		remaining, err := s.entryRepo.CountByTournament(ctx, exec, entry.TournamentID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			if err := s.tournamentRepo.Delete(ctx, exec, entry.TournamentID); err != nil {
				return fmt.Errorf("failed to delete orphaned tournament: %w", handleRepositoryError(err))
			}
		}

		result = DeleteEntryResult{EntryID: entry.ID, TournamentID: entry.TournamentID, TournamentDeleted: remaining == 0}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "entry deleted",
		slog.String("entry_id", entryID.String()),
		slog.Bool("tournament_deleted", result.TournamentDeleted))
	s.notify(account, *player, models.ChangeEvent{
		Action: models.ChangeDeleted, EntryID: result.EntryID, TournamentID: result.TournamentID,
		PlayerID: player.ID, TournamentDeleted: result.TournamentDeleted,
	})
	return &result, nil
}

func (s *entryService) notify(account models.Account, player models.Player, event models.ChangeEvent) {
	if s.notifier == nil {
		return
	}
	event.Type = models.EntriesChangedEvent
	audience := models.Audience{
		AccountIDs: []uuid.UUID{account.ID},
		Roles:      []models.Role{models.RoleManager},
	}
	if player.CoachID != nil {
		audience.AccountIDs = append(audience.AccountIDs, *player.CoachID)
	}
	s.notifier.Notify(audience, event)
}
