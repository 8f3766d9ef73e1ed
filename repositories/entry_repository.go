package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tennis-planner/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrEntryNotFound          = errors.New("entry not found")
	ErrEntryVersionConflict   = errors.New("entry was modified by someone else")
	ErrEntryInvalidReference  = errors.New("entry references a missing player or tournament")
	ErrEntryConstraintFailure = errors.New("entry priority or status out of range")
)

// EntryFilter narrows an entry listing. A nil PlayerIDs slice means no
// filter; a non-nil empty slice matches nothing.
type EntryFilter struct {
	PlayerIDs []uuid.UUID
}

type EntryRepository interface {
	// List returns entries joined with their tournament and player,
	// ordered by tournament date.
	List(ctx context.Context, filter EntryFilter) ([]models.EntryDetail, error)
	// ListUpcomingDeadlines returns planned entries whose tournament entry
	// deadline is within [from, to], with the email of the player's parent.
	ListUpcomingDeadlines(ctx context.Context, from, to models.Date) ([]models.DeadlineReminder, error)
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Entry, error)
	Create(ctx context.Context, exec SQLExecutor, e *models.Entry) error
	Update(ctx context.Context, exec SQLExecutor, e *models.Entry, expectedVersion int) error
	Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error)
	Count(ctx context.Context) (int, error)
}

type postgresEntryRepository struct {
	db *sql.DB
}

func NewPostgresEntryRepository(db *sql.DB) EntryRepository {
	return &postgresEntryRepository{db: db}
}

func (r *postgresEntryRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	return executorOrDB(r.db, exec)
}

const entryColumns = `id, player_id, tournament_id, priority, status, poznamka_rodic, version, created_at, updated_at`

const entryDetailQuery = `
	SELECT
		e.id, e.player_id, e.tournament_id, e.priority, e.status, e.poznamka_rodic,
		e.version, e.created_at, e.updated_at,
		t.id, t.nazev, t.kategorie, t.misto, t.datum, t.entry_deadline, t.withdraw_deadline,
		t.poznamka, t.created_by, t.version, t.created_at, t.updated_at,
		p.id, p.name, p.birth_date, p.rocnik, p.category, p.coach_id, p.parent_id,
		p.limit_turnaju, p.created_at`

func scanEntry(row rowScanner, e *models.Entry) error {
	return row.Scan(&e.ID, &e.PlayerID, &e.TournamentID, &e.Priority, &e.Status, &e.ParentNote,
		&e.Version, &e.CreatedAt, &e.UpdatedAt)
}

func scanEntryDetail(row rowScanner, d *models.EntryDetail, extra ...interface{}) error {
	var entryDeadline, withdrawDeadline models.Date
	t, p := &d.Tournament, &d.Player
	dest := []interface{}{
		&d.ID, &d.PlayerID, &d.TournamentID, &d.Priority, &d.Status, &d.ParentNote,
		&d.Version, &d.CreatedAt, &d.UpdatedAt,
		&t.ID, &t.Name, &t.Category, &t.Place, &t.Date, &entryDeadline, &withdrawDeadline,
		&t.Note, &t.CreatedBy, &t.Version, &t.CreatedAt, &t.UpdatedAt,
		&p.ID, &p.Name, &p.BirthDate, &p.Rocnik, &p.Category, &p.CoachID, &p.ParentID,
		&p.LimitTurnaju, &p.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	t.EntryDeadline = optionalDate(entryDeadline)
	t.WithdrawDeadline = optionalDate(withdrawDeadline)
	return nil
}

func (r *postgresEntryRepository) List(ctx context.Context, filter EntryFilter) ([]models.EntryDetail, error) {
	query := entryDetailQuery + `
		FROM entry e
		JOIN tournament t ON t.id = e.tournament_id
		JOIN player p ON p.id = e.player_id`
	args := []interface{}{}

	if filter.PlayerIDs != nil {
		query += ` WHERE e.player_id = ANY($1::uuid[])`
		args = append(args, uuidArray(filter.PlayerIDs))
	}
	query += ` ORDER BY t.datum, e.created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.EntryDetail, 0)
	for rows.Next() {
		var d models.EntryDetail
		if err := scanEntryDetail(rows, &d); err != nil {
			return nil, err
		}
		entries = append(entries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *postgresEntryRepository) ListUpcomingDeadlines(ctx context.Context, from, to models.Date) ([]models.DeadlineReminder, error) {
	query := entryDetailQuery + `, u.email
		FROM entry e
		JOIN tournament t ON t.id = e.tournament_id
		JOIN player p ON p.id = e.player_id
		JOIN app_user u ON u.id = p.parent_id
		WHERE e.status = $1
		  AND t.entry_deadline BETWEEN $2 AND $3
		ORDER BY u.email, t.entry_deadline, t.datum`

	rows, err := r.db.QueryContext(ctx, query, models.EntryPlanned, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reminders := make([]models.DeadlineReminder, 0)
	for rows.Next() {
		var rem models.DeadlineReminder
		if err := scanEntryDetail(rows, &rem.EntryDetail, &rem.ParentEmail); err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reminders, nil
}

func (r *postgresEntryRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entry WHERE id = $1`

	e := &models.Entry{}
	if err := scanEntry(r.getExecutor(exec).QueryRowContext(ctx, query, id), e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *postgresEntryRepository) Create(ctx context.Context, exec SQLExecutor, e *models.Entry) error {
	query := `
		INSERT INTO entry (player_id, tournament_id, priority, status, poznamka_rodic)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, version, created_at, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		e.PlayerID, e.TournamentID, e.Priority, e.Status, e.ParentNote,
	).Scan(&e.ID, &e.Version, &e.CreatedAt, &e.UpdatedAt)

	return handleEntryError(err)
}

func (r *postgresEntryRepository) Update(ctx context.Context, exec SQLExecutor, e *models.Entry, expectedVersion int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE entry SET
			priority = $1,
			status = $2,
			poznamka_rodic = $3,
			version = version + 1,
			updated_at = now()
		WHERE id = $4 AND version = $5
		RETURNING version, updated_at`

	err := executor.QueryRowContext(ctx, query, e.Priority, e.Status, e.ParentNote, e.ID, expectedVersion).
		Scan(&e.Version, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, executor, e.ID); getErr != nil {
			return getErr
		}
		return ErrEntryVersionConflict
	}
	return handleEntryError(err)
}

func (r *postgresEntryRepository) Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM entry WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrEntryNotFound)
}

func (r *postgresEntryRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error) {
	var n int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT count(*) FROM entry WHERE tournament_id = $1`, tournamentID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries of tournament %s: %w", tournamentID, err)
	}
	return n, nil
}

func (r *postgresEntryRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "entry")
}

func handleEntryError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503": // foreign_key_violation
			return ErrEntryInvalidReference
		case "23514": // check_violation
			return ErrEntryConstraintFailure
		}
	}
	return fmt.Errorf("entry query failed: %w", err)
}
