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
	ErrTournamentNotFound        = errors.New("tournament not found")
	ErrTournamentVersionConflict = errors.New("tournament was modified by someone else")
	ErrTournamentInUse           = errors.New("tournament is still referenced by entries")
	ErrTournamentInvalidCreator  = errors.New("invalid tournament creator reference")
)

// TournamentFilter narrows a tournament listing. A nil IDs slice means no
// filter; a non-nil empty slice matches nothing.
type TournamentFilter struct {
	IDs []uuid.UUID
}

type TournamentRepository interface {
	List(ctx context.Context, filter TournamentFilter) ([]models.Tournament, error)
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error)
	// LockByID reads the row with FOR UPDATE; exec must be a transaction.
	LockByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error)
	Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	// Update writes t only if the stored version equals expectedVersion and
	// bumps the version on success.
	Update(ctx context.Context, exec SQLExecutor, t *models.Tournament, expectedVersion int) error
	Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	return executorOrDB(r.db, exec)
}

const tournamentColumns = `
	id, nazev, kategorie, misto, datum, entry_deadline, withdraw_deadline,
	poznamka, created_by, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTournament(row rowScanner, t *models.Tournament) error {
	var entryDeadline, withdrawDeadline models.Date
	err := row.Scan(
		&t.ID, &t.Name, &t.Category, &t.Place, &t.Date, &entryDeadline, &withdrawDeadline,
		&t.Note, &t.CreatedBy, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	t.EntryDeadline = optionalDate(entryDeadline)
	t.WithdrawDeadline = optionalDate(withdrawDeadline)
	return nil
}

func optionalDate(d models.Date) *models.Date {
	if d.IsZero() {
		return nil
	}
	return &d
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter TournamentFilter) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournament`
	args := []interface{}{}

	if filter.IDs != nil {
		query += ` WHERE id = ANY($1::uuid[])`
		args = append(args, uuidArray(filter.IDs))
	}
	query += ` ORDER BY datum, created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := scanTournament(rows, &t); err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	return r.get(ctx, exec, `SELECT `+tournamentColumns+` FROM tournament WHERE id = $1`, id)
}

func (r *postgresTournamentRepository) LockByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	return r.get(ctx, exec, `SELECT `+tournamentColumns+` FROM tournament WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresTournamentRepository) get(ctx context.Context, exec SQLExecutor, query string, id uuid.UUID) (*models.Tournament, error) {
	t := &models.Tournament{}
	if err := scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := `
		INSERT INTO tournament (
			nazev, kategorie, misto, datum, entry_deadline, withdraw_deadline, poznamka, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, version, created_at, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		t.Name, t.Category, t.Place, t.Date, t.EntryDeadline, t.WithdrawDeadline, t.Note, t.CreatedBy,
	).Scan(&t.ID, &t.Version, &t.CreatedAt, &t.UpdatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Tournament, expectedVersion int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournament SET
			nazev = $1,
			kategorie = $2,
			misto = $3,
			datum = $4,
			entry_deadline = $5,
			withdraw_deadline = $6,
			poznamka = $7,
			version = version + 1,
			updated_at = now()
		WHERE id = $8 AND version = $9
		RETURNING version, updated_at`

	err := executor.QueryRowContext(ctx, query,
		t.Name, t.Category, t.Place, t.Date, t.EntryDeadline, t.WithdrawDeadline, t.Note,
		t.ID, expectedVersion,
	).Scan(&t.Version, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, executor, t.ID); getErr != nil {
			return getErr
		}
		return ErrTournamentVersionConflict
	}
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM tournament WHERE id = $1`, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "tournament")
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503":
			if pqErr.Constraint == "tournament_created_by_fkey" {
				return ErrTournamentInvalidCreator
			}
			return ErrTournamentInUse
		}
	}
	return fmt.Errorf("tournament query failed: %w", err)
}
