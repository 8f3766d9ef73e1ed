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
	ErrPlayerNotFound       = errors.New("player not found")
	ErrPlayerInvalidAccount = errors.New("player coach or parent does not exist")
)

// PlayerFilter narrows a player listing; nil fields do not filter.
type PlayerFilter struct {
	ParentID *uuid.UUID
	CoachID  *uuid.UUID
}

type PlayerRepository interface {
	List(ctx context.Context, filter PlayerFilter) ([]models.Player, error)
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Player, error)
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	Count(ctx context.Context) (int, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `id, name, birth_date, rocnik, category, coach_id, parent_id, limit_turnaju, created_at`

func scanPlayer(row rowScanner, p *models.Player) error {
	return row.Scan(&p.ID, &p.Name, &p.BirthDate, &p.Rocnik, &p.Category, &p.CoachID, &p.ParentID, &p.LimitTurnaju, &p.CreatedAt)
}

func (r *postgresPlayerRepository) List(ctx context.Context, filter PlayerFilter) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM player WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.ParentID != nil {
		query += fmt.Sprintf(" AND parent_id = $%d", argID)
		args = append(args, *filter.ParentID)
		argID++
	}
	if filter.CoachID != nil {
		query += fmt.Sprintf(" AND coach_id = $%d", argID)
		args = append(args, *filter.CoachID)
	}

	query += " ORDER BY name, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if err := scanPlayer(rows, &p); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM player WHERE id = $1`

	p := &models.Player{}
	if err := scanPlayer(executorOrDB(r.db, exec).QueryRowContext(ctx, query, id), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Player) error {
	query := `
		INSERT INTO player (name, birth_date, rocnik, category, coach_id, parent_id, limit_turnaju)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	limit := p.LimitTurnaju
	if limit <= 0 {
		limit = models.DefaultTournamentLimit
	}

	err := executorOrDB(r.db, exec).QueryRowContext(ctx, query,
		p.Name, p.BirthDate, p.Rocnik, p.Category, p.CoachID, p.ParentID, limit,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrPlayerInvalidAccount
		}
		return fmt.Errorf("failed to insert player %s: %w", p.Name, err)
	}
	p.LimitTurnaju = limit
	return nil
}

func (r *postgresPlayerRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "player")
}
