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
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountInvalidRole = errors.New("account role is not one of parent, coach, manager")
)

type AccountRepository interface {
	// ListByEmail returns every app_user row with the email, compared
	// case-insensitively. Duplicates are returned, not collapsed.
	ListByEmail(ctx context.Context, email string) ([]models.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.Account, error)
	Create(ctx context.Context, exec SQLExecutor, account *models.Account) error
	Count(ctx context.Context) (int, error)
}

type postgresAccountRepository struct {
	db *sql.DB
}

func NewPostgresAccountRepository(db *sql.DB) AccountRepository {
	return &postgresAccountRepository{db: db}
}

const accountColumns = `id, email, role, created_at`

func (r *postgresAccountRepository) ListByEmail(ctx context.Context, email string) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM app_user WHERE lower(email) = lower($1) ORDER BY created_at`
	return r.list(ctx, query, email)
}

func (r *postgresAccountRepository) ListByRole(ctx context.Context, role models.Role) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM app_user WHERE role = $1 ORDER BY email`
	return r.list(ctx, query, role)
}

func (r *postgresAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM app_user WHERE id = $1`

	a := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Email, &a.Role, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *postgresAccountRepository) Create(ctx context.Context, exec SQLExecutor, a *models.Account) error {
	query := `
		INSERT INTO app_user (email, role)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := executorOrDB(r.db, exec).QueryRowContext(ctx, query, a.Email, a.Role).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23514" {
			return ErrAccountInvalidRole
		}
		return fmt.Errorf("failed to insert account %s: %w", a.Email, err)
	}
	return nil
}

func (r *postgresAccountRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "app_user")
}

func (r *postgresAccountRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Email, &a.Role, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}
