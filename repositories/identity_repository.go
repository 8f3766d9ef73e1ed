package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var ErrIdentityNotFound = errors.New("identity not found")

// IdentityRepository stores password hashes of the built-in identity provider.
type IdentityRepository interface {
	GetPasswordHash(ctx context.Context, email string) (string, error)
	SetPasswordHash(ctx context.Context, email, hash string) error
}

type postgresIdentityRepository struct {
	db *sql.DB
}

func NewPostgresIdentityRepository(db *sql.DB) IdentityRepository {
	return &postgresIdentityRepository{db: db}
}

func (r *postgresIdentityRepository) GetPasswordHash(ctx context.Context, email string) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT password_hash FROM auth_identity WHERE email = $1`, normalizeEmail(email),
	).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrIdentityNotFound
		}
		return "", err
	}
	return hash, nil
}

func (r *postgresIdentityRepository) SetPasswordHash(ctx context.Context, email, hash string) error {
	query := `
		INSERT INTO auth_identity (email, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = now()`

	if _, err := r.db.ExecContext(ctx, query, normalizeEmail(email), hash); err != nil {
		return fmt.Errorf("failed to store password hash: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
