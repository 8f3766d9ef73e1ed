// Package identity holds the identity provider adapters: the built-in
// password provider and an OAuth2 code exchanger for a hosted provider.
// Both only establish who the caller is; the role comes from app_user.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/tennis-planner/repositories"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooShort   = errors.New("password is too short")
)

const MinPasswordLength = 6

// PasswordProvider checks email and password against bcrypt hashes.
type PasswordProvider struct {
	repo repositories.IdentityRepository
	cost int
}

func NewPasswordProvider(repo repositories.IdentityRepository, cost int) *PasswordProvider {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordProvider{repo: repo, cost: cost}
}

// Authenticate returns ErrInvalidCredentials for an unknown email and for a
// wrong password alike.
func (p *PasswordProvider) Authenticate(ctx context.Context, email, password string) error {
	hash, err := p.repo.GetPasswordHash(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrIdentityNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("failed to compare password hash: %w", err)
	}
	return nil
}

func (p *PasswordProvider) SetPassword(ctx context.Context, email, password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	return p.repo.SetPasswordHash(ctx, strings.TrimSpace(email), string(hash))
}
