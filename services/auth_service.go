package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tennis-planner/identity"
	"github.com/Dosada05/tennis-planner/models"
	"github.com/Dosada05/tennis-planner/repositories"
	"github.com/Dosada05/tennis-planner/sessions"
)

var ErrOAuthDisabled = errors.New("external sign-in is not configured")

// PasswordAuthenticator is the built-in identity provider.
type PasswordAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) error
	SetPassword(ctx context.Context, email, password string) error
}

// CodeExchanger is the hosted OAuth identity provider.
type CodeExchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
}

type AuthService interface {
	SignIn(ctx context.Context, creds models.Credentials) (*SignInResult, error)
	OAuthURL(state string) (string, error)
	CompleteOAuth(ctx context.Context, code string) (*SignInResult, error)
	// ResolveAccount maps an authenticated email to exactly one account.
	ResolveAccount(ctx context.Context, email string) (*models.Account, error)
	VerifySession(ctx context.Context, token string) (*sessions.Claims, error)
	SignOut(ctx context.Context, claims *sessions.Claims) error
	ChangePassword(ctx context.Context, email string, input ChangePasswordInput) error
}

type SignInResult struct {
	Account      models.Account `json:"account"`
	RedirectPath string         `json:"redirectPath"`
	Token        string         `json:"token"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type authService struct {
	accountRepo repositories.AccountRepository
	passwords   PasswordAuthenticator
	oauth       CodeExchanger
	tokens      *sessions.Manager
	revocations sessions.RevocationStore
	logger      *slog.Logger
}

// NewAuthService wires the sign-in flow. oauth may be nil when no hosted
// provider is configured.
func NewAuthService(
	accountRepo repositories.AccountRepository,
	passwords PasswordAuthenticator,
	oauth CodeExchanger,
	tokens *sessions.Manager,
	revocations sessions.RevocationStore,
	logger *slog.Logger,
) AuthService {
	return &authService{
		accountRepo: accountRepo,
		passwords:   passwords,
		oauth:       oauth,
		tokens:      tokens,
		revocations: revocations,
		logger:      logger,
	}
}

func (s *authService) SignIn(ctx context.Context, creds models.Credentials) (*SignInResult, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := validate.Struct(creds); err != nil {
		return nil, validationError(err)
	}

	if err := s.passwords.Authenticate(ctx, creds.Email, creds.Password); err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("identity provider failed: %w", err)
	}
	return s.startSession(ctx, creds.Email)
}

func (s *authService) OAuthURL(state string) (string, error) {
	if s.oauth == nil {
		return "", ErrOAuthDisabled
	}
	return s.oauth.AuthCodeURL(state), nil
}

func (s *authService) CompleteOAuth(ctx context.Context, code string) (*SignInResult, error) {
	if s.oauth == nil {
		return nil, ErrOAuthDisabled
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing code", ErrAuthenticationFailed)
	}
	email, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		s.logger.WarnContext(ctx, "oauth exchange failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return s.startSession(ctx, email)
}

func (s *authService) startSession(ctx context.Context, email string) (*SignInResult, error) {
	account, err := s.ResolveAccount(ctx, email)
	if err != nil {
		return nil, err
	}

	token, claims, err := s.tokens.Issue(*account)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "signed in", slog.String("account_id", account.ID.String()), slog.String("role", string(account.Role)))

	return &SignInResult{
		Account:      *account,
		RedirectPath: account.Role.HomePath(),
		Token:        token,
		ExpiresAt:    claims.ExpiresAt.Time,
	}, nil
}

func (s *authService) ResolveAccount(ctx context.Context, email string) (*models.Account, error) {
	email = strings.TrimSpace(email)
	accounts, err := s.accountRepo.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account %s: %w", email, err)
	}

	switch len(accounts) {
	case 0:
		return nil, &NoRoleError{Email: email}
	case 1:
		account := accounts[0]
		if _, err := models.ParseRole(string(account.Role)); err != nil {
			return nil, &NoRoleError{Email: email}
		}
		return &account, nil
	default:
		s.logger.ErrorContext(ctx, "duplicate account rows", slog.String("email", email), slog.Int("rows", len(accounts)))
		return nil, ErrDuplicateAccount
	}
}

func (s *authService) VerifySession(ctx context.Context, token string) (*sessions.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, sessions.ErrRevokedToken)
	}
	return claims, nil
}

func (s *authService) SignOut(ctx context.Context, claims *sessions.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *authService) ChangePassword(ctx context.Context, email string, input ChangePasswordInput) error {
	if err := validate.Struct(input); err != nil {
		return validationError(err)
	}
	if input.NewPassword != input.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len([]rune(input.NewPassword)) < identity.MinPasswordLength {
		return ErrPasswordTooShort
	}

	if err := s.passwords.Authenticate(ctx, email, input.CurrentPassword); err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return ErrInvalidCredentials
		}
		return err
	}
	if err := s.passwords.SetPassword(ctx, email, input.NewPassword); err != nil {
		if errors.Is(err, identity.ErrPasswordTooShort) {
			return ErrPasswordTooShort
		}
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}
