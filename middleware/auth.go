package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/Dosada05/tennis-planner/models"
	"github.com/Dosada05/tennis-planner/services"
	"github.com/Dosada05/tennis-planner/sessions"
)

// SessionVerifier is the part of services.AuthService the middleware needs.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*sessions.Claims, error)
	ResolveAccount(ctx context.Context, email string) (*models.Account, error)
}

// Authenticate verifies the session token and re-resolves the account on
// every request, so a role change or removed row takes effect immediately.
func Authenticate(auth SessionVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, map[string]string{"error": "missing session", "redirect": LoginPath})
				return
			}

			claims, err := auth.VerifySession(r.Context(), token)
			if err != nil {
				logger.DebugContext(r.Context(), "session rejected", slog.Any("error", err))
				writeError(w, http.StatusUnauthorized, map[string]string{"error": "invalid session", "redirect": LoginPath})
				return
			}

			account, err := auth.ResolveAccount(r.Context(), claims.Email)
			if err != nil {
				switch {
				case errors.Is(err, services.ErrNoRoleAssigned), errors.Is(err, services.ErrDuplicateAccount):
					writeError(w, http.StatusUnauthorized, map[string]string{"error": err.Error(), "redirect": LoginPath})
				default:
					logger.ErrorContext(r.Context(), "account lookup failed", slog.Any("error", err))
					writeError(w, http.StatusInternalServerError, map[string]string{"error": "account lookup failed", "redirect": LoginPath})
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), *account, claims)))
		})
	}
}

// RequireRole lets through only accounts with one of roles.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := AccountFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, map[string]string{"error": "not signed in", "redirect": LoginPath})
				return
			}
			if !slices.Contains(roles, account.Role) {
				writeError(w, http.StatusForbidden, map[string]string{"error": "Forbidden", "redirect": account.Role.HomePath()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
