package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Dosada05/tennis-planner/models"
	"github.com/Dosada05/tennis-planner/sessions"
)

type contextKey string

const (
	accountContextKey contextKey = "account"
	claimsContextKey  contextKey = "claims"
)

// SessionCookieName is the cookie the sign-in handler sets.
const SessionCookieName = "session"

// LoginPath is where clients are sent when the session is unusable.
const LoginPath = "/login"

var ErrNoAccountInContext = errors.New("account not found in request context")

// AccountFromContext returns the account resolved by Authenticate.
func AccountFromContext(ctx context.Context) (models.Account, error) {
	account, ok := ctx.Value(accountContextKey).(models.Account)
	if !ok {
		return models.Account{}, ErrNoAccountInContext
	}
	return account, nil
}

func ClaimsFromContext(ctx context.Context) (*sessions.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*sessions.Claims)
	return claims, ok
}

// WithAccount stores an already resolved account; used by tests and by
// handlers that authenticate on their own.
func WithAccount(ctx context.Context, account models.Account, claims *sessions.Claims) context.Context {
	ctx = context.WithValue(ctx, accountContextKey, account)
	if claims != nil {
		ctx = context.WithValue(ctx, claimsContextKey, claims)
	}
	return ctx
}

// SessionToken reads the bearer token, falling back to the session cookie.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
