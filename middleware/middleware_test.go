package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/tennis-planner/models"
	"github.com/Dosada05/tennis-planner/services"
	"github.com/Dosada05/tennis-planner/sessions"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeVerifier struct {
	tokens   map[string]string
	accounts map[string]models.Account
	err      error
}

func (f fakeVerifier) VerifySession(_ context.Context, token string) (*sessions.Claims, error) {
	email, ok := f.tokens[token]
	if !ok {
		return nil, services.ErrAuthenticationFailed
	}
	return &sessions.Claims{Email: email}, nil
}

func (f fakeVerifier) ResolveAccount(_ context.Context, email string) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.accounts[email]
	if !ok {
		return nil, &services.NoRoleError{Email: email}
	}
	return &a, nil
}

func echoAccount() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, err := AccountFromContext(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = io.WriteString(w, string(account.Role))
	})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticate(t *testing.T) {
	coach := models.Account{ID: uuid.New(), Email: "trener@example.cz", Role: models.RoleCoach}
	verifier := fakeVerifier{
		tokens:   map[string]string{"good": coach.Email, "orphan": "smazany@example.cz"},
		accounts: map[string]models.Account{coach.Email: coach},
	}
	handler := Authenticate(verifier, discardLogger)(echoAccount())

	t.Run("bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/coach/dashboard", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "coach", rec.Body.String())
	})

	t.Run("session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/coach/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "good"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, LoginPath, decodeBody(t, rec)["redirect"])
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer forged")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("account no longer resolvable", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer orphan")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, LoginPath, body["redirect"])
		assert.Contains(t, body["error"], "smazany@example.cz")
	})

	t.Run("lookup failure", func(t *testing.T) {
		broken := verifier
		broken.err = io.ErrUnexpectedEOF
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		Authenticate(broken, discardLogger)(echoAccount()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, LoginPath, decodeBody(t, rec)["redirect"])
	})
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.RoleManager)(echoAccount())

	tests := []struct {
		name string
		ctx  func(context.Context) context.Context
		want int
	}{
		{"manager passes", func(ctx context.Context) context.Context {
			return WithAccount(ctx, models.Account{Role: models.RoleManager}, nil)
		}, http.StatusOK},
		{"parent refused", func(ctx context.Context) context.Context {
			return WithAccount(ctx, models.Account{Role: models.RoleParent}, nil)
		}, http.StatusForbidden},
		{"anonymous", func(ctx context.Context) context.Context { return ctx }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req.WithContext(tt.ctx(req.Context())))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSessionTokenPrefersHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "from-cookie"})
	assert.Equal(t, "from-header", SessionToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "from-cookie", SessionToken(req))
}

func TestRateLimitPerIP(t *testing.T) {
	handler := RateLimit(NewIPRateLimiter(2))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:5002"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2:5000"))
}

func TestMetricsUseRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	r := chi.NewRouter()
	r.Use(metrics.Instrument)
	r.Delete("/api/parent/entries/{entryID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/api/parent/entries/"+uuid.NewString(), nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	expected := `
# HELP planner_http_requests_total HTTP requests by route, method and status.
# TYPE planner_http_requests_total counter
planner_http_requests_total{method="DELETE",route="/api/parent/entries/{entryID}",status="204"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "planner_http_requests_total"))

	RegisterGauge(registry, "websocket_clients", "Connected websocket clients.", func() float64 { return 4 })
	count, err := testutil.GatherAndCount(registry, "planner_websocket_clients")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
