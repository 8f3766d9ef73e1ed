package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Dosada05/tennis-planner/middleware"
	"github.com/Dosada05/tennis-planner/models"
	"github.com/Dosada05/tennis-planner/services"
	"github.com/google/uuid"
)

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	authService  services.AuthService
	secureCookie bool
}

func NewAuthHandler(authService services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// Login godoc
// @Summary Sign in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.Credentials true "Credentials"
// @Success 200 {object} services.SignInResult
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input models.Credentials
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("email and password are required"))
		return
	}

	res, err := h.authService.SignIn(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	response := jsonResponse{
		"success":      true,
		"redirectPath": res.RedirectPath,
		"token":        res.Token,
		"expires_at":   res.ExpiresAt,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// OAuthStart sends the browser to the hosted identity provider.
func (h *AuthHandler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	target, err := h.authService.OAuthURL(state)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusFound)
}

// Callback completes the OAuth code flow. Every failure lands on the login
// page with the message in the query string.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	fail := func(message string) {
		http.Redirect(w, r, middleware.LoginPath+"?error="+url.QueryEscape(message), http.StatusFound)
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		fail(e)
		return
	}
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != q.Get("state") {
		fail("Neplatný stav přihlášení, zkuste to znovu.")
		return
	}
	h.clearCookie(w, oauthStateCookie)

	res, err := h.authService.CompleteOAuth(r.Context(), q.Get("code"))
	if err != nil {
		if !errors.Is(err, services.ErrNoRoleAssigned) && !errors.Is(err, services.ErrAuthenticationFailed) {
			logger.ErrorContext(r.Context(), "oauth sign-in failed", slog.Any("error", err))
		}
		fail(err.Error())
		return
	}

	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	http.Redirect(w, r, res.RedirectPath, http.StatusFound)
}

// Logout godoc
// @Summary Sign out and revoke the session token
// @Tags auth
// @Success 204
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		if claims, err := h.authService.VerifySession(r.Context(), token); err == nil {
			if err := h.authService.SignOut(r.Context(), claims); err != nil {
				serverErrorResponse(w, r, err)
				return
			}
		}
	}
	h.clearCookie(w, middleware.SessionCookieName)
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword godoc
// @Summary Change the password of the signed-in account
// @Tags auth
// @Accept json
// @Param input body services.ChangePasswordInput true "Passwords"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/auth/password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}

	var input services.ChangePasswordInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.authService.ChangePassword(r.Context(), account.Email, input); err != nil {
		// Wrong current password must not look like an expired session.
		if errors.Is(err, services.ErrInvalidCredentials) {
			badRequestResponse(w, r, err)
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := map[string]string{"message": "Heslo bylo úspěšně změněno"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Me returns the account resolved for the current session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	response := jsonResponse{"account": account, "redirectPath": account.Role.HomePath()}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
