package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Dosada05/tennis-planner/middleware"
	"github.com/Dosada05/tennis-planner/services"
	"github.com/google/uuid"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(s services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: s}
}

// dashboardError keeps validation and access errors as they are; any read
// failure becomes 500 with a redirect to the login page.
func dashboardError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrForbiddenOperation),
		errors.Is(err, services.ErrInvalidRequestedWeek):
		mapServiceErrorToHTTP(w, r, err)
	default:
		logger.ErrorContext(r.Context(), "dashboard load failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		redirectErrorResponse(w, r, http.StatusInternalServerError, "Nepodařilo se načíst data.", middleware.LoginPath)
	}
}

// Parent godoc
// @Summary Parent dashboard: own children, their entries and week buckets
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.ParentDashboard
// @Failure 500 {object} map[string]string
// @Router /api/parent/dashboard [get]
func (h *DashboardHandler) Parent(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	view, err := h.dashboardService.ParentView(r.Context(), account)
	if err != nil {
		dashboardError(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Coach godoc
// @Summary Coach dashboard: coached players and the tournament matrix
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.CoachDashboard
// @Router /api/coach/dashboard [get]
func (h *DashboardHandler) Coach(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	view, err := h.dashboardService.CoachView(r.Context(), account)
	if err != nil {
		dashboardError(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Manager godoc
// @Summary Manager dashboard with optional coach and week filters
// @Tags dashboard
// @Produce json
// @Param coach_id query string false "Coach account id"
// @Param week query int false "Week number"
// @Success 200 {object} services.ManagerDashboard
// @Router /api/manager/dashboard [get]
func (h *DashboardHandler) Manager(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	filter, err := parseManagerFilter(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	view, err := h.dashboardService.ManagerView(r.Context(), account, filter)
	if err != nil {
		dashboardError(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// parseManagerFilter reads coach_id and week; empty values and "all" mean
// no filter.
func parseManagerFilter(r *http.Request) (services.ManagerFilter, error) {
	var filter services.ManagerFilter
	q := r.URL.Query()

	if raw := q.Get("coach_id"); raw != "" && raw != "all" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("invalid coach_id")
		}
		filter.CoachID = &id
	}
	if raw := q.Get("week"); raw != "" && raw != "all" {
		week, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errors.New("invalid week")
		}
		filter.Week = week
	}
	return filter, nil
}
