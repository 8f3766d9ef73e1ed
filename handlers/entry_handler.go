package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dosada05/tennis-planner/services"
	"github.com/go-chi/chi/v5"
)

type EntryHandler struct {
	entryService services.EntryService
}

func NewEntryHandler(entryService services.EntryService) *EntryHandler {
	return &EntryHandler{entryService: entryService}
}

// Create godoc
// @Summary Plan a tournament for one of the parent's children
// @Tags entries
// @Accept json
// @Produce json
// @Param input body services.CreateEntryInput true "Entry"
// @Success 201 {object} models.EntryDetail
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/parent/entries [post]
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}

	var input services.CreateEntryInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	detail, err := h.entryService.CreateEntry(r.Context(), account, input)
	if err != nil {
		mapWriteErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, detail, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Update godoc
// @Summary Edit an entry and its shared tournament
// @Tags entries
// @Accept json
// @Produce json
// @Param entryID path string true "Entry id"
// @Param input body services.UpdateEntryInput true "Changes"
// @Success 200 {object} models.EntryDetail
// @Failure 409 {object} map[string]string
// @Router /api/parent/entries/{entryID} [put]
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	entryID, ok := parseUUIDParam(w, r, chi.URLParam(r, "entryID"), "entry id")
	if !ok {
		return
	}

	var input services.UpdateEntryInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	detail, err := h.entryService.UpdateEntry(r.Context(), account, entryID, input)
	if err != nil {
		mapWriteErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, detail, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delete godoc
// @Summary Delete an entry; its tournament goes with the last entry
// @Tags entries
// @Produce json
// @Param entryID path string true "Entry id"
// @Param confirm query bool true "Must be true"
// @Success 200 {object} services.DeleteEntryResult
// @Router /api/parent/entries/{entryID} [delete]
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	entryID, ok := parseUUIDParam(w, r, chi.URLParam(r, "entryID"), "entry id")
	if !ok {
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	res, err := h.entryService.DeleteEntry(r.Context(), account, entryID, confirmed)
	if err != nil {
		mapWriteErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, res, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
