package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Dosada05/tennis-planner/services"
)

type ExportHandler struct {
	exportService services.ExportService
}

func NewExportHandler(exportService services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

func writeBinary(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Workbook godoc
// @Summary Download the manager matrix as XLSX
// @Tags manager
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param coach_id query string false "Coach account id"
// @Param week query int false "Week number"
// @Success 200 {file} binary
// @Router /api/manager/export.xlsx [get]
func (h *ExportHandler) Workbook(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	filter, err := parseManagerFilter(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	data, err := h.exportService.Workbook(r.Context(), account, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	name := fmt.Sprintf("matice-%s.xlsx", time.Now().Format("2006-01-02"))
	writeBinary(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", name, data)
}

// Upload godoc
// @Summary Store the manager matrix workbook in object storage
// @Tags manager
// @Produce json
// @Success 201 {object} services.ExportResult
// @Failure 503 {object} map[string]string
// @Router /api/manager/exports [post]
func (h *ExportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	filter, err := parseManagerFilter(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	res, err := h.exportService.Upload(r.Context(), account, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, res, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Chart godoc
// @Summary Played tournaments per player as PNG
// @Tags manager
// @Produce png
// @Success 200 {file} binary
// @Router /api/manager/chart.png [get]
func (h *ExportHandler) Chart(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	filter, err := parseManagerFilter(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	data, err := h.exportService.Chart(r.Context(), account, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeBinary(w, "image/png", "", data)
}
